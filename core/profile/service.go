package profile

import (
	"context"
	"time"

	"github.com/unigate/unigate/core"
)

type (
	Repository interface {
		GetProfile(ctx context.Context, id string) (Profile, error)
		CreateProfile(ctx context.Context, prof Profile) (Profile, error)
		UpdateProfile(ctx context.Context, prof Profile) (Profile, error)
		QueryProfiles(ctx context.Context, tenant string, filter *QueryFilter, ordering []core.DBOrdering) ([]Profile, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Provision returns the profile matching the actor, creating it on first
// sight from the verified claims.
func (svc *Service) Provision(ctx context.Context, actor Actor) (Profile, error) {
	prof, err := svc.repo.GetProfile(ctx, actor.ID)
	if err == nil {
		return prof, nil
	}
	if core.KindOf(err) != core.KindNotFound {
		return Profile{}, err
	}

	now := time.Now().UTC()
	prof = Profile{
		ID:        actor.ID,
		Tenant:    actor.Tenant,
		Role:      actor.Role,
		Name:      actor.Name,
		Email:     core.CleanString(actor.Email, true /* lower */),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateProfile(ctx, prof)
}

func (svc *Service) Get(ctx context.Context, actor Actor, id string) (Profile, error) {
	prof, err := svc.repo.GetProfile(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	if prof.Tenant != actor.Tenant {
		return Profile{}, core.NotFoundError("profile not found")
	}
	if id != actor.ID && !actor.IsStaff() {
		return Profile{}, core.PermissionError("permission denied")
	}
	return prof, nil
}

func (svc *Service) Update(ctx context.Context, actor Actor, up UpdateProfile) (Profile, error) {
	prof, err := svc.repo.GetProfile(ctx, actor.ID)
	if err != nil {
		return Profile{}, err
	}
	if up.Name != "" {
		prof.Name = up.Name
	}
	if up.Email != "" {
		prof.Email = up.Email
	}
	prof.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProfile(ctx, prof)
}

func (svc *Service) Query(ctx context.Context, actor Actor, filter *QueryFilter, ordering []core.DBOrdering) ([]Profile, error) {
	if !actor.IsStaff() {
		return nil, core.PermissionError("permission denied")
	}
	return svc.repo.QueryProfiles(ctx, actor.Tenant, filter, ordering)
}

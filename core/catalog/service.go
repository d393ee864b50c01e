package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/profile"
)

type (
	Repository interface {
		CreateUniversity(ctx context.Context, uni University) (University, error)
		GetUniversity(ctx context.Context, id string) (University, error)
		QueryUniversities(ctx context.Context, tenant string, filter *QueryFilter, ordering []core.DBOrdering) ([]University, error)
		DeleteUniversity(ctx context.Context, id string) error

		CreateProgram(ctx context.Context, prog Program) (Program, error)
		GetProgram(ctx context.Context, id string) (Program, error)
		QueryPrograms(ctx context.Context, tenant string, filter *QueryFilter, ordering []core.DBOrdering) ([]Program, error)
		DeleteProgram(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CreateUniversity(ctx context.Context, actor profile.Actor, nu NewUniversity) (University, error) {
	if !actor.IsStaff() {
		return University{}, core.PermissionError("permission denied")
	}
	uni := University{
		ID:      uuid.New().String(),
		Tenant:  actor.Tenant,
		Name:    nu.Name,
		Country: nu.Country,
		City:    nu.City,
	}
	return svc.repo.CreateUniversity(ctx, uni)
}

func (svc *Service) GetUniversity(ctx context.Context, actor profile.Actor, id string) (University, error) {
	uni, err := svc.repo.GetUniversity(ctx, id)
	if err != nil {
		return University{}, err
	}
	if uni.Tenant != actor.Tenant {
		return University{}, core.NotFoundError("university not found")
	}
	return uni, nil
}

func (svc *Service) QueryUniversities(ctx context.Context, actor profile.Actor, filter *QueryFilter, ordering []core.DBOrdering) ([]University, error) {
	return svc.repo.QueryUniversities(ctx, actor.Tenant, filter, ordering)
}

func (svc *Service) DeleteUniversity(ctx context.Context, actor profile.Actor, id string) error {
	if !actor.IsAdmin() {
		return core.PermissionError("permission denied")
	}
	if _, err := svc.GetUniversity(ctx, actor, id); err != nil {
		return err
	}
	return svc.repo.DeleteUniversity(ctx, id)
}

func (svc *Service) CreateProgram(ctx context.Context, actor profile.Actor, np NewProgram) (Program, error) {
	if !actor.IsStaff() {
		return Program{}, core.PermissionError("permission denied")
	}
	// the university must exist within the actor's tenant
	if _, err := svc.GetUniversity(ctx, actor, np.UniversityID); err != nil {
		return Program{}, err
	}
	prog := Program{
		ID:           uuid.New().String(),
		UniversityID: np.UniversityID,
		Name:         np.Name,
		Level:        np.Level,
		TuitionCents: np.TuitionCents,
		Currency:     strings.ToUpper(np.Currency),
	}
	return svc.repo.CreateProgram(ctx, prog)
}

func (svc *Service) GetProgram(ctx context.Context, actor profile.Actor, id string) (Program, error) {
	prog, err := svc.repo.GetProgram(ctx, id)
	if err != nil {
		return Program{}, err
	}
	if _, err = svc.GetUniversity(ctx, actor, prog.UniversityID); err != nil {
		return Program{}, core.NotFoundError("program not found")
	}
	return prog, nil
}

func (svc *Service) QueryPrograms(ctx context.Context, actor profile.Actor, filter *QueryFilter, ordering []core.DBOrdering) ([]Program, error) {
	return svc.repo.QueryPrograms(ctx, actor.Tenant, filter, ordering)
}

func (svc *Service) DeleteProgram(ctx context.Context, actor profile.Actor, id string) error {
	if !actor.IsAdmin() {
		return core.PermissionError("permission denied")
	}
	if _, err := svc.GetProgram(ctx, actor, id); err != nil {
		return err
	}
	return svc.repo.DeleteProgram(ctx, id)
}

package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/profile"
)

// addStaff updates or creates a staff profile. Profiles normally provision
// themselves from platform claims on first sight; this bootstraps the first
// staff member of a tenant.
func (cli *commandLine) addStaff(id, tenant, name, email string, isAdmin bool) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	role := profile.RoleStaff
	if isAdmin {
		role = profile.RoleAdmin
	}
	if id == "" {
		id = uuid.New().String()
	}

	now := time.Now().UTC()
	prof, err := cli.profileRepo.GetProfile(ctx, id)
	if err != nil {
		if core.KindOf(err) != core.KindNotFound {
			return err
		}
		_, err = cli.profileRepo.CreateProfile(ctx, profile.Profile{
			ID:        id,
			Tenant:    tenant,
			Role:      role,
			Name:      name,
			Email:     email,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return err
	}

	prof.Tenant = tenant
	prof.Role = role
	prof.Name = name
	prof.Email = email
	prof.UpdatedAt = now
	_, err = cli.profileRepo.UpdateProfile(ctx, prof)
	return err
}

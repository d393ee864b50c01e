package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/profile"
)

type profileRepository struct {
	db *profileTable
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) profile.Repository {
	return &profileRepository{db: db.profile}
}

func (repo *profileRepository) GetProfile(ctx context.Context, id string) (profile.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if prof, ok := repo.db.table[id]; ok {
		return *prof, nil
	}
	return profile.Profile{}, core.NotFoundError("profile not found")
}

func (repo *profileRepository) CreateProfile(ctx context.Context, prof profile.Profile) (profile.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[prof.ID]; ok {
		return profile.Profile{}, core.ConflictError("profile already exists")
	}
	repo.db.table[prof.ID] = &prof
	return prof, nil
}

func (repo *profileRepository) UpdateProfile(ctx context.Context, prof profile.Profile) (profile.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[prof.ID]; !ok {
		return profile.Profile{}, core.NotFoundError("profile not found")
	}
	repo.db.table[prof.ID] = &prof
	return prof, nil
}

func (repo *profileRepository) QueryProfiles(ctx context.Context, tenant string, filter *profile.QueryFilter, ordering []core.DBOrdering) ([]profile.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var profs []profile.Profile
	for _, prof := range repo.db.table {
		if prof.Tenant != tenant {
			continue
		}
		if filter != nil {
			if filter.Role != "" && prof.Role != filter.Role {
				continue
			}
			if filter.Search != "" {
				search := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(prof.Name), search) &&
					!strings.Contains(strings.ToLower(prof.Email), search) {
					continue
				}
			}
		}
		profs = append(profs, *prof)
	}
	sort.Slice(profs, func(i, j int) bool { return profs[i].CreatedAt.After(profs[j].CreatedAt) })
	return profs, nil
}

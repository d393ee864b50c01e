package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/catalog"
)

type catalogRepository struct {
	db *DB
}

var _ catalog.Repository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(db *DB) catalog.Repository {
	return &catalogRepository{db: db}
}

func (repo *catalogRepository) CreateUniversity(ctx context.Context, uni catalog.University) (catalog.University, error) {
	repo.db.university.Lock()
	defer repo.db.university.Unlock()

	repo.db.university.table[uni.ID] = &uni
	return uni, nil
}

func (repo *catalogRepository) GetUniversity(ctx context.Context, id string) (catalog.University, error) {
	repo.db.university.RLock()
	defer repo.db.university.RUnlock()

	if uni, ok := repo.db.university.table[id]; ok {
		return *uni, nil
	}
	return catalog.University{}, core.NotFoundError("university not found")
}

func (repo *catalogRepository) QueryUniversities(ctx context.Context, tenant string, filter *catalog.QueryFilter, ordering []core.DBOrdering) ([]catalog.University, error) {
	repo.db.university.RLock()
	defer repo.db.university.RUnlock()

	var unis []catalog.University
	for _, uni := range repo.db.university.table {
		if uni.Tenant != tenant {
			continue
		}
		if filter != nil {
			if filter.Country != "" && !strings.EqualFold(uni.Country, filter.Country) {
				continue
			}
			if filter.Search != "" && !strings.Contains(strings.ToLower(uni.Name), strings.ToLower(filter.Search)) {
				continue
			}
		}
		unis = append(unis, *uni)
	}
	sort.Slice(unis, func(i, j int) bool { return unis[i].Name < unis[j].Name })
	return unis, nil
}

func (repo *catalogRepository) DeleteUniversity(ctx context.Context, id string) error {
	repo.db.university.Lock()
	delete(repo.db.university.table, id)
	repo.db.university.Unlock()

	// cascade
	repo.db.program.Lock()
	defer repo.db.program.Unlock()
	for progID, prog := range repo.db.program.table {
		if prog.UniversityID == id {
			delete(repo.db.program.table, progID)
		}
	}
	return nil
}

func (repo *catalogRepository) CreateProgram(ctx context.Context, prog catalog.Program) (catalog.Program, error) {
	repo.db.program.Lock()
	defer repo.db.program.Unlock()

	repo.db.program.table[prog.ID] = &prog
	return prog, nil
}

func (repo *catalogRepository) GetProgram(ctx context.Context, id string) (catalog.Program, error) {
	repo.db.program.RLock()
	defer repo.db.program.RUnlock()

	if prog, ok := repo.db.program.table[id]; ok {
		return *prog, nil
	}
	return catalog.Program{}, core.NotFoundError("program not found")
}

func (repo *catalogRepository) QueryPrograms(ctx context.Context, tenant string, filter *catalog.QueryFilter, ordering []core.DBOrdering) ([]catalog.Program, error) {
	tenantUnis := make(map[string]bool)
	repo.db.university.RLock()
	for _, uni := range repo.db.university.table {
		if uni.Tenant == tenant {
			tenantUnis[uni.ID] = true
		}
	}
	repo.db.university.RUnlock()

	repo.db.program.RLock()
	defer repo.db.program.RUnlock()

	var progs []catalog.Program
	for _, prog := range repo.db.program.table {
		if !tenantUnis[prog.UniversityID] {
			continue
		}
		if filter != nil {
			if filter.UniversityID != "" && prog.UniversityID != filter.UniversityID {
				continue
			}
			if filter.Search != "" && !strings.Contains(strings.ToLower(prog.Name), strings.ToLower(filter.Search)) {
				continue
			}
		}
		progs = append(progs, *prog)
	}
	sort.Slice(progs, func(i, j int) bool { return progs[i].Name < progs[j].Name })
	return progs, nil
}

func (repo *catalogRepository) DeleteProgram(ctx context.Context, id string) error {
	repo.db.program.Lock()
	defer repo.db.program.Unlock()
	delete(repo.db.program.table, id)
	return nil
}

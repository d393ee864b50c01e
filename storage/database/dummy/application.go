package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/application"
)

type applicationRepository struct {
	db *DB
}

var _ application.Repository = (*applicationRepository)(nil) // interface compliance check

func NewApplicationRepository(db *DB) application.Repository {
	return &applicationRepository{db: db}
}

func (repo *applicationRepository) CreateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	repo.db.application.Lock()
	defer repo.db.application.Unlock()

	repo.db.application.table[app.ID] = &app
	return app, nil
}

func (repo *applicationRepository) GetApplication(ctx context.Context, id string) (application.Application, error) {
	repo.db.application.RLock()
	defer repo.db.application.RUnlock()

	if app, ok := repo.db.application.table[id]; ok {
		return *app, nil
	}
	return application.Application{}, core.NotFoundError("application not found")
}

// join builds the Detail view from the in-memory tables; missing joins are
// left zero-valued rather than failing.
func (repo *applicationRepository) join(app application.Application) application.Detail {
	d := application.Detail{Application: app}

	repo.db.student.RLock()
	if stu, ok := repo.db.student.table[app.StudentID]; ok {
		d.StudentName = stu.FullName()
		d.StudentEmail = stu.Email
		d.StudentNationality = stu.Nationality
		d.StudentCountry = stu.Country
		d.StudentProfileID = stu.ProfileID
	}
	repo.db.student.RUnlock()

	repo.db.program.RLock()
	prog, hasProg := repo.db.program.table[app.ProgramID]
	if hasProg {
		d.ProgramName = prog.Name
		d.ProgramLevel = prog.Level
	}
	repo.db.program.RUnlock()

	if hasProg {
		repo.db.university.RLock()
		if uni, ok := repo.db.university.table[prog.UniversityID]; ok {
			d.UniversityID = uni.ID
			d.UniversityName = uni.Name
			d.UniversityCountry = uni.Country
		}
		repo.db.university.RUnlock()
	}

	if app.AgentID != "" {
		repo.db.agent.RLock()
		if agt, ok := repo.db.agent.table[app.AgentID]; ok {
			d.AgentName = agt.Name
			d.AgentProfileID = agt.ProfileID
		}
		repo.db.agent.RUnlock()
	}

	repo.db.document.RLock()
	var last time.Time
	for _, doc := range repo.db.document.table {
		if doc.ApplicationID == app.ID && doc.CreatedAt.After(last) {
			last = doc.CreatedAt
		}
	}
	repo.db.document.RUnlock()
	d.LastDocumentAt = last

	return d
}

func (repo *applicationRepository) GetApplicationDetail(ctx context.Context, id string) (application.Detail, error) {
	app, err := repo.GetApplication(ctx, id)
	if err != nil {
		return application.Detail{}, err
	}
	return repo.join(app), nil
}

func (repo *applicationRepository) QueryApplications(ctx context.Context, tenant string, filter *application.QueryFilter, ordering []core.DBOrdering) ([]application.Detail, error) {
	repo.db.application.RLock()
	apps := make([]application.Application, 0, len(repo.db.application.table))
	for _, app := range repo.db.application.table {
		if app.Tenant == tenant {
			apps = append(apps, *app)
		}
	}
	repo.db.application.RUnlock()

	var details []application.Detail
	for _, app := range apps {
		d := repo.join(app)
		if filter != nil && !matchesFilter(d, filter) {
			continue
		}
		details = append(details, d)
	}
	sort.Slice(details, func(i, j int) bool { return details[i].CreatedAt.After(details[j].CreatedAt) })
	return details, nil
}

func matchesFilter(d application.Detail, filter *application.QueryFilter) bool {
	if len(filter.Status) > 0 {
		found := false
		for _, s := range filter.Status {
			if d.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.StudentID != "" && d.StudentID != filter.StudentID {
		return false
	}
	if filter.AgentID != "" && d.AgentID != filter.AgentID {
		return false
	}
	if filter.UniversityID != "" && d.UniversityID != filter.UniversityID {
		return false
	}
	if filter.ProgramID != "" && d.ProgramID != filter.ProgramID {
		return false
	}
	if filter.StudentProfileID != "" && d.StudentProfileID != filter.StudentProfileID {
		return false
	}
	if filter.AgentProfileID != "" && d.AgentProfileID != filter.AgentProfileID {
		return false
	}
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(d.StudentName), search) &&
			!strings.Contains(strings.ToLower(d.StudentEmail), search) &&
			!strings.Contains(strings.ToLower(d.ProgramName), search) {
			return false
		}
	}
	if !filter.CreatedFrom.IsZero() && d.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && d.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}

func (repo *applicationRepository) UpdateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	repo.db.application.Lock()
	defer repo.db.application.Unlock()

	if _, ok := repo.db.application.table[app.ID]; !ok {
		return application.Application{}, core.NotFoundError("application not found")
	}
	repo.db.application.table[app.ID] = &app
	return app, nil
}

func (repo *applicationRepository) DeleteApplication(ctx context.Context, id string) error {
	repo.db.application.Lock()
	defer repo.db.application.Unlock()
	delete(repo.db.application.table, id)
	return nil
}

func (repo *applicationRepository) GetStudentRef(ctx context.Context, studentID string) (application.StudentRef, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	if stu, ok := repo.db.student.table[studentID]; ok {
		return application.StudentRef{
			ID:        stu.ID,
			Tenant:    stu.Tenant,
			ProfileID: stu.ProfileID,
			Name:      stu.FullName(),
			Email:     stu.Email,
		}, nil
	}
	return application.StudentRef{}, core.NotFoundError("student not found")
}

func (repo *applicationRepository) GetAgentRef(ctx context.Context, agentID string) (application.AgentRef, error) {
	repo.db.agent.RLock()
	defer repo.db.agent.RUnlock()

	if agt, ok := repo.db.agent.table[agentID]; ok {
		return application.AgentRef{
			ID:        agt.ID,
			Tenant:    agt.Tenant,
			ProfileID: agt.ProfileID,
			Name:      agt.Name,
		}, nil
	}
	return application.AgentRef{}, core.NotFoundError("agent not found")
}

package student

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/profile"
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, stu Student) (Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		// QueryStudents applies AND on available filter fields.
		// QueryFilter.Search does a case-insensitive match on name or email.
		QueryStudents(ctx context.Context, tenant string, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		UpdateStudent(ctx context.Context, stu Student) (Student, error)
		DeleteStudent(ctx context.Context, id string) error

		UpsertTestScore(ctx context.Context, score TestScore) (TestScore, error)
		ListTestScores(ctx context.Context, studentID string) ([]TestScore, error)

		// StudentLinkedToAgentProfile reports whether any of the student's
		// applications is assigned to an agent owned by the given profile.
		StudentLinkedToAgentProfile(ctx context.Context, studentID, profileID string) (bool, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// canAccess enforces row visibility: students their own row, agents their
// linked students, staff the whole tenant.
func (svc *Service) canAccess(ctx context.Context, actor profile.Actor, stu Student) (bool, error) {
	if stu.Tenant != actor.Tenant {
		return false, nil
	}
	if actor.IsStaff() {
		return true, nil
	}
	if actor.IsStudent() {
		return stu.ProfileID == actor.ID, nil
	}
	return svc.repo.StudentLinkedToAgentProfile(ctx, stu.ID, actor.ID)
}

func (svc *Service) Create(ctx context.Context, actor profile.Actor, ns NewStudent) (Student, error) {
	if actor.IsStudent() && ns.ProfileID != actor.ID {
		// students may only create their own record
		ns.ProfileID = actor.ID
	}
	now := time.Now().UTC()
	stu := Student{
		ID:          uuid.New().String(),
		Tenant:      actor.Tenant,
		ProfileID:   ns.ProfileID,
		FirstName:   ns.FirstName,
		LastName:    ns.LastName,
		Email:       ns.Email,
		Nationality: ns.Nationality,
		Country:     ns.Country,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateStudent(ctx, stu)
}

func (svc *Service) Get(ctx context.Context, actor profile.Actor, id string) (Student, error) {
	stu, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	ok, err := svc.canAccess(ctx, actor, stu)
	if err != nil {
		return Student{}, err
	}
	if !ok {
		return Student{}, core.PermissionError("permission denied")
	}
	return stu, nil
}

func (svc *Service) Query(ctx context.Context, actor profile.Actor, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	if actor.IsStudent() {
		return nil, core.PermissionError("permission denied")
	}
	if actor.IsAgent() {
		// agents only ever see their linked students
		filter.AgentProfileID = actor.ID
	}
	return svc.repo.QueryStudents(ctx, actor.Tenant, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, actor profile.Actor, id string, us UpdateStudent) (Student, error) {
	stu, err := svc.Get(ctx, actor, id)
	if err != nil {
		return Student{}, err
	}
	if us.FirstName != "" {
		stu.FirstName = us.FirstName
	}
	if us.LastName != "" {
		stu.LastName = us.LastName
	}
	if us.Email != "" {
		stu.Email = us.Email
	}
	if us.Nationality != "" {
		stu.Nationality = us.Nationality
	}
	if us.Country != "" {
		stu.Country = us.Country
	}
	stu.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, stu)
}

func (svc *Service) Delete(ctx context.Context, actor profile.Actor, id string) error {
	if !actor.IsAdmin() {
		return core.PermissionError("permission denied")
	}
	if _, err := svc.Get(ctx, actor, id); err != nil {
		return err
	}
	return svc.repo.DeleteStudent(ctx, id)
}

func (svc *Service) UpsertTestScore(ctx context.Context, actor profile.Actor, studentID string, uts UpsertTestScore) (TestScore, error) {
	if _, err := svc.Get(ctx, actor, studentID); err != nil {
		return TestScore{}, err
	}
	score := TestScore{
		ID:        uuid.New().String(),
		StudentID: studentID,
		Kind:      uts.Kind,
		Score:     uts.Score,
		TakenAt:   uts.TakenAt,
	}
	return svc.repo.UpsertTestScore(ctx, score)
}

func (svc *Service) ListTestScores(ctx context.Context, actor profile.Actor, studentID string) ([]TestScore, error) {
	if _, err := svc.Get(ctx, actor, studentID); err != nil {
		return nil, err
	}
	return svc.repo.ListTestScores(ctx, studentID)
}

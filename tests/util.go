package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/agent"
	"github.com/unigate/unigate/core/application"
	"github.com/unigate/unigate/core/catalog"
	"github.com/unigate/unigate/core/profile"
	"github.com/unigate/unigate/core/student"
)

// nopLogger satisfies core.Logger for services under test.
type nopLogger struct{}

var _ core.Logger = (*nopLogger)(nil)

func (nopLogger) Enable(bool)                 {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func NewLogger() core.Logger { return nopLogger{} }

func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.Debug = true
	conf.TestMode = true
	return conf
}

func NewActor(tenant, role string) profile.Actor {
	id := uuid.New().String()
	return profile.Actor{
		ID:     id,
		Tenant: tenant,
		Role:   role,
		Email:  id[:8] + "@test.cd",
		Name:   "Test " + role,
	}
}

func CreateProfile(
	t *testing.T,
	repo profile.Repository,
	tenant, role, name, email string,
) profile.Profile {
	t.Helper()

	now := time.Now().UTC()
	prof, err := repo.CreateProfile(context.Background(), profile.Profile{
		ID:        uuid.New().String(),
		Tenant:    tenant,
		Role:      role,
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}
	return prof
}

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	tenant, firstName, lastName, email, nationality, country, profileID string,
) student.Student {
	t.Helper()

	now := time.Now().UTC()
	stu, err := repo.CreateStudent(context.Background(), student.Student{
		ID:          uuid.New().String(),
		Tenant:      tenant,
		ProfileID:   profileID,
		FirstName:   firstName,
		LastName:    lastName,
		Email:       email,
		Nationality: nationality,
		Country:     country,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return stu
}

func CreateAgent(
	t *testing.T,
	repo agent.Repository,
	tenant, profileID, name, email string,
) agent.Agent {
	t.Helper()

	now := time.Now().UTC()
	agt, err := repo.CreateAgent(context.Background(), agent.Agent{
		ID:             uuid.New().String(),
		Tenant:         tenant,
		ProfileID:      profileID,
		Name:           name,
		Email:          email,
		CommissionRate: 0.1,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		t.Fatalf("CreateAgent() failed: %v", err)
	}
	return agt
}

func CreateUniversity(
	t *testing.T,
	repo catalog.Repository,
	tenant, name, country string,
) catalog.University {
	t.Helper()

	uni, err := repo.CreateUniversity(context.Background(), catalog.University{
		ID:      uuid.New().String(),
		Tenant:  tenant,
		Name:    name,
		Country: country,
	})
	if err != nil {
		t.Fatalf("CreateUniversity() failed: %v", err)
	}
	return uni
}

func CreateProgram(
	t *testing.T,
	repo catalog.Repository,
	universityID, name, level string,
) catalog.Program {
	t.Helper()

	prog, err := repo.CreateProgram(context.Background(), catalog.Program{
		ID:           uuid.New().String(),
		UniversityID: universityID,
		Name:         name,
		Level:        level,
		Currency:     "GBP",
	})
	if err != nil {
		t.Fatalf("CreateProgram() failed: %v", err)
	}
	return prog
}

func CreateApplication(
	t *testing.T,
	repo application.Repository,
	tenant, studentID, programID, agentID, status string,
	createdAt ...time.Time,
) application.Application {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	app, err := repo.CreateApplication(context.Background(), application.Application{
		ID:             uuid.New().String(),
		Tenant:         tenant,
		StudentID:      studentID,
		ProgramID:      programID,
		AgentID:        agentID,
		Status:         status,
		LastActivityAt: tstamp,
		CreatedAt:      tstamp,
		UpdatedAt:      tstamp,
	})
	if err != nil {
		t.Fatalf("CreateApplication() failed: %v", err)
	}
	return app
}

func CreateCommission(
	t *testing.T,
	repo agent.Repository,
	tenant, agentID, applicationID string,
	amountCents int64,
	currency, status string,
) agent.Commission {
	t.Helper()

	now := time.Now().UTC()
	com, err := repo.CreateCommission(context.Background(), agent.Commission{
		ID:            uuid.New().String(),
		Tenant:        tenant,
		AgentID:       agentID,
		ApplicationID: applicationID,
		AmountCents:   amountCents,
		Currency:      currency,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("CreateCommission() failed: %v", err)
	}
	return com
}

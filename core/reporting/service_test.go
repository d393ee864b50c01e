package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/agent"
	"github.com/unigate/unigate/core/application"
	"github.com/unigate/unigate/core/audit"
	"github.com/unigate/unigate/core/notification"
	"github.com/unigate/unigate/core/profile"
	"github.com/unigate/unigate/core/realtime"
	dummydb "github.com/unigate/unigate/storage/database/dummy"
	testutil "github.com/unigate/unigate/tests"
)

type svcFixture struct {
	svc       *Service
	appSvc    *application.Service
	appRepo   application.Repository
	agentRepo agent.Repository
	db        *dummydb.DB
}

func setupSvc(t *testing.T) *svcFixture {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	hub := realtime.NewHub()
	notifSvc := notification.NewService(dummydb.NewNotificationRepository(db), hub)
	auditSvc := audit.NewService(dummydb.NewAuditRepository(db), testutil.NewLogger())

	appRepo := dummydb.NewApplicationRepository(db)
	agentRepo := dummydb.NewAgentRepository(db)
	cache := NewCache(8, time.Minute)
	appSvc := application.NewService(appRepo, notifSvc, auditSvc, hub, cache)
	agentSvc := agent.NewService(agentRepo, cache)

	return &svcFixture{
		svc:       NewService(appSvc, agentSvc, cache),
		appSvc:    appSvc,
		appRepo:   appRepo,
		agentRepo: agentRepo,
		db:        db,
	}
}

func TestService_Overview_staffOnly(t *testing.T) {
	fix := setupSvc(t)
	ctx := context.Background()

	for _, role := range []string{profile.RoleStudent, profile.RoleAgent} {
		_, err := fix.svc.Overview(ctx, testutil.NewActor("acme", role))
		if core.KindOf(err) != core.KindPermissionDenied {
			t.Errorf("Overview() as %s: kind = %v, want permission denied", role, core.KindOf(err))
		}
	}

	if _, err := fix.svc.Overview(ctx, testutil.NewActor("acme", profile.RoleStaff)); err != nil {
		t.Errorf("Overview() as staff: unexpected error %v", err)
	}
}

func TestService_Overview_cached(t *testing.T) {
	fix := setupSvc(t)
	ctx := context.Background()
	staff := testutil.NewActor("acme", profile.RoleStaff)

	testutil.CreateApplication(t, fix.appRepo, "acme", "stu-1", "prog-1", "", application.StatusLead)

	overview, err := fix.svc.Overview(ctx, staff)
	if err != nil {
		t.Fatalf("Overview() failed: %v", err)
	}
	if overview.TotalApplications != 1 {
		t.Fatalf("TotalApplications = %d, want 1", overview.TotalApplications)
	}

	// a write after the first assembly is invisible until the cache is dropped
	testutil.CreateApplication(t, fix.appRepo, "acme", "stu-2", "prog-1", "", application.StatusLead)

	overview, err = fix.svc.Overview(ctx, staff)
	if err != nil {
		t.Fatalf("Overview() failed: %v", err)
	}
	if overview.TotalApplications != 1 {
		t.Errorf("TotalApplications = %d, want stale 1", overview.TotalApplications)
	}

	fix.svc.cache.Invalidate("acme")

	overview, err = fix.svc.Overview(ctx, staff)
	if err != nil {
		t.Fatalf("Overview() failed: %v", err)
	}
	if overview.TotalApplications != 2 {
		t.Errorf("TotalApplications = %d, want 2 after Invalidate", overview.TotalApplications)
	}
}

func TestService_Overview_invalidatedOnStatusChange(t *testing.T) {
	fix := setupSvc(t)
	ctx := context.Background()
	staff := testutil.NewActor("fresh", profile.RoleStaff)

	stuRepo := dummydb.NewStudentRepository(fix.db)
	stu := testutil.CreateStudent(t, stuRepo, "fresh", "Ada", "Lovelace", "ada@test.cd", "", "", "")
	app := testutil.CreateApplication(t, fix.appRepo, "fresh", stu.ID, "prog-1", "", application.StatusLead)

	overview, err := fix.svc.Overview(ctx, staff)
	if err != nil {
		t.Fatalf("Overview() failed: %v", err)
	}
	if overview.StatusCounts[application.StatusLead] != 1 {
		t.Fatalf("StatusCounts[lead] = %d, want 1", overview.StatusCounts[application.StatusLead])
	}

	// a write through the service drops the cached report
	if _, err = fix.appSvc.UpdateStatus(ctx, staff, app.ID, application.UpdateStatus{Status: application.StatusSubmitted}); err != nil {
		t.Fatalf("UpdateStatus() failed: %v", err)
	}

	overview, err = fix.svc.Overview(ctx, staff)
	if err != nil {
		t.Fatalf("Overview() failed: %v", err)
	}
	if overview.StatusCounts[application.StatusSubmitted] != 1 {
		t.Errorf("StatusCounts[submitted] = %d, want 1 right after the status change", overview.StatusCounts[application.StatusSubmitted])
	}
	if overview.StatusCounts[application.StatusLead] != 0 {
		t.Errorf("StatusCounts[lead] = %d, want 0 right after the status change", overview.StatusCounts[application.StatusLead])
	}
}

func TestService_Overview_tenantIsolation(t *testing.T) {
	fix := setupSvc(t)
	ctx := context.Background()

	testutil.CreateApplication(t, fix.appRepo, "acme", "stu-1", "prog-1", "", application.StatusLead)
	testutil.CreateApplication(t, fix.appRepo, "globex", "stu-2", "prog-2", "", application.StatusLead)

	overview, err := fix.svc.Overview(ctx, testutil.NewActor("acme", profile.RoleStaff))
	if err != nil {
		t.Fatalf("Overview() failed: %v", err)
	}
	if overview.TotalApplications != 1 {
		t.Errorf("TotalApplications = %d, want 1 (other tenant excluded)", overview.TotalApplications)
	}
}

func TestService_Agent(t *testing.T) {
	fix := setupSvc(t)
	ctx := context.Background()

	actor := testutil.NewActor("acme", profile.RoleAgent)
	agt := testutil.CreateAgent(t, fix.agentRepo, "acme", actor.ID, "Amani Recruiters", "amani@test.cd")
	other := testutil.CreateAgent(t, fix.agentRepo, "acme", "someone-else", "Other Agency", "other@test.cd")

	mine := testutil.CreateApplication(t, fix.appRepo, "acme", "stu-1", "prog-1", agt.ID, application.StatusSubmitted)
	testutil.CreateApplication(t, fix.appRepo, "acme", "stu-2", "prog-1", other.ID, application.StatusSubmitted)
	testutil.CreateApplication(t, fix.appRepo, "acme", "stu-3", "prog-1", "", application.StatusLead)

	testutil.CreateCommission(t, fix.agentRepo, "acme", agt.ID, mine.ID, 120_00, "GBP", agent.CommissionPending)
	testutil.CreateCommission(t, fix.agentRepo, "acme", other.ID, "", 999_00, "GBP", agent.CommissionPending)

	dash, err := fix.svc.Agent(ctx, actor)
	if err != nil {
		t.Fatalf("Agent() failed: %v", err)
	}
	if dash.TotalApplications != 1 {
		t.Errorf("TotalApplications = %d, want 1 (only own applications)", dash.TotalApplications)
	}
	if got := dash.CommissionTotals[agent.CommissionPending]["GBP"]; got != 120_00 {
		t.Errorf("CommissionTotals[pending][GBP] = %d, want 12000", got)
	}

	// staff have their own dashboard; the agent view refuses them
	if _, err = fix.svc.Agent(ctx, testutil.NewActor("acme", profile.RoleStaff)); core.KindOf(err) != core.KindPermissionDenied {
		t.Errorf("Agent() as staff: kind = %v, want permission denied", core.KindOf(err))
	}
}

func TestService_Risk(t *testing.T) {
	fix := setupSvc(t)
	ctx := context.Background()

	old := time.Now().UTC().AddDate(0, -6, 0)
	risky := testutil.CreateApplication(t, fix.appRepo, "acme", "stu-1", "prog-1", "", application.StatusWithdrawn, old)
	safe := testutil.CreateApplication(t, fix.appRepo, "acme", "stu-2", "prog-1", "", application.StatusEnrolled)

	apps, err := fix.svc.Risk(ctx, testutil.NewActor("acme", profile.RoleStaff))
	if err != nil {
		t.Fatalf("Risk() failed: %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("len(apps) = %d, want 2", len(apps))
	}
	if apps[0].ID != risky.ID || apps[1].ID != safe.ID {
		t.Errorf("expected highest-risk first, got %s then %s", apps[0].ID, apps[1].ID)
	}
	if apps[0].Categorization.Score <= apps[1].Categorization.Score {
		t.Errorf("scores not descending: %d <= %d", apps[0].Categorization.Score, apps[1].Categorization.Score)
	}

	if _, err = fix.svc.Risk(ctx, testutil.NewActor("acme", profile.RoleAgent)); core.KindOf(err) != core.KindPermissionDenied {
		t.Errorf("Risk() as agent: kind = %v, want permission denied", core.KindOf(err))
	}
}

func TestCache_Invalidate_scopedToTenant(t *testing.T) {
	cache := NewCache(8, time.Minute)
	cache.set("acme", "overview", Overview{TotalApplications: 1})
	cache.set("globex", "overview", Overview{TotalApplications: 2})

	cache.Invalidate("acme")

	if _, ok := cache.get("acme", "overview"); ok {
		t.Error("acme entry survived Invalidate")
	}
	if _, ok := cache.get("globex", "overview"); !ok {
		t.Error("globex entry was dropped by another tenant's Invalidate")
	}
}

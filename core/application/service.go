package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/audit"
	"github.com/unigate/unigate/core/notification"
	"github.com/unigate/unigate/core/profile"
	"github.com/unigate/unigate/core/realtime"
)

type (
	Repository interface {
		CreateApplication(ctx context.Context, app Application) (Application, error)
		GetApplication(ctx context.Context, id string) (Application, error)
		// GetApplicationDetail loads the application joined with student,
		// program, university, agent and document aggregates.
		GetApplicationDetail(ctx context.Context, id string) (Detail, error)
		// QueryApplications applies AND on available filter fields.
		// QueryFilter.Search matches student name/email or program name,
		// case-insensitively.
		QueryApplications(ctx context.Context, tenant string, filter *QueryFilter, ordering []core.DBOrdering) ([]Detail, error)
		UpdateApplication(ctx context.Context, app Application) (Application, error)
		DeleteApplication(ctx context.Context, id string) error

		GetStudentRef(ctx context.Context, studentID string) (StudentRef, error)
		GetAgentRef(ctx context.Context, agentID string) (AgentRef, error)
	}

	// ReportCache drops cached dashboard reports for a tenant; mutations call
	// it so dashboards never serve data older than the last write.
	ReportCache interface {
		Invalidate(tenant string)
	}

	Service struct {
		repo     Repository
		notifSvc *notification.Service
		auditSvc *audit.Service
		hub      *realtime.Hub
		reports  ReportCache
	}
)

func NewService(repo Repository, notifSvc *notification.Service, auditSvc *audit.Service, hub *realtime.Hub, reports ReportCache) *Service {
	return &Service{
		repo:     repo,
		notifSvc: notifSvc,
		auditSvc: auditSvc,
		hub:      hub,
		reports:  reports,
	}
}

func (svc *Service) invalidateReports(tenant string) {
	if svc.reports != nil {
		svc.reports.Invalidate(tenant)
	}
}

// decorate fills the derived categorization and stage fields on a Detail.
func decorate(d Detail) Detail {
	d.Categorization = d.Categorize()
	d.StageIndex = StageIndex(d.Status)
	d.StageLabel = StageLabel(d.Status)
	d.StageProgress = StageProgress(d.Status)
	return d
}

func (svc *Service) canAccess(actor profile.Actor, d Detail) bool {
	if d.Tenant != actor.Tenant {
		return false
	}
	if actor.IsStaff() {
		return true
	}
	if actor.IsStudent() {
		return d.StudentProfileID == actor.ID
	}
	return d.AgentProfileID != "" && d.AgentProfileID == actor.ID
}

func (svc *Service) Create(ctx context.Context, actor profile.Actor, na NewApplication) (Application, error) {
	stu, err := svc.repo.GetStudentRef(ctx, na.StudentID)
	if err != nil {
		return Application{}, err
	}
	if stu.Tenant != actor.Tenant {
		return Application{}, core.NotFoundError("student not found")
	}
	if actor.IsStudent() && stu.ProfileID != actor.ID {
		return Application{}, core.PermissionError("permission denied")
	}

	if na.AgentID != "" {
		agt, err := svc.repo.GetAgentRef(ctx, na.AgentID)
		if err != nil {
			return Application{}, err
		}
		if agt.Tenant != actor.Tenant {
			return Application{}, core.NotFoundError("agent not found")
		}
		if actor.IsAgent() && agt.ProfileID != actor.ID {
			return Application{}, core.PermissionError("permission denied")
		}
	} else if actor.IsAgent() {
		return Application{}, core.NewValidationError(nil, core.FieldError{Field: "agent_id", Error: "this field is required"})
	}

	now := time.Now().UTC()
	app := Application{
		ID:             uuid.New().String(),
		Tenant:         actor.Tenant,
		StudentID:      na.StudentID,
		ProgramID:      na.ProgramID,
		AgentID:        na.AgentID,
		Status:         StatusLead,
		LastActivityAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	app, err = svc.repo.CreateApplication(ctx, app)
	if err != nil {
		return Application{}, err
	}

	svc.invalidateReports(app.Tenant)
	svc.auditSvc.Record(ctx, actor, "application.create", "application", app.ID, nil)
	svc.hub.Publish(realtime.Event{
		Table:    "applications",
		Type:     realtime.EventInsert,
		Record:   app,
		Tenant:   app.Tenant,
		Audience: []string{stu.ProfileID},
	})
	return app, nil
}

func (svc *Service) Get(ctx context.Context, actor profile.Actor, id string) (Detail, error) {
	d, err := svc.repo.GetApplicationDetail(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	if d.Tenant != actor.Tenant {
		return Detail{}, core.NotFoundError("application not found")
	}
	if !svc.canAccess(actor, d) {
		return Detail{}, core.PermissionError("permission denied")
	}
	return decorate(d), nil
}

func (svc *Service) Query(ctx context.Context, actor profile.Actor, filter *QueryFilter, ordering []core.DBOrdering) ([]Detail, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	if actor.IsStudent() {
		filter.StudentProfileID = actor.ID
	} else if actor.IsAgent() {
		filter.AgentProfileID = actor.ID
	}

	details, err := svc.repo.QueryApplications(ctx, actor.Tenant, filter, ordering)
	if err != nil {
		return nil, err
	}
	for i := range details {
		details[i] = decorate(details[i])
	}
	return details, nil
}

// UpdateStatus writes any target status: there is no transition table, and a
// regression is stored as-is. It bumps activity, records an audit entry,
// notifies the student and the linked agent and publishes a feed event.
func (svc *Service) UpdateStatus(ctx context.Context, actor profile.Actor, id string, us UpdateStatus) (Detail, error) {
	if !actor.IsStaff() {
		return Detail{}, core.PermissionError("permission denied")
	}

	d, err := svc.Get(ctx, actor, id)
	if err != nil {
		return Detail{}, err
	}

	now := time.Now().UTC()
	app := d.Application
	prevStatus := app.Status
	app.Status = us.Status
	app.LastActivityAt = now
	app.UpdatedAt = now
	if us.Status == StatusSubmitted && app.SubmittedAt.IsZero() {
		app.SubmittedAt = now
	}

	if app, err = svc.repo.UpdateApplication(ctx, app); err != nil {
		return Detail{}, err
	}
	d.Application = app

	svc.invalidateReports(app.Tenant)
	svc.auditSvc.Record(ctx, actor, "application.status", "application", app.ID, map[string]interface{}{
		"from": prevStatus,
		"to":   us.Status,
		"note": us.Note,
	})

	title := fmt.Sprintf("Application status: %s", StageLabel(us.Status))
	message := fmt.Sprintf("Your application to %s at %s moved to %q.", d.ProgramName, d.UniversityName, us.Status)
	actionURL := "/applications/" + app.ID
	if d.StudentProfileID != "" {
		_, _ = svc.notifSvc.CreateInternal(ctx, app.Tenant, notification.NewNotification{
			UserID:    d.StudentProfileID,
			Title:     title,
			Message:   message,
			Type:      notification.TypeStatusChange,
			ActionURL: actionURL,
		})
	}
	if d.AgentProfileID != "" {
		_, _ = svc.notifSvc.CreateInternal(ctx, app.Tenant, notification.NewNotification{
			UserID:    d.AgentProfileID,
			Title:     title,
			Message:   fmt.Sprintf("%s's application to %s moved to %q.", d.StudentName, d.ProgramName, us.Status),
			Type:      notification.TypeStatusChange,
			ActionURL: actionURL,
		})
	}

	svc.hub.Publish(realtime.Event{
		Table:    "applications",
		Type:     realtime.EventUpdate,
		Record:   app,
		Tenant:   app.Tenant,
		Audience: []string{d.StudentProfileID, d.AgentProfileID},
	})
	return decorate(d), nil
}

func (svc *Service) AssignAgent(ctx context.Context, actor profile.Actor, id string, aa AssignAgent) (Detail, error) {
	if !actor.IsStaff() {
		return Detail{}, core.PermissionError("permission denied")
	}

	d, err := svc.Get(ctx, actor, id)
	if err != nil {
		return Detail{}, err
	}
	agt, err := svc.repo.GetAgentRef(ctx, aa.AgentID)
	if err != nil {
		return Detail{}, err
	}
	if agt.Tenant != actor.Tenant {
		return Detail{}, core.NotFoundError("agent not found")
	}

	now := time.Now().UTC()
	app := d.Application
	app.AgentID = agt.ID
	app.LastActivityAt = now
	app.UpdatedAt = now
	if app, err = svc.repo.UpdateApplication(ctx, app); err != nil {
		return Detail{}, err
	}
	d.Application = app
	d.AgentName = agt.Name
	d.AgentProfileID = agt.ProfileID

	svc.invalidateReports(app.Tenant)
	svc.auditSvc.Record(ctx, actor, "application.assign_agent", "application", app.ID, map[string]interface{}{
		"agent_id": agt.ID,
	})
	return decorate(d), nil
}

func (svc *Service) Delete(ctx context.Context, actor profile.Actor, id string) error {
	if !actor.IsAdmin() {
		return core.PermissionError("permission denied")
	}
	d, err := svc.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteApplication(ctx, id); err != nil {
		return err
	}

	svc.invalidateReports(d.Tenant)
	svc.auditSvc.Record(ctx, actor, "application.delete", "application", id, nil)
	svc.hub.Publish(realtime.Event{
		Table:    "applications",
		Type:     realtime.EventDelete,
		Record:   d.Application,
		Tenant:   d.Tenant,
		Audience: []string{d.StudentProfileID, d.AgentProfileID},
	})
	return nil
}

// BumpActivity increments the document count and refreshes the activity
// timestamp; called by the document service after a successful upload/delete.
func (svc *Service) BumpActivity(ctx context.Context, id string, docDelta int) error {
	app, err := svc.repo.GetApplication(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	app.DocumentsCount += docDelta
	if app.DocumentsCount < 0 {
		app.DocumentsCount = 0
	}
	app.LastActivityAt = now
	app.UpdatedAt = now
	if _, err = svc.repo.UpdateApplication(ctx, app); err != nil {
		return err
	}
	svc.invalidateReports(app.Tenant)
	return nil
}

package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/profile"
)

type (
	Repository interface {
		CreateEntry(ctx context.Context, entry Entry) error
		// QueryEntries returns the latest entries for the tenant, newest first,
		// optionally filtered by object.
		QueryEntries(ctx context.Context, tenant, objectType, objectID string, limit int) ([]Entry, error)

		CreateAnalyticsEvent(ctx context.Context, evt AnalyticsEvent) error
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record appends an audit entry. Failures are logged, never propagated:
// auditing must not fail the operation being audited.
func (svc *Service) Record(ctx context.Context, actor profile.Actor, action, objectType, objectID string, metadata map[string]interface{}) {
	entry := Entry{
		ID:         uuid.New().String(),
		Tenant:     actor.Tenant,
		ActorID:    actor.ID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}
	if err := svc.repo.CreateEntry(ctx, entry); err != nil {
		svc.logger.Error(fmt.Sprintf("recording audit entry %s/%s: %v", action, objectID, err), err)
	}
}

// Track appends an analytics event; best-effort like Record.
func (svc *Service) Track(ctx context.Context, actor profile.Actor, name string, properties map[string]interface{}) {
	evt := AnalyticsEvent{
		ID:         uuid.New().String(),
		Tenant:     actor.Tenant,
		UserID:     actor.ID,
		Name:       name,
		Properties: properties,
		CreatedAt:  time.Now().UTC(),
	}
	if err := svc.repo.CreateAnalyticsEvent(ctx, evt); err != nil {
		svc.logger.Error(fmt.Sprintf("recording analytics event %s: %v", name, err), err)
	}
}

func (svc *Service) Query(ctx context.Context, actor profile.Actor, objectType, objectID string, limit int) ([]Entry, error) {
	if !actor.IsAdmin() {
		return nil, core.PermissionError("permission denied")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return svc.repo.QueryEntries(ctx, actor.Tenant, objectType, objectID, limit)
}

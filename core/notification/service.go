package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/profile"
	"github.com/unigate/unigate/core/realtime"
)

type (
	Repository interface {
		CreateNotification(ctx context.Context, notif Notification) (Notification, error)
		GetNotification(ctx context.Context, id string) (Notification, error)
		// QueryNotifications returns the owner's notifications, newest first.
		QueryNotifications(ctx context.Context, userID string, filter *QueryFilter) ([]Notification, error)
		CountUnread(ctx context.Context, userID string) (int, error)
		SetRead(ctx context.Context, id string, read bool) (Notification, error)
		MarkAllRead(ctx context.Context, userID string) (int, error)
		DeleteNotification(ctx context.Context, id string) error
		// ClearNotifications deletes all of the owner's notifications.
		ClearNotifications(ctx context.Context, userID string) (int, error)
	}

	Service struct {
		repo Repository
		hub  *realtime.Hub
	}
)

func NewService(repo Repository, hub *realtime.Hub) *Service {
	return &Service{repo: repo, hub: hub}
}

// Create inserts a notification on behalf of staff (announcements).
func (svc *Service) Create(ctx context.Context, actor profile.Actor, nn NewNotification) (Notification, error) {
	if !actor.IsStaff() {
		return Notification{}, core.PermissionError("permission denied")
	}
	return svc.CreateInternal(ctx, actor.Tenant, nn)
}

// CreateInternal inserts a notification fired by a service-side trigger
// (status change, new message, document event) and publishes it to the feed.
func (svc *Service) CreateInternal(ctx context.Context, tenant string, nn NewNotification) (Notification, error) {
	notif := Notification{
		ID:        uuid.New().String(),
		Tenant:    tenant,
		UserID:    nn.UserID,
		Title:     nn.Title,
		Message:   nn.Message,
		Type:      nn.Type,
		ActionURL: nn.ActionURL,
		Metadata:  nn.Metadata,
		CreatedAt: time.Now().UTC(),
	}
	if notif.Type == "" {
		notif.Type = TypeInfo
	}

	notif, err := svc.repo.CreateNotification(ctx, notif)
	if err != nil {
		return Notification{}, err
	}

	svc.hub.Publish(realtime.Event{
		Table:    "notifications",
		Type:     realtime.EventInsert,
		Record:   notif,
		Tenant:   tenant,
		Audience: []string{notif.UserID},
	})
	return notif, nil
}

func (svc *Service) Query(ctx context.Context, actor profile.Actor, filter *QueryFilter) ([]Notification, error) {
	return svc.repo.QueryNotifications(ctx, actor.ID, filter)
}

func (svc *Service) CountUnread(ctx context.Context, actor profile.Actor) (int, error) {
	return svc.repo.CountUnread(ctx, actor.ID)
}

// getOwned loads a notification and verifies the actor owns it. A foreign
// notification is reported as not found, never as a permission hint.
func (svc *Service) getOwned(ctx context.Context, actor profile.Actor, id string) (Notification, error) {
	notif, err := svc.repo.GetNotification(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	if notif.UserID != actor.ID {
		return Notification{}, core.NotFoundError("notification not found")
	}
	return notif, nil
}

func (svc *Service) SetRead(ctx context.Context, actor profile.Actor, id string, read bool) (Notification, error) {
	notif, err := svc.getOwned(ctx, actor, id)
	if err != nil {
		return Notification{}, err
	}
	notif, err = svc.repo.SetRead(ctx, notif.ID, read)
	if err != nil {
		return Notification{}, err
	}

	svc.hub.Publish(realtime.Event{
		Table:    "notifications",
		Type:     realtime.EventUpdate,
		Record:   notif,
		Tenant:   notif.Tenant,
		Audience: []string{notif.UserID},
	})
	return notif, nil
}

func (svc *Service) MarkAllRead(ctx context.Context, actor profile.Actor) (int, error) {
	return svc.repo.MarkAllRead(ctx, actor.ID)
}

func (svc *Service) Delete(ctx context.Context, actor profile.Actor, id string) error {
	notif, err := svc.getOwned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteNotification(ctx, notif.ID); err != nil {
		return err
	}

	svc.hub.Publish(realtime.Event{
		Table:    "notifications",
		Type:     realtime.EventDelete,
		Record:   notif,
		Tenant:   notif.Tenant,
		Audience: []string{notif.UserID},
	})
	return nil
}

// Clear deletes all of the actor's notifications.
func (svc *Service) Clear(ctx context.Context, actor profile.Actor) (int, error) {
	return svc.repo.ClearNotifications(ctx, actor.ID)
}

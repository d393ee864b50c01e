package dummydb

import (
	"context"
	"sort"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, notif notification.Notification) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[notif.ID] = &notif
	return notif, nil
}

func (repo *notificationRepository) GetNotification(ctx context.Context, id string) (notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if notif, ok := repo.db.table[id]; ok {
		return *notif, nil
	}
	return notification.Notification{}, core.NotFoundError("notification not found")
}

func (repo *notificationRepository) QueryNotifications(ctx context.Context, userID string, filter *notification.QueryFilter) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var notifs []notification.Notification
	for _, notif := range repo.db.table {
		if notif.UserID != userID {
			continue
		}
		if filter != nil && filter.Unread != nil && notif.Read == *filter.Unread {
			continue
		}
		notifs = append(notifs, *notif)
	}
	sort.Slice(notifs, func(i, j int) bool { return notifs[i].CreatedAt.After(notifs[j].CreatedAt) })

	limit := 50
	if filter != nil && filter.Limit > 0 && filter.Limit <= 500 {
		limit = filter.Limit
	}
	if len(notifs) > limit {
		notifs = notifs[:limit]
	}
	return notifs, nil
}

func (repo *notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	count := 0
	for _, notif := range repo.db.table {
		if notif.UserID == userID && !notif.Read {
			count++
		}
	}
	return count, nil
}

func (repo *notificationRepository) SetRead(ctx context.Context, id string, read bool) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	notif, ok := repo.db.table[id]
	if !ok {
		return notification.Notification{}, core.NotFoundError("notification not found")
	}
	notif.Read = read
	return *notif, nil
}

func (repo *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	count := 0
	for _, notif := range repo.db.table {
		if notif.UserID == userID && !notif.Read {
			notif.Read = true
			count++
		}
	}
	return count, nil
}

func (repo *notificationRepository) DeleteNotification(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.table, id)
	return nil
}

func (repo *notificationRepository) ClearNotifications(ctx context.Context, userID string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	count := 0
	for id, notif := range repo.db.table {
		if notif.UserID == userID {
			delete(repo.db.table, id)
			count++
		}
	}
	return count, nil
}

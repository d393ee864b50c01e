package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/notification"
)

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sqlx.DB) notification.Repository {
	return &notificationRepository{db: db}
}

type notificationRow struct {
	ID        string    `db:"id"`
	Tenant    string    `db:"tenant"`
	UserID    string    `db:"user_id"`
	Title     string    `db:"title"`
	Message   string    `db:"message"`
	Type      string    `db:"type"`
	Read      bool      `db:"read"`
	ActionURL string    `db:"action_url"`
	Metadata  null.JSON `db:"metadata"`
	CreatedAt time.Time `db:"created_at"`
}

func (r notificationRow) toCore() notification.Notification {
	return notification.Notification{
		ID:        r.ID,
		Tenant:    r.Tenant,
		UserID:    r.UserID,
		Title:     r.Title,
		Message:   r.Message,
		Type:      r.Type,
		Read:      r.Read,
		ActionURL: r.ActionURL,
		Metadata:  fromJSON(r.Metadata),
		CreatedAt: r.CreatedAt,
	}
}

const notificationColumns = `id, tenant, user_id, title, message, type, read, action_url, metadata, created_at`

func (repo *notificationRepository) CreateNotification(ctx context.Context, notif notification.Notification) (notification.Notification, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO notification (`+notificationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		notif.ID, notif.Tenant, notif.UserID, notif.Title, notif.Message,
		notif.Type, notif.Read, notif.ActionURL, toJSON(notif.Metadata), notif.CreatedAt)
	if err != nil {
		return notification.Notification{}, wrapErr(err, "notification")
	}
	return notif, nil
}

func (repo *notificationRepository) GetNotification(ctx context.Context, id string) (notification.Notification, error) {
	var row notificationRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+notificationColumns+` FROM notification WHERE id = $1`, id)
	if err != nil {
		return notification.Notification{}, wrapErr(err, "notification")
	}
	return row.toCore(), nil
}

func (repo *notificationRepository) QueryNotifications(ctx context.Context, userID string, filter *notification.QueryFilter) ([]notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notification WHERE user_id = $1`
	args := []interface{}{userID}

	limit := 50
	if filter != nil {
		if filter.Unread != nil {
			args = append(args, !*filter.Unread)
			query += ` AND read = $` + itoa(len(args))
		}
		if filter.Limit > 0 && filter.Limit <= 500 {
			limit = filter.Limit
		}
	}
	args = append(args, limit)
	query += ` ORDER BY created_at DESC LIMIT $` + itoa(len(args))

	var rows []notificationRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapErr(err, "notifications")
	}
	notifs := make([]notification.Notification, len(rows))
	for i, row := range rows {
		notifs[i] = row.toCore()
	}
	return notifs, nil
}

func (repo *notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notification WHERE user_id = $1 AND NOT read`, userID)
	if err != nil {
		return 0, wrapErr(err, "notifications")
	}
	return count, nil
}

func (repo *notificationRepository) SetRead(ctx context.Context, id string, read bool) (notification.Notification, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE notification SET read = $2 WHERE id = $1`, id, read)
	if err != nil {
		return notification.Notification{}, wrapErr(err, "notification")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notification.Notification{}, core.NotFoundError("notification not found")
	}
	return repo.GetNotification(ctx, id)
}

func (repo *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE notification SET read = TRUE WHERE user_id = $1 AND NOT read`, userID)
	if err != nil {
		return 0, wrapErr(err, "notifications")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (repo *notificationRepository) DeleteNotification(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM notification WHERE id = $1`, id)
	return wrapErr(err, "notification")
}

func (repo *notificationRepository) ClearNotifications(ctx context.Context, userID string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM notification WHERE user_id = $1`, userID)
	if err != nil {
		return 0, wrapErr(err, "notifications")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

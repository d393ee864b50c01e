package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/unigate/unigate/core/audit"
)

type auditRepository struct {
	db *sqlx.DB
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *sqlx.DB) audit.Repository {
	return &auditRepository{db: db}
}

type auditRow struct {
	ID         string      `db:"id"`
	Tenant     string      `db:"tenant"`
	ActorID    null.String `db:"actor_id"`
	Action     string      `db:"action"`
	ObjectType string      `db:"object_type"`
	ObjectID   string      `db:"object_id"`
	Metadata   null.JSON   `db:"metadata"`
	CreatedAt  time.Time   `db:"created_at"`
}

func (r auditRow) toCore() audit.Entry {
	return audit.Entry{
		ID:         r.ID,
		Tenant:     r.Tenant,
		ActorID:    r.ActorID.String,
		Action:     r.Action,
		ObjectType: r.ObjectType,
		ObjectID:   r.ObjectID,
		Metadata:   fromJSON(r.Metadata),
		CreatedAt:  r.CreatedAt,
	}
}

func (repo *auditRepository) CreateEntry(ctx context.Context, entry audit.Entry) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, tenant, actor_id, action, object_type, object_id, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.Tenant, nullStr(entry.ActorID), entry.Action,
		entry.ObjectType, entry.ObjectID, toJSON(entry.Metadata), entry.CreatedAt)
	return wrapErr(err, "audit entry")
}

func (repo *auditRepository) QueryEntries(ctx context.Context, tenant, objectType, objectID string, limit int) ([]audit.Entry, error) {
	query := `SELECT id, tenant, actor_id, action, object_type, object_id, metadata, created_at
		FROM audit_log WHERE tenant = $1`
	args := []interface{}{tenant}

	if objectType != "" {
		args = append(args, objectType)
		query += ` AND object_type = $` + itoa(len(args))
	}
	if objectID != "" {
		args = append(args, objectID)
		query += ` AND object_id = $` + itoa(len(args))
	}
	args = append(args, limit)
	query += ` ORDER BY created_at DESC LIMIT $` + itoa(len(args))

	var rows []auditRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapErr(err, "audit entries")
	}
	entries := make([]audit.Entry, len(rows))
	for i, row := range rows {
		entries[i] = row.toCore()
	}
	return entries, nil
}

func (repo *auditRepository) CreateAnalyticsEvent(ctx context.Context, evt audit.AnalyticsEvent) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO analytics_event (id, tenant, user_id, name, properties, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		evt.ID, evt.Tenant, nullStr(evt.UserID), evt.Name, toJSON(evt.Properties), evt.CreatedAt)
	return wrapErr(err, "analytics event")
}

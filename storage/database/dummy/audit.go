package dummydb

import (
	"context"

	"github.com/unigate/unigate/core/audit"
)

type auditRepository struct {
	db *auditTable
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *DB) audit.Repository {
	return &auditRepository{db: db.audit}
}

func (repo *auditRepository) CreateEntry(ctx context.Context, entry audit.Entry) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.entries = append(repo.db.entries, entry)
	return nil
}

func (repo *auditRepository) QueryEntries(ctx context.Context, tenant, objectType, objectID string, limit int) ([]audit.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var entries []audit.Entry
	for i := len(repo.db.entries) - 1; i >= 0 && len(entries) < limit; i-- {
		entry := repo.db.entries[i]
		if entry.Tenant != tenant {
			continue
		}
		if objectType != "" && entry.ObjectType != objectType {
			continue
		}
		if objectID != "" && entry.ObjectID != objectID {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (repo *auditRepository) CreateAnalyticsEvent(ctx context.Context, evt audit.AnalyticsEvent) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.events = append(repo.db.events, evt)
	return nil
}

package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/unigate/unigate/core/document"
)

type documentRepository struct {
	db *sqlx.DB
}

var _ document.Repository = (*documentRepository)(nil) // interface compliance check

func NewDocumentRepository(db *sqlx.DB) document.Repository {
	return &documentRepository{db: db}
}

type documentRow struct {
	ID            string      `db:"id"`
	Tenant        string      `db:"tenant"`
	StudentID     string      `db:"student_id"`
	ApplicationID null.String `db:"application_id"`
	Kind          string      `db:"kind"`
	Filename      string      `db:"filename"`
	ContentType   string      `db:"content_type"`
	ByteSize      int64       `db:"byte_size"`
	StoragePath   string      `db:"storage_path"`
	CreatedAt     time.Time   `db:"created_at"`
}

func (r documentRow) toCore() document.Document {
	return document.Document{
		ID:            r.ID,
		Tenant:        r.Tenant,
		StudentID:     r.StudentID,
		ApplicationID: r.ApplicationID.String,
		Kind:          r.Kind,
		Filename:      r.Filename,
		ContentType:   r.ContentType,
		ByteSize:      r.ByteSize,
		StoragePath:   r.StoragePath,
		CreatedAt:     r.CreatedAt,
	}
}

const documentColumns = `id, tenant, student_id, application_id, kind, filename, content_type, byte_size, storage_path, created_at`

func (repo *documentRepository) CreateDocument(ctx context.Context, doc document.Document) (document.Document, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO student_document (`+documentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		doc.ID, doc.Tenant, doc.StudentID, nullStr(doc.ApplicationID), doc.Kind,
		doc.Filename, doc.ContentType, doc.ByteSize, doc.StoragePath, doc.CreatedAt)
	if err != nil {
		return document.Document{}, wrapErr(err, "document")
	}
	return doc, nil
}

func (repo *documentRepository) GetDocument(ctx context.Context, id string) (document.Document, error) {
	var row documentRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+documentColumns+` FROM student_document WHERE id = $1`, id)
	if err != nil {
		return document.Document{}, wrapErr(err, "document")
	}
	return row.toCore(), nil
}

func (repo *documentRepository) ListByStudent(ctx context.Context, studentID string) ([]document.Document, error) {
	var rows []documentRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+documentColumns+` FROM student_document WHERE student_id = $1 ORDER BY created_at DESC`,
		studentID)
	if err != nil {
		return nil, wrapErr(err, "documents")
	}
	return documentRowsToCore(rows), nil
}

func (repo *documentRepository) ListByApplication(ctx context.Context, applicationID string) ([]document.Document, error) {
	var rows []documentRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+documentColumns+` FROM student_document WHERE application_id = $1 ORDER BY created_at DESC`,
		applicationID)
	if err != nil {
		return nil, wrapErr(err, "documents")
	}
	return documentRowsToCore(rows), nil
}

func (repo *documentRepository) DeleteDocument(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM student_document WHERE id = $1`, id)
	return wrapErr(err, "document")
}

func (repo *documentRepository) GetStudentRef(ctx context.Context, studentID string) (document.StudentRef, error) {
	var row struct {
		ID        string      `db:"id"`
		Tenant    string      `db:"tenant"`
		ProfileID null.String `db:"profile_id"`
	}
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, tenant, profile_id FROM student WHERE id = $1`, studentID)
	if err != nil {
		return document.StudentRef{}, wrapErr(err, "student")
	}
	return document.StudentRef{ID: row.ID, Tenant: row.Tenant, ProfileID: row.ProfileID.String}, nil
}

func (repo *documentRepository) StudentLinkedToAgentProfile(ctx context.Context, studentID, profileID string) (bool, error) {
	var linked bool
	err := repo.db.GetContext(ctx, &linked,
		`SELECT EXISTS (
			SELECT 1 FROM application a
			JOIN agent ag ON ag.id = a.agent_id
			WHERE a.student_id = $1 AND ag.profile_id = $2
		)`, studentID, profileID)
	if err != nil {
		return false, wrapErr(err, "student agent link")
	}
	return linked, nil
}

func documentRowsToCore(rows []documentRow) []document.Document {
	docs := make([]document.Document, len(rows))
	for i, row := range rows {
		docs[i] = row.toCore()
	}
	return docs
}

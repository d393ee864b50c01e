package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/application"
)

type applicationRepository struct {
	db *sqlx.DB
}

var _ application.Repository = (*applicationRepository)(nil) // interface compliance check

func NewApplicationRepository(db *sqlx.DB) application.Repository {
	return &applicationRepository{db: db}
}

type applicationRow struct {
	ID             string      `db:"id"`
	Tenant         string      `db:"tenant"`
	StudentID      string      `db:"student_id"`
	ProgramID      string      `db:"program_id"`
	AgentID        null.String `db:"agent_id"`
	Status         string      `db:"status"`
	SubmittedAt    null.Time   `db:"submitted_at"`
	DocumentsCount int         `db:"documents_count"`
	LastActivityAt null.Time   `db:"last_activity_at"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

func (r applicationRow) toCore() application.Application {
	return application.Application{
		ID:             r.ID,
		Tenant:         r.Tenant,
		StudentID:      r.StudentID,
		ProgramID:      r.ProgramID,
		AgentID:        r.AgentID.String,
		Status:         r.Status,
		SubmittedAt:    r.SubmittedAt.Time,
		DocumentsCount: r.DocumentsCount,
		LastActivityAt: r.LastActivityAt.Time,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type detailRow struct {
	applicationRow

	StudentFirstName   string      `db:"student_first_name"`
	StudentLastName    string      `db:"student_last_name"`
	StudentEmail       string      `db:"student_email"`
	StudentNationality string      `db:"student_nationality"`
	StudentCountry     string      `db:"student_country"`
	StudentProfileID   null.String `db:"student_profile_id"`

	ProgramName  string `db:"program_name"`
	ProgramLevel string `db:"program_level"`

	UniversityID      string `db:"university_id"`
	UniversityName    string `db:"university_name"`
	UniversityCountry string `db:"university_country"`

	AgentName      null.String `db:"agent_name"`
	AgentProfileID null.String `db:"agent_profile_id"`

	LastDocumentAt null.Time `db:"last_document_at"`
}

func (r detailRow) toCore() application.Detail {
	name := r.StudentFirstName
	switch {
	case name == "":
		name = r.StudentLastName
	case r.StudentLastName != "":
		name += " " + r.StudentLastName
	}
	return application.Detail{
		Application: r.applicationRow.toCore(),

		StudentName:        name,
		StudentEmail:       r.StudentEmail,
		StudentNationality: r.StudentNationality,
		StudentCountry:     r.StudentCountry,
		StudentProfileID:   r.StudentProfileID.String,

		ProgramName:  r.ProgramName,
		ProgramLevel: r.ProgramLevel,

		UniversityID:      r.UniversityID,
		UniversityName:    r.UniversityName,
		UniversityCountry: r.UniversityCountry,

		AgentName:      r.AgentName.String,
		AgentProfileID: r.AgentProfileID.String,

		LastDocumentAt: r.LastDocumentAt.Time,
	}
}

const applicationColumns = `id, tenant, student_id, program_id, agent_id, status, submitted_at, documents_count, last_activity_at, created_at, updated_at`

const detailQuery = `SELECT
		a.id, a.tenant, a.student_id, a.program_id, a.agent_id, a.status,
		a.submitted_at, a.documents_count, a.last_activity_at, a.created_at, a.updated_at,
		s.first_name AS student_first_name,
		s.last_name AS student_last_name,
		s.email AS student_email,
		s.nationality AS student_nationality,
		s.country AS student_country,
		s.profile_id AS student_profile_id,
		p.name AS program_name,
		p.level AS program_level,
		u.id AS university_id,
		u.name AS university_name,
		u.country AS university_country,
		ag.name AS agent_name,
		ag.profile_id AS agent_profile_id,
		(SELECT MAX(d.created_at) FROM student_document d WHERE d.application_id = a.id) AS last_document_at
	FROM application a
	JOIN student s ON s.id = a.student_id
	JOIN program p ON p.id = a.program_id
	JOIN university u ON u.id = p.university_id
	LEFT JOIN agent ag ON ag.id = a.agent_id`

func (repo *applicationRepository) CreateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO application (`+applicationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		app.ID, app.Tenant, app.StudentID, app.ProgramID, nullStr(app.AgentID), app.Status,
		nullTime(app.SubmittedAt), app.DocumentsCount, nullTime(app.LastActivityAt),
		app.CreatedAt, app.UpdatedAt)
	if err != nil {
		return application.Application{}, wrapErr(err, "application")
	}
	return app, nil
}

func (repo *applicationRepository) GetApplication(ctx context.Context, id string) (application.Application, error) {
	var row applicationRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+applicationColumns+` FROM application WHERE id = $1`, id)
	if err != nil {
		return application.Application{}, wrapErr(err, "application")
	}
	return row.toCore(), nil
}

func (repo *applicationRepository) GetApplicationDetail(ctx context.Context, id string) (application.Detail, error) {
	var row detailRow
	err := repo.db.GetContext(ctx, &row, detailQuery+` WHERE a.id = $1`, id)
	if err != nil {
		return application.Detail{}, wrapErr(err, "application")
	}
	return row.toCore(), nil
}

var applicationSortColumns = map[string]string{
	"status":           "a.status",
	"submitted_at":     "a.submitted_at",
	"last_activity_at": "a.last_activity_at",
	"documents_count":  "a.documents_count",
	"created_at":       "a.created_at",
	"updated_at":       "a.updated_at",
	"student_name":     "s.last_name",
	"university":       "u.name",
}

func (repo *applicationRepository) QueryApplications(ctx context.Context, tenant string, filter *application.QueryFilter, ordering []core.DBOrdering) ([]application.Detail, error) {
	query := detailQuery + ` WHERE a.tenant = $1`
	args := []interface{}{tenant}

	if filter != nil {
		if len(filter.Status) > 0 {
			args = append(args, pq.Array(filter.Status))
			query += ` AND a.status = ANY($` + itoa(len(args)) + `)`
		}
		if filter.StudentID != "" {
			args = append(args, filter.StudentID)
			query += ` AND a.student_id = $` + itoa(len(args))
		}
		if filter.AgentID != "" {
			args = append(args, filter.AgentID)
			query += ` AND a.agent_id = $` + itoa(len(args))
		}
		if filter.UniversityID != "" {
			args = append(args, filter.UniversityID)
			query += ` AND u.id = $` + itoa(len(args))
		}
		if filter.ProgramID != "" {
			args = append(args, filter.ProgramID)
			query += ` AND a.program_id = $` + itoa(len(args))
		}
		if filter.StudentProfileID != "" {
			args = append(args, filter.StudentProfileID)
			query += ` AND s.profile_id = $` + itoa(len(args))
		}
		if filter.AgentProfileID != "" {
			args = append(args, filter.AgentProfileID)
			query += ` AND ag.profile_id = $` + itoa(len(args))
		}
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			n := itoa(len(args))
			query += ` AND (s.first_name ILIKE $` + n + ` OR s.last_name ILIKE $` + n +
				` OR s.email ILIKE $` + n + ` OR p.name ILIKE $` + n + `)`
		}
		if !filter.CreatedFrom.IsZero() {
			args = append(args, filter.CreatedFrom)
			query += ` AND a.created_at >= $` + itoa(len(args))
		}
		if !filter.CreatedTo.IsZero() {
			args = append(args, filter.CreatedTo)
			query += ` AND a.created_at <= $` + itoa(len(args))
		}
	}
	query += orderBy(ordering, applicationSortColumns, "a.created_at DESC")

	var rows []detailRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapErr(err, "applications")
	}
	details := make([]application.Detail, len(rows))
	for i, row := range rows {
		details[i] = row.toCore()
	}
	return details, nil
}

func (repo *applicationRepository) UpdateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE application SET agent_id = $2, status = $3, submitted_at = $4,
			documents_count = $5, last_activity_at = $6, updated_at = $7
		 WHERE id = $1`,
		app.ID, nullStr(app.AgentID), app.Status, nullTime(app.SubmittedAt),
		app.DocumentsCount, nullTime(app.LastActivityAt), app.UpdatedAt)
	if err != nil {
		return application.Application{}, wrapErr(err, "application")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return application.Application{}, core.NotFoundError("application not found")
	}
	return app, nil
}

func (repo *applicationRepository) DeleteApplication(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM application WHERE id = $1`, id)
	return wrapErr(err, "application")
}

func (repo *applicationRepository) GetStudentRef(ctx context.Context, studentID string) (application.StudentRef, error) {
	var row struct {
		ID        string      `db:"id"`
		Tenant    string      `db:"tenant"`
		ProfileID null.String `db:"profile_id"`
		FirstName string      `db:"first_name"`
		LastName  string      `db:"last_name"`
		Email     string      `db:"email"`
	}
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, tenant, profile_id, first_name, last_name, email FROM student WHERE id = $1`, studentID)
	if err != nil {
		return application.StudentRef{}, wrapErr(err, "student")
	}
	name := row.FirstName
	switch {
	case name == "":
		name = row.LastName
	case row.LastName != "":
		name += " " + row.LastName
	}
	return application.StudentRef{
		ID:        row.ID,
		Tenant:    row.Tenant,
		ProfileID: row.ProfileID.String,
		Name:      name,
		Email:     row.Email,
	}, nil
}

func (repo *applicationRepository) GetAgentRef(ctx context.Context, agentID string) (application.AgentRef, error) {
	var row struct {
		ID        string      `db:"id"`
		Tenant    string      `db:"tenant"`
		ProfileID null.String `db:"profile_id"`
		Name      string      `db:"name"`
	}
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, tenant, profile_id, name FROM agent WHERE id = $1`, agentID)
	if err != nil {
		return application.AgentRef{}, wrapErr(err, "agent")
	}
	return application.AgentRef{
		ID:        row.ID,
		Tenant:    row.Tenant,
		ProfileID: row.ProfileID.String,
		Name:      row.Name,
	}, nil
}

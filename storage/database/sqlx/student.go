package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/student"
)

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

type studentRow struct {
	ID          string      `db:"id"`
	Tenant      string      `db:"tenant"`
	ProfileID   null.String `db:"profile_id"`
	FirstName   string      `db:"first_name"`
	LastName    string      `db:"last_name"`
	Email       string      `db:"email"`
	Nationality string      `db:"nationality"`
	Country     string      `db:"country"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r studentRow) toCore() student.Student {
	return student.Student{
		ID:          r.ID,
		Tenant:      r.Tenant,
		ProfileID:   r.ProfileID.String,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		Nationality: r.Nationality,
		Country:     r.Country,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type testScoreRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	Kind      string    `db:"kind"`
	Score     float64   `db:"score"`
	TakenAt   null.Time `db:"taken_at"`
}

func (r testScoreRow) toCore() student.TestScore {
	return student.TestScore{
		ID:        r.ID,
		StudentID: r.StudentID,
		Kind:      r.Kind,
		Score:     r.Score,
		TakenAt:   r.TakenAt.Time,
	}
}

const studentColumns = `id, tenant, profile_id, first_name, last_name, email, nationality, country, created_at, updated_at`

func (repo *studentRepository) CreateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO student (`+studentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		stu.ID, stu.Tenant, nullStr(stu.ProfileID), stu.FirstName, stu.LastName,
		stu.Email, stu.Nationality, stu.Country, stu.CreatedAt, stu.UpdatedAt)
	if err != nil {
		return student.Student{}, wrapErr(err, "student")
	}
	return stu, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	var row studentRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+studentColumns+` FROM student WHERE id = $1`, id)
	if err != nil {
		return student.Student{}, wrapErr(err, "student")
	}
	return row.toCore(), nil
}

var studentSortColumns = map[string]string{
	"first_name":  "s.first_name",
	"last_name":   "s.last_name",
	"email":       "s.email",
	"nationality": "s.nationality",
	"created_at":  "s.created_at",
}

func (repo *studentRepository) QueryStudents(ctx context.Context, tenant string, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	query := `SELECT DISTINCT s.id, s.tenant, s.profile_id, s.first_name, s.last_name,
		s.email, s.nationality, s.country, s.created_at, s.updated_at
		FROM student s`
	where := ` WHERE s.tenant = $1`
	args := []interface{}{tenant}

	if filter != nil {
		if filter.AgentID != "" {
			args = append(args, filter.AgentID)
			query += ` JOIN application a ON a.student_id = s.id`
			where += ` AND a.agent_id = $` + itoa(len(args))
		} else if filter.AgentProfileID != "" {
			args = append(args, filter.AgentProfileID)
			query += ` JOIN application a ON a.student_id = s.id
				JOIN agent ag ON ag.id = a.agent_id`
			where += ` AND ag.profile_id = $` + itoa(len(args))
		}
		if filter.Nationality != "" {
			args = append(args, filter.Nationality)
			where += ` AND s.nationality ILIKE $` + itoa(len(args))
		}
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			n := itoa(len(args))
			where += ` AND (s.first_name ILIKE $` + n + ` OR s.last_name ILIKE $` + n + ` OR s.email ILIKE $` + n + `)`
		}
	}
	query += where + orderBy(ordering, studentSortColumns, "s.created_at DESC")

	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapErr(err, "students")
	}
	students := make([]student.Student, len(rows))
	for i, row := range rows {
		students[i] = row.toCore()
	}
	return students, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE student SET profile_id = $2, first_name = $3, last_name = $4, email = $5,
			nationality = $6, country = $7, updated_at = $8
		 WHERE id = $1`,
		stu.ID, nullStr(stu.ProfileID), stu.FirstName, stu.LastName, stu.Email,
		stu.Nationality, stu.Country, stu.UpdatedAt)
	if err != nil {
		return student.Student{}, wrapErr(err, "student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Student{}, core.NotFoundError("student not found")
	}
	return stu, nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM student WHERE id = $1`, id)
	return wrapErr(err, "student")
}

func (repo *studentRepository) UpsertTestScore(ctx context.Context, score student.TestScore) (student.TestScore, error) {
	var takenAt null.Time
	if !score.TakenAt.IsZero() {
		takenAt = null.TimeFrom(score.TakenAt)
	}
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO test_score (id, student_id, kind, score, taken_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (student_id, kind) DO UPDATE SET score = EXCLUDED.score, taken_at = EXCLUDED.taken_at`,
		score.ID, score.StudentID, score.Kind, score.Score, takenAt)
	if err != nil {
		return student.TestScore{}, wrapErr(err, "test score")
	}
	return score, nil
}

func (repo *studentRepository) ListTestScores(ctx context.Context, studentID string) ([]student.TestScore, error) {
	var rows []testScoreRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, student_id, kind, score, taken_at FROM test_score WHERE student_id = $1 ORDER BY kind ASC`,
		studentID)
	if err != nil {
		return nil, wrapErr(err, "test scores")
	}
	scores := make([]student.TestScore, len(rows))
	for i, row := range rows {
		scores[i] = row.toCore()
	}
	return scores, nil
}

func (repo *studentRepository) StudentLinkedToAgentProfile(ctx context.Context, studentID, profileID string) (bool, error) {
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

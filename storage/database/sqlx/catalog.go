package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/catalog"
)

type catalogRepository struct {
	db *sqlx.DB
}

var _ catalog.Repository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(db *sqlx.DB) catalog.Repository {
	return &catalogRepository{db: db}
}

type universityRow struct {
	ID      string `db:"id"`
	Tenant  string `db:"tenant"`
	Name    string `db:"name"`
	Country string `db:"country"`
	City    string `db:"city"`
}

func (r universityRow) toCore() catalog.University {
	return catalog.University{ID: r.ID, Tenant: r.Tenant, Name: r.Name, Country: r.Country, City: r.City}
}

type programRow struct {
	ID           string `db:"id"`
	UniversityID string `db:"university_id"`
	Name         string `db:"name"`
	Level        string `db:"level"`
	TuitionCents int64  `db:"tuition_cents"`
	Currency     string `db:"currency"`
}

func (r programRow) toCore() catalog.Program {
	return catalog.Program{
		ID:           r.ID,
		UniversityID: r.UniversityID,
		Name:         r.Name,
		Level:        r.Level,
		TuitionCents: r.TuitionCents,
		Currency:     r.Currency,
	}
}

func (repo *catalogRepository) CreateUniversity(ctx context.Context, uni catalog.University) (catalog.University, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO university (id, tenant, name, country, city) VALUES ($1, $2, $3, $4, $5)`,
		uni.ID, uni.Tenant, uni.Name, uni.Country, uni.City)
	if err != nil {
		return catalog.University{}, wrapErr(err, "university")
	}
	return uni, nil
}

func (repo *catalogRepository) GetUniversity(ctx context.Context, id string) (catalog.University, error) {
	var row universityRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, tenant, name, country, city FROM university WHERE id = $1`, id)
	if err != nil {
		return catalog.University{}, wrapErr(err, "university")
	}
	return row.toCore(), nil
}

var (
	universitySortColumns = map[string]string{
		"name":    "name",
		"country": "country",
		"city":    "city",
	}
	programSortColumns = map[string]string{
		"name":          "p.name",
		"level":         "p.level",
		"tuition_cents": "p.tuition_cents",
	}
)

func (repo *catalogRepository) QueryUniversities(ctx context.Context, tenant string, filter *catalog.QueryFilter, ordering []core.DBOrdering) ([]catalog.University, error) {
	query := `SELECT id, tenant, name, country, city FROM university WHERE tenant = $1`
	args := []interface{}{tenant}

	if filter != nil {
		if filter.Country != "" {
			args = append(args, filter.Country)
			query += ` AND country ILIKE $` + itoa(len(args))
		}
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			query += ` AND name ILIKE $` + itoa(len(args))
		}
	}
	query += orderBy(ordering, universitySortColumns, "name ASC")

	var rows []universityRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapErr(err, "universities")
	}
	unis := make([]catalog.University, len(rows))
	for i, row := range rows {
		unis[i] = row.toCore()
	}
	return unis, nil
}

func (repo *catalogRepository) DeleteUniversity(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM university WHERE id = $1`, id)
	return wrapErr(err, "university")
}

func (repo *catalogRepository) CreateProgram(ctx context.Context, prog catalog.Program) (catalog.Program, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO program (id, university_id, name, level, tuition_cents, currency)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		prog.ID, prog.UniversityID, prog.Name, prog.Level, prog.TuitionCents, prog.Currency)
	if err != nil {
		return catalog.Program{}, wrapErr(err, "program")
	}
	return prog, nil
}

func (repo *catalogRepository) GetProgram(ctx context.Context, id string) (catalog.Program, error) {
	var row programRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, university_id, name, level, tuition_cents, currency FROM program WHERE id = $1`, id)
	if err != nil {
		return catalog.Program{}, wrapErr(err, "program")
	}
	return row.toCore(), nil
}

func (repo *catalogRepository) QueryPrograms(ctx context.Context, tenant string, filter *catalog.QueryFilter, ordering []core.DBOrdering) ([]catalog.Program, error) {
	query := `SELECT p.id, p.university_id, p.name, p.level, p.tuition_cents, p.currency
		FROM program p
		JOIN university u ON u.id = p.university_id
		WHERE u.tenant = $1`
	args := []interface{}{tenant}

	if filter != nil {
		if filter.UniversityID != "" {
			args = append(args, filter.UniversityID)
			query += ` AND p.university_id = $` + itoa(len(args))
		}
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			query += ` AND p.name ILIKE $` + itoa(len(args))
		}
	}
	query += orderBy(ordering, programSortColumns, "p.name ASC")

	var rows []programRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapErr(err, "programs")
	}
	progs := make([]catalog.Program, len(rows))
	for i, row := range rows {
		progs[i] = row.toCore()
	}
	return progs, nil
}

func (repo *catalogRepository) DeleteProgram(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM program WHERE id = $1`, id)
	return wrapErr(err, "program")
}

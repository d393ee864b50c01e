package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/profile"
)

type profileRepository struct {
	db *sqlx.DB
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *sqlx.DB) profile.Repository {
	return &profileRepository{db: db}
}

type profileRow struct {
	ID        string    `db:"id"`
	Tenant    string    `db:"tenant"`
	Role      string    `db:"role"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r profileRow) toCore() profile.Profile {
	return profile.Profile{
		ID:        r.ID,
		Tenant:    r.Tenant,
		Role:      r.Role,
		Name:      r.Name,
		Email:     r.Email,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (repo *profileRepository) GetProfile(ctx context.Context, id string) (profile.Profile, error) {
	var row profileRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, tenant, role, name, email, created_at, updated_at FROM profile WHERE id = $1`, id)
	if err != nil {
		return profile.Profile{}, wrapErr(err, "profile")
	}
	return row.toCore(), nil
}

func (repo *profileRepository) CreateProfile(ctx context.Context, prof profile.Profile) (profile.Profile, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO profile (id, tenant, role, name, email, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		prof.ID, prof.Tenant, prof.Role, prof.Name, prof.Email, prof.CreatedAt, prof.UpdatedAt)
	if err != nil {
		return profile.Profile{}, wrapErr(err, "profile")
	}
	return prof, nil
}

func (repo *profileRepository) UpdateProfile(ctx context.Context, prof profile.Profile) (profile.Profile, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE profile SET role = $2, name = $3, email = $4, updated_at = $5 WHERE id = $1`,
		prof.ID, prof.Role, prof.Name, prof.Email, prof.UpdatedAt)
	if err != nil {
		return profile.Profile{}, wrapErr(err, "profile")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return profile.Profile{}, core.NotFoundError("profile not found")
	}
	return prof, nil
}

var profileSortColumns = map[string]string{
	"name":       "name",
	"email":      "email",
	"role":       "role",
	"created_at": "created_at",
}

func (repo *profileRepository) QueryProfiles(ctx context.Context, tenant string, filter *profile.QueryFilter, ordering []core.DBOrdering) ([]profile.Profile, error) {
	query := `SELECT id, tenant, role, name, email, created_at, updated_at FROM profile WHERE tenant = $1`
	args := []interface{}{tenant}

	if filter != nil {
		if filter.Role != "" {
			args = append(args, filter.Role)
			query += ` AND role = $2`
		}
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			query += ` AND (name ILIKE $` + itoa(len(args)) + ` OR email ILIKE $` + itoa(len(args)) + `)`
		}
	}
	query += orderBy(ordering, profileSortColumns, "created_at DESC")

	var rows []profileRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapErr(err, "profiles")
	}
	profs := make([]profile.Profile, len(rows))
	for i, row := range rows {
		profs[i] = row.toCore()
	}
	return profs, nil
}

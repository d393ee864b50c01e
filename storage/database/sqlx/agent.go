package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/agent"
)

type agentRepository struct {
	db *sqlx.DB
}

var _ agent.Repository = (*agentRepository)(nil) // interface compliance check

func NewAgentRepository(db *sqlx.DB) agent.Repository {
	return &agentRepository{db: db}
}

type agentRow struct {
	ID             string      `db:"id"`
	Tenant         string      `db:"tenant"`
	ProfileID      null.String `db:"profile_id"`
	Name           string      `db:"name"`
	Email          string      `db:"email"`
	CommissionRate float64     `db:"commission_rate"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

func (r agentRow) toCore() agent.Agent {
	return agent.Agent{
		ID:             r.ID,
		Tenant:         r.Tenant,
		ProfileID:      r.ProfileID.String,
		Name:           r.Name,
		Email:          r.Email,
		CommissionRate: r.CommissionRate,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type commissionRow struct {
	ID            string    `db:"id"`
	Tenant        string    `db:"tenant"`
	AgentID       string    `db:"agent_id"`
	ApplicationID string    `db:"application_id"`
	AmountCents   int64     `db:"amount_cents"`
	Currency      string    `db:"currency"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r commissionRow) toCore() agent.Commission {
	return agent.Commission{
		ID:            r.ID,
		Tenant:        r.Tenant,
		AgentID:       r.AgentID,
		ApplicationID: r.ApplicationID,
		AmountCents:   r.AmountCents,
		Currency:      r.Currency,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

const agentColumns = `id, tenant, profile_id, name, email, commission_rate, created_at, updated_at`

func (repo *agentRepository) CreateAgent(ctx context.Context, agt agent.Agent) (agent.Agent, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO agent (`+agentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		agt.ID, agt.Tenant, nullStr(agt.ProfileID), agt.Name, agt.Email,
		agt.CommissionRate, agt.CreatedAt, agt.UpdatedAt)
	if err != nil {
		return agent.Agent{}, wrapErr(err, "agent")
	}
	return agt, nil
}

func (repo *agentRepository) GetAgent(ctx context.Context, id string) (agent.Agent, error) {
	var row agentRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+agentColumns+` FROM agent WHERE id = $1`, id)
	if err != nil {
		return agent.Agent{}, wrapErr(err, "agent")
	}
	return row.toCore(), nil
}

func (repo *agentRepository) GetAgentByProfile(ctx context.Context, profileID string) (agent.Agent, error) {
	var row agentRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+agentColumns+` FROM agent WHERE profile_id = $1`, profileID)
	if err != nil {
		return agent.Agent{}, wrapErr(err, "agent")
	}
	return row.toCore(), nil
}

func (repo *agentRepository) QueryAgents(ctx context.Context, tenant string, ordering []core.DBOrdering) ([]agent.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agent WHERE tenant = $1` + orderBy(ordering, agentSortColumns, "name ASC")

	var rows []agentRow
	if err := repo.db.SelectContext(ctx, &rows, query, tenant); err != nil {
		return nil, wrapErr(err, "agents")
	}
	agents := make([]agent.Agent, len(rows))
	for i, row := range rows {
		agents[i] = row.toCore()
	}
	return agents, nil
}

func (repo *agentRepository) DeleteAgent(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM agent WHERE id = $1`, id)
	return wrapErr(err, "agent")
}

var (
	agentSortColumns = map[string]string{
		"name":            "name",
		"email":           "email",
		"commission_rate": "commission_rate",
		"created_at":      "created_at",
	}
	commissionSortColumns = map[string]string{
		"amount_cents": "amount_cents",
		"currency":     "currency",
		"status":       "status",
		"created_at":   "created_at",
	}
)

const commissionColumns = `id, tenant, agent_id, application_id, amount_cents, currency, status, created_at, updated_at`

func (repo *agentRepository) CreateCommission(ctx context.Context, com agent.Commission) (agent.Commission, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO commission (`+commissionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		com.ID, com.Tenant, com.AgentID, com.ApplicationID, com.AmountCents,
		com.Currency, com.Status, com.CreatedAt, com.UpdatedAt)
	if err != nil {
		return agent.Commission{}, wrapErr(err, "commission")
	}
	return com, nil
}

func (repo *agentRepository) GetCommission(ctx context.Context, id string) (agent.Commission, error) {
	var row commissionRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+commissionColumns+` FROM commission WHERE id = $1`, id)
	if err != nil {
		return agent.Commission{}, wrapErr(err, "commission")
	}
	return row.toCore(), nil
}

func (repo *agentRepository) QueryCommissions(ctx context.Context, tenant string, filter *agent.CommissionFilter, ordering []core.DBOrdering) ([]agent.Commission, error) {
	query := `SELECT ` + commissionColumns + ` FROM commission WHERE tenant = $1`
	args := []interface{}{tenant}

	if filter != nil {
		if filter.AgentID != "" {
			args = append(args, filter.AgentID)
			query += ` AND agent_id = $` + itoa(len(args))
		}
		if filter.Status != "" {
			args = append(args, filter.Status)
			query += ` AND status = $` + itoa(len(args))
		}
	}
	query += orderBy(ordering, commissionSortColumns, "created_at DESC")

	var rows []commissionRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapErr(err, "commissions")
	}
	coms := make([]agent.Commission, len(rows))
	for i, row := range rows {
		coms[i] = row.toCore()
	}
	return coms, nil
}

func (repo *agentRepository) UpdateCommission(ctx context.Context, com agent.Commission) (agent.Commission, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE commission SET amount_cents = $2, currency = $3, status = $4, updated_at = $5 WHERE id = $1`,
		com.ID, com.AmountCents, com.Currency, com.Status, com.UpdatedAt)
	if err != nil {
		return agent.Commission{}, wrapErr(err, "commission")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return agent.Commission{}, core.NotFoundError("commission not found")
	}
	return com, nil
}

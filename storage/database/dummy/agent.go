package dummydb

import (
	"context"
	"sort"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/agent"
)

type agentRepository struct {
	db *DB
}

var _ agent.Repository = (*agentRepository)(nil) // interface compliance check

func NewAgentRepository(db *DB) agent.Repository {
	return &agentRepository{db: db}
}

func (repo *agentRepository) CreateAgent(ctx context.Context, agt agent.Agent) (agent.Agent, error) {
	repo.db.agent.Lock()
	defer repo.db.agent.Unlock()

	repo.db.agent.table[agt.ID] = &agt
	return agt, nil
}

func (repo *agentRepository) GetAgent(ctx context.Context, id string) (agent.Agent, error) {
	repo.db.agent.RLock()
	defer repo.db.agent.RUnlock()

	if agt, ok := repo.db.agent.table[id]; ok {
		return *agt, nil
	}
	return agent.Agent{}, core.NotFoundError("agent not found")
}

func (repo *agentRepository) GetAgentByProfile(ctx context.Context, profileID string) (agent.Agent, error) {
	repo.db.agent.RLock()
	defer repo.db.agent.RUnlock()

	for _, agt := range repo.db.agent.table {
		if agt.ProfileID == profileID {
			return *agt, nil
		}
	}
	return agent.Agent{}, core.NotFoundError("agent not found")
}

func (repo *agentRepository) QueryAgents(ctx context.Context, tenant string, ordering []core.DBOrdering) ([]agent.Agent, error) {
	repo.db.agent.RLock()
	defer repo.db.agent.RUnlock()

	var agents []agent.Agent
	for _, agt := range repo.db.agent.table {
		if agt.Tenant == tenant {
			agents = append(agents, *agt)
		}
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].Name < agents[j].Name })
	return agents, nil
}

func (repo *agentRepository) DeleteAgent(ctx context.Context, id string) error {
	repo.db.agent.Lock()
	defer repo.db.agent.Unlock()
	delete(repo.db.agent.table, id)
	return nil
}

func (repo *agentRepository) CreateCommission(ctx context.Context, com agent.Commission) (agent.Commission, error) {
	repo.db.commission.Lock()
	defer repo.db.commission.Unlock()

	repo.db.commission.table[com.ID] = &com
	return com, nil
}

func (repo *agentRepository) GetCommission(ctx context.Context, id string) (agent.Commission, error) {
	repo.db.commission.RLock()
	defer repo.db.commission.RUnlock()

	if com, ok := repo.db.commission.table[id]; ok {
		return *com, nil
	}
	return agent.Commission{}, core.NotFoundError("commission not found")
}

func (repo *agentRepository) QueryCommissions(ctx context.Context, tenant string, filter *agent.CommissionFilter, ordering []core.DBOrdering) ([]agent.Commission, error) {
	repo.db.commission.RLock()
	defer repo.db.commission.RUnlock()

	var coms []agent.Commission
	for _, com := range repo.db.commission.table {
		if com.Tenant != tenant {
			continue
		}
		if filter != nil {
			if filter.AgentID != "" && com.AgentID != filter.AgentID {
				continue
			}
			if filter.Status != "" && com.Status != filter.Status {
				continue
			}
		}
		coms = append(coms, *com)
	}
	sort.Slice(coms, func(i, j int) bool { return coms[i].CreatedAt.After(coms[j].CreatedAt) })
	return coms, nil
}

func (repo *agentRepository) UpdateCommission(ctx context.Context, com agent.Commission) (agent.Commission, error) {
	repo.db.commission.Lock()
	defer repo.db.commission.Unlock()

	if _, ok := repo.db.commission.table[com.ID]; !ok {
		return agent.Commission{}, core.NotFoundError("commission not found")
	}
	repo.db.commission.table[com.ID] = &com
	return com, nil
}

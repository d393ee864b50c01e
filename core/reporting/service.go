package reporting

import (
	"context"
	"sort"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/agent"
	"github.com/unigate/unigate/core/application"
	"github.com/unigate/unigate/core/profile"
)

// AgentDashboard is the agent's own slice of the pipeline.
type AgentDashboard struct {
	TotalApplications int                         `json:"total_applications"`
	StatusCounts      map[string]int              `json:"status_counts"`
	Funnel            []StageMetric               `json:"funnel"`
	RiskDistribution  map[string]int              `json:"risk_distribution"`
	CommissionTotals  map[string]map[string]int64 `json:"commission_totals"`
}

type Service struct {
	appSvc   *application.Service
	agentSvc *agent.Service
	cache    *Cache
}

func NewService(appSvc *application.Service, agentSvc *agent.Service, cache *Cache) *Service {
	return &Service{
		appSvc:   appSvc,
		agentSvc: agentSvc,
		cache:    cache,
	}
}

// Overview assembles the tenant-wide dashboard. Staff only; served from the
// cache when fresh.
func (svc *Service) Overview(ctx context.Context, actor profile.Actor) (Overview, error) {
	if !actor.IsStaff() {
		return Overview{}, core.PermissionError("permission denied")
	}
	if cached, ok := svc.cache.get(actor.Tenant, "overview"); ok {
		return cached.(Overview), nil
	}

	apps, err := svc.appSvc.Query(ctx, actor, nil, nil)
	if err != nil {
		return Overview{}, err
	}
	coms, err := svc.agentSvc.QueryCommissions(ctx, actor, nil, nil)
	if err != nil {
		return Overview{}, err
	}

	overview := BuildOverview(apps, coms)
	svc.cache.set(actor.Tenant, "overview", overview)
	return overview, nil
}

// Agent assembles the acting agent's dashboard over their linked
// applications and commissions.
func (svc *Service) Agent(ctx context.Context, actor profile.Actor) (AgentDashboard, error) {
	if !actor.IsAgent() {
		return AgentDashboard{}, core.PermissionError("permission denied")
	}
	view := "agent|" + actor.ID
	if cached, ok := svc.cache.get(actor.Tenant, view); ok {
		return cached.(AgentDashboard), nil
	}

	apps, err := svc.appSvc.Query(ctx, actor, nil, nil)
	if err != nil {
		return AgentDashboard{}, err
	}
	coms, err := svc.agentSvc.QueryCommissions(ctx, actor, nil, nil)
	if err != nil {
		return AgentDashboard{}, err
	}

	dash := AgentDashboard{
		TotalApplications: len(apps),
		StatusCounts:      StatusCounts(apps),
		Funnel:            Funnel(apps),
		RiskDistribution:  RiskDistribution(apps),
		CommissionTotals:  CommissionTotals(coms),
	}
	svc.cache.set(actor.Tenant, view, dash)
	return dash, nil
}

// Risk lists the tenant's applications ranked most risky first. Staff only,
// uncached: it drives triage, not a dashboard card.
func (svc *Service) Risk(ctx context.Context, actor profile.Actor) ([]application.Detail, error) {
	if !actor.IsStaff() {
		return nil, core.PermissionError("permission denied")
	}
	apps, err := svc.appSvc.Query(ctx, actor, nil, nil)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(apps, func(i, j int) bool {
		return apps[i].Categorization.Score > apps[j].Categorization.Score
	})
	return apps, nil
}

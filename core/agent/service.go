package agent

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/profile"
)

type (
	Repository interface {
		CreateAgent(ctx context.Context, agt Agent) (Agent, error)
		GetAgent(ctx context.Context, id string) (Agent, error)
		GetAgentByProfile(ctx context.Context, profileID string) (Agent, error)
		QueryAgents(ctx context.Context, tenant string, ordering []core.DBOrdering) ([]Agent, error)
		DeleteAgent(ctx context.Context, id string) error

		CreateCommission(ctx context.Context, com Commission) (Commission, error)
		GetCommission(ctx context.Context, id string) (Commission, error)
		QueryCommissions(ctx context.Context, tenant string, filter *CommissionFilter, ordering []core.DBOrdering) ([]Commission, error)
		UpdateCommission(ctx context.Context, com Commission) (Commission, error)
	}

	// ReportCache drops cached dashboard reports for a tenant; commission
	// mutations call it so dashboard totals never outlive the last write.
	ReportCache interface {
		Invalidate(tenant string)
	}

	Service struct {
		repo    Repository
		reports ReportCache
	}
)

func NewService(repo Repository, reports ReportCache) *Service {
	return &Service{repo: repo, reports: reports}
}

func (svc *Service) invalidateReports(tenant string) {
	if svc.reports != nil {
		svc.reports.Invalidate(tenant)
	}
}

func (svc *Service) Create(ctx context.Context, actor profile.Actor, na NewAgent) (Agent, error) {
	if !actor.IsStaff() {
		return Agent{}, core.PermissionError("permission denied")
	}
	now := time.Now().UTC()
	agt := Agent{
		ID:             uuid.New().String(),
		Tenant:         actor.Tenant,
		ProfileID:      na.ProfileID,
		Name:           na.Name,
		Email:          na.Email,
		CommissionRate: na.CommissionRate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return svc.repo.CreateAgent(ctx, agt)
}

func (svc *Service) Get(ctx context.Context, actor profile.Actor, id string) (Agent, error) {
	agt, err := svc.repo.GetAgent(ctx, id)
	if err != nil {
		return Agent{}, err
	}
	if agt.Tenant != actor.Tenant {
		return Agent{}, core.NotFoundError("agent not found")
	}
	if !actor.IsStaff() && agt.ProfileID != actor.ID {
		return Agent{}, core.PermissionError("permission denied")
	}
	return agt, nil
}

// GetOwn returns the agent record owned by the acting agent profile.
func (svc *Service) GetOwn(ctx context.Context, actor profile.Actor) (Agent, error) {
	if !actor.IsAgent() {
		return Agent{}, core.PermissionError("permission denied")
	}
	agt, err := svc.repo.GetAgentByProfile(ctx, actor.ID)
	if err != nil {
		return Agent{}, err
	}
	if agt.Tenant != actor.Tenant {
		return Agent{}, core.NotFoundError("agent not found")
	}
	return agt, nil
}

func (svc *Service) Query(ctx context.Context, actor profile.Actor, ordering []core.DBOrdering) ([]Agent, error) {
	if !actor.IsStaff() {
		return nil, core.PermissionError("permission denied")
	}
	return svc.repo.QueryAgents(ctx, actor.Tenant, ordering)
}

func (svc *Service) Delete(ctx context.Context, actor profile.Actor, id string) error {
	if !actor.IsAdmin() {
		return core.PermissionError("permission denied")
	}
	if _, err := svc.Get(ctx, actor, id); err != nil {
		return err
	}
	return svc.repo.DeleteAgent(ctx, id)
}

func (svc *Service) CreateCommission(ctx context.Context, actor profile.Actor, nc NewCommission) (Commission, error) {
	if !actor.IsStaff() {
		return Commission{}, core.PermissionError("permission denied")
	}
	if _, err := svc.Get(ctx, actor, nc.AgentID); err != nil {
		return Commission{}, err
	}
	now := time.Now().UTC()
	com := Commission{
		ID:            uuid.New().String(),
		Tenant:        actor.Tenant,
		AgentID:       nc.AgentID,
		ApplicationID: nc.ApplicationID,
		AmountCents:   nc.AmountCents,
		Currency:      strings.ToUpper(nc.Currency),
		Status:        CommissionPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	com, err := svc.repo.CreateCommission(ctx, com)
	if err != nil {
		return Commission{}, err
	}
	svc.invalidateReports(com.Tenant)
	return com, nil
}

func (svc *Service) QueryCommissions(ctx context.Context, actor profile.Actor, filter *CommissionFilter, ordering []core.DBOrdering) ([]Commission, error) {
	if filter == nil {
		filter = new(CommissionFilter)
	}
	if actor.IsStudent() {
		return nil, core.PermissionError("permission denied")
	}
	if actor.IsAgent() {
		agt, err := svc.GetOwn(ctx, actor)
		if err != nil {
			return nil, err
		}
		filter.AgentID = agt.ID
	}
	return svc.repo.QueryCommissions(ctx, actor.Tenant, filter, ordering)
}

// SetCommissionStatus moves a commission to the given status. There is no
// transition table; staff may set any defined status.
func (svc *Service) SetCommissionStatus(ctx context.Context, actor profile.Actor, id, status string) (Commission, error) {
	if !actor.IsStaff() {
		return Commission{}, core.PermissionError("permission denied")
	}
	valid := false
	for _, s := range AllCommissionStatuses {
		if status == s {
			valid = true
			break
		}
	}
	if !valid {
		return Commission{}, core.NewValidationError(nil, core.FieldError{Field: "status", Error: "invalid commission status"})
	}

	com, err := svc.repo.GetCommission(ctx, id)
	if err != nil {
		return Commission{}, err
	}
	if com.Tenant != actor.Tenant {
		return Commission{}, core.NotFoundError("commission not found")
	}
	com.Status = status
	com.UpdatedAt = time.Now().UTC()
	if com, err = svc.repo.UpdateCommission(ctx, com); err != nil {
		return Commission{}, err
	}
	svc.invalidateReports(com.Tenant)
	return com, nil
}

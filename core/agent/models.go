package agent

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/unigate/unigate/core"
)

// Commission statuses
const (
	CommissionPending  = "pending"
	CommissionApproved = "approved"
	CommissionPaid     = "paid"
	CommissionClawback = "clawback"
)

var AllCommissionStatuses = []string{CommissionPending, CommissionApproved, CommissionPaid, CommissionClawback}

// Agent is a recruitment partner bringing students onto the platform.
type Agent struct {
	ID             string    `json:"id"`
	Tenant         string    `json:"tenant"`
	ProfileID      string    `json:"profile_id,omitempty"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	CommissionRate float64   `json:"commission_rate"` // fraction of tuition, e.g. 0.15
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Commission struct {
	ID            string    `json:"id"`
	Tenant        string    `json:"tenant"`
	AgentID       string    `json:"agent_id"`
	ApplicationID string    `json:"application_id"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type NewAgent struct {
	Name           string  `json:"name" validate:"required"`
	Email          string  `json:"email" validate:"omitempty,email"`
	CommissionRate float64 `json:"commission_rate" validate:"min=0,max=1"`
	ProfileID      string  `json:"profile_id" validate:"omitempty,uuid4"`
}

func (na *NewAgent) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	return validate.Struct(na)
}

type NewCommission struct {
	AgentID       string `json:"agent_id" validate:"required,uuid4"`
	ApplicationID string `json:"application_id" validate:"required,uuid4"`
	AmountCents   int64  `json:"amount_cents" validate:"min=0"`
	Currency      string `json:"currency" validate:"omitempty,len=3"`
}

func (nc *NewCommission) Validate(validate *validator.Validate) error {
	nc.Currency = core.CleanString(nc.Currency, true /* lower */)
	if nc.Currency == "" {
		nc.Currency = "gbp"
	}
	return validate.Struct(nc)
}

type CommissionFilter struct {
	AgentID string `query:"agent_id"`
	Status  string `query:"status" validate:"omitempty,commissionstatus"`
}

func (cf *CommissionFilter) Clean() {
	cf.Status = core.CleanString(cf.Status, true /* lower */)
}

var (
	commissionStatusTag  = "commissionstatus"
	commissionStatusText = "invalid commission status"
)

// InitValidators registers agent validators on the shared validator instance.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(commissionStatusTag, commissionStatusValidation)
	core.RegisterCustomTranslation(validate, translator, commissionStatusTag, commissionStatusText)
}

func commissionStatusValidation(fl validator.FieldLevel) bool {
	status := fl.Field().String()
	for _, s := range AllCommissionStatuses {
		if status == s {
			return true
		}
	}
	return false
}

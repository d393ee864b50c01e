package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/unigate/unigate/core"
)

// Test score kinds
const (
	ScoreIELTS    = "ielts"
	ScoreTOEFL    = "toefl"
	ScorePTE      = "pte"
	ScoreDuolingo = "duolingo"
	ScoreGRE      = "gre"
	ScoreGMAT     = "gmat"
)

var AllScoreKinds = []string{ScoreIELTS, ScoreTOEFL, ScorePTE, ScoreDuolingo, ScoreGRE, ScoreGMAT}

type Student struct {
	ID          string    `json:"id"`
	Tenant      string    `json:"tenant"`
	ProfileID   string    `json:"profile_id,omitempty"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Nationality string    `json:"nationality"`
	Country     string    `json:"country"` // current country of residence
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s Student) FullName() string {
	if s.FirstName == "" {
		return s.LastName
	}
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

type TestScore struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Kind      string    `json:"kind"`
	Score     float64   `json:"score"`
	TakenAt   time.Time `json:"taken_at,omitempty"`
}

type NewStudent struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	Nationality string `json:"nationality"`
	Country     string `json:"country"`
	ProfileID   string `json:"profile_id" validate:"omitempty,uuid4"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Nationality = core.CleanString(ns.Nationality)
	ns.Country = core.CleanString(ns.Country)
	return validate.Struct(ns)
}

type UpdateStudent struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email" validate:"omitempty,email"`
	Nationality string `json:"nationality"`
	Country     string `json:"country"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.FirstName = core.CleanString(us.FirstName)
	us.LastName = core.CleanString(us.LastName)
	us.Email = core.CleanString(us.Email, true /* lower */)
	us.Nationality = core.CleanString(us.Nationality)
	us.Country = core.CleanString(us.Country)
	return validate.Struct(us)
}

type UpsertTestScore struct {
	Kind    string    `json:"kind" validate:"required,scorekind"`
	Score   float64   `json:"score" validate:"min=0"`
	TakenAt time.Time `json:"taken_at"`
}

func (uts *UpsertTestScore) Validate(validate *validator.Validate) error {
	uts.Kind = core.CleanString(uts.Kind, true /* lower */)
	return validate.Struct(uts)
}

type QueryFilter struct {
	Search      string `query:"search"`
	Nationality string `query:"nationality"`
	AgentID     string `query:"agent_id"`

	// AgentProfileID is set by the service for agent actors; it is never bound
	// from the request.
	AgentProfileID string `query:"-" json:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Nationality = core.CleanString(qf.Nationality)
}

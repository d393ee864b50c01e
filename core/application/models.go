package application

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/unigate/unigate/core"
)

// Lifecycle statuses
const (
	StatusLead               = "lead"
	StatusDraft              = "draft"
	StatusSubmitted          = "submitted"
	StatusScreening          = "screening"
	StatusReview             = "review"
	StatusConditionalOffer   = "conditional_offer"
	StatusUnconditionalOffer = "unconditional_offer"
	StatusDepositPaid        = "deposit_paid"
	StatusCasLoa             = "cas_loa"
	StatusVisa               = "visa"
	StatusEnrolled           = "enrolled"
	StatusWithdrawn          = "withdrawn"
	StatusRejected           = "rejected"
)

var AllStatuses = []string{
	StatusLead, StatusDraft, StatusSubmitted, StatusScreening, StatusReview,
	StatusConditionalOffer, StatusUnconditionalOffer, StatusDepositPaid,
	StatusCasLoa, StatusVisa, StatusEnrolled, StatusWithdrawn, StatusRejected,
}

// Application is the admissions lifecycle record. Status transitions are not
// validated by a state machine: the stored status is whatever was last
// written, and a regression is rendered as-is.
type Application struct {
	ID             string    `json:"id"`
	Tenant         string    `json:"tenant"`
	StudentID      string    `json:"student_id"`
	ProgramID      string    `json:"program_id"`
	AgentID        string    `json:"agent_id,omitempty"`
	Status         string    `json:"status"`
	SubmittedAt    time.Time `json:"submitted_at,omitempty"`
	DocumentsCount int       `json:"documents_count"`
	LastActivityAt time.Time `json:"last_activity_at,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type NewApplication struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
	ProgramID string `json:"program_id" validate:"required,uuid4"`
	AgentID   string `json:"agent_id" validate:"omitempty,uuid4"`
}

func (na *NewApplication) Validate(validate *validator.Validate) error {
	return validate.Struct(na)
}

type UpdateStatus struct {
	Status string `json:"status" validate:"required,appstatus"`
	Note   string `json:"note"`
}

func (us *UpdateStatus) Validate(validate *validator.Validate) error {
	us.Status = core.CleanString(us.Status, true /* lower */)
	us.Note = core.CleanString(us.Note)
	return validate.Struct(us)
}

type AssignAgent struct {
	AgentID string `json:"agent_id" validate:"required,uuid4"`
}

func (aa *AssignAgent) Validate(validate *validator.Validate) error {
	return validate.Struct(aa)
}

// Detail is an application joined with its student, program, university and
// agent snapshots. The categorization and stage fields are derived on demand
// and never persisted.
type Detail struct {
	Application

	StudentName        string `json:"student_name"`
	StudentEmail       string `json:"student_email,omitempty"`
	StudentNationality string `json:"student_nationality,omitempty"`
	StudentCountry     string `json:"student_country,omitempty"`
	StudentProfileID   string `json:"-"`

	ProgramName  string `json:"program_name"`
	ProgramLevel string `json:"program_level,omitempty"`

	UniversityID      string `json:"university_id"`
	UniversityName    string `json:"university_name"`
	UniversityCountry string `json:"university_country,omitempty"`

	AgentName      string `json:"agent_name,omitempty"`
	AgentProfileID string `json:"-"`

	LastDocumentAt time.Time `json:"last_document_at,omitempty"`

	Categorization CategorizeResult `json:"categorization"`
	StageIndex     int              `json:"stage_index"`
	StageLabel     string           `json:"stage_label"`
	StageProgress  float64          `json:"stage_progress"`
}

// Categorize computes the derived view from the joined snapshot.
func (d Detail) Categorize() CategorizeResult {
	in := CategorizeInput{
		ProgramLevel:       d.ProgramLevel,
		ProgramName:        d.ProgramName,
		UniversityCountry:  d.UniversityCountry,
		StudentNationality: d.StudentNationality,
		StudentCountry:     d.StudentCountry,
		Status:             d.Status,
		AgentID:            d.AgentID,
		DocumentsCount:     d.DocumentsCount,
	}
	if !d.LastDocumentAt.IsZero() {
		in.LastDocumentAt = d.LastDocumentAt.UTC().Format(time.RFC3339)
	}
	if !d.UpdatedAt.IsZero() {
		in.UpdatedAt = d.UpdatedAt.UTC().Format(time.RFC3339)
	}
	if !d.CreatedAt.IsZero() {
		in.CreatedAt = d.CreatedAt.UTC().Format(time.RFC3339)
	}
	return Categorize(in)
}

// StudentRef and AgentRef are the narrow cross-entity lookups the service
// needs for access checks and notification routing.
type (
	StudentRef struct {
		ID        string
		Tenant    string
		ProfileID string
		Name      string
		Email     string
	}

	AgentRef struct {
		ID        string
		Tenant    string
		ProfileID string
		Name      string
	}
)

type QueryFilter struct {
	Status       []string  `query:"status"`
	StudentID    string    `query:"student_id"`
	AgentID      string    `query:"agent_id"`
	UniversityID string    `query:"university_id"`
	ProgramID    string    `query:"program_id"`
	Search       string    `query:"search"`
	CreatedFrom  time.Time `query:"created_from"`
	CreatedTo    time.Time `query:"created_to"`

	// Set by the service for non-staff actors; never bound from the request.
	StudentProfileID string `query:"-" json:"-"`
	AgentProfileID   string `query:"-" json:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	for i, s := range qf.Status {
		qf.Status[i] = core.CleanString(s, true /* lower */)
	}
}

var (
	appStatusTag  = "appstatus"
	appStatusText = "invalid application status"
)

// InitValidators registers application validators on the shared validator instance.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(appStatusTag, appStatusValidation)
	core.RegisterCustomTranslation(validate, translator, appStatusTag, appStatusText)
}

func appStatusValidation(fl validator.FieldLevel) bool {
	status := fl.Field().String()
	for _, s := range AllStatuses {
		if status == s {
			return true
		}
	}
	return false
}

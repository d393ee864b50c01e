package notification

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/unigate/unigate/core"
)

// Notification types
const (
	TypeInfo         = "info"
	TypeStatusChange = "status_change"
	TypeMessage      = "message"
	TypeDocument     = "document"
	TypeAnnouncement = "announcement"
)

var AllTypes = []string{TypeInfo, TypeStatusChange, TypeMessage, TypeDocument, TypeAnnouncement}

type Notification struct {
	ID        string                 `json:"id"`
	Tenant    string                 `json:"tenant"`
	UserID    string                 `json:"user_id"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Type      string                 `json:"type"`
	Read      bool                   `json:"read"`
	ActionURL string                 `json:"action_url,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// NewNotification is the payload for staff announcements and internal triggers.
type NewNotification struct {
	UserID    string                 `json:"user_id" validate:"required,uuid4"`
	Title     string                 `json:"title" validate:"required"`
	Message   string                 `json:"message"`
	Type      string                 `json:"type" validate:"omitempty,notiftype"`
	ActionURL string                 `json:"action_url"`
	Metadata  map[string]interface{} `json:"metadata"`
}

func (nn *NewNotification) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Type = core.CleanString(nn.Type, true /* lower */)
	if nn.Type == "" {
		nn.Type = TypeInfo
	}
	return validate.Struct(nn)
}

type QueryFilter struct {
	Unread *bool `query:"unread"`
	Limit  int   `query:"limit"`
}

var (
	notifTypeTag  = "notiftype"
	notifTypeText = "invalid notification type"
)

// InitValidators registers notification validators on the shared validator instance.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(notifTypeTag, notifTypeValidation)
	core.RegisterCustomTranslation(validate, translator, notifTypeTag, notifTypeText)
}

func notifTypeValidation(fl validator.FieldLevel) bool {
	typ := fl.Field().String()
	for _, t := range AllTypes {
		if typ == t {
			return true
		}
	}
	return false
}

package messaging

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/unigate/unigate/core"
)

// Broadcast audiences
const (
	AudienceStudents = "students"
	AudienceAgents   = "agents"
	AudienceAll      = "all"
)

var AllAudiences = []string{AudienceStudents, AudienceAgents, AudienceAll}

type Conversation struct {
	ID             string                 `json:"id"`
	Tenant         string                 `json:"tenant"`
	IsBroadcast    bool                   `json:"is_broadcast"`
	Audience       string                 `json:"audience,omitempty"`
	ParticipantIDs []string               `json:"participant_ids"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

type Message struct {
	ID             string                 `json:"id"`
	ConversationID string                 `json:"conversation_id"`
	SenderID       string                 `json:"sender_id"`
	Content        string                 `json:"content"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// Summary is a conversation with its inbox decorations.
type Summary struct {
	Conversation
	LastMessage *Message `json:"last_message,omitempty"`
	UnreadCount int      `json:"unread_count"`
}

// Contact is a user the actor may start a conversation with.
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type StartConversation struct {
	ParticipantIDs []string `json:"participant_ids" validate:"required,min=1,dive,uuid4"`
}

func (sc *StartConversation) Validate(validate *validator.Validate) error {
	return validate.Struct(sc)
}

type NewMessage struct {
	Content  string                 `json:"content" validate:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Content = core.CleanString(nm.Content)
	return validate.Struct(nm)
}

type NewBroadcast struct {
	Audience string `json:"audience" validate:"required,audience"`
	Content  string `json:"content" validate:"required"`
}

func (nb *NewBroadcast) Validate(validate *validator.Validate) error {
	nb.Audience = core.CleanString(nb.Audience, true /* lower */)
	nb.Content = core.CleanString(nb.Content)
	return validate.Struct(nb)
}

var (
	audienceTag  = "audience"
	audienceText = "invalid broadcast audience"
)

// InitValidators registers messaging validators on the shared validator instance.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(audienceTag, audienceValidation)
	core.RegisterCustomTranslation(validate, translator, audienceTag, audienceText)
}

func audienceValidation(fl validator.FieldLevel) bool {
	audience := fl.Field().String()
	for _, a := range AllAudiences {
		if audience == a {
			return true
		}
	}
	return false
}

package messaging

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/audit"
	"github.com/unigate/unigate/core/notification"
	"github.com/unigate/unigate/core/profile"
	"github.com/unigate/unigate/core/realtime"
)

type (
	Repository interface {
		CreateConversation(ctx context.Context, conv Conversation) (Conversation, error)
		GetConversation(ctx context.Context, id string) (Conversation, error)
		// GetDirectConversationByParticipants finds the direct (non-broadcast)
		// conversation whose participant set matches exactly; the set is
		// passed sorted and deduplicated.
		GetDirectConversationByParticipants(ctx context.Context, tenant string, participantIDs []string) (Conversation, error)
		// ListConversations returns the user's conversations with inbox
		// decorations, most recently active first.
		ListConversations(ctx context.Context, userID string) ([]Summary, error)

		CreateMessage(ctx context.Context, msg Message) (Message, error)
		ListMessages(ctx context.Context, conversationID string, limit int) ([]Message, error)
		MarkConversationRead(ctx context.Context, conversationID, userID string, at time.Time) error

		// ListContacts returns tenant profiles restricted to the given roles;
		// empty roles means everyone in the tenant.
		ListContacts(ctx context.Context, tenant string, roles []string) ([]Contact, error)
		// ResolveAudience returns the profile IDs a broadcast audience expands to.
		ResolveAudience(ctx context.Context, tenant, audience string) ([]string, error)
	}

	Service struct {
		repo     Repository
		notifSvc *notification.Service
		auditSvc *audit.Service
		hub      *realtime.Hub
	}
)

func NewService(repo Repository, notifSvc *notification.Service, auditSvc *audit.Service, hub *realtime.Hub) *Service {
	return &Service{
		repo:     repo,
		notifSvc: notifSvc,
		auditSvc: auditSvc,
		hub:      hub,
	}
}

// normalizeParticipants returns the sorted, deduplicated participant set
// always including the actor.
func normalizeParticipants(actorID string, ids []string) []string {
	seen := map[string]bool{actorID: true}
	set := []string{actorID}
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			set = append(set, id)
		}
	}
	sort.Strings(set)
	return set
}

// GetOrCreateConversation finds the direct conversation over the exact
// participant set, creating it when absent. Direct conversations are unique
// per participant set.
func (svc *Service) GetOrCreateConversation(ctx context.Context, actor profile.Actor, sc StartConversation) (Conversation, error) {
	participants := normalizeParticipants(actor.ID, sc.ParticipantIDs)
	if len(participants) < 2 {
		return Conversation{}, core.NewValidationError(nil, core.FieldError{
			Field: "participant_ids",
			Error: "a conversation needs at least one other participant",
		})
	}

	conv, err := svc.repo.GetDirectConversationByParticipants(ctx, actor.Tenant, participants)
	if err == nil {
		return conv, nil
	}
	if core.KindOf(err) != core.KindNotFound {
		return Conversation{}, err
	}

	conv = Conversation{
		ID:             uuid.New().String(),
		Tenant:         actor.Tenant,
		ParticipantIDs: participants,
		CreatedAt:      time.Now().UTC(),
	}
	return svc.repo.CreateConversation(ctx, conv)
}

func (svc *Service) ListConversations(ctx context.Context, actor profile.Actor) ([]Summary, error) {
	return svc.repo.ListConversations(ctx, actor.ID)
}

func (svc *Service) getParticipating(ctx context.Context, actor profile.Actor, conversationID string) (Conversation, error) {
	conv, err := svc.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return Conversation{}, err
	}
	if conv.Tenant != actor.Tenant {
		return Conversation{}, core.NotFoundError("conversation not found")
	}
	for _, id := range conv.ParticipantIDs {
		if id == actor.ID {
			return conv, nil
		}
	}
	return Conversation{}, core.NotFoundError("conversation not found")
}

func (svc *Service) ListMessages(ctx context.Context, actor profile.Actor, conversationID string, limit int) ([]Message, error) {
	conv, err := svc.getParticipating(ctx, actor, conversationID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	msgs, err := svc.repo.ListMessages(ctx, conv.ID, limit)
	if err != nil {
		return nil, err
	}
	_ = svc.repo.MarkConversationRead(ctx, conv.ID, actor.ID, time.Now().UTC())
	return msgs, nil
}

// SendMessage appends to the conversation. Broadcast conversations accept
// messages from staff senders only.
func (svc *Service) SendMessage(ctx context.Context, actor profile.Actor, conversationID string, nm NewMessage) (Message, error) {
	conv, err := svc.getParticipating(ctx, actor, conversationID)
	if err != nil {
		return Message{}, err
	}
	if conv.IsBroadcast && !actor.IsStaff() {
		return Message{}, core.PermissionError("only staff may post to a broadcast")
	}

	msg := Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		SenderID:       actor.ID,
		Content:        nm.Content,
		Metadata:       nm.Metadata,
		CreatedAt:      time.Now().UTC(),
	}
	msg, err = svc.repo.CreateMessage(ctx, msg)
	if err != nil {
		return Message{}, err
	}
	_ = svc.repo.MarkConversationRead(ctx, conv.ID, actor.ID, msg.CreatedAt)

	svc.publishMessage(ctx, actor, conv, msg)
	return msg, nil
}

func (svc *Service) publishMessage(ctx context.Context, actor profile.Actor, conv Conversation, msg Message) {
	others := make([]string, 0, len(conv.ParticipantIDs))
	for _, id := range conv.ParticipantIDs {
		if id != actor.ID {
			others = append(others, id)
		}
	}

	svc.hub.Publish(realtime.Event{
		Table:    "conversation_messages",
		Type:     realtime.EventInsert,
		Record:   msg,
		Tenant:   conv.Tenant,
		Audience: conv.ParticipantIDs,
	})

	title := "New message"
	if conv.IsBroadcast {
		title = "Announcement"
	}
	for _, id := range others {
		_, _ = svc.notifSvc.CreateInternal(ctx, conv.Tenant, notification.NewNotification{
			UserID:    id,
			Title:     title,
			Message:   msg.Content,
			Type:      notification.TypeMessage,
			ActionURL: "/messages/" + conv.ID,
		})
	}
}

// Broadcast resolves the audience into a participant snapshot, stores it in
// the conversation metadata with an audit trail and posts the first message.
func (svc *Service) Broadcast(ctx context.Context, actor profile.Actor, nb NewBroadcast) (Conversation, error) {
	if !actor.IsStaff() {
		return Conversation{}, core.PermissionError("permission denied")
	}

	recipients, err := svc.repo.ResolveAudience(ctx, actor.Tenant, nb.Audience)
	if err != nil {
		return Conversation{}, err
	}

	participants := normalizeParticipants(actor.ID, recipients)
	now := time.Now().UTC()
	conv := Conversation{
		ID:          uuid.New().String(),
		Tenant:      actor.Tenant,
		IsBroadcast: true,
		Audience:    nb.Audience,
		ParticipantIDs: participants,
		Metadata: map[string]interface{}{
			"audience":        nb.Audience,
			"recipients":      recipients,
			"recipient_count": len(recipients),
			"sent_by":         actor.ID,
			"sent_at":         now.Format(time.RFC3339),
		},
		CreatedAt: now,
	}
	conv, err = svc.repo.CreateConversation(ctx, conv)
	if err != nil {
		return Conversation{}, err
	}

	msg := Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		SenderID:       actor.ID,
		Content:        nb.Content,
		CreatedAt:      now,
	}
	if msg, err = svc.repo.CreateMessage(ctx, msg); err != nil {
		return Conversation{}, err
	}

	svc.auditSvc.Record(ctx, actor, "messaging.broadcast", "conversation", conv.ID, map[string]interface{}{
		"audience":        nb.Audience,
		"recipient_count": len(recipients),
	})
	svc.publishMessage(ctx, actor, conv, msg)
	return conv, nil
}

// Contacts lists who the actor may message: students and agents reach staff,
// staff reach everyone in the tenant.
func (svc *Service) Contacts(ctx context.Context, actor profile.Actor) ([]Contact, error) {
	var roles []string
	if !actor.IsStaff() {
		roles = []string{profile.RoleStaff, profile.RoleAdmin}
	}
	return svc.repo.ListContacts(ctx, actor.Tenant, roles)
}

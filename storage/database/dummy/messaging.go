package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/messaging"
	"github.com/unigate/unigate/core/profile"
)

type messagingRepository struct {
	db *DB
}

var _ messaging.Repository = (*messagingRepository)(nil) // interface compliance check

func NewMessagingRepository(db *DB) messaging.Repository {
	return &messagingRepository{db: db}
}

func (repo *messagingRepository) CreateConversation(ctx context.Context, conv messaging.Conversation) (messaging.Conversation, error) {
	repo.db.conversation.Lock()
	defer repo.db.conversation.Unlock()

	repo.db.conversation.table[conv.ID] = &conv
	repo.db.conversation.lastRead[conv.ID] = make(map[string]time.Time)
	return conv, nil
}

func (repo *messagingRepository) GetConversation(ctx context.Context, id string) (messaging.Conversation, error) {
	repo.db.conversation.RLock()
	defer repo.db.conversation.RUnlock()

	if conv, ok := repo.db.conversation.table[id]; ok {
		return *conv, nil
	}
	return messaging.Conversation{}, core.NotFoundError("conversation not found")
}

func sameParticipants(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (repo *messagingRepository) GetDirectConversationByParticipants(ctx context.Context, tenant string, participantIDs []string) (messaging.Conversation, error) {
	repo.db.conversation.RLock()
	defer repo.db.conversation.RUnlock()

	for _, conv := range repo.db.conversation.table {
		if conv.Tenant != tenant || conv.IsBroadcast {
			continue
		}
		sorted := append([]string(nil), conv.ParticipantIDs...)
		sort.Strings(sorted)
		if sameParticipants(sorted, participantIDs) {
			return *conv, nil
		}
	}
	return messaging.Conversation{}, core.NotFoundError("conversation not found")
}

func (repo *messagingRepository) messagesFor(conversationID string) []messaging.Message {
	repo.db.message.RLock()
	defer repo.db.message.RUnlock()

	var msgs []messaging.Message
	for _, msg := range repo.db.message.table {
		if msg.ConversationID == conversationID {
			msgs = append(msgs, *msg)
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs
}

func (repo *messagingRepository) ListConversations(ctx context.Context, userID string) ([]messaging.Summary, error) {
	repo.db.conversation.RLock()
	var convs []messaging.Conversation
	lastRead := make(map[string]time.Time)
	for _, conv := range repo.db.conversation.table {
		for _, id := range conv.ParticipantIDs {
			if id == userID {
				convs = append(convs, *conv)
				lastRead[conv.ID] = repo.db.conversation.lastRead[conv.ID][userID]
				break
			}
		}
	}
	repo.db.conversation.RUnlock()

	summaries := make([]messaging.Summary, 0, len(convs))
	for _, conv := range convs {
		summary := messaging.Summary{Conversation: conv}
		msgs := repo.messagesFor(conv.ID)
		if len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			summary.LastMessage = &last
		}
		readAt := lastRead[conv.ID]
		for _, msg := range msgs {
			if msg.SenderID != userID && msg.CreatedAt.After(readAt) {
				summary.UnreadCount++
			}
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return lastActivity(summaries[i]).After(lastActivity(summaries[j]))
	})
	return summaries, nil
}

func lastActivity(s messaging.Summary) time.Time {
	if s.LastMessage != nil {
		return s.LastMessage.CreatedAt
	}
	return s.CreatedAt
}

func (repo *messagingRepository) CreateMessage(ctx context.Context, msg messaging.Message) (messaging.Message, error) {
	repo.db.message.Lock()
	defer repo.db.message.Unlock()

	repo.db.message.table[msg.ID] = &msg
	return msg, nil
}

func (repo *messagingRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]messaging.Message, error) {
	msgs := repo.messagesFor(conversationID)
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (repo *messagingRepository) MarkConversationRead(ctx context.Context, conversationID, userID string, at time.Time) error {
	repo.db.conversation.Lock()
	defer repo.db.conversation.Unlock()

	reads, ok := repo.db.conversation.lastRead[conversationID]
	if !ok {
		reads = make(map[string]time.Time)
		repo.db.conversation.lastRead[conversationID] = reads
	}
	reads[userID] = at
	return nil
}

func (repo *messagingRepository) ListContacts(ctx context.Context, tenant string, roles []string) ([]messaging.Contact, error) {
	repo.db.profile.RLock()
	defer repo.db.profile.RUnlock()

	var contacts []messaging.Contact
	for _, prof := range repo.db.profile.table {
		if prof.Tenant != tenant {
			continue
		}
		if len(roles) > 0 {
			found := false
			for _, role := range roles {
				if prof.Role == role {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		contacts = append(contacts, messaging.Contact{
			ID:    prof.ID,
			Name:  prof.Name,
			Email: prof.Email,
			Role:  prof.Role,
		})
	}
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].Name < contacts[j].Name })
	return contacts, nil
}

func (repo *messagingRepository) ResolveAudience(ctx context.Context, tenant, audience string) ([]string, error) {
	var roles []string
	switch audience {
	case messaging.AudienceStudents:
		roles = []string{profile.RoleStudent}
	case messaging.AudienceAgents:
		roles = []string{profile.RoleAgent}
	case messaging.AudienceAll:
		roles = []string{profile.RoleStudent, profile.RoleAgent}
	default:
		return nil, core.NewValidationError(nil, core.FieldError{Field: "audience", Error: "invalid broadcast audience"})
	}

	contacts, err := repo.ListContacts(ctx, tenant, roles)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(contacts))
	for i, c := range contacts {
		ids[i] = c.ID
	}
	sort.Strings(ids)
	return ids, nil
}

package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/messaging"
	"github.com/unigate/unigate/core/profile"
)

type messagingRepository struct {
	db *sqlx.DB
}

var _ messaging.Repository = (*messagingRepository)(nil) // interface compliance check

func NewMessagingRepository(db *sqlx.DB) messaging.Repository {
	return &messagingRepository{db: db}
}

type conversationRow struct {
	ID             string         `db:"id"`
	Tenant         string         `db:"tenant"`
	IsBroadcast    bool           `db:"is_broadcast"`
	Audience       string         `db:"audience"`
	Metadata       null.JSON      `db:"metadata"`
	CreatedAt      time.Time      `db:"created_at"`
	ParticipantIDs pq.StringArray `db:"participant_ids"`
}

func (r conversationRow) toCore() messaging.Conversation {
	return messaging.Conversation{
		ID:             r.ID,
		Tenant:         r.Tenant,
		IsBroadcast:    r.IsBroadcast,
		Audience:       r.Audience,
		ParticipantIDs: r.ParticipantIDs,
		Metadata:       fromJSON(r.Metadata),
		CreatedAt:      r.CreatedAt,
	}
}

type messageRow struct {
	ID             string    `db:"id"`
	ConversationID string    `db:"conversation_id"`
	SenderID       string    `db:"sender_id"`
	Content        string    `db:"content"`
	Metadata       null.JSON `db:"metadata"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r messageRow) toCore() messaging.Message {
	return messaging.Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		SenderID:       r.SenderID,
		Content:        r.Content,
		Metadata:       fromJSON(r.Metadata),
		CreatedAt:      r.CreatedAt,
	}
}

const conversationQuery = `SELECT c.id, c.tenant, c.is_broadcast, c.audience, c.metadata, c.created_at,
	(SELECT array_agg(cp.user_id ORDER BY cp.user_id)
	 FROM conversation_participant cp WHERE cp.conversation_id = c.id) AS participant_ids
	FROM conversation c`

func (repo *messagingRepository) CreateConversation(ctx context.Context, conv messaging.Conversation) (messaging.Conversation, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return messaging.Conversation{}, wrapErr(err, "conversation")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO conversation (id, tenant, is_broadcast, audience, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		conv.ID, conv.Tenant, conv.IsBroadcast, conv.Audience, toJSON(conv.Metadata), conv.CreatedAt)
	if err != nil {
		return messaging.Conversation{}, wrapErr(err, "conversation")
	}
	for _, userID := range conv.ParticipantIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO conversation_participant (conversation_id, user_id) VALUES ($1, $2)`,
			conv.ID, userID)
		if err != nil {
			return messaging.Conversation{}, wrapErr(err, "conversation participant")
		}
	}
	if err = tx.Commit(); err != nil {
		return messaging.Conversation{}, wrapErr(err, "conversation")
	}
	return conv, nil
}

func (repo *messagingRepository) GetConversation(ctx context.Context, id string) (messaging.Conversation, error) {
	var row conversationRow
	err := repo.db.GetContext(ctx, &row, conversationQuery+` WHERE c.id = $1`, id)
	if err != nil {
		return messaging.Conversation{}, wrapErr(err, "conversation")
	}
	return row.toCore(), nil
}

func (repo *messagingRepository) GetDirectConversationByParticipants(ctx context.Context, tenant string, participantIDs []string) (messaging.Conversation, error) {
	var id string
	err := repo.db.GetContext(ctx, &id,
		`SELECT c.id FROM conversation c
		 JOIN conversation_participant cp ON cp.conversation_id = c.id
		 WHERE c.tenant = $1 AND NOT c.is_broadcast
		 GROUP BY c.id
		 HAVING array_agg(cp.user_id::text ORDER BY cp.user_id) = $2
		 LIMIT 1`,
		tenant, pq.Array(participantIDs))
	if err != nil {
		return messaging.Conversation{}, wrapErr(err, "conversation")
	}
	return repo.GetConversation(ctx, id)
}

func (repo *messagingRepository) ListConversations(ctx context.Context, userID string) ([]messaging.Summary, error) {
	type summaryRow struct {
		conversationRow

		UnreadCount int `db:"unread_count"`

		LastMessageID        null.String `db:"last_message_id"`
		LastMessageSenderID  null.String `db:"last_message_sender_id"`
		LastMessageContent   null.String `db:"last_message_content"`
		LastMessageCreatedAt null.Time   `db:"last_message_created_at"`
	}

	var rows []summaryRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT c.id, c.tenant, c.is_broadcast, c.audience, c.metadata, c.created_at,
			(SELECT array_agg(p2.user_id ORDER BY p2.user_id)
			 FROM conversation_participant p2 WHERE p2.conversation_id = c.id) AS participant_ids,
			(SELECT COUNT(*) FROM conversation_message m
			 WHERE m.conversation_id = c.id
			   AND m.sender_id <> cp.user_id
			   AND m.created_at > COALESCE(cp.last_read_at, 'epoch'::timestamptz)) AS unread_count,
			lm.id AS last_message_id,
			lm.sender_id AS last_message_sender_id,
			lm.content AS last_message_content,
			lm.created_at AS last_message_created_at
		 FROM conversation c
		 JOIN conversation_participant cp ON cp.conversation_id = c.id AND cp.user_id = $1
		 LEFT JOIN LATERAL (
			SELECT m.id, m.sender_id, m.content, m.created_at
			FROM conversation_message m
			WHERE m.conversation_id = c.id
			ORDER BY m.created_at DESC LIMIT 1
		 ) lm ON TRUE
		 ORDER BY COALESCE(lm.created_at, c.created_at) DESC`,
		userID)
	if err != nil {
		return nil, wrapErr(err, "conversations")
	}

	summaries := make([]messaging.Summary, len(rows))
	for i, row := range rows {
		summary := messaging.Summary{
			Conversation: row.conversationRow.toCore(),
			UnreadCount:  row.UnreadCount,
		}
		if row.LastMessageID.Valid {
			summary.LastMessage = &messaging.Message{
				ID:             row.LastMessageID.String,
				ConversationID: row.ID,
				SenderID:       row.LastMessageSenderID.String,
				Content:        row.LastMessageContent.String,
				CreatedAt:      row.LastMessageCreatedAt.Time,
			}
		}
		summaries[i] = summary
	}
	return summaries, nil
}

func (repo *messagingRepository) CreateMessage(ctx context.Context, msg messaging.Message) (messaging.Message, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO conversation_message (id, conversation_id, sender_id, content, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Content, toJSON(msg.Metadata), msg.CreatedAt)
	if err != nil {
		return messaging.Message{}, wrapErr(err, "message")
	}
	return msg, nil
}

func (repo *messagingRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]messaging.Message, error) {
	var rows []messageRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, conversation_id, sender_id, content, metadata, created_at
		 FROM conversation_message WHERE conversation_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		conversationID, limit)
	if err != nil {
		return nil, wrapErr(err, "messages")
	}

	// latest page, oldest first
	msgs := make([]messaging.Message, len(rows))
	for i, row := range rows {
		msgs[len(rows)-1-i] = row.toCore()
	}
	return msgs, nil
}

func (repo *messagingRepository) MarkConversationRead(ctx context.Context, conversationID, userID string, at time.Time) error {
	_, err := repo.db.ExecContext(ctx,
		`UPDATE conversation_participant SET last_read_at = $3
		 WHERE conversation_id = $1 AND user_id = $2`,
		conversationID, userID, at)
	return wrapErr(err, "conversation participant")
}

func (repo *messagingRepository) ListContacts(ctx context.Context, tenant string, roles []string) ([]messaging.Contact, error) {
	query := `SELECT id, name, email, role FROM profile WHERE tenant = $1`
	args := []interface{}{tenant}
	if len(roles) > 0 {
		args = append(args, pq.Array(roles))
		query += ` AND role = ANY($2)`
	}
	query += ` ORDER BY name ASC`

	var contacts []messaging.Contact
	rows, err := repo.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(err, "contacts")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var c messaging.Contact
		if err = rows.Scan(&c.ID, &c.Name, &c.Email, &c.Role); err != nil {
			return nil, wrapErr(err, "contacts")
		}
		contacts = append(contacts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(err, "contacts")
	}
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

	var ids []string
	err := repo.db.SelectContext(ctx, &ids,
		`SELECT id FROM profile WHERE tenant = $1 AND role = ANY($2) ORDER BY id`,
		tenant, pq.Array(roles))
	if err != nil {
		return nil, wrapErr(err, "audience")
	}
	return ids, nil
}

package audit

import "time"

// Entry is an append-only record of a mutating operation.
type Entry struct {
	ID         string                 `json:"id"`
	Tenant     string                 `json:"tenant"`
	ActorID    string                 `json:"actor_id,omitempty"`
	Action     string                 `json:"action"`
	ObjectType string                 `json:"object_type,omitempty"`
	ObjectID   string                 `json:"object_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// AnalyticsEvent is an append-only product analytics record.
type AnalyticsEvent struct {
	ID         string                 `json:"id"`
	Tenant     string                 `json:"tenant"`
	UserID     string                 `json:"user_id,omitempty"`
	Name       string                 `json:"name"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

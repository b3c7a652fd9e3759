package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/asset-registry/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered         EventType = "user_registered"
	EventUserCredentialsChanged EventType = "user_credentials_changed"
	EventUserRoleChanged        EventType = "user_role_changed"
	EventUserDeleted            EventType = "user_deleted"
	EventAssetTagIssued         EventType = "asset_tag_issued"
	EventAssetTagReissued       EventType = "asset_tag_reissued"
	EventAssetDeleted           EventType = "asset_deleted"
)

// AllEventTypes lists every event a service may publish.
func AllEventTypes() []EventType {
	return []EventType{
		EventUserRegistered,
		EventUserCredentialsChanged,
		EventUserRoleChanged,
		EventUserDeleted,
		EventAssetTagIssued,
		EventAssetTagReissued,
		EventAssetDeleted,
	}
}

// Actor identifies who caused an event. A zero UserID means an anonymous
// caller, as with self registration.
type Actor struct {
	UserID int64       `json:"user_id,omitempty"`
	Email  string      `json:"email,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID int64       `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with a fresh id.
func New(eventType EventType, subjectID int64, actor Actor, at time.Time, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Actor:     actor,
		Timestamp: at.UTC(),
		Payload:   payload,
	}
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// UserCredentialsChangedPayload payload.
type UserCredentialsChangedPayload struct {
	OldEmail        string `json:"old_email"`
	NewEmail        string `json:"new_email"`
	PasswordChanged bool   `json:"password_changed"`
}

// UserRoleChangedPayload payload.
type UserRoleChangedPayload struct {
	OldRole domain.Role `json:"old_role"`
	NewRole domain.Role `json:"new_role"`
}

// UserDeletedPayload payload.
type UserDeletedPayload struct {
	Email string `json:"email"`
}

// AssetTagIssuedPayload payload.
type AssetTagIssuedPayload struct {
	AssetTag string `json:"asset_tag"`
}

// AssetTagReissuedPayload payload.
type AssetTagReissuedPayload struct {
	OldAssetTag string `json:"old_asset_tag"`
	NewAssetTag string `json:"new_asset_tag"`
}

// AssetDeletedPayload payload.
type AssetDeletedPayload struct {
	AssetTag string `json:"asset_tag"`
}

package audit

import (
	"context"
	"time"

	id "sportclub/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers changes to member identity data and club
	// governance, kept for the club's statutory records.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

type AuditEvent string

const (
	EventMemberRegistered AuditEvent = "member_registered"
	EventProfileUpdated   AuditEvent = "profile_updated"
	EventClubSelfEnrolled AuditEvent = "club_self_enrolled"
	EventClubCreated      AuditEvent = "club_created"
	EventSlateDraftSaved  AuditEvent = "slate_draft_saved"
	EventSlateCommitted   AuditEvent = "slate_committed"
	EventMemberEdited     AuditEvent = "member_edited"
	EventClubUpdated      AuditEvent = "club_updated"
	EventClubDeleted      AuditEvent = "club_deleted"
	EventClubActiveSet    AuditEvent = "club_active_set"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventMemberRegistered: CategoryCompliance,
	EventProfileUpdated:   CategoryCompliance,
	EventClubSelfEnrolled: CategoryCompliance,
	EventSlateCommitted:   CategoryCompliance,
	EventMemberEdited:     CategoryCompliance,
	EventClubDeleted:      CategoryCompliance,

	EventClubCreated:     CategoryOperations,
	EventSlateDraftSaved: CategoryOperations,
	EventClubUpdated:     CategoryOperations,
	EventClubActiveSet:   CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from the services to capture key actions. It is
// transport-agnostic so publishers can fan out.
type Event struct {
	Action    AuditEvent    `json:"action"`
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	// UserID is the member affected.
	UserID id.UserID `json:"user_id"`
	// ActorID is who performed the action when different from UserID,
	// e.g. the administrator committing a slate.
	ActorID   string     `json:"actor_id,omitempty"`
	ClubID    string     `json:"club_id,omitempty"`
	Decision  string     `json:"decision,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
	Client    ClientInfo `json:"client"`
}

// Publisher delivers audit events. Implementations must be safe for concurrent use.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Store keeps audit events for the admin audit view.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

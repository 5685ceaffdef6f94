// internal/domain/models/session.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session statuses. The update endpoint accepts any of these from any prior
// status; there is deliberately no transition check (see DESIGN.md).
const (
	SessionStatusPending   = "pending"
	SessionStatusConfirmed = "confirmed"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
)

// IsValidSessionStatus reports whether s is a known session status.
func IsValidSessionStatus(s string) bool {
	switch s {
	case SessionStatusPending, SessionStatusConfirmed,
		SessionStatusCompleted, SessionStatusCancelled:
		return true
	}
	return false
}

// Session is a scheduled consultation between a client and (optionally) a
// coordinator. The client and coordinator are weak references; nothing
// prevents the referenced users from being deleted later.
type Session struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClientID      primitive.ObjectID  `bson:"client_id" json:"client_id"`
	CoordinatorID *primitive.ObjectID `bson:"coordinator_id,omitempty" json:"coordinator_id,omitempty"`

	Date            time.Time `bson:"date" json:"date"`
	TimeSlot        string    `bson:"time_slot" json:"time_slot"`
	DurationMinutes int       `bson:"duration_minutes" json:"duration_minutes"`

	Status      string `bson:"status" json:"status"` // pending | confirmed | completed | cancelled
	Notes       string `bson:"notes,omitempty" json:"notes,omitempty"`
	MeetingLink string `bson:"meeting_link,omitempty" json:"meeting_link,omitempty"`

	CreatedByID primitive.ObjectID `bson:"created_by_id" json:"created_by_id"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// internal/domain/models/case.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Case statuses, in lifecycle order. Any status may be written by staff;
// there is no enforced transition graph.
const (
	CaseStatusDraft       = "draft"
	CaseStatusSubmitted   = "submitted"
	CaseStatusUnderReview = "under_review"
	CaseStatusProcessing  = "processing"
	CaseStatusApproved    = "approved"
	CaseStatusRejected    = "rejected"
	CaseStatusCompleted   = "completed"
)

// Case priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// IsValidCaseStatus reports whether s is a known case status.
func IsValidCaseStatus(s string) bool {
	switch s {
	case CaseStatusDraft, CaseStatusSubmitted, CaseStatusUnderReview,
		CaseStatusProcessing, CaseStatusApproved, CaseStatusRejected,
		CaseStatusCompleted:
		return true
	}
	return false
}

// IsValidPriority reports whether p is a known priority.
func IsValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Visa types.
const (
	VisaTypeTourist  = "tourist"
	VisaTypeBusiness = "business"
	VisaTypeStudent  = "student"
	VisaTypeWork     = "work"
	VisaTypeFamily   = "family"
	VisaTypeOther    = "other"
)

// IsValidVisaType reports whether v is a supported visa type.
func IsValidVisaType(v string) bool {
	switch v {
	case VisaTypeTourist, VisaTypeBusiness, VisaTypeStudent,
		VisaTypeWork, VisaTypeFamily, VisaTypeOther:
		return true
	}
	return false
}

// ApplicationDetails is the free-form application payload supplied by the
// client. All fields are optional at the schema level; the handlers validate
// ranges where the original API did.
type ApplicationDetails struct {
	DestinationCountry    string     `bson:"destination_country,omitempty" json:"destination_country,omitempty"`
	PurposeOfVisit        string     `bson:"purpose_of_visit,omitempty" json:"purpose_of_visit,omitempty"`
	IntendedDateOfEntry   *time.Time `bson:"intended_date_of_entry,omitempty" json:"intended_date_of_entry,omitempty"`
	IntendedLengthOfStay  int        `bson:"intended_length_of_stay,omitempty" json:"intended_length_of_stay,omitempty"` // days, 1..365
	AdditionalInformation string     `bson:"additional_information,omitempty" json:"additional_information,omitempty"`
}

// CaseNote is one entry in a case's note list.
type CaseNote struct {
	AuthorID  primitive.ObjectID `bson:"author_id" json:"author_id"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Case is a client's visa application record.
//
// A client owns at most one case. This is enforced both by a pre-insert
// existence check (for a friendly conflict message) and a unique index on
// client_id (so concurrent creates cannot both land).
type Case struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID primitive.ObjectID `bson:"client_id" json:"client_id"`

	VisaType           string             `bson:"visa_type" json:"visa_type"`
	ApplicationDetails ApplicationDetails `bson:"application_details" json:"application_details"`

	Priority string `bson:"priority" json:"priority"` // low | medium | high | urgent
	Status   string `bson:"status" json:"status"`

	AssignedCoordinatorID *primitive.ObjectID `bson:"assigned_coordinator_id,omitempty" json:"assigned_coordinator_id,omitempty"`
	AssignedManagerID     *primitive.ObjectID `bson:"assigned_manager_id,omitempty" json:"assigned_manager_id,omitempty"`

	Notes []CaseNote `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// internal/domain/models/automation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Automation trigger types.
const (
	TriggerStatusChange        = "status_change"
	TriggerDeadlineApproaching = "deadline_approaching"
	TriggerDocumentUploaded    = "document_uploaded"
	TriggerCaseCreated         = "case_created"
	TriggerManual              = "manual"
)

// Automation action types.
const (
	ActionAssignCoordinator  = "assign_coordinator"
	ActionAssignManager      = "assign_manager"
	ActionSendEmail          = "send_email"
	ActionUpdateStatus       = "update_status"
	ActionCreateNotification = "create_notification"
	ActionSendReminder       = "send_reminder"
)

// IsValidTriggerType reports whether t is a known trigger type.
func IsValidTriggerType(t string) bool {
	switch t {
	case TriggerStatusChange, TriggerDeadlineApproaching,
		TriggerDocumentUploaded, TriggerCaseCreated, TriggerManual:
		return true
	}
	return false
}

// IsValidActionType reports whether t is a known action type.
// Unknown types are tolerated at execution time (skipped), but rejected
// at creation time.
func IsValidActionType(t string) bool {
	switch t {
	case ActionAssignCoordinator, ActionAssignManager, ActionSendEmail,
		ActionUpdateStatus, ActionCreateNotification, ActionSendReminder:
		return true
	}
	return false
}

// TriggerConditions holds the loosely-typed condition fields for a trigger.
// Which fields matter depends on the trigger type.
type TriggerConditions struct {
	Status             string `bson:"status,omitempty" json:"status,omitempty"`
	DaysBeforeDeadline int    `bson:"days_before_deadline,omitempty" json:"days_before_deadline,omitempty"`
	DocumentType       string `bson:"document_type,omitempty" json:"document_type,omitempty"`
}

// Trigger describes when an automation applies.
type Trigger struct {
	Type       string            `bson:"type" json:"type"`
	Conditions TriggerConditions `bson:"conditions,omitempty" json:"conditions,omitempty"`
}

// ActionConfig holds the per-action configuration. Which fields matter
// depends on the action type.
type ActionConfig struct {
	AssigneeRole        string `bson:"assignee_role,omitempty" json:"assignee_role,omitempty"`
	EmailTemplate       string `bson:"email_template,omitempty" json:"email_template,omitempty"`
	NewStatus           string `bson:"new_status,omitempty" json:"new_status,omitempty"`
	NotificationMessage string `bson:"notification_message,omitempty" json:"notification_message,omitempty"`
	ReminderDays        int    `bson:"reminder_days,omitempty" json:"reminder_days,omitempty"`
}

// Action is one step in an automation's ordered action list.
type Action struct {
	Type   string       `bson:"type" json:"type"`
	Config ActionConfig `bson:"config,omitempty" json:"config,omitempty"`
}

// Automation is a stored trigger + ordered action list executed against a
// case. Execution is sequential with no rollback: if action k fails, actions
// before it have taken effect and actions after it never run.
type Automation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	Trigger Trigger  `bson:"trigger" json:"trigger"`
	Actions []Action `bson:"actions" json:"actions"`

	IsActive    bool               `bson:"is_active" json:"is_active"`
	CreatedByID primitive.ObjectID `bson:"created_by_id" json:"created_by_id"`

	// Execution bookkeeping; only updated when a run completes fully.
	LastExecuted   *time.Time `bson:"last_executed,omitempty" json:"last_executed,omitempty"`
	ExecutionCount int64      `bson:"execution_count" json:"execution_count"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

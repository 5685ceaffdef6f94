// Package automation runs workflow automations against the case
// collection. Both the manual execute endpoint and event hooks (status
// changes, document uploads) funnel through the same Executor.
package automation

import (
	"context"
	"fmt"

	automationstore "github.com/glojourn/casehub/internal/app/store/automations"
	casestore "github.com/glojourn/casehub/internal/app/store/cases"
	userstore "github.com/glojourn/casehub/internal/app/store/users"
	"github.com/glojourn/casehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Executor applies an automation's actions to matching cases.
//
// Actions run sequentially per case with no rollback: when action N fails,
// actions 1..N-1 keep their effects, the run stops, and the automation's
// execution bookkeeping is NOT updated. Unknown action types are skipped
// silently so old automations survive the removal of an action type.
type Executor struct {
	Automations *automationstore.Store
	Cases       *casestore.Store
	Users       *userstore.Store
	Log         *zap.Logger
}

func NewExecutor(db *mongo.Database, logger *zap.Logger) *Executor {
	return &Executor{
		Automations: automationstore.New(db),
		Cases:       casestore.New(db),
		Users:       userstore.New(db),
		Log:         logger,
	}
}

// Result summarizes one execution run.
type Result struct {
	ActionsRun     int `json:"actions_run"`
	ActionsSkipped int `json:"actions_skipped"`
}

// Execute runs a single automation against one target case, regardless of
// the automation's trigger type. Used by the manual execute endpoint.
func (e *Executor) Execute(ctx context.Context, a *models.Automation, c *models.Case) (Result, error) {
	var res Result

	ran, skipped, err := e.runActions(ctx, a, c)
	res.ActionsRun = ran
	res.ActionsSkipped = skipped
	if err != nil {
		return res, err
	}

	if err := e.Automations.RecordExecution(ctx, a.ID); err != nil {
		return res, fmt.Errorf("record execution: %w", err)
	}
	return res, nil
}

// Fire runs every active automation with the given trigger type against a
// single case. Event hooks (status change, document upload) call this; a
// failing automation is logged and does not fail the triggering request.
func (e *Executor) Fire(ctx context.Context, triggerType string, c *models.Case) {
	autos, err := e.Automations.ListActiveByTrigger(ctx, triggerType)
	if err != nil {
		e.Log.Error("load automations for trigger failed",
			zap.String("trigger", triggerType), zap.Error(err))
		return
	}

	for i := range autos {
		a := &autos[i]
		if a.Trigger.Conditions.Status != "" && a.Trigger.Conditions.Status != c.Status {
			continue
		}
		if _, _, err := e.runActions(ctx, a, c); err != nil {
			e.Log.Error("automation run failed",
				zap.String("automation", a.ID.Hex()), zap.Error(err))
			continue
		}
		if err := e.Automations.RecordExecution(ctx, a.ID); err != nil {
			e.Log.Error("record execution failed",
				zap.String("automation", a.ID.Hex()), zap.Error(err))
		}
	}
}

// runActions applies the automation's actions to one case, in order.
func (e *Executor) runActions(ctx context.Context, a *models.Automation, c *models.Case) (ran, skipped int, err error) {
	for _, action := range a.Actions {
		switch action.Type {
		case models.ActionAssignCoordinator:
			if err := e.assignCoordinator(ctx, action.Config, c); err != nil {
				return ran, skipped, err
			}
		case models.ActionAssignManager:
			if err := e.assignManager(ctx, action.Config, c); err != nil {
				return ran, skipped, err
			}
		case models.ActionUpdateStatus:
			if !models.IsValidCaseStatus(action.Config.NewStatus) {
				return ran, skipped, fmt.Errorf("automation %s: invalid status %q", a.ID.Hex(), action.Config.NewStatus)
			}
			if err := e.Cases.SetStatus(ctx, c.ID, action.Config.NewStatus); err != nil {
				return ran, skipped, err
			}
			c.Status = action.Config.NewStatus
		case models.ActionCreateNotification:
			// No push channel yet; the log line is the notification.
			e.Log.Info("automation notification",
				zap.String("case", c.ID.Hex()),
				zap.String("message", action.Config.NotificationMessage))
		case models.ActionSendEmail:
			e.Log.Info("automation email",
				zap.String("case", c.ID.Hex()),
				zap.String("template", action.Config.EmailTemplate))
		case models.ActionSendReminder:
			e.Log.Info("automation reminder",
				zap.String("case", c.ID.Hex()),
				zap.Int("days", action.Config.ReminderDays))
		default:
			skipped++
			continue
		}
		ran++
	}
	return ran, skipped, nil
}

// assignCoordinator assigns the first active user of the configured role
// (default coordinator). A case that already has a coordinator keeps it.
func (e *Executor) assignCoordinator(ctx context.Context, cfg models.ActionConfig, c *models.Case) error {
	if c.AssignedCoordinatorID != nil {
		return nil
	}

	role := cfg.AssigneeRole
	if role == "" {
		role = models.RoleCoordinator
	}

	u, err := e.Users.FirstActiveByRole(ctx, role)
	if err != nil {
		return fmt.Errorf("no active %s available: %w", role, err)
	}

	updated, err := e.Cases.AssignCoordinator(ctx, c.ID, u.ID)
	if err != nil {
		return err
	}
	*c = *updated
	return nil
}

// assignManager assigns the first active manager. A case that already has a
// manager keeps it.
func (e *Executor) assignManager(ctx context.Context, cfg models.ActionConfig, c *models.Case) error {
	if c.AssignedManagerID != nil {
		return nil
	}

	role := cfg.AssigneeRole
	if role == "" {
		role = models.RoleManager
	}

	u, err := e.Users.FirstActiveByRole(ctx, role)
	if err != nil {
		return fmt.Errorf("no active %s available: %w", role, err)
	}

	updated, err := e.Cases.AssignManager(ctx, c.ID, u.ID)
	if err != nil {
		return err
	}
	*c = *updated
	return nil
}

package models

import (
	"errors"
	"fmt"
	"time"
)

// Task type values.
const (
	TaskTypePreventive     = "preventive"
	TaskTypePredictive     = "predictive"
	TaskTypeConditionBased = "condition-based"
)

// Task priority values.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Task status values.
const (
	TaskStatusScheduled = "scheduled"
	TaskStatusOverdue   = "overdue"
	TaskStatusCompleted = "completed"
)

var ErrInvalidTask = errors.New("invalid maintenance task")

// MaintenanceTask represents a recurring maintenance activity on an asset.
type MaintenanceTask struct {
	ID              int        `json:"id" bson:"_id"`
	AssetID         int        `json:"asset_id" bson:"asset_id"`
	Description     string     `json:"description" bson:"description"`
	TaskType        string     `json:"task_type" bson:"task_type"`
	Frequency       string     `json:"frequency" bson:"frequency"`
	HoursInterval   int        `json:"hours_interval,omitempty" bson:"hours_interval,omitempty"` // 0 means calendar-only
	LastCompleted   time.Time  `json:"last_completed" bson:"last_completed"`
	NextDue         time.Time  `json:"next_due" bson:"next_due"`
	Priority        string     `json:"priority" bson:"priority"`
	Status          string     `json:"status" bson:"status"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CompletedBy     string     `json:"completed_by,omitempty" bson:"completed_by,omitempty"`
	CompletionNotes string     `json:"completion_notes,omitempty" bson:"completion_notes,omitempty"`
}

// Validate checks enum fields and the presence of a due date.
func (t *MaintenanceTask) Validate() error {
	switch t.TaskType {
	case TaskTypePreventive, TaskTypePredictive, TaskTypeConditionBased:
	default:
		return fmt.Errorf("%w: unknown task type %q", ErrInvalidTask, t.TaskType)
	}
	switch t.Priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
	default:
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, t.Priority)
	}
	switch t.Status {
	case TaskStatusScheduled, TaskStatusOverdue, TaskStatusCompleted:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTask, t.Status)
	}
	if t.HoursInterval < 0 {
		return fmt.Errorf("%w: hours interval must not be negative", ErrInvalidTask)
	}
	if t.NextDue.IsZero() {
		return fmt.Errorf("%w: next due date is required", ErrInvalidTask)
	}
	return nil
}

// TaskWithAsset is a task joined to its asset and annotated with urgency data.
// It is recomputed on every request and never stored.
type TaskWithAsset struct {
	MaintenanceTask
	Asset          *Asset   `json:"asset,omitempty"`
	HoursRemaining *float64 `json:"hours_remaining,omitempty"`
	DaysRemaining  *int     `json:"days_remaining,omitempty"`
	UrgencyScore   int      `json:"urgency_score"`
}

// Package urgency derives remaining-time estimates and a 0-100 urgency score
// for maintenance tasks, and provides the filtering, sorting and counters the
// task dashboard is built from.
package urgency

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ukydev/asset-maintenance/internal/models"
)

// DefaultHoursPerDay is the assumed equipment utilization used to turn
// calendar days into operating hours. It is an estimate, not a meter reading.
const DefaultHoursPerDay = 8.0

const (
	maxScore = 100
	day      = 24 * time.Hour
)

var ErrMissingDate = errors.New("missing task date")

// DateError reports a task whose dates cannot be scored.
type DateError struct {
	TaskID int
	Field  string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("task %d: %s: %v", e.TaskID, e.Field, ErrMissingDate)
}

func (e *DateError) Unwrap() error {
	return ErrMissingDate
}

// Scorer computes urgency data for maintenance tasks.
type Scorer struct {
	hoursPerDay float64
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithHoursPerDay overrides the assumed operating hours per calendar day.
// Non-positive values are ignored.
func WithHoursPerDay(h float64) Option {
	return func(s *Scorer) {
		if h > 0 {
			s.hoursPerDay = h
		}
	}
}

// NewScorer creates a scorer with the default utilization estimate.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{hoursPerDay: DefaultHoursPerDay}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HoursPerDay returns the utilization estimate in use.
func (s *Scorer) HoursPerDay() float64 {
	return s.hoursPerDay
}

// Score joins every task to its asset and annotates it relative to ref.
// Tasks whose asset does not exist are returned with a nil Asset. The first
// task that cannot be scored fails the whole call.
func (s *Scorer) Score(assets []models.Asset, tasks []models.MaintenanceTask, ref time.Time) ([]models.TaskWithAsset, error) {
	index := indexAssets(assets)
	out := make([]models.TaskWithAsset, 0, len(tasks))
	for _, task := range tasks {
		scored, err := s.scoreTask(task, index[task.AssetID], ref)
		if err != nil {
			return nil, err
		}
		out = append(out, scored)
	}
	return out, nil
}

// ScoreAvailable is Score for read paths that must not fail on one bad
// record: unscorable tasks are left out and reported as skipped.
func (s *Scorer) ScoreAvailable(assets []models.Asset, tasks []models.MaintenanceTask, ref time.Time) ([]models.TaskWithAsset, []*DateError) {
	index := indexAssets(assets)
	out := make([]models.TaskWithAsset, 0, len(tasks))
	var skipped []*DateError
	for _, task := range tasks {
		scored, err := s.scoreTask(task, index[task.AssetID], ref)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		out = append(out, scored)
	}
	return out, skipped
}

func indexAssets(assets []models.Asset) map[int]*models.Asset {
	index := make(map[int]*models.Asset, len(assets))
	for i := range assets {
		index[assets[i].ID] = &assets[i]
	}
	return index
}

func (s *Scorer) scoreTask(task models.MaintenanceTask, asset *models.Asset, ref time.Time) (models.TaskWithAsset, *DateError) {
	result := models.TaskWithAsset{MaintenanceTask: task, Asset: asset}
	if task.Status == models.TaskStatusCompleted {
		return result, nil
	}
	if task.NextDue.IsZero() {
		return result, &DateError{TaskID: task.ID, Field: "next_due"}
	}

	result.HoursRemaining = s.hoursRemaining(task, asset, ref)
	days := daysRemaining(task.NextDue, ref)
	result.DaysRemaining = &days
	result.UrgencyScore = score(task, days, result.HoursRemaining)
	return result, nil
}

// hoursRemaining estimates the operating hours left before an hours-based
// task recurs. The asset's cumulative meter does not enter the estimate; only
// the days elapsed since the last completion do.
func (s *Scorer) hoursRemaining(task models.MaintenanceTask, asset *models.Asset, ref time.Time) *float64 {
	if task.HoursInterval <= 0 || asset == nil || task.LastCompleted.IsZero() {
		return nil
	}
	daysSince := math.Floor(float64(ref.Sub(task.LastCompleted)) / float64(day))
	sinceCompleted := daysSince * s.hoursPerDay
	interval := float64(task.HoursInterval)
	remaining := interval - math.Mod(sinceCompleted, interval)
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

func daysRemaining(due, ref time.Time) int {
	return int(math.Ceil(float64(due.Sub(ref)) / float64(day)))
}

func score(task models.MaintenanceTask, days int, hours *float64) int {
	if task.Status == models.TaskStatusOverdue {
		return maxScore
	}
	urgency := timeUrgency(days)
	if hours != nil {
		urgency = math.Max(urgency, hoursUrgency(*hours))
	}
	weighted := urgency * priorityWeight(task.Priority)
	return int(math.Round(math.Min(maxScore, math.Max(0, weighted))))
}

func timeUrgency(days int) float64 {
	switch {
	case days <= 0:
		return 100
	case days <= 3:
		return 90
	case days <= 7:
		return 70
	case days <= 14:
		return 50
	case days <= 30:
		return 30
	default:
		return 10
	}
}

func hoursUrgency(hours float64) float64 {
	switch {
	case hours <= 0:
		return 100
	case hours <= 25:
		return 90
	case hours <= 50:
		return 70
	case hours <= 100:
		return 50
	case hours <= 200:
		return 30
	default:
		return 10
	}
}

func priorityWeight(priority string) float64 {
	switch priority {
	case models.PriorityHigh:
		return 1.2
	case models.PriorityLow:
		return 0.8
	default:
		return 1.0
	}
}

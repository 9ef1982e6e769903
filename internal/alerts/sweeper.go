// Package alerts publishes critical and overdue maintenance tasks to a
// message broker on a fixed interval.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/asset-maintenance/internal/db"
	"github.com/ukydev/asset-maintenance/internal/models"
	"github.com/ukydev/asset-maintenance/internal/urgency"
	"go.mongodb.org/mongo-driver/bson"
)

// DefaultInterval is the sweep period used when none is configured.
const DefaultInterval = 15 * time.Minute

// Alert kinds, also used as topic suffixes.
const (
	KindCritical = "critical"
	KindOverdue  = "overdue"
)

// Publisher delivers a payload to a topic
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Alert is the message body published for one task
type Alert struct {
	Kind           string    `json:"kind"`
	TaskID         int       `json:"task_id"`
	AssetID        int       `json:"asset_id"`
	AssetName      string    `json:"asset_name,omitempty"`
	Description    string    `json:"description"`
	Priority       string    `json:"priority"`
	Status         string    `json:"status"`
	UrgencyScore   int       `json:"urgency_score"`
	DaysRemaining  *int      `json:"days_remaining,omitempty"`
	HoursRemaining *float64  `json:"hours_remaining,omitempty"`
	NextDue        time.Time `json:"next_due"`
	SentAt         time.Time `json:"sent_at"`
}

// SweepResult counts the alerts published by one sweep
type SweepResult struct {
	Critical int
	Overdue  int
	Failed   int
	Skipped  int
}

// Sweeper periodically scores every task and publishes alerts
type Sweeper struct {
	assets    db.AssetCollection
	tasks     db.TaskCollection
	scorer    *urgency.Scorer
	publisher Publisher
	prefix    string
	threshold int
	now       func() time.Time
}

// NewSweeper creates a sweeper that publishes under topic prefix and treats
// scores at or above threshold as critical
func NewSweeper(assets db.AssetCollection, tasks db.TaskCollection, scorer *urgency.Scorer, publisher Publisher, prefix string, threshold int) *Sweeper {
	return &Sweeper{
		assets:    assets,
		tasks:     tasks,
		scorer:    scorer,
		publisher: publisher,
		prefix:    prefix,
		threshold: threshold,
		now:       time.Now,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
// A non-positive interval falls back to DefaultInterval.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		log.WithField("interval", interval).Warn("Invalid alert interval, using default")
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sweep(ctx); err != nil {
			log.WithError(err).Error("Alert sweep failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep loads and scores all tasks and publishes one alert per critical or
// overdue task. Publish failures are counted, not returned.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	assets, err := s.assets.FindAssets(ctx, bson.M{})
	if err != nil {
		return result, fmt.Errorf("failed to load assets: %w", err)
	}
	tasks, err := s.tasks.FindTasks(ctx, bson.M{"status": bson.M{"$ne": models.TaskStatusCompleted}})
	if err != nil {
		return result, fmt.Errorf("failed to load tasks: %w", err)
	}
	scored, skipped := s.scorer.ScoreAvailable(assets, tasks, s.now())
	for _, e := range skipped {
		log.WithFields(log.Fields{"task_id": e.TaskID, "field": e.Field}).Warn("Task left out of alert sweep")
	}
	result.Skipped = len(skipped)

	now := s.now().UTC()
	for _, t := range urgency.Critical(scored, s.threshold) {
		if s.publish(ctx, KindCritical, t, now) {
			result.Critical++
		} else {
			result.Failed++
		}
	}
	for _, t := range overdue(scored) {
		if s.publish(ctx, KindOverdue, t, now) {
			result.Overdue++
		} else {
			result.Failed++
		}
	}

	log.WithFields(log.Fields{
		"critical": result.Critical,
		"overdue":  result.Overdue,
		"failed":   result.Failed,
		"skipped":  result.Skipped,
	}).Debug("Alert sweep finished")
	return result, nil
}

func (s *Sweeper) publish(ctx context.Context, kind string, t models.TaskWithAsset, now time.Time) bool {
	alert := Alert{
		Kind:           kind,
		TaskID:         t.ID,
		AssetID:        t.AssetID,
		Description:    t.Description,
		Priority:       t.Priority,
		Status:         t.Status,
		UrgencyScore:   t.UrgencyScore,
		DaysRemaining:  t.DaysRemaining,
		HoursRemaining: t.HoursRemaining,
		NextDue:        t.NextDue,
		SentAt:         now,
	}
	if t.Asset != nil {
		alert.AssetName = t.Asset.Name
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		log.WithError(err).WithField("task_id", t.ID).Error("Failed to marshal alert")
		return false
	}
	topic := s.prefix + "/" + kind
	if err := s.publisher.Publish(ctx, topic, payload); err != nil {
		log.WithError(err).WithFields(log.Fields{"task_id": t.ID, "topic": topic}).Warn("Failed to publish alert")
		return false
	}
	return true
}

// overdue returns open tasks flagged overdue or already past their due date
func overdue(tasks []models.TaskWithAsset) []models.TaskWithAsset {
	out := make([]models.TaskWithAsset, 0)
	for _, t := range tasks {
		if t.Status == models.TaskStatusCompleted {
			continue
		}
		if t.Status == models.TaskStatusOverdue || (t.DaysRemaining != nil && *t.DaysRemaining < 0) {
			out = append(out, t)
		}
	}
	return out
}

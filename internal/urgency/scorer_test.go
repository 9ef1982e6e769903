package urgency

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/asset-maintenance/internal/models"
)

var ref = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

func testAssets() []models.Asset {
	return []models.Asset{
		{ID: 1, Name: "Compressor A", OperatingHours: 1200},
		{ID: 2, Name: "Generator B", OperatingHours: 98000},
	}
}

func task(id int, priority, status string, due time.Time) models.MaintenanceTask {
	return models.MaintenanceTask{
		ID:       id,
		AssetID:  1,
		TaskType: models.TaskTypePreventive,
		Priority: priority,
		Status:   status,
		NextDue:  due,
	}
}

func scoreOne(t *testing.T, s *Scorer, mt models.MaintenanceTask) models.TaskWithAsset {
	t.Helper()
	out, err := s.Score(testAssets(), []models.MaintenanceTask{mt}, ref)
	require.NoError(t, err)
	require.Len(t, out, 1)
	return out[0]
}

func TestScore_DueInTwoDays(t *testing.T) {
	got := scoreOne(t, NewScorer(), task(1, models.PriorityMedium, models.TaskStatusScheduled, ref.AddDate(0, 0, 2)))

	require.NotNil(t, got.DaysRemaining)
	assert.Equal(t, 2, *got.DaysRemaining)
	assert.Nil(t, got.HoursRemaining)
	assert.Equal(t, 90, got.UrgencyScore)
	require.NotNil(t, got.Asset)
	assert.Equal(t, "Compressor A", got.Asset.Name)
}

func TestScore_OverdueOverride(t *testing.T) {
	for _, p := range []string{models.PriorityHigh, models.PriorityMedium, models.PriorityLow} {
		mt := task(1, p, models.TaskStatusOverdue, ref.AddDate(0, 0, 60))
		mt.HoursInterval = 500
		mt.LastCompleted = ref.AddDate(0, 0, -1)
		got := scoreOne(t, NewScorer(), mt)
		assert.Equal(t, 100, got.UrgencyScore, "priority %s", p)
	}
}

func TestScore_CompletedIsNeutral(t *testing.T) {
	mt := task(1, models.PriorityHigh, models.TaskStatusCompleted, ref.AddDate(0, 0, -10))
	mt.HoursInterval = 100
	mt.LastCompleted = ref.AddDate(0, 0, -3)
	got := scoreOne(t, NewScorer(), mt)

	assert.Equal(t, 0, got.UrgencyScore)
	assert.Nil(t, got.HoursRemaining)
	assert.Nil(t, got.DaysRemaining)
}

func TestScore_CompletedWithoutDueDate(t *testing.T) {
	got := scoreOne(t, NewScorer(), task(1, models.PriorityLow, models.TaskStatusCompleted, time.Time{}))
	assert.Equal(t, 0, got.UrgencyScore)
}

func TestScore_PriorityMonotonic(t *testing.T) {
	due := ref.AddDate(0, 0, 10) // time step 50
	high := scoreOne(t, NewScorer(), task(1, models.PriorityHigh, models.TaskStatusScheduled, due))
	medium := scoreOne(t, NewScorer(), task(1, models.PriorityMedium, models.TaskStatusScheduled, due))
	low := scoreOne(t, NewScorer(), task(1, models.PriorityLow, models.TaskStatusScheduled, due))

	assert.Equal(t, 60, high.UrgencyScore)
	assert.Equal(t, 50, medium.UrgencyScore)
	assert.Equal(t, 40, low.UrgencyScore)
}

func TestScore_ClampedAtHundred(t *testing.T) {
	got := scoreOne(t, NewScorer(), task(1, models.PriorityHigh, models.TaskStatusScheduled, ref.AddDate(0, 0, -1)))
	assert.Equal(t, 100, got.UrgencyScore)
}

func TestScore_Bounds(t *testing.T) {
	var tasks []models.MaintenanceTask
	id := 0
	for _, p := range []string{models.PriorityHigh, models.PriorityMedium, models.PriorityLow, "unknown"} {
		for _, st := range []string{models.TaskStatusScheduled, models.TaskStatusOverdue, models.TaskStatusCompleted} {
			for _, offset := range []int{-40, -1, 0, 1, 3, 5, 12, 25, 90} {
				id++
				mt := task(id, p, st, ref.AddDate(0, 0, offset))
				mt.HoursInterval = 250
				mt.LastCompleted = ref.AddDate(0, 0, offset-30)
				tasks = append(tasks, mt)
			}
		}
	}

	out, err := NewScorer().Score(testAssets(), tasks, ref)
	require.NoError(t, err)
	for _, got := range out {
		assert.GreaterOrEqual(t, got.UrgencyScore, 0)
		assert.LessOrEqual(t, got.UrgencyScore, 100)
	}
}

func TestScore_DaysRemainingRounding(t *testing.T) {
	tests := []struct {
		name string
		due  time.Time
		want int
	}{
		{"later today", ref.Add(6 * time.Hour), 1},
		{"a day and a half", ref.Add(36 * time.Hour), 2},
		{"exactly now", ref, 0},
		{"a day and a half ago", ref.Add(-36 * time.Hour), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreOne(t, NewScorer(), task(1, models.PriorityMedium, models.TaskStatusScheduled, tt.due))
			require.NotNil(t, got.DaysRemaining)
			assert.Equal(t, tt.want, *got.DaysRemaining)
		})
	}
}

func TestScore_HoursRemaining(t *testing.T) {
	tests := []struct {
		name        string
		opts        []Option
		interval    int
		sinceDays   float64
		wantHours   float64
		wantUrgency int
	}{
		{"five days at eight hours", nil, 100, 5, 60, 50},
		{"partial day is floored", nil, 100, 5.5, 60, 50},
		{"wraps past one interval", nil, 100, 15, 80, 50},
		{"ten hours per day", []Option{WithHoursPerDay(10)}, 100, 5, 50, 70},
		{"nearly due", nil, 100, 9, 28, 70},
		{"just completed", nil, 20, 0, 20, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt := task(1, models.PriorityMedium, models.TaskStatusScheduled, ref.AddDate(0, 0, 40))
			mt.HoursInterval = tt.interval
			mt.LastCompleted = ref.Add(-time.Duration(tt.sinceDays * float64(24*time.Hour)))

			got := scoreOne(t, NewScorer(tt.opts...), mt)
			require.NotNil(t, got.HoursRemaining)
			assert.InDelta(t, tt.wantHours, *got.HoursRemaining, 1e-9)
			assert.Equal(t, tt.wantUrgency, got.UrgencyScore)
		})
	}
}

// The asset's cumulative meter reading does not change the estimate.
func TestScore_HoursIgnoreMeterReading(t *testing.T) {
	a := task(1, models.PriorityMedium, models.TaskStatusScheduled, ref.AddDate(0, 0, 40))
	a.HoursInterval = 100
	a.LastCompleted = ref.AddDate(0, 0, -5)
	b := a
	b.ID = 2
	b.AssetID = 2

	out, err := NewScorer().Score(testAssets(), []models.MaintenanceTask{a, b}, ref)
	require.NoError(t, err)
	require.NotNil(t, out[0].HoursRemaining)
	require.NotNil(t, out[1].HoursRemaining)
	assert.Equal(t, *out[0].HoursRemaining, *out[1].HoursRemaining)
}

func TestScore_HoursNeedAssetAndCompletion(t *testing.T) {
	orphan := task(1, models.PriorityMedium, models.TaskStatusScheduled, ref.AddDate(0, 0, 2))
	orphan.AssetID = 404
	orphan.HoursInterval = 100
	orphan.LastCompleted = ref.AddDate(0, 0, -1)

	neverDone := task(2, models.PriorityMedium, models.TaskStatusScheduled, ref.AddDate(0, 0, 2))
	neverDone.HoursInterval = 100

	out, err := NewScorer().Score(testAssets(), []models.MaintenanceTask{orphan, neverDone}, ref)
	require.NoError(t, err)

	assert.Nil(t, out[0].Asset)
	assert.Nil(t, out[0].HoursRemaining)
	assert.Equal(t, 90, out[0].UrgencyScore)
	assert.Nil(t, out[1].HoursRemaining)
}

func TestScore_MissingDueDate(t *testing.T) {
	mt := task(42, models.PriorityMedium, models.TaskStatusScheduled, time.Time{})
	_, err := NewScorer().Score(testAssets(), []models.MaintenanceTask{mt}, ref)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingDate))
	var dateErr *DateError
	require.True(t, errors.As(err, &dateErr))
	assert.Equal(t, 42, dateErr.TaskID)
	assert.Equal(t, "next_due", dateErr.Field)
}

func TestScoreAvailable_SkipsMissingDueDate(t *testing.T) {
	tasks := []models.MaintenanceTask{
		task(1, models.PriorityHigh, models.TaskStatusScheduled, ref.Add(48*time.Hour)),
		task(42, models.PriorityMedium, models.TaskStatusScheduled, time.Time{}),
		task(3, models.PriorityLow, models.TaskStatusCompleted, time.Time{}),
	}

	out, skipped := NewScorer().ScoreAvailable(testAssets(), tasks, ref)

	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].ID)
	assert.Equal(t, 3, out[1].ID)
	assert.Positive(t, out[0].UrgencyScore)
	require.Len(t, skipped, 1)
	assert.Equal(t, 42, skipped[0].TaskID)
	assert.ErrorIs(t, skipped[0], ErrMissingDate)
}

func TestWithHoursPerDay_IgnoresNonPositive(t *testing.T) {
	assert.Equal(t, DefaultHoursPerDay, NewScorer(WithHoursPerDay(0)).HoursPerDay())
	assert.Equal(t, DefaultHoursPerDay, NewScorer(WithHoursPerDay(-3)).HoursPerDay())
	assert.Equal(t, 16.0, NewScorer(WithHoursPerDay(16)).HoursPerDay())
}

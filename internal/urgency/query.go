package urgency

import (
	"fmt"
	"sort"

	"github.com/ukydev/asset-maintenance/internal/models"
)

// All disables a filter criterion.
const All = "all"

// CriticalThreshold is the score at which a task counts as critical.
const CriticalThreshold = 90

// SortKey selects the ordering applied by Sort.
type SortKey string

const (
	SortByUrgency SortKey = "urgency"
	SortByHours   SortKey = "hours"
	SortByDate    SortKey = "date"
)

// ParseSortKey converts a query value into a SortKey. Empty means urgency.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case "", SortByUrgency:
		return SortByUrgency, nil
	case SortByHours:
		return SortByHours, nil
	case SortByDate:
		return SortByDate, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", s)
	}
}

// Criteria are exact-match filters. Empty or "all" matches everything.
type Criteria struct {
	Status   string
	Priority string
}

// Filter returns the tasks matching c, preserving order.
func Filter(tasks []models.TaskWithAsset, c Criteria) []models.TaskWithAsset {
	out := make([]models.TaskWithAsset, 0, len(tasks))
	for _, t := range tasks {
		if !matches(c.Status, t.Status) || !matches(c.Priority, t.Priority) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matches(want, got string) bool {
	return want == "" || want == All || want == got
}

// Sort orders tasks in place. Equal elements keep their relative order.
func Sort(tasks []models.TaskWithAsset, key SortKey) {
	switch key {
	case SortByHours:
		sort.SliceStable(tasks, func(i, j int) bool {
			a, b := tasks[i].HoursRemaining, tasks[j].HoursRemaining
			if a == nil || b == nil {
				return a != nil && b == nil
			}
			return *a < *b
		})
	case SortByDate:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].NextDue.Before(tasks[j].NextDue)
		})
	default:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].UrgencyScore > tasks[j].UrgencyScore
		})
	}
}

// Stats are the dashboard counters.
type Stats struct {
	Overdue     int `json:"overdue"`
	Critical    int `json:"critical"`
	DueThisWeek int `json:"due_this_week"`
	Scheduled   int `json:"scheduled"`
	Completed   int `json:"completed"`
}

// ComputeStats aggregates scored tasks. Completed tasks only feed Completed.
func ComputeStats(tasks []models.TaskWithAsset) Stats {
	var st Stats
	for _, t := range tasks {
		if t.Status == models.TaskStatusCompleted {
			st.Completed++
			continue
		}
		if t.Status == models.TaskStatusOverdue {
			st.Overdue++
		}
		if t.Status == models.TaskStatusScheduled {
			st.Scheduled++
		}
		if t.UrgencyScore >= CriticalThreshold {
			st.Critical++
		}
		if t.DaysRemaining != nil && *t.DaysRemaining > 0 && *t.DaysRemaining <= 7 {
			st.DueThisWeek++
		}
	}
	return st
}

// Critical returns the open tasks scoring at or above threshold, most urgent first.
func Critical(tasks []models.TaskWithAsset, threshold int) []models.TaskWithAsset {
	out := make([]models.TaskWithAsset, 0)
	for _, t := range tasks {
		if t.Status != models.TaskStatusCompleted && t.UrgencyScore >= threshold {
			out = append(out, t)
		}
	}
	Sort(out, SortByUrgency)
	return out
}

package models

import "time"

// Settings holds per-user preferences that the dashboard reads and writes.
type Settings struct {
	UserID         string    `json:"user_id" bson:"_id"`
	DemoMode       bool      `json:"demo_mode" bson:"demo_mode"`
	NotifyCritical bool      `json:"notify_critical" bson:"notify_critical"`
	NotifyOverdue  bool      `json:"notify_overdue" bson:"notify_overdue"`
	DefaultSort    string    `json:"default_sort" bson:"default_sort"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// DefaultSettings returns the preferences used before a user saves any.
func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:         userID,
		NotifyCritical: true,
		NotifyOverdue:  true,
		DefaultSort:    "urgency",
	}
}

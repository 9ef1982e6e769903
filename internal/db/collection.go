package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/asset-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

// ErrNotFound is returned when a lookup by ID matches no document.
var ErrNotFound = errors.New("not found")

// AssetCollection defines the interface for asset data operations.
type AssetCollection interface {
	FindAssets(ctx context.Context, filter bson.M) ([]models.Asset, error)
	InsertAssets(ctx context.Context, assets []models.Asset) error
	ExistingSerials(ctx context.Context, serials []string) (map[string]bool, error)
	ExistingIDs(ctx context.Context, ids []int) (map[int]bool, error)
	MaxAssetID(ctx context.Context) (int, error)
}

// TaskCollection defines the interface for maintenance task operations.
type TaskCollection interface {
	FindTasks(ctx context.Context, filter bson.M) ([]models.MaintenanceTask, error)
	CompleteTask(ctx context.Context, id int, completedBy, notes string, at time.Time) error
}

// SettingsCollection stores per-user preferences.
type SettingsCollection interface {
	GetSettings(ctx context.Context, userID string) (*models.Settings, error)
	SaveSettings(ctx context.Context, settings models.Settings) error
}

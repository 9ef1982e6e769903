package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/ukydev/asset-maintenance/internal/config"
	"github.com/ukydev/asset-maintenance/internal/middleware"
	"github.com/ukydev/asset-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour}
}

func withClaims(req *http.Request, claims *models.Claims) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.UserContextKey, claims))
}

// MockAssetCollection is a mock implementation of AssetCollection
type MockAssetCollection struct {
	mock.Mock
}

func (m *MockAssetCollection) FindAssets(ctx context.Context, filter bson.M) ([]models.Asset, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Asset), args.Error(1)
}

func (m *MockAssetCollection) InsertAssets(ctx context.Context, assets []models.Asset) error {
	args := m.Called(ctx, assets)
	return args.Error(0)
}

func (m *MockAssetCollection) ExistingSerials(ctx context.Context, serials []string) (map[string]bool, error) {
	args := m.Called(ctx, serials)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockAssetCollection) ExistingIDs(ctx context.Context, ids []int) (map[int]bool, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]bool), args.Error(1)
}

func (m *MockAssetCollection) MaxAssetID(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockTaskCollection is a mock implementation of TaskCollection
type MockTaskCollection struct {
	mock.Mock
}

func (m *MockTaskCollection) FindTasks(ctx context.Context, filter bson.M) ([]models.MaintenanceTask, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MaintenanceTask), args.Error(1)
}

func (m *MockTaskCollection) CompleteTask(ctx context.Context, id int, completedBy, notes string, at time.Time) error {
	args := m.Called(ctx, id, completedBy, notes, at)
	return args.Error(0)
}

// MockSettingsCollection is a mock implementation of SettingsCollection
type MockSettingsCollection struct {
	mock.Mock
}

func (m *MockSettingsCollection) GetSettings(ctx context.Context, userID string) (*models.Settings, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Settings), args.Error(1)
}

func (m *MockSettingsCollection) SaveSettings(ctx context.Context, settings models.Settings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/asset-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	AssetsCollectionName   = "assets"
	TasksCollectionName    = "tasks"
	UsersCollectionName    = "users"
	SettingsCollectionName = "settings"
)

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoAssetCollection implements AssetCollection for MongoDB.
type MongoAssetCollection struct {
	Collection *mongo.Collection
}

// FindAssets returns the assets matching filter.
func (c *MongoAssetCollection) FindAssets(ctx context.Context, filter bson.M) ([]models.Asset, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	assets := []models.Asset{}
	if err := cursor.All(ctx, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// InsertAssets inserts assets in one batch, stamping creation times.
func (c *MongoAssetCollection) InsertAssets(ctx context.Context, assets []models.Asset) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	if len(assets) == 0 {
		return nil
	}
	now := time.Now()
	docs := make([]interface{}, len(assets))
	for i := range assets {
		assets[i].CreatedAt = now
		assets[i].UpdatedAt = now
		docs[i] = assets[i]
	}
	_, err := c.Collection.InsertMany(ctx, docs)
	return err
}

// ExistingSerials returns the subset of serials already stored.
func (c *MongoAssetCollection) ExistingSerials(ctx context.Context, serials []string) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(serials) == 0 {
		return found, nil
	}
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	opts := options.Find().SetProjection(bson.M{"serial_number": 1})
	cursor, err := c.Collection.Find(ctx, bson.M{"serial_number": bson.M{"$in": serials}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		SerialNumber string `bson:"serial_number"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, d := range docs {
		found[d.SerialNumber] = true
	}
	return found, nil
}

// ExistingIDs returns the subset of ids already stored.
func (c *MongoAssetCollection) ExistingIDs(ctx context.Context, ids []int) (map[int]bool, error) {
	found := make(map[int]bool)
	if len(ids) == 0 {
		return found, nil
	}
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := c.Collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID int `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, d := range docs {
		found[d.ID] = true
	}
	return found, nil
}

// MaxAssetID returns the highest stored asset ID, or 0 when there are none.
func (c *MongoAssetCollection) MaxAssetID(ctx context.Context) (int, error) {
	if c.Collection == nil {
		return 0, fmt.Errorf("mongo collection is nil")
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}}).SetProjection(bson.M{"_id": 1})
	var doc struct {
		ID int `bson:"_id"`
	}
	err := c.Collection.FindOne(ctx, bson.M{}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return doc.ID, nil
}

// MongoTaskCollection implements TaskCollection for MongoDB.
type MongoTaskCollection struct {
	Collection *mongo.Collection
}

// FindTasks returns the maintenance tasks matching filter.
func (c *MongoTaskCollection) FindTasks(ctx context.Context, filter bson.M) ([]models.MaintenanceTask, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tasks := []models.MaintenanceTask{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CompleteTask marks a task completed.
func (c *MongoTaskCollection) CompleteTask(ctx context.Context, id int, completedBy, notes string, at time.Time) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":           models.TaskStatusCompleted,
		"completed_at":     at,
		"completed_by":     completedBy,
		"completion_notes": notes,
		"last_completed":   at,
	}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return nil
}

// MongoSettingsCollection implements SettingsCollection for MongoDB.
type MongoSettingsCollection struct {
	Collection *mongo.Collection
}

// GetSettings loads the preferences saved by a user.
func (c *MongoSettingsCollection) GetSettings(ctx context.Context, userID string) (*models.Settings, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	var s models.Settings
	err := c.Collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("settings for %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSettings replaces a user's preferences, creating them if needed.
func (c *MongoSettingsCollection) SaveSettings(ctx context.Context, settings models.Settings) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	settings.UpdatedAt = time.Now()
	_, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": settings.UserID}, settings, options.Replace().SetUpsert(true))
	return err
}

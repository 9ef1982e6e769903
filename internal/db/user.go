package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/asset-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicate is returned when a unique username or email is already taken.
var ErrDuplicate = errors.New("already exists")

// UserCollection stores API accounts.
type UserCollection interface {
	InsertUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	SetPassword(ctx context.Context, id, hash string) error
	SetRole(ctx context.Context, username string, role models.Role) error
	RecordLogin(ctx context.Context, id string, at time.Time) error
}

// MongoUserCollection implements UserCollection for MongoDB.
type MongoUserCollection struct {
	Collection *mongo.Collection
}

// EnsureIndexes makes username and email unique so concurrent signups
// cannot create the same account twice.
func (c *MongoUserCollection) EnsureIndexes(ctx context.Context) error {
	_, err := c.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return err
}

// InsertUser stores a new active account and sets its generated ID.
func (c *MongoUserCollection) InsertUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.ID = primitive.NewObjectID()
	user.IsActive = true
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := c.Collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("user %s: %w", user.Username, ErrDuplicate)
	}
	return err
}

func (c *MongoUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}
	return c.findOne(ctx, bson.M{"_id": objectID})
}

func (c *MongoUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return c.findOne(ctx, bson.M{"username": username})
}

func (c *MongoUserCollection) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := c.Collection.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetPassword replaces the stored password hash.
func (c *MongoUserCollection) SetPassword(ctx context.Context, id, hash string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid user ID: %w", err)
	}
	return c.set(ctx, bson.M{"_id": objectID}, bson.M{"password_hash": hash})
}

// SetRole moves an account to role. Tokens already issued keep their old
// role until they expire.
func (c *MongoUserCollection) SetRole(ctx context.Context, username string, role models.Role) error {
	return c.set(ctx, bson.M{"username": username}, bson.M{"role": role})
}

// RecordLogin stamps the last successful sign-in.
func (c *MongoUserCollection) RecordLogin(ctx context.Context, id string, at time.Time) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid user ID: %w", err)
	}
	return c.set(ctx, bson.M{"_id": objectID}, bson.M{"last_login": at})
}

func (c *MongoUserCollection) set(ctx context.Context, filter, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	result, err := c.Collection.UpdateOne(ctx, filter, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user: %w", ErrNotFound)
	}
	return nil
}

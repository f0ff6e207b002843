package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dcfoodblog/backend/internal/catalog"
)

const (
	restaurantsCollection = "restaurants"
	postsCollection       = "posts"
	usersCollection       = "users"
	activitiesCollection  = "activities"
)

// MongoStorage implements CatalogStorage on top of a MongoDB database
type MongoStorage struct {
	client *mongo.Client
	db     *mongo.Database
	logger *logrus.Entry
}

// NewMongoStorage connects to uri and verifies the connection with a ping
func NewMongoStorage(ctx context.Context, uri, database string, logger *logrus.Entry) (*MongoStorage, error) {
	clientOptions := options.Client().ApplyURI(uri).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return &MongoStorage{
		client: client,
		db:     client.Database(database),
		logger: logger.WithField("component", "mongo_storage"),
	}, nil
}

func (s *MongoStorage) Restaurants(ctx context.Context) ([]catalog.Restaurant, error) {
	out := make([]catalog.Restaurant, 0)
	err := s.each(ctx, restaurantsCollection, func(cursor *mongo.Cursor) error {
		var doc restaurantDocument
		if err := cursor.Decode(&doc); err != nil {
			return err
		}
		out = append(out, mapRestaurantDocument(doc))
		return nil
	})
	return out, err
}

// Reviews returns every post. A post whose rating cannot be decoded is skipped and logged.
func (s *MongoStorage) Reviews(ctx context.Context) ([]catalog.Review, error) {
	out := make([]catalog.Review, 0)
	err := s.each(ctx, postsCollection, func(cursor *mongo.Cursor) error {
		var doc postDocument
		if err := cursor.Decode(&doc); err != nil {
			return err
		}
		review, err := mapPostDocument(doc)
		if err != nil {
			s.logger.WithError(err).Warn("Skipping post with unreadable rating")
			return nil
		}
		out = append(out, review)
		return nil
	})
	return out, err
}

func (s *MongoStorage) Profiles(ctx context.Context) ([]catalog.UserProfile, error) {
	out := make([]catalog.UserProfile, 0)
	err := s.each(ctx, usersCollection, func(cursor *mongo.Cursor) error {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return err
		}
		out = append(out, mapUserDocument(doc))
		return nil
	})
	return out, err
}

// Profile returns the user keyed by uid or ErrNotFound
func (s *MongoStorage) Profile(ctx context.Context, uid string) (*catalog.UserProfile, error) {
	var doc userDocument
	err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"_id": uid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("profile %q: %w", uid, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %q: %w", uid, err)
	}
	profile := mapUserDocument(doc)
	return &profile, nil
}

func (s *MongoStorage) Activities(ctx context.Context) ([]catalog.Activity, error) {
	out := make([]catalog.Activity, 0)
	err := s.each(ctx, activitiesCollection, func(cursor *mongo.Cursor) error {
		var doc activityRecord
		if err := cursor.Decode(&doc); err != nil {
			return err
		}
		out = append(out, mapActivityRecord(doc))
		return nil
	})
	return out, err
}

func (s *MongoStorage) RecordActivity(ctx context.Context, activity catalog.Activity) error {
	if _, err := s.db.Collection(activitiesCollection).InsertOne(ctx, newActivityDocument(activity)); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

func (s *MongoStorage) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *MongoStorage) each(ctx context.Context, collection string, decode func(*mongo.Cursor) error) error {
	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		if err := decode(cursor); err != nil {
			return fmt.Errorf("failed to decode %s document: %w", collection, err)
		}
	}
	return cursor.Err()
}

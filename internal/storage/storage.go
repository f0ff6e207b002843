package storage

import (
	"context"
	"errors"

	"github.com/dcfoodblog/backend/internal/catalog"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// CatalogStorage defines the interface for reading the catalog and recording activity
type CatalogStorage interface {
	Restaurants(ctx context.Context) ([]catalog.Restaurant, error)
	Reviews(ctx context.Context) ([]catalog.Review, error)
	Profile(ctx context.Context, uid string) (*catalog.UserProfile, error)
	Profiles(ctx context.Context) ([]catalog.UserProfile, error)
	Activities(ctx context.Context) ([]catalog.Activity, error)
	RecordActivity(ctx context.Context, activity catalog.Activity) error
	Close() error
}

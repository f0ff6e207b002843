package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcfoodblog/backend/internal/catalog"
	"github.com/dcfoodblog/backend/internal/storage"
)

const restaurantsJSON = `[
  {"id": "r1", "name": "Kyoto Garden", "cuisineTypes": ["Japanese"], "location": {"city": "Washington", "state": "DC"}, "averageRating": 91},
  {"id": "r2", "name": "Taqueria", "cuisineTypes": ["Mexican"], "location": {"city": "Arlington", "state": "VA"}}
]`

const reviewsJSON = `[
  {"id": "p1", "restaurantId": "r1", "title": "Omakase", "content": "<p>Superb</p>", "rating": 95},
  {"id": "p2", "restaurantId": "r2", "title": "Tacos", "content": "Soon", "rating": "TBD"}
]`

const profilesJSON = `[
  {"uid": "u1", "email": "ana@example.com", "favoriteCuisines": ["Japanese"], "preferredLocations": ["Washington"], "bookmarks": ["p1"]}
]`

func writeSnapshot(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestFileStorage(t *testing.T) {
	tmpDir := t.TempDir()
	writeSnapshot(t, tmpDir, "restaurants.json", restaurantsJSON)
	writeSnapshot(t, tmpDir, "reviews.json", reviewsJSON)
	writeSnapshot(t, tmpDir, "profiles.json", profilesJSON)

	fs, err := storage.NewFileStorage(tmpDir)
	require.NoError(t, err)
	defer fs.Close()
	ctx := context.Background()

	restaurants, err := fs.Restaurants(ctx)
	require.NoError(t, err)
	require.Len(t, restaurants, 2)
	assert.Equal(t, "Kyoto Garden", restaurants[0].Name)
	require.NotNil(t, restaurants[0].AverageRating)
	assert.Equal(t, 91.0, *restaurants[0].AverageRating)
	assert.Nil(t, restaurants[1].AverageRating)

	reviews, err := fs.Reviews(ctx)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	v, ok := reviews[0].Rating.Value()
	assert.True(t, ok)
	assert.Equal(t, 95.0, v)
	assert.True(t, reviews[1].Rating.IsUndetermined())

	profile, err := fs.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Japanese"}, profile.FavoriteCuisines)
}

func TestFileStorageMissingSnapshotsAreEmpty(t *testing.T) {
	fs, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	restaurants, err := fs.Restaurants(ctx)
	assert.NoError(t, err)
	assert.Empty(t, restaurants)

	activities, err := fs.Activities(ctx)
	assert.NoError(t, err)
	assert.Empty(t, activities)
}

func TestFileStorageProfileNotFound(t *testing.T) {
	tmpDir := t.TempDir()
	writeSnapshot(t, tmpDir, "profiles.json", profilesJSON)
	fs, _ := storage.NewFileStorage(tmpDir)

	_, err := fs.Profile(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileStorageCorruptSnapshot(t *testing.T) {
	tmpDir := t.TempDir()
	writeSnapshot(t, tmpDir, "reviews.json", `[{"id": "p1", "rating": true}]`)
	fs, _ := storage.NewFileStorage(tmpDir)

	_, err := fs.Reviews(context.Background())
	assert.Error(t, err)
}

func TestFileStorageRecordActivity(t *testing.T) {
	fs, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	ts := time.Date(2026, 4, 1, 18, 30, 0, 0, time.UTC)

	require.NoError(t, fs.RecordActivity(ctx, catalog.Activity{ID: "a1", Type: catalog.ActivityView, UserID: "u1", TargetID: "r1", Timestamp: ts}))
	require.NoError(t, fs.RecordActivity(ctx, catalog.Activity{ID: "a2", Type: catalog.ActivityVisit, UserID: "u1", TargetID: "r1", Timestamp: ts}))

	activities, err := fs.Activities(ctx)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, catalog.ActivityView, activities[0].Type)
	assert.Equal(t, catalog.ActivityVisit, activities[1].Type)
	assert.True(t, ts.Equal(activities[1].Timestamp))
}

func TestFileStorageHonoursCancelledContext(t *testing.T) {
	fs, _ := storage.NewFileStorage(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fs.Restaurants(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, fs.RecordActivity(ctx, catalog.Activity{}), context.Canceled)
}

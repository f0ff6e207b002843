package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"

	"github.com/dcfoodblog/backend/internal/catalog"
)

const (
	restaurantsFile = "restaurants.json"
	reviewsFile     = "reviews.json"
	profilesFile    = "profiles.json"
	activitiesFile  = "activities.json"
)

// FileStorage implements CatalogStorage over a directory of JSON snapshots.
// A missing snapshot file reads as an empty collection.
type FileStorage struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFileStorage creates a new file-based storage
func NewFileStorage(baseDir string) (*FileStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStorage{
		baseDir: baseDir,
	}, nil
}

func (s *FileStorage) Restaurants(ctx context.Context) ([]catalog.Restaurant, error) {
	var out []catalog.Restaurant
	return out, s.read(ctx, restaurantsFile, &out)
}

func (s *FileStorage) Reviews(ctx context.Context) ([]catalog.Review, error) {
	var out []catalog.Review
	return out, s.read(ctx, reviewsFile, &out)
}

func (s *FileStorage) Profiles(ctx context.Context) ([]catalog.UserProfile, error) {
	var out []catalog.UserProfile
	return out, s.read(ctx, profilesFile, &out)
}

// Profile returns the profile with the given uid or ErrNotFound
func (s *FileStorage) Profile(ctx context.Context, uid string) (*catalog.UserProfile, error) {
	profiles, err := s.Profiles(ctx)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if profiles[i].UID == uid {
			return &profiles[i], nil
		}
	}
	return nil, fmt.Errorf("profile %q: %w", uid, ErrNotFound)
}

func (s *FileStorage) Activities(ctx context.Context) ([]catalog.Activity, error) {
	var out []catalog.Activity
	return out, s.read(ctx, activitiesFile, &out)
}

// RecordActivity appends an activity to the activities snapshot
func (s *FileStorage) RecordActivity(ctx context.Context, activity catalog.Activity) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var activities []catalog.Activity
	if err := s.readLocked(activitiesFile, &activities); err != nil {
		return err
	}
	activities = append(activities, activity)

	data, err := json.MarshalIndent(activities, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal activities: %w", err)
	}

	// Write through a temp file so readers never see a partial snapshot
	path := filepath.Join(s.baseDir, activitiesFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", activitiesFile, err)
	}
	return nil
}

// Close is a no-op for file storage
func (s *FileStorage) Close() error {
	return nil
}

func (s *FileStorage) read(ctx context.Context, name string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readLocked(name, v)
}

func (s *FileStorage) readLocked(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.baseDir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}
	return nil
}

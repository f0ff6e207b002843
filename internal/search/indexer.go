package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dcfoodblog/backend/internal/catalog"
)

// ErrInvalidItem is returned for items with an unknown kind or no payload
var ErrInvalidItem = errors.New("invalid search item")

// Index builds the searchable document for one item
func Index(item Item) (Document, error) {
	switch item.Kind {
	case KindRestaurant:
		if item.Restaurant == nil {
			return Document{}, fmt.Errorf("%w: restaurant item without restaurant", ErrInvalidItem)
		}
		return indexRestaurant(item.Restaurant)
	case KindReview:
		if item.Review == nil {
			return Document{}, fmt.Errorf("%w: review item without review", ErrInvalidItem)
		}
		return indexReview(item.Review)
	default:
		return Document{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidItem, item.Kind)
	}
}

// IndexError ties a rejected item to its position in the batch
type IndexError struct {
	Position int
	Kind     Kind
	Err      error
}

func (e IndexError) Error() string {
	return fmt.Sprintf("item %d (%s): %v", e.Position, e.Kind, e.Err)
}

func (e IndexError) Unwrap() error {
	return e.Err
}

// IndexAll indexes a batch. Rejected items are reported, not dropped silently;
// the caller decides whether to skip them or abort.
func IndexAll(items []Item) ([]Document, []IndexError) {
	docs := make([]Document, 0, len(items))
	var rejected []IndexError
	for i, item := range items {
		doc, err := Index(item)
		if err != nil {
			rejected = append(rejected, IndexError{Position: i, Kind: item.Kind, Err: err})
			continue
		}
		docs = append(docs, doc)
	}
	return docs, rejected
}

func indexRestaurant(r *catalog.Restaurant) (Document, error) {
	if err := catalog.ValidateRestaurant(r); err != nil {
		return Document{}, err
	}

	loc := r.Location
	if r.Location.Coordinates != nil {
		c := *r.Location.Coordinates
		loc.Coordinates = &c
	}

	return Document{
		ID:   r.ID,
		Type: KindRestaurant,
		Text: joinText(
			r.Name,
			strings.Join(r.CuisineTypes, " "),
			r.Location.City,
			r.Location.State,
			strings.Join(r.Features, " "),
		),
		Metadata: Metadata{
			Name:     r.Name,
			Cuisine:  append([]string(nil), r.CuisineTypes...),
			Location: &loc,
			Rating:   copyFloat(r.AverageRating),
		},
	}, nil
}

func indexReview(r *catalog.Review) (Document, error) {
	if err := catalog.ValidateReview(r); err != nil {
		return Document{}, err
	}

	var rating *float64
	if v, ok := r.Rating.Value(); ok {
		rating = &v
	}

	return Document{
		ID:   r.ID,
		Type: KindReview,
		Text: joinText(
			r.Title,
			PlainText(r.Content),
			strings.Join(r.CuisineTags, " "),
			strings.Join(r.LocationTags, " "),
		),
		Metadata: Metadata{
			Title:        r.Title,
			Rating:       rating,
			AuthorID:     r.AuthorID,
			RestaurantID: r.RestaurantID,
		},
	}, nil
}

// joinText lowercases the non-empty fields and joins them with single spaces
func joinText(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

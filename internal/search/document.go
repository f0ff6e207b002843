package search

import (
	"strings"
	"unicode"

	"github.com/dcfoodblog/backend/internal/catalog"
)

// Kind discriminates the record a document was built from
type Kind string

const (
	KindRestaurant Kind = "restaurant"
	KindReview     Kind = "review"
)

// Item is a record tagged with its kind at ingestion.
// Build it with RestaurantItem or ReviewItem.
type Item struct {
	Kind       Kind
	Restaurant *catalog.Restaurant
	Review     *catalog.Review
}

func RestaurantItem(r catalog.Restaurant) Item {
	return Item{Kind: KindRestaurant, Restaurant: &r}
}

func ReviewItem(r catalog.Review) Item {
	return Item{Kind: KindReview, Review: &r}
}

// Metadata carries the fields filters and result views need
type Metadata struct {
	Name         string            `json:"name,omitempty"`
	Title        string            `json:"title,omitempty"`
	Cuisine      []string          `json:"cuisine,omitempty"`
	Location     *catalog.Location `json:"location,omitempty"`
	Rating       *float64          `json:"rating,omitempty"`
	AuthorID     string            `json:"authorId,omitempty"`
	RestaurantID string            `json:"restaurantId,omitempty"`
}

// Document is the searchable projection of one record, built per request
type Document struct {
	ID       string   `json:"id"`
	Type     Kind     `json:"type"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Tokenize splits text into normalized tokens (lowercase words)
func Tokenize(text string) []string {
	f := func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsNumber(c)
	}
	fields := strings.FieldsFunc(text, f)
	var tokens []string
	for _, field := range fields {
		if len(field) > 2 { // Skip very short words
			tokens = append(tokens, strings.ToLower(field))
		}
	}
	return tokens
}

package catalog

import (
	"time"
)

// Coordinates is an optional geographic position of a restaurant
type Coordinates struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// Location describes where a restaurant is
type Location struct {
	Address     string       `json:"address"`
	City        string       `json:"city"`
	State       string       `json:"state"`
	Zip         string       `json:"zip"`
	Coordinates *Coordinates `json:"coordinates,omitempty" validate:"omitempty"`
}

// SocialLinks holds a restaurant's public profiles
type SocialLinks struct {
	Website    string `json:"website,omitempty"`
	GoogleMaps string `json:"googleMaps,omitempty"`
	Yelp       string `json:"yelp,omitempty"`
	Facebook   string `json:"facebook,omitempty"`
	Instagram  string `json:"instagram,omitempty"`
	TikTok     string `json:"tiktok,omitempty"`
	Twitter    string `json:"twitter,omitempty"`
}

// Restaurant is a catalog entry owned by the document store
type Restaurant struct {
	ID            string      `json:"id" validate:"required"`
	Name          string      `json:"name" validate:"required"`
	Domain        string      `json:"domain,omitempty"`
	CuisineTypes  []string    `json:"cuisineTypes"`
	Location      Location    `json:"location"`
	SocialLinks   SocialLinks `json:"socialLinks"`
	Features      []string    `json:"features,omitempty"`
	AverageRating *float64    `json:"averageRating,omitempty"`
}

// Review is a user-authored post about a restaurant
type Review struct {
	ID            string    `json:"id" validate:"required"`
	RestaurantID  string    `json:"restaurantId" validate:"required"`
	Title         string    `json:"title" validate:"required"`
	Content       string    `json:"content" validate:"required"`
	Rating        Rating    `json:"rating"`
	CuisineTags   []string  `json:"cuisineTags"`
	LocationTags  []string  `json:"locationTags"`
	Images        []string  `json:"images,omitempty"`
	VideoURL      string    `json:"videoUrl,omitempty"`
	AuthorID      string    `json:"authorId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	IsAIGenerated bool      `json:"isAIGenerated"`
}

// UserList is a named, user-curated collection of reviews
type UserList struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	PostIDs []string `json:"posts"`
}

// UserProfile holds the preference signals used by recommendations
type UserProfile struct {
	UID                string             `json:"uid"`
	Email              string             `json:"email"`
	Name               string             `json:"name"`
	Bio                string             `json:"bio,omitempty"`
	FavoriteCuisines   []string           `json:"favoriteCuisines"`
	PreferredLocations []string           `json:"preferredLocations"`
	Bookmarks          []string           `json:"bookmarks"`
	Lists              []UserList         `json:"lists,omitempty"`
	Ratings            map[string]float64 `json:"ratings,omitempty"`
}

// ActivityType enumerates tracked user interactions
type ActivityType string

const (
	ActivityView     ActivityType = "view"
	ActivityLike     ActivityType = "like"
	ActivityComment  ActivityType = "comment"
	ActivityBookmark ActivityType = "bookmark"
	ActivityShare    ActivityType = "share"
	ActivityVisit    ActivityType = "visit"
)

// Activity is a single tracked interaction with a post, restaurant or menu
type Activity struct {
	ID         string            `json:"id"`
	Type       ActivityType      `json:"type"`
	UserID     string            `json:"userId"`
	TargetID   string            `json:"targetId"`
	TargetType string            `json:"targetType,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ReviewsOf returns the reviews that target restaurantID, preserving order
func ReviewsOf(reviews []Review, restaurantID string) []Review {
	var out []Review
	for _, r := range reviews {
		if r.RestaurantID == restaurantID {
			out = append(out, r)
		}
	}
	return out
}

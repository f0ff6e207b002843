package storage

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/dcfoodblog/backend/internal/catalog"
)

// restaurantDocument is a restaurant as stored in the restaurants collection
type restaurantDocument struct {
	ID            bson.RawValue       `bson:"_id"`
	Name          string              `bson:"name"`
	Domain        string              `bson:"domain,omitempty"`
	CuisineTypes  []string            `bson:"cuisineTypes,omitempty"`
	Location      locationDocument    `bson:"location"`
	SocialLinks   socialLinksDocument `bson:"socialLinks,omitempty"`
	Features      []string            `bson:"features,omitempty"`
	AverageRating *float64            `bson:"averageRating,omitempty"`
}

type locationDocument struct {
	Address     string               `bson:"address,omitempty"`
	City        string               `bson:"city,omitempty"`
	State       string               `bson:"state,omitempty"`
	Zip         string               `bson:"zip,omitempty"`
	Coordinates *coordinatesDocument `bson:"coordinates,omitempty"`
}

type coordinatesDocument struct {
	Lat float64 `bson:"lat"`
	Lng float64 `bson:"lng"`
}

type socialLinksDocument struct {
	Website    string `bson:"website,omitempty"`
	GoogleMaps string `bson:"googleMaps,omitempty"`
	Yelp       string `bson:"yelp,omitempty"`
	Facebook   string `bson:"facebook,omitempty"`
	Instagram  string `bson:"instagram,omitempty"`
	TikTok     string `bson:"tiktok,omitempty"`
	Twitter    string `bson:"twitter,omitempty"`
}

// postDocument is a review as stored in the posts collection.
// rating holds either a number or the string "TBD".
type postDocument struct {
	ID            bson.RawValue `bson:"_id"`
	RestaurantID  string        `bson:"restaurantId"`
	Title         string        `bson:"title"`
	Content       string        `bson:"content"`
	Rating        bson.RawValue `bson:"rating"`
	CuisineTags   []string      `bson:"cuisineTags,omitempty"`
	LocationTags  []string      `bson:"locationTags,omitempty"`
	Images        []string      `bson:"images,omitempty"`
	VideoURL      string        `bson:"videoUrl,omitempty"`
	AuthorID      string        `bson:"authorId,omitempty"`
	CreatedAt     time.Time     `bson:"createdAt"`
	UpdatedAt     time.Time     `bson:"updatedAt"`
	IsAIGenerated bool          `bson:"isAIGenerated,omitempty"`
}

type userListDocument struct {
	ID    string   `bson:"id"`
	Name  string   `bson:"name"`
	Posts []string `bson:"posts,omitempty"`
}

// userDocument is a profile as stored in the users collection, keyed by uid
type userDocument struct {
	ID                 bson.RawValue      `bson:"_id"`
	Email              string             `bson:"email,omitempty"`
	Name               string             `bson:"name,omitempty"`
	Bio                string             `bson:"bio,omitempty"`
	FavoriteCuisines   []string           `bson:"favoriteCuisines,omitempty"`
	PreferredLocations []string           `bson:"preferredLocations,omitempty"`
	Bookmarks          []string           `bson:"bookmarks,omitempty"`
	Lists              []userListDocument `bson:"lists,omitempty"`
	Ratings            map[string]float64 `bson:"ratings,omitempty"`
}

// activityDocument is the stored shape of an activity; the store assigns _id on insert
type activityDocument struct {
	Type       string            `bson:"type"`
	UserID     string            `bson:"userId"`
	TargetID   string            `bson:"targetId"`
	TargetType string            `bson:"targetType,omitempty"`
	Timestamp  time.Time         `bson:"timestamp"`
	Metadata   map[string]string `bson:"metadata,omitempty"`
}

type activityRecord struct {
	ID         bson.RawValue     `bson:"_id"`
	Type       string            `bson:"type"`
	UserID     string            `bson:"userId"`
	TargetID   string            `bson:"targetId"`
	TargetType string            `bson:"targetType,omitempty"`
	Timestamp  time.Time         `bson:"timestamp"`
	Metadata   map[string]string `bson:"metadata,omitempty"`
}

func mapRestaurantDocument(doc restaurantDocument) catalog.Restaurant {
	r := catalog.Restaurant{
		ID:           idString(doc.ID),
		Name:         doc.Name,
		Domain:       doc.Domain,
		CuisineTypes: append([]string{}, doc.CuisineTypes...),
		Location: catalog.Location{
			Address: doc.Location.Address,
			City:    doc.Location.City,
			State:   doc.Location.State,
			Zip:     doc.Location.Zip,
		},
		SocialLinks: catalog.SocialLinks(doc.SocialLinks),
	}
	if doc.Location.Coordinates != nil {
		r.Location.Coordinates = &catalog.Coordinates{
			Lat: doc.Location.Coordinates.Lat,
			Lng: doc.Location.Coordinates.Lng,
		}
	}
	if len(doc.Features) > 0 {
		r.Features = append([]string{}, doc.Features...)
	}
	if doc.AverageRating != nil {
		avg := *doc.AverageRating
		r.AverageRating = &avg
	}
	return r
}

func mapPostDocument(doc postDocument) (catalog.Review, error) {
	id := idString(doc.ID)
	rating, err := ratingFromBSON(doc.Rating)
	if err != nil {
		return catalog.Review{}, fmt.Errorf("post %q: %w", id, err)
	}
	return catalog.Review{
		ID:            id,
		RestaurantID:  doc.RestaurantID,
		Title:         doc.Title,
		Content:       doc.Content,
		Rating:        rating,
		CuisineTags:   append([]string{}, doc.CuisineTags...),
		LocationTags:  append([]string{}, doc.LocationTags...),
		Images:        append([]string{}, doc.Images...),
		VideoURL:      doc.VideoURL,
		AuthorID:      doc.AuthorID,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
		IsAIGenerated: doc.IsAIGenerated,
	}, nil
}

func mapUserDocument(doc userDocument) catalog.UserProfile {
	p := catalog.UserProfile{
		UID:                idString(doc.ID),
		Email:              doc.Email,
		Name:               doc.Name,
		Bio:                doc.Bio,
		FavoriteCuisines:   append([]string{}, doc.FavoriteCuisines...),
		PreferredLocations: append([]string{}, doc.PreferredLocations...),
		Bookmarks:          append([]string{}, doc.Bookmarks...),
	}
	for _, l := range doc.Lists {
		p.Lists = append(p.Lists, catalog.UserList{ID: l.ID, Name: l.Name, PostIDs: append([]string{}, l.Posts...)})
	}
	if len(doc.Ratings) > 0 {
		p.Ratings = make(map[string]float64, len(doc.Ratings))
		for k, v := range doc.Ratings {
			p.Ratings[k] = v
		}
	}
	return p
}

func mapActivityRecord(doc activityRecord) catalog.Activity {
	return catalog.Activity{
		ID:         idString(doc.ID),
		Type:       catalog.ActivityType(doc.Type),
		UserID:     doc.UserID,
		TargetID:   doc.TargetID,
		TargetType: doc.TargetType,
		Timestamp:  doc.Timestamp,
		Metadata:   doc.Metadata,
	}
}

func newActivityDocument(a catalog.Activity) activityDocument {
	return activityDocument{
		Type:       string(a.Type),
		UserID:     a.UserID,
		TargetID:   a.TargetID,
		TargetType: a.TargetType,
		Timestamp:  a.Timestamp,
		Metadata:   a.Metadata,
	}
}

// ratingFromBSON decodes a stored rating: numbers are ratings, "TBD" or a missing value is undetermined
func ratingFromBSON(raw bson.RawValue) (catalog.Rating, error) {
	switch raw.Type {
	case 0, bsontype.Null, bsontype.Undefined:
		return catalog.Undetermined(), nil
	case bsontype.Double:
		return catalog.NumericRating(raw.Double()), nil
	case bsontype.Int32:
		return catalog.NumericRating(float64(raw.Int32())), nil
	case bsontype.Int64:
		return catalog.NumericRating(float64(raw.Int64())), nil
	case bsontype.String:
		return catalog.ParseRating(raw.StringValue())
	default:
		return catalog.Rating{}, fmt.Errorf("unsupported rating type %s", raw.Type)
	}
}

// idString renders string and ObjectID identifiers alike
func idString(raw bson.RawValue) string {
	if s, ok := raw.StringValueOK(); ok {
		return s
	}
	if oid, ok := raw.ObjectIDOK(); ok {
		return oid.Hex()
	}
	return ""
}

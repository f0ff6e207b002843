package search_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcfoodblog/backend/internal/catalog"
	"github.com/dcfoodblog/backend/internal/search"
)

func float(v float64) *float64 { return &v }

func kyoto() catalog.Restaurant {
	return catalog.Restaurant{
		ID:            "r1",
		Name:          "Kyoto Sushi House",
		CuisineTypes:  []string{"Japanese", "Sushi"},
		Location:      catalog.Location{City: "DC", State: "District of Columbia"},
		Features:      []string{"Takeout", "Full Bar"},
		AverageRating: float(91),
	}
}

func TestTokenize(t *testing.T) {
	text := "Hello, World! This is a test."
	tokens := search.Tokenize(text)

	expected := []string{"hello", "world", "this", "test"}
	assert.Equal(t, expected, tokens)
}

func TestIndexRestaurant(t *testing.T) {
	doc, err := search.Index(search.RestaurantItem(kyoto()))
	require.NoError(t, err)

	assert.Equal(t, "r1", doc.ID)
	assert.Equal(t, search.KindRestaurant, doc.Type)
	assert.Equal(t, "kyoto sushi house japanese sushi dc district of columbia takeout full bar", doc.Text)
	assert.Equal(t, "Kyoto Sushi House", doc.Metadata.Name)
	assert.Equal(t, []string{"Japanese", "Sushi"}, doc.Metadata.Cuisine)
	require.NotNil(t, doc.Metadata.Location)
	assert.Equal(t, "DC", doc.Metadata.Location.City)
	assert.Equal(t, 91.0, *doc.Metadata.Rating)
	assert.Empty(t, doc.Metadata.Title)
}

func TestIndexRestaurantWithoutFeatures(t *testing.T) {
	r := kyoto()
	r.Features = nil
	r.AverageRating = nil

	doc, err := search.Index(search.RestaurantItem(r))
	require.NoError(t, err)
	assert.Equal(t, "kyoto sushi house japanese sushi dc district of columbia", doc.Text)
	assert.Nil(t, doc.Metadata.Rating)
}

func TestIndexIsDeterministic(t *testing.T) {
	first, err := search.Index(search.RestaurantItem(kyoto()))
	require.NoError(t, err)
	second, err := search.Index(search.RestaurantItem(kyoto()))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestIndexReview(t *testing.T) {
	review := catalog.Review{
		ID:           "p1",
		RestaurantID: "r1",
		Title:        "Best Omakase",
		Content:      "<p>The <b>toro</b> was unreal.</p><script>track()</script>",
		Rating:       catalog.NumericRating(95),
		CuisineTags:  []string{"Japanese"},
		LocationTags: []string{"Dupont Circle"},
		AuthorID:     "u1",
	}

	doc, err := search.Index(search.ReviewItem(review))
	require.NoError(t, err)

	assert.Equal(t, search.KindReview, doc.Type)
	assert.Equal(t, "best omakase the toro was unreal. japanese dupont circle", doc.Text)
	assert.Equal(t, "Best Omakase", doc.Metadata.Title)
	assert.Equal(t, "u1", doc.Metadata.AuthorID)
	assert.Equal(t, "r1", doc.Metadata.RestaurantID)
	assert.Equal(t, 95.0, *doc.Metadata.Rating)
	assert.Nil(t, doc.Metadata.Cuisine)
}

func TestIndexReviewUndeterminedRating(t *testing.T) {
	review := catalog.Review{ID: "p2", RestaurantID: "r1", Title: "Soon", Content: "Visiting next week"}

	doc, err := search.Index(search.ReviewItem(review))
	require.NoError(t, err)
	assert.Nil(t, doc.Metadata.Rating)
}

func TestIndexRejectsMalformedInput(t *testing.T) {
	_, err := search.Index(search.RestaurantItem(catalog.Restaurant{ID: "r9"}))
	assert.ErrorIs(t, err, catalog.ErrInvalidRecord)

	_, err = search.Index(search.ReviewItem(catalog.Review{ID: "p9"}))
	assert.ErrorIs(t, err, catalog.ErrInvalidRecord)

	_, err = search.Index(search.Item{Kind: search.KindRestaurant})
	assert.ErrorIs(t, err, search.ErrInvalidItem)

	_, err = search.Index(search.Item{Kind: "menu"})
	assert.ErrorIs(t, err, search.ErrInvalidItem)
}

func TestIndexAll(t *testing.T) {
	items := []search.Item{
		search.RestaurantItem(kyoto()),
		search.RestaurantItem(catalog.Restaurant{ID: "broken"}),
		search.ReviewItem(catalog.Review{ID: "p1", RestaurantID: "r1", Title: "t", Content: "c"}),
	}

	docs, rejected := search.IndexAll(items)
	require.Len(t, docs, 2)
	require.Len(t, rejected, 1)
	assert.Equal(t, 1, rejected[0].Position)
	assert.True(t, errors.Is(rejected[0], catalog.ErrInvalidRecord))
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain", "  just   text ", "just text"},
		{"Paragraphs", "<p>one</p><p>two</p>", "one two"},
		{"Entities", "fish &amp; chips", "fish & chips"},
		{"Style dropped", "<style>p{color:red}</style>menu", "menu"},
		{"Line break", "a<br/>b", "a b"},
		{"Inline markup", "<p>Best <b>su</b>shi</p>", "Best sushi"},
		{"Inline accent", "Caf<em>é</em>", "Café"},
		{"Headings", "<h2>Menu</h2>Ramen", "Menu Ramen"},
		{"List items", "<ul><li>gyoza</li><li>ramen</li></ul>", "gyoza ramen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, search.PlainText(tt.input))
		})
	}
}

func corpus() []search.Document {
	return []search.Document{
		{ID: "a", Type: search.KindRestaurant, Text: "kyoto sushi house dc", Metadata: search.Metadata{
			Cuisine: []string{"Japanese"}, Location: &catalog.Location{City: "DC"}, Rating: float(90)}},
		{ID: "b", Type: search.KindRestaurant, Text: "kyoto house", Metadata: search.Metadata{
			Cuisine: []string{"Japanese"}, Location: &catalog.Location{City: "Arlington"}, Rating: float(70)}},
		{ID: "c", Type: search.KindReview, Text: "sushi night in dc", Metadata: search.Metadata{Rating: float(88)}},
		{ID: "d", Type: search.KindRestaurant, Text: "trattoria roma dc", Metadata: search.Metadata{
			Cuisine: []string{"Italian"}, Location: &catalog.Location{City: "DC"}}},
		{ID: "e", Type: search.KindReview, Text: "pending sushi review", Metadata: search.Metadata{}},
	}
}

func ids(docs []search.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestSearchEmptyQueryReturnsAllInOrder(t *testing.T) {
	docs := corpus()
	assert.Equal(t, ids(docs), ids(search.Search(docs, "", search.Filters{})))
	assert.Equal(t, ids(docs), ids(search.Search(docs, "   \t ", search.Filters{})))
}

func TestSearchRequiresEveryTerm(t *testing.T) {
	got := search.Search(corpus(), "Sushi DC", search.Filters{})
	assert.Equal(t, []string{"a", "c"}, ids(got))

	single := []search.Document{{ID: "x", Text: "kyoto house"}}
	assert.Empty(t, search.Search(single, "sushi dc", search.Filters{}))
}

func TestSearchMatchesSubstrings(t *testing.T) {
	got := search.Search(corpus(), "ouse", search.Filters{})
	assert.Equal(t, []string{"a", "b"}, ids(got))
}

func TestSearchResultsContainAllTerms(t *testing.T) {
	queries := []string{"dc", "kyoto", "sushi dc", "roma trattoria", "review"}
	for _, q := range queries {
		for _, doc := range search.Search(corpus(), q, search.Filters{}) {
			for _, term := range search.Terms(q) {
				assert.True(t, strings.Contains(doc.Text, term), "%q missing %q", doc.ID, term)
			}
		}
	}
}

func TestSearchTypeFilter(t *testing.T) {
	got := search.Search(corpus(), "", search.Filters{Type: search.KindReview})
	assert.Equal(t, []string{"c", "e"}, ids(got))
}

func TestSearchCuisineFilterPassesReviewsThrough(t *testing.T) {
	got := search.Search(corpus(), "", search.Filters{Cuisine: []string{"Italian", "Thai"}})
	assert.Equal(t, []string{"c", "d", "e"}, ids(got))
}

func TestSearchLocationFilterPassesReviewsThrough(t *testing.T) {
	got := search.Search(corpus(), "", search.Filters{Location: []string{"Arlington"}})
	assert.Equal(t, []string{"b", "c", "e"}, ids(got))
}

func TestSearchMatchesAcrossInlineMarkup(t *testing.T) {
	doc, err := search.Index(search.ReviewItem(catalog.Review{
		ID: "p5", RestaurantID: "r1", Title: "Lunch",
		Content: "<p>Great <strong>Su</strong>shi at Caf<em>é</em> Kyoto</p>",
	}))
	require.NoError(t, err)

	docs := []search.Document{doc}
	assert.Equal(t, []string{"p5"}, ids(search.Search(docs, "sushi", search.Filters{})))
	assert.Equal(t, []string{"p5"}, ids(search.Search(docs, "café", search.Filters{})))
}

// A set MinRating, zero included, excludes unrated documents; nil leaves them in.
func TestSearchMinRatingDropsUnrated(t *testing.T) {
	got := search.Search(corpus(), "", search.Filters{MinRating: float(85)})
	assert.Equal(t, []string{"a", "c"}, ids(got))

	got = search.Search(corpus(), "", search.Filters{MinRating: float(0)})
	assert.Equal(t, []string{"a", "b", "c"}, ids(got))
}

func TestSearchFiltersAreConjunctive(t *testing.T) {
	docs := corpus()
	cuisine := search.Filters{Cuisine: []string{"Japanese"}}
	location := search.Filters{Location: []string{"DC"}}
	rating := search.Filters{MinRating: float(80)}
	combined := search.Filters{Cuisine: cuisine.Cuisine, Location: location.Location, MinRating: rating.MinRating}

	want := intersect(ids(search.Search(docs, "", cuisine)),
		intersect(ids(search.Search(docs, "", location)), ids(search.Search(docs, "", rating))))
	assert.Equal(t, want, ids(search.Search(docs, "", combined)))
	assert.Equal(t, []string{"a", "c"}, want)
}

func TestSearchRankingIsStable(t *testing.T) {
	docs := []search.Document{
		{ID: "1", Text: "pho"},
		{ID: "2", Text: "pho bo"},
		{ID: "3", Text: "pho ga"},
	}
	got := search.Search(docs, "pho", search.Filters{})
	assert.Equal(t, []string{"1", "2", "3"}, ids(got))
}

func TestFiltersIsZero(t *testing.T) {
	assert.True(t, search.Filters{}.IsZero())
	assert.False(t, search.Filters{Type: search.KindRestaurant}.IsZero())
	assert.False(t, search.Filters{MinRating: float(0)}.IsZero())
}

func intersect(a, b []string) []string {
	set := make(map[string]bool, len(b))
	for _, x := range b {
		set[x] = true
	}
	var out []string
	for _, x := range a {
		if set[x] {
			out = append(out, x)
		}
	}
	return out
}

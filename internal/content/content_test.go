package content

import (
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallhub/internal/models"
)

func TestNormalize(t *testing.T) {
	w := models.Wallpaper{
		Title:       "  Sunset Ridge ",
		Description: " warm ",
		Category:    "  Nature, Scenic ",
		Tags:        []string{" Sunset", "SUNSET", "", "  ", "Hills "},
	}
	Normalize(&w)

	assert.Equal(t, "Sunset Ridge", w.Title)
	assert.Equal(t, "warm", w.Description)
	assert.Equal(t, "nature, scenic", w.Category)
	assert.Equal(t, []string{"sunset", "hills"}, w.Tags)
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, ParseTags(" A, b C ,,a"))
	assert.Equal(t, []string{}, ParseTags("   "))
}

func TestPrimaryCategory(t *testing.T) {
	assert.Equal(t, "nature", PrimaryCategory("Nature, Scenic"))
	assert.Equal(t, "abstract", PrimaryCategory("abstract"))
	assert.Equal(t, "", PrimaryCategory(""))
}

func TestApplyPartitionDefaults(t *testing.T) {
	curated := models.Wallpaper{Partition: models.PartitionCurated, Owner: "someone"}
	ApplyPartitionDefaults(&curated)
	assert.Equal(t, models.CuratedOwner, curated.Owner)
	assert.Equal(t, models.StateApproved, curated.LifecycleState)
	assert.True(t, curated.IsApproved)

	user := models.Wallpaper{Partition: models.PartitionUser, Owner: "u1"}
	ApplyPartitionDefaults(&user)
	assert.Equal(t, "u1", user.Owner)
	assert.Equal(t, models.StatePending, user.LifecycleState)
	assert.False(t, user.IsApproved)
	assert.Equal(t, models.MediaImage, user.MediaKind)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Mountain View":         "mountain-view",
		"  Mountain   View!! ":  "mountain-view",
		"Crème Brûlée":          "creme-brulee",
		"Đà Lạt at night":       "da-lat-at-night",
		"4K -- Neon // Tokyo":   "4k-neon-tokyo",
		"!!!":                   "wallpaper",
		"":                      "wallpaper",
	}
	for title, want := range cases {
		assert.Equal(t, want, Slugify(title), title)
	}
}

func TestSlugCandidate(t *testing.T) {
	assert.Equal(t, "mountain-view", SlugCandidate("mountain-view", 0))
	assert.Equal(t, "mountain-view-1", SlugCandidate("mountain-view", 1))
	assert.Equal(t, "mountain-view-2", SlugCandidate("mountain-view", 2))
}

func TestMatchesQuery(t *testing.T) {
	w := models.Wallpaper{Title: "Neon Tokyo", Category: "city", Tags: []string{"night", "rain"}}

	assert.True(t, MatchesQuery(w, "tokyo"))
	assert.True(t, MatchesQuery(w, "CIT"))
	assert.True(t, MatchesQuery(w, "ain"))
	assert.False(t, MatchesQuery(w, "forest"))
	assert.False(t, MatchesQuery(w, "  "))
	// literal, not a pattern
	assert.False(t, MatchesQuery(w, "n.*"))
}

func TestRelatedCriteria(t *testing.T) {
	source := models.Wallpaper{ID: "src", Category: "nature, scenic", Tags: []string{"sunset"}}
	c := RelatedCriteriaFor(source)

	assert.Equal(t, "nature", c.CategoryPrefix)
	assert.False(t, c.Matches(source))
	assert.True(t, c.Matches(models.Wallpaper{ID: "a", Category: "nature", Tags: []string{"sunset", "sea"}}))
	assert.True(t, c.Matches(models.Wallpaper{ID: "b", Category: "nature, forest", Tags: []string{"sunset"}}))
	assert.False(t, c.Matches(models.Wallpaper{ID: "c", Category: "nature", Tags: []string{"sea"}}))
	assert.False(t, c.Matches(models.Wallpaper{ID: "d", Category: "city", Tags: []string{"sunset"}}))

	untagged := RelatedCriteriaFor(models.Wallpaper{ID: "src", Category: "city"})
	assert.True(t, untagged.Matches(models.Wallpaper{ID: "e", Category: "city"}))
	assert.True(t, untagged.Matches(models.Wallpaper{ID: "f", Category: "city", Tags: []string{"x"}}))
}

func TestMergeNewest(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	at := func(id string, minutes int) models.Wallpaper {
		return models.Wallpaper{ID: id, CreatedAt: base.Add(time.Duration(minutes) * time.Minute)}
	}

	curated := []models.Wallpaper{at("c3", 9), at("c2", 5), at("c1", 1)}
	user := []models.Wallpaper{at("u3", 8), at("u2", 5), at("u1", 0)}

	merged := MergeNewest(0, curated, user)
	got := make([]string, 0, len(merged))
	for _, w := range merged {
		got = append(got, w.ID)
	}
	// equal timestamps break ties by id descending
	assert.Equal(t, []string{"c3", "u3", "u2", "c2", "c1", "u1"}, got)

	assert.Len(t, MergeNewest(4, curated, user), 4)
	assert.Empty(t, MergeNewest(3))
}

func TestWindow(t *testing.T) {
	w := NewWindow(0, -5)
	assert.Equal(t, 1, w.Page)
	assert.Equal(t, 1, w.Limit)

	w = NewWindow(3, 10)
	assert.Equal(t, 20, w.Offset())
	assert.Equal(t, 30, w.End())
	assert.Equal(t, 0, w.TotalPages(0))
	assert.Equal(t, 3, w.TotalPages(21))
	assert.Equal(t, 2, w.TotalPages(20))

	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, Slice(items, NewWindow(2, 2)))
	assert.Equal(t, []int{5}, Slice(items, NewWindow(3, 2)))
	assert.Equal(t, []int{}, Slice(items, NewWindow(9, 2)))
}

func TestAttachmentURL(t *testing.T) {
	got, err := AttachmentURL("https://media.example.com/wallhub/user/2026/01/01/abc.jpg", "Mountain View!")
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "/wallhub/user/2026/01/01/abc.jpg", u.Path)
	assert.Equal(t, `attachment; filename="Mountain_View_"`, u.Query().Get("response-content-disposition"))

	got, err = AttachmentURL("http://localhost:9000/b/k.png?v=2", "")
	require.NoError(t, err)
	u, _ = url.Parse(got)
	assert.Equal(t, "2", u.Query().Get("v"))
	assert.Equal(t, `attachment; filename="wallpaper"`, u.Query().Get("response-content-disposition"))

	for _, bad := range []string{"", "not a url", "ftp://host/file", "https://host", "/relative/path.jpg", "://"} {
		_, err := AttachmentURL(bad, "x")
		assert.ErrorIs(t, err, ErrMalformedMediaURL, fmt.Sprintf("%q", bad))
	}
}

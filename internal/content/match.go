package content

import (
	"strings"

	"wallhub/internal/models"
)

// MatchesQuery is a case-insensitive literal substring match against title,
// category or any tag.
func MatchesQuery(w models.Wallpaper, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	if strings.Contains(strings.ToLower(w.Title), q) || strings.Contains(strings.ToLower(w.Category), q) {
		return true
	}
	for _, tag := range w.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

type RelatedCriteria struct {
	ExcludeID      string
	CategoryPrefix string
	// Empty Tags means category alone decides.
	Tags []string
}

// RelatedCriteriaFor builds the criteria for items related to source.
func RelatedCriteriaFor(source models.Wallpaper) RelatedCriteria {
	return RelatedCriteria{
		ExcludeID:      source.ID,
		CategoryPrefix: PrimaryCategory(source.Category),
		Tags:           NormalizeTags(source.Tags),
	}
}

func (c RelatedCriteria) Matches(w models.Wallpaper) bool {
	if w.ID == c.ExcludeID {
		return false
	}
	if !strings.HasPrefix(NormalizeCategory(w.Category), c.CategoryPrefix) {
		return false
	}
	if len(c.Tags) == 0 {
		return true
	}
	for _, tag := range w.Tags {
		for _, want := range c.Tags {
			if tag == want {
				return true
			}
		}
	}
	return false
}

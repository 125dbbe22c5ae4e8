// Package content holds the store-independent rules the wallpaper services
// rely on: write-time normalization, slug derivation, matching predicates,
// ordering and the attachment link rewrite.
package content

import (
	"strings"

	"wallhub/internal/models"
)

func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// NormalizeTags lowercases and trims every tag, dropping empties and
// duplicates while keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// ParseTags splits a comma separated form value into normalized tags.
func ParseTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	return NormalizeTags(strings.Split(raw, ","))
}

// PrimaryCategory is the first comma separated segment of a category.
func PrimaryCategory(category string) string {
	head, _, _ := strings.Cut(category, ",")
	return NormalizeCategory(head)
}

// Normalize applies the write-time rules in place. Search and related
// matching assume every stored item went through it.
func Normalize(w *models.Wallpaper) {
	w.Title = strings.TrimSpace(w.Title)
	w.Description = strings.TrimSpace(w.Description)
	w.Category = NormalizeCategory(w.Category)
	w.Tags = NormalizeTags(w.Tags)
}

// ApplyPartitionDefaults sets owner and lifecycle for a new item.
func ApplyPartitionDefaults(w *models.Wallpaper) {
	switch w.Partition {
	case models.PartitionCurated:
		w.Owner = models.CuratedOwner
		w.LifecycleState = models.StateApproved
	default:
		w.Partition = models.PartitionUser
		w.LifecycleState = models.StatePending
	}
	w.IsApproved = w.LifecycleState == models.StateApproved
	if w.MediaKind == "" {
		w.MediaKind = models.MediaImage
	}
}

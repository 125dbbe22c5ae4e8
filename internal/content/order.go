package content

import (
	"sort"

	"wallhub/internal/models"
)

// Newer orders by createdAt descending with id descending as the tie-break,
// so equal timestamps page deterministically.
func Newer(a, b models.Wallpaper) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// Older is insertion order: createdAt ascending, id ascending.
func Older(a, b models.Wallpaper) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func SortNewest(items []models.Wallpaper) {
	sort.SliceStable(items, func(i, j int) bool { return Newer(items[i], items[j]) })
}

func SortOldest(items []models.Wallpaper) {
	sort.SliceStable(items, func(i, j int) bool { return Older(items[i], items[j]) })
}

// MergeNewest merges runs that are each already sorted by Newer, stopping
// once max items have been produced. max <= 0 means no cap.
func MergeNewest(max int, runs ...[]models.Wallpaper) []models.Wallpaper {
	total := 0
	for _, run := range runs {
		total += len(run)
	}
	if max > 0 && max < total {
		total = max
	}

	out := make([]models.Wallpaper, 0, total)
	heads := make([]int, len(runs))
	for len(out) < total {
		best := -1
		for i, run := range runs {
			if heads[i] >= len(run) {
				continue
			}
			if best < 0 || Newer(run[heads[i]], runs[best][heads[best]]) {
				best = i
			}
		}
		if best < 0 {
			break
		}
		out = append(out, runs[best][heads[best]])
		heads[best]++
	}
	return out
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"wallhub/internal/apperr"
	"wallhub/internal/content"
	"wallhub/internal/ids"
	"wallhub/internal/models"
	"wallhub/internal/repository"
)

const DefaultRelatedLimit = 8

type ListFilter string

const (
	FilterAll     ListFilter = "all"
	FilterUser    ListFilter = "user"
	FilterCurated ListFilter = "curated"
)

// ParseListFilter maps a query value to a filter; empty means all.
func ParseListFilter(raw string) (ListFilter, error) {
	switch f := ListFilter(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterUser, FilterCurated:
		return f, nil
	default:
		return "", apperr.InvalidArgument("list", fmt.Sprintf("unknown filter %q", raw))
	}
}

func (f ListFilter) partitions() []models.Partition {
	switch f {
	case FilterUser:
		return []models.Partition{models.PartitionUser}
	case FilterCurated:
		return []models.Partition{models.PartitionCurated}
	default:
		return LookupOrder
	}
}

type Page struct {
	Items      []models.Wallpaper
	TotalCount int
	Page       int
	TotalPages int
}

func newPage(items []models.Wallpaper, total int, w content.Window) Page {
	if items == nil {
		items = []models.Wallpaper{}
	}
	return Page{Items: items, TotalCount: total, Page: w.Page, TotalPages: w.TotalPages(total)}
}

// AggregationService answers read queries across both partitions.
type AggregationService struct {
	store WallpaperStore
	cache PageCache
	log   zerolog.Logger
}

func NewAggregationService(store WallpaperStore, cache PageCache, log zerolog.Logger) *AggregationService {
	return &AggregationService{store: store, cache: cache, log: log}
}

// List returns approved items of the filtered partitions, newest first.
// Each partition contributes at most page*limit items, which is all the
// merge needs to fill the requested window.
func (s *AggregationService) List(ctx context.Context, filter ListFilter, page, limit int) (Page, error) {
	const op = "list"
	w := content.NewWindow(page, limit)
	cacheKey := fmt.Sprintf("%s:%d:%d", filter, w.Page, w.Limit)

	var (
		gen       int64
		cacheable bool
	)
	if s.cache != nil {
		var cached Page
		g, hit, err := s.cache.Get(ctx, cacheKey, &cached)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("key", cacheKey).Msg("listing cache read failed")
		case hit:
			return cached, nil
		default:
			gen, cacheable = g, true
		}
	}

	var (
		runs  [][]models.Wallpaper
		total int
	)
	for _, partition := range filter.partitions() {
		count, err := s.store.CountApproved(ctx, partition)
		if err != nil {
			return Page{}, apperr.Internal(op, err)
		}
		run, err := s.store.ListApproved(ctx, partition, w.End())
		if err != nil {
			return Page{}, apperr.Internal(op, err)
		}
		total += count
		runs = append(runs, run)
	}

	merged := content.MergeNewest(w.End(), runs...)
	result := newPage(content.Slice(merged, w), total, w)

	if cacheable {
		if err := s.cache.Set(ctx, gen, cacheKey, result); err != nil {
			s.log.Warn().Err(err).Str("key", cacheKey).Msg("listing cache write failed")
		}
	}
	return result, nil
}

// GetByID returns the item in any lifecycle state.
func (s *AggregationService) GetByID(ctx context.Context, id string) (models.Wallpaper, error) {
	return resolve(ctx, s.store, "get", id)
}

// Search concatenates curated matches (any state) with approved user
// matches, each in insertion order. The result is not re-sorted by time.
func (s *AggregationService) Search(ctx context.Context, query string, page, limit int) (Page, error) {
	const op = "search"
	query = strings.TrimSpace(query)
	if query == "" {
		return Page{}, apperr.InvalidArgument(op, "query is required")
	}
	w := content.NewWindow(page, limit)

	curated, err := s.store.Search(ctx, models.PartitionCurated, query, false)
	if err != nil {
		return Page{}, apperr.Internal(op, err)
	}
	user, err := s.store.Search(ctx, models.PartitionUser, query, true)
	if err != nil {
		return Page{}, apperr.Internal(op, err)
	}

	all := append(curated, user...)
	return newPage(content.Slice(all, w), len(all), w), nil
}

func (s *AggregationService) Related(ctx context.Context, id string, limit int) ([]models.Wallpaper, error) {
	const op = "related"
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}

	source, err := resolve(ctx, s.store, op, id)
	if err != nil {
		return nil, err
	}
	criteria := content.RelatedCriteriaFor(source)

	curated, err := s.store.Related(ctx, models.PartitionCurated, criteria, false, limit)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	user, err := s.store.Related(ctx, models.PartitionUser, criteria, true, limit)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}

	return content.MergeNewest(limit, curated, user), nil
}

// LikedWallpapers resolves the actor's liked entries in like order,
// skipping entries whose item has since been removed.
func (s *AggregationService) LikedWallpapers(ctx context.Context, actor string) ([]models.Wallpaper, error) {
	const op = "liked"
	entries, err := s.store.LikedWallpapers(ctx, actor)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}

	items := make([]models.Wallpaper, 0, len(entries))
	for _, entry := range entries {
		w, err := s.store.Get(ctx, entry.Partition, entry.WallpaperID)
		if errors.Is(err, repository.ErrWallpaperNotFound) {
			continue
		}
		if err != nil {
			return nil, apperr.Internal(op, err)
		}
		items = append(items, w)
	}
	return items, nil
}

func (s *AggregationService) ListByOwner(ctx context.Context, actor string, page, limit int) (Page, error) {
	w := content.NewWindow(page, limit)
	items, total, err := s.store.ListByOwner(ctx, actor, w.Offset(), w.Limit)
	if err != nil {
		return Page{}, apperr.Internal("list own", err)
	}
	return newPage(items, total, w), nil
}

// GetOwned hides items of other owners behind NotFound.
func (s *AggregationService) GetOwned(ctx context.Context, id, actor string) (models.Wallpaper, error) {
	const op = "get own"
	if !ids.Valid(id) {
		return models.Wallpaper{}, apperr.InvalidArgument(op, "malformed id")
	}
	w, err := s.store.Get(ctx, models.PartitionUser, id)
	if errors.Is(err, repository.ErrWallpaperNotFound) || (err == nil && w.Owner != actor) {
		return models.Wallpaper{}, apperr.NotFound(op, "wallpaper not found")
	}
	if err != nil {
		return models.Wallpaper{}, apperr.Internal(op, err)
	}
	return w, nil
}

// resolve validates id and probes partitions in LookupOrder.
func resolve(ctx context.Context, store WallpaperStore, op, id string) (models.Wallpaper, error) {
	if !ids.Valid(id) {
		return models.Wallpaper{}, apperr.InvalidArgument(op, "malformed id")
	}
	for _, partition := range LookupOrder {
		w, err := store.Get(ctx, partition, id)
		if err == nil {
			return w, nil
		}
		if !errors.Is(err, repository.ErrWallpaperNotFound) {
			return models.Wallpaper{}, apperr.Internal(op, err)
		}
	}
	return models.Wallpaper{}, apperr.NotFound(op, "wallpaper not found")
}

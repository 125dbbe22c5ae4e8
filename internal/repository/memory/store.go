// Package memory is an in-process content store used by the service and
// handler tests. It mirrors the transactional guarantees of the pgx
// repositories with a single mutex.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"wallhub/internal/content"
	"wallhub/internal/models"
	"wallhub/internal/repository"
)

type Store struct {
	mu         sync.RWMutex
	wallpapers map[string]models.Wallpaper
	users      map[string]models.User
	liked      map[string][]models.LikedWallpaper
	now        func() time.Time
}

func NewStore() *Store {
	return &Store{
		wallpapers: make(map[string]models.Wallpaper),
		users:      make(map[string]models.User),
		liked:      make(map[string][]models.LikedWallpaper),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// PutUser stores user as is, replacing any user with the same id.
func (s *Store) PutUser(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

func (s *Store) Create(_ context.Context, w models.Wallpaper) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.wallpapers {
		if existing.Partition == w.Partition && existing.Slug == w.Slug {
			return repository.ErrSlugTaken
		}
	}
	stored := clone(w)
	if stored.LikedBy == nil {
		stored.LikedBy = []string{}
	}
	if stored.ViewedBy == nil {
		stored.ViewedBy = []string{}
	}
	if stored.DownloadedBy == nil {
		stored.DownloadedBy = []string{}
	}
	s.wallpapers[w.ID] = stored
	return nil
}

func (s *Store) Get(_ context.Context, partition models.Partition, id string) (models.Wallpaper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.lookup(partition, id)
	if !ok {
		return models.Wallpaper{}, repository.ErrWallpaperNotFound
	}
	return clone(w), nil
}

func (s *Store) SlugExists(_ context.Context, partition models.Partition, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, w := range s.wallpapers {
		if w.Partition == partition && w.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CountApproved(_ context.Context, partition models.Partition) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, w := range s.wallpapers {
		if w.Partition == partition && w.IsApproved {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListApproved(_ context.Context, partition models.Partition, limit int) ([]models.Wallpaper, error) {
	items := s.filter(func(w models.Wallpaper) bool {
		return w.Partition == partition && w.IsApproved
	})
	content.SortNewest(items)
	return truncate(items, limit), nil
}

func (s *Store) Search(_ context.Context, partition models.Partition, query string, approvedOnly bool) ([]models.Wallpaper, error) {
	items := s.filter(func(w models.Wallpaper) bool {
		if w.Partition != partition || (approvedOnly && !w.IsApproved) {
			return false
		}
		return content.MatchesQuery(w, query)
	})
	content.SortOldest(items)
	return items, nil
}

func (s *Store) Related(_ context.Context, partition models.Partition, criteria content.RelatedCriteria, approvedOnly bool, limit int) ([]models.Wallpaper, error) {
	items := s.filter(func(w models.Wallpaper) bool {
		if w.Partition != partition || (approvedOnly && !w.IsApproved) {
			return false
		}
		return criteria.Matches(w)
	})
	content.SortNewest(items)
	return truncate(items, limit), nil
}

func (s *Store) ListByOwner(_ context.Context, owner string, offset, limit int) ([]models.Wallpaper, int, error) {
	items := s.filter(func(w models.Wallpaper) bool {
		return w.Partition == models.PartitionUser && w.Owner == owner
	})
	content.SortNewest(items)
	return window(items, offset, limit), len(items), nil
}

func (s *Store) ListPending(_ context.Context, offset, limit int) ([]models.Wallpaper, int, error) {
	items := s.filter(func(w models.Wallpaper) bool {
		return w.Partition == models.PartitionUser && w.LifecycleState == models.StatePending
	})
	content.SortNewest(items)
	return window(items, offset, limit), len(items), nil
}

func (s *Store) UpdateDetails(_ context.Context, partition models.Partition, id, title, category string, tags []string) (models.Wallpaper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.lookup(partition, id)
	if !ok {
		return models.Wallpaper{}, repository.ErrWallpaperNotFound
	}
	w.Title = title
	w.Category = category
	w.Tags = append([]string{}, tags...)
	w.UpdatedAt = s.now()
	s.wallpapers[id] = w
	return clone(w), nil
}

func (s *Store) Approve(_ context.Context, partition models.Partition, id string) (models.Wallpaper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.lookup(partition, id)
	if !ok {
		return models.Wallpaper{}, repository.ErrWallpaperNotFound
	}
	w.LifecycleState = models.StateApproved
	w.IsApproved = true
	w.UpdatedAt = s.now()
	s.wallpapers[id] = w
	return clone(w), nil
}

// Delete removes the item and every actor-side like entry pointing at it.
func (s *Store) Delete(_ context.Context, partition models.Partition, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookup(partition, id); !ok {
		return repository.ErrWallpaperNotFound
	}
	delete(s.wallpapers, id)
	for actor, entries := range s.liked {
		s.liked[actor] = removeLiked(entries, id)
	}
	return nil
}

func (s *Store) AddView(_ context.Context, partition models.Partition, id, actor string) (models.ViewResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.lookup(partition, id)
	if !ok {
		return models.ViewResult{}, repository.ErrWallpaperNotFound
	}
	if contains(w.ViewedBy, actor) {
		return models.ViewResult{ViewCount: w.ViewCount}, nil
	}
	w.ViewedBy = append(w.ViewedBy, actor)
	w.ViewCount++
	s.wallpapers[id] = w
	return models.ViewResult{ViewCount: w.ViewCount, Counted: true}, nil
}

func (s *Store) ToggleLike(_ context.Context, partition models.Partition, id, actor string) (models.LikeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.lookup(partition, id)
	if !ok {
		return models.LikeResult{}, repository.ErrWallpaperNotFound
	}
	if _, ok := s.users[actor]; !ok {
		return models.LikeResult{}, repository.ErrUserNotFound
	}

	if contains(w.LikedBy, actor) {
		w.LikedBy = remove(w.LikedBy, actor)
		if w.LikeCount > 0 {
			w.LikeCount--
		}
		s.liked[actor] = removeLiked(s.liked[actor], id)
	} else {
		w.LikedBy = append(w.LikedBy, actor)
		w.LikeCount++
		s.liked[actor] = append(s.liked[actor], models.LikedWallpaper{
			WallpaperID: id,
			Partition:   partition,
			LikedAt:     s.now(),
		})
	}
	w.UpdatedAt = s.now()
	s.wallpapers[id] = w
	return models.LikeResult{Liked: contains(w.LikedBy, actor), LikeCount: w.LikeCount}, nil
}

func (s *Store) RecordDownload(_ context.Context, partition models.Partition, id, actor string, requireApproved bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.lookup(partition, id)
	if !ok {
		return 0, repository.ErrWallpaperNotFound
	}
	if requireApproved && w.LifecycleState != models.StateApproved {
		return 0, repository.ErrNotApproved
	}
	w.DownloadCount++
	if actor != "" && !contains(w.DownloadedBy, actor) {
		w.DownloadedBy = append(w.DownloadedBy, actor)
	}
	s.wallpapers[id] = w
	return w.DownloadCount, nil
}

func (s *Store) LikedWallpapers(_ context.Context, actor string) ([]models.LikedWallpaper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.LikedWallpaper{}, s.liked[actor]...), nil
}

// ReconcileCounters realigns counters with ledgers and rebuilds missing
// actor-side like entries.
func (s *Store) ReconcileCounters(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var touched int64
	for id, w := range s.wallpapers {
		changed := false
		if w.LikeCount != int64(len(w.LikedBy)) {
			w.LikeCount = int64(len(w.LikedBy))
			changed = true
		}
		if w.ViewCount != int64(len(w.ViewedBy)) {
			w.ViewCount = int64(len(w.ViewedBy))
			changed = true
		}
		if w.DownloadCount < int64(len(w.DownloadedBy)) {
			w.DownloadCount = int64(len(w.DownloadedBy))
			changed = true
		}
		if changed {
			s.wallpapers[id] = w
			touched++
		}

		for _, actor := range w.LikedBy {
			if _, ok := s.users[actor]; !ok || hasLiked(s.liked[actor], id) {
				continue
			}
			s.liked[actor] = append(s.liked[actor], models.LikedWallpaper{WallpaperID: id, Partition: w.Partition, LikedAt: s.now()})
			touched++
		}
	}

	for actor, entries := range s.liked {
		kept := entries[:0]
		for _, entry := range entries {
			w, ok := s.wallpapers[entry.WallpaperID]
			if ok && contains(w.LikedBy, actor) {
				kept = append(kept, entry)
				continue
			}
			touched++
		}
		s.liked[actor] = kept
	}
	return touched, nil
}

// Users exposes the user side of the store under the user repository
// method set.
func (s *Store) Users() *Users {
	return &Users{s: s}
}

type Users struct {
	s *Store
}

func (u *Users) Create(_ context.Context, user models.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for _, existing := range u.s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrEmailTaken
		}
	}
	u.s.users[user.ID] = user
	return nil
}

func (u *Users) FindByEmail(_ context.Context, email string) (models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	for _, user := range u.s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (u *Users) GetByID(_ context.Context, id string) (models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	user, ok := u.s.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) lookup(partition models.Partition, id string) (models.Wallpaper, bool) {
	w, ok := s.wallpapers[id]
	if !ok || w.Partition != partition {
		return models.Wallpaper{}, false
	}
	return w, true
}

func (s *Store) filter(keep func(models.Wallpaper) bool) []models.Wallpaper {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []models.Wallpaper{}
	for _, w := range s.wallpapers {
		if keep(w) {
			items = append(items, clone(w))
		}
	}
	// map order is random; pin it before the stable sorts run
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func clone(w models.Wallpaper) models.Wallpaper {
	w.Tags = append([]string(nil), w.Tags...)
	w.MediaRefs = append([]models.MediaRef(nil), w.MediaRefs...)
	w.LikedBy = append([]string{}, w.LikedBy...)
	w.ViewedBy = append([]string{}, w.ViewedBy...)
	w.DownloadedBy = append([]string{}, w.DownloadedBy...)
	return w
}

func truncate(items []models.Wallpaper, limit int) []models.Wallpaper {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func window(items []models.Wallpaper, offset, limit int) []models.Wallpaper {
	if offset >= len(items) {
		return []models.Wallpaper{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}

func hasLiked(entries []models.LikedWallpaper, id string) bool {
	for _, entry := range entries {
		if entry.WallpaperID == id {
			return true
		}
	}
	return false
}

func removeLiked(entries []models.LikedWallpaper, id string) []models.LikedWallpaper {
	out := make([]models.LikedWallpaper, 0, len(entries))
	for _, entry := range entries {
		if entry.WallpaperID != id {
			out = append(out, entry)
		}
	}
	return out
}

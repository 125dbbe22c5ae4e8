package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wallhub/internal/content"
	"wallhub/internal/database"
	"wallhub/internal/models"
)

const slugConstraint = "wallpapers_partition_slug_key"

const wallpaperColumns = `
	w.id, w.partition, w.title, w.description, w.category, w.tags, w.media_refs,
	w.resolution, w.byte_size, w.media_kind, w.owner, w.lifecycle_state, w.is_approved,
	w.slug, w.like_count, w.download_count, w.view_count,
	ARRAY(SELECT l.actor_id FROM wallpaper_likes l WHERE l.wallpaper_id = w.id ORDER BY l.created_at, l.actor_id),
	ARRAY(SELECT v.actor_id FROM wallpaper_views v WHERE v.wallpaper_id = w.id ORDER BY v.created_at, v.actor_id),
	ARRAY(SELECT d.actor_id FROM wallpaper_downloads d WHERE d.wallpaper_id = w.id ORDER BY d.created_at, d.actor_id),
	w.created_at, w.updated_at
`

type WallpaperRepository struct {
	pool *pgxpool.Pool
}

func NewWallpaperRepository(pool *pgxpool.Pool) *WallpaperRepository {
	return &WallpaperRepository{pool: pool}
}

func (r *WallpaperRepository) Create(ctx context.Context, w models.Wallpaper) error {
	const query = `
		INSERT INTO wallpapers (
			id, partition, title, description, category, tags, media_refs,
			resolution, byte_size, media_kind, owner, lifecycle_state, is_approved,
			slug, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13,
			$14, $15, $16
		)
	`

	_, err := r.pool.Exec(ctx, query,
		w.ID,
		w.Partition,
		w.Title,
		w.Description,
		w.Category,
		w.Tags,
		w.MediaRefs,
		w.Resolution,
		w.ByteSize,
		w.MediaKind,
		w.Owner,
		w.LifecycleState,
		w.IsApproved,
		w.Slug,
		w.CreatedAt,
		w.UpdatedAt,
	)
	if isUniqueViolation(err, slugConstraint) {
		return ErrSlugTaken
	}
	return err
}

func (r *WallpaperRepository) Get(ctx context.Context, partition models.Partition, id string) (models.Wallpaper, error) {
	query := `SELECT ` + wallpaperColumns + ` FROM wallpapers w WHERE w.id = $1 AND w.partition = $2`
	return scanWallpaper(r.pool.QueryRow(ctx, query, id, partition))
}

func (r *WallpaperRepository) SlugExists(ctx context.Context, partition models.Partition, slug string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM wallpapers WHERE partition = $1 AND slug = $2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, partition, slug).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *WallpaperRepository) CountApproved(ctx context.Context, partition models.Partition) (int, error) {
	const query = `SELECT COUNT(*) FROM wallpapers WHERE partition = $1 AND is_approved`
	var count int
	if err := r.pool.QueryRow(ctx, query, partition).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ListApproved returns the newest limit approved items of a partition.
func (r *WallpaperRepository) ListApproved(ctx context.Context, partition models.Partition, limit int) ([]models.Wallpaper, error) {
	query := `SELECT ` + wallpaperColumns + `
		FROM wallpapers w
		WHERE w.partition = $1 AND w.is_approved
		ORDER BY w.created_at DESC, w.id DESC
		LIMIT $2
	`
	return r.list(ctx, query, partition, limit)
}

// Search returns matches in insertion order.
func (r *WallpaperRepository) Search(ctx context.Context, partition models.Partition, query string, approvedOnly bool) ([]models.Wallpaper, error) {
	sql := `SELECT ` + wallpaperColumns + `
		FROM wallpapers w
		WHERE w.partition = $1
		  AND (NOT $2::boolean OR w.is_approved)
		  AND (
			w.title ILIKE $3 ESCAPE '\'
			OR w.category ILIKE $3 ESCAPE '\'
			OR EXISTS (SELECT 1 FROM unnest(w.tags) AS t(tag) WHERE t.tag ILIKE $3 ESCAPE '\')
		  )
		ORDER BY w.created_at ASC, w.id ASC
	`
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	return r.list(ctx, sql, partition, approvedOnly, pattern)
}

// Related returns the newest limit items matching criteria.
func (r *WallpaperRepository) Related(ctx context.Context, partition models.Partition, criteria content.RelatedCriteria, approvedOnly bool, limit int) ([]models.Wallpaper, error) {
	query := `SELECT ` + wallpaperColumns + `
		FROM wallpapers w
		WHERE w.partition = $1
		  AND (NOT $2::boolean OR w.is_approved)
		  AND w.id <> $3
		  AND w.category LIKE $4 ESCAPE '\'
		  AND (cardinality($5::text[]) = 0 OR w.tags && $5::text[])
		ORDER BY w.created_at DESC, w.id DESC
		LIMIT $6
	`
	tags := criteria.Tags
	if tags == nil {
		tags = []string{}
	}
	return r.list(ctx, query, partition, approvedOnly, criteria.ExcludeID, escapeLike(criteria.CategoryPrefix)+"%", tags, limit)
}

func (r *WallpaperRepository) ListByOwner(ctx context.Context, owner string, offset, limit int) ([]models.Wallpaper, int, error) {
	const countQuery = `SELECT COUNT(*) FROM wallpapers WHERE partition = 'user' AND owner = $1`
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, owner).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + wallpaperColumns + `
		FROM wallpapers w
		WHERE w.partition = 'user' AND w.owner = $1
		ORDER BY w.created_at DESC, w.id DESC
		LIMIT $2 OFFSET $3
	`
	items, err := r.list(ctx, query, owner, limit, offset)
	return items, total, err
}

func (r *WallpaperRepository) ListPending(ctx context.Context, offset, limit int) ([]models.Wallpaper, int, error) {
	const countQuery = `SELECT COUNT(*) FROM wallpapers WHERE partition = 'user' AND lifecycle_state = 'pending'`
	var total int
	if err := r.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + wallpaperColumns + `
		FROM wallpapers w
		WHERE w.partition = 'user' AND w.lifecycle_state = 'pending'
		ORDER BY w.created_at DESC, w.id DESC
		LIMIT $1 OFFSET $2
	`
	items, err := r.list(ctx, query, limit, offset)
	return items, total, err
}

func (r *WallpaperRepository) UpdateDetails(ctx context.Context, partition models.Partition, id, title, category string, tags []string) (models.Wallpaper, error) {
	const query = `
		UPDATE wallpapers
		SET title = $3, category = $4, tags = $5, updated_at = NOW()
		WHERE id = $1 AND partition = $2
	`
	cmd, err := r.pool.Exec(ctx, query, id, partition, title, category, tags)
	if err != nil {
		return models.Wallpaper{}, err
	}
	if cmd.RowsAffected() == 0 {
		return models.Wallpaper{}, ErrWallpaperNotFound
	}
	return r.Get(ctx, partition, id)
}

// Approve moves lifecycle_state and is_approved together.
func (r *WallpaperRepository) Approve(ctx context.Context, partition models.Partition, id string) (models.Wallpaper, error) {
	const query = `
		UPDATE wallpapers
		SET lifecycle_state = 'approved', is_approved = TRUE, updated_at = NOW()
		WHERE id = $1 AND partition = $2
	`
	cmd, err := r.pool.Exec(ctx, query, id, partition)
	if err != nil {
		return models.Wallpaper{}, err
	}
	if cmd.RowsAffected() == 0 {
		return models.Wallpaper{}, ErrWallpaperNotFound
	}
	return r.Get(ctx, partition, id)
}

func (r *WallpaperRepository) Delete(ctx context.Context, partition models.Partition, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM wallpapers WHERE id = $1 AND partition = $2`, id, partition)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrWallpaperNotFound
	}
	return nil
}

func (r *WallpaperRepository) AddView(ctx context.Context, partition models.Partition, id, actor string) (models.ViewResult, error) {
	var result models.ViewResult
	err := database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := lockWallpaper(ctx, tx, partition, id); err != nil {
			return err
		}

		cmd, err := tx.Exec(ctx, `
			INSERT INTO wallpaper_views (wallpaper_id, actor_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, id, actor)
		if err != nil {
			return fmt.Errorf("insert view: %w", err)
		}
		result.Counted = cmd.RowsAffected() == 1

		if result.Counted {
			return tx.QueryRow(ctx, `
				UPDATE wallpapers SET view_count = view_count + 1 WHERE id = $1
				RETURNING view_count
			`, id).Scan(&result.ViewCount)
		}
		return tx.QueryRow(ctx, `SELECT view_count FROM wallpapers WHERE id = $1`, id).Scan(&result.ViewCount)
	})
	return result, err
}

// ToggleLike flips the like of actor on the item and mirrors it on the
// actor's liked list in the same transaction.
func (r *WallpaperRepository) ToggleLike(ctx context.Context, partition models.Partition, id, actor string) (models.LikeResult, error) {
	var result models.LikeResult
	err := database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := lockWallpaper(ctx, tx, partition, id); err != nil {
			return err
		}

		var userID string
		if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, actor).Scan(&userID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}

		var liked bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM wallpaper_likes WHERE wallpaper_id = $1 AND actor_id = $2)
		`, id, actor).Scan(&liked); err != nil {
			return fmt.Errorf("check like: %w", err)
		}

		if liked {
			if _, err := tx.Exec(ctx, `DELETE FROM wallpaper_likes WHERE wallpaper_id = $1 AND actor_id = $2`, id, actor); err != nil {
				return fmt.Errorf("delete like: %w", err)
			}
			if _, err := tx.Exec(ctx, `DELETE FROM user_liked_wallpapers WHERE user_id = $1 AND wallpaper_id = $2`, actor, id); err != nil {
				return fmt.Errorf("delete liked entry: %w", err)
			}
			result.Liked = false
			return tx.QueryRow(ctx, `
				UPDATE wallpapers SET like_count = GREATEST(like_count - 1, 0), updated_at = NOW() WHERE id = $1
				RETURNING like_count
			`, id).Scan(&result.LikeCount)
		}

		if _, err := tx.Exec(ctx, `INSERT INTO wallpaper_likes (wallpaper_id, actor_id) VALUES ($1, $2)`, id, actor); err != nil {
			return fmt.Errorf("insert like: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_liked_wallpapers (user_id, wallpaper_id, partition) VALUES ($1, $2, $3)
			ON CONFLICT (user_id, wallpaper_id) DO NOTHING
		`, actor, id, partition); err != nil {
			return fmt.Errorf("insert liked entry: %w", err)
		}
		result.Liked = true
		return tx.QueryRow(ctx, `
			UPDATE wallpapers SET like_count = like_count + 1, updated_at = NOW() WHERE id = $1
			RETURNING like_count
		`, id).Scan(&result.LikeCount)
	})
	return result, err
}

// RecordDownload counts every call. A known actor is added to the ledger at
// most once; the ledger never gates the counter.
func (r *WallpaperRepository) RecordDownload(ctx context.Context, partition models.Partition, id, actor string, requireApproved bool) (int64, error) {
	var count int64
	err := database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		state, err := lockWallpaper(ctx, tx, partition, id)
		if err != nil {
			return err
		}
		if requireApproved && state != models.StateApproved {
			return ErrNotApproved
		}

		if err := tx.QueryRow(ctx, `
			UPDATE wallpapers SET download_count = download_count + 1 WHERE id = $1
			RETURNING download_count
		`, id).Scan(&count); err != nil {
			return fmt.Errorf("increment downloads: %w", err)
		}

		if actor == "" {
			return nil
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO wallpaper_downloads (wallpaper_id, actor_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, id, actor); err != nil {
			return fmt.Errorf("insert download: %w", err)
		}
		return nil
	})
	return count, err
}

func (r *WallpaperRepository) LikedWallpapers(ctx context.Context, actor string) ([]models.LikedWallpaper, error) {
	const query = `
		SELECT wallpaper_id, partition, liked_at
		FROM user_liked_wallpapers
		WHERE user_id = $1
		ORDER BY liked_at, wallpaper_id
	`
	rows, err := r.pool.Query(ctx, query, actor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.LikedWallpaper{}
	for rows.Next() {
		var entry models.LikedWallpaper
		if err := rows.Scan(&entry.WallpaperID, &entry.Partition, &entry.LikedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ReconcileCounters rewrites counters that drifted from their ledgers and
// repairs actor-side like entries. It returns the number of rows touched.
func (r *WallpaperRepository) ReconcileCounters(ctx context.Context) (int64, error) {
	var touched int64
	err := database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		statements := []string{
			`UPDATE wallpapers w
			 SET like_count = c.likes,
			     view_count = c.views,
			     download_count = GREATEST(w.download_count, c.downloads),
			     updated_at = NOW()
			 FROM (
				SELECT w2.id,
				       (SELECT COUNT(*) FROM wallpaper_likes l WHERE l.wallpaper_id = w2.id) AS likes,
				       (SELECT COUNT(*) FROM wallpaper_views v WHERE v.wallpaper_id = w2.id) AS views,
				       (SELECT COUNT(*) FROM wallpaper_downloads d WHERE d.wallpaper_id = w2.id) AS downloads
				FROM wallpapers w2
			 ) c
			 WHERE w.id = c.id
			   AND (w.like_count <> c.likes OR w.view_count <> c.views OR w.download_count < c.downloads)`,
			`INSERT INTO user_liked_wallpapers (user_id, wallpaper_id, partition, liked_at)
			 SELECT l.actor_id, l.wallpaper_id, w.partition, l.created_at
			 FROM wallpaper_likes l
			 JOIN wallpapers w ON w.id = l.wallpaper_id
			 JOIN users u ON u.id = l.actor_id
			 ON CONFLICT (user_id, wallpaper_id) DO NOTHING`,
			`DELETE FROM user_liked_wallpapers m
			 WHERE NOT EXISTS (
				SELECT 1 FROM wallpaper_likes l WHERE l.wallpaper_id = m.wallpaper_id AND l.actor_id = m.user_id
			 )`,
		}
		for _, stmt := range statements {
			cmd, err := tx.Exec(ctx, stmt)
			if err != nil {
				return fmt.Errorf("reconcile: %w", err)
			}
			touched += cmd.RowsAffected()
		}
		return nil
	})
	return touched, err
}

func (r *WallpaperRepository) list(ctx context.Context, query string, args ...any) ([]models.Wallpaper, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Wallpaper{}
	for rows.Next() {
		w, err := scanWallpaper(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

func lockWallpaper(ctx context.Context, tx pgx.Tx, partition models.Partition, id string) (models.LifecycleState, error) {
	var state models.LifecycleState
	err := tx.QueryRow(ctx, `
		SELECT lifecycle_state FROM wallpapers WHERE id = $1 AND partition = $2 FOR UPDATE
	`, id, partition).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrWallpaperNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lock wallpaper: %w", err)
	}
	return state, nil
}

func scanWallpaper(row pgx.Row) (models.Wallpaper, error) {
	var w models.Wallpaper
	if err := row.Scan(
		&w.ID,
		&w.Partition,
		&w.Title,
		&w.Description,
		&w.Category,
		&w.Tags,
		&w.MediaRefs,
		&w.Resolution,
		&w.ByteSize,
		&w.MediaKind,
		&w.Owner,
		&w.LifecycleState,
		&w.IsApproved,
		&w.Slug,
		&w.LikeCount,
		&w.DownloadCount,
		&w.ViewCount,
		&w.LikedBy,
		&w.ViewedBy,
		&w.DownloadedBy,
		&w.CreatedAt,
		&w.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Wallpaper{}, ErrWallpaperNotFound
		}
		return models.Wallpaper{}, err
	}
	return w, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

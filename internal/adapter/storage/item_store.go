package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"laf/internal/domain/geo"
	"laf/internal/domain/item"
)

// ItemStore implements item.Store on PostgreSQL.
type ItemStore struct {
	db *pgxpool.Pool
}

// NewItemStore creates a new item store.
func NewItemStore(db *pgxpool.Pool) *ItemStore {
	return &ItemStore{
		db: db,
	}
}

// Create inserts the item row and its image and tag rows inside a single
// transaction. The batch statements are fully parameterized; a failure
// anywhere rolls back the whole listing.
func (s *ItemStore) Create(ctx context.Context, in item.CreateInput) (*item.Item, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var categoryID int64
	var categoryName string
	err = tx.QueryRow(ctx,
		`SELECT id, name FROM categories WHERE code = $1 AND is_active`,
		in.CategoryCode,
	).Scan(&categoryID, &categoryName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, item.ErrUnknownCategory
	}
	if err != nil {
		return nil, fmt.Errorf("error resolving category: %w", err)
	}

	var lat, lng *float64
	if in.Location != nil {
		lat = &in.Location.Lat
		lng = &in.Location.Lng
	}

	created := &item.Item{
		Type:           in.Type,
		Title:          in.Title,
		Description:    in.Description,
		CategoryID:     categoryID,
		CategoryName:   categoryName,
		Location:       in.Location,
		LocationID:     in.LocationID,
		LocationDetail: in.LocationDetail,
		LostDate:       in.LostDate,
		ContactInfo:    in.ContactInfo,
		ContactType:    in.ContactType,
		Status:         item.StatusActive,
		AuthorID:       in.AuthorID,
		Images:         in.Images,
		Tags:           in.Tags,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO items (
			type, title, description, category_id, location_id, location_detail,
			lost_date, contact_info, contact_type, latitude, longitude,
			author_id, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'active', now(), now()
		)
		RETURNING id, created_at
	`,
		in.Type, in.Title, in.Description, categoryID,
		nullString(in.LocationID), nullString(in.LocationDetail),
		in.LostDate, in.ContactInfo, in.ContactType,
		lat, lng, in.AuthorID,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error inserting item: %w", err)
	}

	if len(in.Images) > 0 || len(in.Tags) > 0 {
		batch := &pgx.Batch{}
		for i, url := range in.Images {
			batch.Queue(`
				INSERT INTO item_images (item_id, image_url, sort_order, is_cover, created_at)
				VALUES ($1, $2, $3, $4, now())
			`, created.ID, url, i, i == 0)
		}
		for _, tag := range in.Tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			batch.Queue(`
				INSERT INTO item_tags (item_id, tag_name, created_at)
				VALUES ($1, $2, now())
			`, created.ID, tag)
		}

		br := tx.SendBatch(ctx, batch)
		var batchErr error
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil && batchErr == nil {
				batchErr = err
			}
		}
		if err := br.Close(); err != nil && batchErr == nil {
			batchErr = err
		}
		if batchErr != nil {
			return nil, fmt.Errorf("error inserting item attachments: %w", batchErr)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("error committing item: %w", err)
	}

	return created, nil
}

// GetByID returns a listing with its category, author, images and tags.
func (s *ItemStore) GetByID(ctx context.Context, id int64) (*item.Item, error) {
	query := `
		SELECT
			i.id, i.type, i.title, i.description, i.category_id,
			COALESCE(c.name, ''), i.latitude, i.longitude,
			COALESCE(i.location_id, ''), COALESCE(i.location_detail, ''),
			i.lost_date, i.contact_info, i.contact_type, i.status,
			i.author_id, u.username, u.avatar,
			i.view_count, i.created_at, i.resolved_at
		FROM items i
		LEFT JOIN categories c ON i.category_id = c.id
		LEFT JOIN users u ON i.author_id = u.id
		WHERE i.id = $1 AND i.status != 'deleted'
	`

	it, err := scanItem(s.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, item.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying item: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT image_url FROM item_images WHERE item_id = $1 ORDER BY sort_order`, id)
	if err != nil {
		return nil, fmt.Errorf("error querying item images: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("error scanning image: %w", err)
		}
		it.Images = append(it.Images, url)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating images: %w", err)
	}

	tagRows, err := s.db.Query(ctx,
		`SELECT tag_name FROM item_tags WHERE item_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("error querying item tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var tag string
		if err := tagRows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("error scanning tag: %w", err)
		}
		it.Tags = append(it.Tags, tag)
	}
	if err := tagRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}

	return it, nil
}

// List returns listings matching the filter, newest first, plus the total
// match count for pagination.
func (s *ItemStore) List(ctx context.Context, f item.Filter) ([]item.Item, int, error) {
	where, args := buildItemPredicate(f, nil)

	var total int
	countQuery := `
		SELECT count(*)
		FROM items i
		LEFT JOIN categories c ON i.category_id = c.id
	` + where
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting items: %w", err)
	}

	query := itemSelect + where +
		fmt.Sprintf(" ORDER BY i.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, f.Offset)

	items, err := s.queryItems(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// SearchRegion returns listings with coordinates inside the bounds that
// match the filter, newest first.
func (s *ItemStore) SearchRegion(ctx context.Context, b geo.Bounds, f item.Filter) ([]item.Item, error) {
	where, args := buildItemPredicate(f, &b)
	query := itemSelect + where + " ORDER BY i.created_at DESC"

	return s.queryItems(ctx, query, args...)
}

// UpdateStatus applies a lifecycle transition. resolved_at is stamped the
// first time a listing becomes resolved. The status predicate makes the
// update a compare-and-set: a concurrent transition that already moved
// the row away from the from status leaves it untouched.
func (s *ItemStore) UpdateStatus(ctx context.Context, id int64, from, to item.Status, now time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE items
		SET status = $2,
		    resolved_at = CASE WHEN $2 = 'resolved' AND resolved_at IS NULL THEN $3 ELSE resolved_at END,
		    updated_at = $3
		WHERE id = $1 AND status = $4
	`, id, to, now, from)
	if err != nil {
		return fmt.Errorf("error updating item status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM items WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return fmt.Errorf("error checking item existence: %w", err)
		}
		if !exists {
			return item.ErrNotFound
		}
		return item.ErrInvalidTransition
	}

	return nil
}

// IncrementViews bumps the view counter.
func (s *ItemStore) IncrementViews(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx,
		`UPDATE items SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error incrementing views: %w", err)
	}

	return nil
}

// Statistics aggregates listing counts over the trailing window. Only
// listings with coordinates participate, matching the map view.
func (s *ItemStore) Statistics(ctx context.Context, r item.TimeRange) (*item.Stats, error) {
	query := `
		SELECT
			count(*),
			count(*) FILTER (WHERE type = 'lost'),
			count(*) FILTER (WHERE type = 'found'),
			count(*) FILTER (WHERE status = 'resolved'),
			avg(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600)
				FILTER (WHERE status = 'resolved' AND resolved_at IS NOT NULL),
			count(DISTINCT location_id) FILTER (WHERE location_id IS NOT NULL)
		FROM items
		WHERE latitude IS NOT NULL
		AND longitude IS NOT NULL
		AND status != 'deleted'
	`
	args := []interface{}{}
	if days := r.Days(); days > 0 {
		query += " AND created_at >= now() - $1::int * interval '1 day'"
		args = append(args, days)
	}

	stats := &item.Stats{TimeRange: r}
	var avgHours *float64
	err := s.db.QueryRow(ctx, query, args...).Scan(
		&stats.TotalItems,
		&stats.LostItems,
		&stats.FoundItems,
		&stats.ResolvedItems,
		&avgHours,
		&stats.ActiveLocations,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying statistics: %w", err)
	}

	stats.SuccessRate = "0.0"
	if stats.TotalItems > 0 {
		stats.SuccessRate = fmt.Sprintf("%.1f", float64(stats.ResolvedItems)/float64(stats.TotalItems)*100)
	}
	if avgHours != nil {
		rounded := int(*avgHours + 0.5)
		stats.AvgResolveHours = &rounded
	}

	return stats, nil
}

const itemSelect = `
	SELECT
		i.id, i.type, i.title, i.description, i.category_id,
		COALESCE(c.name, ''), i.latitude, i.longitude,
		COALESCE(i.location_id, ''), COALESCE(i.location_detail, ''),
		i.lost_date, i.contact_info, i.contact_type, i.status,
		i.author_id, u.username, u.avatar,
		i.view_count, i.created_at, i.resolved_at
	FROM items i
	LEFT JOIN categories c ON i.category_id = c.id
	LEFT JOIN users u ON i.author_id = u.id
`

// buildItemPredicate assembles the shared WHERE clause for list and
// region queries using numbered placeholders.
func buildItemPredicate(f item.Filter, b *geo.Bounds) (string, []interface{}) {
	conds := []string{}
	args := []interface{}{}

	next := func() int { return len(args) + 1 }

	if b != nil {
		conds = append(conds, "i.latitude IS NOT NULL", "i.longitude IS NOT NULL")
		conds = append(conds, fmt.Sprintf("i.latitude BETWEEN $%d AND $%d", next(), next()+1))
		args = append(args, b.MinLat, b.MaxLat)
		conds = append(conds, fmt.Sprintf("i.longitude BETWEEN $%d AND $%d", next(), next()+1))
		args = append(args, b.MinLng, b.MaxLng)
	}

	if f.Status != "" {
		conds = append(conds, fmt.Sprintf("i.status = $%d", next()))
		args = append(args, f.Status)
	} else {
		conds = append(conds, "i.status != 'deleted'")
	}

	if f.Type != "" {
		conds = append(conds, fmt.Sprintf("i.type = $%d", next()))
		args = append(args, f.Type)
	}

	if f.Category != "" {
		conds = append(conds, fmt.Sprintf("c.code = $%d", next()))
		args = append(args, f.Category)
	}

	if f.Keyword != "" {
		conds = append(conds, fmt.Sprintf("(i.title ILIKE $%d OR i.description ILIKE $%d)", next(), next()))
		args = append(args, "%"+f.Keyword+"%")
	}

	if days := f.TimeRange.Days(); days > 0 {
		conds = append(conds, fmt.Sprintf("i.created_at >= now() - $%d::int * interval '1 day'", next()))
		args = append(args, days)
	}

	if len(conds) == 0 {
		return "", args
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *ItemStore) queryItems(ctx context.Context, query string, args ...interface{}) ([]item.Item, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var items []item.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning item: %w", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*item.Item, error) {
	var it item.Item
	var lat, lng *float64
	var username, avatar *string

	err := row.Scan(
		&it.ID, &it.Type, &it.Title, &it.Description, &it.CategoryID,
		&it.CategoryName, &lat, &lng,
		&it.LocationID, &it.LocationDetail,
		&it.LostDate, &it.ContactInfo, &it.ContactType, &it.Status,
		&it.AuthorID, &username, &avatar,
		&it.ViewCount, &it.CreatedAt, &it.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}

	if lat != nil && lng != nil {
		it.Location = &geo.Point{Lat: *lat, Lng: *lng}
	}
	it.Author = &item.Author{ID: it.AuthorID, Username: username, Avatar: avatar}

	return &it, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vbonduro/setasidevault/internal/domain"
)

type CollectionStore struct {
	db *sql.DB
}

func NewCollectionStore(db *sql.DB) *CollectionStore {
	return &CollectionStore{db: db}
}

const collectionColumns = `c.id, c.name, c.cover_photo, c.aspect_ratio, c.metadata, c.item_categories, c.created_at,
	(SELECT COUNT(*) FROM items i WHERE i.collection_id = c.id)`

func scanCollection(row rowScanner) (*domain.Collection, error) {
	c := &domain.Collection{}
	var cover, metadata, categories sql.NullString
	var ratio string
	if err := row.Scan(&c.ID, &c.Name, &cover, &ratio, &metadata, &categories, &c.CreatedAt, &c.ItemCount); err != nil {
		return nil, err
	}
	c.CoverPhoto = cover.String
	c.AspectRatio = domain.AspectRatio(ratio)
	if err := decodeJSONColumn(metadata, &c.Metadata); err != nil {
		return nil, err
	}
	if err := decodeJSONColumn(categories, &c.ItemCategories); err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts c, assigning a new ID and creation time. The stored row is
// returned.
func (s *CollectionStore) Create(ctx context.Context, c *domain.Collection) (*domain.Collection, error) {
	metadata, err := jsonColumn(c.Metadata, len(c.Metadata) == 0)
	if err != nil {
		return nil, err
	}
	categories, err := jsonColumn(c.ItemCategories, len(c.ItemCategories) == 0)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO collections (id, name, cover_photo, aspect_ratio, metadata, item_categories, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, c.Name, nullString(c.CoverPhoto), string(c.AspectRatio), metadata, categories, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *CollectionStore) GetByID(ctx context.Context, id string) (*domain.Collection, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+collectionColumns+` FROM collections c WHERE c.id = ?`, id)
	c, err := scanCollection(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return c, nil
}

func (s *CollectionStore) List(ctx context.Context) ([]*domain.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+collectionColumns+` FROM collections c ORDER BY c.created_at ASC, c.rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	collections := make([]*domain.Collection, 0)
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		collections = append(collections, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collections: %w", err)
	}

	return collections, nil
}

// Update overwrites the mutable fields of the collection with c.ID.
func (s *CollectionStore) Update(ctx context.Context, c *domain.Collection) error {
	metadata, err := jsonColumn(c.Metadata, len(c.Metadata) == 0)
	if err != nil {
		return err
	}
	categories, err := jsonColumn(c.ItemCategories, len(c.ItemCategories) == 0)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE collections
		SET name = ?, cover_photo = ?, aspect_ratio = ?, metadata = ?, item_categories = ?
		WHERE id = ?
	`, c.Name, nullString(c.CoverPhoto), string(c.AspectRatio), metadata, categories, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update collection: %w", err)
	}

	return requireAffected(result, "collection")
}

func (s *CollectionStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	return requireAffected(result, "collection")
}

// ListFilenames returns every cover photo filename in use.
func (s *CollectionStore) ListFilenames(ctx context.Context) ([]string, error) {
	return listStrings(ctx, s.db, `SELECT cover_photo FROM collections WHERE cover_photo IS NOT NULL AND cover_photo != ''`)
}

func requireAffected(result sql.Result, what string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s %w", what, domain.ErrNotFound)
	}

	return nil
}

func listStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		out = append(out, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return out, nil
}

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

type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

const itemColumns = `id, collection_id, title, filename, category, metadata, uploaded_at`

func scanItem(row rowScanner) (*domain.Item, error) {
	item := &domain.Item{}
	var category, metadata sql.NullString
	if err := row.Scan(&item.ID, &item.CollectionID, &item.Title, &item.Filename, &category, &metadata, &item.UploadedAt); err != nil {
		return nil, err
	}
	item.Category = category.String
	item.URL = domain.ImageURL(item.Filename)
	if err := decodeJSONColumn(metadata, &item.Metadata); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ItemStore) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	metadata, err := jsonColumn(item.Metadata, len(item.Metadata) == 0)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO items (id, collection_id, title, filename, category, metadata, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, item.CollectionID, item.Title, item.Filename, nullString(item.Category), metadata, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *ItemStore) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

func (s *ItemStore) List(ctx context.Context) ([]*domain.Item, error) {
	return s.query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY uploaded_at ASC, rowid ASC`)
}

// ListByCollectionID returns the collection's items in upload order. A
// non-empty category restricts the result to that category.
func (s *ItemStore) ListByCollectionID(ctx context.Context, collectionID, category string) ([]*domain.Item, error) {
	if category != "" {
		return s.query(ctx, `
			SELECT `+itemColumns+` FROM items
			WHERE collection_id = ? AND category = ?
			ORDER BY uploaded_at ASC, rowid ASC
		`, collectionID, category)
	}
	return s.query(ctx, `
		SELECT `+itemColumns+` FROM items
		WHERE collection_id = ?
		ORDER BY uploaded_at ASC, rowid ASC
	`, collectionID)
}

func (s *ItemStore) query(ctx context.Context, query string, args ...any) ([]*domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	items := make([]*domain.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

func (s *ItemStore) Update(ctx context.Context, item *domain.Item) error {
	metadata, err := jsonColumn(item.Metadata, len(item.Metadata) == 0)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET collection_id = ?, title = ?, filename = ?, category = ?, metadata = ? WHERE id = ?
	`, item.CollectionID, item.Title, item.Filename, nullString(item.Category), metadata, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	return requireAffected(result, "item")
}

func (s *ItemStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	return requireAffected(result, "item")
}

// ListFilenames returns every item image filename in use.
func (s *ItemStore) ListFilenames(ctx context.Context) ([]string, error) {
	return listStrings(ctx, s.db, `SELECT filename FROM items WHERE filename != ''`)
}

// ListFilenamesByCollectionID returns the image filenames of one collection's items.
func (s *ItemStore) ListFilenamesByCollectionID(ctx context.Context, collectionID string) ([]string, error) {
	return listStrings(ctx, s.db, `SELECT filename FROM items WHERE collection_id = ? AND filename != ''`, collectionID)
}

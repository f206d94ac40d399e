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

type StoryStore struct {
	db *sql.DB
}

func NewStoryStore(db *sql.DB) *StoryStore {
	return &StoryStore{db: db}
}

// StoryFilter narrows List. Empty fields match everything.
type StoryFilter struct {
	CollectionID string
	ItemID       string
}

const storyColumns = `id, title, content, item_id, collection_id, cover_image, tags, created_at, updated_at`

func scanStory(row rowScanner) (*domain.Story, error) {
	st := &domain.Story{}
	var itemID, collectionID, cover, tags sql.NullString
	var updatedAt sql.NullTime
	if err := row.Scan(&st.ID, &st.Title, &st.Content, &itemID, &collectionID, &cover, &tags, &st.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	st.ItemID = itemID.String
	st.CollectionID = collectionID.String
	st.CoverImage = cover.String
	if updatedAt.Valid {
		t := updatedAt.Time
		st.UpdatedAt = &t
	}
	if err := decodeJSONColumn(tags, &st.Tags); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *StoryStore) Create(ctx context.Context, st *domain.Story) (*domain.Story, error) {
	tags, err := jsonColumn(st.Tags, len(st.Tags) == 0)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO stories (id, title, content, item_id, collection_id, cover_image, tags, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, st.Title, st.Content, nullString(st.ItemID), nullString(st.CollectionID), nullString(st.CoverImage), tags, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create story: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *StoryStore) GetByID(ctx context.Context, id string) (*domain.Story, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+storyColumns+` FROM stories WHERE id = ?`, id)
	st, err := scanStory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return st, nil
}

// List returns stories newest first.
func (s *StoryStore) List(ctx context.Context, filter StoryFilter) ([]*domain.Story, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+storyColumns+` FROM stories
		WHERE (? = '' OR collection_id = ?) AND (? = '' OR item_id = ?)
		ORDER BY created_at DESC, rowid DESC
	`, filter.CollectionID, filter.CollectionID, filter.ItemID, filter.ItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	stories := make([]*domain.Story, 0)
	for rows.Next() {
		st, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		stories = append(stories, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stories: %w", err)
	}

	return stories, nil
}

// Update overwrites the story's fields and stamps updated_at.
func (s *StoryStore) Update(ctx context.Context, st *domain.Story) error {
	tags, err := jsonColumn(st.Tags, len(st.Tags) == 0)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE stories
		SET title = ?, content = ?, item_id = ?, collection_id = ?, cover_image = ?, tags = ?, updated_at = ?
		WHERE id = ?
	`, st.Title, st.Content, nullString(st.ItemID), nullString(st.CollectionID), nullString(st.CoverImage), tags, time.Now().UTC(), st.ID)
	if err != nil {
		return fmt.Errorf("failed to update story: %w", err)
	}

	return requireAffected(result, "story")
}

func (s *StoryStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM stories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}

	return requireAffected(result, "story")
}

// ListFilenames returns every story cover image filename in use.
func (s *StoryStore) ListFilenames(ctx context.Context) ([]string, error) {
	return listStrings(ctx, s.db, `SELECT cover_image FROM stories WHERE cover_image IS NOT NULL AND cover_image != ''`)
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vbonduro/setasidevault/internal/domain"
	"github.com/vbonduro/setasidevault/internal/store"
)

type storyRepository interface {
	Create(ctx context.Context, st *domain.Story) (*domain.Story, error)
	GetByID(ctx context.Context, id string) (*domain.Story, error)
	List(ctx context.Context, filter store.StoryFilter) ([]*domain.Story, error)
	Update(ctx context.Context, st *domain.Story) error
	Delete(ctx context.Context, id string) error
}

type itemLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Item, error)
}

// StoryInput is the client-supplied part of a story. CoverImage selects an
// already stored file when no cover is uploaded. On update a nil CoverImage
// keeps the current cover and an empty one removes it.
type StoryInput struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Content      string   `json:"content" validate:"required"`
	ItemID       string   `json:"itemId"`
	CollectionID string   `json:"collectionId"`
	CoverImage   *string  `json:"coverImage"`
	Tags         []string `json:"tags"`
}

type StoryService struct {
	stories     storyRepository
	items       itemLookup
	collections collectionLookup
	images      *Images
	logger      *slog.Logger
}

func NewStoryService(stories storyRepository, items itemLookup, collections collectionLookup, images *Images, logger *slog.Logger) *StoryService {
	return &StoryService{
		stories:     stories,
		items:       items,
		collections: collections,
		images:      images,
		logger:      logger,
	}
}

func (s *StoryService) apply(ctx context.Context, in StoryInput, st *domain.Story) error {
	in.Title = strings.TrimSpace(in.Title)
	in.ItemID = strings.TrimSpace(in.ItemID)
	in.CollectionID = strings.TrimSpace(in.CollectionID)
	if strings.TrimSpace(in.Content) == "" {
		in.Content = ""
	}
	if err := validateInput(in); err != nil {
		return err
	}

	if in.ItemID != "" {
		item, err := s.items.GetByID(ctx, in.ItemID)
		if err != nil {
			return fmt.Errorf("failed to get item: %w", err)
		}
		if item == nil {
			return fmt.Errorf("%w: item %s not found", domain.ErrInvalidRequest, in.ItemID)
		}
	}
	if in.CollectionID != "" {
		c, err := s.collections.GetByID(ctx, in.CollectionID)
		if err != nil {
			return fmt.Errorf("failed to get collection: %w", err)
		}
		if c == nil {
			return fmt.Errorf("%w: collection %s not found", domain.ErrInvalidRequest, in.CollectionID)
		}
	}

	st.Title = in.Title
	st.Content = in.Content
	st.ItemID = in.ItemID
	st.CollectionID = in.CollectionID
	st.Tags = cleanList(in.Tags)
	return nil
}

// resolveCover mirrors ItemService.resolveImage for story covers.
func (s *StoryService) resolveCover(ctx context.Context, in StoryInput, cover *Upload) (filename string, stored bool, err error) {
	if !cover.empty() {
		filename, err = s.images.Save(ctx, cover, "cover image")
		return filename, err == nil, err
	}
	if in.CoverImage != nil {
		filename = strings.TrimSpace(*in.CoverImage)
	}
	if filename == "" {
		return "", false, nil
	}
	if err := s.images.Exists(ctx, filename, "cover image"); err != nil {
		return "", false, err
	}
	return filename, false, nil
}

func (s *StoryService) Create(ctx context.Context, in StoryInput, cover *Upload) (*domain.Story, error) {
	st := &domain.Story{}
	if err := s.apply(ctx, in, st); err != nil {
		return nil, err
	}

	created, err := s.create(ctx, in, cover, st)
	if err != nil {
		return nil, err
	}

	s.logger.Info("story created", "story_id", created.ID)
	return created, nil
}

// create resolves the cover and inserts the row while holding the image lock.
func (s *StoryService) create(ctx context.Context, in StoryInput, cover *Upload, st *domain.Story) (*domain.Story, error) {
	defer s.images.lock()()

	filename, stored, err := s.resolveCover(ctx, in, cover)
	if err != nil {
		return nil, err
	}
	st.CoverImage = filename

	created, err := s.stories.Create(ctx, st)
	if err != nil {
		if stored {
			s.images.discard(ctx, filename)
		}
		return nil, fmt.Errorf("failed to create story: %w", err)
	}
	return created, nil
}

// List returns stories newest first. Empty filter fields match everything.
func (s *StoryService) List(ctx context.Context, filter store.StoryFilter) ([]*domain.Story, error) {
	stories, err := s.stories.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, nil
}

func (s *StoryService) Get(ctx context.Context, id string) (*domain.Story, error) {
	st, err := s.stories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	if st == nil {
		return nil, fmt.Errorf("story %s: %w", id, domain.ErrNotFound)
	}
	return st, nil
}

// Update replaces the story's fields. Without an upload the cover follows
// in.CoverImage: omitted keeps it, empty removes it, a filename selects a
// library file.
func (s *StoryService) Update(ctx context.Context, id string, in StoryInput, cover *Upload) (*domain.Story, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, in, st); err != nil {
		return nil, err
	}

	oldCover, err := s.update(ctx, in, cover, st)
	if err != nil {
		return nil, err
	}
	if oldCover != "" {
		s.images.Release(ctx, oldCover)
	}

	s.logger.Info("story updated", "story_id", id)
	return s.Get(ctx, id)
}

// update is the locked part of Update. It returns the replaced cover, or ""
// when the cover did not change.
func (s *StoryService) update(ctx context.Context, in StoryInput, cover *Upload, st *domain.Story) (string, error) {
	defer s.images.lock()()

	filename, stored := st.CoverImage, false
	keep := cover.empty() && (in.CoverImage == nil || strings.TrimSpace(*in.CoverImage) == st.CoverImage)
	if !keep {
		var err error
		if filename, stored, err = s.resolveCover(ctx, in, cover); err != nil {
			return "", err
		}
	}
	oldCover := st.CoverImage
	st.CoverImage = filename

	if err := s.stories.Update(ctx, st); err != nil {
		if stored {
			s.images.discard(ctx, filename)
		}
		return "", fmt.Errorf("failed to update story: %w", err)
	}
	if oldCover == filename {
		return "", nil
	}
	return oldCover, nil
}

func (s *StoryService) Delete(ctx context.Context, id string) error {
	st, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.stories.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}

	s.images.Release(ctx, st.CoverImage)
	s.logger.Info("story deleted", "story_id", id)
	return nil
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vbonduro/setasidevault/internal/domain"
)

type collectionRepository interface {
	Create(ctx context.Context, c *domain.Collection) (*domain.Collection, error)
	GetByID(ctx context.Context, id string) (*domain.Collection, error)
	List(ctx context.Context) ([]*domain.Collection, error)
	Update(ctx context.Context, c *domain.Collection) error
	Delete(ctx context.Context, id string) error
}

type collectionItemRepository interface {
	ListByCollectionID(ctx context.Context, collectionID, category string) ([]*domain.Item, error)
	ListFilenamesByCollectionID(ctx context.Context, collectionID string) ([]string, error)
}

// CollectionInput is the client-supplied part of a collection.
type CollectionInput struct {
	Name           string            `json:"name" validate:"required,max=200"`
	AspectRatio    string            `json:"aspectRatio" validate:"required"`
	Metadata       map[string]string `json:"metadata"`
	ItemCategories []string          `json:"itemCategories"`
}

type CollectionService struct {
	collections collectionRepository
	items       collectionItemRepository
	images      *Images
	logger      *slog.Logger
}

func NewCollectionService(collections collectionRepository, items collectionItemRepository, images *Images, logger *slog.Logger) *CollectionService {
	return &CollectionService{
		collections: collections,
		items:       items,
		images:      images,
		logger:      logger,
	}
}

// apply validates in and copies it onto c.
func (in CollectionInput) apply(c *domain.Collection) error {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return err
	}
	ratio, err := domain.ParseAspectRatio(in.AspectRatio)
	if err != nil {
		return err
	}
	c.Name = in.Name
	c.AspectRatio = ratio
	c.Metadata = cleanMap(in.Metadata)
	c.ItemCategories = cleanList(in.ItemCategories)
	return nil
}

func (s *CollectionService) Create(ctx context.Context, in CollectionInput, cover *Upload) (*domain.Collection, error) {
	c := &domain.Collection{}
	if err := in.apply(c); err != nil {
		return nil, err
	}

	created, err := s.create(ctx, c, cover)
	if err != nil {
		return nil, err
	}

	s.logger.Info("collection created", "collection_id", created.ID, "name", created.Name)
	return created, nil
}

// create stores the cover and inserts the row under the image lock, so the
// new file is never seen unreferenced by a media delete.
func (s *CollectionService) create(ctx context.Context, c *domain.Collection, cover *Upload) (*domain.Collection, error) {
	defer s.images.lock()()

	filename, err := s.images.Save(ctx, cover, "cover photo")
	if err != nil {
		return nil, err
	}
	c.CoverPhoto = filename

	created, err := s.collections.Create(ctx, c)
	if err != nil {
		s.images.discard(ctx, filename)
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	return created, nil
}

func (s *CollectionService) List(ctx context.Context) ([]*domain.Collection, error) {
	collections, err := s.collections.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return collections, nil
}

func (s *CollectionService) Get(ctx context.Context, id string) (*domain.Collection, error) {
	c, err := s.collections.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("collection %s: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

// Update replaces the collection's fields. A nil cover keeps the current
// cover photo; otherwise the old file is released once the row is saved.
func (s *CollectionService) Update(ctx context.Context, id string, in CollectionInput, cover *Upload) (*domain.Collection, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(c); err != nil {
		return nil, err
	}

	oldCover, err := s.update(ctx, c, cover)
	if err != nil {
		return nil, err
	}
	if oldCover != "" {
		s.images.Release(ctx, oldCover)
	}

	s.logger.Info("collection updated", "collection_id", id)
	return s.Get(ctx, id)
}

// update is the locked part of Update. It returns the replaced cover, or ""
// when no cover was uploaded.
func (s *CollectionService) update(ctx context.Context, c *domain.Collection, cover *Upload) (string, error) {
	defer s.images.lock()()

	oldCover := ""
	if !cover.empty() {
		filename, err := s.images.Save(ctx, cover, "cover photo")
		if err != nil {
			return "", err
		}
		oldCover = c.CoverPhoto
		c.CoverPhoto = filename
	}

	if err := s.collections.Update(ctx, c); err != nil {
		if oldCover != "" {
			s.images.discard(ctx, c.CoverPhoto)
		}
		return "", fmt.Errorf("failed to update collection: %w", err)
	}
	return oldCover, nil
}

// Delete removes the collection and its items, then releases their files.
func (s *CollectionService) Delete(ctx context.Context, id string) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	filenames, err := s.items.ListFilenamesByCollectionID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list item images: %w", err)
	}

	if err := s.collections.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	s.images.Release(ctx, append(filenames, c.CoverPhoto)...)
	s.logger.Info("collection deleted", "collection_id", id, "items", len(filenames))
	return nil
}

// ListItems returns the collection's items in upload order, optionally
// limited to one category.
func (s *CollectionService) ListItems(ctx context.Context, id, category string) ([]*domain.Item, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	items, err := s.items.ListByCollectionID(ctx, id, strings.TrimSpace(category))
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

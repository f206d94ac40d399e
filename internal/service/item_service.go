package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/vbonduro/setasidevault/internal/domain"
	"github.com/vbonduro/setasidevault/internal/vision"
)

type itemRepository interface {
	Create(ctx context.Context, item *domain.Item) (*domain.Item, error)
	GetByID(ctx context.Context, id string) (*domain.Item, error)
	List(ctx context.Context) ([]*domain.Item, error)
	Update(ctx context.Context, item *domain.Item) error
	Delete(ctx context.Context, id string) error
}

type collectionLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Collection, error)
}

// ItemInput is the client-supplied part of an item. Filename selects an
// already stored file when no image is uploaded.
type ItemInput struct {
	CollectionID string            `json:"collectionId" validate:"required"`
	Title        string            `json:"title" validate:"required,max=200"`
	Category     string            `json:"category"`
	Metadata     map[string]string `json:"metadata"`
	Filename     string            `json:"filename"`
}

type ItemService struct {
	items       itemRepository
	collections collectionLookup
	images      *Images
	describer   vision.Describer
	logger      *slog.Logger
}

// NewItemService creates an ItemService. describer may be nil, in which case
// Describe reports domain.ErrUnavailable.
func NewItemService(items itemRepository, collections collectionLookup, images *Images, describer vision.Describer, logger *slog.Logger) *ItemService {
	return &ItemService{
		items:       items,
		collections: collections,
		images:      images,
		describer:   describer,
		logger:      logger,
	}
}

// apply validates in against its collection and copies it onto item.
func (s *ItemService) apply(ctx context.Context, in ItemInput, item *domain.Item) error {
	in.CollectionID = strings.TrimSpace(in.CollectionID)
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	if err := validateInput(in); err != nil {
		return err
	}

	c, err := s.collections.GetByID(ctx, in.CollectionID)
	if err != nil {
		return fmt.Errorf("failed to get collection: %w", err)
	}
	if c == nil {
		return fmt.Errorf("%w: collection %s not found", domain.ErrInvalidRequest, in.CollectionID)
	}
	if in.Category != "" && len(c.ItemCategories) > 0 && !slices.Contains(c.ItemCategories, in.Category) {
		return fmt.Errorf("%w: category %q is not defined for collection %s", domain.ErrInvalidRequest, in.Category, c.Name)
	}

	item.CollectionID = in.CollectionID
	item.Title = in.Title
	item.Category = in.Category
	item.Metadata = cleanMap(in.Metadata)
	return nil
}

// resolveImage returns the file an item should point at: a freshly stored
// upload, or an existing library file named by in.Filename. stored reports
// whether the file was written by this call.
func (s *ItemService) resolveImage(ctx context.Context, in ItemInput, image *Upload) (filename string, stored bool, err error) {
	if !image.empty() {
		filename, err = s.images.Save(ctx, image, "item image")
		return filename, err == nil, err
	}
	filename = strings.TrimSpace(in.Filename)
	if filename == "" {
		return "", false, nil
	}
	if err := s.images.Exists(ctx, filename, "item image"); err != nil {
		return "", false, err
	}
	return filename, false, nil
}

func (s *ItemService) Create(ctx context.Context, in ItemInput, image *Upload) (*domain.Item, error) {
	item := &domain.Item{}
	if err := s.apply(ctx, in, item); err != nil {
		return nil, err
	}

	created, err := s.create(ctx, in, image, item)
	if err != nil {
		return nil, err
	}

	s.logger.Info("item created", "item_id", created.ID, "collection_id", created.CollectionID)
	return created, nil
}

// create resolves the image and inserts the row while holding the image
// lock, so a library file cannot be deleted in between.
func (s *ItemService) create(ctx context.Context, in ItemInput, image *Upload, item *domain.Item) (*domain.Item, error) {
	defer s.images.lock()()

	filename, stored, err := s.resolveImage(ctx, in, image)
	if err != nil {
		return nil, err
	}
	if filename == "" {
		return nil, fmt.Errorf("%w: item image is required", domain.ErrInvalidRequest)
	}
	item.Filename = filename

	created, err := s.items.Create(ctx, item)
	if err != nil {
		if stored {
			s.images.discard(ctx, filename)
		}
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return created, nil
}

func (s *ItemService) List(ctx context.Context) ([]*domain.Item, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

func (s *ItemService) Get(ctx context.Context, id string) (*domain.Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	return item, nil
}

// Update replaces the item's fields. The image changes when a new file is
// uploaded or a different library filename is given; the previous file is
// released afterwards.
func (s *ItemService) Update(ctx context.Context, id string, in ItemInput, image *Upload) (*domain.Item, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, in, item); err != nil {
		return nil, err
	}

	if image.empty() && strings.TrimSpace(in.Filename) == item.Filename {
		in.Filename = ""
	}
	oldFilename, err := s.update(ctx, in, image, item)
	if err != nil {
		return nil, err
	}
	if oldFilename != "" {
		s.images.Release(ctx, oldFilename)
	}

	s.logger.Info("item updated", "item_id", id)
	return s.Get(ctx, id)
}

// update is the locked part of Update. It returns the replaced filename, or
// "" when the image did not change.
func (s *ItemService) update(ctx context.Context, in ItemInput, image *Upload, item *domain.Item) (string, error) {
	defer s.images.lock()()

	filename, stored, err := s.resolveImage(ctx, in, image)
	if err != nil {
		return "", err
	}
	oldFilename := ""
	if filename != "" {
		oldFilename = item.Filename
		item.Filename = filename
	}

	if err := s.items.Update(ctx, item); err != nil {
		if stored {
			s.images.discard(ctx, filename)
		}
		return "", fmt.Errorf("failed to update item: %w", err)
	}
	return oldFilename, nil
}

func (s *ItemService) Delete(ctx context.Context, id string) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.items.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	s.images.Release(ctx, item.Filename)
	s.logger.Info("item deleted", "item_id", id)
	return nil
}

// Describe asks the vision backend for a suggested title and metadata for the
// item's image. Nothing is saved.
func (s *ItemService) Describe(ctx context.Context, id string) (*vision.Description, error) {
	if s.describer == nil {
		return nil, fmt.Errorf("photo description: %w", domain.ErrUnavailable)
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rc, mimeType, err := s.images.store.Open(ctx, item.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open item image: %w", err)
	}
	defer func() {
		if err := rc.Close(); err != nil {
			s.logger.Error("failed to close item image", "item_id", id, "error", err)
		}
	}()

	desc, err := s.describer.Describe(ctx, rc, mimeType)
	if err != nil {
		s.logger.Error("vision describe failed", "item_id", id, "error", err)
		return nil, fmt.Errorf("failed to describe item: %w", err)
	}

	s.logger.Info("item described", "item_id", id, "fields", len(desc.Metadata))
	return desc, nil
}

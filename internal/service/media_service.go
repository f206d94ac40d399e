package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vbonduro/setasidevault/internal/domain"
)

// BulkUploadResult reports which files were stored and why others were skipped.
type BulkUploadResult struct {
	Filenames []string
	Skipped   []string
}

// MediaService manages the pool of stored image files.
type MediaService struct {
	images *Images
	logger *slog.Logger
}

func NewMediaService(images *Images, logger *slog.Logger) *MediaService {
	return &MediaService{images: images, logger: logger}
}

// BulkUpload stores every acceptable file. Files that are empty, not images,
// or too large are skipped with a reason. It fails only when nothing was stored.
func (s *MediaService) BulkUpload(ctx context.Context, uploads []*Upload) (*BulkUploadResult, error) {
	if len(uploads) == 0 {
		return nil, fmt.Errorf("%w: no files provided", domain.ErrInvalidRequest)
	}

	result := &BulkUploadResult{Filenames: make([]string, 0, len(uploads))}
	for i, up := range uploads {
		name := fmt.Sprintf("file %d", i+1)
		if up != nil && up.Filename != "" {
			name = up.Filename
		}

		filename, err := s.images.Save(ctx, up, name)
		if err != nil {
			if !errors.Is(err, domain.ErrInvalidRequest) {
				s.logger.Error("bulk upload failed to store file", "file", name, "error", err)
			}
			result.Skipped = append(result.Skipped, reason(err))
			continue
		}
		result.Filenames = append(result.Filenames, filename)
	}

	if len(result.Filenames) == 0 {
		return nil, fmt.Errorf("%w: no files were uploaded: %s", domain.ErrInvalidRequest, strings.Join(result.Skipped, "; "))
	}

	s.logger.Info("bulk upload", "stored", len(result.Filenames), "skipped", len(result.Skipped))
	return result, nil
}

// Unused returns stored files that no collection, item, or story references,
// oldest first.
func (s *MediaService) Unused(ctx context.Context) ([]*domain.MediaFile, error) {
	files, err := s.images.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	used, err := s.images.Used(ctx)
	if err != nil {
		return nil, err
	}

	unused := make([]*domain.MediaFile, 0, len(files))
	for _, f := range files {
		if !used[f.Filename] {
			unused = append(unused, f)
		}
	}
	return unused, nil
}

// Delete removes one unreferenced file.
func (s *MediaService) Delete(ctx context.Context, filename string) error {
	defer s.images.lock()()

	used, err := s.images.Used(ctx)
	if err != nil {
		return err
	}
	if err := s.deleteOne(ctx, filename, used); err != nil {
		return err
	}
	s.logger.Info("media deleted", "filename", filename)
	return nil
}

// BulkDelete removes every listed file that exists and is unreferenced, and
// returns how many were deleted. Individual failures are logged and skipped.
func (s *MediaService) BulkDelete(ctx context.Context, filenames []string) (int, error) {
	if len(filenames) == 0 {
		return 0, fmt.Errorf("%w: no filenames provided", domain.ErrInvalidRequest)
	}

	defer s.images.lock()()
	used, err := s.images.Used(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, f := range filenames {
		if err := s.deleteOne(ctx, f, used); err != nil {
			s.logger.Warn("bulk delete skipped file", "filename", f, "error", err)
			continue
		}
		deleted++
	}

	s.logger.Info("bulk media delete", "requested", len(filenames), "deleted", deleted)
	return deleted, nil
}

// deleteOne must be called with the image lock held and used computed under it.
func (s *MediaService) deleteOne(ctx context.Context, filename string, used map[string]bool) error {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return fmt.Errorf("%w: filename is required", domain.ErrInvalidRequest)
	}
	if used[filename] {
		return fmt.Errorf("%w: %s is in use", domain.ErrInvalidRequest, filename)
	}
	if err := s.images.store.Delete(ctx, filename); err != nil {
		return fmt.Errorf("failed to delete %s: %w", filename, err)
	}
	return nil
}

// reason strips the sentinel prefix so skip reasons read cleanly.
func reason(err error) string {
	return strings.TrimPrefix(err.Error(), domain.ErrInvalidRequest.Error()+": ")
}

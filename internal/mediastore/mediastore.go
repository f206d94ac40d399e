package mediastore

import (
	"context"
	"io"

	"github.com/vbonduro/setasidevault/internal/domain"
)

// Store holds uploaded image files addressed by generated filenames.
// Missing files are reported as domain.ErrNotFound.
type Store interface {
	Save(ctx context.Context, mimeType string, r io.Reader) (filename string, err error)
	Open(ctx context.Context, filename string) (io.ReadCloser, string, error)
	Stat(ctx context.Context, filename string) (*domain.MediaFile, error)
	Delete(ctx context.Context, filename string) error
	List(ctx context.Context) ([]*domain.MediaFile, error)
}

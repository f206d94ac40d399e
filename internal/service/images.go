package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/vbonduro/setasidevault/internal/domain"
	"github.com/vbonduro/setasidevault/internal/mediastore"
)

// Upload is one file received from a client.
type Upload struct {
	Filename string
	Data     []byte
}

func (u *Upload) empty() bool {
	return u == nil || len(u.Data) == 0
}

// allowedImageTypes is the set of MIME types accepted for uploaded images.
// net/http.DetectContentType identifies all of them from magic bytes,
// including WebP ("RIFF....WEBPVP").
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// DetectImageMIME returns the detected MIME type and true if data is an
// accepted image format, or ("", false) otherwise.
func DetectImageMIME(data []byte) (string, bool) {
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// filenameLister is implemented by every store whose rows reference image files.
type filenameLister interface {
	ListFilenames(ctx context.Context) ([]string, error)
}

// Images saves uploads to the media store and removes files once nothing
// references them. Deciding that a file is unreferenced and deleting it
// happens under mu, as does pointing a row at an existing file, so a file
// is never deleted after a row has started to reference it.
type Images struct {
	mu       sync.Mutex
	store    mediastore.Store
	refs     []filenameLister
	maxBytes int64
	logger   *slog.Logger
}

func NewImages(store mediastore.Store, maxBytes int64, logger *slog.Logger, refs ...filenameLister) *Images {
	return &Images{store: store, refs: refs, maxBytes: maxBytes, logger: logger}
}

// check validates an upload's type and size. label names the field in errors.
func (im *Images) check(up *Upload, label string) (string, error) {
	if up.empty() {
		return "", fmt.Errorf("%w: %s is required", domain.ErrInvalidRequest, label)
	}
	if int64(len(up.Data)) > im.maxBytes {
		return "", fmt.Errorf("%w: %s must be less than %s", domain.ErrInvalidRequest, label, formatSize(im.maxBytes))
	}
	mimeType, ok := DetectImageMIME(up.Data)
	if !ok {
		return "", fmt.Errorf("%w: %s must be an image file", domain.ErrInvalidRequest, label)
	}
	return mimeType, nil
}

// Save validates and stores an upload, returning the stored filename.
func (im *Images) Save(ctx context.Context, up *Upload, label string) (string, error) {
	mimeType, err := im.check(up, label)
	if err != nil {
		return "", err
	}
	filename, err := im.store.Save(ctx, mimeType, bytes.NewReader(up.Data))
	if err != nil {
		return "", fmt.Errorf("failed to store %s: %w", label, err)
	}
	im.logger.Debug("image stored", "filename", filename, "original", up.Filename, "bytes", len(up.Data))
	return filename, nil
}

// Exists reports a missing stored file as ErrInvalidRequest, since callers use
// it to validate client-supplied references into the media library.
func (im *Images) Exists(ctx context.Context, filename, label string) error {
	if _, err := im.store.Stat(ctx, filename); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidRequest) {
			return fmt.Errorf("%w: %s %q does not exist", domain.ErrInvalidRequest, label, filename)
		}
		return fmt.Errorf("failed to check %s: %w", label, err)
	}
	return nil
}

// Used returns the set of filenames referenced by any row.
func (im *Images) Used(ctx context.Context) (map[string]bool, error) {
	used := make(map[string]bool)
	for _, ref := range im.refs {
		names, err := ref.ListFilenames(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list referenced files: %w", err)
		}
		for _, n := range names {
			used[n] = true
		}
	}
	return used, nil
}

// lock serialises reference checks against file deletion. The returned
// func releases it.
func (im *Images) lock() func() {
	im.mu.Lock()
	return im.mu.Unlock
}

// Release deletes each file that is no longer referenced. Failures are logged
// and never returned.
func (im *Images) Release(ctx context.Context, filenames ...string) {
	var pending []string
	for _, f := range filenames {
		if f != "" {
			pending = append(pending, f)
		}
	}
	if len(pending) == 0 {
		return
	}

	defer im.lock()()
	used, err := im.Used(ctx)
	if err != nil {
		im.logger.Error("failed to check file references", "error", err)
		return
	}
	for _, f := range pending {
		if used[f] {
			continue
		}
		if err := im.store.Delete(ctx, f); err != nil && !errors.Is(err, domain.ErrNotFound) {
			im.logger.Error("failed to delete image", "filename", f, "error", err)
			continue
		}
		used[f] = true
		im.logger.Debug("image deleted", "filename", f)
	}
}

// discard removes a file stored during a request that then failed.
func (im *Images) discard(ctx context.Context, filename string) {
	if err := im.store.Delete(ctx, filename); err != nil {
		im.logger.Error("failed to roll back stored image", "filename", filename, "error", err)
	}
}

func formatSize(n int64) string {
	const mb = 1024 * 1024
	if n >= mb && n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}

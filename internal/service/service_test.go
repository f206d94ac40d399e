package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vbonduro/setasidevault/internal/db"
	"github.com/vbonduro/setasidevault/internal/domain"
	"github.com/vbonduro/setasidevault/internal/store"
	"github.com/vbonduro/setasidevault/internal/vision"
)

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 32)...)
	webpBytes = append([]byte("RIFF\x00\x00\x00\x00WEBPVP8 "), make([]byte, 32)...)
)

func strPtr(s string) *string { return &s }

func pngUpload(name string) *Upload {
	return &Upload{Filename: name, Data: pngBytes}
}

// stubMediaStore is a minimal in-memory mediastore.Store for tests.
type stubMediaStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	seq     int
	saveErr error
}

func newStubMediaStore() *stubMediaStore {
	return &stubMediaStore{files: make(map[string][]byte)}
}

func (s *stubMediaStore) Save(_ context.Context, _ string, r io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	name := fmt.Sprintf("file-%03d.png", s.seq)
	s.files[name] = data
	return name, nil
}

func (s *stubMediaStore) Open(_ context.Context, filename string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[filename]
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), "image/png", nil
}

func (s *stubMediaStore) Stat(_ context.Context, filename string) (*domain.MediaFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[filename]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.MediaFile{Filename: filename, Size: int64(len(data)), URL: domain.ImageURL(filename)}, nil
}

func (s *stubMediaStore) Delete(_ context.Context, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[filename]; !ok {
		return domain.ErrNotFound
	}
	delete(s.files, filename)
	return nil
}

func (s *stubMediaStore) List(_ context.Context) ([]*domain.MediaFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.MediaFile, 0, len(s.files))
	for name, data := range s.files {
		out = append(out, &domain.MediaFile{
			Filename:  name,
			Size:      int64(len(data)),
			CreatedAt: time.Unix(0, 0),
			URL:       domain.ImageURL(name),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

func (s *stubMediaStore) has(filename string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[filename]
	return ok
}

func (s *stubMediaStore) put(filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[filename] = pngBytes
}

// stubDescriber is a minimal vision.Describer for tests.
type stubDescriber struct {
	desc     *vision.Description
	err      error
	gotMIME  string
	gotBytes int
}

func (s *stubDescriber) Describe(_ context.Context, r io.Reader, mimeType string) (*vision.Description, error) {
	data, _ := io.ReadAll(r)
	s.gotMIME = mimeType
	s.gotBytes = len(data)
	return s.desc, s.err
}

type testServices struct {
	collections     *CollectionService
	items           *ItemService
	stories         *StoryService
	media           *MediaService
	files           *stubMediaStore
	describer       *stubDescriber
	images          *Images
	collectionStore *store.CollectionStore
	itemStore       *store.ItemStore
	logger          *slog.Logger
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	collectionStore := store.NewCollectionStore(d)
	itemStore := store.NewItemStore(d)
	storyStore := store.NewStoryStore(d)
	files := newStubMediaStore()
	describer := &stubDescriber{}

	images := NewImages(files, 1024, logger, collectionStore, itemStore, storyStore)
	return &testServices{
		collections:     NewCollectionService(collectionStore, itemStore, images, logger),
		items:           NewItemService(itemStore, collectionStore, images, describer, logger),
		stories:         NewStoryService(storyStore, itemStore, collectionStore, images, logger),
		media:           NewMediaService(images, logger),
		files:           files,
		describer:       describer,
		images:          images,
		collectionStore: collectionStore,
		itemStore:       itemStore,
		logger:          logger,
	}
}

func (ts *testServices) createCollection(t *testing.T, name string, categories ...string) *domain.Collection {
	t.Helper()
	c, err := ts.collections.Create(context.Background(), CollectionInput{
		Name:           name,
		AspectRatio:    "square",
		ItemCategories: categories,
	}, pngUpload("cover.png"))
	require.NoError(t, err)
	return c
}

func (ts *testServices) createItem(t *testing.T, collectionID, title string) *domain.Item {
	t.Helper()
	item, err := ts.items.Create(context.Background(), ItemInput{
		CollectionID: collectionID,
		Title:        title,
	}, pngUpload(title+".png"))
	require.NoError(t, err)
	return item
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/setasidevault/internal/domain"
	"github.com/vbonduro/setasidevault/internal/vision"
)

func TestItemServiceCreate(t *testing.T) {
	ts := newTestServices(t)
	c := ts.createCollection(t, "Cards", "Rookie")

	item, err := ts.items.Create(context.Background(), ItemInput{
		CollectionID: c.ID,
		Title:        " Ace of Spades ",
		Category:     "Rookie",
		Metadata:     map[string]string{"Year": "1952"},
	}, pngUpload("ace.png"))
	require.NoError(t, err)

	assert.Equal(t, "Ace of Spades", item.Title)
	assert.Equal(t, c.ID, item.CollectionID)
	assert.Equal(t, "Rookie", item.Category)
	assert.Equal(t, domain.ImageURL(item.Filename), item.URL)
	assert.True(t, ts.files.has(item.Filename))
}

func TestItemServiceCreate_FromLibraryFile(t *testing.T) {
	ts := newTestServices(t)
	c := ts.createCollection(t, "Cards")
	ts.files.put("library.png")

	item, err := ts.items.Create(context.Background(), ItemInput{
		CollectionID: c.ID,
		Title:        "From library",
		Filename:     "library.png",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "library.png", item.Filename)
}

func TestItemServiceCreate_Validation(t *testing.T) {
	ts := newTestServices(t)
	c := ts.createCollection(t, "Cards", "Rookie")

	tests := []struct {
		name    string
		in      ItemInput
		image   *Upload
		wantMsg string
	}{
		{"missing collection id", ItemInput{Title: "x"}, pngUpload("x.png"), "collectionId is required"},
		{"unknown collection", ItemInput{CollectionID: "nope", Title: "x"}, pngUpload("x.png"), "collection nope not found"},
		{"missing title", ItemInput{CollectionID: c.ID}, pngUpload("x.png"), "title is required"},
		{"undefined category", ItemInput{CollectionID: c.ID, Title: "x", Category: "Veteran"}, pngUpload("x.png"), "category \"Veteran\""},
		{"no image", ItemInput{CollectionID: c.ID, Title: "x"}, nil, "item image is required"},
		{"unknown library file", ItemInput{CollectionID: c.ID, Title: "x", Filename: "ghost.png"}, nil, "does not exist"},
		{"not an image", ItemInput{CollectionID: c.ID, Title: "x"}, &Upload{Data: []byte("text")}, "must be an image file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.items.Create(context.Background(), tt.in, tt.image)
			require.ErrorIs(t, err, domain.ErrInvalidRequest)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	items, err := ts.items.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestItemServiceUpdate_ReplacesImage(t *testing.T) {
	ts := newTestServices(t)
	c := ts.createCollection(t, "Cards")
	item := ts.createItem(t, c.ID, "Ace")

	updated, err := ts.items.Update(context.Background(), item.ID, ItemInput{
		CollectionID: c.ID,
		Title:        "Ace (graded)",
		Metadata:     map[string]string{"Grade": "9"},
	}, &Upload{Filename: "ace2.webp", Data: webpBytes})
	require.NoError(t, err)

	assert.Equal(t, "Ace (graded)", updated.Title)
	assert.Equal(t, map[string]string{"Grade": "9"}, updated.Metadata)
	assert.NotEqual(t, item.Filename, updated.Filename)
	assert.False(t, ts.files.has(item.Filename))
	assert.True(t, ts.files.has(updated.Filename))
}

func TestItemServiceUpdate_KeepsImageWithoutUpload(t *testing.T) {
	ts := newTestServices(t)
	c := ts.createCollection(t, "Cards")
	item := ts.createItem(t, c.ID, "Ace")

	updated, err := ts.items.Update(context.Background(), item.ID, ItemInput{
		CollectionID: c.ID,
		Title:        "Ace",
		Filename:     item.Filename,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, item.Filename, updated.Filename)
	assert.True(t, ts.files.has(item.Filename))
}

func TestItemServiceUpdate_MovesBetweenCollections(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	a := ts.createCollection(t, "A")
	b := ts.createCollection(t, "B")
	item := ts.createItem(t, a.ID, "Traveller")

	_, err := ts.items.Update(ctx, item.ID, ItemInput{CollectionID: b.ID, Title: "Traveller"}, nil)
	require.NoError(t, err)

	inA, err := ts.collections.ListItems(ctx, a.ID, "")
	require.NoError(t, err)
	assert.Empty(t, inA)
	inB, err := ts.collections.ListItems(ctx, b.ID, "")
	require.NoError(t, err)
	assert.Len(t, inB, 1)
}

func TestItemServiceUpdate_NotFound(t *testing.T) {
	ts := newTestServices(t)
	_, err := ts.items.Update(context.Background(), "missing", ItemInput{CollectionID: "x", Title: "x"}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemServiceDelete(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	c := ts.createCollection(t, "Cards")
	item := ts.createItem(t, c.ID, "Ace")

	require.NoError(t, ts.items.Delete(ctx, item.ID))

	_, err := ts.items.Get(ctx, item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, ts.files.has(item.Filename))
	assert.ErrorIs(t, ts.items.Delete(ctx, item.ID), domain.ErrNotFound)
}

func TestItemServiceDelete_SharedFileKept(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	c := ts.createCollection(t, "Cards")
	ts.files.put("shared.png")

	first, err := ts.items.Create(ctx, ItemInput{CollectionID: c.ID, Title: "One", Filename: "shared.png"}, nil)
	require.NoError(t, err)
	_, err = ts.items.Create(ctx, ItemInput{CollectionID: c.ID, Title: "Two", Filename: "shared.png"}, nil)
	require.NoError(t, err)

	require.NoError(t, ts.items.Delete(ctx, first.ID))
	assert.True(t, ts.files.has("shared.png"))
}

func TestItemServiceDescribe(t *testing.T) {
	ts := newTestServices(t)
	c := ts.createCollection(t, "Cards")
	item := ts.createItem(t, c.ID, "Ace")
	ts.describer.desc = &vision.Description{Title: "Ace of Spades", Metadata: map[string]string{"Condition": "Mint"}}

	desc, err := ts.items.Describe(context.Background(), item.ID)
	require.NoError(t, err)

	assert.Equal(t, "Ace of Spades", desc.Title)
	assert.Equal(t, "image/png", ts.describer.gotMIME)
	assert.Equal(t, len(pngBytes), ts.describer.gotBytes)

	got, err := ts.items.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ace", got.Title)
}

func TestItemServiceDescribe_Errors(t *testing.T) {
	ts := newTestServices(t)
	c := ts.createCollection(t, "Cards")
	item := ts.createItem(t, c.ID, "Ace")

	_, err := ts.items.Describe(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ts.describer.err = errors.New("model offline")
	_, err = ts.items.Describe(context.Background(), item.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model offline")

	ts.items.describer = nil
	_, err = ts.items.Describe(context.Background(), item.ID)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

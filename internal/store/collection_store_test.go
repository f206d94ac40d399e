package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/setasidevault/internal/domain"
)

func TestCollectionStoreCreate(t *testing.T) {
	s := NewCollectionStore(openTestDB(t))
	ctx := context.Background()

	c, err := s.Create(ctx, &domain.Collection{
		Name:           "Baseball Cards",
		AspectRatio:    domain.AspectPortrait,
		CoverPhoto:     "cover.jpg",
		Metadata:       map[string]string{"Description": "Vintage cards"},
		ItemCategories: []string{"Rookie", "Hall of Fame"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Baseball Cards", c.Name)
	assert.Equal(t, domain.AspectPortrait, c.AspectRatio)
	assert.Equal(t, "cover.jpg", c.CoverPhoto)
	assert.Equal(t, "Vintage cards", c.Metadata["Description"])
	assert.Equal(t, []string{"Rookie", "Hall of Fame"}, c.ItemCategories)
	assert.Zero(t, c.ItemCount)
	assert.False(t, c.CreatedAt.IsZero())
}

func TestCollectionStoreGetByID_NotFound(t *testing.T) {
	s := NewCollectionStore(openTestDB(t))

	c, err := s.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestCollectionStoreList_CreationOrderWithCounts(t *testing.T) {
	d := openTestDB(t)
	collections := NewCollectionStore(d)
	items := NewItemStore(d)

	cards := createCollection(t, collections, "Baseball Cards")
	createCollection(t, collections, "Farm Country")
	createItem(t, items, cards.ID, "Rookie Card", "")
	createItem(t, items, cards.ID, "MVP Card", "")

	list, err := collections.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Baseball Cards", list[0].Name)
	assert.Equal(t, 2, list[0].ItemCount)
	assert.Equal(t, "Farm Country", list[1].Name)
	assert.Equal(t, 0, list[1].ItemCount)
}

func TestCollectionStoreList_Empty(t *testing.T) {
	s := NewCollectionStore(openTestDB(t))

	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestCollectionStoreUpdate(t *testing.T) {
	s := NewCollectionStore(openTestDB(t))
	ctx := context.Background()

	c := createCollection(t, s, "Pokemon")
	c.Name = "Pokemon TCG"
	c.AspectRatio = domain.AspectLandscape
	c.Metadata = map[string]string{"Era": "Base set"}
	c.CoverPhoto = "new-cover.png"
	require.NoError(t, s.Update(ctx, c))

	got, err := s.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pokemon TCG", got.Name)
	assert.Equal(t, domain.AspectLandscape, got.AspectRatio)
	assert.Equal(t, "Base set", got.Metadata["Era"])
	assert.Equal(t, "new-cover.png", got.CoverPhoto)
	assert.Equal(t, c.CreatedAt.Unix(), got.CreatedAt.Unix())
}

func TestCollectionStoreUpdate_NotFound(t *testing.T) {
	s := NewCollectionStore(openTestDB(t))

	err := s.Update(context.Background(), &domain.Collection{ID: "missing", Name: "x", AspectRatio: domain.AspectSquare})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCollectionStoreDelete_CascadesItems(t *testing.T) {
	d := openTestDB(t)
	collections := NewCollectionStore(d)
	items := NewItemStore(d)
	ctx := context.Background()

	c := createCollection(t, collections, "Temp")
	item := createItem(t, items, c.ID, "Card", "")

	require.NoError(t, collections.Delete(ctx, c.ID))

	got, err := collections.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	gone, err := items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestCollectionStoreDelete_NotFound(t *testing.T) {
	s := NewCollectionStore(openTestDB(t))

	err := s.Delete(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCollectionStoreListFilenames(t *testing.T) {
	s := NewCollectionStore(openTestDB(t))
	ctx := context.Background()

	createCollection(t, s, "A")
	_, err := s.Create(ctx, &domain.Collection{Name: "No cover", AspectRatio: domain.AspectSquare})
	require.NoError(t, err)

	names, err := s.ListFilenames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A.jpg"}, names)
}

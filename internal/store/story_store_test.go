package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/setasidevault/internal/domain"
)

func TestStoryStoreCreate(t *testing.T) {
	d := openTestDB(t)
	collections := NewCollectionStore(d)
	stories := NewStoryStore(d)
	ctx := context.Background()

	c := createCollection(t, collections, "Baseball Auto")

	st, err := stories.Create(ctx, &domain.Story{
		Title:        "Meeting my hero",
		Content:      "He signed the ball after the game.",
		CollectionID: c.ID,
		CoverImage:   "ball.jpg",
		Tags:         []string{"autograph", "1998"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, st.ID)
	assert.Equal(t, "Meeting my hero", st.Title)
	assert.Equal(t, c.ID, st.CollectionID)
	assert.Empty(t, st.ItemID)
	assert.Equal(t, []string{"autograph", "1998"}, st.Tags)
	assert.Nil(t, st.UpdatedAt)
}

func TestStoryStoreList_NewestFirstAndFiltered(t *testing.T) {
	d := openTestDB(t)
	collections := NewCollectionStore(d)
	items := NewItemStore(d)
	stories := NewStoryStore(d)
	ctx := context.Background()

	c := createCollection(t, collections, "Cards")
	item := createItem(t, items, c.ID, "Rookie", "")

	_, err := stories.Create(ctx, &domain.Story{Title: "first", Content: "a"})
	require.NoError(t, err)
	_, err = stories.Create(ctx, &domain.Story{Title: "second", Content: "b", CollectionID: c.ID})
	require.NoError(t, err)
	_, err = stories.Create(ctx, &domain.Story{Title: "third", Content: "c", CollectionID: c.ID, ItemID: item.ID})
	require.NoError(t, err)

	all, err := stories.List(ctx, StoryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Title)
	assert.Equal(t, "first", all[2].Title)

	byCollection, err := stories.List(ctx, StoryFilter{CollectionID: c.ID})
	require.NoError(t, err)
	assert.Len(t, byCollection, 2)

	byItem, err := stories.List(ctx, StoryFilter{ItemID: item.ID})
	require.NoError(t, err)
	require.Len(t, byItem, 1)
	assert.Equal(t, "third", byItem[0].Title)
}

func TestStoryStoreUpdate_SetsUpdatedAt(t *testing.T) {
	stories := NewStoryStore(openTestDB(t))
	ctx := context.Background()

	st, err := stories.Create(ctx, &domain.Story{Title: "Draft", Content: "tbd"})
	require.NoError(t, err)

	st.Title = "Final"
	st.Tags = []string{"done"}
	require.NoError(t, stories.Update(ctx, st))

	got, err := stories.GetByID(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
	assert.Equal(t, []string{"done"}, got.Tags)
	require.NotNil(t, got.UpdatedAt)
}

func TestStoryStore_ReferenceClearedOnItemDelete(t *testing.T) {
	d := openTestDB(t)
	collections := NewCollectionStore(d)
	items := NewItemStore(d)
	stories := NewStoryStore(d)
	ctx := context.Background()

	c := createCollection(t, collections, "Cards")
	item := createItem(t, items, c.ID, "Rookie", "")
	st, err := stories.Create(ctx, &domain.Story{Title: "t", Content: "c", ItemID: item.ID})
	require.NoError(t, err)

	require.NoError(t, items.Delete(ctx, item.ID))

	got, err := stories.GetByID(ctx, st.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.ItemID)
}

func TestStoryStoreDelete(t *testing.T) {
	stories := NewStoryStore(openTestDB(t))
	ctx := context.Background()

	st, err := stories.Create(ctx, &domain.Story{Title: "t", Content: "c"})
	require.NoError(t, err)
	require.NoError(t, stories.Delete(ctx, st.ID))

	got, err := stories.GetByID(ctx, st.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.True(t, errors.Is(stories.Delete(ctx, st.ID), domain.ErrNotFound))
}

func TestStoryStoreListFilenames(t *testing.T) {
	stories := NewStoryStore(openTestDB(t))
	ctx := context.Background()

	_, err := stories.Create(ctx, &domain.Story{Title: "t", Content: "c", CoverImage: "story.jpg"})
	require.NoError(t, err)
	_, err = stories.Create(ctx, &domain.Story{Title: "u", Content: "d"})
	require.NoError(t, err)

	names, err := stories.ListFilenames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"story.jpg"}, names)
}

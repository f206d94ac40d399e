package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vbonduro/setasidevault/internal/db"
	"github.com/vbonduro/setasidevault/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func createCollection(t *testing.T, s *CollectionStore, name string) *domain.Collection {
	t.Helper()
	c, err := s.Create(context.Background(), &domain.Collection{
		Name:        name,
		AspectRatio: domain.AspectSquare,
		CoverPhoto:  name + ".jpg",
	})
	require.NoError(t, err)
	return c
}

func createItem(t *testing.T, s *ItemStore, collectionID, title, category string) *domain.Item {
	t.Helper()
	item, err := s.Create(context.Background(), &domain.Item{
		CollectionID: collectionID,
		Title:        title,
		Filename:     title + ".jpg",
		Category:     category,
	})
	require.NoError(t, err)
	return item
}

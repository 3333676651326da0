package main

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// testBookStorage runs the behaviors every BookStorage must provide.
// The storage must be empty when passed in.
//
//nolint:funlen
func testBookStorage(t *testing.T, store BookStorage) {
	t.Helper()
	ctx := context.Background()

	dune := NewBookFrom(bson.NewObjectID(), NewBook{Title: "Dune", Author: "Herbert", PublishedYear: 1965})
	emma := NewBookFrom(bson.NewObjectID(), NewBook{Title: "Emma", Author: "Austen", PublishedYear: 1815})
	missing := bson.NewObjectID()

	t.Run("empty store lists nothing", func(t *testing.T) {
		books, err := store.FindMany(ctx)
		require.NoError(t, err)
		assert.Len(t, books, 0)
	})

	t.Run("insert then find", func(t *testing.T) {
		require.NoError(t, store.Insert(ctx, dune))
		require.NoError(t, store.Insert(ctx, emma))

		book, err := store.FindOne(ctx, dune.ID)
		require.NoError(t, err)
		assert.Equal(t, dune, book)
	})

	t.Run("insert duplicate id fails", func(t *testing.T) {
		err := store.Insert(ctx, dune)
		assert.ErrorIs(t, err, ErrDuplicateBook)
	})

	t.Run("find missing book", func(t *testing.T) {
		_, err := store.FindOne(ctx, missing)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("find many returns all books", func(t *testing.T) {
		books, err := store.FindMany(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []Book{dune, emma}, books)
	})

	t.Run("update existing book", func(t *testing.T) {
		matched, err := store.UpdateOne(ctx, dune.ID, NewBook{Title: "Dune Messiah", Author: "Herbert", PublishedYear: 1969})
		require.NoError(t, err)
		assert.Equal(t, int64(1), matched)

		book, err := store.FindOne(ctx, dune.ID)
		require.NoError(t, err)
		assert.Equal(t, dune.ID, book.ID)
		assert.Equal(t, "Dune Messiah", book.Title)
		assert.Equal(t, 1969, book.PublishedYear)
	})

	t.Run("update missing book does not create it", func(t *testing.T) {
		matched, err := store.UpdateOne(ctx, missing, NewBook{Title: "Ghost", Author: "Nobody", PublishedYear: 2000})
		require.NoError(t, err)
		assert.Equal(t, int64(0), matched)

		_, err = store.FindOne(ctx, missing)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("delete existing then missing book", func(t *testing.T) {
		deleted, err := store.DeleteOne(ctx, emma.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		deleted, err = store.DeleteOne(ctx, emma.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), deleted)

		_, err = store.FindOne(ctx, emma.ID)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("concurrent inserts are all kept", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 20)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(year int) {
				defer wg.Done()
				b := NewBookFrom(bson.NewObjectID(), NewBook{Title: "Concurrent", Author: "Writer", PublishedYear: year})
				errs <- store.Insert(ctx, b)
			}(2000 + i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			assert.NoError(t, err)
		}

		books, err := store.FindMany(ctx)
		require.NoError(t, err)
		assert.Len(t, books, 21)
	})

	t.Run("delete many empties the store", func(t *testing.T) {
		deleted, err := store.DeleteMany(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(21), deleted)

		books, err := store.FindMany(ctx)
		require.NoError(t, err)
		assert.Len(t, books, 0)

		deleted, err = store.DeleteMany(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), deleted)
	})
}

func TestMemoryBookStorage(t *testing.T) {
	testBookStorage(t, NewMemoryBookStorage())
}

func TestMemoryBookStorage_InsertZeroID(t *testing.T) {
	err := NewMemoryBookStorage().Insert(context.Background(), Book{Title: "No id"})
	assert.ErrorIs(t, err, ErrInvalidBookID)
}

func TestMemoryBookStorage_KeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryBookStorage()
	ids := []bson.ObjectID{bson.NewObjectID(), bson.NewObjectID(), bson.NewObjectID()}
	for i := len(ids) - 1; i >= 0; i-- {
		require.NoError(t, store.Insert(ctx, Book{ID: ids[i], Title: "t", Author: "a", PublishedYear: 1}))
	}
	_, err := store.DeleteOne(ctx, ids[1])
	require.NoError(t, err)

	books, err := store.FindMany(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, ids[2], books[0].ID)
	assert.Equal(t, ids[0], books[1].ID)
}

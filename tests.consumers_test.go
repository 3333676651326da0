package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

func TestMirrorConsumer_Apply(t *testing.T) {
	ctx := context.Background()
	mirror := NewMemoryBookStorage()
	mc := &mirrorConsumer{logger: zap.NewNop(), queue: NewMockQueuer(0), repo: mirror}
	book := NewBookFrom(bson.NewObjectID(), NewBook{Title: "Dune", Author: "Herbert", PublishedYear: 1965})

	t.Run("create", func(t *testing.T) {
		mc.Apply(ctx, BookEvent{Op: OpCreate, Book: book})
		// replays are harmless.
		mc.Apply(ctx, BookEvent{Op: OpCreate, Book: book})
		books, err := mirror.FindMany(ctx)
		require.NoError(t, err)
		assert.Equal(t, []Book{book}, books)
	})

	t.Run("update", func(t *testing.T) {
		updated := NewBookFrom(book.ID, NewBook{Title: "Dune Messiah", Author: "Herbert", PublishedYear: 1969})
		mc.Apply(ctx, BookEvent{Op: OpUpdate, Book: updated})
		got, err := mirror.FindOne(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, updated, got)
	})

	t.Run("update restores missed creation", func(t *testing.T) {
		missed := NewBookFrom(bson.NewObjectID(), NewBook{Title: "Emma", Author: "Austen", PublishedYear: 1815})
		mc.Apply(ctx, BookEvent{Op: OpUpdate, Book: missed})
		got, err := mirror.FindOne(ctx, missed.ID)
		require.NoError(t, err)
		assert.Equal(t, missed, got)
	})

	t.Run("delete", func(t *testing.T) {
		mc.Apply(ctx, BookEvent{Op: OpDelete, Book: Book{ID: book.ID}})
		_, err := mirror.FindOne(ctx, book.ID)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("unknown operation is ignored", func(t *testing.T) {
		mc.Apply(ctx, BookEvent{Op: "rename", Book: book})
		_, err := mirror.FindOne(ctx, book.ID)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("purge", func(t *testing.T) {
		mc.Apply(ctx, BookEvent{Op: OpPurge})
		books, err := mirror.FindMany(ctx)
		require.NoError(t, err)
		assert.Empty(t, books)
	})
}

// TestMirrorConsumer_Consume ensures queued events reach the mirror and the loop exits on cancellation.
func TestMirrorConsumer_Consume(t *testing.T) {
	queue := NewMockQueuer(4)
	mirror := NewMemoryBookStorage()
	consumer := NewMirrorConsumer(zap.NewNop(), queue, mirror)
	book := NewBookFrom(bson.NewObjectID(), NewBook{Title: "Dune", Author: "Herbert", PublishedYear: 1965})
	queue.events <- BookEvent{Op: OpCreate, Book: book}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- consumer.Consume(ctx)
	}()

	assert.Eventually(t, func() bool {
		_, err := mirror.FindOne(context.Background(), book.ID)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancellation")
	}
}

// TestMirrorToBolt ensures the service changes are replayed onto a bolt mirror.
func TestMirrorToBolt(t *testing.T) {
	config := newTestBoltConfig(t)
	client, err := GetBoltDBClient(config)
	require.NoError(t, err)
	defer client.Close()
	mirror := NewBoltBookStorage(zap.NewNop(), config, client)

	queue := NewMockQueuer(8)
	queue.PushFunc = func(ctx context.Context, event BookEvent) error {
		queue.events <- event
		return nil
	}
	bs := newTestBookService(NewMemoryBookStorage(), queue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = NewMirrorConsumer(zap.NewNop(), queue, mirror).Consume(ctx)
	}()

	created, err := bs.Create(ctx, NewBook{Title: "Dune", Author: "Herbert", PublishedYear: 1965})
	require.NoError(t, err)
	require.NoError(t, bs.Update(ctx, created.ID.Hex(), NewBook{Title: "Dune Messiah", Author: "Herbert", PublishedYear: 1969}))

	assert.Eventually(t, func() bool {
		book, err := mirror.FindOne(context.Background(), created.ID)
		return err == nil && book.Title == "Dune Messiah"
	}, 2*time.Second, 10*time.Millisecond)
}

package main

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// memoryBookStorage keeps books in process memory. The lock is
// held for the duration of a single call and never across calls.
type memoryBookStorage struct {
	mu    sync.RWMutex
	books map[bson.ObjectID]Book
	order []bson.ObjectID
}

// NewMemoryBookStorage provides an instance of in-memory book storage.
func NewMemoryBookStorage() BookStorage {
	return &memoryBookStorage{books: make(map[bson.ObjectID]Book)}
}

func (ms *memoryBookStorage) Insert(_ context.Context, book Book) error {
	if book.ID.IsZero() {
		return ErrInvalidBookID
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.books[book.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateBook, book.ID.Hex())
	}
	ms.books[book.ID] = book
	ms.order = append(ms.order, book.ID)
	return nil
}

func (ms *memoryBookStorage) FindOne(_ context.Context, id bson.ObjectID) (Book, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	book, ok := ms.books[id]
	if !ok {
		return Book{}, ErrBookNotFound
	}
	return book, nil
}

func (ms *memoryBookStorage) FindMany(_ context.Context) ([]Book, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	books := make([]Book, 0, len(ms.order))
	for _, id := range ms.order {
		books = append(books, ms.books[id])
	}
	return books, nil
}

func (ms *memoryBookStorage) UpdateOne(_ context.Context, id bson.ObjectID, nb NewBook) (int64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.books[id]; !ok {
		return 0, nil
	}
	ms.books[id] = NewBookFrom(id, nb)
	return 1, nil
}

func (ms *memoryBookStorage) DeleteOne(_ context.Context, id bson.ObjectID) (int64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.books[id]; !ok {
		return 0, nil
	}
	delete(ms.books, id)
	for i, oid := range ms.order {
		if oid == id {
			ms.order = append(ms.order[:i], ms.order[i+1:]...)
			break
		}
	}
	return 1, nil
}

func (ms *memoryBookStorage) DeleteMany(_ context.Context) (int64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	deleted := int64(len(ms.books))
	ms.books = make(map[bson.ObjectID]Book)
	ms.order = nil
	return deleted, nil
}

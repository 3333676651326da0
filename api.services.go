package main

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// BookServiceProvider exposes the operations available on the books collection.
type BookServiceProvider interface {
	Create(ctx context.Context, nb NewBook) (Book, error)
	GetAll(ctx context.Context) ([]BookResponse, error)
	GetByID(ctx context.Context, id string) (BookResponse, error)
	Update(ctx context.Context, id string, nb NewBook) error
	Delete(ctx context.Context, id string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// BookService validates requests, translates identifiers and maps storage
// outcomes. Every storage call is a single round-trip on a client which is
// safe for concurrent use, so no lock is taken here.
type BookService struct {
	logger  *zap.Logger
	config  *Config
	ids     BookIDHandler
	storage BookStorage
	queue   Queuer
}

// NewBookService provides a BookService. The queue is optional: when nil,
// changes are not published.
func NewBookService(logger *zap.Logger, config *Config, ids BookIDHandler, storage BookStorage, queue Queuer) *BookService {
	return &BookService{
		logger:  logger,
		config:  config,
		ids:     ids,
		storage: storage,
		queue:   queue,
	}
}

// publish pushes a change event. A failure is logged and never fails the operation.
func (bs *BookService) publish(ctx context.Context, op string, book Book) {
	if bs.queue == nil {
		return
	}
	if err := bs.queue.Push(ctx, BookEvent{Op: op, Book: book}); err != nil {
		bs.logger.Error("service: failed to push event to queue",
			zap.String("event.op", op),
			zap.String("book.id", book.ID.Hex()),
			zap.Error(err),
		)
	}
}

// Create validates the payload, assigns a fresh identifier and inserts the book.
func (bs *BookService) Create(ctx context.Context, nb NewBook) (Book, error) {
	if err := ValidateNewBook(&nb); err != nil {
		return Book{}, err
	}
	book := NewBookFrom(bs.ids.Generate(), nb)
	if err := bs.storage.Insert(ctx, book); err != nil {
		return Book{}, newStoreError("insert", err)
	}
	bs.publish(ctx, OpCreate, book)
	return book, nil
}

// GetAll returns every stored book in the order yielded by the store.
func (bs *BookService) GetAll(ctx context.Context) ([]BookResponse, error) {
	books, err := bs.storage.FindMany(ctx)
	if err != nil {
		return nil, newStoreError("find many", err)
	}
	responses := make([]BookResponse, 0, len(books))
	for _, book := range books {
		responses = append(responses, book.Response())
	}
	return responses, nil
}

// GetByID returns the book matching a textual identifier.
func (bs *BookService) GetByID(ctx context.Context, id string) (BookResponse, error) {
	oid, err := bs.ids.Parse(id)
	if err != nil {
		return BookResponse{}, err
	}
	book, err := bs.storage.FindOne(ctx, oid)
	if errors.Is(err, ErrBookNotFound) {
		return BookResponse{}, ErrBookNotFound
	}
	if err != nil {
		return BookResponse{}, newStoreError("find one", err)
	}
	return book.Response(), nil
}

// Update replaces title, author and published year of an existing book.
// Both the identifier and the payload are checked before the store is reached.
func (bs *BookService) Update(ctx context.Context, id string, nb NewBook) error {
	oid, err := bs.ids.Parse(id)
	if err != nil {
		return err
	}
	if err = ValidateNewBook(&nb); err != nil {
		return err
	}
	matched, err := bs.storage.UpdateOne(ctx, oid, nb)
	if err != nil {
		return newStoreError("update one", err)
	}
	if matched == 0 {
		return ErrBookNotFound
	}
	bs.publish(ctx, OpUpdate, NewBookFrom(oid, nb))
	return nil
}

// Delete removes a single book and returns the number of removed records.
func (bs *BookService) Delete(ctx context.Context, id string) (int64, error) {
	oid, err := bs.ids.Parse(id)
	if err != nil {
		return 0, err
	}
	deleted, err := bs.storage.DeleteOne(ctx, oid)
	if err != nil {
		return 0, newStoreError("delete one", err)
	}
	if deleted == 0 {
		return 0, ErrBookNotFound
	}
	if deleted > 1 {
		bs.logger.Warn("service: more than one book removed for a single id",
			zap.String("book.id", id), zap.Int64("deleted", deleted))
	}
	bs.publish(ctx, OpDelete, Book{ID: oid})
	return deleted, nil
}

// DeleteAll removes every book unconditionally.
func (bs *BookService) DeleteAll(ctx context.Context) (int64, error) {
	deleted, err := bs.storage.DeleteMany(ctx)
	if err != nil {
		return 0, newStoreError("delete many", err)
	}
	bs.publish(ctx, OpPurge, Book{})
	return deleted, nil
}

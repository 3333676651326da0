package main

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	InsertFunc     func(ctx context.Context, book Book) error
	FindOneFunc    func(ctx context.Context, id bson.ObjectID) (Book, error)
	FindManyFunc   func(ctx context.Context) ([]Book, error)
	UpdateOneFunc  func(ctx context.Context, id bson.ObjectID, nb NewBook) (int64, error)
	DeleteOneFunc  func(ctx context.Context, id bson.ObjectID) (int64, error)
	DeleteManyFunc func(ctx context.Context) (int64, error)

	mu    sync.Mutex
	calls int
}

func (m *MockBookStorage) called() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

// Calls returns how many times the storage was reached.
func (m *MockBookStorage) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Insert mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Insert(ctx context.Context, book Book) error {
	m.called()
	return m.InsertFunc(ctx, book)
}

// FindOne mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) FindOne(ctx context.Context, id bson.ObjectID) (Book, error) {
	m.called()
	return m.FindOneFunc(ctx, id)
}

// FindMany mocks the behavior of retrieving all books by the repository.
func (m *MockBookStorage) FindMany(ctx context.Context) ([]Book, error) {
	m.called()
	return m.FindManyFunc(ctx)
}

// UpdateOne mocks the behavior of updating a book by the repository.
func (m *MockBookStorage) UpdateOne(ctx context.Context, id bson.ObjectID, nb NewBook) (int64, error) {
	m.called()
	return m.UpdateOneFunc(ctx, id, nb)
}

// DeleteOne mocks the behavior of deleting a book by the repository.
func (m *MockBookStorage) DeleteOne(ctx context.Context, id bson.ObjectID) (int64, error) {
	m.called()
	return m.DeleteOneFunc(ctx, id)
}

// DeleteMany mocks the behavior of deleting all books by the repository.
func (m *MockBookStorage) DeleteMany(ctx context.Context) (int64, error) {
	m.called()
	return m.DeleteManyFunc(ctx)
}

// MockQueuer records pushed events and serves popped ones from a channel.
type MockQueuer struct {
	PushFunc func(ctx context.Context, event BookEvent) error
	events   chan BookEvent

	mu     sync.Mutex
	pushed []BookEvent
}

func NewMockQueuer(size int) *MockQueuer {
	return &MockQueuer{events: make(chan BookEvent, size)}
}

// Push mocks the enqueuing of an event.
func (mq *MockQueuer) Push(ctx context.Context, event BookEvent) error {
	if mq.PushFunc != nil {
		if err := mq.PushFunc(ctx, event); err != nil {
			return err
		}
	}
	mq.mu.Lock()
	mq.pushed = append(mq.pushed, event)
	mq.mu.Unlock()
	return nil
}

// Pop mocks the blocking dequeuing of an event.
func (mq *MockQueuer) Pop(ctx context.Context) (BookEvent, error) {
	select {
	case <-ctx.Done():
		return BookEvent{}, ctx.Err()
	case event := <-mq.events:
		return event, nil
	}
}

// Pushed returns a copy of all pushed events.
func (mq *MockQueuer) Pushed() []BookEvent {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	return append([]BookEvent(nil), mq.pushed...)
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	mu      sync.Mutex
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{MockNow: time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	mck.mu.Lock()
	defer mck.mu.Unlock()
	return mck.MockNow
}

// Advance moves the mocked time forward.
func (mck *MockClocker) Advance(d time.Duration) {
	mck.mu.Lock()
	mck.MockNow = mck.MockNow.Add(d)
	mck.mu.Unlock()
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
	Valid     bool
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string, valid bool) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id, Valid: valid}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

// IsValid mocks IsValid behavior by providing configured status.
func (muid *MockUIDHandler) IsValid(_, _ string) bool {
	return muid.Valid
}

// MockBookIDHandler always issues the same book id.
type MockBookIDHandler struct {
	ObjectIDHandler
	ID bson.ObjectID
}

func NewMockBookIDHandler(hex string) *MockBookIDHandler {
	oid, _ := bson.ObjectIDFromHex(hex)
	return &MockBookIDHandler{ID: oid}
}

// Generate returns the configured id.
func (mh *MockBookIDHandler) Generate() bson.ObjectID {
	return mh.ID
}

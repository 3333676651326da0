package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

type mongoBookStorage struct {
	logger     *zap.Logger
	collection *mongo.Collection
}

// GetMongoClient provides a ready to use mongo client.
func GetMongoClient(config *Config) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(config.Mongo.URI)
	if config.Mongo.ConnectTimeout > 0 {
		opts.SetConnectTimeout(config.Mongo.ConnectTimeout)
	}
	if config.Mongo.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(config.Mongo.ServerSelectionTimeout)
	}
	if config.Mongo.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(config.Mongo.MaxPoolSize)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %v", err)
	}

	// test connection.
	timeout := config.Mongo.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// NewMongoBookStorage provides an instance of mongo-based book storage.
func NewMongoBookStorage(logger *zap.Logger, collection *mongo.Collection) BookStorage {
	return &mongoBookStorage{
		logger:     logger,
		collection: collection,
	}
}

func byID(id bson.ObjectID) bson.D {
	return bson.D{{Key: BookIDField, Value: id}}
}

// Insert adds a new book document.
func (ms *mongoBookStorage) Insert(ctx context.Context, book Book) error {
	if book.ID.IsZero() {
		return ErrInvalidBookID
	}
	_, err := ms.collection.InsertOne(ctx, book)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateBook, book.ID.Hex())
	}
	return err
}

// FindOne retrieves a book document based on its ID.
func (ms *mongoBookStorage) FindOne(ctx context.Context, id bson.ObjectID) (Book, error) {
	var book Book
	err := ms.collection.FindOne(ctx, byID(id)).Decode(&book)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Book{}, ErrBookNotFound
	}
	return book, err
}

// FindMany retrieves all book documents in the natural order of the collection.
func (ms *mongoBookStorage) FindMany(ctx context.Context) ([]Book, error) {
	cursor, err := ms.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	books := []Book{}
	if err = cursor.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// UpdateOne replaces the fields of an existing book document. It never inserts.
func (ms *mongoBookStorage) UpdateOne(ctx context.Context, id bson.ObjectID, nb NewBook) (int64, error) {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "title", Value: nb.Title},
		{Key: "author", Value: nb.Author},
		{Key: "published_year", Value: nb.PublishedYear},
	}}}
	result, err := ms.collection.UpdateOne(ctx, byID(id), update)
	if err != nil {
		return 0, err
	}
	return result.MatchedCount, nil
}

// DeleteOne removes a book document based on its ID.
func (ms *mongoBookStorage) DeleteOne(ctx context.Context, id bson.ObjectID) (int64, error) {
	result, err := ms.collection.DeleteOne(ctx, byID(id))
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// DeleteMany removes all book documents.
func (ms *mongoBookStorage) DeleteMany(ctx context.Context) (int64, error) {
	result, err := ms.collection.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

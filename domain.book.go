package main

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// BookIDField is the document key holding the book identifier. It is used
// on the write path (struct tag) and on every lookup filter.
const BookIDField = "_id"

// Book represents a stored book entity.
type Book struct {
	ID            bson.ObjectID `json:"id" bson:"_id"`
	Title         string        `json:"title" bson:"title"`
	Author        string        `json:"author" bson:"author"`
	PublishedYear int           `json:"published_year" bson:"published_year"`
}

// NewBook is the payload of book creation and update requests.
type NewBook struct {
	Title         string `json:"title" validate:"required"`
	Author        string `json:"author" validate:"required"`
	PublishedYear int    `json:"published_year" validate:"gt=0"`
}

// BookResponse is the read model of a book with its identifier as plain text.
type BookResponse struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	PublishedYear int    `json:"published_year"`
}

// NewBookFrom assembles a Book from a validated payload and its identifier.
func NewBookFrom(id bson.ObjectID, nb NewBook) Book {
	return Book{
		ID:            id,
		Title:         nb.Title,
		Author:        nb.Author,
		PublishedYear: nb.PublishedYear,
	}
}

// Response converts a stored book into its read model.
func (b Book) Response() BookResponse {
	return BookResponse{
		ID:            b.ID.Hex(),
		Title:         b.Title,
		Author:        b.Author,
		PublishedYear: b.PublishedYear,
	}
}

// BookStorage defines possible operations on the books collection.
// Each method maps to a single round-trip with the underlying store.
type BookStorage interface {
	Insert(ctx context.Context, book Book) error
	FindOne(ctx context.Context, id bson.ObjectID) (Book, error)
	FindMany(ctx context.Context) ([]Book, error)
	UpdateOne(ctx context.Context, id bson.ObjectID, nb NewBook) (int64, error)
	DeleteOne(ctx context.Context, id bson.ObjectID) (int64, error)
	DeleteMany(ctx context.Context) (int64, error)
}

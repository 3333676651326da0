package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const createBooksTable = `
CREATE TABLE IF NOT EXISTS books (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	author         TEXT NOT NULL,
	published_year INTEGER NOT NULL
);`

type sqliteBookStorage struct {
	logger *zap.Logger
	db     *sql.DB
}

// GetSQLiteClient opens the database file, applies the pragmas and ensures the books table exists.
func GetSQLiteClient(config *SQLiteConfig) (*sql.DB, error) {
	if dir := filepath.Dir(config.FilePath); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database folder: %v", err)
		}
	}

	busy := config.BusyTimeout.Milliseconds()
	if busy <= 0 {
		busy = 5000
	}
	// pragmas in the dsn are applied to every pooled connection.
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", config.FilePath, busy)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open the database: %v", err)
	}

	if _, err = db.Exec(createBooksTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up the database: %v", err)
	}
	return db, nil
}

// NewSQLiteBookStorage provides an instance of sqlite-based book storage.
func NewSQLiteBookStorage(logger *zap.Logger, db *sql.DB) BookStorage {
	return &sqliteBookStorage{logger: logger, db: db}
}

// Insert adds a new book row.
func (ss *sqliteBookStorage) Insert(ctx context.Context, book Book) error {
	if book.ID.IsZero() {
		return ErrInvalidBookID
	}
	_, err := ss.db.ExecContext(ctx,
		`INSERT INTO books (id, title, author, published_year) VALUES (?, ?, ?, ?)`,
		book.ID.Hex(), book.Title, book.Author, book.PublishedYear,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %s", ErrDuplicateBook, book.ID.Hex())
	}
	return err
}

func scanBook(row interface{ Scan(...any) error }) (Book, error) {
	var book Book
	var id string
	if err := row.Scan(&id, &book.Title, &book.Author, &book.PublishedYear); err != nil {
		return book, err
	}
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return book, fmt.Errorf("corrupted book id %q: %v", id, err)
	}
	book.ID = oid
	return book, nil
}

// FindOne retrieves a book row based on its ID.
func (ss *sqliteBookStorage) FindOne(ctx context.Context, id bson.ObjectID) (Book, error) {
	row := ss.db.QueryRowContext(ctx,
		`SELECT id, title, author, published_year FROM books WHERE id = ?`, id.Hex())
	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, ErrBookNotFound
	}
	return book, err
}

// FindMany retrieves all book rows in insertion order.
func (ss *sqliteBookStorage) FindMany(ctx context.Context) ([]Book, error) {
	rows, err := ss.db.QueryContext(ctx,
		`SELECT id, title, author, published_year FROM books ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// UpdateOne replaces the fields of an existing book row.
func (ss *sqliteBookStorage) UpdateOne(ctx context.Context, id bson.ObjectID, nb NewBook) (int64, error) {
	result, err := ss.db.ExecContext(ctx,
		`UPDATE books SET title = ?, author = ?, published_year = ? WHERE id = ?`,
		nb.Title, nb.Author, nb.PublishedYear, id.Hex(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteOne removes a book row based on its ID.
func (ss *sqliteBookStorage) DeleteOne(ctx context.Context, id bson.ObjectID) (int64, error) {
	result, err := ss.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id.Hex())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteMany removes all book rows.
func (ss *sqliteBookStorage) DeleteMany(ctx context.Context) (int64, error) {
	result, err := ss.db.ExecContext(ctx, `DELETE FROM books`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

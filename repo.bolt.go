package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

type boltBookStorage struct {
	logger *zap.Logger
	client *bolt.DB
	config *BoltDBConfig
}

// GetBoltDBClient setup the database and the bucket then provides a ready to use client.
func GetBoltDBClient(config *BoltDBConfig) (*bolt.DB, error) {
	db, err := bolt.Open(config.FilePath, 0o600, &bolt.Options{Timeout: config.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, errB := tx.CreateBucketIfNotExists([]byte(config.BucketName)); errB != nil {
			return fmt.Errorf("failed to create %s bucket: %v", config.BucketName, errB)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up bucket: %v", err)
	}
	return db, nil
}

// NewBoltBookStorage provides an instance of bolt-based book storage.
func NewBoltBookStorage(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB) BookStorage {
	return &boltBookStorage{
		logger: logger,
		client: client,
		config: boltConfig,
	}
}

func (bs *boltBookStorage) bucket(tx *bolt.Tx) *bolt.Bucket {
	return tx.Bucket([]byte(bs.config.BucketName))
}

// Insert adds a new book record into boltdb store.
func (bs *boltBookStorage) Insert(_ context.Context, book Book) error {
	if book.ID.IsZero() {
		return ErrInvalidBookID
	}
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return err
	}
	key := []byte(book.ID.Hex())
	return bs.client.Update(func(tx *bolt.Tx) error {
		b := bs.bucket(tx)
		if b.Get(key) != nil {
			return fmt.Errorf("%w: %s", ErrDuplicateBook, book.ID.Hex())
		}
		return b.Put(key, bookBytes)
	})
}

// FindOne retrieves a book record based on its ID from boltdb store.
func (bs *boltBookStorage) FindOne(_ context.Context, id bson.ObjectID) (Book, error) {
	var book Book
	// initialize a readable transaction.
	tx, err := bs.client.Begin(false)
	if err != nil {
		return book, err
	}
	defer tx.Rollback()

	result := bs.bucket(tx).Get([]byte(id.Hex()))
	if result == nil {
		return book, ErrBookNotFound
	}
	err = json.Unmarshal(result, &book)
	return book, err
}

// FindMany retrieves a list of all books stored in the bolt database.
func (bs *boltBookStorage) FindMany(_ context.Context) ([]Book, error) {
	tx, err := bs.client.Begin(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Create a cursor on the books' bucket.
	c := bs.bucket(tx).Cursor()

	books := []Book{}
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var book Book
		if err = json.Unmarshal(v, &book); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}

// UpdateOne replaces existing book record data. Missing records are left absent.
func (bs *boltBookStorage) UpdateOne(_ context.Context, id bson.ObjectID, nb NewBook) (int64, error) {
	bookBytes, err := json.Marshal(NewBookFrom(id, nb))
	if err != nil {
		return 0, err
	}
	var matched int64
	key := []byte(id.Hex())
	err = bs.client.Update(func(tx *bolt.Tx) error {
		b := bs.bucket(tx)
		if b.Get(key) == nil {
			return nil
		}
		matched = 1
		return b.Put(key, bookBytes)
	})
	if err != nil {
		return 0, err
	}
	return matched, nil
}

// DeleteOne removes a book record based on its ID from boltdb store.
func (bs *boltBookStorage) DeleteOne(_ context.Context, id bson.ObjectID) (int64, error) {
	var deleted int64
	key := []byte(id.Hex())
	err := bs.client.Update(func(tx *bolt.Tx) error {
		b := bs.bucket(tx)
		if b.Get(key) == nil {
			return nil
		}
		deleted = 1
		return b.Delete(key)
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// DeleteMany empties the books bucket by recreating it.
func (bs *boltBookStorage) DeleteMany(_ context.Context) (int64, error) {
	var deleted int64
	name := []byte(bs.config.BucketName)
	err := bs.client.Update(func(tx *bolt.Tx) error {
		deleted = int64(tx.Bucket(name).Stats().KeyN)
		if err := tx.DeleteBucket(name); err != nil {
			return err
		}
		_, err := tx.CreateBucket(name)
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

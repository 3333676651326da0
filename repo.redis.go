package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

const DefaultBooksHash string = "books"

// updateIfExists replaces a hash field value only when the field is already set.
var updateIfExists = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 1 then
	redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
	return 1
end
return 0
`)

type redisBookStorage struct {
	logger *zap.Logger
	client *redis.Client
	hash   string
}

// NewRedisBookStorage provides an instance of redis-based book storage.
// All books live in a single hash keyed by their hex identifier.
func NewRedisBookStorage(logger *zap.Logger, client *redis.Client, hash string) BookStorage {
	if hash == "" {
		hash = DefaultBooksHash
	}
	return &redisBookStorage{
		logger: logger,
		client: client,
		hash:   hash,
	}
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// Insert adds a new book record. It fails if the id is already in use.
func (rs *redisBookStorage) Insert(ctx context.Context, book Book) error {
	if book.ID.IsZero() {
		return ErrInvalidBookID
	}
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return err
	}
	added, err := rs.client.HSetNX(ctx, rs.hash, book.ID.Hex(), bookBytes).Result()
	if err != nil {
		return err
	}
	if !added {
		return fmt.Errorf("%w: %s", ErrDuplicateBook, book.ID.Hex())
	}
	return nil
}

// FindOne retrieves a book record based on its ID.
func (rs *redisBookStorage) FindOne(ctx context.Context, id bson.ObjectID) (Book, error) {
	var book Book
	bookJSONString, err := rs.client.HGet(ctx, rs.hash, id.Hex()).Result()
	if errors.Is(err, redis.Nil) {
		return book, ErrBookNotFound
	}
	if err != nil {
		return book, err
	}
	err = json.Unmarshal([]byte(bookJSONString), &book)
	return book, err
}

// FindMany retrieves a list of all books stored in the redis database.
func (rs *redisBookStorage) FindMany(ctx context.Context) ([]Book, error) {
	values, err := rs.client.HVals(ctx, rs.hash).Result()
	if err != nil {
		return nil, err
	}
	books := make([]Book, 0, len(values))
	for _, bookJSONString := range values {
		var book Book
		if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}

// UpdateOne replaces existing book record data. It never creates a missing record.
func (rs *redisBookStorage) UpdateOne(ctx context.Context, id bson.ObjectID, nb NewBook) (int64, error) {
	bookBytes, err := json.Marshal(NewBookFrom(id, nb))
	if err != nil {
		return 0, err
	}
	return updateIfExists.Run(ctx, rs.client, []string{rs.hash}, id.Hex(), bookBytes).Int64()
}

// DeleteOne removes a book record based on its ID.
func (rs *redisBookStorage) DeleteOne(ctx context.Context, id bson.ObjectID) (int64, error) {
	return rs.client.HDel(ctx, rs.hash, id.Hex()).Result()
}

// DeleteMany drops the books hash and reports how many records it held.
func (rs *redisBookStorage) DeleteMany(ctx context.Context) (int64, error) {
	var count *redis.IntCmd
	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.HLen(ctx, rs.hash)
		pipe.Del(ctx, rs.hash)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count.Val(), nil
}

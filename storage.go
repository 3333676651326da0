package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewBookStorage builds the book storage selected by the configured driver and
// returns it with the function releasing its underlying client. The redis client
// is only used by the redis driver and must be provided by the caller in that case.
func NewBookStorage(logger *zap.Logger, config *Config, redisClient *redis.Client) (BookStorage, func() error, error) {
	switch config.Store.Driver {
	case DriverMongo:
		client, err := GetMongoClient(config)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to mongo server: %s", err)
		}
		collection := client.Database(config.Mongo.Database).Collection(config.Mongo.Collection)
		closer := func() error {
			return client.Disconnect(context.Background())
		}
		return NewMongoBookStorage(logger, collection), closer, nil

	case DriverRedis:
		if redisClient == nil {
			return nil, nil, fmt.Errorf("redis driver selected without redis client")
		}
		// the redis client lifecycle is owned by the caller.
		return NewRedisBookStorage(logger, redisClient, config.Redis.HashName), func() error { return nil }, nil

	case DriverBolt:
		client, err := GetBoltDBClient(&config.BoltDB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open boltdb database: %s", err)
		}
		return NewBoltBookStorage(logger, &config.BoltDB, client), client.Close, nil

	case DriverSQLite:
		db, err := GetSQLiteClient(&config.SQLite)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite database: %s", err)
		}
		return NewSQLiteBookStorage(logger, db), db.Close, nil

	case DriverMemory:
		return NewMemoryBookStorage(), func() error { return nil }, nil
	}

	return nil, nil, fmt.Errorf("unsupported store driver %q", config.Store.Driver)
}

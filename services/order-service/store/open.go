package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	ddb "github.com/BeckerFac/restaurant-ordering/pkg/dynamodb"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendDynamoDB = "dynamodb"
)

// Config selects and configures a backend.
type Config struct {
	Backend            string
	RedisURL           string
	RedisChannelPrefix string
	PostgresDSN        string
	MongoURL           string
	MongoDatabase      string
	MongoCollection    string
	DynamoTable        string
	// WatchInterval is the polling period for backends without a change feed.
	WatchInterval time.Duration
}

// Open connects to the configured backend.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil

	case BackendRedis:
		client, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, cfg.RedisChannelPrefix, logger), nil

	case BackendPostgres:
		db, err := ConnectPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(db, cfg.PostgresDSN, logger), nil

	case BackendMongo:
		client, err := ConnectMongo(ctx, cfg.MongoURL)
		if err != nil {
			return nil, err
		}
		return NewMongoStore(client, cfg.MongoDatabase, cfg.MongoCollection, logger), nil

	case BackendDynamoDB:
		client, err := ddb.NewClient(ctx)
		if err != nil {
			return nil, err
		}
		if err := ddb.EnsureTable(ctx, client, cfg.DynamoTable, DynamoHashKey); err != nil {
			return nil, err
		}
		return NewDynamoStore(client, cfg.DynamoTable, cfg.WatchInterval, logger), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

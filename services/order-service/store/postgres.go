package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPostgresChannel is the LISTEN/NOTIFY channel carrying changed keys.
const DefaultPostgresChannel = "kv_changed"

type kvEntry struct {
	Key       string    `gorm:"column:key;primaryKey;type:text"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (kvEntry) TableName() string { return "kv_entries" }

// PostgresStore keeps keys in a kv_entries table. Writes notify the changed
// key with pg_notify in the same transaction; watchers hold a dedicated pgx
// connection that LISTENs and re-reads the value.
type PostgresStore struct {
	db      *gorm.DB
	dsn     string
	channel string
	logger  *zap.Logger
}

// ConnectPostgres opens the gorm pool and migrates the kv table.
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv_entries: %w", err)
	}
	return db, nil
}

// NewPostgresStore wraps db. dsn is used for the LISTEN connections and may
// be empty when Watch is never called.
func NewPostgresStore(db *gorm.DB, dsn string, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, dsn: dsn, channel: DefaultPostgresChannel, logger: logger}
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var e kvEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get %s: %w", key, err)
	}
	return []byte(e.Value), nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := kvEntry{Key: key, Value: string(value)}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&entry).Error; err != nil {
			return err
		}
		return tx.Exec("SELECT pg_notify(?, ?)", s.channel, key).Error
	})
	if err != nil {
		return fmt.Errorf("postgres set %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Watch(ctx context.Context, key string) (<-chan []byte, error) {
	if s.dsn == "" {
		return nil, errors.New("postgres watch needs a dsn")
	}
	conn, err := pgx.Connect(ctx, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres listen connect: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{s.channel}.Sanitize()); err != nil {
		_ = conn.Close(context.Background())
		return nil, fmt.Errorf("postgres listen %s: %w", s.channel, err)
	}

	out := make(chan []byte, 1)
	go func() {
		defer close(out)
		defer conn.Close(context.Background())

		for {
			n, err := conn.WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Warn("postgres listen stopped", zap.String("key", key), zap.Error(err))
				}
				return
			}
			if n.Payload != key {
				continue
			}
			v, err := s.Get(ctx, key)
			if err != nil {
				s.logger.Warn("postgres re-read after notify failed", zap.String("key", key), zap.Error(err))
				continue
			}
			offer(out, v)
		}
	}()
	return out, nil
}

func (s *PostgresStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	q := s.db.WithContext(ctx).Model(&kvEntry{})
	if prefix != "" {
		q = q.Where("key LIKE ?", escapeLike(prefix)+"%")
	}
	if err := q.Order("key").Pluck("key", &keys).Error; err != nil {
		return nil, fmt.Errorf("postgres keys %s: %w", prefix, err)
	}
	return keys, nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

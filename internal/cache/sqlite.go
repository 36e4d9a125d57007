package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/letterloop-backend/internal/platform/logger"
)

type cacheEntry struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     []byte    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (cacheEntry) TableName() string { return "cache_entry" }

// Sqlite is the default Adapter: a single-file sqlite database local to the
// device, so cached state survives process restarts.
type Sqlite struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSqlite(path string, log *logger.Logger) (*Sqlite, error) {
	if path == "" {
		return nil, errors.New("cache path required")
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if err := db.AutoMigrate(&cacheEntry{}); err != nil {
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}
	return &Sqlite{db: db, log: log.With("service", "SqliteCache")}, nil
}

func (s *Sqlite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry cacheEntry
	err := s.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entry.Value, true, nil
}

func (s *Sqlite) Set(ctx context.Context, key string, value []byte) error {
	entry := cacheEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
}

package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DBConfig struct {
	Driver string `mapstructure:"driver"` // sqlite, postgres
	DSN    string `mapstructure:"dsn"`
}

// commitModel is the GORM model for the commits table.
type commitModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Room      string    `gorm:"type:varchar(128);index:idx_commits_room_created,priority:1;not null"`
	Code      string    `gorm:"type:text"`
	Author    string    `gorm:"type:varchar(64)"`
	CreatedAt time.Time `gorm:"index:idx_commits_room_created,priority:2"`
}

func (commitModel) TableName() string {
	return "commits"
}

func (m *commitModel) toDomain() domain.Commit {
	return domain.Commit{
		ID:        m.ID,
		Room:      domain.RoomID(m.Room),
		Code:      m.Code,
		Author:    m.Author,
		Timestamp: m.CreatedAt,
	}
}

// GormStore implements Store on top of GORM.
type GormStore struct {
	db *gorm.DB
}

// Open connects to the configured database and migrates the schema.
func Open(cfg DBConfig) (*GormStore, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "./data/coderoom.db"
		}
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database dir: %w", err)
			}
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DSN,
			PreferSimpleProtocol: true,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrBadDriver, cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&commitModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate commits: %w", err)
	}

	log.Info().Str("module", "history").Str("driver", db.Dialector.Name()).Msg("commit store ready")
	return &GormStore{db: db}, nil
}

func (s *GormStore) Append(ctx context.Context, c domain.Commit) (domain.Commit, error) {
	model := &commitModel{
		Room:      string(c.Room),
		Code:      c.Code,
		Author:    c.Author,
		CreatedAt: c.Timestamp,
	}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return domain.Commit{}, fmt.Errorf("failed to append commit: %w", err)
	}
	return model.toDomain(), nil
}

func (s *GormStore) List(ctx context.Context, room domain.RoomID, limit int) ([]domain.Commit, error) {
	var models []commitModel
	err := s.db.WithContext(ctx).
		Where("room = ?", string(room)).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}

	commits := make([]domain.Commit, len(models))
	for i := range models {
		commits[i] = models[i].toDomain()
	}
	return commits, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

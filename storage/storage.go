package storage

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicate          = errors.New("record already exists")
	ErrInvalidMemberCount = errors.New("invalid member count")
	ErrAlreadyComplete    = errors.New("group already complete")
	ErrPoolExhausted      = errors.New("no free chat left in the channel pool")
)

type Storage struct {
	db *gorm.DB
}

func New(dbPath string) (*Storage, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		slog.Error("storage: Failed to connect to database", "error", err, "path", dbPath)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// sqlite allows a single writer; serialize access through one connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	s := &Storage{db: db}
	if err := s.Migrate(); err != nil {
		return nil, err
	}

	return s, nil
}

// Migrate brings the schema up to date
func (s *Storage) Migrate() error {
	err := s.db.AutoMigrate(
		&Group{},
		&Applicant{},
		&AcceptedMember{},
		&UserInterests{},
		&Setting{},
		&ChannelSlot{},
		&ChannelGrant{},
	)
	if err != nil {
		slog.Error("storage: Failed to migrate database", "error", err)
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

// Close releases the underlying connection
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

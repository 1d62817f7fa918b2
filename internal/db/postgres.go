package db

import (
	"fmt"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sundale/projectcoach-backend/internal/domain"
	"github.com/sundale/projectcoach-backend/internal/platform/logger"
)

// Service owns the gorm handle. Postgres when DATABASE_URL is set, sqlite
// for local development otherwise.
type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewService(log *logger.Logger) (*Service, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	svcLog := log.With("service", "DBService")

	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn != "" {
		gdb, err := gorm.Open(postgres.Open(dsn), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		svcLog.Info("Connected to postgres")
		return &Service{db: gdb, log: svcLog}, nil
	}

	path := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	if path == "" {
		path = "projectcoach.db"
	}
	gdb, err := gorm.Open(sqlite.Open(path), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	svcLog.Info("Connected to sqlite", "path", path)
	return &Service{db: gdb, log: svcLog}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

// AutoMigrateAll migrates every engine model.
func (s *Service) AutoMigrateAll() error {
	return s.db.AutoMigrate(
		&domain.ConversationSession{},
		&domain.Turn{},
	)
}

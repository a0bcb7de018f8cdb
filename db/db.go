package db

import (
	"fmt"
	"time"

	"github.com/nikhilsahni7/StandupX/config"
	"github.com/nikhilsahni7/StandupX/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormConfig is the gorm configuration shared by every dialect. Only
// warnings and errors are logged, through log.
func GormConfig(log *zap.Logger) *gorm.Config {
	return &gorm.Config{
		Logger: logger.New(
			zap.NewStdLog(log.Named("gorm")),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
		TranslateError: true,
	}
}

// Open connects to postgres, applies the pool settings and migrates the
// schema.
func Open(cfg config.DBConfig, log *zap.Logger) (*gorm.DB, error) {
	gcfg := GormConfig(log)
	gcfg.PrepareStmt = true

	gdb, err := gorm.Open(postgres.Open(cfg.DSN), gcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := Migrate(gdb); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("database connected and migrated")
	return gdb, nil
}

func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.Ceremony{},
		&models.Question{},
		&models.QuestionOption{},
		&models.CeremonyQuestion{},
		&models.CeremonyResponse{},
		&models.QuestionResponse{},
		&models.Webhook{},
	)
}

package app

import (
	"context"
	"time"

	"github.com/fiffu/seatwatch/config"
	"github.com/fiffu/seatwatch/lib/models"
	"github.com/fiffu/seatwatch/lib/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}
	log.Sugar().Infow("Database started", "path", cfg.DatabasePath)

	log.Info("Starting migrations")
	if err := db.AutoMigrate(
		&models.Preference{},
		&models.CourseStatus{},
	); err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}

func NewStore(db *gorm.DB) *store.Store {
	return store.New(db)
}

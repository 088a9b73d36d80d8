package configs

import (
	"fmt"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectionDB opens the store. The handle is returned rather than kept in a
// package variable so every component receives it explicitly.
func ConnectionDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func SetupDatabase(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Restaurant{},
		&entity.Review{},
		&entity.Like{},
		&entity.Notification{},
		&entity.ModerationAction{},
	)
}

package database

import (
	"fmt"
	"log"

	"github.com/SwAsTiK-KuL/realtime-voting/internal/config"
	"github.com/SwAsTiK-KuL/realtime-voting/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	log.Println("database connected")
	return db
}

func AutoMigrate(db *gorm.DB) {
	if err := Migrate(db); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}
	log.Println("database migrated")
}

// Migrate applies the schema; split out from AutoMigrate so tests can
// migrate an in-memory database without the fatal-on-error wrapper.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Poll{},
		&models.Option{},
		&models.Vote{},
	)
}

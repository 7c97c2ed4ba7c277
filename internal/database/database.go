package database

import (
	"strings"

	"github.com/strideapp/stride-api/internal/config"
	"github.com/strideapp/stride-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	var dialector gorm.Dialector

	// Use PostgreSQL if URL starts with postgres, otherwise SQLite
	if strings.HasPrefix(cfg.DatabaseURL, "postgres") {
		dialector = postgres.Open(cfg.DatabaseURL)
	} else {
		// SQLite needs foreign keys switched on for the cascade and
		// set-null delete rules to actually fire.
		dsn := cfg.DatabaseURL
		if !strings.Contains(dsn, "_foreign_keys") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_foreign_keys=on"
		}
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return err
	}

	DB = db
	return nil
}

func Migrate() error {
	return DB.AutoMigrate(
		&models.User{},
		&models.Goal{},
		&models.GoalTarget{},
		&models.Task{},
		&models.Metric{},
		&models.Note{},
		&models.Reminder{},
		&models.Situation{},
		&models.Phase{},
		&models.Conversation{},
		&models.Message{},
		&models.Strategy{},
		&models.Experience{},
	)
}

package db

import (
	"github.com/duomind/backend/internal/domain"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// AutoMigrate all models
	err := db.AutoMigrate(
		&domain.User{},
		&domain.Task{},
	)
	if err != nil {
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		return err
	}

	return nil
}

func createCustomIndexes(db *gorm.DB) error {
	// A task title must be unique per owner while the task is live.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_owner_title_unique
		ON tasks (user_id, title)
		WHERE deleted_at IS NULL
	`).Error; err != nil {
		return err
	}

	return nil
}

package db

import (
	"context"
	"time"

	"github.com/duomind/backend/internal/core/ports"
	"github.com/duomind/backend/internal/domain"
	"github.com/duomind/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type taskRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepository(db *gorm.DB, log *logger.Logger) ports.TaskRepository {
	return &taskRepository{db: db, log: log}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		r.log.Errorw("task_repo_create_failed", "title", task.Title, "owner", task.UserID, "error", err)
		return err
	}
	r.log.Infow("task_repo_create_ok", "id", task.ID, "title", task.Title, "owner", task.UserID)
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id uint) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) GetByOwnerAndTitle(ctx context.Context, ownerID uint, title string) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND title = ?", ownerID, title).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) ListByOwner(ctx context.Context, ownerID uint) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := r.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("created_at DESC").Find(&tasks).Error; err != nil {
		r.log.Errorw("task_repo_list_failed", "owner", ownerID, "error", err)
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) ListAll(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&tasks).Error; err != nil {
		r.log.Errorw("task_repo_list_all_failed", "error", err)
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		r.log.Errorw("task_repo_update_failed", "id", task.ID, "error", err)
		return err
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&domain.Task{}, id).Error; err != nil {
		r.log.Errorw("task_repo_delete_failed", "id", id, "error", err)
		return err
	}
	r.log.Infow("task_repo_delete_ok", "id", id)
	return nil
}

func (r *taskRepository) CountByStatus(ctx context.Context, ownerID uint, status domain.TaskStatus) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&domain.Task{}).Where("status = ?", status)
	if ownerID != 0 {
		q = q.Where("user_id = ?", ownerID)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *taskRepository) CountAll(ctx context.Context, ownerID uint) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&domain.Task{})
	if ownerID != 0 {
		q = q.Where("user_id = ?", ownerID)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *taskRepository) CountCreatedBetween(ctx context.Context, ownerID uint, from, to time.Time) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&domain.Task{}).Where("created_at >= ? AND created_at < ?", from, to)
	if ownerID != 0 {
		q = q.Where("user_id = ?", ownerID)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

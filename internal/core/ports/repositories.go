package ports

import (
	"context"
	"time"

	"github.com/duomind/backend/internal/domain"
)

type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id uint) (*domain.Task, error)
	GetByOwnerAndTitle(ctx context.Context, ownerID uint, title string) (*domain.Task, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]domain.Task, error)
	ListAll(ctx context.Context) ([]domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id uint) error
	CountByStatus(ctx context.Context, ownerID uint, status domain.TaskStatus) (int64, error)
	CountAll(ctx context.Context, ownerID uint) (int64, error)
	CountCreatedBetween(ctx context.Context, ownerID uint, from, to time.Time) (int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uint) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetAll(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uint) error
}

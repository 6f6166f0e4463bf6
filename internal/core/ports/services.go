package ports

import (
	"context"
	"io"

	"github.com/duomind/backend/internal/domain"
)

type TaskService interface {
	// SaveUpload validates an inbound file against the extension allow-list
	// and the size ceiling, then persists it to the content area and returns
	// the stored reference.
	SaveUpload(ctx context.Context, filename string, size int64, r io.Reader) (string, error)
	Create(ctx context.Context, input CreateTaskInput) (*domain.Task, error)
	Advance(ctx context.Context, taskID uint, change TaskChange) (*domain.Task, error)
	Get(ctx context.Context, taskID uint) (*domain.Task, error)
	ListForOwner(ctx context.Context, ownerID uint) ([]domain.Task, error)
	ListAll(ctx context.Context) ([]domain.Task, error)
	SetCompleted(ctx context.Context, taskID uint, caller *domain.User, completed bool) (*domain.Task, error)
	Delete(ctx context.Context, taskID uint, caller *domain.User) error
}

type CreateTaskInput struct {
	Title        string
	OwnerID      uint
	InputFile    string
	ProductCodes []string
}

// TaskChange describes one state-machine transition request. Nil fields are
// left untouched.
type TaskChange struct {
	Status           *domain.TaskStatus
	Progress         *int
	AppendOutputFile string
	Error            string
}

// ProcessorService runs the transformation pipeline for a task as a detached
// unit of work. Dispatch never blocks the caller.
type ProcessorService interface {
	Dispatch(task *domain.Task)
	Wait()
}

type AnalyticsService interface {
	TaskStats(ctx context.Context, caller *domain.User) (*TaskStats, error)
}

type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type TaskStats struct {
	TotalTasks      int64      `json:"totalTasks"`
	CompletedTasks  int64      `json:"completedTasks"`
	FailedTasks     int64      `json:"failedTasks"`
	ProcessingTasks int64      `json:"processingTasks"`
	PendingTasks    int64      `json:"pendingTasks"`
	TasksByDay      []DayCount `json:"tasksByDay"`
	CompletionRate  float64    `json:"completionRate"`
}

type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
	GetByID(ctx context.Context, id uint) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, input RegisterInput, role domain.UserRole) (*domain.User, error)
	Update(ctx context.Context, id uint, input UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, id uint) error
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Company  string
}

type UpdateUserInput struct {
	Email    string
	Password string
	Name     string
	Company  string
	Role     domain.UserRole
}

// FileStore is the shared content area for uploaded inputs and produced
// outputs. Implementations must be safe for concurrent use.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Exists(ctx context.Context, name string) (bool, error)
	Remove(ctx context.Context, name string) error
}

// TabularCodec parses a spreadsheet into rows and serializes rows back. The
// engine depends only on this contract, never on a concrete file format
// library.
type TabularCodec interface {
	ReadRows(r io.Reader) ([][]string, error)
	WriteRows(w io.Writer, rows [][]string) error
}

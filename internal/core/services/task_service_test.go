package services

import (
	"context"
	"strings"
	"testing"

	"github.com/duomind/backend/internal/core/ports"
	"github.com/duomind/backend/internal/domain"
	"github.com/duomind/backend/internal/infrastructure/db"
	"github.com/duomind/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testMaxUpload = 10 * 1024 * 1024

func statusPtr(s domain.TaskStatus) *domain.TaskStatus { return &s }
func intPtr(i int) *int                                { return &i }

func createTask(t *testing.T, svc ports.TaskService, owner uint, title string) *domain.Task {
	t.Helper()
	task, err := svc.Create(context.Background(), ports.CreateTaskInput{
		Title:     title,
		OwnerID:   owner,
		InputFile: "input.xlsx",
	})
	require.NoError(t, err)
	return task
}

func TestCreateTask(t *testing.T) {
	svc, _ := newTestTaskService(t, newMemStore(), testMaxUpload)
	ctx := context.Background()

	task := createTask(t, svc, 1, "Report A")
	assert.Equal(t, domain.TaskStatusPending, task.Status)
	assert.Equal(t, 0, task.Progress)
	assert.Empty(t, task.OutputFiles)
	assert.Equal(t, uint(1), task.UserID)

	_, err := svc.Create(ctx, ports.CreateTaskInput{Title: "  ", OwnerID: 1, InputFile: "x.xlsx"})
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = svc.Create(ctx, ports.CreateTaskInput{Title: "No Input", OwnerID: 1})
	assert.ErrorIs(t, err, ErrInputRequired)
}

func TestCreateTask_DuplicateTitle(t *testing.T) {
	svc, _ := newTestTaskService(t, newMemStore(), testMaxUpload)
	ctx := context.Background()

	task := createTask(t, svc, 1, "X")

	// Same owner is rejected regardless of the existing task's status.
	_, err := svc.Create(ctx, ports.CreateTaskInput{Title: "X", OwnerID: 1, InputFile: "y.xlsx"})
	assert.ErrorIs(t, err, ErrDuplicateTitle)

	_, err = svc.Advance(ctx, task.ID, ports.TaskChange{Status: statusPtr(domain.TaskStatusProcessing)})
	require.NoError(t, err)
	_, err = svc.Advance(ctx, task.ID, ports.TaskChange{Status: statusPtr(domain.TaskStatusCompleted)})
	require.NoError(t, err)

	_, err = svc.Create(ctx, ports.CreateTaskInput{Title: "X", OwnerID: 1, InputFile: "y.xlsx"})
	assert.ErrorIs(t, err, ErrDuplicateTitle)

	tasks, err := svc.ListForOwner(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	// A different owner may reuse the title.
	_, err = svc.Create(ctx, ports.CreateTaskInput{Title: "X", OwnerID: 2, InputFile: "y.xlsx"})
	assert.NoError(t, err)
}

func TestCreateTask_FailureDiscardsUpload(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestTaskService(t, store, testMaxUpload)
	ctx := context.Background()

	ref, err := svc.SaveUpload(ctx, "first.xlsx", 4, strings.NewReader("data"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, ports.CreateTaskInput{Title: "Kept", OwnerID: 1, InputFile: ref})
	require.NoError(t, err)
	require.Equal(t, 1, store.count())

	// A rejected duplicate must not leave its upload behind.
	dupRef, err := svc.SaveUpload(ctx, "second.xlsx", 4, strings.NewReader("data"))
	require.NoError(t, err)
	require.Equal(t, 2, store.count())
	_, err = svc.Create(ctx, ports.CreateTaskInput{Title: "Kept", OwnerID: 1, InputFile: dupRef})
	assert.ErrorIs(t, err, ErrDuplicateTitle)
	assert.Equal(t, 1, store.count())

	// Same for a blank title.
	blankRef, err := svc.SaveUpload(ctx, "third.xlsx", 4, strings.NewReader("data"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, ports.CreateTaskInput{Title: "  ", OwnerID: 1, InputFile: blankRef})
	assert.ErrorIs(t, err, ErrTitleRequired)
	assert.Equal(t, 1, store.count())

	// The successfully created task's input survives.
	exists, err := store.Exists(ctx, ref)
	require.NoError(t, err)
	assert.True(t, exists)
}

// racingRepo simulates the window where a concurrent create has inserted the
// row after this request's lookup, leaving the unique index as the only guard.
type racingRepo struct {
	ports.TaskRepository
}

func (r *racingRepo) GetByOwnerAndTitle(ctx context.Context, ownerID uint, title string) (*domain.Task, error) {
	return nil, gorm.ErrRecordNotFound
}

func TestCreateTask_ConcurrentDuplicateHitsIndex(t *testing.T) {
	database := newTestDB(t)
	repo := &racingRepo{db.NewTaskRepository(database, logger.NewNop())}
	svc := NewTaskService(TaskServiceConfig{
		Repository:    repo,
		Store:         newMemStore(),
		Logger:        logger.NewNop(),
		MaxUploadSize: testMaxUpload,
	})
	ctx := context.Background()

	_, err := svc.Create(ctx, ports.CreateTaskInput{Title: "X", OwnerID: 1, InputFile: "a.xlsx"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, ports.CreateTaskInput{Title: "X", OwnerID: 1, InputFile: "b.xlsx"})
	assert.ErrorIs(t, err, ErrDuplicateTitle)
}

func TestAdvance_StateMachine(t *testing.T) {
	svc, _ := newTestTaskService(t, newMemStore(), testMaxUpload)
	ctx := context.Background()
	task := createTask(t, svc, 1, "SM")

	// PENDING only goes to PROCESSING.
	_, err := svc.Advance(ctx, task.ID, ports.TaskChange{Status: statusPtr(domain.TaskStatusCompleted)})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.Advance(ctx, task.ID, ports.TaskChange{Status: statusPtr(domain.TaskStatusFailed)})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	updated, err := svc.Advance(ctx, task.ID, ports.TaskChange{Status: statusPtr(domain.TaskStatusProcessing)})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusProcessing, updated.Status)

	// No way back to PENDING.
	_, err = svc.Advance(ctx, task.ID, ports.TaskChange{Status: statusPtr(domain.TaskStatusPending)})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Advance(ctx, 9999, ports.TaskChange{Status: statusPtr(domain.TaskStatusProcessing)})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestAdvance_MonotonicProgress(t *testing.T) {
	svc, _ := newTestTaskService(t, newMemStore(), testMaxUpload)
	ctx := context.Background()
	task := createTask(t, svc, 1, "Progress")

	processing := statusPtr(domain.TaskStatusProcessing)
	_, err := svc.Advance(ctx, task.ID, ports.TaskChange{Status: processing})
	require.NoError(t, err)

	updated, err := svc.Advance(ctx, task.ID, ports.TaskChange{Status: processing, Progress: intPtr(50)})
	require.NoError(t, err)
	assert.Equal(t, 50, updated.Progress)

	_, err = svc.Advance(ctx, task.ID, ports.TaskChange{Status: processing, Progress: intPtr(30)})
	assert.ErrorIs(t, err, ErrProgressDecreased)

	_, err = svc.Advance(ctx, task.ID, ports.TaskChange{Status: processing, Progress: intPtr(120)})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Equal progress is allowed.
	updated, err = svc.Advance(ctx, task.ID, ports.TaskChange{Status: processing, Progress: intPtr(50)})
	require.NoError(t, err)
	assert.Equal(t, 50, updated.Progress)
}

func TestAdvance_TerminalImmutability(t *testing.T) {
	svc, _ := newTestTaskService(t, newMemStore(), testMaxUpload)
	ctx := context.Background()
	task := createTask(t, svc, 1, "Terminal")

	processing := statusPtr(domain.TaskStatusProcessing)
	_, err := svc.Advance(ctx, task.ID, ports.TaskChange{Status: processing})
	require.NoError(t, err)
	_, err = svc.Advance(ctx, task.ID, ports.TaskChange{Status: processing, Progress: intPtr(67), AppendOutputFile: "out_1.xlsx"})
	require.NoError(t, err)

	completed, err := svc.Advance(ctx, task.ID, ports.TaskChange{Status: statusPtr(domain.TaskStatusCompleted)})
	require.NoError(t, err)
	assert.Equal(t, 100, completed.Progress)

	for _, change := range []ports.TaskChange{
		{Status: statusPtr(domain.TaskStatusProcessing)},
		{Status: statusPtr(domain.TaskStatusFailed)},
		{Progress: intPtr(100)},
		{AppendOutputFile: "out_2.xlsx"},
	} {
		_, err := svc.Advance(ctx, task.ID, change)
		assert.ErrorIs(t, err, ErrTerminalState)
	}

	after, err := svc.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, after.Status)
	assert.Equal(t, 100, after.Progress)
	assert.Equal(t, domain.StringList{"out_1.xlsx"}, after.OutputFiles)
}

func TestAdvance_FailedRecordsError(t *testing.T) {
	svc, _ := newTestTaskService(t, newMemStore(), testMaxUpload)
	ctx := context.Background()

	task := createTask(t, svc, 1, "Fails")
	_, err := svc.Advance(ctx, task.ID, ports.TaskChange{Status: statusPtr(domain.TaskStatusProcessing)})
	require.NoError(t, err)

	failed, err := svc.Advance(ctx, task.ID, ports.TaskChange{Status: statusPtr(domain.TaskStatusFailed), Error: "unsupported format"})
	require.NoError(t, err)
	assert.Equal(t, "unsupported format", failed.Error)

	// Empty message falls back to a generic one.
	other := createTask(t, svc, 1, "Fails Too")
	_, err = svc.Advance(ctx, other.ID, ports.TaskChange{Status: statusPtr(domain.TaskStatusProcessing)})
	require.NoError(t, err)
	failed, err = svc.Advance(ctx, other.ID, ports.TaskChange{Status: statusPtr(domain.TaskStatusFailed)})
	require.NoError(t, err)
	assert.Equal(t, "processing failed", failed.Error)
}

func TestSetCompleted_OwnerOnly(t *testing.T) {
	svc, _ := newTestTaskService(t, newMemStore(), testMaxUpload)
	ctx := context.Background()
	task := createTask(t, svc, 1, "Toggle")

	owner := &domain.User{ID: 1, Role: domain.UserRoleUser}
	stranger := &domain.User{ID: 2, Role: domain.UserRoleUser}

	updated, err := svc.SetCompleted(ctx, task.ID, owner, true)
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	// The checkbox is unrelated to the pipeline status.
	assert.Equal(t, domain.TaskStatusPending, updated.Status)

	_, err = svc.SetCompleted(ctx, task.ID, stranger, false)
	assert.ErrorIs(t, err, ErrTaskForbidden)

	_, err = svc.SetCompleted(ctx, 9999, owner, true)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestDelete(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestTaskService(t, store, testMaxUpload)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "input.xlsx", strings.NewReader("in")))
	require.NoError(t, store.Save(ctx, "out_1.xlsx", strings.NewReader("out")))

	task := createTask(t, svc, 1, "Del")
	processing := statusPtr(domain.TaskStatusProcessing)
	_, err := svc.Advance(ctx, task.ID, ports.TaskChange{Status: processing, AppendOutputFile: "out_1.xlsx"})
	require.NoError(t, err)

	stranger := &domain.User{ID: 2, Role: domain.UserRoleUser}
	assert.ErrorIs(t, svc.Delete(ctx, task.ID, stranger), ErrTaskForbidden)

	admin := &domain.User{ID: 3, Role: domain.UserRoleAdmin}
	require.NoError(t, svc.Delete(ctx, task.ID, admin))

	_, err = svc.Get(ctx, task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	// Stored files are gone with the row.
	assert.Equal(t, 0, store.count())
}

func TestListForOwner_Isolation(t *testing.T) {
	svc, _ := newTestTaskService(t, newMemStore(), testMaxUpload)
	ctx := context.Background()

	createTask(t, svc, 1, "Mine")
	createTask(t, svc, 2, "Theirs")

	mine, err := svc.ListForOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Mine", mine[0].Title)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSaveUpload(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestTaskService(t, store, 1024)
	ctx := context.Background()

	_, err := svc.SaveUpload(ctx, "notes.txt", 10, strings.NewReader("hello"))
	assert.ErrorIs(t, err, ErrUnsupportedFileType)

	_, err = svc.SaveUpload(ctx, "big.xlsx", 2048, strings.NewReader("data"))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	assert.Equal(t, 0, store.count())

	ref, err := svc.SaveUpload(ctx, "data.XLSX", 4, strings.NewReader("data"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".xlsx"))

	exists, err := store.Exists(ctx, ref)
	require.NoError(t, err)
	assert.True(t, exists)
}

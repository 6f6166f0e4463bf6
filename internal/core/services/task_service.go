package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/duomind/backend/internal/core/ports"
	"github.com/duomind/backend/internal/domain"
	"github.com/duomind/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// allowedExtensions is the spreadsheet allow-list for uploads.
var allowedExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
}

type taskService struct {
	repo          ports.TaskRepository
	store         ports.FileStore
	logger        *logger.Logger
	maxUploadSize int64
}

type TaskServiceConfig struct {
	Repository    ports.TaskRepository
	Store         ports.FileStore
	Logger        *logger.Logger
	MaxUploadSize int64
}

func NewTaskService(cfg TaskServiceConfig) ports.TaskService {
	return &taskService{
		repo:          cfg.Repository,
		store:         cfg.Store,
		logger:        cfg.Logger,
		maxUploadSize: cfg.MaxUploadSize,
	}
}

func (s *taskService) SaveUpload(ctx context.Context, filename string, size int64, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		s.logger.Warnw("upload_rejected_type", "filename", filename, "ext", ext)
		return "", ErrUnsupportedFileType
	}
	if size > s.maxUploadSize {
		s.logger.Warnw("upload_rejected_size", "filename", filename, "size", size, "limit", s.maxUploadSize)
		return "", ErrFileTooLarge
	}

	ref := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.New().String(), ext)
	if err := s.store.Save(ctx, ref, io.LimitReader(r, s.maxUploadSize)); err != nil {
		s.logger.Errorw("upload_save_failed", "ref", ref, "error", err)
		return "", err
	}

	s.logger.Infow("upload_saved", "ref", ref, "size", size)
	return ref, nil
}

func (s *taskService) Create(ctx context.Context, input ports.CreateTaskInput) (*domain.Task, error) {
	// An upload saved for a creation that never produces a row is a leak.
	discardUpload := func() {
		if input.InputFile == "" {
			return
		}
		if err := s.store.Remove(ctx, input.InputFile); err != nil {
			s.logger.Warnw("task_create_upload_discard_failed", "ref", input.InputFile, "error", err)
		}
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		discardUpload()
		return nil, ErrTitleRequired
	}
	if input.InputFile == "" && len(input.ProductCodes) == 0 {
		return nil, ErrInputRequired
	}

	existing, err := s.repo.GetByOwnerAndTitle(ctx, input.OwnerID, title)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		discardUpload()
		return nil, err
	}
	if existing != nil {
		s.logger.Warnw("task_create_duplicate_title", "owner", input.OwnerID, "title", title)
		discardUpload()
		return nil, ErrDuplicateTitle
	}

	task := &domain.Task{
		Title:        title,
		UserID:       input.OwnerID,
		InputFile:    input.InputFile,
		ProductCodes: input.ProductCodes,
		Status:       domain.TaskStatusPending,
		Progress:     0,
		OutputFiles:  domain.StringList{},
	}

	if err := s.repo.Create(ctx, task); err != nil {
		discardUpload()
		// A concurrent create can slip past the lookup above and hit the
		// partial unique index on (user_id, title) instead.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.logger.Warnw("task_create_duplicate_title", "owner", input.OwnerID, "title", title)
			return nil, ErrDuplicateTitle
		}
		return nil, err
	}

	s.logger.Infow("task_created", "id", task.ID, "owner", task.UserID, "title", task.Title)
	return task, nil
}

// Advance applies one state-machine transition. It is the single write path
// for status, progress, output files and error detail; invalid requests fail
// loudly instead of being clamped.
func (s *taskService) Advance(ctx context.Context, taskID uint, change ports.TaskChange) (*domain.Task, error) {
	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	if task.Status.IsTerminal() {
		s.logger.Errorw("task_advance_on_terminal", "id", taskID, "status", task.Status)
		return nil, ErrTerminalState
	}

	next := task.Status
	if change.Status != nil {
		next = *change.Status
		if !validTransition(task.Status, next) {
			s.logger.Errorw("task_advance_invalid_transition", "id", taskID, "from", task.Status, "to", next)
			return nil, ErrInvalidTransition
		}
	}

	if change.Progress != nil {
		p := *change.Progress
		if p < 0 || p > 100 || next != domain.TaskStatusProcessing {
			return nil, ErrInvalidTransition
		}
		if p < task.Progress {
			s.logger.Errorw("task_advance_progress_decreased", "id", taskID, "from", task.Progress, "to", p)
			return nil, ErrProgressDecreased
		}
		task.Progress = p
	}

	if change.AppendOutputFile != "" {
		if next != domain.TaskStatusProcessing {
			return nil, ErrInvalidTransition
		}
		task.OutputFiles = append(task.OutputFiles, change.AppendOutputFile)
	}

	task.Status = next
	switch next {
	case domain.TaskStatusCompleted:
		task.Progress = 100
	case domain.TaskStatusFailed:
		msg := change.Error
		if msg == "" {
			msg = "processing failed"
		}
		task.Error = msg
	}

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func validTransition(from, to domain.TaskStatus) bool {
	switch from {
	case domain.TaskStatusPending:
		return to == domain.TaskStatusProcessing
	case domain.TaskStatusProcessing:
		return to == domain.TaskStatusProcessing ||
			to == domain.TaskStatusCompleted ||
			to == domain.TaskStatusFailed
	default:
		return false
	}
}

func (s *taskService) Get(ctx context.Context, taskID uint) (*domain.Task, error) {
	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

func (s *taskService) ListForOwner(ctx context.Context, ownerID uint) ([]domain.Task, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *taskService) ListAll(ctx context.Context) ([]domain.Task, error) {
	return s.repo.ListAll(ctx)
}

func (s *taskService) SetCompleted(ctx context.Context, taskID uint, caller *domain.User, completed bool) (*domain.Task, error) {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != caller.ID {
		return nil, ErrTaskForbidden
	}

	task.Completed = completed
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, taskID uint, caller *domain.User) error {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if task.UserID != caller.ID && !caller.IsAdmin() {
		return ErrTaskForbidden
	}

	// Remove stored files first; a leftover file is a leak, not a failure.
	if task.InputFile != "" {
		if err := s.store.Remove(ctx, task.InputFile); err != nil {
			s.logger.Warnw("task_delete_input_file_remove_failed", "id", taskID, "ref", task.InputFile, "error", err)
		}
	}
	for _, f := range task.OutputFiles {
		if err := s.store.Remove(ctx, f); err != nil {
			s.logger.Warnw("task_delete_output_file_remove_failed", "id", taskID, "ref", f, "error", err)
		}
	}

	if err := s.repo.Delete(ctx, taskID); err != nil {
		return err
	}
	s.logger.Infow("task_deleted", "id", taskID, "by", caller.ID)
	return nil
}

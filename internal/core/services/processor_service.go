package services

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/duomind/backend/internal/core/ports"
	"github.com/duomind/backend/internal/domain"
	"github.com/duomind/backend/internal/infrastructure/logger"
)

type processorService struct {
	tasks     ports.TaskService
	store     ports.FileStore
	codec     ports.TabularCodec
	logger    *logger.Logger
	steps     int
	stepDelay time.Duration
	wg        sync.WaitGroup
}

type ProcessorServiceConfig struct {
	Tasks     ports.TaskService
	Store     ports.FileStore
	Codec     ports.TabularCodec
	Logger    *logger.Logger
	Steps     int
	StepDelay time.Duration
}

func NewProcessorService(cfg ProcessorServiceConfig) ports.ProcessorService {
	steps := cfg.Steps
	if steps <= 0 {
		steps = 3
	}
	return &processorService{
		tasks:     cfg.Tasks,
		store:     cfg.Store,
		codec:     cfg.Codec,
		logger:    cfg.Logger,
		steps:     steps,
		stepDelay: cfg.StepDelay,
	}
}

// Dispatch starts the pipeline for a freshly created task in its own
// goroutine and returns immediately. Each task is dispatched exactly once, so
// no two runs ever target the same task id.
func (s *processorService) Dispatch(task *domain.Task) {
	s.wg.Add(1)
	go func(taskID uint, source domain.InputSource) {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Errorw("processor_panic", "task_id", taskID, "panic", r)
				s.fail(context.Background(), taskID, fmt.Sprintf("processing panic: %v", r))
			}
		}()

		s.run(context.Background(), taskID, source)
	}(task.ID, task.InputSource())
}

// Wait blocks until all in-flight runs have finished.
func (s *processorService) Wait() {
	s.wg.Wait()
}

func (s *processorService) run(ctx context.Context, taskID uint, source domain.InputSource) {
	s.logger.Infow("processor_run_start", "task_id", taskID)

	// PROCESSING is the only state FAILED is reachable from, so the task
	// leaves PENDING before any verification or transformation work.
	processing := domain.TaskStatusProcessing
	if _, err := s.tasks.Advance(ctx, taskID, ports.TaskChange{Status: &processing}); err != nil {
		s.logger.Errorw("processor_start_transition_failed", "task_id", taskID, "error", err)
		return
	}

	if err := s.verifyInput(ctx, source); err != nil {
		s.fail(ctx, taskID, err.Error())
		return
	}

	rows, outExt, err := s.loadRows(ctx, source)
	if err != nil {
		s.fail(ctx, taskID, err.Error())
		return
	}

	for step := 1; step <= s.steps; step++ {
		name := fmt.Sprintf("output_%d_%d%s", taskID, step, outExt)

		var buf bytes.Buffer
		if err := s.codec.WriteRows(&buf, rows); err != nil {
			s.fail(ctx, taskID, err.Error())
			return
		}
		if err := s.store.Save(ctx, name, &buf); err != nil {
			s.fail(ctx, taskID, err.Error())
			return
		}

		progress := int(math.Round(float64(step) / float64(s.steps) * 100))
		if _, err := s.tasks.Advance(ctx, taskID, ports.TaskChange{
			Status:           &processing,
			Progress:         &progress,
			AppendOutputFile: name,
		}); err != nil {
			// Most likely the task was deleted mid-flight; stop quietly.
			s.logger.Warnw("processor_step_advance_failed", "task_id", taskID, "step", step, "error", err)
			return
		}

		s.logger.Infow("processor_step_done", "task_id", taskID, "step", step, "progress", progress, "output", name)

		if step < s.steps && s.stepDelay > 0 {
			time.Sleep(s.stepDelay)
		}
	}

	completed := domain.TaskStatusCompleted
	if _, err := s.tasks.Advance(ctx, taskID, ports.TaskChange{Status: &completed}); err != nil {
		s.logger.Errorw("processor_complete_transition_failed", "task_id", taskID, "error", err)
		return
	}
	s.logger.Infow("processor_run_completed", "task_id", taskID)
}

func (s *processorService) verifyInput(ctx context.Context, source domain.InputSource) error {
	switch source.Kind {
	case domain.SourceFile:
		exists, err := s.store.Exists(ctx, source.File)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("input file missing")
		}
		if !allowedExtensions[strings.ToLower(filepath.Ext(source.File))] {
			return fmt.Errorf("unsupported format")
		}
		return nil
	case domain.SourceProductCodes:
		if len(source.Codes) == 0 {
			return fmt.Errorf("no product codes provided")
		}
		return nil
	default:
		return fmt.Errorf("unknown input source")
	}
}

func (s *processorService) loadRows(ctx context.Context, source domain.InputSource) ([][]string, string, error) {
	switch source.Kind {
	case domain.SourceFile:
		f, err := s.store.Open(ctx, source.File)
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		rows, err := s.codec.ReadRows(f)
		if err != nil {
			return nil, "", err
		}
		return rows, strings.ToLower(filepath.Ext(source.File)), nil
	default:
		rows := make([][]string, 0, len(source.Codes)+1)
		rows = append(rows, []string{"product_code"})
		for _, code := range source.Codes {
			rows = append(rows, []string{code})
		}
		return rows, ".xlsx", nil
	}
}

// fail records the terminal FAILED state. It is the engine's only recovery:
// outputs already written stay referenced.
func (s *processorService) fail(ctx context.Context, taskID uint, msg string) {
	if msg == "" {
		msg = "processing failed"
	}
	failed := domain.TaskStatusFailed
	if _, err := s.tasks.Advance(ctx, taskID, ports.TaskChange{Status: &failed, Error: msg}); err != nil {
		s.logger.Warnw("processor_fail_transition_failed", "task_id", taskID, "error", err)
		return
	}
	s.logger.Errorw("processor_run_failed", "task_id", taskID, "error", msg)
}

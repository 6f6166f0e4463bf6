package services

import (
	"context"
	"time"

	"github.com/duomind/backend/internal/core/ports"
	"github.com/duomind/backend/internal/domain"
	"github.com/duomind/backend/internal/infrastructure/logger"
)

type analyticsService struct {
	repo   ports.TaskRepository
	logger *logger.Logger
}

func NewAnalyticsService(repo ports.TaskRepository, log *logger.Logger) ports.AnalyticsService {
	return &analyticsService{repo: repo, logger: log}
}

// TaskStats aggregates task counts for the caller, or for everyone when the
// caller is an administrator.
func (s *analyticsService) TaskStats(ctx context.Context, caller *domain.User) (*ports.TaskStats, error) {
	var ownerID uint
	if !caller.IsAdmin() {
		ownerID = caller.ID
	}

	total, err := s.repo.CountAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	stats := &ports.TaskStats{TotalTasks: total}

	byStatus := []struct {
		status domain.TaskStatus
		dest   *int64
	}{
		{domain.TaskStatusCompleted, &stats.CompletedTasks},
		{domain.TaskStatusFailed, &stats.FailedTasks},
		{domain.TaskStatusProcessing, &stats.ProcessingTasks},
		{domain.TaskStatusPending, &stats.PendingTasks},
	}
	for _, c := range byStatus {
		count, err := s.repo.CountByStatus(ctx, ownerID, c.status)
		if err != nil {
			return nil, err
		}
		*c.dest = count
	}

	// Daily creation counts for the last 7 days, oldest first.
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		count, err := s.repo.CountCreatedBetween(ctx, ownerID, day, day.AddDate(0, 0, 1))
		if err != nil {
			return nil, err
		}
		stats.TasksByDay = append(stats.TasksByDay, ports.DayCount{
			Date:  day.Format("2006-01-02"),
			Count: count,
		})
	}

	if total > 0 {
		stats.CompletionRate = float64(stats.CompletedTasks) / float64(total) * 100
	}

	return stats, nil
}

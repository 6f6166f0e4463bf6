package dto

import (
	"strings"
	"time"

	"github.com/duomind/backend/internal/domain"
)

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

type TaskResponse struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Status       string    `json:"status"`
	Progress     int       `json:"progress"`
	InputFile    string    `json:"inputFile"`
	ProductCodes []string  `json:"productCodes,omitempty"`
	OutputFiles  []string  `json:"outputFiles"`
	Error        string    `json:"error,omitempty"`
	Completed    bool      `json:"completed"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func TaskToResponse(task *domain.Task) TaskResponse {
	outputs := task.OutputFiles
	if outputs == nil {
		outputs = []string{}
	}
	return TaskResponse{
		ID:           task.ID,
		Title:        task.Title,
		Status:       string(task.Status),
		Progress:     task.Progress,
		InputFile:    task.InputFile,
		ProductCodes: task.ProductCodes,
		OutputFiles:  outputs,
		Error:        task.Error,
		Completed:    task.Completed,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}
}

func TasksToResponse(tasks []domain.Task) []TaskResponse {
	responses := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		responses = append(responses, TaskToResponse(&tasks[i]))
	}
	return responses
}

type UpdateTaskRequest struct {
	Completed *bool `json:"completed"`
}

// ParseProductCodes splits a comma or newline separated form field into a
// clean code list.
func ParseProductCodes(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r' || r == ';'
	})
	codes := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			codes = append(codes, f)
		}
	}
	return codes
}

package handlers

import (
	"strconv"

	"github.com/duomind/backend/internal/core/ports"
	"github.com/duomind/backend/internal/core/services"
	"github.com/duomind/backend/internal/infrastructure/logger"
	"github.com/duomind/backend/internal/transport/http/dto"
	"github.com/duomind/backend/internal/transport/http/middleware"
	"github.com/gofiber/fiber/v2"
)

type TaskHandler struct {
	tasks     ports.TaskService
	processor ports.ProcessorService
	logger    *logger.Logger
}

func NewTaskHandler(tasks ports.TaskService, processor ports.ProcessorService, log *logger.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, processor: processor, logger: log}
}

// CreateTask accepts a multipart form with a title plus either an uploaded
// spreadsheet or a product-code list. The task is returned in PENDING as soon
// as the row is durable; processing runs out-of-band.
func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)
	title := c.FormValue("title")
	codes := dto.ParseProductCodes(c.FormValue("product_codes"))

	input := ports.CreateTaskInput{
		Title:        title,
		OwnerID:      caller.ID,
		ProductCodes: codes,
	}

	file, err := c.FormFile("file")
	if err == nil && file != nil {
		src, err := file.Open()
		if err != nil {
			h.logger.Errorw("task_create_file_open_failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: "failed to read uploaded file",
			})
		}
		ref, err := h.tasks.SaveUpload(c.Context(), file.Filename, file.Size, src)
		src.Close()
		if err != nil {
			return h.uploadError(c, err)
		}
		input.InputFile = ref
	}

	h.logger.Infow("task_create_request", "owner", caller.ID, "title", title,
		"has_file", input.InputFile != "", "code_count", len(codes))

	task, err := h.tasks.Create(c.Context(), input)
	if err != nil {
		switch err {
		case services.ErrTitleRequired, services.ErrInputRequired, services.ErrDuplicateTitle:
			h.logger.Warnw("task_create_rejected", "owner", caller.ID, "error", err)
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
		default:
			h.logger.Errorw("task_create_failed", "owner", caller.ID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
		}
	}

	// Fire and forget: engine failures surface through the task row, never
	// through this response.
	h.processor.Dispatch(task)

	h.logger.Infow("task_create_success", "id", task.ID, "owner", caller.ID)
	return c.JSON(dto.TaskToResponse(task))
}

func (h *TaskHandler) uploadError(c *fiber.Ctx, err error) error {
	switch err {
	case services.ErrUnsupportedFileType:
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(dto.ErrorResponse{Error: err.Error()})
	case services.ErrFileTooLarge:
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{Error: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}
}

// GetTasks lists the caller's tasks newest-first. Administrators may pass
// ?all=true to see every task.
func (h *TaskHandler) GetTasks(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)

	var (
		tasks []dto.TaskResponse
		err   error
	)
	if caller.IsAdmin() && c.QueryBool("all") {
		list, listErr := h.tasks.ListAll(c.Context())
		tasks, err = dto.TasksToResponse(list), listErr
	} else {
		list, listErr := h.tasks.ListForOwner(c.Context(), caller.ID)
		tasks, err = dto.TasksToResponse(list), listErr
	}
	if err != nil {
		h.logger.Errorw("tasks_list_failed", "owner", caller.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(tasks)
}

func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid task id"})
	}

	var req dto.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil || req.Completed == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	task, err := h.tasks.SetCompleted(c.Context(), uint(id), caller, *req.Completed)
	if err != nil {
		return h.taskError(c, err)
	}

	return c.JSON(dto.TaskToResponse(task))
}

func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid task id"})
	}

	if err := h.tasks.Delete(c.Context(), uint(id), caller); err != nil {
		return h.taskError(c, err)
	}

	return c.JSON(dto.SuccessResponse{Message: "task deleted"})
}

func (h *TaskHandler) taskError(c *fiber.Ctx, err error) error {
	switch err {
	case services.ErrTaskNotFound:
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: err.Error()})
	case services.ErrTaskForbidden:
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: err.Error()})
	default:
		h.logger.Errorw("task_request_failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}
}

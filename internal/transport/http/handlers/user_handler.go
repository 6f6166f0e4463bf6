package handlers

import (
	"strconv"

	"github.com/duomind/backend/internal/core/ports"
	"github.com/duomind/backend/internal/core/services"
	"github.com/duomind/backend/internal/domain"
	"github.com/duomind/backend/internal/infrastructure/logger"
	"github.com/duomind/backend/internal/transport/http/dto"
	"github.com/gofiber/fiber/v2"
)

// UserHandler exposes administrator-only user management.
type UserHandler struct {
	users  ports.UserService
	logger *logger.Logger
}

func NewUserHandler(users ports.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{users: users, logger: log}
}

func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.users.List(c.Context())
	if err != nil {
		h.logger.Errorw("users_list_failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.UsersToResponse(users))
}

func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "validation failed", Details: errs})
	}

	role := domain.UserRole(req.Role)
	if role != domain.UserRoleAdmin {
		role = domain.UserRoleUser
	}

	user, err := h.users.Create(c.Context(), ports.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Company:  req.Company,
	}, role)
	if err != nil {
		return h.userError(c, err)
	}

	return c.JSON(dto.UserToResponse(user))
}

func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid user id"})
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	user, err := h.users.Update(c.Context(), uint(id), ports.UpdateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Company:  req.Company,
		Role:     domain.UserRole(req.Role),
	})
	if err != nil {
		return h.userError(c, err)
	}

	return c.JSON(dto.UserToResponse(user))
}

func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid user id"})
	}

	if err := h.users.Delete(c.Context(), uint(id)); err != nil {
		return h.userError(c, err)
	}

	return c.JSON(dto.SuccessResponse{Message: "user deleted"})
}

func (h *UserHandler) userError(c *fiber.Ctx, err error) error {
	switch err {
	case services.ErrUserNotFound:
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: err.Error()})
	case services.ErrUserAlreadyExists, services.ErrUserInvalidInput:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	default:
		h.logger.Errorw("user_request_failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}
}

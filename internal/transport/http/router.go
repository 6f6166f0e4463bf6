package http

import (
	"github.com/duomind/backend/internal/config"
	"github.com/duomind/backend/internal/core/ports"
	"github.com/duomind/backend/internal/core/services"
	"github.com/duomind/backend/internal/infrastructure/db"
	"github.com/duomind/backend/internal/infrastructure/logger"
	"github.com/duomind/backend/internal/transport/http/handlers"
	httpmw "github.com/duomind/backend/internal/transport/http/middleware"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type RouterConfig struct {
	DB     *gorm.DB
	Logger *logger.Logger
	Config *config.Config
	Store  ports.FileStore
	Codec  ports.TabularCodec
}

// SetupRoutes wires repositories, services and handlers, and returns the
// processor so the caller can drain in-flight runs on shutdown.
func SetupRoutes(app *fiber.App, cfg RouterConfig) ports.ProcessorService {
	// Repositories
	taskRepo := db.NewTaskRepository(cfg.DB, cfg.Logger)
	userRepo := db.NewUserRepository(cfg.DB, cfg.Logger)

	// Services
	userService := services.NewUserService(userRepo, cfg.Logger)
	taskService := services.NewTaskService(services.TaskServiceConfig{
		Repository:    taskRepo,
		Store:         cfg.Store,
		Logger:        cfg.Logger,
		MaxUploadSize: cfg.Config.Storage.MaxUploadBytes(),
	})
	processorService := services.NewProcessorService(services.ProcessorServiceConfig{
		Tasks:     taskService,
		Store:     cfg.Store,
		Codec:     cfg.Codec,
		Logger:    cfg.Logger,
		Steps:     cfg.Config.Processing.StepCount(),
		StepDelay: cfg.Config.Processing.StepDelay,
	})
	analyticsService := services.NewAnalyticsService(taskRepo, cfg.Logger)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, cfg.Logger)
	userHandler := handlers.NewUserHandler(userService, cfg.Logger)
	taskHandler := handlers.NewTaskHandler(taskService, processorService, cfg.Logger)
	fileHandler := handlers.NewFileHandler(cfg.Store, cfg.Logger)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, cfg.Logger)

	api := app.Group("/api")

	// Public auth routes
	api.Post("/register", authHandler.Register)
	api.Post("/login", authHandler.Login)

	auth := httpmw.UserAuth(userService)

	// Task routes
	tasks := api.Group("/tasks", auth)
	tasks.Post("/", taskHandler.CreateTask)
	tasks.Get("/", taskHandler.GetTasks)
	tasks.Patch("/:id", taskHandler.UpdateTask)
	tasks.Delete("/:id", taskHandler.DeleteTask)

	// File download
	api.Get("/files/:filename", auth, fileHandler.Download)

	// Analytics
	api.Get("/analytics", auth, analyticsHandler.GetStats)

	// User administration
	users := api.Group("/users", auth, httpmw.RequireAdmin())
	users.Get("/", userHandler.GetUsers)
	users.Post("/", userHandler.CreateUser)
	users.Patch("/:id", userHandler.UpdateUser)
	users.Delete("/:id", userHandler.DeleteUser)

	return processorService
}

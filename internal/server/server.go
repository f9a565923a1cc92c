package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/internal/config"
	"taskboard/internal/handler"
	"taskboard/internal/middleware"
	"taskboard/internal/model"
	"taskboard/internal/notify"
	"taskboard/internal/repository"
	"taskboard/internal/scheduler"
	"taskboard/internal/storage"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	Engine  *gin.Engine
	DB      *gorm.DB
	Config  *config.Config
	Sweeper *scheduler.DeadlineSweeper
}

func Init(cfg *config.Config) (*Server, error) {
	// Setup GORM
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.Println("✅ Connected to database")

	if err := db.AutoMigrate(&model.User{}, &model.Task{}); err != nil {
		return nil, fmt.Errorf("❌ failed to migrate schema: %w", err)
	}

	// Setup Gin
	r := gin.Default()

	// Initialize repositories and collaborators
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	fileStore := storage.NewFileStore(cfg.UploadDir)
	notifier := notify.NewLogNotifier(cfg.MailLogPath)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	userHandler := handler.NewUserHandler(userRepo, taskRepo)
	taskHandler := handler.NewTaskHandler(taskRepo, userRepo, fileStore, notifier)
	myTaskHandler := handler.NewMyTaskHandler(taskRepo, fileStore)

	// Public routes
	r.POST("/login", authHandler.Login)
	r.GET("/logout", authHandler.Logout)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Stored documents are served for download by their relative paths
	r.Static("/uploads", cfg.UploadDir)

	// Admin surface - requires role=admin
	admin := r.Group("/admin")
	admin.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.AdminOnly())
	{
		admin.GET("/users", userHandler.List)
		admin.POST("/users", userHandler.Create)
		admin.PUT("/users", userHandler.Update)
		admin.DELETE("/users", userHandler.Delete)

		admin.GET("/tasks", taskHandler.List)
		admin.POST("/tasks", taskHandler.Save)
		admin.PUT("/tasks", taskHandler.UpdateFields)
		admin.DELETE("/tasks", taskHandler.Delete)
	}

	// User surface - requires any authenticated identity
	user := r.Group("/user")
	user.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		user.GET("/tasks", myTaskHandler.List)
		user.POST("/tasks", myTaskHandler.UploadCompletedAssignment)
		user.PUT("/tasks", myTaskHandler.UpdateStatus)
	}

	return &Server{
		Engine:  r,
		DB:      db,
		Config:  cfg,
		Sweeper: scheduler.NewDeadlineSweeper(taskRepo, cfg.SweepInterval),
	}, nil
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go s.Sweeper.Run(sweepCtx)

	go func() {
		log.Printf("🚀 Server running on port %s\n", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")
	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	log.Println("✅ Server exited properly")
}

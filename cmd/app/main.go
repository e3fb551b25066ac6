package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"tasktracker/internal/config"
	"tasktracker/internal/handler"
	"tasktracker/internal/repo"
	"tasktracker/internal/seed"
	"tasktracker/internal/service"
)

func main() {
	// Подключаем логгер
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Загрузка конфигурации
	cfg := config.Load()

	// Подключаем БД
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to Database.")
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal("Failed to ping the Database.")
	}
	logger.Info("Successfully connected to the Database!")

	taskRepo := repo.NewTaskRepo(pool)
	taskService := service.NewTaskService(taskRepo)
	taskHandler := handler.NewTaskHandler(taskService, logger)
	webHandler, err := handler.NewWebHandler(taskService, logger)
	if err != nil {
		logger.Fatal("Failed to build web handler", zap.Error(err))
	}

	// Наполнение примерами до приёма запросов
	if cfg.SeedOnStart {
		if err := seed.Run(context.Background(), taskService, logger); err != nil {
			logger.Fatal("Seeding failed", zap.Error(err))
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
	})

	// Страницы
	r.Get("/", webHandler.Index)
	r.Get("/add", webHandler.AddForm)
	r.Post("/add", webHandler.AddSubmit)
	r.Get("/edit/{id}", webHandler.EditForm)
	r.Post("/edit/{id}", webHandler.EditSubmit)
	r.Post("/update/{id}", webHandler.UpdateStatus)
	r.Post("/delete/{id}", webHandler.DeleteTask)

	// JSON API
	r.Get("/api/tasks", taskHandler.List)
	r.Post("/api/task", taskHandler.Create)
	r.Get("/api/task/{id}", taskHandler.Get)
	r.Put("/api/task/{id}", taskHandler.Update)
	r.Delete("/api/task/{id}", taskHandler.Delete)
	r.Get("/api/stats", taskHandler.Stats)

	srv := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() { // Запуск сервера и обработка ошибок
		logger.Info("Server started at ", zap.String("port", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed: ", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Shutdown error: ", zap.Error(err))
	}
	logger.Info("Server stopped succsessfully!")
}

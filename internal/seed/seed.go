// Package seed наполняет пустую базу примерами задач при старте процесса.
package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tasktracker/internal/model"
	"tasktracker/internal/service"
)

type sampleTask struct {
	title       string
	description string
	complete    bool
}

var samples = []sampleTask{
	{
		title:       "Set up project repository",
		description: "Create the repository, module layout and CI configuration for the task tracker.",
		complete:    true,
	},
	{
		title:       "Write project documentation",
		description: "Cover setup instructions and the JSON API in the README.",
		complete:    true,
	},
	{
		title:       "Test all API endpoints",
		description: "Verify that GET, POST, PUT and DELETE endpoints return proper JSON envelopes.",
	},
	{
		title:       "Deploy application to the server",
		description: "Build the binary, provision the database and wire up process supervision.",
	},
	{
		title:       "Add task filtering and sorting",
		description: "Filter by status and sort by creation time, update time or title on the list page.",
	},
	{
		title:       "Create user authentication system",
		description: "Future enhancement: registration and login to support multiple users.",
	},
}

// Run прогоняет примеры через обычный путь создания (service.Create),
// а не пишет в базу напрямую — валидация и таймстемпы отрабатывают как
// для живых запросов. Запускается только на пустой базе.
func Run(ctx context.Context, srv *service.TaskService, logger *zap.Logger) error {
	stats, err := srv.Stats(ctx)
	if err != nil {
		return fmt.Errorf("check existing tasks: %w", err)
	}
	if stats.Total > 0 {
		logger.Info("Database already has tasks, skipping seed", zap.Int("total", stats.Total))
		return nil
	}

	for _, s := range samples {
		task, err := srv.Create(ctx, s.title, s.description)
		if err != nil {
			return fmt.Errorf("seed task %q: %w", s.title, err)
		}
		if s.complete {
			status := model.StatusComplete
			if _, err := srv.Update(ctx, task.ID, model.TaskPatch{Status: &status}); err != nil {
				return fmt.Errorf("mark seed task %q complete: %w", s.title, err)
			}
		}
	}

	logger.Info("Seeded sample tasks", zap.Int("count", len(samples)))
	return nil
}

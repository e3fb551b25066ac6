package repo

import (
	"context"

	"tasktracker/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами
type TaskRepository interface {
	Create(ctx context.Context, title, description string) (model.Task, error)
	Get(ctx context.Context, id int64) (model.Task, error)
	ListAll(ctx context.Context) ([]model.Task, error)
	Update(ctx context.Context, id int64, patch model.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context) (model.Stats, error)
}

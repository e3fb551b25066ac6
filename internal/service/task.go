package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"tasktracker/internal/model"
	"tasktracker/internal/repo"
)

var ErrValidation = errors.New("validation error")

// Причины отказа валидации — для точных сообщений пользователю
const (
	ReasonEmptyTitle         = "empty_title"
	ReasonTitleTooLong       = "title_too_long"
	ReasonDescriptionTooLong = "description_too_long"
	ReasonInvalidStatus      = "invalid_status"
)

// ValidationError сопоставляется с ErrValidation через errors.Is
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

var (
	errEmptyTitle = &ValidationError{
		Reason:  ReasonEmptyTitle,
		Message: "task title is required",
	}
	errTitleTooLong = &ValidationError{
		Reason:  ReasonTitleTooLong,
		Message: fmt.Sprintf("task title must be at most %d characters", model.MaxTitleLen),
	}
	errDescriptionTooLong = &ValidationError{
		Reason:  ReasonDescriptionTooLong,
		Message: fmt.Sprintf("task description must be at most %d characters", model.MaxDescriptionLen),
	}
	errInvalidStatus = &ValidationError{
		Reason:  ReasonInvalidStatus,
		Message: "status must be 'complete' or 'incomplete'",
	}
)

type TaskService struct {
	repo     repo.TaskRepository
	validate *validator.Validate
}

func NewTaskService(repo repo.TaskRepository) *TaskService {
	return &TaskService{
		repo:     repo,
		validate: validator.New(),
	}
}

func (s *TaskService) Create(ctx context.Context, title, description string) (model.Task, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if err := s.validateTitle(title); err != nil {
		return model.Task{}, err
	}
	if err := s.validateDescription(description); err != nil {
		return model.Task{}, err
	}

	return s.repo.Create(ctx, title, description)
}

func (s *TaskService) Get(ctx context.Context, id int64) (model.Task, error) {
	return s.repo.Get(ctx, id)
}

func (s *TaskService) ListAll(ctx context.Context) ([]model.Task, error) {
	return s.repo.ListAll(ctx)
}

// Update меняет только переданные поля. Существование записи проверяется
// до валидации новых значений, поэтому несуществующий id всегда даёт
// NotFound независимо от содержимого patch.
func (s *TaskService) Update(ctx context.Context, id int64, patch model.TaskPatch) (model.Task, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return model.Task{}, err
	}

	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		if err := s.validateTitle(trimmed); err != nil {
			return model.Task{}, err
		}
		patch.Title = &trimmed
	}
	if patch.Description != nil {
		trimmed := strings.TrimSpace(*patch.Description)
		if err := s.validateDescription(trimmed); err != nil {
			return model.Task{}, err
		}
		patch.Description = &trimmed
	}
	if patch.Status != nil {
		if err := s.validate.Var(*patch.Status, "oneof=incomplete complete"); err != nil {
			return model.Task{}, errInvalidStatus
		}
	}

	return s.repo.Update(ctx, id, patch)
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *TaskService) Stats(ctx context.Context) (model.Stats, error) {
	return s.repo.CountByStatus(ctx)
}

func (s *TaskService) validateTitle(title string) error {
	err := s.validate.Var(title, fmt.Sprintf("required,max=%d", model.MaxTitleLen))
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Tag() == "max" {
		return errTitleTooLong
	}
	return errEmptyTitle
}

func (s *TaskService) validateDescription(description string) error {
	if err := s.validate.Var(description, fmt.Sprintf("max=%d", model.MaxDescriptionLen)); err != nil {
		return errDescriptionTooLong
	}
	return nil
}

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tasktracker/internal/model"
	"tasktracker/internal/query"
	"tasktracker/internal/repo"
	"tasktracker/internal/service"
	"tasktracker/pkg/respond"
)

type TaskHandler struct {
	service *service.TaskService
	logger  *zap.Logger
}

func NewTaskHandler(srv *service.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: srv,
		logger:  logger,
	}
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// List обрабатывает GET /api/tasks?status=&sort=&direction=
// Вместе со списком возвращает итоги по всему хранилищу.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.ListAll(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	q := r.URL.Query()
	filtered, err := query.Filter(tasks, q.Get("status"))
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	sorted, err := query.Sort(filtered, q.Get("sort"), q.Get("direction"))
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, respond.Envelope{
		Success: true,
		Data:    sorted,
		Stats:   stats,
	})
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid task id")
		return
	}

	task, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.Data(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
		return
	}

	var req createTaskRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields() // неизвестные поля — ошибка, а не тихий пропуск
	if err := dec.Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return
	}

	task, err := h.service.Create(r.Context(), req.Title, req.Description)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/task/%d", task.ID))
	respond.JSON(w, r, http.StatusCreated, respond.Envelope{
		Success: true,
		Data:    task,
		Message: "Task created successfully",
	})
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid task id")
		return
	}

	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
		return
	}

	var patch model.TaskPatch
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return
	}
	if patch.Empty() {
		respond.Error(w, r, http.StatusBadRequest, "no fields to update")
		return
	}

	task, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, respond.Envelope{
		Success: true,
		Data:    task,
		Message: "Task updated successfully",
	})
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid task id")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleErrors(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, respond.Envelope{
		Success: true,
		Message: "Task deleted successfully",
	})
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.Data(w, r, http.StatusOK, stats)
}

func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.Is(err, repo.ErrorNotFound):
		respond.Error(w, r, http.StatusNotFound, "Task not found")
	case errors.As(err, &vErr):
		respond.Error(w, r, http.StatusBadRequest, vErr.Message)
	case errors.Is(err, query.ErrInvalidFilterValue):
		respond.Error(w, r, http.StatusBadRequest, "status filter must be 'complete' or 'incomplete'")
	case errors.Is(err, query.ErrInvalidSortKey):
		respond.Error(w, r, http.StatusBadRequest, "unknown sort key")
	case errors.Is(err, query.ErrInvalidSortDirection):
		respond.Error(w, r, http.StatusBadRequest, "sort direction must be 'asc' or 'desc'")
	default:
		h.logger.Error("internal error", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

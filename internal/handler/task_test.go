package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tasktracker/internal/model"
	"tasktracker/internal/repo"
	"tasktracker/internal/service"
	"tasktracker/tests"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Stats   *model.Stats    `json:"stats"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func setupHandler(t *testing.T) (*TaskHandler, func()) {
	pool, cleanup := tests.SetupTestDB(t)

	taskRepo := repo.NewTaskRepo(pool)
	taskService := service.NewTaskService(taskRepo)
	logger := zap.NewNop()
	handler := NewTaskHandler(taskService, logger)

	return handler, cleanup
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return env
}

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func createTask(t *testing.T, handler *TaskHandler, title, description string) model.Task {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"title": title, "description": description})
	req := httptest.NewRequest(http.MethodPost, "/api/task", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	handler.Create(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	env := decodeEnvelope(t, w)
	var task model.Task
	require.NoError(t, json.Unmarshal(env.Data, &task))
	return task
}

func TestTaskHandler_Create(t *testing.T) {
	handler, cleanup := setupHandler(t)
	defer cleanup()

	tests := []struct {
		name          string
		body          string
		wantCode      int
		checkResponse func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:     "successful creation",
			body:     `{"title": "Test Task", "description": "Details"}`,
			wantCode: http.StatusCreated,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				env := decodeEnvelope(t, w)
				assert.True(t, env.Success)
				assert.Equal(t, "Task created successfully", env.Message)

				var task model.Task
				require.NoError(t, json.Unmarshal(env.Data, &task))
				assert.NotZero(t, task.ID)
				assert.Equal(t, "Test Task", task.Title)
				assert.Equal(t, model.StatusIncomplete, task.Status)
				assert.Equal(t, task.CreatedAt, task.UpdatedAt)
				assert.Contains(t, w.Header().Get("Location"), "/api/task/")
			},
		},
		{
			name:     "empty body",
			body:     "",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "validation error - empty title",
			body:     `{"title": "   "}`,
			wantCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				env := decodeEnvelope(t, w)
				assert.False(t, env.Success)
				assert.Equal(t, "task title is required", env.Error)
			},
		},
		{
			name:     "validation error - title too long",
			body:     fmt.Sprintf(`{"title": %q}`, strings.Repeat("a", model.MaxTitleLen+1)),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown field rejected",
			body:     `{"title": "Valid", "priority": 5}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "malformed json",
			body:     `{"title":`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/task", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			handler.Create(w, req)

			assert.Equal(t, tt.wantCode, w.Code)

			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
		})
	}
}

func TestTaskHandler_Get(t *testing.T) {
	handler, cleanup := setupHandler(t)
	defer cleanup()

	created := createTask(t, handler, "Get Test", "")

	t.Run("get existing task", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/task/%d", created.ID), nil)
		req = withID(req, fmt.Sprintf("%d", created.ID))

		w := httptest.NewRecorder()
		handler.Get(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		env := decodeEnvelope(t, w)
		assert.True(t, env.Success)

		var task model.Task
		require.NoError(t, json.Unmarshal(env.Data, &task))
		assert.Equal(t, created.ID, task.ID)
	})

	t.Run("get non-existing task", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/task/99999", nil)
		req = withID(req, "99999")

		w := httptest.NewRecorder()
		handler.Get(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		env := decodeEnvelope(t, w)
		assert.False(t, env.Success)
		assert.Equal(t, "Task not found", env.Error)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/task/abc", nil)
		req = withID(req, "abc")

		w := httptest.NewRecorder()
		handler.Get(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTaskHandler_List(t *testing.T) {
	handler, cleanup := setupHandler(t)
	defer cleanup()

	createTask(t, handler, "Buy milk", "")
	b := createTask(t, handler, "Write report", "")
	createTask(t, handler, "Buy milk", "again")

	// одну задачу завершаем
	body := strings.NewReader(`{"status": "complete"}`)
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/task/%d", b.ID), body)
	req = withID(req, fmt.Sprintf("%d", b.ID))
	w := httptest.NewRecorder()
	handler.Update(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("list all with stats", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		w := httptest.NewRecorder()
		handler.List(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		env := decodeEnvelope(t, w)
		assert.True(t, env.Success)

		var tasks []model.Task
		require.NoError(t, json.Unmarshal(env.Data, &tasks))
		assert.Len(t, tasks, 3)

		require.NotNil(t, env.Stats)
		assert.Equal(t, model.Stats{Total: 3, Complete: 1, Incomplete: 2}, *env.Stats)
	})

	t.Run("filter by status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks?status=complete", nil)
		w := httptest.NewRecorder()
		handler.List(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var tasks []model.Task
		env := decodeEnvelope(t, w)
		require.NoError(t, json.Unmarshal(env.Data, &tasks))
		require.Len(t, tasks, 1)
		assert.Equal(t, model.StatusComplete, tasks[0].Status)
	})

	t.Run("sort by title with id tie-break", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks?sort=title", nil)
		w := httptest.NewRecorder()
		handler.List(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var tasks []model.Task
		env := decodeEnvelope(t, w)
		require.NoError(t, json.Unmarshal(env.Data, &tasks))
		require.Len(t, tasks, 3)
		assert.Equal(t, "Buy milk", tasks[0].Title)
		assert.Equal(t, "Buy milk", tasks[1].Title)
		assert.Less(t, tasks[0].ID, tasks[1].ID)
		assert.Equal(t, "Write report", tasks[2].Title)
	})

	t.Run("invalid filter rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks?status=bogus", nil)
		w := httptest.NewRecorder()
		handler.List(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w)
		assert.False(t, env.Success)
	})

	t.Run("invalid sort key rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks?sort=priority", nil)
		w := httptest.NewRecorder()
		handler.List(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTaskHandler_Update(t *testing.T) {
	handler, cleanup := setupHandler(t)
	defer cleanup()

	created := createTask(t, handler, "Original", "Before")

	t.Run("partial update keeps other fields", func(t *testing.T) {
		body := strings.NewReader(`{"title": "Updated"}`)
		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/task/%d", created.ID), body)
		req = withID(req, fmt.Sprintf("%d", created.ID))

		w := httptest.NewRecorder()
		handler.Update(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		env := decodeEnvelope(t, w)
		var task model.Task
		require.NoError(t, json.Unmarshal(env.Data, &task))
		assert.Equal(t, "Updated", task.Title)
		assert.Equal(t, "Before", task.Description)
		assert.Equal(t, created.CreatedAt, task.CreatedAt)
	})

	t.Run("update non-existing task", func(t *testing.T) {
		body := strings.NewReader(`{"title": "Ghost"}`)
		req := httptest.NewRequest(http.MethodPut, "/api/task/99999", body)
		req = withID(req, "99999")

		w := httptest.NewRecorder()
		handler.Update(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid status", func(t *testing.T) {
		body := strings.NewReader(`{"status": "done"}`)
		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/task/%d", created.ID), body)
		req = withID(req, fmt.Sprintf("%d", created.ID))

		w := httptest.NewRecorder()
		handler.Update(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		body := strings.NewReader(`{"priority": 5}`)
		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/task/%d", created.ID), body)
		req = withID(req, fmt.Sprintf("%d", created.ID))

		w := httptest.NewRecorder()
		handler.Update(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty patch rejected", func(t *testing.T) {
		body := strings.NewReader(`{}`)
		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/task/%d", created.ID), body)
		req = withID(req, fmt.Sprintf("%d", created.ID))

		w := httptest.NewRecorder()
		handler.Update(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTaskHandler_Delete(t *testing.T) {
	handler, cleanup := setupHandler(t)
	defer cleanup()

	created := createTask(t, handler, "To Delete", "")

	t.Run("successful delete", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/task/%d", created.ID), nil)
		req = withID(req, fmt.Sprintf("%d", created.ID))

		w := httptest.NewRecorder()
		handler.Delete(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w)
		assert.True(t, env.Success)
		assert.Equal(t, "Task deleted successfully", env.Message)
	})

	t.Run("second delete reports not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/task/%d", created.ID), nil)
		req = withID(req, fmt.Sprintf("%d", created.ID))

		w := httptest.NewRecorder()
		handler.Delete(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTaskHandler_Stats(t *testing.T) {
	handler, cleanup := setupHandler(t)
	defer cleanup()

	for i := 0; i < 4; i++ {
		createTask(t, handler, fmt.Sprintf("Task %d", i), "")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()
	handler.Stats(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)

	var stats model.Stats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, model.Stats{Total: 4, Complete: 0, Incomplete: 4}, stats)
}

package handler

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"tasktracker/internal/model"
	"tasktracker/internal/query"
	"tasktracker/internal/repo"
	"tasktracker/internal/service"
	"tasktracker/web"
)

const flashCookie = "flash"

// Flash — одноразовое сообщение для следующей страницы (cookie-аналог
// сессионного flash). Читается и сразу гасится при рендере.
type Flash struct {
	Kind    string // "success" | "error"
	Message string
}

// WebHandler отдаёт серверные страницы поверх того же сервиса,
// что и JSON API.
type WebHandler struct {
	service *service.TaskService
	logger  *zap.Logger
	pages   map[string]*template.Template
}

func NewWebHandler(srv *service.TaskService, logger *zap.Logger) (*WebHandler, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{"index.html", "add_task.html", "edit_task.html"} {
		t, err := template.ParseFS(web.Templates, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}

	return &WebHandler{
		service: srv,
		logger:  logger,
		pages:   pages,
	}, nil
}

type indexData struct {
	Flash              *Flash
	Tasks              []model.Task
	Stats              model.Stats
	CurrentFilter      string
	CurrentSort        string
	CurrentFilterQuery string
	CurrentSortQuery   string
}

type addData struct {
	Flash       *Flash
	Title       string
	Description string
}

type editData struct {
	Flash *Flash
	Task  model.Task
}

// Index обрабатывает GET /?status=&sort=&direction=
// Страница деградирует мягко: неизвестный фильтр или ключ сортировки
// не роняет её, а заменяется значением по умолчанию с предупреждением.
func (h *WebHandler) Index(w http.ResponseWriter, r *http.Request) {
	flash := h.popFlash(w, r)

	tasks, err := h.service.ListAll(r.Context())
	if err != nil {
		// редиректить некуда — это и есть главная; показываем пустую с ошибкой
		h.logger.Error("internal error", zap.Error(err))
		h.render(w, "index.html", indexData{
			Flash: &Flash{Kind: "error", Message: "Failed to load tasks, try again"},
		})
		return
	}

	q := r.URL.Query()
	status := q.Get("status")
	sortKey := q.Get("sort")
	direction := q.Get("direction")

	filtered, err := query.Filter(tasks, status)
	if err != nil {
		status = query.DefaultFilter
		filtered, _ = query.Filter(tasks, status)
		flash = &Flash{Kind: "error", Message: "Unknown filter, showing all tasks"}
	}
	sorted, err := query.Sort(filtered, sortKey, direction)
	if err != nil {
		sortKey, direction = query.DefaultSortKey, ""
		sorted, _ = query.Sort(filtered, sortKey, direction)
		flash = &Flash{Kind: "error", Message: "Unknown sort order, using default"}
	}

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("internal error", zap.Error(err))
		h.render(w, "index.html", indexData{
			Flash: &Flash{Kind: "error", Message: "Failed to load tasks, try again"},
		})
		return
	}

	data := indexData{
		Flash:         flash,
		Tasks:         sorted,
		Stats:         stats,
		CurrentFilter: status,
		CurrentSort:   sortKey,
	}
	if status != "" {
		data.CurrentFilterQuery = "status=" + url.QueryEscape(status)
	}
	if q.Get("sort") != "" {
		data.CurrentSortQuery = "sort=" + url.QueryEscape(sortKey)
		if direction != "" {
			data.CurrentSortQuery += "&direction=" + url.QueryEscape(direction)
		}
	}
	h.render(w, "index.html", data)
}

func (h *WebHandler) AddForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "add_task.html", addData{Flash: h.popFlash(w, r)})
}

func (h *WebHandler) AddSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	title := r.PostFormValue("title")
	description := r.PostFormValue("description")

	_, err := h.service.Create(r.Context(), title, description)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			// остаёмся на форме, сохранив введённое
			h.render(w, "add_task.html", addData{
				Flash:       &Flash{Kind: "error", Message: vErr.Message},
				Title:       title,
				Description: description,
			})
			return
		}
		h.renderFailure(w, r, err)
		return
	}

	h.setFlash(w, "success", "Task added successfully")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *WebHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	task, ok := h.taskFromPath(w, r)
	if !ok {
		return
	}
	h.render(w, "edit_task.html", editData{Flash: h.popFlash(w, r), Task: task})
}

func (h *WebHandler) EditSubmit(w http.ResponseWriter, r *http.Request) {
	task, ok := h.taskFromPath(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	title := r.PostFormValue("title")
	description := r.PostFormValue("description")

	patch := model.TaskPatch{Title: &title, Description: &description}
	if _, err := h.service.Update(r.Context(), task.ID, patch); err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			task.Title = title
			task.Description = description
			h.render(w, "edit_task.html", editData{
				Flash: &Flash{Kind: "error", Message: vErr.Message},
				Task:  task,
			})
			return
		}
		h.renderFailure(w, r, err)
		return
	}

	h.setFlash(w, "success", "Task updated successfully")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// UpdateStatus обрабатывает POST /update/{id} — переключение статуса из списка.
func (h *WebHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.setFlash(w, "error", "Task not found")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	status := r.PostFormValue("status")
	if _, err := h.service.Update(r.Context(), id, model.TaskPatch{Status: &status}); err != nil {
		switch {
		case errors.Is(err, repo.ErrorNotFound):
			h.setFlash(w, "error", "Task not found")
		case errors.Is(err, service.ErrValidation):
			h.setFlash(w, "error", "Invalid status")
		default:
			h.logger.Error("update status failed", zap.Int64("id", id), zap.Error(err))
			h.setFlash(w, "error", "Something went wrong, try again")
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.setFlash(w, "success", "Task status updated")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *WebHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err == nil {
		err = h.service.Delete(r.Context(), id)
	}

	switch {
	case err == nil:
		h.setFlash(w, "success", "Task deleted successfully")
	case errors.Is(err, repo.ErrorNotFound):
		h.setFlash(w, "error", "Task not found")
	default:
		h.logger.Error("delete failed", zap.Int64("id", id), zap.Error(err))
		h.setFlash(w, "error", "Something went wrong, try again")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *WebHandler) taskFromPath(w http.ResponseWriter, r *http.Request) (model.Task, bool) {
	id, err := parseID(r)
	if err != nil {
		h.setFlash(w, "error", "Task not found")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return model.Task{}, false
	}

	task, err := h.service.Get(r.Context(), id)
	if err == nil {
		return task, true
	}
	if !errors.Is(err, repo.ErrorNotFound) {
		h.logger.Error("load task failed", zap.Int64("id", id), zap.Error(err))
	}
	h.setFlash(w, "error", "Task not found")
	http.Redirect(w, r, "/", http.StatusSeeOther)
	return model.Task{}, false
}

func (h *WebHandler) render(w http.ResponseWriter, page string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages[page].ExecuteTemplate(w, "layout.html", data); err != nil {
		h.logger.Error("render failed", zap.String("page", page), zap.Error(err))
	}
}

func (h *WebHandler) renderFailure(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("internal error", zap.Error(err))
	h.setFlash(w, "error", "Something went wrong, try again")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *WebHandler) setFlash(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + "|" + message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
	})
}

func (h *WebHandler) popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	// гасим cookie сразу — сообщение одноразовое
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})

	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	kind, message, found := strings.Cut(raw, "|")
	if !found {
		return nil
	}
	return &Flash{Kind: kind, Message: message}
}

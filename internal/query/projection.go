// Package query строит представление списка задач для конкретного
// потребителя: фильтр по статусу, детерминированная сортировка, счётчики.
// Все функции чистые — хранилище не трогают, вход не мутируют.
package query

import (
	"errors"
	"sort"

	"tasktracker/internal/model"
)

const (
	SortKeyCreatedAt = "created_at"
	SortKeyUpdatedAt = "updated_at"
	SortKeyTitle     = "title"
	SortKeyStatus    = "status"

	DirectionAscending  = "asc"
	DirectionDescending = "desc"
)

// Явные значения по умолчанию вместо неявных fallback-веток
const (
	DefaultSortKey = SortKeyCreatedAt
	DefaultFilter  = "" // без фильтра
)

var (
	ErrInvalidFilterValue   = errors.New("invalid filter value")
	ErrInvalidSortKey       = errors.New("invalid sort key")
	ErrInvalidSortDirection = errors.New("invalid sort direction")
)

// DefaultDirection: свежее — сверху для временных ключей,
// алфавитный порядок для текстовых.
func DefaultDirection(key string) string {
	switch key {
	case SortKeyTitle, SortKeyStatus:
		return DirectionAscending
	default:
		return DirectionDescending
	}
}

// Filter возвращает подмножество задач с данным статусом, сохраняя
// относительный порядок. Пустой статус — все задачи.
func Filter(tasks []model.Task, status string) ([]model.Task, error) {
	switch status {
	case DefaultFilter:
		out := make([]model.Task, len(tasks))
		copy(out, tasks)
		return out, nil
	case model.StatusComplete, model.StatusIncomplete:
	default:
		return nil, ErrInvalidFilterValue
	}

	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

// Sort возвращает новый срез, упорядоченный по ключу и направлению.
// Пустой ключ — DefaultSortKey, пустое направление — DefaultDirection(key).
// При равенстве ключа порядок всегда по id по возрастанию, поэтому
// результат детерминирован независимо от порядка на входе.
func Sort(tasks []model.Task, key, direction string) ([]model.Task, error) {
	if key == "" {
		key = DefaultSortKey
	}
	if direction == "" {
		direction = DefaultDirection(key)
	}

	var cmpKey func(a, b model.Task) int
	switch key {
	case SortKeyCreatedAt:
		cmpKey = func(a, b model.Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortKeyUpdatedAt:
		cmpKey = func(a, b model.Task) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case SortKeyTitle:
		cmpKey = func(a, b model.Task) int { return compareStrings(a.Title, b.Title) }
	case SortKeyStatus:
		cmpKey = func(a, b model.Task) int { return compareStrings(a.Status, b.Status) }
	default:
		return nil, ErrInvalidSortKey
	}

	switch direction {
	case DirectionAscending, DirectionDescending:
	default:
		return nil, ErrInvalidSortDirection
	}

	out := make([]model.Task, len(tasks))
	copy(out, tasks)

	sort.SliceStable(out, func(i, j int) bool {
		c := cmpKey(out[i], out[j])
		if c == 0 {
			return out[i].ID < out[j].ID
		}
		if direction == DirectionDescending {
			return c > 0
		}
		return c < 0
	})
	return out, nil
}

// Stats считает итоги по переданной коллекции — полной или уже
// отфильтрованной, это решает вызывающий.
func Stats(tasks []model.Task) model.Stats {
	s := model.Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Status == model.StatusComplete {
			s.Complete++
		} else {
			s.Incomplete++
		}
	}
	return s
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

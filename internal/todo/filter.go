// Package todo selects which tasks appear on a day's page.
package todo

import (
	"sort"

	"dailyplanner/internal/model"
)

// Select returns the todos that have a due date on or before day, most
// recently due first. Todos without a due date are never surfaced. Todos
// sharing a due date keep their input order.
func Select(todos []model.Todo, day model.Date) []model.Todo {
	out := make([]model.Todo, 0, len(todos))
	for _, t := range todos {
		if t.Due == nil || t.Due.After(day) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Due.After(*out[j].Due)
	})
	return out
}

// Overdue reports whether t was due strictly before day.
func Overdue(t model.Todo, day model.Date) bool {
	return t.Due != nil && t.Due.Before(day)
}

// DueToday reports whether t is due exactly on day.
func DueToday(t model.Todo, day model.Date) bool {
	return t.Due != nil && *t.Due == day
}

// Package filter derives the visible subset of a collection from a
// free-text search and exact-match criteria. Every function is pure: the
// source slice is never modified or aliased and order is preserved.
package filter

import (
	"strings"

	"github.com/garnizeh/fieldops/pkg/models"
)

// Criteria are the independent list filters. An empty value matches
// everything.
type Criteria struct {
	// Search is a case-insensitive substring of the primary field.
	Search string
	// Status matches the status-like field exactly (status, specialization
	// or risk level), ignoring case.
	Status string
	// Priority matches the priority field exactly, ignoring case.
	Priority string
	// Pincode matches the pincode exactly.
	Pincode string
}

// IsZero reports whether no criterion is set.
func (c Criteria) IsZero() bool {
	return strings.TrimSpace(c.Search) == "" && unset(c.Status) && unset(c.Priority) && unset(c.Pincode)
}

// unset reports whether an exact-match criterion matches everything:
// empty or "all".
func unset(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "all")
}

// Fields tells Apply where each criterion looks in an item. A nil
// accessor disables its criterion for that collection.
type Fields[T any] struct {
	Primary  func(T) string
	Status   func(T) string
	Priority func(T) string
	Pincode  func(T) string
}

// Apply returns the items matching every set criterion, in source order.
// The result is always a fresh slice.
func Apply[T any](items []T, f Fields[T], c Criteria) []T {
	search := strings.ToLower(strings.TrimSpace(c.Search))
	out := make([]T, 0, len(items))
	for _, it := range items {
		if search != "" && f.Primary != nil && !strings.Contains(strings.ToLower(f.Primary(it)), search) {
			continue
		}
		if !unset(c.Status) && f.Status != nil && !strings.EqualFold(strings.TrimSpace(f.Status(it)), strings.TrimSpace(c.Status)) {
			continue
		}
		if !unset(c.Priority) && f.Priority != nil && !strings.EqualFold(strings.TrimSpace(f.Priority(it)), strings.TrimSpace(c.Priority)) {
			continue
		}
		if !unset(c.Pincode) && f.Pincode != nil && strings.TrimSpace(f.Pincode(it)) != strings.TrimSpace(c.Pincode) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// TaskFields searches service type, filters status, priority and pincode.
var TaskFields = Fields[models.Task]{
	Primary:  func(t models.Task) string { return t.ServiceType },
	Status:   func(t models.Task) string { return t.Status },
	Priority: func(t models.Task) string { return t.Priority },
	Pincode:  func(t models.Task) string { return t.Pincode },
}

// EngineerFields searches name, filters specialization and pincode.
var EngineerFields = Fields[models.Engineer]{
	Primary: func(e models.Engineer) string { return e.Name },
	Status:  func(e models.Engineer) string { return e.Specialization },
	Pincode: func(e models.Engineer) string { return e.Pincode },
}

// HazardFields searches hazard type, filters risk level and pincode.
var HazardFields = Fields[models.Hazard]{
	Primary: func(h models.Hazard) string { return h.HazardType },
	Status:  func(h models.Hazard) string { return h.RiskLevel },
	Pincode: func(h models.Hazard) string { return h.Pincode },
}

// UserFields searches name and filters pincode.
var UserFields = Fields[models.User]{
	Primary: func(u models.User) string { return u.Name },
	Pincode: func(u models.User) string { return u.Pincode },
}

func Tasks(tasks []models.Task, c Criteria) []models.Task {
	return Apply(tasks, TaskFields, c)
}

func Engineers(engineers []models.Engineer, c Criteria) []models.Engineer {
	return Apply(engineers, EngineerFields, c)
}

func Hazards(hazards []models.Hazard, c Criteria) []models.Hazard {
	return Apply(hazards, HazardFields, c)
}

func Users(users []models.User, c Criteria) []models.User {
	return Apply(users, UserFields, c)
}

// Eligible returns approved engineers whose specialization matches the
// task's service type and who are available on day.
func Eligible(engineers []models.Engineer, task models.Task, day string) []models.Engineer {
	out := make([]models.Engineer, 0)
	for _, e := range engineers {
		if !e.IsEngineer {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(e.Specialization), strings.TrimSpace(task.ServiceType)) {
			continue
		}
		if !e.AvailableOn(day) {
			continue
		}
		out = append(out, e)
	}
	return out
}

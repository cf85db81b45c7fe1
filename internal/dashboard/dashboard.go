// Package dashboard folds task, engineer and hazard collections into
// chart-ready counts and role-specific summary cards.
package dashboard

import (
	"fmt"
	"strings"

	"github.com/garnizeh/fieldops/pkg/models"
)

// Chart holds parallel label/count arrays in a fixed label order.
type Chart struct {
	Title  string
	Labels []string
	Counts []int
}

// Total is the sum of all buckets. Items with unknown values are not
// counted, so Total can be lower than the source length.
func (c Chart) Total() int {
	n := 0
	for _, v := range c.Counts {
		n += v
	}
	return n
}

// Count returns the bucket for label, or 0 when the label is unknown.
func (c Chart) Count(label string) int {
	for i, l := range c.Labels {
		if strings.EqualFold(l, label) {
			return c.Counts[i]
		}
	}
	return 0
}

func tally[T any](title string, labels []string, items []T, value func(T) string) Chart {
	c := Chart{
		Title:  title,
		Labels: append([]string(nil), labels...),
		Counts: make([]int, len(labels)),
	}
	for _, it := range items {
		v := strings.TrimSpace(value(it))
		for i, l := range labels {
			if strings.EqualFold(l, v) {
				c.Counts[i]++
				break
			}
		}
	}
	return c
}

func TicketStatus(tasks []models.Task) Chart {
	return tally("Ticket status", models.TicketStatuses, tasks, func(t models.Task) string { return t.Status })
}

func TaskPriority(tasks []models.Task) Chart {
	return tally("Task priority", models.Priorities, tasks, func(t models.Task) string { return t.Priority })
}

func HazardRisk(hazards []models.Hazard) Chart {
	return tally("Hazard risk", models.Priorities, hazards, func(h models.Hazard) string { return h.RiskLevel })
}

// Data is the raw input of a dashboard. Only the collections relevant to
// the role are populated.
type Data struct {
	Tasks             []models.Task
	Engineers         []models.Engineer
	ApprovedEngineers []models.Engineer
	Users             []models.User
	Hazards           []models.Hazard
	Notifications     []models.Notification
}

type Card struct {
	Title string
	Value int
}

// Cards returns the summary cards shown for role.
func Cards(role models.Role, d Data) ([]Card, error) {
	status := TicketStatus(d.Tasks)
	switch role {
	case models.RoleAdmin:
		pending := 0
		for _, e := range d.Engineers {
			if !e.IsEngineer {
				pending++
			}
		}
		return []Card{
			{Title: "Total tickets", Value: len(d.Tasks)},
			{Title: "Open tickets", Value: status.Count(models.StatusOpen)},
			{Title: "Pending approvals", Value: pending},
			{Title: "Approved engineers", Value: len(d.ApprovedEngineers)},
			{Title: "Users", Value: len(d.Users)},
			{Title: "Hazards", Value: len(d.Hazards)},
		}, nil
	case models.RoleEngineer:
		return []Card{
			{Title: "Assigned tasks", Value: len(d.Tasks)},
			{Title: "In progress", Value: status.Count(models.StatusInProgress)},
			{Title: "Completed", Value: status.Count(models.StatusCompleted)},
			{Title: "Deferred", Value: status.Count(models.StatusDeferred)},
			{Title: "Hazards", Value: len(d.Hazards)},
		}, nil
	case models.RoleUser:
		unread := 0
		for _, n := range d.Notifications {
			if !n.IsRead {
				unread++
			}
		}
		return []Card{
			{Title: "My tickets", Value: len(d.Tasks)},
			{Title: "Open", Value: status.Count(models.StatusOpen)},
			{Title: "Completed", Value: status.Count(models.StatusCompleted)},
			{Title: "Unread notifications", Value: unread},
		}, nil
	case models.RoleUnknown:
	}
	return nil, fmt.Errorf("no dashboard for role %q", role)
}

// Charts returns the charts shown for role.
func Charts(role models.Role, d Data) []Chart {
	switch role {
	case models.RoleAdmin, models.RoleEngineer:
		return []Chart{TicketStatus(d.Tasks), TaskPriority(d.Tasks), HazardRisk(d.Hazards)}
	case models.RoleUser:
		return []Chart{TicketStatus(d.Tasks), TaskPriority(d.Tasks)}
	case models.RoleUnknown:
	}
	return nil
}

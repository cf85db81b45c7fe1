package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/garnizeh/fieldops/pkg/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	emptyStyle  = lipgloss.NewStyle().Faint(true)
)

// printTable renders rows under headers, or a faint placeholder when
// there is nothing to show.
func printTable(w io.Writer, empty string, headers []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, emptyStyle.Render(empty))
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func printTasks(w io.Writer, tasks []models.Task) error {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		engineer := t.AssignedTo()
		if engineer == "" {
			engineer = "-"
		}
		rows = append(rows, []string{t.ID, t.ServiceType, t.Status, t.Priority, t.Pincode, engineer, yesNo(t.Accepted)})
	}
	return printTable(w, "No tasks", []string{"ID", "SERVICE", "STATUS", "PRIORITY", "PINCODE", "ENGINEER", "ACCEPTED"}, rows)
}

func printEngineers(w io.Writer, engineers []models.Engineer) error {
	rows := make([][]string, 0, len(engineers))
	for _, e := range engineers {
		rows = append(rows, []string{
			e.Name, e.Email, e.Specialization, e.Pincode,
			strings.Join(e.Availability, ","), yesNo(e.IsEngineer), strconv.Itoa(e.CurrentTasks),
		})
	}
	return printTable(w, "No engineers", []string{"NAME", "EMAIL", "SPECIALIZATION", "PINCODE", "AVAILABILITY", "APPROVED", "TASKS"}, rows)
}

func printUsers(w io.Writer, users []models.User) error {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.Name, u.Email, u.Phone, u.Pincode, u.Role.String()})
	}
	return printTable(w, "No users", []string{"NAME", "EMAIL", "PHONE", "PINCODE", "ROLE"}, rows)
}

func printHazards(w io.Writer, hazards []models.Hazard) error {
	rows := make([][]string, 0, len(hazards))
	for _, h := range hazards {
		rows = append(rows, []string{h.ID, h.HazardType, h.RiskLevel, h.Address, h.Pincode})
	}
	return printTable(w, "No hazards", []string{"ID", "TYPE", "RISK", "ADDRESS", "PINCODE"}, rows)
}

func printNotifications(w io.Writer, ns []models.Notification, unread int) error {
	fmt.Fprintf(w, "%d unread\n", unread)
	rows := make([][]string, 0, len(ns))
	for _, n := range ns {
		mark := " "
		if !n.IsRead {
			mark = "*"
		}
		rows = append(rows, []string{mark, n.ID, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Message})
	}
	return printTable(w, "No notifications", []string{"", "ID", "WHEN", "MESSAGE"}, rows)
}

func printProfile(w io.Writer, p models.Profile) {
	fmt.Fprintf(w, "Name:     %s\nEmail:    %s\nPhone:    %s\nAddress:  %s\nPincode:  %s\n", p.Name, p.Email, p.Phone, p.Address, p.Pincode)
	if p.Specialization != "" || len(p.Availability) > 0 {
		fmt.Fprintf(w, "Skill:    %s\nDays:     %s\n", p.Specialization, strings.Join(p.Availability, ", "))
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

package store

import (
	"context"
	"slices"

	"github.com/garnizeh/fieldops/pkg/client"
	"github.com/garnizeh/fieldops/pkg/models"
)

type NotificationState struct {
	Status
	Notifications []models.Notification
	Unread        int
}

// NotificationSlice caches the polled notification list.
type NotificationSlice struct {
	base
	api           *client.UserAPI
	notifications []models.Notification
}

func NewNotificationSlice(api *client.API) *NotificationSlice {
	return &NotificationSlice{api: api.User}
}

func (s *NotificationSlice) Snapshot() NotificationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return NotificationState{
		Status:        s.status,
		Notifications: slices.Clone(s.notifications),
		Unread:        unread(s.notifications),
	}
}

// UnreadCount is derived from the cached list.
func (s *NotificationSlice) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return unread(s.notifications)
}

func (s *NotificationSlice) Fetch(ctx context.Context, email string) ([]models.Notification, error) {
	return run(&s.base, "notifications", "Failed to fetch notifications", func() ([]models.Notification, error) {
		return s.api.Notifications(ctx, email)
	}, func(v []models.Notification) {
		s.notifications = slices.Clone(v)
	})
}

func (s *NotificationSlice) MarkRead(ctx context.Context, id string) error {
	_, err := run(&s.base, "", "Failed to mark notification read", func() (models.Notification, error) {
		return s.api.MarkNotificationRead(ctx, id)
	}, func(models.Notification) {
		s.notifications = slices.Clone(s.notifications)
		for i := range s.notifications {
			if s.notifications[i].ID == id {
				s.notifications[i].IsRead = true
			}
		}
	})
	return err
}

func unread(ns []models.Notification) int {
	n := 0
	for _, x := range ns {
		if !x.IsRead {
			n++
		}
	}
	return n
}

package alert

import (
	"context"
	"errors"
	"fmt"

	"github.com/clawbeat/forge/internal/store"
)

// Notification is the data sent to alert destinations when a story
// crosses the alert threshold.
type Notification struct {
	Title    string           `json:"title"`
	Brief    string           `json:"brief"`
	URL      string           `json:"url"`
	Source   string           `json:"source"`
	Total    int              `json:"total"`
	Coverage []store.Coverage `json:"coverage"`
}

// FromStory builds the notification payload for a scored story.
func FromStory(s *store.Story) *Notification {
	return &Notification{
		Title:    s.Title,
		Brief:    s.Brief,
		URL:      s.URL,
		Source:   s.SourceName,
		Total:    s.Total,
		Coverage: s.Coverage,
	}
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

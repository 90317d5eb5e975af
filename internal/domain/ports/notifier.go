package ports

import "context"

// Notification is one entry of the outbound `notifications` array published
// to the notification topic (spec.md §6).
type Notification struct {
	ServiceID          string
	Type               string
	From               string
	RecipientUserIDs   []int64
	CC                 []int64
	Subject            string
	Body               string
	SendgridTemplateID string
	Version            string
}

// Notifier publishes the terminal-failure "token expired"-style email the
// RetryService emits once an event exhausts its retry ceiling (spec.md §5).
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

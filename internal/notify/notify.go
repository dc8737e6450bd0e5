package notify

import "fmt"

// NotificationType represents the type of notification
type NotificationType int

const (
	NotifyInfo NotificationType = iota
	NotifySuccess
	NotifyWarning
	NotifyError
)

// Notification represents a notification to be sent
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
	Batch   string // Optional batch name
	Report  string // Optional report path or URL
}

// Notifier is the interface for sending notifications
type Notifier interface {
	Send(n Notification) error
}

// BatchComplete builds the notification for a finished batch run. The
// batch exits non-zero on any library failure; the report carries the
// per-library details.
func BatchComplete(batch string, exitCode int, report string) Notification {
	n := Notification{
		Batch:  batch,
		Report: report,
		Title:  fmt.Sprintf("Batch %s complete", batch),
	}
	if exitCode == 0 {
		n.Type = NotifySuccess
		n.Message = "All libraries synthesized."
	} else {
		n.Type = NotifyError
		n.Message = fmt.Sprintf("Batch exited with code %d, see %s.", exitCode, report)
	}
	return n
}

// MultiNotifier sends to multiple notifiers
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a notifier that sends to all provided notifiers
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Send sends the notification to all notifiers
func (m *MultiNotifier) Send(n Notification) error {
	var lastErr error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(n); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// NoopNotifier does nothing (for testing or disabled notifications)
type NoopNotifier struct{}

func (NoopNotifier) Send(n Notification) error { return nil }

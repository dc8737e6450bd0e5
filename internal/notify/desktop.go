package notify

import (
	"os/exec"
	"runtime"
)

// DesktopNotifier surfaces batch outcomes as desktop notifications, for
// schedule runs on a workstation.
type DesktopNotifier struct {
	enabled bool
}

// NewDesktopNotifier creates a new desktop notifier
func NewDesktopNotifier(enabled bool) *DesktopNotifier {
	return &DesktopNotifier{enabled: enabled}
}

// Send sends a desktop notification
func (d *DesktopNotifier) Send(n Notification) error {
	if !d.enabled {
		return nil
	}

	switch runtime.GOOS {
	case "darwin":
		return d.sendMacOS(n)
	case "linux":
		return d.sendLinux(n)
	default:
		return nil // Unsupported
	}
}

// desktopTitle prefixes the title with the batch name, mirroring the Slack
// attachment title.
func desktopTitle(n Notification) string {
	if n.Batch != "" {
		return n.Batch + ": " + n.Title
	}
	return n.Title
}

// desktopBody appends the report location so the notification points at
// the run's details.
func desktopBody(n Notification) string {
	body := n.Message
	if n.Report != "" {
		if body != "" {
			body += "\n"
		}
		body += "Report: " + n.Report
	}
	return body
}

func (d *DesktopNotifier) sendMacOS(n Notification) error {
	script := `display notification "` + desktopBody(n) + `" with title "` + desktopTitle(n) + `"`
	cmd := exec.Command("osascript", "-e", script)
	return cmd.Run()
}

func (d *DesktopNotifier) sendLinux(n Notification) error {
	// Try notify-send (most common)
	cmd := exec.Command("notify-send", "-i", IconForType(n.Type), desktopTitle(n), desktopBody(n))
	return cmd.Run()
}

// IconForType returns an icon name for the notification type
func IconForType(t NotificationType) string {
	switch t {
	case NotifySuccess:
		return "dialog-positive"
	case NotifyWarning:
		return "dialog-warning"
	case NotifyError:
		return "dialog-error"
	default:
		return "dialog-information"
	}
}

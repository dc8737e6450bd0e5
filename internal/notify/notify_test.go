package notify

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSlackMessage_Build(t *testing.T) {
	msg := SlackMessage{
		Text: "Batch nightly-java complete",
		Attachments: []SlackAttachment{
			{
				Color: "good",
				Title: "nightly-java",
				Text:  "All 42 libraries synthesized.",
			},
		},
	}

	payload, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}

	if len(payload) == 0 {
		t.Error("Payload should not be empty")
	}
}

func TestSlackNotifier_Send(t *testing.T) {
	// Mock Slack server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewSlackNotifier(server.URL)
	err := notifier.Send(Notification{
		Title:   "Test",
		Message: "Test message",
		Type:    NotifyInfo,
	})

	if err != nil {
		t.Errorf("Send failed: %v", err)
	}
}

func TestNotificationTypeColors(t *testing.T) {
	tests := []struct {
		typ  NotificationType
		want string
	}{
		{NotifySuccess, "good"},
		{NotifyWarning, "warning"},
		{NotifyError, "danger"},
		{NotifyInfo, "#439FE0"},
	}

	for _, tt := range tests {
		got := SlackColor(tt.typ)
		if got != tt.want {
			t.Errorf("SlackColor(%v) = %s, want %s", tt.typ, got, tt.want)
		}
	}
}

func TestBatchComplete(t *testing.T) {
	n := BatchComplete("nightly-java", 0, "sponge_log.xml")
	if n.Type != NotifySuccess {
		t.Errorf("clean batch type = %v, want success", n.Type)
	}
	if n.Batch != "nightly-java" || n.Report != "sponge_log.xml" {
		t.Errorf("notification = %+v", n)
	}

	n = BatchComplete("nightly-java", 1, "sponge_log.xml")
	if n.Type != NotifyError {
		t.Errorf("failing batch type = %v, want error", n.Type)
	}
	if !strings.Contains(n.Message, "code 1") || !strings.Contains(n.Message, "sponge_log.xml") {
		t.Errorf("message = %q", n.Message)
	}
}

func TestDesktopNotificationText(t *testing.T) {
	n := BatchComplete("nightly-java", 1, "sponge_log.xml")

	title := desktopTitle(n)
	if title != "nightly-java: Batch nightly-java complete" {
		t.Errorf("title = %q", title)
	}

	body := desktopBody(n)
	if !strings.Contains(body, "Report: sponge_log.xml") {
		t.Errorf("body missing report pointer: %q", body)
	}

	// Without a batch or report, the plain fields pass through.
	plain := Notification{Title: "Hello", Message: "World"}
	if desktopTitle(plain) != "Hello" || desktopBody(plain) != "World" {
		t.Errorf("plain notification mangled: %q / %q", desktopTitle(plain), desktopBody(plain))
	}
}

func TestMultiNotifier(t *testing.T) {
	var called []string

	mock1 := &mockNotifier{name: "mock1", calls: &called}
	mock2 := &mockNotifier{name: "mock2", calls: &called}

	multi := NewMultiNotifier(mock1, mock2)
	multi.Send(Notification{Title: "Test"})

	if len(called) != 2 {
		t.Errorf("Expected 2 calls, got %d", len(called))
	}
}

type mockNotifier struct {
	name  string
	calls *[]string
}

func (m *mockNotifier) Send(n Notification) error {
	*m.calls = append(*m.calls, m.name)
	return nil
}

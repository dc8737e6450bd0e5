package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestGitHub(t *testing.T, handler http.Handler) *GitHub {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gh, err := NewGitHubWithClient(server.Client(), server.URL)
	if err != nil {
		t.Fatal(err)
	}
	return gh
}

func TestGitHubListIssuesPaginates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/googleapis/java-speech/issues", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("labels"); got != "autosynth failure" {
			t.Errorf("labels param = %q", got)
		}
		page := r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/json")
		if page == "" || page == "1" {
			w.Header().Set("Link", fmt.Sprintf(`<%s?page=2>; rel="next"`, "http://"+r.Host+r.URL.Path))
			json.NewEncoder(w).Encode([]map[string]any{
				{"number": 1, "title": "Synthesis failed for speech", "state": "open", "html_url": "u1"},
			})
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"number": 2, "title": "other", "state": "open", "html_url": "u2"},
		})
	})

	gh := newTestGitHub(t, mux)
	issues, err := gh.ListIssues(context.Background(), "googleapis/java-speech", "open", "autosynth failure")
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2 across pages", len(issues))
	}
	if issues[0].Number != 1 || issues[0].Title != "Synthesis failed for speech" {
		t.Errorf("first issue = %+v", issues[0])
	}
}

func TestGitHubCreateIssue(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/o/r/issues", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req struct {
			Title  string   `json:"title"`
			Body   string   `json:"body"`
			Labels []string `json:"labels"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Title != "t" || req.Body != "b" || len(req.Labels) != 2 {
			t.Errorf("request = %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"number": 9, "title": "t", "state": "open", "html_url": "u",
		})
	})

	gh := newTestGitHub(t, mux)
	issue, err := gh.CreateIssue(context.Background(), "o/r", "t", "b", []string{"l1", "l2"})
	if err != nil {
		t.Fatal(err)
	}
	if issue.Number != 9 || issue.URL != "u" {
		t.Errorf("issue = %+v", issue)
	}
}

func TestGitHubGetAPILabel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/o/r/labels", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{
			{"name": "type: bug"},
			{"name": "api: bigquerystorage"},
		})
	})

	gh := newTestGitHub(t, mux)

	label, err := gh.GetAPILabel(context.Background(), "o/r", "bigquery_storage")
	if err != nil {
		t.Fatal(err)
	}
	if label != "api: bigquerystorage" {
		t.Errorf("label = %q, want api: bigquerystorage", label)
	}

	// Empty name never queries.
	label, err = gh.GetAPILabel(context.Background(), "o/r", "")
	if err != nil || label != "" {
		t.Errorf("empty name: label=%q err=%v", label, err)
	}
}

func TestSplitRepo(t *testing.T) {
	tests := []struct {
		in      string
		owner   string
		repo    string
		wantErr bool
	}{
		{"googleapis/java-speech", "googleapis", "java-speech", false},
		{"noslash", "", "", true},
		{"/repo", "", "", true},
		{"owner/", "", "", true},
	}
	for _, tt := range tests {
		owner, repo, err := splitRepo(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("splitRepo(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if owner != tt.owner || repo != tt.repo {
			t.Errorf("splitRepo(%q) = %q, %q", tt.in, owner, repo)
		}
	}
}

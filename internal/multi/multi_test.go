package multi

import (
	"context"
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hochfrequenz/autosynth/internal/config"
	"github.com/hochfrequenz/autosynth/internal/report"
)

type fakeReporter struct {
	reports []reportCall
	err     error
}

type reportCall struct {
	name       string
	repository string
	failed     bool
	output     string
}

func (f *fakeReporter) Report(ctx context.Context, name, repository string, failed bool, output string) error {
	f.reports = append(f.reports, reportCall{name, repository, failed, output})
	return f.err
}

// stubRunner maps a library's repository flag to a canned result.
type stubRunner struct {
	exitCodes map[string]int
	outputs   map[string]string
	commands  [][]string
	envs      [][]string
	logPaths  []string
}

func (s *stubRunner) run(ctx context.Context, command []string, logPath string, env []string) (int, string, error) {
	s.commands = append(s.commands, command)
	s.envs = append(s.envs, env)
	s.logPaths = append(s.logPaths, logPath)
	repo := flagValue(command, "--repository")
	return s.exitCodes[repo], s.outputs[repo], nil
}

func flagValue(command []string, flag string) string {
	for i, arg := range command {
		if arg == flag && i+1 < len(command) {
			return command[i+1]
		}
	}
	return ""
}

func TestRunAllMixedOutcomes(t *testing.T) {
	stub := &stubRunner{
		exitCodes: map[string]int{"googleapis/java-speech": 0, "googleapis/java-vision": 1},
		outputs:   map[string]string{"googleapis/java-speech": "ok", "googleapis/java-vision": "boom"},
	}
	reporter := &fakeReporter{}
	d := &Driver{
		SynthCommand: []string{"autosynth", "synth"},
		Token:        "tok",
		LogsDir:      t.TempDir(),
		Reporter:     reporter,
		Collector:    report.NewCollector(),
		Run:          stub.run,
	}

	libs := []config.Library{
		{Name: "java-speech", Repository: "googleapis/java-speech"},
		{Name: "java-vision", Repository: "googleapis/java-vision"},
	}
	failures := d.RunAll(context.Background(), libs)
	if failures != 1 {
		t.Fatalf("RunAll failures = %d, want 1", failures)
	}

	entries := d.Collector.Entries()
	if len(entries) != 2 {
		t.Fatalf("collector has %d entries, want 2", len(entries))
	}
	if !entries[0].Success || entries[0].Name != "java-speech" {
		t.Errorf("first entry = %+v, want successful java-speech", entries[0])
	}
	if entries[1].Success || entries[1].Log != "boom" {
		t.Errorf("second entry = %+v, want failed java-vision with output", entries[1])
	}

	if len(reporter.reports) != 2 {
		t.Fatalf("reporter got %d calls, want 2", len(reporter.reports))
	}
	if reporter.reports[0].failed {
		t.Error("java-speech reported as failed")
	}
	if !reporter.reports[1].failed || reporter.reports[1].output != "boom" {
		t.Errorf("java-vision report = %+v", reporter.reports[1])
	}
}

func TestRunAllSkipSentinelNotAFailure(t *testing.T) {
	stub := &stubRunner{
		exitCodes: map[string]int{"googleapis/java-speech": 28},
		outputs:   map[string]string{"googleapis/java-speech": "no changes"},
	}
	reporter := &fakeReporter{}
	d := &Driver{
		SynthCommand: []string{"autosynth", "synth"},
		LogsDir:      t.TempDir(),
		Reporter:     reporter,
		Collector:    report.NewCollector(),
		Run:          stub.run,
	}

	failures := d.RunAll(context.Background(), []config.Library{
		{Name: "java-speech", Repository: "googleapis/java-speech"},
	})
	if failures != 0 {
		t.Fatalf("failures = %d, want 0 for skipped run", failures)
	}
	if !d.Collector.Entries()[0].Success {
		t.Error("skipped run recorded as failure")
	}
	// Skips still reach the tracker so an open failure issue gets closed.
	if len(reporter.reports) != 1 || reporter.reports[0].failed {
		t.Errorf("reports = %+v, want one non-failed report", reporter.reports)
	}
}

func TestRunAllNoCreateIssue(t *testing.T) {
	stub := &stubRunner{
		exitCodes: map[string]int{"googleapis/java-vision": 1},
		outputs:   map[string]string{"googleapis/java-vision": "boom"},
	}
	reporter := &fakeReporter{}
	d := &Driver{
		SynthCommand: []string{"autosynth", "synth"},
		LogsDir:      t.TempDir(),
		Reporter:     reporter,
		Collector:    report.NewCollector(),
		Run:          stub.run,
	}

	failures := d.RunAll(context.Background(), []config.Library{
		{Name: "java-vision", Repository: "googleapis/java-vision", NoCreateIssue: true},
	})
	if failures != 1 {
		t.Fatalf("failures = %d, want 1", failures)
	}
	if len(reporter.reports) != 0 {
		t.Errorf("reporter called %d times for no_create_issue library", len(reporter.reports))
	}
}

func TestRunAllReporterErrorIgnored(t *testing.T) {
	stub := &stubRunner{
		exitCodes: map[string]int{"o/a": 1, "o/b": 0},
		outputs:   map[string]string{"o/a": "boom", "o/b": "ok"},
	}
	reporter := &fakeReporter{err: errors.New("api quota exceeded")}
	d := &Driver{
		SynthCommand: []string{"autosynth", "synth"},
		LogsDir:      t.TempDir(),
		Reporter:     reporter,
		Collector:    report.NewCollector(),
		Run:          stub.run,
	}

	failures := d.RunAll(context.Background(), []config.Library{
		{Name: "a", Repository: "o/a"},
		{Name: "b", Repository: "o/b"},
	})
	if failures != 1 {
		t.Fatalf("failures = %d, want 1", failures)
	}
	// Both libraries still ran and were reported despite tracker errors.
	if len(reporter.reports) != 2 {
		t.Errorf("reporter got %d calls, want 2", len(reporter.reports))
	}
	if len(d.Collector.Entries()) != 2 {
		t.Errorf("collector has %d entries, want 2", len(d.Collector.Entries()))
	}
}

func TestLibraryArgs(t *testing.T) {
	lib := config.Library{
		Name:       "java-speech",
		Repository: "googleapis/java-speech",
		Args:       []string{"--extra"},
	}
	got := LibraryArgs(lib)
	want := []string{
		"--repository", "googleapis/java-speech",
		"--synth-path", "",
		"--branch-suffix", "",
		"--pr-title", "",
		"--extra",
	}
	assertArgs(t, got, want)

	lib = config.Library{
		Name:                "google-cloud-java",
		Repository:          "googleapis/google-cloud-java",
		SynthPath:           "google-cloud-clients/google-cloud-speech",
		BranchSuffix:        "speech",
		PRTitle:             "Regenerate speech",
		MetadataPath:        "google-cloud-clients/google-cloud-speech",
		DeprecatedExecution: true,
		HideSynthLog:        true,
	}
	got = LibraryArgs(lib)
	want = []string{
		"--repository", "googleapis/google-cloud-java",
		"--synth-path", "google-cloud-clients/google-cloud-speech",
		"--branch-suffix", "speech",
		"--pr-title", "Regenerate speech",
		"--metadata-path", "google-cloud-clients/google-cloud-speech",
		"--deprecated-execution",
		"--hide-synth-log",
	}
	assertArgs(t, got, want)
}

func assertArgs(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("args = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSynthesizeLibraryCommandAndEnv(t *testing.T) {
	stub := &stubRunner{
		exitCodes: map[string]int{"o/r": 0},
		outputs:   map[string]string{"o/r": ""},
	}
	d := &Driver{
		SynthCommand: []string{"/usr/local/bin/autosynth", "synth"},
		Token:        "sekrit",
		ExtraArgs:    []string{"--verbose"},
		LogsDir:      "logs",
		Collector:    report.NewCollector(),
		Run:          stub.run,
	}

	d.SynthesizeLibrary(context.Background(), config.Library{Name: "r", Repository: "o/r"})

	cmd := stub.commands[0]
	if cmd[0] != "/usr/local/bin/autosynth" || cmd[1] != "synth" {
		t.Errorf("command prefix = %v", cmd[:2])
	}
	if cmd[len(cmd)-1] != "--verbose" {
		t.Errorf("passthrough args not appended last: %v", cmd)
	}

	found := false
	for _, kv := range stub.envs[0] {
		if kv == "GITHUB_TOKEN=sekrit" {
			found = true
		}
	}
	if !found {
		t.Error("GITHUB_TOKEN not injected into child environment")
	}
	if os.Getenv("GITHUB_TOKEN") == "sekrit" {
		t.Error("driver mutated the process environment")
	}

	wantLog := filepath.Join("logs", "o", "r", "synth.log")
	if stub.logPaths[0] != wantLog {
		t.Errorf("log path = %q, want %q", stub.logPaths[0], wantLog)
	}
}

func TestWriteReport(t *testing.T) {
	d := &Driver{Collector: report.NewCollector()}
	d.Collector.AddEntry("java-speech", "ok", true)
	d.Collector.AddEntry("java-vision", "boom", false)

	dest := filepath.Join(t.TempDir(), "sponge_log.xml")
	if err := d.WriteReport("autosynth", dest); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	var suite struct {
		XMLName  xml.Name `xml:"testsuites"`
		Failures string   `xml:"failures,attr"`
	}
	if err := xml.Unmarshal(data, &suite); err != nil {
		t.Fatalf("report is not well-formed XML: %v\n%s", err, data)
	}
	if suite.Failures != "1" {
		t.Errorf("failures attr = %q, want \"1\"", suite.Failures)
	}
	if !strings.Contains(string(data), "java-vision") {
		t.Error("report missing failed library name")
	}
}

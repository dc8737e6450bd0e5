package report

import (
	"bytes"
	"embed"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed templates/sponge_log.xml.tmpl
var templateFS embed.FS

var xunitTemplate = template.Must(template.New("sponge_log.xml.tmpl").
	Funcs(template.FuncMap{
		"xml":   escapeXML,
		"cdata": escapeCDATA,
	}).
	ParseFS(templateFS, "templates/sponge_log.xml.tmpl"))

// Write renders the xUnit report for the collected entries and writes it
// atomically to destPath.
func Write(name string, c *Collector, destPath string) error {
	data := struct {
		Name     string
		Entries  []LogEntry
		Failures int
	}{
		Name:     name,
		Entries:  c.Entries(),
		Failures: c.Failures(),
	}

	var buf bytes.Buffer
	if err := xunitTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if dir := filepath.Dir(destPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}

	// Write to a temp file in the destination directory, then rename, so a
	// crashed run never leaves a truncated report behind.
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".sponge_log-*.xml")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmpName, destPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return s
	}
	return buf.String()
}

// escapeCDATA makes arbitrary log text safe inside a CDATA section by
// splitting any literal "]]>" terminator.
func escapeCDATA(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}

// Package templates renders directory trees of text templates into
// generated repositories. Files ending in .tmpl are executed with the
// supplied data and written without the suffix; everything else is copied
// verbatim. File modes are preserved so executable scripts stay executable.
package templates

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

const tmplSuffix = ".tmpl"

// Group is one named template set under a root directory.
type Group struct {
	Root string
	Name string
}

// Dir returns the group's source directory.
func (g Group) Dir() string {
	return filepath.Join(g.Root, g.Name)
}

// Render materializes the group into a fresh temp directory and returns
// its path. The caller owns the directory.
func (g Group) Render(data any) (string, error) {
	dest, err := os.MkdirTemp("", "autosynth-templates-")
	if err != nil {
		return "", err
	}
	if err := RenderTo(g.Dir(), dest, data); err != nil {
		os.RemoveAll(dest)
		return "", err
	}
	return dest, nil
}

// RenderTo walks srcDir and writes the rendered tree under destDir.
func RenderTo(srcDir, destDir string, data any) error {
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if rel == "." {
				return nil
			}
			return os.MkdirAll(filepath.Join(destDir, rel), 0o755)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		target := filepath.Join(destDir, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		if !strings.HasSuffix(rel, tmplSuffix) {
			return copyFile(path, target, info.Mode())
		}
		return renderFile(path, strings.TrimSuffix(target, tmplSuffix), info.Mode(), data)
	})
}

func renderFile(src, dest string, mode fs.FileMode, data any) error {
	text, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	tmpl, err := template.New(filepath.Base(src)).Parse(string(text))
	if err != nil {
		return fmt.Errorf("parse template %s: %w", src, err)
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode.Perm())
	if err != nil {
		return err
	}
	defer out.Close()
	if err := tmpl.Execute(out, data); err != nil {
		return fmt.Errorf("render template %s: %w", src, err)
	}
	return nil
}

func copyFile(src, dest string, mode fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode.Perm())
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

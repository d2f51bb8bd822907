// Package artifacts keeps the screenshots of a run
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/foomo/auditwalker/driver"
)

const timeFormat = "20060102-150405"

var unsafeRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Sanitize a label for a file name
func Sanitize(label string) string {
	return unsafeRegex.ReplaceAllString(label, "-")
}

// Writer one directory per viewport, names carry the run time
type Writer struct {
	Root     string
	Viewport string
	RunTime  time.Time
}

func NewWriter(root, viewport string, runTime time.Time) *Writer {
	return &Writer{
		Root:     root,
		Viewport: viewport,
		RunTime:  runTime,
	}
}

func (w *Writer) Dir() string {
	return filepath.Join(w.Root, w.Viewport)
}

// Reset removes everything a previous run left behind, call it before any
// visit
func (w *Writer) Reset() error {
	if err := os.RemoveAll(w.Dir()); err != nil {
		return fmt.Errorf("artifacts: reset %s: %w", w.Dir(), err)
	}
	if err := os.MkdirAll(w.Dir(), 0o755); err != nil {
		return fmt.Errorf("artifacts: reset %s: %w", w.Dir(), err)
	}
	return nil
}

func (w *Writer) Name(label string) string {
	return w.RunTime.Format(timeFormat) + "_" + Sanitize(w.Viewport) + "_" + Sanitize(label) + ".png"
}

// Save a full page screenshot, returns the written path
func (w *Writer) Save(ctx context.Context, page driver.Screenshotter, label string) (path string, err error) {
	png, errShot := page.Screenshot(ctx)
	if errShot != nil {
		return "", fmt.Errorf("artifacts: screenshot %s: %w", label, errShot)
	}
	path = filepath.Join(w.Dir(), w.Name(label))
	if errWrite := os.WriteFile(path, png, 0o644); errWrite != nil {
		return "", fmt.Errorf("artifacts: write %s: %w", path, errWrite)
	}
	return path, nil
}

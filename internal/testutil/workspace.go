package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/qagate/internal/app"
	"github.com/YoshitsuguKoike/qagate/internal/app/config"
)

// Workspace is an in-memory .aid tree for tests
type Workspace struct {
	t     *testing.T
	FS    afero.Fs
	Paths app.Paths
}

// NewWorkspace creates an empty workspace rooted at the default .aid home
func NewWorkspace(t *testing.T) *Workspace {
	t.Helper()

	fs := afero.NewMemMapFs()
	paths := app.ResolvePaths(config.Default())
	if err := fs.MkdirAll(paths.QA, 0o755); err != nil {
		t.Fatalf("Failed to create %s: %v", paths.QA, err)
	}
	return &Workspace{t: t, FS: fs, Paths: paths}
}

// WriteFile writes content to path, creating parent directories
func (w *Workspace) WriteFile(path, content string) *Workspace {
	w.t.Helper()
	if err := w.FS.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		w.t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := afero.WriteFile(w.FS, path, []byte(content), 0o644); err != nil {
		w.t.Fatalf("Failed to write %s: %v", path, err)
	}
	return w
}

// State writes .aid/state.json
func (w *Workspace) State(content string) *Workspace {
	return w.WriteFile(w.Paths.State, content)
}

// Context writes .aid/context.json
func (w *Workspace) Context(content string) *Workspace {
	return w.WriteFile(w.Paths.Context, content)
}

// ActiveTask writes a context record whose current task is taskID
func (w *Workspace) ActiveTask(taskID string) *Workspace {
	return w.Context(`{"current_task":{"id":"` + taskID + `"}}`)
}

// Development writes a run state in the development phase
func (w *Workspace) Development() *Workspace {
	return w.State(`{"current_phase":"development"}`)
}

// Criteria creates the criteria record for taskID
func (w *Workspace) Criteria(taskID string) *Workspace {
	return w.WriteFile(w.Paths.CriteriaFile(taskID), "criteria:\n  - tests pass\n")
}

// Review writes a review record named name into the QA directory
func (w *Workspace) Review(name, content string) *Workspace {
	return w.WriteFile(filepath.Join(w.Paths.QA, name), content)
}

// PassMarker creates the pass marker for taskID
func (w *Workspace) PassMarker(taskID string) *Workspace {
	return w.WriteFile(w.Paths.PassMarker(taskID), "")
}

// Touch sets the modification time of path
func (w *Workspace) Touch(path string, mtime time.Time) *Workspace {
	w.t.Helper()
	if err := w.FS.Chtimes(path, mtime, mtime); err != nil {
		w.t.Fatalf("Failed to set times on %s: %v", path, err)
	}
	return w
}

// ReadFile returns the content of path, or "" if it does not exist
func (w *Workspace) ReadFile(path string) string {
	w.t.Helper()
	data, err := afero.ReadFile(w.FS, path)
	if err != nil {
		return ""
	}
	return string(data)
}

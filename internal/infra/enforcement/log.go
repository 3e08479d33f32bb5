package enforcement

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/afero"
)

// TimestampLayout is ISO-8601 local time with microseconds, without zone
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Entry is one gate invocation
type Entry struct {
	RunID     string
	InputKeys []string
	TaskID    string
	Path      string
	Verdict   string
}

// String renders the entry without the timestamp prefix
func (e Entry) String() string {
	task := e.TaskID
	if task == "" {
		task = "-"
	}
	return fmt.Sprintf("run=%s input_keys=[%s] task=%s path=%s verdict=%s",
		e.RunID, strings.Join(e.InputKeys, ","), task, e.Path, e.Verdict)
}

// NewRunID generates a sortable identifier for one invocation
func NewRunID(now time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

// Log appends one line per gate invocation. It is never read back.
type Log struct {
	fs   afero.Fs
	path string
	now  func() time.Time
}

// NewLog creates an enforcement log at path
func NewLog(fs afero.Fs, path string) *Log {
	return &Log{fs: fs, path: path, now: time.Now}
}

// Path returns the log file path
func (l *Log) Path() string {
	return l.path
}

// Append writes "[timestamp] entry" as a single line
func (l *Log) Append(e Entry) error {
	if err := l.fs.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := l.fs.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open enforcement log: %w", err)
	}
	defer f.Close()

	// Entry fields come from files on disk; keep the record on one line
	line := strings.NewReplacer("\r", " ", "\n", " ").Replace(e.String())
	if _, err := fmt.Fprintf(f, "[%s] %s\n", l.now().Format(TimestampLayout), line); err != nil {
		return fmt.Errorf("failed to write enforcement log: %w", err)
	}
	return nil
}

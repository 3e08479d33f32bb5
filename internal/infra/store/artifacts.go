package store

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/qagate/internal/app"
	"github.com/YoshitsuguKoike/qagate/internal/domain/gate"
)

// CriteriaExists reports whether .aid/qa/{task_id}.yaml exists
func (s *FileStore) CriteriaExists(ctx context.Context, taskID string) bool {
	return s.exists(s.Paths.CriteriaFile(taskID))
}

// CriteriaLocation returns the expected criteria record path
func (s *FileStore) CriteriaLocation(taskID string) string {
	return s.Paths.CriteriaFile(taskID)
}

// PassMarkerExists reports whether .aid/qa/{task_id}.qa-passed exists. Content is ignored.
func (s *FileStore) PassMarkerExists(ctx context.Context, taskID string) bool {
	return s.exists(s.Paths.PassMarker(taskID))
}

// ReviewRecords lists .aid/qa/{task_id}-review*.json in name order.
// Records that cannot be read or are not JSON objects are returned as gate.Malformed.
func (s *FileStore) ReviewRecords(ctx context.Context, taskID string) []gate.ReviewRecord {
	log := app.GetLogger()

	entries, err := afero.ReadDir(s.FS, s.Paths.QA)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("failed to list %s: %v", s.Paths.QA, err)
		}
		return nil
	}

	prefix := app.ReviewRecordPrefix(taskID)
	var records []gate.ReviewRecord
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, app.ReviewRecordExt) {
			continue
		}

		record := gate.ReviewRecord{Name: name, ModTime: entry.ModTime(), Presence: gate.Malformed}
		path := filepath.Join(s.Paths.QA, name)

		data, err := afero.ReadFile(s.FS, path)
		if err != nil {
			log.Warn("failed to read review record %s: %v", path, err)
			records = append(records, record)
			continue
		}
		doc, ok := decodeObject(data)
		if !ok {
			log.Warn("review record %s is not a JSON object, skipping", path)
			records = append(records, record)
			continue
		}

		// A missing or non-string verdict is simply not PASS
		record.Verdict, _ = stringField(doc, "verdict")
		record.Presence = gate.Present
		records = append(records, record)
	}
	return records
}

func (s *FileStore) exists(path string) bool {
	ok, err := afero.Exists(s.FS, path)
	if err != nil {
		app.GetLogger().Warn("failed to stat %s: %v", path, err)
		return false
	}
	return ok
}

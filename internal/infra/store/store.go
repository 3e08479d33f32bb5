// Package store reads workflow state documents and QA artifacts from the
// .aid directory. Every read degrades to gate.Absent or gate.Malformed
// instead of returning an error; the gate never writes through this package.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"strconv"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/qagate/internal/app"
	"github.com/YoshitsuguKoike/qagate/internal/domain/gate"
)

// FileStore is a file-based implementation of gate.Store
type FileStore struct {
	FS    afero.Fs
	Paths app.Paths
}

var _ gate.Store = (*FileStore)(nil)

// NewFileStore creates a new file-based store
func NewFileStore(fs afero.Fs, paths app.Paths) *FileStore {
	return &FileStore{FS: fs, Paths: paths}
}

// RunState reads current_phase and current_task_qa from state.json
func (s *FileStore) RunState(ctx context.Context) (gate.RunState, gate.Presence) {
	doc, presence := s.readObject(s.Paths.State)
	if presence != gate.Present {
		return gate.RunState{}, presence
	}

	state := gate.RunState{Phase: phaseField(doc["current_phase"])}

	// A current_task_qa that is not an object is ignored, not fatal
	if raw, ok := doc["current_task_qa"]; ok {
		if qa, ok := decodeObject(raw); ok {
			// task_id follows the same rule as current_task.id so numeric ids match
			status, _ := stringField(qa, "status")
			state.TaskQA = &gate.TaskQA{TaskID: idField(qa["task_id"]), Status: status}
		}
	}

	return state, gate.Present
}

// Context reads current_task.id from context.json
func (s *FileStore) Context(ctx context.Context) (gate.ContextRecord, gate.Presence) {
	doc, presence := s.readObject(s.Paths.Context)
	if presence != gate.Present {
		return gate.ContextRecord{}, presence
	}

	record := gate.ContextRecord{}
	if task, ok := decodeObject(doc["current_task"]); ok {
		record.TaskID = idField(task["id"])
	}
	return record, gate.Present
}

// readObject reads path as a JSON object
func (s *FileStore) readObject(path string) (map[string]json.RawMessage, gate.Presence) {
	log := app.GetLogger()

	data, err := afero.ReadFile(s.FS, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("%s not found", path)
			return nil, gate.Absent
		}
		log.Warn("failed to read %s: %v", path, err)
		return nil, gate.Malformed
	}

	doc, ok := decodeObject(data)
	if !ok {
		log.Warn("%s is not a JSON object, ignoring", path)
		return nil, gate.Malformed
	}
	return doc, gate.Present
}

// decodeObject decodes raw as a JSON object. null and non-objects fail.
func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// stringField returns obj[key] if it is a JSON string
func stringField(obj map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := obj[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// numberLiteral returns the JSON literal of raw if it is a number
func numberLiteral(raw json.RawMessage) (json.Number, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	n, ok := v.(json.Number)
	return n, ok
}

// phaseField accepts a string or a number. Integral numbers are rendered
// without a fraction so 4.0 and 4 both become "4".
func phaseField(raw json.RawMessage) gate.Phase {
	if len(raw) == 0 {
		return gate.Phase{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return gate.Phase{Value: s}
	}
	n, ok := numberLiteral(raw)
	if !ok {
		return gate.Phase{}
	}
	f, err := n.Float64()
	if err != nil {
		return gate.Phase{Value: n.String()}
	}
	return gate.Phase{Value: strconv.FormatFloat(f, 'f', -1, 64)}
}

// idField accepts a string or a number literal; anything else is absent
func idField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if n, ok := numberLiteral(raw); ok {
		return n.String()
	}
	return ""
}

package store_test

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/qagate/internal/domain/gate"
	"github.com/YoshitsuguKoike/qagate/internal/infra/store"
	"github.com/YoshitsuguKoike/qagate/internal/testutil"
)

func TestFileStore_RunState(t *testing.T) {
	tests := []struct {
		name         string
		content      *string
		wantPresence gate.Presence
		wantPhase    gate.Phase
		wantQA       *gate.TaskQA
	}{
		{
			name:         "missing file",
			content:      nil,
			wantPresence: gate.Absent,
		},
		{
			name:         "named phase",
			content:      strPtr(`{"current_phase":"development"}`),
			wantPresence: gate.Present,
			wantPhase:    gate.Phase{Value: "development"},
		},
		{
			name:         "numeric phase",
			content:      strPtr(`{"current_phase":4}`),
			wantPresence: gate.Present,
			wantPhase:    gate.Phase{Value: "4"},
		},
		{
			name:         "integral float phase",
			content:      strPtr(`{"current_phase":4.0}`),
			wantPresence: gate.Present,
			wantPhase:    gate.Phase{Value: "4"},
		},
		{
			name:         "fractional phase",
			content:      strPtr(`{"current_phase":4.5}`),
			wantPresence: gate.Present,
			wantPhase:    gate.Phase{Value: "4.5"},
		},
		{
			name:         "boolean phase is absent",
			content:      strPtr(`{"current_phase":true}`),
			wantPresence: gate.Present,
		},
		{
			name:         "null phase is absent",
			content:      strPtr(`{"current_phase":null}`),
			wantPresence: gate.Present,
		},
		{
			name:         "embedded task qa",
			content:      strPtr(`{"current_phase":"4","current_task_qa":{"task_id":"T1","status":"passed"}}`),
			wantPresence: gate.Present,
			wantPhase:    gate.Phase{Value: "4"},
			wantQA:       &gate.TaskQA{TaskID: "T1", Status: "passed"},
		},
		{
			name:         "non-object task qa is ignored",
			content:      strPtr(`{"current_phase":"4","current_task_qa":"passed"}`),
			wantPresence: gate.Present,
			wantPhase:    gate.Phase{Value: "4"},
		},
		{
			name:         "numeric task qa id",
			content:      strPtr(`{"current_phase":4,"current_task_qa":{"task_id":42,"status":"passed"}}`),
			wantPresence: gate.Present,
			wantPhase:    gate.Phase{Value: "4"},
			wantQA:       &gate.TaskQA{TaskID: "42", Status: "passed"},
		},
		{
			name:         "unsupported task qa field types are empty",
			content:      strPtr(`{"current_task_qa":{"task_id":["T1"],"status":true}}`),
			wantPresence: gate.Present,
			wantQA:       &gate.TaskQA{},
		},
		{
			name:         "invalid JSON",
			content:      strPtr(`{"current_phase":`),
			wantPresence: gate.Malformed,
		},
		{
			name:         "JSON array",
			content:      strPtr(`["development"]`),
			wantPresence: gate.Malformed,
		},
		{
			name:         "empty file",
			content:      strPtr(``),
			wantPresence: gate.Malformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := testutil.NewWorkspace(t)
			if tt.content != nil {
				ws.State(*tt.content)
			}
			s := store.NewFileStore(ws.FS, ws.Paths)

			state, presence := s.RunState(context.Background())

			assert.Equal(t, tt.wantPresence, presence)
			assert.Equal(t, tt.wantPhase, state.Phase)
			assert.Equal(t, tt.wantQA, state.TaskQA)
		})
	}
}

func TestFileStore_Context(t *testing.T) {
	tests := []struct {
		name         string
		content      *string
		wantPresence gate.Presence
		wantTask     string
	}{
		{"missing file", nil, gate.Absent, ""},
		{"string id", strPtr(`{"current_task":{"id":"T1","title":"x"}}`), gate.Present, "T1"},
		{"numeric id", strPtr(`{"current_task":{"id":7}}`), gate.Present, "7"},
		{"no current_task", strPtr(`{"phase":"4"}`), gate.Present, ""},
		{"current_task not an object", strPtr(`{"current_task":"T1"}`), gate.Present, ""},
		{"id of another type", strPtr(`{"current_task":{"id":["T1"]}}`), gate.Present, ""},
		{"null id", strPtr(`{"current_task":{"id":null}}`), gate.Present, ""},
		{"invalid JSON", strPtr(`not json`), gate.Malformed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := testutil.NewWorkspace(t)
			if tt.content != nil {
				ws.Context(*tt.content)
			}
			s := store.NewFileStore(ws.FS, ws.Paths)

			record, presence := s.Context(context.Background())

			assert.Equal(t, tt.wantPresence, presence)
			assert.Equal(t, tt.wantTask, record.TaskID)
		})
	}
}

func TestFileStore_CriteriaAndMarker(t *testing.T) {
	ws := testutil.NewWorkspace(t).Criteria("T1").PassMarker("T2")
	s := store.NewFileStore(ws.FS, ws.Paths)
	ctx := context.Background()

	assert.True(t, s.CriteriaExists(ctx, "T1"))
	assert.False(t, s.CriteriaExists(ctx, "T2"))
	assert.True(t, s.PassMarkerExists(ctx, "T2"))
	assert.False(t, s.PassMarkerExists(ctx, "T1"))
	assert.Equal(t, filepath.Join(".aid", "qa", "T1.yaml"), s.CriteriaLocation("T1"))
}

func TestFileStore_ReviewRecords(t *testing.T) {
	ws := testutil.NewWorkspace(t).
		Review("T1-review.json", `{"verdict":"FAIL"}`).
		Review("T1-review-final.json", `{"verdict":"PASS","notes":"ok"}`).
		Review("T1-review-broken.json", `{"verdict":`).
		Review("T1-review-list.json", `["PASS"]`).
		Review("T1-review-noverdict.json", `{"summary":"PASS"}`).
		Review("T1-review.txt", `{"verdict":"PASS"}`).
		Review("T10-review.json", `{"verdict":"PASS"}`).
		Review("review-T1.json", `{"verdict":"PASS"}`)
	require.NoError(t, ws.FS.MkdirAll(filepath.Join(ws.Paths.QA, "T1-review-dir.json"), 0o755))

	s := store.NewFileStore(ws.FS, ws.Paths)
	records := s.ReviewRecords(context.Background(), "T1")

	got := map[string]gate.ReviewRecord{}
	for _, r := range records {
		got[r.Name] = r
	}

	require.Len(t, got, 5)
	assert.Equal(t, gate.Present, got["T1-review.json"].Presence)
	assert.Equal(t, "FAIL", got["T1-review.json"].Verdict)
	assert.Equal(t, "PASS", got["T1-review-final.json"].Verdict)
	assert.Equal(t, gate.Malformed, got["T1-review-broken.json"].Presence)
	assert.Equal(t, gate.Malformed, got["T1-review-list.json"].Presence)
	assert.Equal(t, gate.Present, got["T1-review-noverdict.json"].Presence)
	assert.Empty(t, got["T1-review-noverdict.json"].Verdict)
}

func TestFileStore_ReviewRecordsModTime(t *testing.T) {
	mtime := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	ws := testutil.NewWorkspace(t).Review("T1-review.json", `{"verdict":"PASS"}`)
	ws.Touch(filepath.Join(ws.Paths.QA, "T1-review.json"), mtime)

	records := store.NewFileStore(ws.FS, ws.Paths).ReviewRecords(context.Background(), "T1")

	require.Len(t, records, 1)
	assert.True(t, records[0].ModTime.Equal(mtime))
}

func TestFileStore_MissingQADirectory(t *testing.T) {
	ws := testutil.NewWorkspace(t)
	require.NoError(t, ws.FS.RemoveAll(ws.Paths.QA))
	s := store.NewFileStore(ws.FS, ws.Paths)
	ctx := context.Background()

	assert.Empty(t, s.ReviewRecords(ctx, "T1"))
	assert.False(t, s.CriteriaExists(ctx, "T1"))
	assert.False(t, s.PassMarkerExists(ctx, "T1"))
}

func TestFileStore_TaskIDRulesMatchAcrossDocuments(t *testing.T) {
	tests := []struct {
		name      string
		contextID string
		qaTaskID  string
		wantAllow bool
	}{
		{"both numeric", `42`, `42`, true},
		{"numeric context, string run state", `42`, `"42"`, true},
		{"string context, numeric run state", `"42"`, `42`, true},
		{"different ids", `42`, `43`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := testutil.NewWorkspace(t).
				State(`{"current_phase":4,"current_task_qa":{"task_id":` + tt.qaTaskID + `,"status":"passed"}}`).
				Context(`{"current_task":{"id":` + tt.contextID + `}}`).
				Criteria("42")
			s := store.NewFileStore(ws.FS, ws.Paths)

			d := gate.New(s, gate.Options{DevelopmentPhases: []string{"4"}}).Evaluate(context.Background())

			assert.Equal(t, tt.wantAllow, d.Allow)
			assert.Equal(t, "42", d.TaskID)
		})
	}
}

func TestFileStore_NeverWrites(t *testing.T) {
	ws := testutil.NewWorkspace(t).
		Development().
		ActiveTask("T1").
		Criteria("T1").
		Review("T1-review.json", `{"verdict":"FAIL"}`)
	before := snapshot(t, ws)

	s := store.NewFileStore(ws.FS, ws.Paths)
	g := gate.New(s, gate.Options{DevelopmentPhases: []string{"development"}})
	g.Evaluate(context.Background())

	assert.Equal(t, before, snapshot(t, ws))
}

func snapshot(t *testing.T, ws *testutil.Workspace) map[string]string {
	t.Helper()
	files := map[string]string{}
	for _, p := range []string{ws.Paths.State, ws.Paths.Context, ws.Paths.CriteriaFile("T1"), filepath.Join(ws.Paths.QA, "T1-review.json")} {
		files[p] = ws.ReadFile(p)
	}
	entries, err := ws.FS.Open(ws.Paths.QA)
	require.NoError(t, err)
	defer entries.Close()
	names, err := entries.Readdirnames(-1)
	require.NoError(t, err)
	sort.Strings(names)
	files["#entries"] = strings.Join(names, ",")
	return files
}

func strPtr(s string) *string {
	return &s
}

package app

import (
	"path/filepath"

	"github.com/YoshitsuguKoike/qagate/internal/app/config"
)

// File naming conventions inside the QA directory
const (
	CriteriaExt        = ".yaml"      // {task_id}.yaml
	PassMarkerExt      = ".qa-passed" // {task_id}.qa-passed
	ReviewRecordSuffix = "-review"    // {task_id}-review*.json
	ReviewRecordExt    = ".json"
)

// Paths holds all resolved paths for the .aid workflow structure
type Paths struct {
	Home string // .aid
	QA   string // .aid/qa

	// Key files
	State          string // .aid/state.json
	Context        string // .aid/context.json
	EnforcementLog string // .aid/qa/enforcement.log
}

// ResolvePaths returns all paths based on the loaded configuration
func ResolvePaths(cfg config.Config) Paths {
	return Paths{
		Home:           cfg.Home(),
		QA:             cfg.QADir(),
		State:          filepath.Join(cfg.Home(), "state.json"),
		Context:        filepath.Join(cfg.Home(), "context.json"),
		EnforcementLog: cfg.EnforcementLog(),
	}
}

// CriteriaFile returns the criteria record path for a task
func (p Paths) CriteriaFile(taskID string) string {
	return filepath.Join(p.QA, taskID+CriteriaExt)
}

// PassMarker returns the pass marker path for a task
func (p Paths) PassMarker(taskID string) string {
	return filepath.Join(p.QA, taskID+PassMarkerExt)
}

// ReviewRecordPrefix returns the file name prefix shared by a task's review records
func ReviewRecordPrefix(taskID string) string {
	return taskID + ReviewRecordSuffix
}

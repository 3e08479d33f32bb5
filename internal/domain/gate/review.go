package gate

import (
	"context"
	"fmt"
	"strings"

	"github.com/YoshitsuguKoike/qagate/internal/app/config"
)

// Verdict sentinels
const (
	// ReviewVerdictPass is the only review record verdict that counts as passed
	ReviewVerdictPass = "PASS"
	// TaskQAStatusPassed is the embedded run state status that counts as passed
	TaskQAStatusPassed = "passed"
)

// Checker names
const (
	CheckerReviewRecord = "review-record"
	CheckerPassMarker   = "pass-marker"
	CheckerRunState     = "run-state"
)

// Outcome is the answer of one review source
type Outcome int

const (
	// Undecided lets the next checker answer
	Undecided Outcome = iota
	// Passed stops the scan: review passed
	Passed
	// NotPassed stops the scan: review definitely did not pass
	NotPassed
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	switch o {
	case Passed:
		return "passed"
	case NotPassed:
		return "not-passed"
	default:
		return "undecided"
	}
}

// CheckResult records what one checker saw
type CheckResult struct {
	Checker string  `json:"checker" yaml:"checker"`
	Outcome Outcome `json:"-" yaml:"-"`
	Result  string  `json:"result" yaml:"result"`
	Detail  string  `json:"detail" yaml:"detail"`
}

func newResult(checker string, outcome Outcome, format string, args ...interface{}) CheckResult {
	return CheckResult{
		Checker: checker,
		Outcome: outcome,
		Result:  outcome.String(),
		Detail:  fmt.Sprintf(format, args...),
	}
}

// Checker is one review source consulted by the ReviewResolver
type Checker interface {
	Name() string
	Check(ctx context.Context, taskID string) CheckResult
}

// ReviewResolver consults checkers in order and stops at the first definite outcome
type ReviewResolver struct {
	checkers []Checker
}

// NewReviewResolver creates a resolver over the given checkers, in precedence order
func NewReviewResolver(checkers ...Checker) *ReviewResolver {
	return &ReviewResolver{checkers: checkers}
}

// DefaultCheckers returns review record, pass marker and run state checkers, in that order
func DefaultCheckers(store Store, reviewPolicy string) []Checker {
	return []Checker{
		&ReviewRecordChecker{Artifacts: store, Policy: reviewPolicy},
		&PassMarkerChecker{Artifacts: store},
		&RunStateChecker{State: store},
	}
}

// Resolve reports whether review passed for the task, with every result consulted
func (r *ReviewResolver) Resolve(ctx context.Context, taskID string) (bool, []CheckResult) {
	results := make([]CheckResult, 0, len(r.checkers))
	for _, c := range r.checkers {
		res := c.Check(ctx, taskID)
		results = append(results, res)
		switch res.Outcome {
		case Passed:
			return true, results
		case NotPassed:
			return false, results
		}
	}
	return false, results
}

// ReviewRecordChecker passes when a review record carries the PASS verdict
type ReviewRecordChecker struct {
	Artifacts ArtifactReader
	Policy    string
}

func (c *ReviewRecordChecker) Name() string { return CheckerReviewRecord }

// Check scans the task's review records. Malformed records are skipped.
// Under the latest policy only the most recently modified record counts.
func (c *ReviewRecordChecker) Check(ctx context.Context, taskID string) CheckResult {
	records := c.Artifacts.ReviewRecords(ctx, taskID)

	var readable []ReviewRecord
	skipped := 0
	for _, rec := range records {
		if rec.Presence != Present {
			skipped++
			continue
		}
		readable = append(readable, rec)
	}

	if len(readable) == 0 {
		return newResult(CheckerReviewRecord, Undecided, "no readable review records (%d skipped)", skipped)
	}

	if c.Policy == config.ReviewPolicyLatest {
		latest := readable[0]
		for _, rec := range readable[1:] {
			// Ties go to the later name so re-reviews named -2, -3 win
			if rec.ModTime.After(latest.ModTime) || (rec.ModTime.Equal(latest.ModTime) && rec.Name > latest.Name) {
				latest = rec
			}
		}
		if latest.Verdict == ReviewVerdictPass {
			return newResult(CheckerReviewRecord, Passed, "latest record %s has verdict PASS", latest.Name)
		}
		return newResult(CheckerReviewRecord, Undecided, "latest record %s has verdict %s", latest.Name, verdictText(latest.Verdict))
	}

	verdicts := make([]string, 0, len(readable))
	for _, rec := range readable {
		if rec.Verdict == ReviewVerdictPass {
			return newResult(CheckerReviewRecord, Passed, "%s has verdict PASS", rec.Name)
		}
		verdicts = append(verdicts, rec.Name+"="+verdictText(rec.Verdict))
	}
	return newResult(CheckerReviewRecord, Undecided, "no PASS verdict: %s (%d skipped)", strings.Join(verdicts, ", "), skipped)
}

// PassMarkerChecker passes when the task's pass marker exists
type PassMarkerChecker struct {
	Artifacts ArtifactReader
}

func (c *PassMarkerChecker) Name() string { return CheckerPassMarker }

func (c *PassMarkerChecker) Check(ctx context.Context, taskID string) CheckResult {
	if c.Artifacts.PassMarkerExists(ctx, taskID) {
		return newResult(CheckerPassMarker, Passed, "pass marker found")
	}
	return newResult(CheckerPassMarker, Undecided, "no pass marker")
}

// RunStateChecker passes when the run state records a passed review for the same task
type RunStateChecker struct {
	State RunStateReader
}

func (c *RunStateChecker) Name() string { return CheckerRunState }

func (c *RunStateChecker) Check(ctx context.Context, taskID string) CheckResult {
	state, presence := c.State.RunState(ctx)
	if presence != Present {
		return newResult(CheckerRunState, Undecided, "run state %s", presence)
	}
	qa := state.TaskQA
	if qa == nil {
		return newResult(CheckerRunState, Undecided, "no current_task_qa")
	}
	if qa.TaskID != taskID {
		return newResult(CheckerRunState, Undecided, "current_task_qa is for task %q", qa.TaskID)
	}
	if qa.Status != TaskQAStatusPassed {
		return newResult(CheckerRunState, Undecided, "current_task_qa status is %q", qa.Status)
	}
	return newResult(CheckerRunState, Passed, "current_task_qa status is passed")
}

func verdictText(v string) string {
	if v == "" {
		return "<none>"
	}
	return v
}

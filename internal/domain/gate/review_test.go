package gate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/qagate/internal/app/config"
)

func record(name, verdict string, mod time.Time) ReviewRecord {
	return ReviewRecord{Name: name, Verdict: verdict, ModTime: mod, Presence: Present}
}

func TestReviewRecordChecker_AnyPass(t *testing.T) {
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		records []ReviewRecord
		want    Outcome
	}{
		{"no records", nil, Undecided},
		{"single PASS", []ReviewRecord{record("T1-review.json", "PASS", base)}, Passed},
		{"single FAIL", []ReviewRecord{record("T1-review.json", "FAIL", base)}, Undecided},
		{"PASS among FAILs", []ReviewRecord{
			record("T1-review-1.json", "FAIL", base),
			record("T1-review-2.json", "PASS", base.Add(-time.Hour)),
			record("T1-review-3.json", "FAIL", base.Add(time.Hour)),
		}, Passed},
		{"lowercase pass is not the sentinel", []ReviewRecord{record("T1-review.json", "pass", base)}, Undecided},
		{"missing verdict", []ReviewRecord{record("T1-review.json", "", base)}, Undecided},
		{"malformed PASS-looking record is skipped", []ReviewRecord{
			{Name: "T1-review-bad.json", Verdict: "PASS", Presence: Malformed},
		}, Undecided},
		{"malformed record does not hide a PASS", []ReviewRecord{
			{Name: "T1-review-bad.json", Presence: Malformed},
			record("T1-review-good.json", "PASS", base),
		}, Passed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeStore()
			s.reviews["T1"] = tt.records
			c := &ReviewRecordChecker{Artifacts: s, Policy: config.ReviewPolicyAnyPass}

			res := c.Check(context.Background(), "T1")

			assert.Equal(t, tt.want, res.Outcome)
			assert.Equal(t, CheckerReviewRecord, res.Checker)
			assert.Equal(t, tt.want.String(), res.Result)
		})
	}
}

func TestReviewRecordChecker_Latest(t *testing.T) {
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		records []ReviewRecord
		want    Outcome
	}{
		{"newest PASS wins", []ReviewRecord{
			record("T1-review-1.json", "FAIL", base),
			record("T1-review-2.json", "PASS", base.Add(time.Minute)),
		}, Passed},
		{"newest FAIL hides older PASS", []ReviewRecord{
			record("T1-review-1.json", "PASS", base),
			record("T1-review-2.json", "FAIL", base.Add(time.Minute)),
		}, Undecided},
		{"same mtime falls back to name order", []ReviewRecord{
			record("T1-review-2.json", "PASS", base),
			record("T1-review-1.json", "FAIL", base),
		}, Passed},
		{"malformed newest is ignored", []ReviewRecord{
			record("T1-review-1.json", "PASS", base),
			{Name: "T1-review-2.json", ModTime: base.Add(time.Hour), Presence: Malformed},
		}, Passed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeStore()
			s.reviews["T1"] = tt.records
			c := &ReviewRecordChecker{Artifacts: s, Policy: config.ReviewPolicyLatest}

			assert.Equal(t, tt.want, c.Check(context.Background(), "T1").Outcome)
		})
	}
}

func TestReviewResolver_Precedence(t *testing.T) {
	s := blockingStore()
	s.markers["T1"] = true
	s.state.TaskQA = &TaskQA{TaskID: "T1", Status: "passed"}
	s.withReview("T1", "T1-review.json", "PASS")

	passed, results := NewReviewResolver(DefaultCheckers(s, config.ReviewPolicyAnyPass)...).Resolve(context.Background(), "T1")

	assert.True(t, passed)
	require.Len(t, results, 1, "first definite answer stops the scan")
	assert.Equal(t, CheckerReviewRecord, results[0].Checker)
}

func TestReviewResolver_FallsThroughToRunState(t *testing.T) {
	s := blockingStore()
	s.state.TaskQA = &TaskQA{TaskID: "T1", Status: "passed"}

	passed, results := NewReviewResolver(DefaultCheckers(s, config.ReviewPolicyAnyPass)...).Resolve(context.Background(), "T1")

	assert.True(t, passed)
	require.Len(t, results, 3)
	assert.Equal(t, []string{CheckerReviewRecord, CheckerPassMarker, CheckerRunState},
		[]string{results[0].Checker, results[1].Checker, results[2].Checker})
}

func TestRunStateChecker_UnreadableStateIsNoMatch(t *testing.T) {
	for _, p := range []Presence{Absent, Malformed} {
		t.Run(p.String(), func(t *testing.T) {
			s := newFakeStore()
			s.statePresence = p
			s.state.TaskQA = &TaskQA{TaskID: "T1", Status: "passed"}

			res := (&RunStateChecker{State: s}).Check(context.Background(), "T1")

			assert.Equal(t, Undecided, res.Outcome)
		})
	}
}

func TestEmptyResolverDoesNotPass(t *testing.T) {
	passed, results := NewReviewResolver().Resolve(context.Background(), "T1")

	assert.False(t, passed)
	assert.Empty(t, results)
}

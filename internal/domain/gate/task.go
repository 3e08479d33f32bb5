package gate

import "context"

// ActiveTask returns the active task identifier from the context record.
// An absent or malformed record yields an empty identifier.
func ActiveTask(ctx context.Context, r ContextReader) (string, Presence) {
	record, presence := r.Context(ctx)
	if presence != Present {
		return "", presence
	}
	return record.TaskID, presence
}

// RequiresReview reports whether the task is subject to QA gating,
// i.e. whether a criteria record exists for it
func RequiresReview(ctx context.Context, a ArtifactReader, taskID string) bool {
	if taskID == "" {
		return false
	}
	return a.CriteriaExists(ctx, taskID)
}

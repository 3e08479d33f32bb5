package gate

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// PhaseMatcher decides whether a declared phase is the development phase
type PhaseMatcher struct {
	accepted map[string]struct{}
}

// NewPhaseMatcher creates a matcher for the given representations, e.g. "4" and "development"
func NewPhaseMatcher(forms []string) PhaseMatcher {
	accepted := make(map[string]struct{}, len(forms))
	for _, f := range forms {
		if key := foldPhase(f); key != "" {
			accepted[key] = struct{}{}
		}
	}
	return PhaseMatcher{accepted: accepted}
}

// Applies reports whether enforcement applies for the phase
func (m PhaseMatcher) Applies(p Phase) bool {
	if p.IsZero() {
		return false
	}
	_, ok := m.accepted[foldPhase(p.Value)]
	return ok
}

// foldPhase normalizes width and compatibility forms, then folds case
func foldPhase(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}

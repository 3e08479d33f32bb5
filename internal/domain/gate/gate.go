package gate

import (
	"context"
	"fmt"
	"strings"

	"github.com/YoshitsuguKoike/qagate/internal/app"
	"github.com/YoshitsuguKoike/qagate/internal/app/config"
)

// Stage identifies one step of the decision path
type Stage string

const (
	StagePhase    Stage = "phase"
	StageTask     Stage = "task"
	StageCriteria Stage = "criteria"
	StageReview   Stage = "review"
)

// Step is one stage outcome on the decision path
type Step struct {
	Stage   Stage  `json:"stage" yaml:"stage"`
	Outcome string `json:"outcome" yaml:"outcome"`
}

// Decision is the verdict of one gate evaluation
type Decision struct {
	Allow  bool
	TaskID string
	Reason string
	Path   []Step
	Checks []CheckResult
}

// Verdict returns "allow" or "block"
func (d Decision) Verdict() string {
	if d.Allow {
		return "allow"
	}
	return "block"
}

// PathString renders the path as stage:outcome pairs, e.g. phase:development,task:T1
func (d Decision) PathString() string {
	parts := make([]string, 0, len(d.Path))
	for _, s := range d.Path {
		parts = append(parts, string(s.Stage)+":"+s.Outcome)
	}
	return strings.Join(parts, ",")
}

// Options configures a Gate
type Options struct {
	DevelopmentPhases []string
	ReviewPolicy      string
	OnUnknownState    string
}

// Gate decides whether a workflow transition may proceed
type Gate struct {
	store          Store
	phases         PhaseMatcher
	review         *ReviewResolver
	blockOnUnknown bool
}

// New creates a gate reading from store with the default review checkers
func New(store Store, opts Options) *Gate {
	return NewWithResolver(store, opts, NewReviewResolver(DefaultCheckers(store, opts.ReviewPolicy)...))
}

// NewWithResolver creates a gate with a custom review resolver
func NewWithResolver(store Store, opts Options, review *ReviewResolver) *Gate {
	return &Gate{
		store:          store,
		phases:         NewPhaseMatcher(opts.DevelopmentPhases),
		review:         review,
		blockOnUnknown: opts.OnUnknownState == config.UnknownStateBlock,
	}
}

// Evaluate runs phase, task, criteria and review checks for the active task
func (g *Gate) Evaluate(ctx context.Context) Decision {
	return g.evaluate(ctx, "")
}

// EvaluateTask is Evaluate with the active task forced to taskID
func (g *Gate) EvaluateTask(ctx context.Context, taskID string) Decision {
	return g.evaluate(ctx, taskID)
}

func (g *Gate) evaluate(ctx context.Context, override string) Decision {
	log := app.GetLogger()
	d := Decision{}

	// 1. Phase
	state, presence := g.store.RunState(ctx)
	switch {
	case presence == Malformed:
		d.step(StagePhase, "malformed")
		if g.blockOnUnknown {
			return d.block(UnknownStateReason("run state"))
		}
		log.Debug("run state is malformed, allowing")
		return d.allow()
	case presence == Absent:
		d.step(StagePhase, "absent")
		log.Debug("no run state, allowing")
		return d.allow()
	case !g.phases.Applies(state.Phase):
		d.step(StagePhase, state.Phase.String())
		log.Debug("phase %s is not the development phase, allowing", state.Phase)
		return d.allow()
	}
	d.step(StagePhase, state.Phase.String())

	// 2. Task
	taskID := override
	if taskID == "" {
		taskID, presence = ActiveTask(ctx, g.store)
		if presence == Malformed {
			d.step(StageTask, "malformed")
			if g.blockOnUnknown {
				return d.block(UnknownStateReason("context record"))
			}
			log.Debug("context record is malformed, allowing")
			return d.allow()
		}
	}
	if taskID == "" {
		d.step(StageTask, "none")
		log.Debug("no active task, allowing")
		return d.allow()
	}
	d.TaskID = taskID
	d.step(StageTask, taskID)

	// 3. Criteria
	if !RequiresReview(ctx, g.store, taskID) {
		d.step(StageCriteria, "absent")
		log.Debug("no QA criteria for %s, allowing", taskID)
		return d.allow()
	}
	d.step(StageCriteria, "present")

	// 4. Review
	passed, checks := g.review.Resolve(ctx, taskID)
	d.Checks = checks
	if passed {
		d.step(StageReview, "passed:"+checks[len(checks)-1].Checker)
		log.Debug("QA passed for %s, allowing", taskID)
		return d.allow()
	}
	d.step(StageReview, "not-passed")
	log.Info("QA not passed for %s, blocking", taskID)
	return d.block(BlockReason(taskID, g.store.CriteriaLocation(taskID)))
}

func (d *Decision) step(stage Stage, outcome string) {
	d.Path = append(d.Path, Step{Stage: stage, Outcome: outcome})
}

func (d Decision) allow() Decision {
	d.Allow = true
	return d
}

func (d Decision) block(reason string) Decision {
	d.Allow = false
	d.Reason = reason
	return d
}

// BlockReason builds the remediation message for a task without a passing review
func BlockReason(taskID, criteriaPath string) string {
	return fmt.Sprintf(`QA Gate BLOCKED: Task %[1]s requires QA validation before proceeding.

ACTION REQUIRED:
1. Spawn a QA sub-agent to review your implementation:

   Task(
     subagent_type="general-purpose",
     prompt="You are a QA Validator. Read %[2]s for criteria.
             Review the modified files and return JSON with a PASS/FAIL verdict.",
     description="QA validation for %[1]s"
   )

2. Save the result as a review record with a "verdict" field of PASS or FAIL
3. If QA returns FAIL, fix the issues and re-run QA
4. Once QA returns PASS, you can proceed to the next task

QA criteria file: %[2]s
`, taskID, criteriaPath)
}

// UnknownStateReason builds the message used when a malformed document blocks under the block policy
func UnknownStateReason(document string) string {
	return fmt.Sprintf("QA Gate BLOCKED: the %s exists but could not be read, so QA status cannot be determined. Fix or remove it and retry.", document)
}

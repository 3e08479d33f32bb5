package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/qagate/internal/infra/enforcement"
	"github.com/YoshitsuguKoike/qagate/internal/interface/hook"
)

func newCheckCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run the QA gate as a stop hook",
		Long: `Read the hook payload from stdin and write exactly one verdict to stdout:

  {"ok":true}
  {"ok":false,"reason":"..."}

The verdict is written whatever the state on disk; missing or malformed
state allows. Each run appends one line to the enforcement log.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runCheck(c, rt)
		},
	}
}

func runCheck(c *cobra.Command, rt *runtime) error {
	started := time.Now()
	input := hook.ReadInput(c.InOrStdin())
	Debug("stop hook triggered, input keys: %v", input.Keys())

	decision := rt.newGate().Evaluate(c.Context())

	entry := enforcement.Entry{
		RunID:     enforcement.NewRunID(started),
		InputKeys: input.Keys(),
		TaskID:    decision.TaskID,
		Path:      decision.PathString(),
		Verdict:   decision.Verdict(),
	}
	enforcementLog := enforcement.NewLog(rt.fs, rt.paths().EnforcementLog)
	if err := enforcementLog.Append(entry); err != nil {
		// The verdict must still be written
		Warn("enforcement log %s: %v", enforcementLog.Path(), err)
	}

	return hook.WriteResponse(c.OutOrStdout(), hook.FromDecision(decision))
}

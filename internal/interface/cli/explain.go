package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/YoshitsuguKoike/qagate/internal/domain/gate"
)

// explainReport is the full decision trace printed by explain
type explainReport struct {
	Verdict string             `json:"verdict" yaml:"verdict"`
	TaskID  string             `json:"task_id,omitempty" yaml:"task_id,omitempty"`
	Path    []gate.Step        `json:"path" yaml:"path"`
	Checks  []gate.CheckResult `json:"checks,omitempty" yaml:"checks,omitempty"`
	Reason  string             `json:"reason,omitempty" yaml:"reason,omitempty"`
	Config  explainConfig      `json:"config" yaml:"config"`
}

type explainConfig struct {
	Source            string   `json:"source" yaml:"source"`
	Home              string   `json:"home" yaml:"home"`
	QADir             string   `json:"qa_dir" yaml:"qa_dir"`
	DevelopmentPhases []string `json:"development_phases" yaml:"development_phases"`
	ReviewPolicy      string   `json:"review_policy" yaml:"review_policy"`
	OnUnknownState    string   `json:"on_unknown_state" yaml:"on_unknown_state"`
}

func newExplainCmd(rt *runtime) *cobra.Command {
	var taskID string
	var format string

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Show how the gate decides for the current state",
		Long: `Evaluate the gate like check does and print every stage outcome and
review source consulted. Nothing is written to the enforcement log.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			g := rt.newGate()
			var d gate.Decision
			if taskID != "" {
				d = g.EvaluateTask(c.Context(), taskID)
			} else {
				d = g.Evaluate(c.Context())
			}
			return writeExplain(c.OutOrStdout(), buildExplainReport(rt, d), format)
		},
	}

	cmd.Flags().StringVar(&taskID, "task", "", "Task ID to evaluate instead of the context record's current task")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or yaml")
	return cmd
}

func buildExplainReport(rt *runtime, d gate.Decision) explainReport {
	return explainReport{
		Verdict: d.Verdict(),
		TaskID:  d.TaskID,
		Path:    d.Path,
		Checks:  d.Checks,
		Reason:  d.Reason,
		Config: explainConfig{
			Source:            rt.cfg.ConfigSource(),
			Home:              rt.cfg.Home(),
			QADir:             rt.cfg.QADir(),
			DevelopmentPhases: rt.cfg.DevelopmentPhases(),
			ReviewPolicy:      rt.cfg.ReviewPolicy(),
			OnUnknownState:    rt.cfg.OnUnknownState(),
		},
	}
}

func writeExplain(w io.Writer, report explainReport, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		printExplainText(w, report)
		return nil
	default:
		return fmt.Errorf("unknown format %q (expected text, json or yaml)", format)
	}
}

func printExplainText(w io.Writer, r explainReport) {
	fmt.Fprintf(w, "verdict: %s\n", r.Verdict)
	if r.TaskID != "" {
		fmt.Fprintf(w, "task:    %s\n", r.TaskID)
	}
	fmt.Fprintln(w, "path:")
	for _, s := range r.Path {
		fmt.Fprintf(w, "  %-9s %s\n", s.Stage, s.Outcome)
	}
	if len(r.Checks) > 0 {
		fmt.Fprintln(w, "checks:")
		for _, c := range r.Checks {
			fmt.Fprintf(w, "  %-14s %-10s %s\n", c.Checker, c.Result, c.Detail)
		}
	}
	if r.Reason != "" {
		fmt.Fprintln(w, "reason:")
		for _, line := range strings.Split(strings.TrimRight(r.Reason, "\n"), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	fmt.Fprintf(w, "config:  source=%s home=%s review_policy=%s on_unknown_state=%s\n",
		r.Config.Source, r.Config.Home, r.Config.ReviewPolicy, r.Config.OnUnknownState)
}

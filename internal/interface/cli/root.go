package cli

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/qagate/internal/app"
	"github.com/YoshitsuguKoike/qagate/internal/app/config"
	"github.com/YoshitsuguKoike/qagate/internal/domain/gate"
	infraConfig "github.com/YoshitsuguKoike/qagate/internal/infra/config"
	"github.com/YoshitsuguKoike/qagate/internal/infra/store"
	"github.com/YoshitsuguKoike/qagate/internal/interface/cli/version"
)

// runtime holds what every command needs once configuration is loaded
type runtime struct {
	fs  afero.Fs
	cfg config.Config
}

// paths resolves the .aid layout from the loaded configuration
func (rt *runtime) paths() app.Paths {
	return app.ResolvePaths(rt.cfg)
}

// newGate wires the file store into a gate configured from settings
func (rt *runtime) newGate() *gate.Gate {
	st := store.NewFileStore(rt.fs, rt.paths())
	return gate.New(st, gate.Options{
		DevelopmentPhases: rt.cfg.DevelopmentPhases(),
		ReviewPolicy:      rt.cfg.ReviewPolicy(),
		OnUnknownState:    rt.cfg.OnUnknownState(),
	})
}

// NewRoot creates the root command on the OS filesystem
func NewRoot() *cobra.Command {
	return NewRootWithFs(afero.NewOsFs())
}

// NewRootWithFs creates the root command reading state from fs
func NewRootWithFs(fs afero.Fs) *cobra.Command {
	rt := &runtime{fs: fs, cfg: config.Default()}

	cmd := &cobra.Command{
		Use:          "qagate",
		Short:        "QA completion gate for .aid workflows",
		Long:         "qagate blocks an agent from stopping while the active task in the development phase has no passing QA review.",
		SilenceUsage: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			// Priority: flags > QAGATE_* env > qagate.yaml > defaults
			cfg, err := infraConfig.LoadSettings(fs, c.Flags())
			if cfg != nil {
				rt.cfg = cfg
			}

			InitGlobalLogger(rt.cfg.LogLevel(), c.ErrOrStderr())
			InitializeLoggers(GetLogger())

			if err != nil {
				// Continue with defaults if loading fails
				Warn("%v, using defaults", err)
			}
			Debug("config source=%s home=%s", rt.cfg.ConfigSource(), rt.cfg.Home())
			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}

	cmd.PersistentFlags().String("home", "", "State root directory (default \".aid\", env QAGATE_HOME)")
	cmd.PersistentFlags().String("log-level", "", "Stderr log level: debug, info, warn, error (env QAGATE_LOG_LEVEL)")

	cmd.AddCommand(newCheckCmd(rt))
	cmd.AddCommand(newExplainCmd(rt))
	cmd.AddCommand(version.NewCommand())
	return cmd
}

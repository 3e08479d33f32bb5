package config

import "path/filepath"

// Review record selection policies
const (
	// ReviewPolicyAnyPass accepts the task when any review record says PASS
	ReviewPolicyAnyPass = "any-pass"
	// ReviewPolicyLatest only considers the most recently modified review record
	ReviewPolicyLatest = "latest"
)

// Policies for state documents that exist but cannot be parsed
const (
	UnknownStateAllow = "allow"
	UnknownStateBlock = "block"
)

// Defaults used when neither a settings file, the environment nor a flag sets a value
const (
	DefaultHome         = ".aid"
	DefaultLogLevel     = "warn"
	DefaultReviewPolicy = ReviewPolicyAnyPass
	DefaultUnknownState = UnknownStateAllow
)

// DefaultDevelopmentPhases lists the phase representations that enable enforcement.
// Named forms are matched case-insensitively.
func DefaultDevelopmentPhases() []string {
	return []string{"4", "development"}
}

// Config provides read-only access to gate configuration.
// This interface abstracts the configuration source (file, ENV, flags, defaults)
// so the app and domain layers don't depend on how settings were loaded.
type Config interface {
	// Locations
	Home() string           // State root (QAGATE_HOME / --home)
	QADir() string          // Directory holding criteria, review records and markers
	EnforcementLog() string // Append-only enforcement log path

	// Logging
	LogLevel() string // Stderr log level (QAGATE_LOG_LEVEL / --log-level)

	// Gate policies
	DevelopmentPhases() []string // Phase values that enable enforcement
	ReviewPolicy() string        // any-pass or latest
	OnUnknownState() string      // allow or block

	// Metadata
	ConfigSource() string // Source of configuration: "file" or "default"
	SettingPath() string  // Path to the settings file if one was loaded
}

// AppConfig is the concrete implementation of Config interface.
type AppConfig struct {
	home           string
	qaDir          string
	enforcementLog string

	logLevel string

	developmentPhases []string
	reviewPolicy      string
	onUnknownState    string

	configSource string
	settingPath  string
}

// NewAppConfig creates a new AppConfig. Empty qaDir and enforcementLog are
// derived from home.
func NewAppConfig(
	home, qaDir, enforcementLog, logLevel string,
	developmentPhases []string,
	reviewPolicy, onUnknownState string,
	configSource, settingPath string,
) *AppConfig {
	if home == "" {
		home = DefaultHome
	}
	if qaDir == "" {
		qaDir = filepath.Join(home, "qa")
	}
	if enforcementLog == "" {
		enforcementLog = filepath.Join(qaDir, "enforcement.log")
	}
	phases := make([]string, len(developmentPhases))
	copy(phases, developmentPhases)

	return &AppConfig{
		home:              home,
		qaDir:             qaDir,
		enforcementLog:    enforcementLog,
		logLevel:          logLevel,
		developmentPhases: phases,
		reviewPolicy:      reviewPolicy,
		onUnknownState:    onUnknownState,
		configSource:      configSource,
		settingPath:       settingPath,
	}
}

// Default returns the configuration used when nothing else is available
func Default() *AppConfig {
	return NewAppConfig(
		DefaultHome, "", "", DefaultLogLevel,
		DefaultDevelopmentPhases(),
		DefaultReviewPolicy, DefaultUnknownState,
		"default", "",
	)
}

// Home returns the state root
func (c *AppConfig) Home() string {
	return c.home
}

// QADir returns the QA artifacts directory
func (c *AppConfig) QADir() string {
	return c.qaDir
}

// EnforcementLog returns the enforcement log path
func (c *AppConfig) EnforcementLog() string {
	return c.enforcementLog
}

// LogLevel returns the stderr log level
func (c *AppConfig) LogLevel() string {
	return c.logLevel
}

// DevelopmentPhases returns a copy of the accepted development phase values
func (c *AppConfig) DevelopmentPhases() []string {
	out := make([]string, len(c.developmentPhases))
	copy(out, c.developmentPhases)
	return out
}

// ReviewPolicy returns the review record selection policy
func (c *AppConfig) ReviewPolicy() string {
	return c.reviewPolicy
}

// OnUnknownState returns the policy for malformed state documents
func (c *AppConfig) OnUnknownState() string {
	return c.onUnknownState
}

// ConfigSource returns where the configuration came from
func (c *AppConfig) ConfigSource() string {
	return c.configSource
}

// SettingPath returns the loaded settings file path, if any
func (c *AppConfig) SettingPath() string {
	return c.settingPath
}

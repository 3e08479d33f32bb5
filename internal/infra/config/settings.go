package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/YoshitsuguKoike/qagate/internal/app"
	"github.com/YoshitsuguKoike/qagate/internal/app/config"
)

// EnvPrefix is the prefix for environment overrides (QAGATE_HOME, QAGATE_LOG_LEVEL, ...)
const EnvPrefix = "QAGATE"

// settingFiles are looked up inside the home directory, first match wins
var settingFiles = []string{"qagate.yaml", "qagate.yml", "qagate.json"}

// Settings represents the structure of the qagate settings file.
// mapstructure tags are shared by the file, the environment and bound flags.
type Settings struct {
	Home           string `mapstructure:"home"`
	QADir          string `mapstructure:"qa_dir"`
	EnforcementLog string `mapstructure:"enforcement_log"`
	LogLevel       string `mapstructure:"log_level"`

	DevelopmentPhases []string `mapstructure:"development_phases"`
	ReviewPolicy      string   `mapstructure:"review_policy"`
	OnUnknownState    string   `mapstructure:"on_unknown_state"`
}

// flagKeys maps setting keys to the CLI flags that can override them
var flagKeys = map[string]string{
	"home":      "home",
	"log_level": "log-level",
}

// LoadSettings loads configuration.
// Priority: flags > QAGATE_* env > <home>/qagate.{yaml,yml,json} > defaults
//
// The home directory itself is resolved from flags, env and defaults only,
// since it decides where the settings file lives. When the settings file
// cannot be used, the returned error comes with a default configuration
// rooted at that home so callers can continue.
func LoadSettings(fs afero.Fs, flags *pflag.FlagSet) (*config.AppConfig, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	applyDefaults(v)

	if flags != nil {
		for key, name := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	configSource := "default"
	settingPath := ""

	home := v.GetString("home")
	for _, name := range settingFiles {
		path := filepath.Join(home, name)
		if ok, _ := afero.Exists(fs, path); !ok {
			continue
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return defaultsAt(home), fmt.Errorf("failed to parse %s: %w", path, err)
		}
		configSource = "file"
		settingPath = path
		break
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return defaultsAt(home), fmt.Errorf("failed to decode settings: %w", err)
	}
	// The settings file may not relocate the directory it was read from
	settings.Home = home

	for _, warning := range normalize(&settings) {
		app.GetLogger().Warn("%s", warning)
	}

	return buildAppConfig(&settings, configSource, settingPath), nil
}

func defaultsAt(home string) *config.AppConfig {
	return config.NewAppConfig(
		home, "", "", config.DefaultLogLevel,
		config.DefaultDevelopmentPhases(),
		config.DefaultReviewPolicy, config.DefaultUnknownState,
		"default", "",
	)
}

// applyDefaults registers a default for every key so env overrides are visible to Unmarshal
func applyDefaults(v *viper.Viper) {
	v.SetDefault("home", config.DefaultHome)
	v.SetDefault("qa_dir", "")
	v.SetDefault("enforcement_log", "")
	v.SetDefault("log_level", config.DefaultLogLevel)
	v.SetDefault("development_phases", config.DefaultDevelopmentPhases())
	v.SetDefault("review_policy", config.DefaultReviewPolicy)
	v.SetDefault("on_unknown_state", config.DefaultUnknownState)
}

// normalize replaces unsupported values with defaults and reports what it changed
func normalize(s *Settings) []string {
	var warnings []string

	s.ReviewPolicy = strings.ToLower(strings.TrimSpace(s.ReviewPolicy))
	switch s.ReviewPolicy {
	case config.ReviewPolicyAnyPass, config.ReviewPolicyLatest:
	default:
		warnings = append(warnings, fmt.Sprintf("unknown review_policy %q, using %q", s.ReviewPolicy, config.DefaultReviewPolicy))
		s.ReviewPolicy = config.DefaultReviewPolicy
	}

	s.OnUnknownState = strings.ToLower(strings.TrimSpace(s.OnUnknownState))
	switch s.OnUnknownState {
	case config.UnknownStateAllow, config.UnknownStateBlock:
	default:
		warnings = append(warnings, fmt.Sprintf("unknown on_unknown_state %q, using %q", s.OnUnknownState, config.DefaultUnknownState))
		s.OnUnknownState = config.DefaultUnknownState
	}

	phases := s.DevelopmentPhases[:0]
	for _, p := range s.DevelopmentPhases {
		if p = strings.TrimSpace(p); p != "" {
			phases = append(phases, p)
		}
	}
	if len(phases) == 0 {
		warnings = append(warnings, "development_phases is empty, using defaults")
		phases = config.DefaultDevelopmentPhases()
	}
	s.DevelopmentPhases = phases

	if s.LogLevel == "" {
		s.LogLevel = config.DefaultLogLevel
	}

	return warnings
}

// buildAppConfig converts Settings to AppConfig
func buildAppConfig(s *Settings, configSource, settingPath string) *config.AppConfig {
	return config.NewAppConfig(
		s.Home,
		s.QADir,
		s.EnforcementLog,
		s.LogLevel,
		s.DevelopmentPhases,
		s.ReviewPolicy,
		s.OnUnknownState,
		configSource,
		settingPath,
	)
}

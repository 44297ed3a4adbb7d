package submodule

import "strings"

// CommandConfiguration captures persisted configuration for submodule relocation.
type CommandConfiguration struct {
	EnableDebugLogging   bool   `mapstructure:"debug"`
	DryRun               bool   `mapstructure:"dry_run"`
	GitDirOverride       string `mapstructure:"git_dir"`
	RequireCleanWorktree bool   `mapstructure:"require_clean"`
	AssumeYes            bool   `mapstructure:"assume_yes"`
}

// DefaultCommandConfiguration returns baseline configuration values for relocation.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		EnableDebugLogging:   false,
		DryRun:               false,
		GitDirOverride:       "",
		RequireCleanWorktree: false,
		AssumeYes:            false,
	}
}

// Sanitize trims configured values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.GitDirOverride = strings.TrimSpace(configuration.GitDirOverride)
	return sanitized
}

// DefaultConfigurationValues exposes relocation defaults keyed under the provided prefix.
func DefaultConfigurationValues(configurationPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationPrefix + ".debug":         defaults.EnableDebugLogging,
		configurationPrefix + ".dry_run":       defaults.DryRun,
		configurationPrefix + ".git_dir":       defaults.GitDirOverride,
		configurationPrefix + ".require_clean": defaults.RequireCleanWorktree,
		configurationPrefix + ".assume_yes":    defaults.AssumeYes,
	}
}

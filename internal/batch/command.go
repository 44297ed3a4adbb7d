package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/smv/internal/execshell"
	"github.com/temirov/smv/internal/gitrepo"
	"github.com/temirov/smv/internal/submodule"
	"github.com/temirov/smv/internal/utils"
)

const (
	commandUseConstant              = "batch"
	commandShortDescriptionConstant = "Relocate several submodules from a manifest"
	commandLongDescriptionConstant  = "batch reads an ordered list of source/destination pairs from a YAML manifest and relocates each submodule in turn, staging every successful move."

	manifestFlagNameConstant      = "manifest"
	manifestFlagUsageConstant     = "Path to the YAML relocation manifest"
	verboseFlagNameConstant       = "verbose"
	verboseFlagShorthandConstant  = "v"
	verboseFlagUsageConstant      = "Enable verbose debug logging"
	dryRunFlagNameConstant        = "dry-run"
	dryRunFlagUsageConstant       = "Print the planned actions without mutating anything"
	requireCleanFlagNameConstant  = "require-clean"
	requireCleanFlagUsageConstant = "Refuse to run when the worktree has uncommitted changes"

	repositoryManagerCreationErrorTemplateConstant = "unable to construct repository manager: %w"
	relocationServiceCreationErrorTemplateConstant = "unable to construct relocation service: %w"
	moveFailureTemplateConstant                    = "move %s to %s failed: %w"
	moveFailureLogMessageConstant                  = "Submodule relocation failed"
	batchCompletedMessageConstant                  = "Batch relocation completed"
	sourceFieldNameConstant                        = "source"
	destinationFieldNameConstant                   = "destination"
	completedMovesFieldNameConstant                = "completed_moves"
	failedMovesFieldNameConstant                   = "failed_moves"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandConfiguration captures persisted configuration for batch relocation.
type CommandConfiguration struct {
	EnableDebugLogging   bool   `mapstructure:"debug"`
	ManifestPath         string `mapstructure:"manifest"`
	DryRun               bool   `mapstructure:"dry_run"`
	RequireCleanWorktree bool   `mapstructure:"require_clean"`
}

// DefaultCommandConfiguration returns baseline configuration values for batch relocation.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{}
}

// Sanitize trims configured values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.ManifestPath = strings.TrimSpace(configuration.ManifestPath)
	return sanitized
}

// DefaultConfigurationValues exposes batch defaults keyed under the provided prefix.
func DefaultConfigurationValues(configurationPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationPrefix + ".debug":         defaults.EnableDebugLogging,
		configurationPrefix + ".manifest":      defaults.ManifestPath,
		configurationPrefix + ".dry_run":       defaults.DryRun,
		configurationPrefix + ".require_clean": defaults.RequireCleanWorktree,
	}
}

type commandOptions struct {
	manifestPath         string
	dryRun               bool
	requireCleanWorktree bool
	debugLoggingEnabled  bool
}

// CommandBuilder assembles the batch Cobra command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	Executor                     gitrepo.CommandExecutor
	WorkingDirectory             string
	FileSystem                   submodule.FileSystem
	GitManager                   submodule.GitManager
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the batch command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runBatch,
	}

	command.Flags().String(manifestFlagNameConstant, "", manifestFlagUsageConstant)
	command.Flags().BoolP(verboseFlagNameConstant, verboseFlagShorthandConstant, false, verboseFlagUsageConstant)
	command.Flags().Bool(dryRunFlagNameConstant, false, dryRunFlagUsageConstant)
	command.Flags().Bool(requireCleanFlagNameConstant, false, requireCleanFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runBatch(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger(options.debugLoggingEnabled)

	fileSystem := builder.resolveFileSystem()
	manifest, manifestError := LoadManifest(fileSystem, options.manifestPath)
	if manifestError != nil {
		return manifestError
	}

	gitManager, gitManagerError := builder.resolveGitManager(logger)
	if gitManagerError != nil {
		return gitManagerError
	}

	service, serviceError := submodule.NewService(submodule.ServiceDependencies{
		Logger:     logger,
		FileSystem: fileSystem,
		GitManager: gitManager,
		Output:     utils.NewFlushingWriter(command.OutOrStdout()),
	})
	if serviceError != nil {
		return fmt.Errorf(relocationServiceCreationErrorTemplateConstant, serviceError)
	}

	var moveErrors []error
	completedMoves := 0

	for _, configuredMove := range manifest.Moves {
		relocationOptions := submodule.RelocationOptions{
			WorkingDirectory:     builder.resolveWorkingDirectory(),
			Source:               configuredMove.Source,
			Destination:          configuredMove.Destination,
			DryRun:               options.dryRun,
			RequireCleanWorktree: options.requireCleanWorktree,
			AssumeYes:            true,
		}

		_, relocationError := service.Relocate(command.Context(), relocationOptions)
		if relocationError != nil {
			if errors.Is(relocationError, context.Canceled) || errors.Is(relocationError, context.DeadlineExceeded) {
				return relocationError
			}
			failure := fmt.Errorf(moveFailureTemplateConstant, configuredMove.Source, configuredMove.Destination, relocationError)
			logger.Warn(
				moveFailureLogMessageConstant,
				zap.String(sourceFieldNameConstant, configuredMove.Source),
				zap.String(destinationFieldNameConstant, configuredMove.Destination),
				zap.Error(relocationError),
			)
			moveErrors = append(moveErrors, failure)
			continue
		}
		completedMoves++
	}

	logger.Info(
		batchCompletedMessageConstant,
		zap.Int(completedMovesFieldNameConstant, completedMoves),
		zap.Int(failedMovesFieldNameConstant, len(moveErrors)),
	)

	if len(moveErrors) > 0 {
		return errors.Join(moveErrors...)
	}
	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (commandOptions, error) {
	configuration := builder.resolveConfiguration()

	options := commandOptions{
		manifestPath:         configuration.ManifestPath,
		dryRun:               configuration.DryRun,
		requireCleanWorktree: configuration.RequireCleanWorktree,
		debugLoggingEnabled:  configuration.EnableDebugLogging,
	}

	if command != nil {
		contextAccessor := utils.NewCommandContextAccessor()
		if logLevel, available := contextAccessor.LogLevel(command.Context()); available {
			if strings.EqualFold(logLevel, string(utils.LogLevelDebug)) {
				options.debugLoggingEnabled = true
			}
		}
		if command.Flags().Changed(manifestFlagNameConstant) {
			flagValue, _ := command.Flags().GetString(manifestFlagNameConstant)
			options.manifestPath = strings.TrimSpace(flagValue)
		}
		if command.Flags().Changed(verboseFlagNameConstant) {
			flagValue, _ := command.Flags().GetBool(verboseFlagNameConstant)
			options.debugLoggingEnabled = options.debugLoggingEnabled || flagValue
		}
		if command.Flags().Changed(dryRunFlagNameConstant) {
			flagValue, _ := command.Flags().GetBool(dryRunFlagNameConstant)
			options.dryRun = flagValue
		}
		if command.Flags().Changed(requireCleanFlagNameConstant) {
			flagValue, _ := command.Flags().GetBool(requireCleanFlagNameConstant)
			options.requireCleanWorktree = flagValue
		}
	}

	return options, nil
}

func (builder *CommandBuilder) resolveLogger(enableDebug bool) *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if enableDebug {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.DebugLevel))
	}
	return logger
}

func (builder *CommandBuilder) resolveGitManager(logger *zap.Logger) (submodule.GitManager, error) {
	if builder.GitManager != nil {
		return builder.GitManager, nil
	}

	executor := builder.Executor
	if executor == nil {
		humanReadableLogging := false
		if builder.HumanReadableLoggingProvider != nil {
			humanReadableLogging = builder.HumanReadableLoggingProvider()
		}
		shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), humanReadableLogging)
		if creationError != nil {
			return nil, creationError
		}
		executor = shellExecutor
	}

	repositoryManager, managerError := gitrepo.NewRepositoryManager(executor)
	if managerError != nil {
		return nil, fmt.Errorf(repositoryManagerCreationErrorTemplateConstant, managerError)
	}
	return repositoryManager, nil
}

func (builder *CommandBuilder) resolveFileSystem() submodule.FileSystem {
	if builder.FileSystem != nil {
		return builder.FileSystem
	}
	return submodule.OSFileSystem{}
}

func (builder *CommandBuilder) resolveWorkingDirectory() string {
	if len(strings.TrimSpace(builder.WorkingDirectory)) > 0 {
		return builder.WorkingDirectory
	}
	return "."
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}

	provided := builder.ConfigurationProvider()
	return provided.Sanitize()
}

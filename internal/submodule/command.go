package submodule

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/smv/internal/execshell"
	"github.com/temirov/smv/internal/gitrepo"
	"github.com/temirov/smv/internal/ui"
	"github.com/temirov/smv/internal/utils"
)

const (
	commandUseConstant              = "move SOURCE DESTINATION"
	commandShortDescriptionConstant = "Relocate a submodule inside its parent repository"
	commandLongDescriptionConstant  = "move rewrites the submodule registry, repoints the internal storage and gitdir links, relocates the storage and worktree directories, and stages the result, leaving the commit to the operator."

	verboseFlagNameConstant       = "verbose"
	verboseFlagShorthandConstant  = "v"
	verboseFlagUsageConstant      = "Enable verbose debug logging"
	dryRunFlagNameConstant        = "dry-run"
	dryRunFlagUsageConstant       = "Print the planned actions without mutating anything"
	gitDirFlagNameConstant        = "git-dir"
	gitDirFlagUsageConstant       = "Override the internal storage directory location"
	requireCleanFlagNameConstant  = "require-clean"
	requireCleanFlagUsageConstant = "Refuse to run when the worktree has uncommitted changes"
	assumeYesFlagNameConstant     = "yes"
	assumeYesFlagUsageConstant    = "Skip the confirmation prompt"

	repositoryManagerCreationErrorTemplateConstant = "unable to construct repository manager: %w"
	relocationServiceCreationErrorTemplateConstant = "unable to construct relocation service: %w"
	relocationCompletedMessageConstant             = "Relocation staged"
	relocationPreviewedMessageConstant             = "Relocation previewed"
	relocationSkippedMessageConstant               = "Relocation skipped"
	actionCountFieldNameConstant                   = "actions"

	requiredArgumentCountConstant = 2
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

type commandOptions struct {
	relocation          RelocationOptions
	debugLoggingEnabled bool
}

// CommandBuilder assembles the move Cobra command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	Executor                     gitrepo.CommandExecutor
	WorkingDirectory             string
	FileSystem                   FileSystem
	GitManager                   GitManager
	Prompter                     ConfirmationPrompter
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the move command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE:          builder.runMove,
	}

	command.Flags().BoolP(verboseFlagNameConstant, verboseFlagShorthandConstant, false, verboseFlagUsageConstant)
	command.Flags().Bool(dryRunFlagNameConstant, false, dryRunFlagUsageConstant)
	command.Flags().String(gitDirFlagNameConstant, "", gitDirFlagUsageConstant)
	command.Flags().Bool(requireCleanFlagNameConstant, false, requireCleanFlagUsageConstant)
	command.Flags().Bool(assumeYesFlagNameConstant, false, assumeYesFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runMove(command *cobra.Command, arguments []string) error {
	if len(arguments) < requiredArgumentCountConstant {
		return command.Help()
	}

	options, optionsError := builder.parseOptions(command, arguments)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger(options.debugLoggingEnabled)

	gitManager, gitManagerError := builder.resolveGitManager(logger)
	if gitManagerError != nil {
		return gitManagerError
	}

	options.relocation.WorkingDirectory = builder.resolveRepositoryRoot(command.Context(), gitManager, options.relocation.WorkingDirectory)

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	service, serviceError := NewService(ServiceDependencies{
		Logger:     logger,
		FileSystem: builder.resolveFileSystem(),
		GitManager: gitManager,
		Prompter:   builder.resolvePrompter(command),
		Output:     outputWriter,
	})
	if serviceError != nil {
		return fmt.Errorf(relocationServiceCreationErrorTemplateConstant, serviceError)
	}

	result, relocationError := service.Relocate(command.Context(), options.relocation)
	if relocationError != nil {
		return relocationError
	}

	builder.logSummary(logger, result)
	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, arguments []string) (commandOptions, error) {
	configuration := builder.resolveConfiguration()

	debugEnabled := configuration.EnableDebugLogging
	if command != nil {
		contextAccessor := utils.NewCommandContextAccessor()
		if logLevel, available := contextAccessor.LogLevel(command.Context()); available {
			if strings.EqualFold(logLevel, string(utils.LogLevelDebug)) {
				debugEnabled = true
			}
		}
		if command.Flags().Changed(verboseFlagNameConstant) {
			flagValue, _ := command.Flags().GetBool(verboseFlagNameConstant)
			debugEnabled = debugEnabled || flagValue
		}
	}

	relocationOptions := RelocationOptions{
		WorkingDirectory:     builder.resolveWorkingDirectory(),
		Source:               arguments[0],
		Destination:          arguments[1],
		DryRun:               configuration.DryRun,
		GitDirOverride:       configuration.GitDirOverride,
		RequireCleanWorktree: configuration.RequireCleanWorktree,
		AssumeYes:            configuration.AssumeYes,
	}

	if command != nil {
		if command.Flags().Changed(dryRunFlagNameConstant) {
			flagValue, _ := command.Flags().GetBool(dryRunFlagNameConstant)
			relocationOptions.DryRun = flagValue
		}
		if command.Flags().Changed(gitDirFlagNameConstant) {
			flagValue, _ := command.Flags().GetString(gitDirFlagNameConstant)
			relocationOptions.GitDirOverride = strings.TrimSpace(flagValue)
		}
		if command.Flags().Changed(requireCleanFlagNameConstant) {
			flagValue, _ := command.Flags().GetBool(requireCleanFlagNameConstant)
			relocationOptions.RequireCleanWorktree = flagValue
		}
		if command.Flags().Changed(assumeYesFlagNameConstant) {
			flagValue, _ := command.Flags().GetBool(assumeYesFlagNameConstant)
			relocationOptions.AssumeYes = flagValue
		}
	}

	return commandOptions{relocation: relocationOptions, debugLoggingEnabled: debugEnabled}, nil
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

func (builder *CommandBuilder) resolveGitManager(logger *zap.Logger) (GitManager, error) {
	if builder.GitManager != nil {
		return builder.GitManager, nil
	}

	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return nil, executorError
	}

	repositoryManager, managerError := gitrepo.NewRepositoryManager(executor)
	if managerError != nil {
		return nil, fmt.Errorf(repositoryManagerCreationErrorTemplateConstant, managerError)
	}
	return repositoryManager, nil
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (gitrepo.CommandExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}
	shellExecutor, creationError := execshell.NewShellExecutor(logger, commandRunner, humanReadableLogging)
	if creationError != nil {
		return nil, creationError
	}
	if humanReadableLogging {
		shellExecutor.SetCommandEventObserver(ui.NewConsoleCommandEventLogger(logger))
	}
	return shellExecutor, nil
}

func (builder *CommandBuilder) resolveFileSystem() FileSystem {
	if builder.FileSystem != nil {
		return builder.FileSystem
	}
	return OSFileSystem{}
}

func (builder *CommandBuilder) resolvePrompter(command *cobra.Command) ConfirmationPrompter {
	if builder.Prompter != nil {
		return builder.Prompter
	}
	return NewIOConfirmationPrompter(command.InOrStdin(), utils.NewFlushingWriter(command.OutOrStdout()))
}

// repositoryRootLocator is satisfied by git managers able to locate the
// repository top level containing a path.
type repositoryRootLocator interface {
	IsInsideWorkTree(executionContext context.Context, repositoryPath string) (bool, error)
	TopLevelDirectory(executionContext context.Context, repositoryPath string) (string, error)
}

// resolveRepositoryRoot swaps the configured working directory for the
// repository top level when the git manager can locate one, so request paths
// stay root-relative even when the process starts in a subdirectory.
func (builder *CommandBuilder) resolveRepositoryRoot(executionContext context.Context, gitManager GitManager, workingDirectory string) string {
	rootLocator, locatorAvailable := gitManager.(repositoryRootLocator)
	if !locatorAvailable {
		return workingDirectory
	}
	insideWorkTree, insideError := rootLocator.IsInsideWorkTree(executionContext, workingDirectory)
	if insideError != nil || !insideWorkTree {
		return workingDirectory
	}
	topLevelDirectory, topLevelError := rootLocator.TopLevelDirectory(executionContext, workingDirectory)
	if topLevelError != nil || len(strings.TrimSpace(topLevelDirectory)) == 0 {
		return workingDirectory
	}
	return topLevelDirectory
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

func (builder *CommandBuilder) logSummary(logger *zap.Logger, result RelocationResult) {
	if logger == nil {
		return
	}

	summaryMessage := relocationCompletedMessageConstant
	switch {
	case result.Skipped:
		summaryMessage = relocationSkippedMessageConstant
	case result.DryRun:
		summaryMessage = relocationPreviewedMessageConstant
	}

	logger.Info(
		summaryMessage,
		zap.String(sourceFieldNameConstant, result.SourcePath),
		zap.String(newPathFieldNameConstant, result.NewPath),
		zap.String(urlKindFieldNameConstant, string(result.URLKind)),
		zap.Int(actionCountFieldNameConstant, result.ActionCount),
	)
}

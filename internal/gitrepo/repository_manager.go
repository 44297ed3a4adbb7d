package gitrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/temirov/smv/internal/execshell"
)

const (
	executorNotConfiguredMessageConstant = "git executor not configured"
	gitStatusSubcommandConstant          = "status"
	gitStatusPorcelainFlagConstant       = "--porcelain"
	gitAddSubcommandConstant             = "add"
	gitRemoveSubcommandConstant          = "rm"
	gitCachedFlagConstant                = "--cached"
	gitRecursiveFlagConstant             = "-r"
	gitQuietFlagConstant                 = "--quiet"
	gitIgnoreUnmatchFlagConstant         = "--ignore-unmatch"
	gitPathspecSeparatorConstant         = "--"
	gitRevParseSubcommandConstant        = "rev-parse"
	gitTopLevelFlagConstant              = "--show-toplevel"
	gitWorkTreeFlagConstant              = "--is-inside-work-tree"
	gitTrueOutputConstant                = "true"
)

// ErrExecutorNotConfigured reports a RepositoryManager constructed without an executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// CommandExecutor exposes the subset of shell execution used by repository operations.
type CommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager performs git operations required by the submodule relocator.
type RepositoryManager struct {
	executor CommandExecutor
}

// NewRepositoryManager constructs a RepositoryManager backed by the provided executor.
func NewRepositoryManager(executor CommandExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// CheckCleanWorktree reports whether the repository has no pending changes.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitStatusSubcommandConstant, gitStatusPorcelainFlagConstant},
		WorkingDirectory: repositoryPath,
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return false, executionError
	}

	return len(strings.TrimSpace(executionResult.StandardOutput)) == 0, nil
}

// IsInsideWorkTree reports whether the provided path belongs to a git working tree.
func (manager *RepositoryManager) IsInsideWorkTree(executionContext context.Context, repositoryPath string) (bool, error) {
	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitWorkTreeFlagConstant},
		WorkingDirectory: repositoryPath,
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return false, executionError
	}

	return strings.TrimSpace(executionResult.StandardOutput) == gitTrueOutputConstant, nil
}

// TopLevelDirectory resolves the repository root containing the provided path.
func (manager *RepositoryManager) TopLevelDirectory(executionContext context.Context, repositoryPath string) (string, error) {
	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitTopLevelFlagConstant},
		WorkingDirectory: repositoryPath,
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return "", executionError
	}

	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// RemoveCachedPath removes the provided path from the index without touching the filesystem.
func (manager *RepositoryManager) RemoveCachedPath(executionContext context.Context, repositoryPath string, targetPath string) error {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			gitRemoveSubcommandConstant,
			gitCachedFlagConstant,
			gitRecursiveFlagConstant,
			gitQuietFlagConstant,
			gitIgnoreUnmatchFlagConstant,
			gitPathspecSeparatorConstant,
			targetPath,
		},
		WorkingDirectory: repositoryPath,
	}

	_, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	return executionError
}

// StagePaths adds the provided paths to the index.
func (manager *RepositoryManager) StagePaths(executionContext context.Context, repositoryPath string, targetPaths ...string) error {
	commandArguments := []string{gitAddSubcommandConstant, gitPathspecSeparatorConstant}
	commandArguments = append(commandArguments, targetPaths...)

	commandDetails := execshell.CommandDetails{
		Arguments:        commandArguments,
		WorkingDirectory: repositoryPath,
	}

	_, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	return executionError
}

// WorktreeStatus returns the human-readable status output for the repository.
func (manager *RepositoryManager) WorktreeStatus(executionContext context.Context, repositoryPath string) (string, error) {
	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitStatusSubcommandConstant},
		WorkingDirectory: repositoryPath,
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return "", executionError
	}

	return executionResult.StandardOutput, nil
}

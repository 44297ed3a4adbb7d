package submodule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	interpreterFileSystemMissingMessageConstant = "plan interpreter requires a file system"
	interpreterGitManagerMissingMessageConstant = "plan interpreter requires a git manager"
	unknownActionKindTemplateConstant           = "unknown action kind %q"
	dryRunLineTemplateConstant                  = "DRY-RUN: %s\n"
	actionFieldNameConstant                     = "action"
	targetFieldNameConstant                     = "target"

	registryFilePermissionsConstant fs.FileMode = 0o644
	pointerFilePermissionsConstant  fs.FileMode = 0o644
	storageDirectoryPermissions     fs.FileMode = 0o755
)

// PlanInterpreterDependencies collects collaborators for a PlanInterpreter.
type PlanInterpreterDependencies struct {
	FileSystem FileSystem
	GitManager GitManager
	Logger     *zap.Logger
	Output     io.Writer
}

// PlanInterpreter applies relocation plans or previews them in dry-run mode.
type PlanInterpreter struct {
	fileSystem FileSystem
	gitManager GitManager
	logger     *zap.Logger
	output     io.Writer
}

// NewPlanInterpreter validates dependencies and constructs a PlanInterpreter.
func NewPlanInterpreter(dependencies PlanInterpreterDependencies) (*PlanInterpreter, error) {
	if dependencies.FileSystem == nil {
		return nil, errors.New(interpreterFileSystemMissingMessageConstant)
	}
	if dependencies.GitManager == nil {
		return nil, errors.New(interpreterGitManagerMissingMessageConstant)
	}
	interpreterLogger := dependencies.Logger
	if interpreterLogger == nil {
		interpreterLogger = zap.NewNop()
	}
	interpreterOutput := dependencies.Output
	if interpreterOutput == nil {
		interpreterOutput = io.Discard
	}
	return &PlanInterpreter{
		fileSystem: dependencies.FileSystem,
		gitManager: dependencies.GitManager,
		logger:     interpreterLogger,
		output:     interpreterOutput,
	}, nil
}

// Apply executes every action in plan order. When dryRun is set the actions
// are printed instead of executed and the filesystem stays untouched.
func (interpreter *PlanInterpreter) Apply(executionContext context.Context, relocationPlan RelocationPlan, dryRun bool) error {
	for _, plannedAction := range relocationPlan.Actions {
		if dryRun {
			fmt.Fprintf(interpreter.output, dryRunLineTemplateConstant, plannedAction.Description)
			continue
		}
		if actionError := interpreter.applyAction(executionContext, relocationPlan, plannedAction); actionError != nil {
			return fmt.Errorf("%s: %w", plannedAction.Description, actionError)
		}
		interpreter.logger.Debug(
			plannedAction.Description,
			zap.String(actionFieldNameConstant, string(plannedAction.Kind)),
			zap.String(targetFieldNameConstant, plannedAction.TargetFile),
		)
	}
	return nil
}

func (interpreter *PlanInterpreter) applyAction(executionContext context.Context, relocationPlan RelocationPlan, plannedAction Action) error {
	switch plannedAction.Kind {
	case ActionKindRewriteRegistry:
		return interpreter.rewriteRegistry(plannedAction)
	case ActionKindRewriteWorktreePointer:
		return interpreter.rewriteWorktreePointer(plannedAction)
	case ActionKindRewriteLinkFile:
		return interpreter.fileSystem.WriteFile(plannedAction.TargetFile, FormatGitdirPointer(plannedAction.PointerValue), pointerFilePermissionsConstant)
	case ActionKindMoveDirectory:
		return interpreter.moveDirectory(plannedAction)
	case ActionKindUnstagePath:
		return interpreter.gitManager.RemoveCachedPath(executionContext, relocationPlan.Root, plannedAction.SourcePath)
	case ActionKindStagePaths:
		return interpreter.gitManager.StagePaths(executionContext, relocationPlan.Root, plannedAction.StagePaths...)
	default:
		return fmt.Errorf(unknownActionKindTemplateConstant, plannedAction.Kind)
	}
}

func (interpreter *PlanInterpreter) rewriteRegistry(plannedAction Action) error {
	registryContent, readError := interpreter.fileSystem.ReadFile(plannedAction.TargetFile)
	if readError != nil {
		return readError
	}
	registry, parseError := ParseRegistry(registryContent)
	if parseError != nil {
		return parseError
	}
	if renameError := registry.Rename(plannedAction.RegistryUpdate); renameError != nil {
		return renameError
	}
	serializedContent, serializeError := registry.Serialize()
	if serializeError != nil {
		return serializeError
	}
	return interpreter.fileSystem.WriteFile(plannedAction.TargetFile, serializedContent, registryFilePermissionsConstant)
}

func (interpreter *PlanInterpreter) rewriteWorktreePointer(plannedAction Action) error {
	storageContent, readError := interpreter.fileSystem.ReadFile(plannedAction.TargetFile)
	if readError != nil {
		return readError
	}
	updatedContent, rewriteError := RewriteWorktreePointer(storageContent, plannedAction.PointerValue)
	if rewriteError != nil {
		return rewriteError
	}
	return interpreter.fileSystem.WriteFile(plannedAction.TargetFile, updatedContent, pointerFilePermissionsConstant)
}

func (interpreter *PlanInterpreter) moveDirectory(plannedAction Action) error {
	if plannedAction.EnsureParent {
		if mkdirError := interpreter.fileSystem.MkdirAll(filepath.Dir(plannedAction.DestinationPath), storageDirectoryPermissions); mkdirError != nil {
			return mkdirError
		}
	}
	return interpreter.fileSystem.Rename(plannedAction.SourcePath, plannedAction.DestinationPath)
}

package submodule

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

const (
	serviceFileSystemMissingMessageConstant = "relocation service requires a file system"
	serviceGitManagerMissingMessageConstant = "relocation service requires a git manager"
	worktreeDirtyMessageConstant            = "worktree has uncommitted changes; commit or stash them first"
	confirmationPromptTemplateConstant      = "Relocate submodule %q to %q? [y/N] "
	relocationDeclinedTemplateConstant      = "SKIP: relocation of %q declined\n"
	commitReminderMessageConstant           = "Review the staged changes above and commit the relocation when satisfied.\n"

	sourceFieldNameConstant      = "source"
	destinationFieldNameConstant = "destination"
	newPathFieldNameConstant     = "new_path"
	urlKindFieldNameConstant     = "url_kind"
)

// ErrWorktreeDirty reports pending repository changes blocking a relocation.
var ErrWorktreeDirty = errors.New(worktreeDirtyMessageConstant)

// ServiceDependencies collects collaborators for the relocation service.
type ServiceDependencies struct {
	Logger     *zap.Logger
	FileSystem FileSystem
	GitManager GitManager
	Prompter   ConfirmationPrompter
	Output     io.Writer
}

// RelocationResult summarizes a completed relocation.
type RelocationResult struct {
	SourcePath  string
	NewPath     string
	URLKind     URLKind
	ActionCount int
	DryRun      bool
	Skipped     bool
}

// Service orchestrates submodule relocations end to end.
type Service struct {
	logger      *zap.Logger
	fileSystem  FileSystem
	gitManager  GitManager
	prompter    ConfirmationPrompter
	output      io.Writer
	planner     *Planner
	interpreter *PlanInterpreter
}

// NewService validates dependencies and constructs a relocation Service.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.FileSystem == nil {
		return nil, errors.New(serviceFileSystemMissingMessageConstant)
	}
	if dependencies.GitManager == nil {
		return nil, errors.New(serviceGitManagerMissingMessageConstant)
	}
	serviceLogger := dependencies.Logger
	if serviceLogger == nil {
		serviceLogger = zap.NewNop()
	}
	serviceOutput := dependencies.Output
	if serviceOutput == nil {
		serviceOutput = io.Discard
	}

	planner, plannerError := NewPlanner(dependencies.FileSystem)
	if plannerError != nil {
		return nil, plannerError
	}
	interpreter, interpreterError := NewPlanInterpreter(PlanInterpreterDependencies{
		FileSystem: dependencies.FileSystem,
		GitManager: dependencies.GitManager,
		Logger:     serviceLogger,
		Output:     serviceOutput,
	})
	if interpreterError != nil {
		return nil, interpreterError
	}

	return &Service{
		logger:      serviceLogger,
		fileSystem:  dependencies.FileSystem,
		gitManager:  dependencies.GitManager,
		prompter:    dependencies.Prompter,
		output:      serviceOutput,
		planner:     planner,
		interpreter: interpreter,
	}, nil
}

// Relocate validates the request, derives the action plan, optionally asks
// for confirmation, applies the plan, and reports the staged outcome.
func (service *Service) Relocate(executionContext context.Context, options RelocationOptions) (RelocationResult, error) {
	if options.RequireCleanWorktree && !options.DryRun {
		worktreeClean, cleanCheckError := service.gitManager.CheckCleanWorktree(executionContext, options.WorkingDirectory)
		if cleanCheckError != nil {
			return RelocationResult{}, cleanCheckError
		}
		if !worktreeClean {
			return RelocationResult{}, ErrWorktreeDirty
		}
	}

	relocationPlan, planError := service.planner.Plan(options)
	if planError != nil {
		return RelocationResult{}, planError
	}

	service.logger.Debug(
		"derived relocation plan",
		zap.String(sourceFieldNameConstant, relocationPlan.SourcePath),
		zap.String(destinationFieldNameConstant, options.Destination),
		zap.String(newPathFieldNameConstant, relocationPlan.NewPath),
		zap.String(urlKindFieldNameConstant, string(relocationPlan.URLKind)),
	)

	if !options.DryRun && !options.AssumeYes && service.prompter != nil {
		confirmationPrompt := fmt.Sprintf(confirmationPromptTemplateConstant, relocationPlan.SourcePath, relocationPlan.NewPath)
		confirmed, confirmationError := service.prompter.Confirm(confirmationPrompt)
		if confirmationError != nil {
			return RelocationResult{}, confirmationError
		}
		if !confirmed {
			fmt.Fprintf(service.output, relocationDeclinedTemplateConstant, relocationPlan.SourcePath)
			return RelocationResult{
				SourcePath: relocationPlan.SourcePath,
				NewPath:    relocationPlan.NewPath,
				URLKind:    relocationPlan.URLKind,
				Skipped:    true,
			}, nil
		}
	}

	if applyError := service.interpreter.Apply(executionContext, relocationPlan, options.DryRun); applyError != nil {
		return RelocationResult{}, applyError
	}

	if !options.DryRun {
		statusOutput, statusError := service.gitManager.WorktreeStatus(executionContext, relocationPlan.Root)
		if statusError != nil {
			return RelocationResult{}, statusError
		}
		fmt.Fprint(service.output, statusOutput)
		fmt.Fprint(service.output, commitReminderMessageConstant)
	}

	return RelocationResult{
		SourcePath:  relocationPlan.SourcePath,
		NewPath:     relocationPlan.NewPath,
		URLKind:     relocationPlan.URLKind,
		ActionCount: len(relocationPlan.Actions),
		DryRun:      options.DryRun,
	}, nil
}

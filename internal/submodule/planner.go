package submodule

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	plannerFileSystemMissingMessageConstant = "planner requires a file system"
	registryEntryLookupTemplateConstant     = "no registry entry matches path %q or name %q"
	relativeParentSegmentConstant           = "../"
	registryRewriteDescriptionTemplate      = "rewrite %s entry %q as %q with path %q"
	registryURLRewriteDescriptionTemplate   = "rewrite %s entry %q as %q with path %q and url %q"
	worktreeRewriteDescriptionTemplate      = "point storage worktree in %s at %s"
	linkRewriteDescriptionTemplate          = "point gitdir link %s at %s"
	moveDescriptionTemplateConstant         = "move %s to %s"
	unstageDescriptionTemplateConstant      = "remove %s from the index"
	stageDescriptionTemplateConstant        = "stage %s"
	stageDescriptionSeparatorConstant       = " and "
)

// ownerWritePermissionBit gates pointer rewrites on a writable storage
// configuration; a read-only file skips the rewrite instead of failing mid-plan.
const ownerWritePermissionBit = 0o200

// ErrPlannerFileSystemMissing reports a Planner constructed without a file system.
var ErrPlannerFileSystemMissing = errors.New(plannerFileSystemMissingMessageConstant)

// ActionKind identifies one relocation step.
type ActionKind string

// Recognized action kinds, listed in execution order.
const (
	ActionKindRewriteRegistry        ActionKind = ActionKind("rewrite-registry")
	ActionKindRewriteWorktreePointer ActionKind = ActionKind("rewrite-worktree-pointer")
	ActionKindRewriteLinkFile        ActionKind = ActionKind("rewrite-link-file")
	ActionKindMoveDirectory          ActionKind = ActionKind("move-directory")
	ActionKindUnstagePath            ActionKind = ActionKind("unstage-path")
	ActionKindStagePaths             ActionKind = ActionKind("stage-paths")
)

// Action describes one mutating relocation step.
type Action struct {
	Kind            ActionKind
	Description     string
	TargetFile      string
	PointerValue    string
	SourcePath      string
	DestinationPath string
	EnsureParent    bool
	RegistryUpdate  RegistryUpdate
	StagePaths      []string
}

// RegistryUpdate carries the registry rewrite parameters for an entry.
type RegistryUpdate struct {
	OldName   string
	NewName   string
	NewPath   string
	NewURL    string
	UpdateURL bool
}

// RelocationOptions describes one requested submodule move.
type RelocationOptions struct {
	WorkingDirectory     string
	Source               string
	Destination          string
	DryRun               bool
	GitDirOverride       string
	RequireCleanWorktree bool
	AssumeYes            bool
}

// RelocationPlan captures the validated request and its ordered actions.
type RelocationPlan struct {
	Root         string
	GitDirectory string
	Submodule    Entry
	URLKind      URLKind
	SourcePath   string
	NewPath      string
	ProjectName  string
	Actions      []Action
}

// Planner validates relocation requests and derives their action plans.
type Planner struct {
	fileSystem FileSystem
}

// NewPlanner constructs a Planner backed by the provided file system.
func NewPlanner(fileSystem FileSystem) (*Planner, error) {
	if fileSystem == nil {
		return nil, ErrPlannerFileSystemMissing
	}
	return &Planner{fileSystem: fileSystem}, nil
}

// Plan validates the request and produces the ordered relocation plan.
// Precondition failures are reported as PreconditionError values carrying
// their dedicated exit codes.
func (planner *Planner) Plan(options RelocationOptions) (RelocationPlan, error) {
	rootDirectory, rootError := planner.fileSystem.Abs(options.WorkingDirectory)
	if rootError != nil {
		return RelocationPlan{}, rootError
	}

	sourcePath, sourceResolveError := planner.resolveSource(rootDirectory, options.Source)
	if sourceResolveError != nil {
		return RelocationPlan{}, sourceResolveError
	}
	sourceInformation, sourceError := planner.fileSystem.Stat(filepath.Join(rootDirectory, filepath.FromSlash(sourcePath)))
	if sourceError != nil || !sourceInformation.IsDir() {
		return RelocationPlan{}, NewMissingSourceError(options.Source)
	}

	destinationAbsolute, destinationError := planner.resolveDestination(rootDirectory, options.Destination)
	if destinationError != nil {
		return RelocationPlan{}, destinationError
	}
	if !pathWithinDirectory(destinationAbsolute, rootDirectory) {
		return RelocationPlan{}, NewDestinationOutsideTreeError(options.Destination, rootDirectory)
	}

	gitDirectory := options.GitDirOverride
	if gitDirectory == "" {
		gitDirectory = filepath.Join(rootDirectory, StorageDirectoryName)
	}
	gitDirectoryAbsolute, gitDirectoryError := planner.fileSystem.Abs(gitDirectory)
	if gitDirectoryError != nil {
		return RelocationPlan{}, gitDirectoryError
	}
	gitDirectoryInformation, gitDirectoryStatError := planner.fileSystem.Stat(gitDirectoryAbsolute)
	if gitDirectoryStatError != nil || !gitDirectoryInformation.IsDir() {
		return RelocationPlan{}, NewStorageUnreadableError(gitDirectory)
	}
	if _, storageReadError := planner.fileSystem.ReadFile(filepath.Join(gitDirectoryAbsolute, StorageConfigurationFileName)); storageReadError != nil {
		return RelocationPlan{}, NewStorageUnreadableError(gitDirectory)
	}

	if pathWithinDirectory(destinationAbsolute, gitDirectoryAbsolute) {
		return RelocationPlan{}, NewDestinationInsideStorageError(options.Destination, gitDirectory)
	}

	registryPath := filepath.Join(rootDirectory, RegistryFileName)
	registryContent, registryReadError := planner.fileSystem.ReadFile(registryPath)
	if registryReadError != nil {
		return RelocationPlan{}, NewRegistryMissingError(registryPath)
	}
	registry, registryParseError := ParseRegistry(registryContent)
	if registryParseError != nil {
		return RelocationPlan{}, registryParseError
	}

	newPath, projectName, derivationError := planner.deriveNewPath(rootDirectory, destinationAbsolute, options.Destination, sourcePath)
	if derivationError != nil {
		return RelocationPlan{}, derivationError
	}

	registryEntry, entryFound := registry.FindByPath(sourcePath)
	if !entryFound {
		registryEntry, entryFound = registry.FindByName(projectName)
	}
	if !entryFound {
		return RelocationPlan{}, fmt.Errorf(registryEntryLookupTemplateConstant, sourcePath, projectName)
	}

	urlKind := ClassifyURL(registryEntry.URL)

	relocationPlan := RelocationPlan{
		Root:         rootDirectory,
		GitDirectory: gitDirectoryAbsolute,
		Submodule:    registryEntry,
		URLKind:      urlKind,
		SourcePath:   sourcePath,
		NewPath:      newPath,
		ProjectName:  projectName,
	}
	relocationPlan.Actions = planner.deriveActions(relocationPlan, options.GitDirOverride != "")
	return relocationPlan, nil
}

// resolveSource normalizes the requested source to a slash-separated path
// relative to the repository root, accepting both relative and absolute forms.
func (planner *Planner) resolveSource(rootDirectory string, source string) (string, error) {
	trimmedSource := strings.TrimRight(source, string(filepath.Separator)+"/")
	if !filepath.IsAbs(trimmedSource) {
		return filepath.ToSlash(filepath.Clean(trimmedSource)), nil
	}
	relativeSource, relativeError := filepath.Rel(rootDirectory, filepath.Clean(trimmedSource))
	if relativeError != nil {
		return "", NewMissingSourceError(source)
	}
	return filepath.ToSlash(relativeSource), nil
}

func (planner *Planner) resolveDestination(rootDirectory string, destination string) (string, error) {
	if filepath.IsAbs(destination) {
		return filepath.Clean(destination), nil
	}
	return planner.fileSystem.Abs(filepath.Join(rootDirectory, destination))
}

// deriveNewPath applies the destination naming rule: a destination ending in a
// path separator or naming an existing directory keeps the source's base name,
// while any other destination supplies the new name in its final segment.
func (planner *Planner) deriveNewPath(rootDirectory string, destinationAbsolute string, rawDestination string, sourcePath string) (string, string, error) {
	destinationRelative, relativeError := filepath.Rel(rootDirectory, destinationAbsolute)
	if relativeError != nil {
		return "", "", relativeError
	}

	moveIntoDirectory := strings.HasSuffix(rawDestination, "/") || strings.HasSuffix(rawDestination, string(filepath.Separator))
	if !moveIntoDirectory {
		if destinationInformation, destinationStatError := planner.fileSystem.Stat(destinationAbsolute); destinationStatError == nil && destinationInformation.IsDir() {
			moveIntoDirectory = true
		}
	}

	projectName := filepath.Base(sourcePath)
	if !moveIntoDirectory {
		projectName = filepath.Base(destinationRelative)
		destinationRelative = filepath.Dir(destinationRelative)
	}

	newPath := projectName
	if destinationRelative != "." {
		newPath = filepath.Join(destinationRelative, projectName)
	}
	return filepath.ToSlash(newPath), projectName, nil
}

func (planner *Planner) deriveActions(relocationPlan RelocationPlan, gitDirOverridden bool) []Action {
	plannedActions := []Action{planner.registryAction(relocationPlan)}

	if relocationPlan.URLKind == URLKindExternal {
		storageKey := storageKeyForPlan(relocationPlan)
		oldStoragePath := filepath.Join(relocationPlan.GitDirectory, StorageModulesDirectoryName, filepath.FromSlash(storageKey))
		newStoragePath := filepath.Join(relocationPlan.GitDirectory, StorageModulesDirectoryName, filepath.FromSlash(relocationPlan.NewPath))
		storageConfigurationPath := filepath.Join(oldStoragePath, StorageConfigurationFileName)

		if storageInformation, storageStatError := planner.fileSystem.Stat(storageConfigurationPath); storageStatError == nil && storageInformation.Mode().Perm()&ownerWritePermissionBit != 0 {
			worktreePointer := worktreePointerValue(relocationPlan, gitDirOverridden)
			plannedActions = append(plannedActions, Action{
				Kind:         ActionKindRewriteWorktreePointer,
				Description:  fmt.Sprintf(worktreeRewriteDescriptionTemplate, storageConfigurationPath, worktreePointer),
				TargetFile:   storageConfigurationPath,
				PointerValue: worktreePointer,
			})
		}

		linkFilePath := filepath.Join(relocationPlan.Root, filepath.FromSlash(relocationPlan.SourcePath), StorageDirectoryName)
		gitdirPointer := gitdirPointerValue(relocationPlan, newStoragePath, gitDirOverridden)
		plannedActions = append(plannedActions, Action{
			Kind:         ActionKindRewriteLinkFile,
			Description:  fmt.Sprintf(linkRewriteDescriptionTemplate, linkFilePath, gitdirPointer),
			TargetFile:   linkFilePath,
			PointerValue: gitdirPointer,
		})

		plannedActions = append(plannedActions, Action{
			Kind:            ActionKindMoveDirectory,
			Description:     fmt.Sprintf(moveDescriptionTemplateConstant, oldStoragePath, newStoragePath),
			SourcePath:      oldStoragePath,
			DestinationPath: newStoragePath,
			EnsureParent:    true,
		})
	}

	oldWorktreePath := filepath.Join(relocationPlan.Root, filepath.FromSlash(relocationPlan.SourcePath))
	newWorktreePath := filepath.Join(relocationPlan.Root, filepath.FromSlash(relocationPlan.NewPath))
	plannedActions = append(plannedActions,
		Action{
			Kind:            ActionKindMoveDirectory,
			Description:     fmt.Sprintf(moveDescriptionTemplateConstant, oldWorktreePath, newWorktreePath),
			SourcePath:      oldWorktreePath,
			DestinationPath: newWorktreePath,
			EnsureParent:    true,
		},
		Action{
			Kind:        ActionKindUnstagePath,
			Description: fmt.Sprintf(unstageDescriptionTemplateConstant, relocationPlan.SourcePath),
			SourcePath:  relocationPlan.SourcePath,
		},
		Action{
			Kind:        ActionKindStagePaths,
			Description: fmt.Sprintf(stageDescriptionTemplateConstant, RegistryFileName+stageDescriptionSeparatorConstant+relocationPlan.NewPath),
			StagePaths:  []string{RegistryFileName, relocationPlan.NewPath},
		},
	)
	return plannedActions
}

func (planner *Planner) registryAction(relocationPlan RelocationPlan) Action {
	registryUpdate := RegistryUpdate{
		OldName: relocationPlan.Submodule.Name,
		NewName: relocationPlan.NewPath,
		NewPath: relocationPlan.NewPath,
	}
	actionDescription := fmt.Sprintf(
		registryRewriteDescriptionTemplate,
		RegistryFileName,
		registryUpdate.OldName,
		registryUpdate.NewName,
		registryUpdate.NewPath,
	)
	if relocationPlan.URLKind == URLKindLocal {
		registryUpdate.NewURL = localURLPrefixConstant + relocationPlan.NewPath
		registryUpdate.UpdateURL = true
		actionDescription = fmt.Sprintf(
			registryURLRewriteDescriptionTemplate,
			RegistryFileName,
			registryUpdate.OldName,
			registryUpdate.NewName,
			registryUpdate.NewPath,
			registryUpdate.NewURL,
		)
	}
	return Action{
		Kind:           ActionKindRewriteRegistry,
		Description:    actionDescription,
		TargetFile:     filepath.Join(relocationPlan.Root, RegistryFileName),
		RegistryUpdate: registryUpdate,
	}
}

// storageKeyForPlan picks the path used to locate the entry's storage under
// the modules directory. Storage is keyed by the registered path, falling
// back to the on-disk source path when the registry record disagrees.
func storageKeyForPlan(relocationPlan RelocationPlan) string {
	if relocationPlan.Submodule.Path != "" {
		return relocationPlan.Submodule.Path
	}
	return relocationPlan.SourcePath
}

// worktreePointerValue renders the core worktree option for the relocated
// storage entry. With the default storage location the pointer stays relative
// to the storage entry; a storage override forces an absolute pointer.
func worktreePointerValue(relocationPlan RelocationPlan, gitDirOverridden bool) string {
	if gitDirOverridden {
		return filepath.Join(relocationPlan.Root, filepath.FromSlash(relocationPlan.NewPath))
	}
	ascentDepth := len(strings.Split(relocationPlan.NewPath, "/")) + 2
	return strings.Repeat(relativeParentSegmentConstant, ascentDepth) + relocationPlan.NewPath
}

// gitdirPointerValue renders the gitdir link target mirroring the worktree
// pointer: relative from the relocated worktree by default, absolute when the
// storage location is overridden.
func gitdirPointerValue(relocationPlan RelocationPlan, newStoragePath string, gitDirOverridden bool) string {
	if gitDirOverridden {
		return newStoragePath
	}
	ascentDepth := len(strings.Split(relocationPlan.NewPath, "/"))
	return strings.Repeat(relativeParentSegmentConstant, ascentDepth) +
		StorageDirectoryName + "/" + StorageModulesDirectoryName + "/" + relocationPlan.NewPath
}

func pathWithinDirectory(candidatePath string, containingDirectory string) bool {
	cleanedCandidate := filepath.Clean(candidatePath)
	cleanedContainer := filepath.Clean(containingDirectory)
	if cleanedCandidate == cleanedContainer {
		return true
	}
	return strings.HasPrefix(cleanedCandidate, cleanedContainer+string(filepath.Separator))
}

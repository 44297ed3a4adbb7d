package submodule

import (
	"context"
	"fmt"
	"strings"
)

const (
	localURLPrefixConstant = "./"

	// RegistryFileName is the module-registry file at the parent repository root.
	RegistryFileName = ".gitmodules"
	// StorageDirectoryName is the parent repository's internal storage directory.
	StorageDirectoryName = ".git"
	// StorageModulesDirectoryName holds per-submodule storage entries keyed by path.
	StorageModulesDirectoryName = "modules"
	// StorageConfigurationFileName is the configuration file inside a storage entry.
	StorageConfigurationFileName = "config"
)

// Process exit codes for precondition failures, in validation order.
const (
	ExitCodeMissingSource            = 1
	ExitCodeDestinationOutsideTree   = 2
	ExitCodeStorageUnreadable        = 3
	ExitCodeDestinationInsideStorage = 4
	ExitCodeRegistryMissing          = 5
)

const (
	missingSourceMessageTemplateConstant            = "source path %s is not an existing directory"
	destinationOutsideTreeMessageTemplateConstant   = "destination %s resolves outside the working directory %s"
	storageUnreadableMessageTemplateConstant        = "internal storage directory %s is missing or its configuration is unreadable"
	destinationInsideStorageMessageTemplateConstant = "destination %s lies inside the internal storage directory %s"
	registryMissingMessageTemplateConstant          = "module registry file %s not found; run from the parent repository root"
)

// URLKind classifies a registry entry URL by where its repository storage lives.
type URLKind string

// Recognized URL classifications.
const (
	// URLKindLocal marks URLs beginning with "./": the submodule's repository
	// storage is embedded in its own working directory.
	URLKindLocal URLKind = "local"
	// URLKindExternal marks every other URL form, including "../" relative
	// URLs: the storage lives under the parent's internal storage directory.
	URLKindExternal URLKind = "external"
)

// ClassifyURL determines where a registry entry's repository storage lives.
func ClassifyURL(entryURL string) URLKind {
	if strings.HasPrefix(entryURL, localURLPrefixConstant) {
		return URLKindLocal
	}
	return URLKindExternal
}

// Entry models one submodule record in the module-registry file.
type Entry struct {
	Name string
	Path string
	URL  string
}

// PreconditionError reports a fatal validation failure with its dedicated exit code.
type PreconditionError struct {
	Code    int
	Message string
}

// Error describes the failed precondition.
func (preconditionError PreconditionError) Error() string {
	return preconditionError.Message
}

// ExitCode exposes the process exit status associated with the failure.
func (preconditionError PreconditionError) ExitCode() int {
	return preconditionError.Code
}

// NewMissingSourceError reports a source path that is not an existing directory.
func NewMissingSourceError(sourcePath string) PreconditionError {
	return PreconditionError{
		Code:    ExitCodeMissingSource,
		Message: fmt.Sprintf(missingSourceMessageTemplateConstant, sourcePath),
	}
}

// NewDestinationOutsideTreeError reports a destination escaping the working directory.
func NewDestinationOutsideTreeError(destinationPath string, workingDirectory string) PreconditionError {
	return PreconditionError{
		Code:    ExitCodeDestinationOutsideTree,
		Message: fmt.Sprintf(destinationOutsideTreeMessageTemplateConstant, destinationPath, workingDirectory),
	}
}

// NewStorageUnreadableError reports a missing or unreadable internal storage configuration.
func NewStorageUnreadableError(storageDirectory string) PreconditionError {
	return PreconditionError{
		Code:    ExitCodeStorageUnreadable,
		Message: fmt.Sprintf(storageUnreadableMessageTemplateConstant, storageDirectory),
	}
}

// NewDestinationInsideStorageError reports a destination colliding with internal storage.
func NewDestinationInsideStorageError(destinationPath string, storageDirectory string) PreconditionError {
	return PreconditionError{
		Code:    ExitCodeDestinationInsideStorage,
		Message: fmt.Sprintf(destinationInsideStorageMessageTemplateConstant, destinationPath, storageDirectory),
	}
}

// NewRegistryMissingError reports an absent module-registry file.
func NewRegistryMissingError(registryPath string) PreconditionError {
	return PreconditionError{
		Code:    ExitCodeRegistryMissing,
		Message: fmt.Sprintf(registryMissingMessageTemplateConstant, registryPath),
	}
}

// GitManager exposes the git operations the relocator depends on.
type GitManager interface {
	CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error)
	RemoveCachedPath(executionContext context.Context, repositoryPath string, targetPath string) error
	StagePaths(executionContext context.Context, repositoryPath string, targetPaths ...string) error
	WorktreeStatus(executionContext context.Context, repositoryPath string) (string, error)
}

// ConfirmationPrompter collects user confirmations prior to mutating actions.
type ConfirmationPrompter interface {
	Confirm(prompt string) (bool, error)
}

package submodule_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/temirov/smv/internal/submodule"
)

const (
	serviceStatusOutputFixture = "renamed: lib/foo -> vendor/foo\n"
	commitReminderFragment     = "commit the relocation"
)

type scriptedPrompter struct {
	response bool
	prompts  []string
}

func (prompter *scriptedPrompter) Confirm(prompt string) (bool, error) {
	prompter.prompts = append(prompter.prompts, prompt)
	return prompter.response, nil
}

func newTestService(testInstance *testing.T, gitManager submodule.GitManager, prompter submodule.ConfirmationPrompter, output *bytes.Buffer) *submodule.Service {
	testInstance.Helper()
	service, serviceError := submodule.NewService(submodule.ServiceDependencies{
		Logger:     zaptest.NewLogger(testInstance),
		FileSystem: submodule.OSFileSystem{},
		GitManager: gitManager,
		Prompter:   prompter,
		Output:     output,
	})
	require.NoError(testInstance, serviceError)
	return service
}

func TestRelocateAppliesPlanAndReportsStatus(testInstance *testing.T) {
	fixture := newRepositoryFixture(testInstance, fixtureExternalRegistry)
	gitManager := &recordingGitManager{statusOutput: serviceStatusOutputFixture}
	outputBuffer := &bytes.Buffer{}
	service := newTestService(testInstance, gitManager, nil, outputBuffer)

	result, relocationError := service.Relocate(context.Background(), submodule.RelocationOptions{
		WorkingDirectory: fixture.root,
		Source:           fixtureSourcePath,
		Destination:      fixtureVendorDirectoryName + "/",
		AssumeYes:        true,
	})
	require.NoError(testInstance, relocationError)

	require.Equal(testInstance, fixtureExpectedNewPath, result.NewPath)
	require.Equal(testInstance, submodule.URLKindExternal, result.URLKind)
	require.False(testInstance, result.Skipped)
	require.Equal(testInstance, 1, gitManager.statusRequests)
	require.Contains(testInstance, outputBuffer.String(), serviceStatusOutputFixture)
	require.Contains(testInstance, outputBuffer.String(), commitReminderFragment)

	_, movedStatError := os.Stat(filepath.Join(fixture.root, "vendor", "foo"))
	require.NoError(testInstance, movedStatError)
}

func TestRelocateHonorsCleanWorktreeGate(testInstance *testing.T) {
	fixture := newRepositoryFixture(testInstance, fixtureExternalRegistry)
	gitManager := &recordingGitManager{cleanWorktree: false}
	service := newTestService(testInstance, gitManager, nil, &bytes.Buffer{})

	_, relocationError := service.Relocate(context.Background(), submodule.RelocationOptions{
		WorkingDirectory:     fixture.root,
		Source:               fixtureSourcePath,
		Destination:          fixtureVendorDirectoryName + "/",
		RequireCleanWorktree: true,
		AssumeYes:            true,
	})
	require.ErrorIs(testInstance, relocationError, submodule.ErrWorktreeDirty)

	_, sourceStatError := os.Stat(filepath.Join(fixture.root, "lib", "foo"))
	require.NoError(testInstance, sourceStatError)
}

func TestRelocateDeclinedConfirmationSkipsMutation(testInstance *testing.T) {
	fixture := newRepositoryFixture(testInstance, fixtureExternalRegistry)
	gitManager := &recordingGitManager{}
	prompter := &scriptedPrompter{response: false}
	outputBuffer := &bytes.Buffer{}
	service := newTestService(testInstance, gitManager, prompter, outputBuffer)

	result, relocationError := service.Relocate(context.Background(), submodule.RelocationOptions{
		WorkingDirectory: fixture.root,
		Source:           fixtureSourcePath,
		Destination:      fixtureVendorDirectoryName + "/",
	})
	require.NoError(testInstance, relocationError)
	require.True(testInstance, result.Skipped)
	require.Len(testInstance, prompter.prompts, 1)
	require.Contains(testInstance, outputBuffer.String(), "SKIP")

	_, sourceStatError := os.Stat(filepath.Join(fixture.root, "lib", "foo"))
	require.NoError(testInstance, sourceStatError)
	require.Empty(testInstance, gitManager.removedPaths)
}

func TestRelocateDryRunSkipsPromptAndStatus(testInstance *testing.T) {
	fixture := newRepositoryFixture(testInstance, fixtureExternalRegistry)
	gitManager := &recordingGitManager{}
	prompter := &scriptedPrompter{response: false}
	outputBuffer := &bytes.Buffer{}
	service := newTestService(testInstance, gitManager, prompter, outputBuffer)

	result, relocationError := service.Relocate(context.Background(), submodule.RelocationOptions{
		WorkingDirectory: fixture.root,
		Source:           fixtureSourcePath,
		Destination:      fixtureVendorDirectoryName + "/",
		DryRun:           true,
	})
	require.NoError(testInstance, relocationError)
	require.True(testInstance, result.DryRun)
	require.Empty(testInstance, prompter.prompts)
	require.Zero(testInstance, gitManager.statusRequests)
	require.Contains(testInstance, outputBuffer.String(), "DRY-RUN: ")
}

func TestRelocatePropagatesPreconditionFailures(testInstance *testing.T) {
	fixture := newRepositoryFixture(testInstance, fixtureExternalRegistry)
	gitManager := &recordingGitManager{}
	service := newTestService(testInstance, gitManager, nil, &bytes.Buffer{})

	_, relocationError := service.Relocate(context.Background(), submodule.RelocationOptions{
		WorkingDirectory: fixture.root,
		Source:           "lib/absent",
		Destination:      fixtureVendorDirectoryName + "/",
		AssumeYes:        true,
	})
	require.Error(testInstance, relocationError)

	var preconditionError submodule.PreconditionError
	require.ErrorAs(testInstance, relocationError, &preconditionError)
	require.Equal(testInstance, submodule.ExitCodeMissingSource, preconditionError.ExitCode())
}

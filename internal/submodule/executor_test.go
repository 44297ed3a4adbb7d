package submodule_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/smv/internal/submodule"
)

type recordingGitManager struct {
	cleanWorktree  bool
	cleanCheckErr  error
	removedPaths   []string
	stagedPaths    [][]string
	statusOutput   string
	statusError    error
	removeError    error
	stageError     error
	statusRequests int
}

func (manager *recordingGitManager) CheckCleanWorktree(context.Context, string) (bool, error) {
	return manager.cleanWorktree, manager.cleanCheckErr
}

func (manager *recordingGitManager) RemoveCachedPath(_ context.Context, _ string, targetPath string) error {
	manager.removedPaths = append(manager.removedPaths, targetPath)
	return manager.removeError
}

func (manager *recordingGitManager) StagePaths(_ context.Context, _ string, targetPaths ...string) error {
	manager.stagedPaths = append(manager.stagedPaths, append([]string(nil), targetPaths...))
	return manager.stageError
}

func (manager *recordingGitManager) WorktreeStatus(context.Context, string) (string, error) {
	manager.statusRequests++
	return manager.statusOutput, manager.statusError
}

func planExternalRelocation(testInstance *testing.T, fixture repositoryFixture) submodule.RelocationPlan {
	testInstance.Helper()
	planner := newTestPlanner(testInstance)
	relocationPlan, planError := planner.Plan(submodule.RelocationOptions{
		WorkingDirectory: fixture.root,
		Source:           fixtureSourcePath,
		Destination:      fixtureVendorDirectoryName + "/",
	})
	require.NoError(testInstance, planError)
	return relocationPlan
}

func TestPlanInterpreterAppliesExternalPlan(testInstance *testing.T) {
	fixture := newRepositoryFixture(testInstance, fixtureExternalRegistry)
	relocationPlan := planExternalRelocation(testInstance, fixture)

	gitManager := &recordingGitManager{}
	interpreter, interpreterError := submodule.NewPlanInterpreter(submodule.PlanInterpreterDependencies{
		FileSystem: submodule.OSFileSystem{},
		GitManager: gitManager,
		Logger:     zap.NewNop(),
	})
	require.NoError(testInstance, interpreterError)

	require.NoError(testInstance, interpreter.Apply(context.Background(), relocationPlan, false))

	registryContent, registryReadError := os.ReadFile(filepath.Join(fixture.root, ".gitmodules"))
	require.NoError(testInstance, registryReadError)
	require.Contains(testInstance, string(registryContent), "submodule \"vendor/foo\"")
	require.Contains(testInstance, string(registryContent), "path = vendor/foo")

	storageContent, storageReadError := os.ReadFile(filepath.Join(fixture.root, ".git", "modules", "vendor", "foo", "config"))
	require.NoError(testInstance, storageReadError)
	require.Contains(testInstance, string(storageContent), expectedWorktreePointerValue)

	linkContent, linkReadError := os.ReadFile(filepath.Join(fixture.root, "vendor", "foo", ".git"))
	require.NoError(testInstance, linkReadError)
	pointerValue, pointerMatched := submodule.ReadGitdirPointer(linkContent)
	require.True(testInstance, pointerMatched)
	require.Equal(testInstance, expectedGitdirPointerValue, pointerValue)

	_, oldWorktreeStatError := os.Stat(filepath.Join(fixture.root, "lib", "foo"))
	require.True(testInstance, os.IsNotExist(oldWorktreeStatError))
	_, oldStorageStatError := os.Stat(filepath.Join(fixture.root, ".git", "modules", "lib", "foo"))
	require.True(testInstance, os.IsNotExist(oldStorageStatError))

	require.Equal(testInstance, []string{fixtureSourcePath}, gitManager.removedPaths)
	require.Equal(testInstance, [][]string{{submodule.RegistryFileName, fixtureExpectedNewPath}}, gitManager.stagedPaths)
}

func TestPlanInterpreterInverseMoveRestoresLayout(testInstance *testing.T) {
	fixture := newRepositoryFixture(testInstance, fixtureExternalRegistry)
	planner := newTestPlanner(testInstance)
	interpreter, interpreterError := submodule.NewPlanInterpreter(submodule.PlanInterpreterDependencies{
		FileSystem: submodule.OSFileSystem{},
		GitManager: &recordingGitManager{},
		Logger:     zap.NewNop(),
	})
	require.NoError(testInstance, interpreterError)

	forwardPlan, forwardPlanError := planner.Plan(submodule.RelocationOptions{
		WorkingDirectory: fixture.root,
		Source:           fixtureSourcePath,
		Destination:      fixtureVendorDirectoryName + "/",
	})
	require.NoError(testInstance, forwardPlanError)
	require.NoError(testInstance, interpreter.Apply(context.Background(), forwardPlan, false))

	inversePlan, inversePlanError := planner.Plan(submodule.RelocationOptions{
		WorkingDirectory: fixture.root,
		Source:           fixtureExpectedNewPath,
		Destination:      "lib/",
	})
	require.NoError(testInstance, inversePlanError)
	require.NoError(testInstance, interpreter.Apply(context.Background(), inversePlan, false))

	registryContent, registryReadError := os.ReadFile(filepath.Join(fixture.root, ".gitmodules"))
	require.NoError(testInstance, registryReadError)
	require.Contains(testInstance, string(registryContent), "path = lib/foo")
	require.Contains(testInstance, string(registryContent), "url = https://example.com/foo.git")

	storageContent, storageReadError := os.ReadFile(filepath.Join(fixture.root, ".git", "modules", "lib", "foo", "config"))
	require.NoError(testInstance, storageReadError)
	require.Contains(testInstance, string(storageContent), "worktree = ../../../../lib/foo")

	linkContent, linkReadError := os.ReadFile(filepath.Join(fixture.root, "lib", "foo", ".git"))
	require.NoError(testInstance, linkReadError)
	pointerValue, pointerMatched := submodule.ReadGitdirPointer(linkContent)
	require.True(testInstance, pointerMatched)
	require.Equal(testInstance, "../../.git/modules/lib/foo", pointerValue)

	_, restoredWorktreeStatError := os.Stat(filepath.Join(fixture.root, "lib", "foo"))
	require.NoError(testInstance, restoredWorktreeStatError)
	_, movedWorktreeStatError := os.Stat(filepath.Join(fixture.root, "vendor", "foo"))
	require.True(testInstance, os.IsNotExist(movedWorktreeStatError))
	_, movedStorageStatError := os.Stat(filepath.Join(fixture.root, ".git", "modules", "vendor", "foo"))
	require.True(testInstance, os.IsNotExist(movedStorageStatError))
}

func TestPlanInterpreterDryRunLeavesFilesystemUntouched(testInstance *testing.T) {
	fixture := newRepositoryFixture(testInstance, fixtureExternalRegistry)
	relocationPlan := planExternalRelocation(testInstance, fixture)

	gitManager := &recordingGitManager{}
	outputBuffer := &bytes.Buffer{}
	interpreter, interpreterError := submodule.NewPlanInterpreter(submodule.PlanInterpreterDependencies{
		FileSystem: submodule.OSFileSystem{},
		GitManager: gitManager,
		Output:     outputBuffer,
	})
	require.NoError(testInstance, interpreterError)

	require.NoError(testInstance, interpreter.Apply(context.Background(), relocationPlan, true))

	previewLines := strings.Split(strings.TrimSpace(outputBuffer.String()), "\n")
	require.Len(testInstance, previewLines, len(relocationPlan.Actions))
	for _, previewLine := range previewLines {
		require.True(testInstance, strings.HasPrefix(previewLine, "DRY-RUN: "))
	}

	_, sourceStatError := os.Stat(filepath.Join(fixture.root, "lib", "foo"))
	require.NoError(testInstance, sourceStatError)
	require.Empty(testInstance, gitManager.removedPaths)
	require.Empty(testInstance, gitManager.stagedPaths)

	registryContent, registryReadError := os.ReadFile(filepath.Join(fixture.root, ".gitmodules"))
	require.NoError(testInstance, registryReadError)
	require.Equal(testInstance, fixtureExternalRegistry, string(registryContent))
}

func TestPlanInterpreterRequiresDependencies(testInstance *testing.T) {
	_, missingFileSystemError := submodule.NewPlanInterpreter(submodule.PlanInterpreterDependencies{GitManager: &recordingGitManager{}})
	require.Error(testInstance, missingFileSystemError)

	_, missingGitManagerError := submodule.NewPlanInterpreter(submodule.PlanInterpreterDependencies{FileSystem: submodule.OSFileSystem{}})
	require.Error(testInstance, missingGitManagerError)
}

package execshell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/temirov/smv/internal/execshell"
)

const (
	statusSubcommandFixture   = "status"
	workingDirectoryFixture   = "/tmp/repository"
	standardOutputFixture     = "on branch main\n"
	standardErrorFixture      = "fatal: not a git repository"
	runnerFailureMessageFixture = "executable not found"
)

type scriptedCommandRunner struct {
	result          execshell.ExecutionResult
	runError        error
	executedCommands []execshell.ShellCommand
}

func (runner *scriptedCommandRunner) Run(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.executedCommands = append(runner.executedCommands, command)
	if runner.runError != nil {
		return execshell.ExecutionResult{}, runner.runError
	}
	return runner.result, nil
}

type recordingEventObserver struct {
	startedCommands   []execshell.ShellCommand
	completedResults  []execshell.ExecutionResult
	executionFailures []error
}

func (observer *recordingEventObserver) CommandStarted(command execshell.ShellCommand) {
	observer.startedCommands = append(observer.startedCommands, command)
}

func (observer *recordingEventObserver) CommandCompleted(_ execshell.ShellCommand, result execshell.ExecutionResult) {
	observer.completedResults = append(observer.completedResults, result)
}

func (observer *recordingEventObserver) CommandExecutionFailed(_ execshell.ShellCommand, failure error) {
	observer.executionFailures = append(observer.executionFailures, failure)
}

func TestNewShellExecutorValidatesDependencies(testInstance *testing.T) {
	_, missingLoggerError := execshell.NewShellExecutor(nil, &scriptedCommandRunner{}, false)
	require.ErrorIs(testInstance, missingLoggerError, execshell.ErrLoggerNotConfigured)

	_, missingRunnerError := execshell.NewShellExecutor(zap.NewNop(), nil, false)
	require.ErrorIs(testInstance, missingRunnerError, execshell.ErrCommandRunnerNotConfigured)
}

func TestExecuteGitReturnsRunnerResult(testInstance *testing.T) {
	commandRunner := &scriptedCommandRunner{result: execshell.ExecutionResult{StandardOutput: standardOutputFixture}}
	executor, creationError := execshell.NewShellExecutor(zaptest.NewLogger(testInstance), commandRunner, false)
	require.NoError(testInstance, creationError)

	executionResult, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{
		Arguments:        []string{statusSubcommandFixture},
		WorkingDirectory: workingDirectoryFixture,
	})
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, standardOutputFixture, executionResult.StandardOutput)

	require.Len(testInstance, commandRunner.executedCommands, 1)
	require.Equal(testInstance, execshell.CommandGit, commandRunner.executedCommands[0].Name)
	require.Equal(testInstance, workingDirectoryFixture, commandRunner.executedCommands[0].Details.WorkingDirectory)
}

func TestExecuteGitWrapsNonZeroExit(testInstance *testing.T) {
	commandRunner := &scriptedCommandRunner{result: execshell.ExecutionResult{ExitCode: 128, StandardError: standardErrorFixture}}
	executor, creationError := execshell.NewShellExecutor(zaptest.NewLogger(testInstance), commandRunner, false)
	require.NoError(testInstance, creationError)

	_, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{Arguments: []string{statusSubcommandFixture}})
	require.Error(testInstance, executionError)

	var commandFailure execshell.CommandFailedError
	require.ErrorAs(testInstance, executionError, &commandFailure)
	require.Equal(testInstance, 128, commandFailure.Result.ExitCode)
	require.Contains(testInstance, commandFailure.Error(), standardErrorFixture)
}

func TestExecuteGitWrapsExecutionFailure(testInstance *testing.T) {
	runnerFailure := errors.New(runnerFailureMessageFixture)
	commandRunner := &scriptedCommandRunner{runError: runnerFailure}
	executor, creationError := execshell.NewShellExecutor(zaptest.NewLogger(testInstance), commandRunner, false)
	require.NoError(testInstance, creationError)

	_, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{Arguments: []string{statusSubcommandFixture}})
	require.Error(testInstance, executionError)

	var executionFailure execshell.CommandExecutionError
	require.ErrorAs(testInstance, executionError, &executionFailure)
	require.ErrorIs(testInstance, executionError, runnerFailure)
}

func TestExecutorNotifiesEventObserver(testInstance *testing.T) {
	commandRunner := &scriptedCommandRunner{result: execshell.ExecutionResult{ExitCode: 1}}
	executor, creationError := execshell.NewShellExecutor(zaptest.NewLogger(testInstance), commandRunner, true)
	require.NoError(testInstance, creationError)

	observer := &recordingEventObserver{}
	executor.SetCommandEventObserver(observer)

	_, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{Arguments: []string{statusSubcommandFixture}})
	require.Error(testInstance, executionError)

	require.Len(testInstance, observer.startedCommands, 1)
	require.Len(testInstance, observer.completedResults, 1)
	require.Equal(testInstance, 1, observer.completedResults[0].ExitCode)
	require.Empty(testInstance, observer.executionFailures)
}

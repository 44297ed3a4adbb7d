package execshell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
)

// OSCommandRunner launches commands as real processes through os/exec.
type OSCommandRunner struct{}

// NewOSCommandRunner returns a runner that spawns operating system processes.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run spawns the command and captures both output streams. A non-zero exit
// status is reported through the result rather than as an error; only
// failures to launch the process surface as errors.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	processHandle := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	processHandle.Dir = command.Details.WorkingDirectory

	if len(command.Details.EnvironmentVariables) > 0 {
		processEnvironment := os.Environ()
		for variableName, variableValue := range command.Details.EnvironmentVariables {
			processEnvironment = append(processEnvironment, variableName+"="+variableValue)
		}
		processHandle.Env = processEnvironment
	}

	outputBuffer := &bytes.Buffer{}
	errorBuffer := &bytes.Buffer{}
	processHandle.Stdout = outputBuffer
	processHandle.Stderr = errorBuffer
	if len(command.Details.StandardInput) > 0 {
		processHandle.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	runError := processHandle.Run()
	executionResult := ExecutionResult{
		StandardOutput: outputBuffer.String(),
		StandardError:  errorBuffer.String(),
	}
	if runError != nil {
		var exitError *exec.ExitError
		if !errors.As(runError, &exitError) {
			return ExecutionResult{}, runError
		}
		executionResult.ExitCode = exitError.ExitCode()
	}
	return executionResult, nil
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/temirov/smv/cmd/cli"
)

const (
	exitErrorTemplateConstant  = "%v\n"
	defaultFailureExitCodeBase = 1
)

// exitCodeCarrier is implemented by errors that map to a dedicated process exit status.
type exitCodeCarrier interface {
	error
	ExitCode() int
}

// main executes the smv command-line application.
func main() {
	executionError := cli.Execute()
	if executionError == nil {
		return
	}

	fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)

	var codedFailure exitCodeCarrier
	if errors.As(executionError, &codedFailure) {
		os.Exit(codedFailure.ExitCode())
	}

	os.Exit(defaultFailureExitCodeBase)
}

package execshell

// CommandEventObserver is notified as executed commands move through their
// lifecycle. The executor always holds an observer; callers install one to
// surface command activity outside the structured logs.
type CommandEventObserver interface {
	// CommandStarted fires before the command process is launched.
	CommandStarted(command ShellCommand)
	// CommandCompleted fires once the command produced an execution result.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed fires when the command could not run at all.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// discardingCommandEventObserver ignores every event.
type discardingCommandEventObserver struct{}

func (discardingCommandEventObserver) CommandStarted(ShellCommand) {}

func (discardingCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (discardingCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}

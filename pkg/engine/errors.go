package engine

import "fmt"

// UnknownTargetError reports a requested or prerequisite name that resolves
// to neither a rule nor an existing file.
type UnknownTargetError struct {
	Name string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("don't know how to build target %q", e.Name)
}

// CycleError reports a target that transitively depends on itself.
type CycleError struct {
	Name string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency detected: target %q depends on itself", e.Name)
}

// CommandFailedError reports a recipe command that exited with a non-zero
// status. ExitCode carries the subprocess status so callers can propagate it.
type CommandFailedError struct {
	TargetName string
	Command    string
	ExitCode   int
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("target %q: command %q failed with exit status %d", e.TargetName, e.Command, e.ExitCode)
}

package jobs

import (
	"errors"
	"fmt"
	"io/fs"
)

// ToolError is returned when the speed-test tool exits unsuccessfully.
type ToolError struct {
	ExitCode int
	Stderr   string
}

func (e *ToolError) Error() string {
	return "execute command failed: " + e.Stderr
}

// SpawnError is returned when the speed-test tool could not be started.
type SpawnError struct {
	Binary string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("start %s: %v", e.Binary, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ArtifactError wraps a read or write failure on one of the files shared
// with the speed-test tool.
type ArtifactError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *ArtifactError) Error() string {
	err := e.Err
	// *fs.PathError repeats the path
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && pathErr.Path == e.Path {
		err = pathErr.Err
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// FailedError is returned by Orchestrator.Status when the last run failed.
// Its message is the failure message, unchanged.
type FailedError struct {
	Message string
}

func (e *FailedError) Error() string { return e.Message }

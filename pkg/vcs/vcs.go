// Package vcs drives the version control system the history is replayed
// into.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrCommand matches every failed VCS command.
var ErrCommand = errors.New("vcs command failed")

// CommandError describes a failed command invocation.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: exit code %d", strings.Join(e.Args, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

func (e *CommandError) Is(target error) bool { return target == ErrCommand }

// Handler is the set of operations the exporter needs from the target VCS.
// Paths are absolute paths inside the working tree.
type Handler interface {
	// Init creates the repository.
	Init(ctx context.Context) error

	// SetConfig sets a repository configuration value.
	SetConfig(ctx context.Context, name, value string) error

	// Add stages paths. Paths that match no files are not an error.
	Add(ctx context.Context, paths ...string) error

	// AddAll stages every change in the working tree.
	AddAll(ctx context.Context) error

	// Remove deletes path from the working tree and the index.
	Remove(ctx context.Context, path string, recursive bool) error

	// Move renames src to dst in the working tree and the index.
	Move(ctx context.Context, src, dst string) error

	// Commit records the staged changes. It returns false, with no error,
	// when there was nothing to commit.
	Commit(ctx context.Context, author, email, message string, when time.Time) (bool, error)

	// Tag creates a tag on the current commit. An empty message creates a
	// lightweight tag.
	Tag(ctx context.Context, name, tagger, email, message string, when time.Time) (bool, error)
}

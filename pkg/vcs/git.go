package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

const gitDateFormat = "2006-01-02T15:04:05-07:00"

// GitOptions configures the git CLI handler.
type GitOptions struct {
	// Executable is the git binary. Defaults to "git".
	Executable string
	// CommitEncoding is the IANA name of the encoding commit and tag
	// messages are written in. Empty or UTF-8 leaves messages untouched.
	CommitEncoding string
}

// Git implements Handler with the git command line.
type Git struct {
	dir          string
	exe          string
	encodingName string
	encoder      *encoding.Encoder
	logger       *logrus.Entry
}

var _ Handler = (*Git)(nil)

func NewGit(dir string, opts GitOptions, logger *logrus.Entry) (*Git, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	g := &Git{
		dir:    dir,
		exe:    opts.Executable,
		logger: logger.WithField("component", "git"),
	}
	if g.exe == "" {
		g.exe = "git"
	}
	if name := opts.CommitEncoding; name != "" && !strings.EqualFold(name, "utf-8") && !strings.EqualFold(name, "utf8") {
		enc, err := ianaindex.IANA.Encoding(name)
		if err != nil || enc == nil {
			return nil, fmt.Errorf("unsupported commit encoding %q", name)
		}
		g.encodingName = name
		g.encoder = enc.NewEncoder()
	}
	return g, nil
}

// run executes git in the working tree. When unless is set and appears in
// the command's output, a failure is reported as ran == false with no error.
func (g *Git) run(ctx context.Context, stdin []byte, env []string, unless string, args ...string) (bool, error) {
	cmd := exec.CommandContext(ctx, g.exe, append([]string{"-C", g.dir}, args...)...)
	if env != nil {
		cmd.Env = append(os.Environ(), env...)
	}
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	g.logger.WithField("args", args).Debug("Running git")
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	if unless != "" && (strings.Contains(stdout.String(), unless) || strings.Contains(stderr.String(), unless)) {
		return false, nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return false, &CommandError{
		Args:     append([]string{"git"}, args...),
		ExitCode: exitCode,
		Stderr:   strings.TrimSpace(stderr.String()),
		Err:      err,
	}
}

func (g *Git) Init(ctx context.Context) error {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create repository directory: %w", err)
	}
	if _, err := g.run(ctx, nil, nil, "", "init"); err != nil {
		return err
	}
	if g.encoder != nil {
		return g.SetConfig(ctx, "i18n.commitencoding", g.encodingName)
	}
	return nil
}

func (g *Git) SetConfig(ctx context.Context, name, value string) error {
	_, err := g.run(ctx, nil, nil, "", "config", name, value)
	return err
}

func (g *Git) Add(ctx context.Context, paths ...string) error {
	for _, path := range paths {
		// add fails for directories without files
		if _, err := g.run(ctx, nil, nil, "did not match any files", "add", "--", path); err != nil {
			return err
		}
	}
	return nil
}

func (g *Git) AddAll(ctx context.Context) error {
	_, err := g.run(ctx, nil, nil, "did not match any files", "add", "-A")
	return err
}

func (g *Git) Remove(ctx context.Context, path string, recursive bool) error {
	args := []string{"rm"}
	if recursive {
		args = append(args, "-r")
	}
	if _, err := g.run(ctx, nil, nil, "", append(args, "--", path)...); err == nil {
		return nil
	}
	forced := append(append([]string{}, args...), "-f", "--", path)
	if _, err := g.run(ctx, nil, nil, "", forced...); err == nil {
		return nil
	}

	g.logger.WithField("path", path).Warn("git rm failed, removing from working tree")
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return g.AddAll(ctx)
}

func (g *Git) Move(ctx context.Context, src, dst string) error {
	if _, err := g.run(ctx, nil, nil, "", "mv", "--", src, dst); err == nil {
		return nil
	}

	g.logger.WithFields(logrus.Fields{"src": src, "dst": dst}).Warn("git mv failed, renaming in working tree")
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", src, dst, err)
	}
	return g.AddAll(ctx)
}

func (g *Git) identity(name, email string, when time.Time) []string {
	date := when.Format(gitDateFormat)
	return []string{
		"GIT_AUTHOR_NAME=" + name,
		"GIT_AUTHOR_EMAIL=" + email,
		"GIT_AUTHOR_DATE=" + date,
		"GIT_COMMITTER_NAME=" + name,
		"GIT_COMMITTER_EMAIL=" + email,
		"GIT_COMMITTER_DATE=" + date,
	}
}

func (g *Git) encode(message string) ([]byte, error) {
	if g.encoder == nil {
		return []byte(message), nil
	}
	out, err := g.encoder.Bytes([]byte(message))
	if err != nil {
		return nil, fmt.Errorf("failed to encode message as %s: %w", g.encodingName, err)
	}
	return out, nil
}

func (g *Git) Commit(ctx context.Context, author, email, message string, when time.Time) (bool, error) {
	msg, err := g.encode(message)
	if err != nil {
		return false, err
	}
	return g.run(ctx, msg, g.identity(author, email, when), "nothing to commit",
		"commit", "--allow-empty-message", "-F", "-")
}

func (g *Git) Tag(ctx context.Context, name, tagger, email, message string, when time.Time) (bool, error) {
	if message == "" {
		return g.run(ctx, nil, g.identity(tagger, email, when), "", "tag", name)
	}
	msg, err := g.encode(message)
	if err != nil {
		return false, err
	}
	return g.run(ctx, msg, g.identity(tagger, email, when), "", "tag", "-a", name, "-F", "-")
}

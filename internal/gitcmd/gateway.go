package gitcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// Result captures the outcome of one git invocation. A non-zero exit code is
// a normal result, not an error; call sites decide fatality because some
// non-zero exits (rev-parse in an empty repository, config --get with no
// match) are expected, informative outcomes.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Lines splits stdout into lines, dropping the trailing empty line.
func (r Result) Lines() []string {
	out := strings.TrimRight(r.Stdout, "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// FirstLine returns the first line of stdout, or "" if there is none.
func (r Result) FirstLine() string {
	lines := r.Lines()
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[0])
}

// Runner executes git with an argument vector in a working directory.
// The error return is reserved for spawn/IO failures; a git process that
// ran to completion always yields a Result, whatever its exit code.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (Result, error)
}

// ExitError reports a git command that completed with a non-zero exit code,
// carrying the captured stderr verbatim for diagnostics.
type ExitError struct {
	Args   []string
	Result Result
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Result.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(e.Result.Stdout)
	}
	if msg == "" {
		return fmt.Sprintf("git %s exited with code %d", strings.Join(e.Args, " "), e.Result.ExitCode)
	}
	return fmt.Sprintf("git %s exited with code %d: %s", strings.Join(e.Args, " "), e.Result.ExitCode, msg)
}

// Err converts a Result into an *ExitError when the exit code is non-zero.
func (r Result) Err(args ...string) error {
	if r.ExitCode == 0 {
		return nil
	}
	return &ExitError{Args: args, Result: r}
}

// ExecRunner runs git via os/exec.
type ExecRunner struct {
	// Bin is the git executable to invoke. Defaults to "git".
	Bin string
}

// NewExecRunner returns an ExecRunner for the given git binary, verifying it
// can be found on PATH.
func NewExecRunner(bin string) (*ExecRunner, error) {
	if bin == "" {
		bin = "git"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("git is required but not found in PATH: %w", err)
	}
	return &ExecRunner{Bin: bin}, nil
}

// Run executes git with the given arguments, capturing stdout and stderr.
func (r *ExecRunner) Run(ctx context.Context, dir string, args ...string) (Result, error) {
	bin := r.Bin
	if bin == "" {
		bin = "git"
	}

	log.Debug().Str("dir", dir).Msgf("running `git %s`", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			log.Debug().Int("exit", res.ExitCode).Msg("git command finished")
			return res, nil
		}
		return res, fmt.Errorf("running `git %s`: %w", strings.Join(args, " "), err)
	}
	log.Debug().Int("exit", 0).Msg("git command finished")
	return res, nil
}

package unrar

// Package file process.go contains the unrar process lifecycle shared by
// the listing and the extraction drivers.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/Defacto2/unrar/command"
	"golang.org/x/time/rate"
)

// session is a running unrar process with its output streams piped.
// Stdin is always the null device.
type session struct {
	cmd    *exec.Cmd
	prog   string
	stdout io.ReadCloser
	stderr io.ReadCloser
	logger *slog.Logger
	start  time.Time
}

// spawn starts the program with the args. The process is killed when ctx is done.
func spawn(ctx context.Context, c config, prog string, args ...string) (*session, error) {
	cmd := exec.CommandContext(ctx, prog, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %w", ErrSpawn, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stderr pipe: %w", ErrSpawn, err)
	}
	c.logger.Debug("unrar start", "program", prog, "args", redact(args))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSpawn, err)
	}
	return &session{
		cmd:    cmd,
		prog:   prog,
		stdout: stdout,
		stderr: stderr,
		logger: c.logger,
		start:  time.Now(),
	}, nil
}

// wait releases the process and returns its exit error.
// All reads from the pipes must be finished before calling wait.
func (s *session) wait() error {
	err := s.cmd.Wait()
	code := -1
	if s.cmd.ProcessState != nil {
		code = s.cmd.ProcessState.ExitCode()
	}
	s.logger.Debug("unrar exit", "program", s.prog, "code", code, "elapsed", time.Since(s.start))
	return err
}

// drain copies all of r into buf.
func drain(r io.Reader, buf *bytes.Buffer) func() error {
	return func() error {
		if _, err := io.Copy(buf, r); err != nil && !errors.Is(err, io.ErrClosedPipe) {
			return fmt.Errorf("read stderr %w", err)
		}
		return nil
	}
}

// failure classifies the decoded standard error text and the exit error of a
// finished process. It returns nil when stderr is empty and the program exited cleanly.
func (s *session) failure(stderr string, waitErr error) error {
	if stderr != "" {
		if PasswordFailure([]byte(stderr)) {
			return ErrPassword
		}
		return &ToolError{Program: s.prog, Message: stderr, ExitCode: exitCode(waitErr)}
	}
	if waitErr == nil {
		return nil
	}
	var exit *exec.ExitError
	if errors.As(waitErr, &exit) {
		code := exit.ExitCode()
		return &ToolError{Program: s.prog, Message: fmt.Sprintf("exit code %d", code), ExitCode: code}
	}
	return fmt.Errorf("%w: %w", ErrProg, waitErr)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		return exit.ExitCode()
	}
	return -1
}

// redact hides the password in the logged arguments.
func redact(args []string) []string {
	s := make([]string, len(args))
	for i, arg := range args {
		if isPassword(arg) && arg != command.NoPassword {
			s[i] = command.Password + "***"
			continue
		}
		s[i] = arg
	}
	return s
}

func isPassword(arg string) bool {
	return strings.HasPrefix(arg, command.Password)
}

// ProgressFunc receives progress notifications, a percentage such as "45%"
// or "45.00%". It is called synchronously from the goroutine reading the
// program output and must return quickly.
type ProgressFunc func(percent string)

// ChanProgress returns a ProgressFunc that sends every notification to ch.
// The send blocks, so the channel must be drained or given enough capacity.
func ChanProgress(ch chan<- string) ProgressFunc {
	return func(percent string) {
		ch <- percent
	}
}

// emitter delivers progress notifications and logs them at most once a second.
type emitter struct {
	fn        ProgressFunc
	logger    *slog.Logger
	sometimes *rate.Sometimes
}

func newEmitter(fn ProgressFunc, logger *slog.Logger) *emitter {
	return &emitter{
		fn:        fn,
		logger:    logger,
		sometimes: &rate.Sometimes{Interval: time.Second},
	}
}

func (e *emitter) emit(percent string) {
	e.sometimes.Do(func() {
		e.logger.Debug("unrar progress", "percent", percent)
	})
	if e.fn != nil {
		e.fn(percent)
	}
}

// Package procrun supervises one external command per Command: it
// streams stderr line by line for progress heuristics, keeps a bounded
// stderr tail for error reporting, and supports forced termination
// from another goroutine while Run is blocked.
package procrun

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// stderrTailLimit bounds how much stderr is retained for ProcessError.
const stderrTailLimit = 2048

// ProcessError reports a spawn failure or non-zero exit of an external
// command. ExitCode is -1 when the process never started or was killed
// by a signal.
type ProcessError struct {
	Name       string
	ExitCode   int
	StderrTail string
}

func (e *ProcessError) Error() string {
	if e.StderrTail == "" {
		return fmt.Sprintf("%s failed (code %d)", e.Name, e.ExitCode)
	}
	return fmt.Sprintf("%s failed (code %d): %s", e.Name, e.ExitCode, e.StderrTail)
}

// Command is a single supervised invocation. It is single-use: build
// with New, optionally set OnStderrLine, then Run once.
type Command struct {
	name string
	args []string

	// OnStderrLine, when set before Run, is called from Run's goroutine
	// for every stderr line as it arrives.
	OnStderrLine func(line string)

	mu     sync.Mutex
	cmd    *exec.Cmd
	killed bool
	done   bool
}

func New(name string, args ...string) *Command {
	return &Command{name: name, args: args}
}

// Run starts the process and blocks until it exits. It returns nil on
// a zero exit, and a *ProcessError wrapping the captured stderr tail
// otherwise. Context cancellation terminates the process.
func (c *Command) Run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.name, c.args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &ProcessError{Name: c.name, ExitCode: -1, StderrTail: err.Error()}
	}

	c.mu.Lock()
	if c.killed {
		c.mu.Unlock()
		return &ProcessError{Name: c.name, ExitCode: -1, StderrTail: "killed before start"}
	}
	if err := cmd.Start(); err != nil {
		c.mu.Unlock()
		return &ProcessError{Name: c.name, ExitCode: -1, StderrTail: err.Error()}
	}
	c.cmd = cmd
	c.mu.Unlock()

	var tail []byte
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(scanCRLines)
	for scanner.Scan() {
		line := scanner.Text()
		if c.OnStderrLine != nil {
			c.OnStderrLine(line)
		}
		tail = append(tail, line...)
		tail = append(tail, '\n')
		if len(tail) > 4*stderrTailLimit {
			tail = append(tail[:0], tail[len(tail)-2*stderrTailLimit:]...)
		}
	}
	if scanner.Err() != nil {
		// Keep draining so the child never blocks on a full stderr pipe.
		io.Copy(io.Discard, stderr)
	}

	err = cmd.Wait()

	c.mu.Lock()
	c.done = true
	c.mu.Unlock()

	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &ProcessError{Name: c.name, ExitCode: exitCode, StderrTail: tailOf(string(tail))}
	}
	return nil
}

// Kill forcibly terminates the process. It is safe to call from any
// goroutine, before start (the command then refuses to run), during
// execution, and after exit (no-op).
func (c *Command) Kill() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.killed = true
	if c.cmd != nil && c.cmd.Process != nil && !c.done {
		c.cmd.Process.Kill()
	}
}

// scanCRLines splits on \n, \r, and \r\n. Progress bars (whisper's
// tqdm, ffmpeg stats) rewrite a single line with bare carriage returns
// and may never emit a newline, so \n-only splitting would sit on the
// whole stream until the process exits.
func scanCRLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		advance = i + 1
		if data[i] == '\r' {
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					advance = i + 2
				}
			} else if !atEOF {
				// Need one more byte to tell \r from \r\n.
				return 0, nil, nil
			}
		}
		return advance, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// tailOf returns the last stderrTailLimit bytes of s, trimmed.
func tailOf(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTailLimit {
		s = s[len(s)-stderrTailLimit:]
	}
	return s
}

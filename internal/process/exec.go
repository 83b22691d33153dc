package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"sync"
)

// MaxLineSize bounds a single output line; metadata dumps are one long JSON line
const MaxLineSize = 1024 * 1024

// ExecSpawner starts processes with os/exec in their own process group
type ExecSpawner struct{}

// NewExecSpawner creates a spawner backed by os/exec
func NewExecSpawner() *ExecSpawner {
	return &ExecSpawner{}
}

// processTree terminates a child together with everything it spawned
type processTree interface {
	Kill() error
	Close() error
}

type execProcess struct {
	cmd  *exec.Cmd
	ctl  OSController
	tree processTree
}

func (p *execProcess) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Kill terminates the job or process group so post-processors die with yt-dlp
func (p *execProcess) Kill() error {
	pid := p.Pid()
	if pid <= 0 {
		return nil
	}
	if p.tree != nil {
		err := p.tree.Kill()
		if err == nil {
			return nil
		}
		log.Printf("[PROCESS] job kill for pid %d failed: %v", pid, err)
	}
	if err := p.ctl.Kill(pid); err != nil {
		log.Printf("[PROCESS] group kill for pid %d failed, killing process only: %v", pid, err)
		return p.cmd.Process.Kill()
	}
	return nil
}

// Spawn starts name with args and streams its output to h
func (s *ExecSpawner) Spawn(name string, args []string, h Handlers) (Process, error) {
	cmd := exec.Command(name, args...)
	setProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	proc := &execProcess{cmd: cmd, ctl: NewOSController()}
	tree, err := attachTree(cmd)
	if err != nil {
		log.Printf("[PROCESS] pid %d runs without a process tree: %v", proc.Pid(), err)
	} else {
		proc.tree = tree
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanLines(stdout, h.OnStdout)
	}()
	go func() {
		defer wg.Done()
		scanLines(stderr, h.OnStderr)
	}()

	go func() {
		wg.Wait()
		err := cmd.Wait()
		if proc.tree != nil {
			_ = proc.tree.Close()
		}

		var exitErr *exec.ExitError
		switch {
		case err == nil:
			if h.OnExit != nil {
				h.OnExit(0)
			}
		case errors.As(err, &exitErr):
			if h.OnExit != nil {
				h.OnExit(exitErr.ExitCode())
			}
		default:
			if h.OnError != nil {
				h.OnError(err)
			}
		}
	}()

	return proc, nil
}

func scanLines(r io.Reader, fn func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	for scanner.Scan() {
		if fn != nil {
			fn(scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("[PROCESS] output scan stopped: %v", err)
		// keep draining so the child never blocks on a full pipe
		_, _ = io.Copy(io.Discard, r)
	}
}

// ExecRunner runs commands to completion with os/exec
type ExecRunner struct{}

// NewExecRunner creates a runner backed by os/exec
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes name and captures its output. A cancelled context kills the
// whole process group. Non-zero exits return an error along with the output.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	setProcAttr(cmd)
	ctl := NewOSController()
	cmd.Cancel = func() error {
		if err := ctl.Kill(cmd.Process.Pid); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%s: %w", name, ctxErr)
	}
	if err != nil {
		return res, fmt.Errorf("%s failed: %w", name, err)
	}
	return res, nil
}

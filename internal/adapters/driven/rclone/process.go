package rclone

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cloudmirror-cli/internal/logger"
)

// Ensure Process implements the interface.
var _ driven.EngineProcess = (*Process)(nil)

// DefaultGracePeriod is how long Stop waits after SIGINT before killing.
const DefaultGracePeriod = 5 * time.Second

// ProcessConfig configures the daemon command line.
type ProcessConfig struct {
	// Binary is the rclone executable (default: "rclone").
	Binary string

	// Addr is passed as --rc-addr (default: localhost:5572).
	Addr string

	// ExtraArgs are appended after the required flags.
	ExtraArgs []string

	// GracePeriod bounds the wait after SIGINT (default: 5s).
	GracePeriod time.Duration
}

// Process runs "rclone rcd" as a child process.
type Process struct {
	cfg ProcessConfig

	// newCmd builds the command; tests replace it.
	newCmd func(name string, args ...string) *exec.Cmd

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// NewProcess creates a daemon process manager. Nothing runs until Start.
func NewProcess(cfg ProcessConfig) *Process {
	if cfg.Binary == "" {
		cfg.Binary = "rclone"
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.GracePeriod == 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	return &Process{cfg: cfg, newCmd: exec.Command}
}

// Args returns the daemon arguments.
func (p *Process) Args() []string {
	args := []string{
		"rcd",
		"--rc-no-auth",
		"--rc-addr=" + p.cfg.Addr,
		"--rc-enable-metrics",
	}
	return append(args, p.cfg.ExtraArgs...)
}

// Start launches the daemon. The process is not tied to ctx; it runs until Stop.
func (p *Process) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return fmt.Errorf("%s already started (pid %d)", p.cfg.Binary, p.cmd.Process.Pid)
	}

	cmd := p.newCmd(p.cfg.Binary, p.Args()...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.cfg.Binary, err)
	}

	done := make(chan struct{})
	p.cmd = cmd
	p.done = done
	p.err = nil

	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
		close(done)
	}()

	logger.Debug("started %s (pid %d) on %s", p.cfg.Binary, cmd.Process.Pid, p.cfg.Addr)
	return nil
}

// Running reports whether a started daemon has not exited yet.
func (p *Process) Running() bool {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Stop interrupts the daemon, kills it after the grace period, and waits for
// it to exit. Stopping a daemon that was never started is a no-op.
func (p *Process) Stop(ctx context.Context) error {
	p.mu.Lock()
	cmd, done := p.cmd, p.done
	p.mu.Unlock()

	if cmd == nil {
		return nil
	}

	select {
	case <-done:
		return p.reset()
	default:
	}

	if err := cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		logger.Warn("interrupt %s: %v", p.cfg.Binary, err)
	}

	timer := time.NewTimer(p.cfg.GracePeriod)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		logger.Warn("%s did not exit after %s, killing", p.cfg.Binary, p.cfg.GracePeriod)
		p.kill(cmd)
		<-done
	case <-ctx.Done():
		p.kill(cmd)
		<-done
		_ = p.reset()
		return ctx.Err()
	}

	return p.reset()
}

func (p *Process) kill(cmd *exec.Cmd) {
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		logger.Warn("kill %s: %v", p.cfg.Binary, err)
	}
}

// reset clears the finished command. An exit caused by our own signal is not an error.
func (p *Process) reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.err
	p.cmd = nil
	p.done = nil
	p.err = nil

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		logger.Debug("%s exited: %v", p.cfg.Binary, exitErr)
		return nil
	}
	if err != nil {
		return fmt.Errorf("wait %s: %w", p.cfg.Binary, err)
	}
	return nil
}

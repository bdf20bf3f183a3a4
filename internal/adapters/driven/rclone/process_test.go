package rclone

import (
	"context"
	"os"
	"os/exec"
	"os/signal"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess is not a real test. It stands in for the daemon when
// re-executed by helperCommand.
func TestHelperProcess(t *testing.T) {
	mode := os.Getenv("CLOUDMIRROR_HELPER_PROCESS")
	if mode == "" {
		return
	}
	switch mode {
	case "ignore-interrupt":
		signal.Ignore(os.Interrupt)
	case "exit":
		os.Exit(0)
	default:
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt)
		select {
		case <-ch:
			os.Exit(0)
		case <-time.After(30 * time.Second):
			os.Exit(2)
		}
	}
	time.Sleep(30 * time.Second)
	os.Exit(2)
}

func helperCommand(mode string) func(string, ...string) *exec.Cmd {
	return func(name string, args ...string) *exec.Cmd {
		cmd := exec.Command(os.Args[0], "-test.run=TestHelperProcess", "--")
		cmd.Env = append(os.Environ(), "CLOUDMIRROR_HELPER_PROCESS="+mode)
		return cmd
	}
}

func TestProcess_Args(t *testing.T) {
	p := NewProcess(ProcessConfig{Addr: ":5574", ExtraArgs: []string{"--log-level", "INFO"}})

	assert.Equal(t, []string{
		"rcd", "--rc-no-auth", "--rc-addr=:5574", "--rc-enable-metrics", "--log-level", "INFO",
	}, p.Args())
}

func TestProcess_Defaults(t *testing.T) {
	p := NewProcess(ProcessConfig{})
	assert.Equal(t, "rclone", p.cfg.Binary)
	assert.Equal(t, DefaultAddr, p.cfg.Addr)
	assert.Equal(t, DefaultGracePeriod, p.cfg.GracePeriod)
	assert.False(t, p.Running())
}

func TestProcess_StopWithoutStart(t *testing.T) {
	p := NewProcess(ProcessConfig{})
	assert.NoError(t, p.Stop(context.Background()))
}

func TestProcess_StartMissingBinary(t *testing.T) {
	p := NewProcess(ProcessConfig{Binary: "cloudmirror-no-such-binary"})
	err := p.Start(context.Background())
	require.Error(t, err)
	assert.False(t, p.Running())
}

func TestProcess_StartAndInterrupt(t *testing.T) {
	p := NewProcess(ProcessConfig{GracePeriod: 10 * time.Second})
	p.newCmd = helperCommand("wait-interrupt")

	require.NoError(t, p.Start(context.Background()))
	assert.True(t, p.Running())

	// Starting twice is rejected while the first daemon runs.
	assert.Error(t, p.Start(context.Background()))

	// Give the helper a moment to install its signal handler.
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, p.Stop(context.Background()))
	assert.False(t, p.Running())
}

func TestProcess_KilledAfterGrace(t *testing.T) {
	p := NewProcess(ProcessConfig{GracePeriod: 100 * time.Millisecond})
	p.newCmd = helperCommand("ignore-interrupt")

	require.NoError(t, p.Start(context.Background()))
	time.Sleep(200 * time.Millisecond)

	start := time.Now()
	require.NoError(t, p.Stop(context.Background()))
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.False(t, p.Running())
}

func TestProcess_StopAfterExit(t *testing.T) {
	p := NewProcess(ProcessConfig{})
	p.newCmd = helperCommand("exit")

	require.NoError(t, p.Start(context.Background()))
	require.Eventually(t, func() bool { return !p.Running() }, 10*time.Second, 10*time.Millisecond)

	assert.NoError(t, p.Stop(context.Background()))

	// A stopped process can be started again.
	require.NoError(t, p.Start(context.Background()))
	assert.NoError(t, p.Stop(context.Background()))
}

func TestProcess_StartCancelledContext(t *testing.T) {
	p := NewProcess(ProcessConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Start(ctx), context.Canceled)
}

// Package mount provides the OS force-unmount primitive.
package mount

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cloudmirror-cli/internal/logger"
)

// Ensure Unmounter implements the interface.
var _ driven.Unmounter = (*Unmounter)(nil)

// Unmounter force-unmounts FUSE mountpoints with the platform tool:
// "fusermount -uz" on Linux and "umount -f" elsewhere.
type Unmounter struct {
	name string
	args []string

	// run executes the command and returns its combined output; tests replace it.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewUnmounter creates an unmounter for the current platform.
func NewUnmounter() *Unmounter {
	return newUnmounter(runtime.GOOS)
}

func newUnmounter(goos string) *Unmounter {
	u := &Unmounter{run: runCommand}
	if goos == "linux" {
		u.name, u.args = "fusermount", []string{"-uz"}
	} else {
		u.name, u.args = "umount", []string{"-f"}
	}
	return u
}

// Command returns the command line used for mountpoint.
func (u *Unmounter) Command(mountpoint string) []string {
	return append(append([]string{u.name}, u.args...), mountpoint)
}

// Unmount runs the unmount command. A non-zero exit is an error carrying the tool's output.
func (u *Unmounter) Unmount(ctx context.Context, mountpoint string) error {
	cmdline := u.Command(mountpoint)
	logger.Debug("unmounting %s", mountpoint)

	out, err := u.run(ctx, cmdline[0], cmdline[1:]...)
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("%s %s: %w", u.name, mountpoint, err)
		}
		return fmt.Errorf("%s %s: %w: %s", u.name, mountpoint, err, msg)
	}
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.Bytes(), err
}

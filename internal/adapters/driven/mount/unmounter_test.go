package mount

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnmounter_PlatformCommand(t *testing.T) {
	tests := []struct {
		goos string
		want []string
	}{
		{"linux", []string{"fusermount", "-uz", "/mnt/gdrive"}},
		{"darwin", []string{"umount", "-f", "/mnt/gdrive"}},
		{"freebsd", []string{"umount", "-f", "/mnt/gdrive"}},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			assert.Equal(t, tt.want, newUnmounter(tt.goos).Command("/mnt/gdrive"))
		})
	}
}

func TestUnmounter_Success(t *testing.T) {
	u := newUnmounter("linux")
	var got []string
	u.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		got = append([]string{name}, args...)
		return nil, nil
	}

	require.NoError(t, u.Unmount(context.Background(), "/mnt/b2"))
	assert.Equal(t, []string{"fusermount", "-uz", "/mnt/b2"}, got)
}

func TestUnmounter_FailureIncludesOutput(t *testing.T) {
	u := newUnmounter("linux")
	exitErr := errors.New("exit status 1")
	u.run = func(context.Context, string, ...string) ([]byte, error) {
		return []byte("fusermount: entry for /mnt/b2 not found in /etc/mtab\n"), exitErr
	}

	err := u.Unmount(context.Background(), "/mnt/b2")
	require.Error(t, err)
	assert.ErrorIs(t, err, exitErr)
	assert.Contains(t, err.Error(), "not found in /etc/mtab")
}

func TestUnmounter_FailureWithoutOutput(t *testing.T) {
	u := newUnmounter("darwin")
	u.run = func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 64")
	}

	err := u.Unmount(context.Background(), "/mnt/b2")
	require.Error(t, err)
	assert.Equal(t, "umount /mnt/b2: exit status 64", err.Error())
}

func TestRunCommand_MissingBinary(t *testing.T) {
	_, err := runCommand(context.Background(), "cloudmirror-no-such-tool")
	assert.Error(t, err)
}

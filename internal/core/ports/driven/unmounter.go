package driven

import "context"

// Unmounter force-unmounts filesystems.
type Unmounter interface {
	// Unmount force-unmounts the filesystem at mountpoint.
	Unmount(ctx context.Context, mountpoint string) error
}

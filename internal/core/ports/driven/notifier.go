package driven

import "context"

// ChangeNotifier reports filesystem changes below a set of paths.
type ChangeNotifier interface {
	// Watch starts watching paths. The returned channel receives the path
	// of every change and is closed when ctx is done.
	Watch(ctx context.Context, paths []string) (<-chan string, error)
}

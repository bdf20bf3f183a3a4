package domain

import "time"

// CacheBackend selects where the change cache is persisted.
type CacheBackend string

// Available cache backends.
const (
	// CacheBackendFile stores the cache as a gob-encoded file.
	CacheBackendFile CacheBackend = "file"

	// CacheBackendSQLite stores the cache in the state database.
	CacheBackendSQLite CacheBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b CacheBackend) IsValid() bool {
	return b == CacheBackendFile || b == CacheBackendSQLite
}

// String returns the string representation.
func (b CacheBackend) String() string {
	return string(b)
}

// EngineSettings configures the transfer engine daemon.
type EngineSettings struct {
	// Binary is the engine executable, looked up on PATH.
	Binary string

	// Addr is the host:port the RC server listens on.
	Addr string

	// ExtraArgs are appended to the daemon command line.
	ExtraArgs []string

	// MinVersion is the oldest engine version accepted. Empty disables the check.
	MinVersion string

	// StartTimeout bounds the readiness probe after launch.
	StartTimeout time.Duration
}

// JobSettings configures job polling.
type JobSettings struct {
	// PollInterval is the delay between status poll cycles.
	PollInterval time.Duration

	// Timeout is how long a job may stay pending before it is failed.
	Timeout time.Duration

	// MaxPollErrors is the number of consecutive failed status checks
	// after which a job is failed.
	MaxPollErrors int
}

// AppSettings holds all user-configurable settings.
type AppSettings struct {
	Engine       EngineSettings
	Jobs         JobSettings
	CacheBackend CacheBackend

	// ManifestPath is the upload manifest location. Empty uses the default.
	ManifestPath string
}

// DefaultAppSettings returns the settings used when nothing is configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Engine: EngineSettings{
			Binary:       "rclone",
			Addr:         "localhost:5572",
			StartTimeout: 30 * time.Second,
		},
		Jobs: JobSettings{
			PollInterval:  time.Second,
			Timeout:       6 * time.Hour,
			MaxPollErrors: 60,
		},
		CacheBackend: CacheBackendFile,
	}
}

package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/cloudmirror-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/cloudmirror-cli/internal/adapters/driven/filesystem"
	"github.com/custodia-labs/cloudmirror-cli/internal/adapters/driven/mount"
	"github.com/custodia-labs/cloudmirror-cli/internal/adapters/driven/rclone"
	filecache "github.com/custodia-labs/cloudmirror-cli/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/cloudmirror-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/cloudmirror-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/cloudmirror-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/services"
	"github.com/custodia-labs/cloudmirror-cli/internal/logger"
)

// configDir is the settings directory; empty means ~/.cloudmirror.
var configDir string

// buildServices wires adapters into the core services.
func buildServices(opts cli.Options) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	path := opts.ManifestPath
	if path == "" {
		path = settings.ManifestPath
	}
	if path == "" {
		path = filepath.Join(filepath.Dir(configStore.Path()), file.DefaultManifestName)
	}
	manifests, err := file.NewManifestSource(path)
	if err != nil {
		return nil, err
	}

	dataDir := filepath.Join(filepath.Dir(configStore.Path()), "data")

	var closers []func() error
	var runStore driven.RunStore
	var cacheStore driven.CacheStore

	store, storeErr := sqlite.NewStore(dataDir)
	if storeErr != nil {
		logger.Warn("run history unavailable: %v", storeErr)
		runStore = memory.NewRunStore()
	} else {
		closers = append(closers, store.Close)
		runStore = store.RunStore()
	}

	switch settings.CacheBackend {
	case domain.CacheBackendSQLite:
		if storeErr != nil {
			return nil, fmt.Errorf("open cache database: %w", storeErr)
		}
		cacheStore = store.CacheStore()
	default:
		fc, ferr := filecache.NewCacheStore(dataDir)
		if ferr != nil {
			return nil, ferr
		}
		cacheStore = fc
	}
	logger.Debug("config %s, manifest %s, cache backend %s", configStore.Path(), manifests.Path(), settings.CacheBackend)

	client := rclone.NewClient(rclone.ClientConfig{Addr: settings.Engine.Addr})
	process := rclone.NewProcess(rclone.ProcessConfig{
		Binary:    settings.Engine.Binary,
		Addr:      settings.Engine.Addr,
		ExtraArgs: settings.Engine.ExtraArgs,
	})

	orch := services.NewSyncOrchestrator(
		manifests,
		cacheStore,
		client,
		process,
		mount.NewUnmounter(),
		filesystem.NewInspector(),
		runStore,
		*settings,
	)

	return &cli.Services{
		Settings:     settingsService,
		Sync:         orch,
		History:      services.NewHistoryService(runStore),
		Watch:        services.NewWatchService(orch, manifests, filesystem.NewNotifier()),
		ManifestPath: manifests.Path(),
		Close: func() error {
			var errs []error
			for _, c := range closers {
				errs = append(errs, c())
			}
			return errors.Join(errs...)
		},
	}, nil
}

package services

import (
	"context"
	"fmt"
	"time"

	goversion "github.com/hashicorp/go-version"
	"github.com/jonboulle/clockwork"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cloudmirror-cli/internal/logger"
)

// defaultReadyInterval is the delay between readiness probes.
const defaultReadyInterval = 250 * time.Millisecond

// EngineHandle owns the lifecycle of the transfer engine for one run.
// A handle created for an engine that is already running never starts or
// stops the daemon; it only checks that it answers.
type EngineHandle struct {
	engine         driven.TransferEngine
	process        driven.EngineProcess
	alreadyRunning bool
	startTimeout   time.Duration
	minVersion     string
	readyInterval  time.Duration
	clock          clockwork.Clock

	started bool
	version string
}

// NewEngineHandle creates a handle. process may be nil when alreadyRunning is set.
func NewEngineHandle(
	engine driven.TransferEngine,
	process driven.EngineProcess,
	settings domain.EngineSettings,
	alreadyRunning bool,
) *EngineHandle {
	timeout := settings.StartTimeout
	if timeout <= 0 {
		timeout = domain.DefaultAppSettings().Engine.StartTimeout
	}
	return &EngineHandle{
		engine:         engine,
		process:        process,
		alreadyRunning: alreadyRunning,
		startTimeout:   timeout,
		minVersion:     settings.MinVersion,
		readyInterval:  defaultReadyInterval,
		clock:          clockwork.NewRealClock(),
	}
}

// Engine returns the engine the handle manages.
func (h *EngineHandle) Engine() driven.TransferEngine {
	return h.engine
}

// AlreadyRunning reports whether the engine was started by someone else.
func (h *EngineHandle) AlreadyRunning() bool {
	return h.alreadyRunning
}

// Version returns the engine version seen by Start, if it was checked.
func (h *EngineHandle) Version() string {
	return h.version
}

// Start launches the engine unless it is already running, then waits until
// it answers its readiness probe. If a minimum version is configured the
// running engine is checked against it. A daemon this handle launched is
// stopped again when any later step fails.
func (h *EngineHandle) Start(ctx context.Context) error {
	if !h.alreadyRunning {
		if h.process == nil {
			return fmt.Errorf("%w: no engine process configured", domain.ErrEngineStart)
		}
		logger.Info("Starting transfer engine")
		if err := h.process.Start(ctx); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrEngineStart, err)
		}
		h.started = true
	}

	if err := h.waitReady(ctx); err != nil {
		h.abort(ctx)
		return err
	}
	if err := h.checkVersion(ctx); err != nil {
		h.abort(ctx)
		return err
	}

	logger.Info("Transfer engine ready")
	return nil
}

// Stop terminates the daemon if this handle started it.
func (h *EngineHandle) Stop(ctx context.Context) error {
	if !h.started {
		return nil
	}
	h.started = false
	logger.Info("Stopping transfer engine")
	if err := h.process.Stop(ctx); err != nil {
		return fmt.Errorf("stop engine: %w", err)
	}
	return nil
}

func (h *EngineHandle) abort(ctx context.Context) {
	if err := h.Stop(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("Failed to stop engine after startup error: %v", err)
	}
}

func (h *EngineHandle) waitReady(ctx context.Context) error {
	deadline := h.clock.Now().Add(h.startTimeout)
	for {
		err := h.engine.Ready(ctx)
		if err == nil {
			return nil
		}
		logger.Debug("Engine not ready yet: %v", err)

		if !h.clock.Now().Before(deadline) {
			return fmt.Errorf("%w after %s: %w", domain.ErrEngineNotReady, h.startTimeout, err)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", domain.ErrEngineNotReady, ctx.Err())
		case <-h.clock.After(h.readyInterval):
		}
	}
}

func (h *EngineHandle) checkVersion(ctx context.Context) error {
	if h.minVersion == "" {
		return nil
	}
	required, err := goversion.NewVersion(h.minVersion)
	if err != nil {
		return &domain.ConfigError{Section: "engine.min_version", Reason: err.Error()}
	}

	resp, err := h.engine.Call(ctx, driven.RCRequest{Command: RouteVersion})
	if err != nil {
		return fmt.Errorf("%w: query version: %w", domain.ErrEngineStart, err)
	}
	h.version = resp.Version

	running, err := goversion.NewVersion(resp.Version)
	if err != nil {
		return fmt.Errorf("%w: unparseable version %q", domain.ErrEngineVersion, resp.Version)
	}
	if running.LessThan(required) {
		return fmt.Errorf("%w: running %s, need %s or newer", domain.ErrEngineVersion, running, required)
	}
	return nil
}

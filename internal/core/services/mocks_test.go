package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driving"
)

// --- Fakes shared by the service tests ---

// fakeCacheStore implements driven.CacheStore in memory.
type fakeCacheStore struct {
	mu      sync.Mutex
	data    map[string]domain.CacheEntry
	loadErr error
	saveErr error
	saves   int
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{}
}

func (s *fakeCacheStore) Load(_ context.Context) (map[string]domain.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.data == nil {
		return nil, nil
	}
	out := make(map[string]domain.CacheEntry, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out, nil
}

func (s *fakeCacheStore) Save(_ context.Context, entries map[string]domain.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data = entries
	return nil
}

func (s *fakeCacheStore) persisted() map[string]domain.CacheEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// fakeJob is a job created by fakeEngine.
type fakeJob struct {
	req     driven.RCRequest
	polls   int
	success bool
	errText string
}

// fakeEngine implements driven.TransferEngine. It assigns job ids,
// finishes every job after pollsToFinish status checks, and lets tests
// script rejections and failures.
type fakeEngine struct {
	mu     sync.Mutex
	nextID int64
	calls  []driven.RCRequest
	jobs   map[int64]*fakeJob

	// pollsToFinish is how many status checks a job stays pending for.
	pollsToFinish int
	// finishAfter overrides pollsToFinish for individual job ids.
	finishAfter map[int64]int
	// reject returns an error to refuse a submission.
	reject func(req driven.RCRequest) error
	// fail returns a non-empty error text to finish a job unsuccessfully.
	fail func(req driven.RCRequest) string
	// statusErr returns an error for the given status check of a job.
	statusErr func(id int64, attempt int) error
	// never keeps every job pending forever.
	never bool

	readyErr   error
	readyCalls int
	version    string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{jobs: make(map[int64]*fakeJob), version: "v1.66.0"}
}

func (e *fakeEngine) Call(_ context.Context, req driven.RCRequest) (*driven.RCResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, req)

	switch req.Command {
	case RouteVersion:
		return &driven.RCResponse{Version: e.version}, nil
	case RouteJobStatus:
		id, err := strconv.ParseInt(req.Params["jobid"], 10, 64)
		if err != nil {
			return nil, err
		}
		job, ok := e.jobs[id]
		if !ok {
			return nil, fmt.Errorf("job not found: %d", id)
		}
		job.polls++
		if e.statusErr != nil {
			if err := e.statusErr(id, job.polls); err != nil {
				return nil, err
			}
		}
		need := e.pollsToFinish
		if n, ok := e.finishAfter[id]; ok {
			need = n
		}
		if e.never || job.polls < need {
			return &driven.RCResponse{JobID: id}, nil
		}
		return &driven.RCResponse{JobID: id, Finished: true, Success: job.success, Error: job.errText}, nil
	}

	if e.reject != nil {
		if err := e.reject(req); err != nil {
			return nil, err
		}
	}
	e.nextID++
	job := &fakeJob{req: req, success: true}
	if e.fail != nil {
		if text := e.fail(req); text != "" {
			job.success = false
			job.errText = text
		}
	}
	e.jobs[e.nextID] = job
	return &driven.RCResponse{JobID: e.nextID}, nil
}

func (e *fakeEngine) Ready(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.readyCalls++
	return e.readyErr
}

// submissions returns the requests sent to route, in order.
func (e *fakeEngine) submissions(route string) []driven.RCRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []driven.RCRequest
	for _, c := range e.calls {
		if c.Command == route {
			out = append(out, c)
		}
	}
	return out
}

// pollCount returns how many status checks job id received.
func (e *fakeEngine) pollCount(id int64) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if job, ok := e.jobs[id]; ok {
		return job.polls
	}
	return 0
}

// fakeProcess implements driven.EngineProcess.
type fakeProcess struct {
	mu       sync.Mutex
	starts   int
	stops    int
	startErr error
	stopErr  error
}

func (p *fakeProcess) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.starts++
	return p.startErr
}

func (p *fakeProcess) Stop(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	return p.stopErr
}

// fakeUnmounter implements driven.Unmounter.
type fakeUnmounter struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (u *fakeUnmounter) Unmount(_ context.Context, mountpoint string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls = append(u.calls, mountpoint)
	if u.fail[mountpoint] {
		return errors.New("device busy")
	}
	return nil
}

func (u *fakeUnmounter) unmounted() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := append([]string(nil), u.calls...)
	sort.Strings(out)
	return out
}

// fakeInspector implements driven.PathInspector from a fixed table.
type fakeInspector struct {
	mu    sync.Mutex
	paths map[string]driven.PathInfo
	errs  map[string]error
}

func newFakeInspector() *fakeInspector {
	return &fakeInspector{paths: make(map[string]driven.PathInfo), errs: make(map[string]error)}
}

func (f *fakeInspector) Inspect(path string) (driven.PathInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[path]; err != nil {
		return driven.PathInfo{}, err
	}
	info, ok := f.paths[path]
	if !ok {
		return driven.PathInfo{Kind: driven.PathMissing}, nil
	}
	return info, nil
}

func (f *fakeInspector) set(path string, info driven.PathInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths[path] = info
}

// fakeManifestSource implements driven.ManifestSource.
type fakeManifestSource struct {
	manifest *domain.Manifest
	err      error
}

func (f *fakeManifestSource) Manifest() (*domain.Manifest, error) {
	if f.err != nil {
		return nil, f.err
	}
	// Validate mutates remotes; hand out a copy per run.
	m := *f.manifest
	m.Items = make([]domain.UploadItem, len(f.manifest.Items))
	for i, item := range f.manifest.Items {
		item.TargetRemotes = append([]string(nil), item.TargetRemotes...)
		m.Items[i] = item
	}
	return &m, nil
}

// fakeRunStore implements driven.RunStore.
type fakeRunStore struct {
	mu      sync.Mutex
	records []domain.RunRecord
	err     error
	listErr error
}

func (s *fakeRunStore) RecordRun(_ context.Context, rec domain.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *fakeRunStore) ListRuns(_ context.Context, limit int) ([]domain.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.RunRecord, 0, len(s.records))
	for i := len(s.records) - 1; i >= 0; i-- {
		out = append(out, s.records[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// fakeNotifier implements driven.ChangeNotifier with a channel the test feeds.
type fakeNotifier struct {
	mu     sync.Mutex
	events chan string
	paths  []string
	err    error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{events: make(chan string, 16)}
}

func (n *fakeNotifier) Watch(_ context.Context, paths []string) (<-chan string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return nil, n.err
	}
	n.paths = append([]string(nil), paths...)
	return n.events, nil
}

func (n *fakeNotifier) watched() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

// fakeOrchestrator implements driving.SyncOrchestrator by counting runs.
type fakeOrchestrator struct {
	mu    sync.Mutex
	runs  []driving.RunOptions
	delay time.Duration
	err   error

	active  int
	overlap bool
}

func (o *fakeOrchestrator) Run(ctx context.Context, opts driving.RunOptions) (*domain.RunSummary, error) {
	o.mu.Lock()
	o.active++
	if o.active > 1 {
		o.overlap = true
	}
	o.mu.Unlock()

	if o.delay > 0 {
		select {
		case <-time.After(o.delay):
		case <-ctx.Done():
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.active--
	o.runs = append(o.runs, opts)
	if o.err != nil {
		return nil, o.err
	}
	return &domain.RunSummary{RunID: "run"}, nil
}

func (o *fakeOrchestrator) Status(context.Context) ([]driving.ItemStatus, error) {
	return nil, nil
}

func (o *fakeOrchestrator) runCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.runs)
}

func (o *fakeOrchestrator) overlapped() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.overlap
}

// Package dashboard serves the live chat model usage dashboard. A fetch runs
// in the background and the page re-renders the classification of whatever
// has been fetched so far.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/younsl/n8n-model-tracker/internal/config"
	"github.com/younsl/n8n-model-tracker/pkg/fetcher"
	"github.com/younsl/n8n-model-tracker/pkg/metrics"
	"github.com/younsl/n8n-model-tracker/pkg/models"
	"github.com/younsl/n8n-model-tracker/pkg/tracker"
)

// ErrFetchInProgress is returned by StartFetch while another fetch runs.
var ErrFetchInProgress = errors.New("a workflow fetch is already running")

type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// FetchRequest holds per-fetch overrides. Empty or zero fields fall back to
// the configured defaults.
type FetchRequest struct {
	BaseURL   string
	APIKey    string
	BatchSize int
}

// Snapshot is the dashboard state at one point in time.
type Snapshot struct {
	Status    Status
	Message   string
	Fetched   int
	StartedAt time.Time
	// Result is the in-progress, failed-partial or cached classification.
	Result *models.ScanResult
}

// SourceFunc builds the workflow source for one fetch.
type SourceFunc func(FetchRequest) tracker.Source

type Options struct {
	Config   *config.Config
	Cache    *tracker.Cache
	Recorder *metrics.Recorder
	// Gatherer backs /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer
	// NewSource overrides how fetch requests become workflow sources.
	NewSource SourceFunc
}

type Server struct {
	cfg       *config.Config
	cache     *tracker.Cache
	recorder  *metrics.Recorder
	gatherer  prometheus.Gatherer
	newSource SourceFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
	state   Snapshot
}

func NewServer(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{BatchSize: config.DefaultBatchSize}
	}
	cache := opts.Cache
	if cache == nil {
		cache = tracker.NewCache()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:       cfg,
		cache:     cache,
		recorder:  opts.Recorder,
		gatherer:  gatherer,
		newSource: opts.NewSource,
		ctx:       ctx,
		cancel:    cancel,
		state:     Snapshot{Status: StatusIdle},
	}
	if s.newSource == nil {
		s.newSource = s.fetcherSource
	}
	return s
}

// Resolve applies configured defaults to the empty fields of req.
func (s *Server) Resolve(req FetchRequest) FetchRequest {
	if strings.TrimSpace(req.BaseURL) == "" {
		req.BaseURL = s.cfg.N8NBaseURL
	}
	if strings.TrimSpace(req.APIKey) == "" {
		req.APIKey = s.cfg.N8NAPIKey
	}
	if req.BatchSize == 0 {
		req.BatchSize = s.cfg.BatchSize
	}
	return req
}

func (s *Server) fetcherSource(req FetchRequest) tracker.Source {
	return fetcher.New(fetcher.Options{
		Endpoint: fetcher.ResolveEndpoint(req.BaseURL),
		APIKey:   req.APIKey,
		PageSize: req.BatchSize,
		Timeout:  s.cfg.RequestTimeoutDuration(),
	})
}

// StartFetch launches a background fetch. Only one fetch runs at a time.
func (s *Server) StartFetch(req FetchRequest) error {
	req = s.Resolve(req)
	if req.BatchSize < config.MinBatchSize || req.BatchSize > config.MaxBatchSize {
		return fmt.Errorf("batch size must be between %d and %d, got %d", config.MinBatchSize, config.MaxBatchSize, req.BatchSize)
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrFetchInProgress
	}
	s.running = true
	s.state = Snapshot{
		Status:    StatusRunning,
		Message:   "Fetching workflows...",
		StartedAt: time.Now(),
	}
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"baseURL":   req.BaseURL,
		"batchSize": req.BatchSize,
	}).Info("Dashboard fetch requested")

	source := s.newSource(req)
	s.wg.Add(1)
	go s.run(source)
	return nil
}

func (s *Server) run(source tracker.Source) {
	defer s.wg.Done()

	result, err := tracker.NewTracker(source, s.recorder).Run(s.ctx, func(partial *models.ScanResult) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.state.Result = partial
		s.state.Fetched = partial.TotalWorkflows()
		s.state.Message = fmt.Sprintf("Fetched %d workflows...", partial.TotalWorkflows())
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.state.Result = result
	if err != nil {
		s.state.Status = StatusFailed
		s.state.Message = err.Error()
		return
	}
	s.cache.Set(result)
	s.state.Status = StatusComplete
	s.state.Fetched = result.TotalWorkflows()
	s.state.Message = "Workflows fetched successfully!"
}

// Snapshot returns the current state. When no fetch is running or failed,
// the result comes from the cache.
func (s *Server) Snapshot() Snapshot {
	s.mu.Lock()
	snap := s.state
	s.mu.Unlock()

	if snap.Status == StatusRunning || snap.Status == StatusFailed {
		return snap
	}
	if cached, ok := s.cache.Get(); ok {
		snap.Result = cached
	} else {
		snap.Result = nil
	}
	return snap
}

// Refresh drops the cached result. A running fetch is left alone.
func (s *Server) Refresh() {
	s.cache.Invalidate()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		s.state = Snapshot{Status: StatusIdle}
	}
	logrus.Info("Dashboard cache invalidated")
}

// Wait blocks until the background fetch, if any, has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

// Close cancels a running fetch and waits for it to stop.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

func parseFetchRequest(r *http.Request) (FetchRequest, error) {
	if err := r.ParseForm(); err != nil {
		return FetchRequest{}, fmt.Errorf("invalid form: %w", err)
	}

	req := FetchRequest{
		BaseURL: strings.TrimSpace(r.PostFormValue("base_url")),
		APIKey:  strings.TrimSpace(r.PostFormValue("api_key")),
	}
	if raw := strings.TrimSpace(r.PostFormValue("batch_size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < config.MinBatchSize || size > config.MaxBatchSize {
			return FetchRequest{}, fmt.Errorf("batch size must be a number between %d and %d", config.MinBatchSize, config.MaxBatchSize)
		}
		req.BatchSize = size
	}
	return req, nil
}

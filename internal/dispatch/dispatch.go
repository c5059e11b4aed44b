// Package dispatch serializes execution requests and runs each one through
// the primary API, the fallback API and finally the simulated executor.
//
// A Dispatcher is safe for concurrent use. Requests are processed strictly in
// submission order by a single drain goroutine, so at most one remote call is
// in flight per Dispatcher. Every settled result is cached by fingerprint.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Norgate-AV/labrun/internal/cache"
	"github.com/Norgate-AV/labrun/internal/compiler"
	"github.com/Norgate-AV/labrun/internal/execution"
	"github.com/Norgate-AV/labrun/internal/language"
	"github.com/Norgate-AV/labrun/internal/simulated"
)

// DefaultProbeTimeout bounds each endpoint check made by Probe
const DefaultProbeTimeout = 5 * time.Second

// Config wires a Dispatcher to its collaborators.
// Nil Primary or Fallback runners are skipped.
type Config struct {
	Primary      compiler.Runner
	Fallback     compiler.Runner
	Simulator    *simulated.Executor
	Cache        *cache.Cache
	Logger       *log.Logger
	ProbeTimeout time.Duration
}

// Status is a snapshot of the dispatcher state
type Status struct {
	Initialized bool          `json:"isInitialized"`
	CacheSize   int           `json:"cacheSize"`
	CacheHits   int64         `json:"cacheHits"`
	CacheMisses int64         `json:"cacheMisses"`
	QueueSize   int           `json:"queueSize"`
	Busy        bool          `json:"busy"`
	Languages   []language.ID `json:"languages"`
	LastProbe   *ProbeResult  `json:"lastProbe,omitempty"`
}

// ProbeResult reports which remote endpoints answered
type ProbeResult struct {
	Primary   bool  `json:"primary"`
	Fallback  bool  `json:"fallback"`
	Timestamp int64 `json:"timestamp"`
}

type outcome struct {
	result *execution.Result
	err    error
}

// pending is a queued request and the channel its caller waits on
type pending struct {
	req         execution.Request
	fingerprint string
	reply       chan outcome
}

// Dispatcher queues and executes requests
type Dispatcher struct {
	primary      compiler.Runner
	fallback     compiler.Runner
	sim          *simulated.Executor
	cache        *cache.Cache
	logger       *log.Logger
	probeTimeout time.Duration

	mu        sync.Mutex
	queue     []*pending
	draining  bool
	lastProbe *ProbeResult
}

// New creates a dispatcher. Missing collaborators get defaults: a simulator
// with DefaultDelay, a cache with default limits and the default logger.
func New(cfg Config) *Dispatcher {
	d := &Dispatcher{
		primary:      cfg.Primary,
		fallback:     cfg.Fallback,
		sim:          cfg.Simulator,
		cache:        cfg.Cache,
		logger:       cfg.Logger,
		probeTimeout: cfg.ProbeTimeout,
	}

	if d.sim == nil {
		d.sim = simulated.New(simulated.DefaultDelay)
	}

	if d.cache == nil {
		d.cache = cache.New(cache.DefaultMaxEntries, cache.DefaultMaxAge)
	}

	if d.logger == nil {
		d.logger = log.Default()
	}

	if d.probeTimeout <= 0 {
		d.probeTimeout = DefaultProbeTimeout
	}

	return d
}

// Cache returns the result cache shared by all requests
func (d *Dispatcher) Cache() *cache.Cache {
	return d.cache
}

// Execute runs code and waits for its result.
//
// Unsupported languages fail with language.ErrUnsupported before the cache or
// any endpoint is touched. Unless opts.Force is set, a cached result for the
// same (language, code, stdin) is returned without queueing. If ctx ends
// first, Execute returns ctx.Err() but the queued request still runs and its
// result is still cached.
func (d *Dispatcher) Execute(ctx context.Context, lang language.ID, code, stdin string, opts execution.Options) (*execution.Result, error) {
	if _, err := language.Lookup(lang); err != nil {
		return nil, err
	}

	fp := cache.Fingerprint(lang, code, stdin)

	if !opts.Force {
		if result, ok := d.cache.Lookup(fp); ok {
			d.logger.Debug("Cache hit", "language", lang, "fingerprint", fp)
			return result, nil
		}
	}

	p := &pending{
		req:         execution.NewRequest(lang, code, stdin, opts),
		fingerprint: fp,
		reply:       make(chan outcome, 1),
	}

	d.enqueue(p)

	select {
	case out := <-p.reply:
		return out.result, out.err
	case <-ctx.Done():
		d.logger.Debug("Caller stopped waiting", "id", p.req.ID, "err", ctx.Err())
		return nil, ctx.Err()
	}
}

func (d *Dispatcher) enqueue(p *pending) {
	d.mu.Lock()
	d.queue = append(d.queue, p)
	start := !d.draining
	d.draining = true
	d.mu.Unlock()

	d.logger.Debug("Queued request", "id", p.req.ID, "language", p.req.Language)

	if start {
		go d.drain()
	}
}

// drain processes the queue head by head until it is empty
func (d *Dispatcher) drain() {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.draining = false
			d.mu.Unlock()
			return
		}

		p := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		d.mu.Unlock()

		result, err := d.process(context.Background(), p)
		p.reply <- outcome{result: result, err: err}
	}
}

// process runs one request through the endpoint chain and caches the result
func (d *Dispatcher) process(ctx context.Context, p *pending) (*execution.Result, error) {
	req := p.req
	logger := d.logger.With("id", req.ID, "language", req.Language)
	start := time.Now()

	sub := compiler.Submission{
		Language:    req.Language,
		Code:        req.Code,
		Stdin:       req.Stdin,
		Args:        req.Options.Args,
		Fingerprint: p.fingerprint,
	}

	var result *execution.Result
	if !req.Options.Simulate {
		result = d.tryRemote(ctx, logger, sub)
	}

	if result == nil {
		if !req.Options.Simulate {
			logger.Warn("All APIs failed, using simulated execution")
		}

		sim, err := d.sim.Execute(ctx, req.Language, req.Code, req.Stdin)
		if err != nil {
			logger.Error("Simulated execution failed", "err", err)
			return nil, err
		}

		result = sim
	}

	result.Fingerprint = p.fingerprint
	d.cache.Store(p.fingerprint, *result)

	logger.Info("Request settled", "origin", result.Origin, "success", result.Success, "duration", time.Since(start))

	return result, nil
}

// tryRemote returns the first result from primary then fallback, or nil
func (d *Dispatcher) tryRemote(ctx context.Context, logger *log.Logger, sub compiler.Submission) *execution.Result {
	for _, runner := range []compiler.Runner{d.primary, d.fallback} {
		if runner == nil {
			continue
		}

		result, err := runner.Run(ctx, sub)
		if err == nil {
			return result
		}

		logger.Warn("API request failed", "endpoint", runner.Name(), "err", err)
	}

	return nil
}

// Status returns the current queue and cache state
func (d *Dispatcher) Status() Status {
	stats := d.cache.Stats()

	d.mu.Lock()
	defer d.mu.Unlock()

	status := Status{
		Initialized: true,
		CacheSize:   stats.Entries,
		CacheHits:   stats.Hits,
		CacheMisses: stats.Misses,
		QueueSize:   len(d.queue),
		Busy:        d.draining,
		Languages:   language.IDs(),
	}

	if d.lastProbe != nil {
		probe := *d.lastProbe
		status.LastProbe = &probe
	}

	return status
}

// Probe checks both endpoints, each bounded by the probe timeout.
// A missing endpoint reports false.
func (d *Dispatcher) Probe(ctx context.Context) ProbeResult {
	result := ProbeResult{
		Primary:   d.ping(ctx, d.primary),
		Fallback:  d.ping(ctx, d.fallback),
		Timestamp: execution.NowMillis(),
	}

	d.mu.Lock()
	d.lastProbe = &result
	d.mu.Unlock()

	return result
}

func (d *Dispatcher) ping(ctx context.Context, runner compiler.Runner) bool {
	if runner == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, d.probeTimeout)
	defer cancel()

	if err := runner.Ping(ctx); err != nil {
		d.logger.Warn("API probe failed", "endpoint", runner.Name(), "err", err)
		return false
	}

	d.logger.Debug("API probe succeeded", "endpoint", runner.Name())

	return true
}

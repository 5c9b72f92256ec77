package plugin

import (
	"context"
	"encoding/json"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/formcheck/internal/metrics"
)

const (
	defaultConcurrency = 4
	// pendingPerWorker bounds the runs admitted per concurrency slot,
	// running ones included. Events past the bound are dropped.
	pendingPerWorker = 8
)

// Dispatcher runs every plugin subscribed to an event in the background.
// Failures are logged and counted, never returned to the caller.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	metrics  *metrics.Manager
	sem      chan struct{}
	pending  chan struct{}

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher running at most concurrency plugins at
// once. A non-positive concurrency uses a small default.
func NewDispatcher(manager *Manager, executor *Executor, m *metrics.Manager, concurrency int) *Dispatcher {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Dispatcher{
		manager:  manager,
		executor: executor,
		metrics:  m,
		sem:      make(chan struct{}, concurrency),
		pending:  make(chan struct{}, concurrency*pendingPerWorker),
	}
}

// Dispatch queues event for all subscribed plugins and returns how many were
// started. It never blocks on running plugins: when the backlog is full the
// run is dropped and counted. The plugin runs outlive ctx cancellation but
// keep its values.
func (d *Dispatcher) Dispatch(ctx context.Context, event, sessionID, exercise string, payload any) int {
	subs := d.manager.Subscribers(event)
	if len(subs) == 0 {
		return 0
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("plugin dispatch %s: marshal payload: %s", event, err)
		return 0
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0
	}

	ctx = context.WithoutCancel(ctx)
	started := 0
	for _, p := range subs {
		select {
		case d.pending <- struct{}{}:
		default:
			d.count(p, "dropped")
			log.Warnf("plugin %s on %s [%s]: backlog full, event dropped", p.Manifest.Name, event, sessionID)
			continue
		}
		req := &Request{
			Event:     event,
			SessionID: sessionID,
			Exercise:  exercise,
			Payload:   raw,
		}
		d.wg.Add(1)
		go d.run(ctx, p, req)
		started++
	}
	return started
}

func (d *Dispatcher) run(ctx context.Context, p *Plugin, req *Request) {
	defer d.wg.Done()
	defer func() { <-d.pending }()

	d.sem <- struct{}{}
	defer func() { <-d.sem }()

	resp, err := d.executor.Execute(ctx, p, req)
	switch {
	case err != nil:
		d.count(p, "error")
		log.Errorf("plugin %s on %s [%s]: %s", p.Manifest.Name, req.Event, req.SessionID, err)
	case !resp.Success:
		d.count(p, "failed")
		log.Warnf("plugin %s on %s [%s] reported failure: %s", p.Manifest.Name, req.Event, req.SessionID, resp.Error)
	default:
		d.count(p, "ok")
		log.Tracef("plugin %s handled %s [%s]", p.Manifest.Name, req.Event, req.SessionID)
	}
}

func (d *Dispatcher) count(p *Plugin, status string) {
	if d.metrics == nil {
		return
	}
	d.metrics.CounterPluginRuns.WithLabelValues(p.Manifest.Name, status).Inc()
}

// Wait blocks until all dispatched runs have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close stops accepting events and waits for running plugins.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}

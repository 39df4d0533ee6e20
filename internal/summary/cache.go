package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/smileynet/iotdash/internal/bus"
	"github.com/smileynet/iotdash/internal/notify"
)

// EventUpdated is the bus topic published after a successful refresh. The
// payload is the new []Summary.
const EventUpdated = "summaries:updated"

// MsgInvalidData is the notification shown when the proxy answers with
// something other than a list.
const MsgInvalidData = "Error fetching Summaries (invalid data). Reload to retry"

// TransportMessage is the notification shown when the request to url fails.
func TransportMessage(url string) string {
	return fmt.Sprintf("Error fetching Summaries Configuration from [%s]. Reload to retry", url)
}

// Outcome classifies how a refresh ended.
type Outcome string

const (
	OutcomeUpdated   Outcome = "updated"   // Cache replaced and event published.
	OutcomeStale     Outcome = "stale"     // Valid list dropped; a newer refresh already applied.
	OutcomeInvalid   Outcome = "invalid"   // Payload was not a list.
	OutcomeTransport Outcome = "transport" // Request failed.
	OutcomeCancelled Outcome = "cancelled" // Cache closed while in flight.
)

// Observer is told about every completed refresh. It is called on the
// refresh goroutine and must not block.
type Observer interface {
	RefreshDone(outcome Outcome, count int, elapsed time.Duration)
}

// Cache holds the latest known-good summary list. Readers get snapshots;
// only a completed, valid refresh replaces the list.
//
// Each refresh runs on its own goroutine bound to the cache's lifetime.
// Completions are ordered by issue: a result older than the one already
// applied is dropped rather than overwriting newer data.
type Cache struct {
	endpoint Endpoint
	url      string
	fetcher  Fetcher
	events   bus.Publisher
	notifier notify.Notifier
	observer Observer
	log      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// pubMu keeps apply+publish atomic across completions so subscribers
	// see updates in the same order the cache applied them.
	pubMu sync.Mutex

	mu        sync.RWMutex
	summaries []Summary
	issued    uint64
	applied   uint64
	closed    bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithFetcher sets the transport used for refreshes.
func WithFetcher(f Fetcher) Option {
	return func(c *Cache) { c.fetcher = f }
}

// WithPublisher sets the bus that receives EventUpdated.
func WithPublisher(p bus.Publisher) Option {
	return func(c *Cache) { c.events = p }
}

// WithNotifier sets where user-facing error messages go.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Cache) { c.notifier = n }
}

// WithObserver sets a hook for refresh outcomes, e.g. metrics.
func WithObserver(o Observer) Option {
	return func(c *Cache) { c.observer = o }
}

// WithLogger sets the diagnostic logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Cache) { c.log = log }
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) int { return 0 }

// New creates a Cache for endpoint with an empty list and starts one
// refresh. It does not wait for that refresh.
func New(endpoint Endpoint, opts ...Option) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		endpoint:  endpoint,
		url:       endpoint.SummariesURL(),
		log:       slog.Default(),
		ctx:       ctx,
		cancel:    cancel,
		summaries: []Summary{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetcher == nil {
		c.fetcher = NewClient(WithClientLogger(c.log))
	}
	c.log = c.log.With("component", "summary")
	if c.events == nil {
		c.events = nopPublisher{}
	}
	if c.notifier == nil {
		c.notifier = notify.NewLogNotifier(c.log)
	}

	c.Refresh()
	return c
}

// Endpoint returns the endpoint fixed at construction.
func (c *Cache) Endpoint() Endpoint { return c.endpoint }

// Summaries returns a snapshot of the cached list: empty before the first
// successful refresh, stale after a failed one. It never fetches.
// Records share their bytes with the cache and must not be modified.
func (c *Cache) Summaries() []Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneList(c.summaries)
}

// Refresh starts one fetch of the summary list and returns immediately.
// The outcome is reported through the bus (success) or the notifier
// (failure); nothing is returned to the caller. Refresh after Close is a
// no-op.
func (c *Cache) Refresh() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.issued++
	seq := c.issued
	c.wg.Add(1)
	c.mu.Unlock()

	go c.refresh(seq)
}

// Close cancels in-flight refreshes and waits for their goroutines. It must
// not be called from a bus subscriber or notifier.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Cache) refresh(seq uint64) {
	defer c.wg.Done()

	log := c.log.With("seq", seq, "url", c.url)
	start := time.Now()
	list, err := c.fetcher.GetSummaries(c.ctx, c.url)
	if c.ctx.Err() != nil {
		log.Debug("Refresh cancelled")
		c.observe(OutcomeCancelled, 0, start)
		return
	}

	switch {
	case errors.Is(err, ErrInvalidShape):
		log.Warn("Rejected summaries payload", "error", err)
		c.observe(OutcomeInvalid, 0, start)
		c.notifier.Error(MsgInvalidData)
		return

	case err != nil:
		log.Info("Summaries request failed", "error", err)
		c.observe(OutcomeTransport, 0, start)
		c.notifier.Error(TransportMessage(c.url))
		return
	}

	c.pubMu.Lock()
	defer c.pubMu.Unlock()

	if !c.apply(seq, list) {
		log.Debug("Dropped out-of-order refresh result")
		c.observe(OutcomeStale, len(list), start)
		return
	}
	log.Debug("Summaries updated", "count", len(list))
	c.observe(OutcomeUpdated, len(list), start)
	c.events.Publish(EventUpdated, cloneList(list))
}

func (c *Cache) observe(o Outcome, count int, start time.Time) {
	if c.observer != nil {
		c.observer.RefreshDone(o, count, time.Since(start))
	}
}

// cloneList copies list and every record's bytes, so callers never share
// memory with the cache.
func cloneList(list []Summary) []Summary {
	out := make([]Summary, len(list))
	for i, s := range list {
		out[i] = slices.Clone(s)
	}
	return out
}

// apply replaces the cached list unless a newer refresh already did.
func (c *Cache) apply(seq uint64, list []Summary) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.applied {
		return false
	}
	if list == nil {
		list = []Summary{}
	}
	c.summaries = list
	c.applied = seq
	return true
}

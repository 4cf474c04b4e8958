package scrape

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Cooldown policy for a reader that keeps failing. Three failures inside
// the window bench the reader for the cooldown period.
const (
	tripFailures = 3
	tripWindow   = 30 * time.Second
	benchedFor   = 60 * time.Second
)

// readerHealth benches a reader after repeated failures so the chain moves
// straight to the next one.
type readerHealth struct {
	name string
	now  func() time.Time

	mu        sync.Mutex
	failures  int
	firstFail time.Time
	benched   time.Time
}

func newReaderHealth(name string) *readerHealth {
	return &readerHealth{name: name, now: time.Now}
}

func (h *readerHealth) available() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.now().Before(h.benched)
}

func (h *readerHealth) failed() {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	if h.failures == 0 || now.Sub(h.firstFail) > tripWindow {
		h.failures = 0
		h.firstFail = now
	}
	h.failures++
	if h.failures < tripFailures {
		return
	}
	h.benched = now.Add(benchedFor)
	h.failures = 0
	zap.L().Warn("scrape: reader benched",
		zap.String("reader", h.name),
		zap.Duration("for", benchedFor),
	)
}

func (h *readerHealth) succeeded() {
	h.mu.Lock()
	h.failures = 0
	h.mu.Unlock()
}

type runKey struct{}

// runHealth holds reader health for one scoped run, keyed by reader name.
type runHealth struct {
	mu      sync.Mutex
	readers map[string]*readerHealth
}

// WithRun scopes reader benching to ctx. A Chain scraping under the returned
// context starts every reader healthy and keeps its failures to that run.
// Outside a run scope the Chain's own long-lived health is used.
func WithRun(ctx context.Context) context.Context {
	return context.WithValue(ctx, runKey{}, &runHealth{readers: map[string]*readerHealth{}})
}

func (r *runHealth) reader(base *readerHealth) *readerHealth {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.readers[base.name]
	if !ok {
		h = newReaderHealth(base.name)
		h.now = base.now
		r.readers[base.name] = h
	}
	return h
}

func healthFor(ctx context.Context, base *readerHealth) *readerHealth {
	if r, ok := ctx.Value(runKey{}).(*runHealth); ok {
		return r.reader(base)
	}
	return base
}

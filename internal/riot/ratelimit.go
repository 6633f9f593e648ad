package riot

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

var admissionWait = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "riot_admission_wait_seconds",
	Help:    "Time spent blocked by local rate windows before a request",
	Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
})

// Limiter is an admission-control gate consulted before every outbound request.
// Wait blocks until a request may be issued and records it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Limiters chains several limiters; a request is admitted once all of them admit it.
type Limiters []Limiter

func (ls Limiters) Wait(ctx context.Context) error {
	for _, l := range ls {
		if err := l.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// SleepFunc suspends the caller for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Window is a process-local sliding window of recent request timestamps.
// It is safe for concurrent use; every caller sharing a Window shares its ceiling.
type Window struct {
	name  string
	limit int
	width time.Duration

	mu     sync.Mutex
	stamps []time.Time

	now   func() time.Time
	sleep SleepFunc
}

// WindowOption configures a Window
type WindowOption func(*Window)

// WithWindowClock replaces the time source and sleeper (tests).
func WithWindowClock(now func() time.Time, sleep SleepFunc) WindowOption {
	return func(w *Window) {
		w.now = now
		w.sleep = sleep
	}
}

// WithWindowName labels the window in log output.
func WithWindowName(name string) WindowOption {
	return func(w *Window) {
		w.name = name
	}
}

// NewWindow creates a window admitting at most limit requests per width.
func NewWindow(limit int, width time.Duration, opts ...WindowOption) *Window {
	if limit <= 0 {
		limit = 1
	}
	w := &Window{
		name:   width.String(),
		limit:  limit,
		width:  width,
		stamps: make([]time.Time, 0, limit),
		now:    time.Now,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Wait blocks until the window has room, then records the request.
func (w *Window) Wait(ctx context.Context) error {
	for {
		w.mu.Lock()
		now := w.now()
		w.prune(now)

		if len(w.stamps) < w.limit {
			w.stamps = append(w.stamps, now)
			w.mu.Unlock()
			return nil
		}

		// Full: wait for the oldest request to leave the window, then re-check.
		waitTime := w.stamps[0].Add(w.width).Sub(now)
		count := len(w.stamps)
		w.mu.Unlock()

		log.Debugf("[Rate limit] %d req/%s, waiting %.2fs...", count, w.name, waitTime.Seconds())
		admissionWait.Observe(waitTime.Seconds())
		if err := w.sleep(ctx, waitTime); err != nil {
			return err
		}
	}
}

// Len returns the number of requests currently inside the window.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(w.now())
	return len(w.stamps)
}

// prune drops timestamps that are no longer inside the window. Caller holds mu.
func (w *Window) prune(now time.Time) {
	cutoff := now.Add(-w.width)
	keep := 0
	for keep < len(w.stamps) && !w.stamps[keep].After(cutoff) {
		keep++
	}
	if keep > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[keep:]...)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/andrescamacho/skamkraft-go/internal/domain/shared"
)

const defaultRequestsPerSecond = 2

var (
	// ErrQueueCleared rejects operations still pending when the queue is cleared
	ErrQueueCleared = errors.New("rate limiter queue cleared")
)

// Operation is one unit of work paced by the limiter
type Operation func(ctx context.Context) error

// LimiterStatus is a snapshot of the limiter state
type LimiterStatus struct {
	QueueLength       int     `json:"queueLength"`
	Processing        bool    `json:"isProcessing"`
	TotalRequests     int64   `json:"totalRequests"`
	RequestsPerSecond float64 `json:"requestsPerSecond"`
}

type queueItem struct {
	ctx        context.Context
	op         Operation
	done       chan error
	enqueuedAt time.Time
}

// RateLimiter dispatches queued operations one at a time, in arrival order,
// with at least 1/rps between successive dispatch starts
type RateLimiter struct {
	mu            sync.Mutex
	queue         []*queueItem
	processing    bool
	totalRequests int64
	rps           float64
	bucket        *rate.Limiter
	clock         shared.Clock
	recorder      MetricsRecorder
	logger        *zap.Logger
	listeners     map[int]func(LimiterStatus)
	nextListener  int
}

// NewRateLimiter creates a FIFO limiter allowing rps dispatches per second.
// rps <= 0 falls back to 2. If clock is nil, uses RealClock.
func NewRateLimiter(rps float64, clock shared.Clock, recorder MetricsRecorder, logger *zap.Logger) *RateLimiter {
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		rps:       rps,
		bucket:    rate.NewLimiter(rate.Limit(rps), 1),
		clock:     clock,
		recorder:  recorder,
		logger:    logger,
		listeners: make(map[int]func(LimiterStatus)),
	}
}

// MinInterval is the minimum spacing between dispatch starts
func (l *RateLimiter) MinInterval() time.Duration {
	return time.Duration(float64(time.Second) / l.rps)
}

// Enqueue queues op and blocks until it has run. The returned error is
// exactly what op returned. If ctx is done while op is still pending, the
// item is withdrawn and ctx.Err() is returned; a running op is waited for.
func (l *RateLimiter) Enqueue(ctx context.Context, op Operation) error {
	item := l.submit(ctx, op)
	select {
	case err := <-item.done:
		return err
	case <-ctx.Done():
		if l.withdraw(item) {
			return ctx.Err()
		}
		return <-item.done
	}
}

// Submit queues op and returns a channel that receives its result.
// The item is in the queue when Submit returns.
func (l *RateLimiter) Submit(ctx context.Context, op Operation) <-chan error {
	return l.submit(ctx, op).done
}

func (l *RateLimiter) submit(ctx context.Context, op Operation) *queueItem {
	item := &queueItem{
		ctx:        ctx,
		op:         op,
		done:       make(chan error, 1),
		enqueuedAt: l.clock.Now(),
	}

	l.mu.Lock()
	l.queue = append(l.queue, item)
	start := !l.processing
	if start {
		l.processing = true
	}
	length := len(l.queue)
	l.mu.Unlock()

	l.recorder.RecordQueueLength(length)
	l.notify()

	if start {
		go l.process()
	}
	return item
}

// Pace blocks until one more dispatch token is available. Operations that
// make extra network attempts inside their slot call it before each attempt.
func (l *RateLimiter) Pace(ctx context.Context) error {
	now := l.clock.Now()
	reservation := l.bucket.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	if delay <= 0 {
		return nil
	}
	l.recorder.RecordRateLimitWait(delay)
	if err := l.clock.SleepContext(ctx, delay); err != nil {
		reservation.CancelAt(l.clock.Now())
		return err
	}
	return nil
}

func (l *RateLimiter) process() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.processing = false
			l.mu.Unlock()
			l.recorder.RecordQueueLength(0)
			l.notify()
			return
		}
		head := l.queue[0]
		l.mu.Unlock()

		if err := head.ctx.Err(); err != nil {
			if l.popIfHead(head) {
				head.done <- err
			}
			continue
		}

		if err := l.Pace(head.ctx); err != nil {
			if l.popIfHead(head) {
				head.done <- err
			}
			continue
		}

		// cleared while waiting for the slot
		if !l.popIfHead(head) {
			continue
		}

		l.mu.Lock()
		l.totalRequests++
		length := len(l.queue)
		l.mu.Unlock()
		l.recorder.RecordQueueLength(length)
		l.notify()

		head.done <- l.run(head)
	}
}

func (l *RateLimiter) run(item *queueItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("rate-limiter-operation-panic", zap.Any("panic", r))
			err = fmt.Errorf("operation panicked: %v", r)
		}
	}()
	return item.op(item.ctx)
}

func (l *RateLimiter) popIfHead(item *queueItem) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 || l.queue[0] != item {
		return false
	}
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return true
}

// withdraw removes a pending item. It reports false once the item has been
// popped for dispatch or rejected by ClearQueue.
func (l *RateLimiter) withdraw(item *queueItem) bool {
	l.mu.Lock()
	removed := false
	for i, queued := range l.queue {
		if queued == item {
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			removed = true
			break
		}
	}
	length := len(l.queue)
	l.mu.Unlock()

	if removed {
		l.recorder.RecordQueueLength(length)
		l.notify()
	}
	return removed
}

// ClearQueue rejects every pending operation with ErrQueueCleared.
// An operation already executing is left alone. Returns the number rejected.
func (l *RateLimiter) ClearQueue() int {
	l.mu.Lock()
	pending := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, item := range pending {
		item.done <- ErrQueueCleared
	}

	if len(pending) > 0 {
		l.logger.Info("rate-limiter-cleared", zap.Int("rejected", len(pending)))
	}
	l.recorder.RecordQueueLength(0)
	l.notify()
	return len(pending)
}

// Status returns the current queue state
func (l *RateLimiter) Status() LimiterStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LimiterStatus{
		QueueLength:       len(l.queue),
		Processing:        l.processing,
		TotalRequests:     l.totalRequests,
		RequestsPerSecond: l.rps,
	}
}

// Subscribe registers fn for status changes; call the returned func to stop
func (l *RateLimiter) Subscribe(fn func(LimiterStatus)) func() {
	l.mu.Lock()
	id := l.nextListener
	l.nextListener++
	l.listeners[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.listeners, id)
		l.mu.Unlock()
	}
}

func (l *RateLimiter) notify() {
	l.mu.Lock()
	if len(l.listeners) == 0 {
		l.mu.Unlock()
		return
	}
	status := LimiterStatus{
		QueueLength:       len(l.queue),
		Processing:        l.processing,
		TotalRequests:     l.totalRequests,
		RequestsPerSecond: l.rps,
	}
	listeners := make([]func(LimiterStatus), 0, len(l.listeners))
	for _, fn := range l.listeners {
		listeners = append(listeners, fn)
	}
	l.mu.Unlock()

	for _, fn := range listeners {
		l.safeNotify(fn, status)
	}
}

func (l *RateLimiter) safeNotify(fn func(LimiterStatus), status LimiterStatus) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Warn("rate-limiter-listener-panic", zap.Any("panic", r))
		}
	}()
	fn(status)
}

package push

import (
	"container/heap"
	"context"
	"log"
	"sync"
	"time"

	"github.com/tutu-network/focusera/internal/domain"
	"github.com/tutu-network/focusera/internal/infra/metrics"
)

// ─── Retry Queue ────────────────────────────────────────────────────────────
// Failed deliveries are re-queued with exponential backoff. A min-heap keyed
// on the next attempt time yields the earliest due delivery first.

// RetryConfig configures the retry queue behavior.
type RetryConfig struct {
	MaxRetries int           // attempts after the first failure
	BaseDelay  time.Duration // doubles each retry
	MaxDelay   time.Duration // cap on backoff delay
}

// DefaultRetryConfig returns production retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 5,
		BaseDelay:  1 * time.Second,
		MaxDelay:   60 * time.Second,
	}
}

// delay returns the backoff before the given 1-based attempt.
func (c RetryConfig) delay(attempt int) time.Duration {
	d := c.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	return min(d, c.MaxDelay)
}

// delivery is one pending push.
type delivery struct {
	devices   []domain.DeviceToken
	n         domain.Notification
	attempt   int
	nextRetry time.Time
	lastErr   error
}

type deliveryHeap []*delivery

func (h deliveryHeap) Len() int           { return len(h) }
func (h deliveryHeap) Less(i, j int) bool { return h[i].nextRetry.Before(h[j].nextRetry) }
func (h deliveryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *deliveryHeap) Push(x any)        { *h = append(*h, x.(*delivery)) }
func (h *deliveryHeap) Pop() any {
	old := *h
	n := len(old)
	d := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return d
}

// Retrier wraps a Pusher and retries failed deliveries in the background.
// Push never blocks on backoff; a failed send is queued and Push returns nil.
type Retrier struct {
	next   domain.Pusher
	config RetryConfig
	now    func() time.Time

	mu        sync.Mutex
	queue     deliveryHeap
	retried   int64
	exhausted int64
}

var _ domain.Pusher = (*Retrier)(nil)

// NewRetrier creates a retry queue in front of next.
func NewRetrier(next domain.Pusher, cfg RetryConfig) *Retrier {
	return &Retrier{next: next, config: cfg, now: time.Now}
}

// Push attempts delivery once and queues it for retry on failure.
func (r *Retrier) Push(ctx context.Context, devices []domain.DeviceToken, n domain.Notification) error {
	if err := r.next.Push(ctx, devices, n); err != nil {
		r.schedule(&delivery{devices: devices, n: n, lastErr: err})
		return nil
	}
	metrics.PushDeliveries.WithLabelValues("sent").Inc()
	return nil
}

// schedule queues d for its next attempt. Reports false once d has used up
// its retries.
func (r *Retrier) schedule(d *delivery) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	d.attempt++
	if d.attempt > r.config.MaxRetries {
		r.exhausted++
		metrics.PushDeliveries.WithLabelValues("exhausted").Inc()
		log.Printf("[push] giving up on notification %d for %s after %d retries: %v",
			d.n.ID, d.n.UserID, r.config.MaxRetries, d.lastErr)
		return false
	}
	d.nextRetry = r.now().Add(r.config.delay(d.attempt))
	heap.Push(&r.queue, d)
	metrics.PushDeliveries.WithLabelValues("retried").Inc()
	return true
}

// ready pops every delivery whose retry time has passed.
func (r *Retrier) ready() []*delivery {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var due []*delivery
	for r.queue.Len() > 0 && !r.queue[0].nextRetry.After(now) {
		due = append(due, heap.Pop(&r.queue).(*delivery))
	}
	return due
}

// Flush retries every due delivery once. Returns how many were sent.
func (r *Retrier) Flush(ctx context.Context) int {
	sent := 0
	for _, d := range r.ready() {
		if err := r.next.Push(ctx, d.devices, d.n); err != nil {
			d.lastErr = err
			r.schedule(d)
			continue
		}
		r.mu.Lock()
		r.retried++
		r.mu.Unlock()
		metrics.PushDeliveries.WithLabelValues("sent").Inc()
		sent++
	}
	return sent
}

// Run flushes the queue on every tick until ctx is cancelled.
func (r *Retrier) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if n := r.Len(); n > 0 {
				log.Printf("[push] shutting down with %d deliveries pending", n)
			}
			return
		case <-ticker.C:
			r.Flush(ctx)
		}
	}
}

// Len returns the number of deliveries pending retry.
func (r *Retrier) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queue.Len()
}

// RetryStats holds retry queue statistics.
type RetryStats struct {
	Pending   int   `json:"pending"`
	Recovered int64 `json:"recovered"` // delivered on a retry
	Exhausted int64 `json:"exhausted"` // exceeded MaxRetries
}

// Stats returns current retry queue statistics.
func (r *Retrier) Stats() RetryStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RetryStats{Pending: r.queue.Len(), Recovered: r.retried, Exhausted: r.exhausted}
}

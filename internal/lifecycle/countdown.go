package lifecycle

import (
	"context"
	"fmt"
	"time"
)

// DefaultTarget is the estimated preparation time shown to customers.
const DefaultTarget = 45 * time.Minute

// ReadyLabel is shown once the estimate has elapsed.
const ReadyLabel = "Order Ready!"

// Countdown derives the customer-facing estimate from the order creation time.
// It never keeps its own running state; every read is computed from the clock.
type Countdown struct {
	CreatedAt time.Time
	Target    time.Duration
}

// NewCountdown returns a Countdown with target, or DefaultTarget when target <= 0.
func NewCountdown(createdAt time.Time, target time.Duration) Countdown {
	if target <= 0 {
		target = DefaultTarget
	}
	return Countdown{CreatedAt: createdAt, Target: target}
}

// ReadyAt is when the estimate elapses.
func (c Countdown) ReadyAt() time.Time {
	return c.CreatedAt.Add(c.Target)
}

// Remaining is the time left, floored at zero.
func (c Countdown) Remaining(now time.Time) time.Duration {
	d := c.ReadyAt().Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Ready reports whether the estimate has elapsed.
func (c Countdown) Ready(now time.Time) bool {
	return c.Remaining(now) == 0
}

// Label renders the remaining time as "12m 5s", or ReadyLabel. Partial
// seconds round up, so a running countdown never reads "0m 0s".
func (c Countdown) Label(now time.Time) string {
	secs := c.remainingSeconds(now)
	if secs == 0 {
		return ReadyLabel
	}
	return fmt.Sprintf("%dm %ds", secs/60, secs%60)
}

func (c Countdown) remainingSeconds(now time.Time) int64 {
	rem := c.Remaining(now)
	return int64((rem + time.Second - 1) / time.Second)
}

// Progress is the elapsed share of the target in percent, within [0, 100].
func (c Countdown) Progress(now time.Time) float64 {
	if c.Target <= 0 {
		return 100
	}
	elapsed := now.Sub(c.CreatedAt)
	if elapsed <= 0 {
		return 0
	}
	p := float64(elapsed) / float64(c.Target) * 100
	if p > 100 {
		return 100
	}
	return p
}

// Snapshot is the countdown rendered at a point in time.
type Snapshot struct {
	ReadyAt          time.Time `json:"readyAt"`
	RemainingSeconds int64     `json:"remainingSeconds"`
	Label            string    `json:"label"`
	Progress         float64   `json:"progress"`
	Ready            bool      `json:"ready"`
}

// At renders the countdown at now.
func (c Countdown) At(now time.Time) Snapshot {
	rem := c.Remaining(now)
	return Snapshot{
		ReadyAt:          c.ReadyAt(),
		RemainingSeconds: c.remainingSeconds(now),
		Label:            c.Label(now),
		Progress:         c.Progress(now),
		Ready:            rem == 0,
	}
}

// Watch calls fn once immediately and then every interval until the estimate
// elapses or ctx is done. Each call is recomputed from now().
func (c Countdown) Watch(ctx context.Context, interval time.Duration, now func() time.Time, fn func(Snapshot)) {
	if interval <= 0 {
		interval = time.Second
	}
	if now == nil {
		now = time.Now
	}
	snap := c.At(now())
	fn(snap)
	if snap.Ready {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := c.At(now())
			fn(snap)
			if snap.Ready {
				return
			}
		}
	}
}

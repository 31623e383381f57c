package timer

import (
	"context"
	"fmt"
	"time"
)

// DefaultInterval is the sampling cadence.
const DefaultInterval = time.Second

// Sampler takes a wall-clock reading every interval and hands it to a tick
// function, skipping readings while the active predicate is false. Run is
// the only place it touches the tick function, so callers that drive
// everything else from the same goroutine need no locking.
type Sampler struct {
	interval time.Duration
	tick     func(time.Time)
	active   func() bool
	clock    func() time.Time
	samples  int
}

// SamplerOption customizes a Sampler.
type SamplerOption func(*Sampler)

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) SamplerOption {
	return func(s *Sampler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithActive gates sampling; readings are skipped while fn returns false.
func WithActive(fn func() bool) SamplerOption {
	return func(s *Sampler) {
		if fn != nil {
			s.active = fn
		}
	}
}

// NewSampler wires a sampler. A non-positive interval falls back to
// DefaultInterval.
func NewSampler(interval time.Duration, tick func(time.Time), opts ...SamplerOption) (*Sampler, error) {
	if tick == nil {
		return nil, fmt.Errorf("timer: tick function is required")
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Sampler{
		interval: interval,
		tick:     tick,
		active:   func() bool { return true },
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Interval returns the sampling cadence.
func (s *Sampler) Interval() time.Duration {
	return s.interval
}

// Samples counts readings delivered to the tick function.
func (s *Sampler) Samples() int {
	return s.samples
}

// Sample takes one reading now if the sampler is active. It reports whether
// the tick function ran.
func (s *Sampler) Sample() bool {
	if !s.active() {
		return false
	}
	s.samples++
	s.tick(s.clock())
	return true
}

// Run samples until ctx is cancelled and returns ctx.Err().
func (s *Sampler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sample()
		}
	}
}

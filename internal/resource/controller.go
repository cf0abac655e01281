package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// RequestsPerSecond is the steady request rate.
	// If 0, requests are not limited.
	RequestsPerSecond float64

	// Burst is the token bucket size. If 0, defaults to RequestsPerSecond
	// rounded up, minimum 1.
	Burst int

	// MaxConcurrentConverge is the maximum number of converge runs waiting on
	// or holding the session. If 0, defaults to 1.
	MaxConcurrentConverge int64
}

// Controller manages request and converge limits.
type Controller struct {
	cfg Config

	limiter  *rate.Limiter // nil if unlimited
	rejected atomic.Int64

	convergeSem *semaphore.Weighted
	inFlight    atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentConverge <= 0 {
		cfg.MaxConcurrentConverge = 1
	}

	c := &Controller{
		cfg:         cfg,
		convergeSem: semaphore.NewWeighted(cfg.MaxConcurrentConverge),
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = max(1, int(cfg.RequestsPerSecond+0.999))
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return c
}

// AllowRequest reports whether a request may proceed now.
// Non-blocking; refused requests are counted.
func (c *Controller) AllowRequest() bool {
	if c == nil || c.limiter == nil {
		return true
	}
	if c.limiter.Allow() {
		return true
	}
	c.rejected.Add(1)
	return false
}

// Rejected returns the number of refused requests.
func (c *Controller) Rejected() int64 {
	if c == nil {
		return 0
	}
	return c.rejected.Load()
}

// AcquireConverge reserves a converge slot, blocking until one is free or
// ctx is done.
func (c *Controller) AcquireConverge(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.convergeSem.Acquire(ctx, 1); err != nil {
		return err
	}
	c.inFlight.Add(1)
	return nil
}

// ReleaseConverge releases a converge slot.
func (c *Controller) ReleaseConverge() {
	if c == nil {
		return
	}
	c.inFlight.Add(-1)
	c.convergeSem.Release(1)
}

// ConvergeInFlight returns the number of held converge slots.
func (c *Controller) ConvergeInFlight() int64 {
	if c == nil {
		return 0
	}
	return c.inFlight.Load()
}

package scanner

import (
	"context"
	"runtime"
	"time"
)

// Yielder is the cooperative suspension point between units of work. A
// non-nil error aborts the scan; the scanner then resolves with what it has.
type Yielder interface {
	Yield(ctx context.Context) error
}

// YieldFunc adapts a function to Yielder.
type YieldFunc func(ctx context.Context) error

func (f YieldFunc) Yield(ctx context.Context) error { return f(ctx) }

// GoschedYielder hands the processor to other goroutines.
type GoschedYielder struct{}

func (GoschedYielder) Yield(ctx context.Context) error {
	runtime.Gosched()
	return ctx.Err()
}

// TickYielder resumes on the next tick, pacing a scan to at most one slice
// per interval.
type TickYielder struct {
	ticker *time.Ticker
}

// NewTickYielder starts a ticker. Call Stop when done.
func NewTickYielder(interval time.Duration) *TickYielder {
	return &TickYielder{ticker: time.NewTicker(interval)}
}

func (y *TickYielder) Yield(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-y.ticker.C:
		return nil
	}
}

// Stop releases the ticker.
func (y *TickYielder) Stop() { y.ticker.Stop() }

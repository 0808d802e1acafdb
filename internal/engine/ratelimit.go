package engine

import (
	"context"
	"io"
	"sync"
	"time"
)

// RateLimiter caps download bandwidth with a token bucket. A nil
// limiter applies no limit, so callers never need to branch.
type RateLimiter struct {
	bytesPerSecond int64
	tokens         int64
	maxTokens      int64
	lastUpdate     time.Time
	mu             sync.Mutex
}

// NewRateLimiter creates a limiter allowing bytesPerSecond with a one
// second burst. Zero or negative returns nil (unlimited).
func NewRateLimiter(bytesPerSecond int64) *RateLimiter {
	if bytesPerSecond <= 0 {
		return nil
	}

	return &RateLimiter{
		bytesPerSecond: bytesPerSecond,
		tokens:         bytesPerSecond,
		maxTokens:      bytesPerSecond,
		lastUpdate:     time.Now(),
	}
}

// Acquire blocks until n bytes may pass, or ctx is done.
func (rl *RateLimiter) Acquire(ctx context.Context, n int64) error {
	if rl == nil || rl.bytesPerSecond <= 0 {
		return nil
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastUpdate)
	rl.lastUpdate = now

	refill := int64(elapsed.Seconds() * float64(rl.bytesPerSecond))
	rl.tokens += refill
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}

	if rl.tokens >= n {
		rl.tokens -= n
		return nil
	}

	needed := n - rl.tokens
	waitTime := time.Duration(float64(needed) / float64(rl.bytesPerSecond) * float64(time.Second))
	rl.tokens = 0

	rl.mu.Unlock()
	select {
	case <-ctx.Done():
		rl.mu.Lock()
		return ctx.Err()
	case <-time.After(waitTime):
		rl.mu.Lock()
		return nil
	}
}

// Limit returns the configured limit in bytes per second.
func (rl *RateLimiter) Limit() int64 {
	if rl == nil {
		return 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.bytesPerSecond
}

// RateLimitedReader wraps an io.Reader with rate limiting.
type RateLimitedReader struct {
	reader  io.Reader
	limiter *RateLimiter
	ctx     context.Context
}

// NewRateLimitedReader creates a rate-limited reader. A nil limiter
// passes reads through untouched.
func NewRateLimitedReader(ctx context.Context, r io.Reader, limiter *RateLimiter) *RateLimitedReader {
	return &RateLimitedReader{
		reader:  r,
		limiter: limiter,
		ctx:     ctx,
	}
}

// Read reads data, blocking when the bucket is empty.
func (r *RateLimitedReader) Read(p []byte) (int, error) {
	select {
	case <-r.ctx.Done():
		return 0, r.ctx.Err()
	default:
	}

	n, err := r.reader.Read(p)
	if n > 0 && r.limiter != nil {
		if limitErr := r.limiter.Acquire(r.ctx, int64(n)); limitErr != nil {
			return n, limitErr
		}
	}

	return n, err
}

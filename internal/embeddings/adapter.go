package embeddings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pgvector "github.com/pgvector/pgvector-go"
)

// Adapter wraps a Provider with bounded retry and width normalization. It is
// the only place where a model's native output width meets the fixed column
// width; swapping in a model with a matching native width makes Fit a no-op
// without touching callers.
type Adapter struct {
	inner       Provider
	width       int
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// NewAdapter creates an Adapter producing vectors of exactly width
// dimensions, retrying transient provider failures up to maxAttempts times
// with exponential backoff starting at baseDelay.
func NewAdapter(inner Provider, width, maxAttempts int, baseDelay time.Duration, logger *slog.Logger) *Adapter {
	if width <= 0 {
		width = DefaultWidth
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &Adapter{
		inner:       inner,
		width:       width,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		logger:      logger,
	}
}

// Name returns the inner provider name.
func (a *Adapter) Name() string { return a.inner.Name() }

// Width returns the fixed output width.
func (a *Adapter) Width() int { return a.width }

// Embed calls the inner provider with retries, then fits the result to the
// target width. Exhausting the retries is terminal for this input only.
func (a *Adapter) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	var vec pgvector.Vector
	var lastErr error

	delay := a.baseDelay
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return pgvector.Vector{}, ctx.Err()
		default:
		}

		vec, lastErr = a.inner.Embed(ctx, text)
		if lastErr == nil {
			if attempt > 1 {
				a.logger.Debug("embedding succeeded after retry", "attempt", attempt)
			}
			return pgvector.NewVector(Fit(vec.Slice(), a.width)), nil
		}

		if attempt == a.maxAttempts {
			break
		}
		a.logger.Debug("embedding attempt failed",
			"attempt", attempt, "max_attempts", a.maxAttempts, "error", lastErr)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return pgvector.Vector{}, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	return pgvector.Vector{}, fmt.Errorf("embedding failed after %d attempts: %w", a.maxAttempts, lastErr)
}

// Fit truncates or zero-pads a vector to width dimensions. Padding is a
// lossy compatibility shim: padded dimensions carry no semantic information.
func Fit(vec []float32, width int) []float32 {
	if len(vec) == width {
		return vec
	}
	out := make([]float32, width)
	copy(out, vec)
	return out
}

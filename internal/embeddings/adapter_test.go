package embeddings_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/inkwell-systems/scriptorium/internal/embeddings"
)

// flakyProvider fails a fixed number of times before succeeding.
type flakyProvider struct {
	failures int
	calls    int
	native   []float32
}

func (p *flakyProvider) Name() string { return "flaky" }

func (p *flakyProvider) Embed(_ context.Context, _ string) (pgvector.Vector, error) {
	p.calls++
	if p.calls <= p.failures {
		return pgvector.Vector{}, fmt.Errorf("transient failure %d", p.calls)
	}
	return pgvector.NewVector(p.native), nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFit(t *testing.T) {
	tests := []struct {
		name  string
		in    int
		width int
	}{
		{name: "native narrower gets zero padded", in: 384, width: 1024},
		{name: "native wider gets truncated", in: 1536, width: 1024},
		{name: "matching width unchanged", in: 1024, width: 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec := make([]float32, tt.in)
			for i := range vec {
				vec[i] = float32(i + 1)
			}

			out := embeddings.Fit(vec, tt.width)
			if len(out) != tt.width {
				t.Fatalf("expected width %d, got %d", tt.width, len(out))
			}

			keep := tt.in
			if keep > tt.width {
				keep = tt.width
			}
			for i := 0; i < keep; i++ {
				if out[i] != vec[i] {
					t.Fatalf("dimension %d changed: %f != %f", i, out[i], vec[i])
				}
			}
			for i := keep; i < tt.width; i++ {
				if out[i] != 0 {
					t.Fatalf("padded dimension %d is %f, want 0", i, out[i])
				}
			}
		})
	}
}

func TestFit_PadLaw(t *testing.T) {
	// A 384-length native vector against a 1024-wide column must come back
	// as the original 384 values followed by 640 zeros.
	vec := make([]float32, 384)
	for i := range vec {
		vec[i] = 0.5
	}
	out := embeddings.Fit(vec, 1024)
	if len(out) != 1024 {
		t.Fatalf("expected 1024 dimensions, got %d", len(out))
	}
	zeros := 0
	for i := 384; i < 1024; i++ {
		if out[i] == 0 {
			zeros++
		}
	}
	if zeros != 640 {
		t.Errorf("expected 640 zero dimensions, got %d", zeros)
	}
}

func TestAdapter_RetriesThenSucceeds(t *testing.T) {
	p := &flakyProvider{failures: 2, native: []float32{1, 2, 3}}
	a := embeddings.NewAdapter(p, 8, 3, time.Millisecond, discard())

	vec, err := a.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", p.calls)
	}
	got := vec.Slice()
	if len(got) != 8 {
		t.Fatalf("expected width 8, got %d", len(got))
	}
	want := []float32{1, 2, 3, 0, 0, 0, 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dimension %d: got %f, want %f", i, got[i], want[i])
		}
	}
}

func TestAdapter_ExhaustsRetries(t *testing.T) {
	p := &flakyProvider{failures: 3, native: []float32{1}}
	a := embeddings.NewAdapter(p, 8, 3, time.Millisecond, discard())

	_, err := a.Embed(context.Background(), "some text")
	if err == nil {
		t.Fatal("expected terminal error after exhausting retries")
	}
	if p.calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", p.calls)
	}
}

func TestAdapter_ContextCancelled(t *testing.T) {
	p := &flakyProvider{failures: 100, native: []float32{1}}
	a := embeddings.NewAdapter(p, 8, 3, 50*time.Millisecond, discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Embed(ctx, "some text")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSimpleProvider(t *testing.T) {
	p := embeddings.NewSimpleProvider(64)

	if p.Name() != "simple" {
		t.Errorf("expected name 'simple', got %q", p.Name())
	}

	v1, err := p.Embed(context.Background(), "the cat sat on the mat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v1.Slice()) != 64 {
		t.Errorf("expected 64 dimensions, got %d", len(v1.Slice()))
	}

	// Deterministic: identical input, identical vector.
	v2, _ := p.Embed(context.Background(), "the cat sat on the mat")
	for i, x := range v1.Slice() {
		if v2.Slice()[i] != x {
			t.Fatal("same input should produce the same vector")
		}
	}

	// L2 norm ~1 for non-empty text.
	var norm float64
	for _, x := range v1.Slice() {
		norm += float64(x) * float64(x)
	}
	if norm < 0.99 || norm > 1.01 {
		t.Errorf("expected unit norm, got %f", norm)
	}
}

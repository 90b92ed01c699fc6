// Package embed turns document text into numeric vectors via an external
// embedding provider.
package embed

import (
	"context"
	"math"
)

// Provider returns one fixed-dimension vector per input text, or nil for
// any text it could not embed. Implementations are expected to be called
// in bounded-size batches and to fail open: a batch-level failure yields
// all-nil vectors, never an aborted run.
type Provider interface {
	EmbedBatch(ctx context.Context, texts []string) [][]float64
}

// Cosine returns the cosine similarity of two vectors. Mismatched or
// zero-length vectors yield 0.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

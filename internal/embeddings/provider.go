// Package embeddings turns text into fixed-length vectors for semantic matching.
package embeddings

import (
	"context"
	"errors"
	"math"
)

// ErrDisabled is returned when no embedding provider is configured
var ErrDisabled = errors.New("embedding provider disabled")

// Provider embeds text. Blank text yields an empty vector and no error,
// meaning "could not embed"; errors are reserved for backend failures.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Name() string
	Model() string
}

// HealthChecker is implemented by providers that can probe their backend
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Check probes p when it supports health checks; other providers pass
func Check(ctx context.Context, p Provider) error {
	if hc, ok := p.(HealthChecker); ok {
		return hc.Health(ctx)
	}
	return nil
}

// Cosine returns the cosine similarity of a and b. ok is false when the
// similarity is undefined: empty or mismatched vectors, or a zero vector.
func Cosine(a, b []float32) (sim float64, ok bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 || math.IsNaN(denom) || math.IsInf(denom, 0) {
		return 0, false
	}

	return dot / denom, true
}

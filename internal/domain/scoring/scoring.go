// Package scoring turns a pair of embeddings into a match score.
package scoring

import (
	"fmt"
	"math"
)

const maxScore = 100

// Cosine returns the cosine similarity of a and b in [-1, 1].
// A zero-norm input yields 0.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// Clamp floating point drift.
	return math.Max(-1, math.Min(1, cos)), nil
}

// MatchScore maps the similarity of a role embedding and a resume vector to [0, 100],
// rounded to two decimals. Negative similarity clips to 0.
//
// A role without an embedding scores 0. So does an empty resume vector, which is what
// a degenerate encoder run produces.
func MatchScore(role, resume []float64) (float64, error) {
	if role == nil || len(resume) == 0 {
		return 0, nil
	}
	cos, err := Cosine(role, resume)
	if err != nil {
		return 0, err
	}
	return Round2(math.Max(0, cos) * maxScore), nil
}

// Round2 rounds v half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

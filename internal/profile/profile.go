package profile

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// CosineSimilarity compares two bias profiles. Returns a value between -1
// and 1: 1 means the same subgroups are over-represented on the same sides,
// -1 means the bias structure is inverted.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	a64 := make([]float64, len(a))
	b64 := make([]float64, len(b))
	for i := range a {
		a64[i] = float64(a[i])
		b64[i] = float64(b[i])
	}

	dot := floats.Dot(a64, b64)
	magA := math.Sqrt(floats.Dot(a64, a64))
	magB := math.Sqrt(floats.Dot(b64, b64))

	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (magA * magB)
}

// CosineDistance is 1 - similarity, between 0 and 2.
func CosineDistance(a, b []float32) float64 {
	return 1 - CosineSimilarity(a, b)
}

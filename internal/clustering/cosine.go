package clustering

import "math"

// Cosine computes dot(a,b) / (‖a‖·‖b‖). Zero-norm vectors and mismatched
// lengths yield 0 rather than an error; both mean "no meaningful match".
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

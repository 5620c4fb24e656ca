package badger

import "math"

// normalizeVector scales a vector to unit length so dot products are cosine
// similarities. A zero vector is returned unchanged. The input is not modified.
func normalizeVector(vec []float32) []float32 {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}

	out := make([]float32, len(vec))
	if sumSquares == 0 {
		copy(out, vec)
		return out
	}

	norm := math.Sqrt(sumSquares)
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

// dotProduct calculates the dot product of two vectors.
// Vectors of different lengths are compared over their common prefix.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := min(len(a), len(b))
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

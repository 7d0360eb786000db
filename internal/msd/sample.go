package msd

import "math/rand"

// SampleIndices draws k of the indices in pool without replacement using
// the supplied source of randomness. If k is zero, negative, or at least the
// pool size, the whole pool is returned unchanged. Randomness is always
// explicit; there is no process-wide random state.
func SampleIndices(pool []int, k int, rng *rand.Rand) []int {
	if k <= 0 || k >= len(pool) {
		return pool
	}

	// Partial Fisher-Yates over a copy of the pool.
	shuffled := make([]int, len(pool))
	copy(shuffled, pool)
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(shuffled)-i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	return shuffled[:k]
}

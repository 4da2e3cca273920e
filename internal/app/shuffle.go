package app

import "math/rand"

// Shuffled returns a uniformly random permutation of in (Fisher-Yates).
// The input slice is left untouched.
func Shuffled[T any](rnd *rand.Rand, in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	for i := len(out) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

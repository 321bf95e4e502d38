package utils

import "math/bits"

// PreviousPowerOfTwo returns the largest power of two <= x, or 0 for x == 0.
// merkle.go uses it to split a leaf count into the largest complete binary
// subtree plus a remainder, per the Monero tree-hash construction.
func PreviousPowerOfTwo(x uint64) int {
	if x == 0 {
		return 0
	}
	return 1 << (bits.Len64(x) - 1)
}

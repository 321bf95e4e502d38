package crypto

import (
	"filippo.io/edwards25519"
	"git.gammaspectra.live/P2Pool/sha3"
	"github.com/Cm157cc/p2pool/types"
)

func BytesToScalar(hash []byte) *edwards25519.Scalar {
	var wideBytes [64]byte
	copy(wideBytes[:], hash[:])
	c, _ := edwards25519.NewScalar().SetUniformBytes(wideBytes[:])
	return c
}

func HashToScalar(hash types.Hash) *edwards25519.Scalar {
	var wideBytes [64]byte
	copy(wideBytes[:], hash[:])
	c, _ := edwards25519.NewScalar().SetUniformBytes(wideBytes[:])
	return c
}

// HashFastSum sha3.Sum clones the state by allocating memory. prevent that. b must be pre-allocated to the expected size, or larger
func HashFastSum(hash *sha3.HasherState, b []byte) []byte {
	_, _ = hash.Read(b[:hash.Size()])
	return b
}

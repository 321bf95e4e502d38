package crypto

import (
	"testing"

	"github.com/Cm157cc/p2pool/types"
	"github.com/stretchr/testify/require"
)

func TestGetDeterministicTransactionPrivateKeyIsStableAndScalar(t *testing.T) {
	seed := CalculateTransactionPrivateKeySeed([]byte("main"), []byte("side"))
	prevId := types.Hash{1, 2, 3}

	k1 := GetDeterministicTransactionPrivateKey(seed, prevId)
	k2 := GetDeterministicTransactionPrivateKey(seed, prevId)
	require.Equal(t, k1.AsBytes(), k2.AsBytes(), "same seed and previous id must derive the same key")

	otherPrevId := types.Hash{4, 5, 6}
	k3 := GetDeterministicTransactionPrivateKey(seed, otherPrevId)
	require.NotEqual(t, k1.AsBytes(), k3.AsBytes(), "changing the previous block id must change the derived key")
}

func TestCalculateTransactionPrivateKeySeedDependsOnBothInputs(t *testing.T) {
	s1 := CalculateTransactionPrivateKeySeed([]byte("a"), []byte("b"))
	s2 := CalculateTransactionPrivateKeySeed([]byte("a"), []byte("c"))
	require.NotEqual(t, s1, s2)
}

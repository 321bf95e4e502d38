// Package crypto derives the per-block coinbase transaction private key that
// the template orchestrator embeds so miners' payout outputs can be recovered
// deterministically without persisting a key per candidate block.
package crypto

import (
	"github.com/Cm157cc/p2pool/monero/crypto"
	"github.com/Cm157cc/p2pool/types"
)

// CalculateTransactionPrivateKeySeed mixes the main-chain and side-chain
// entropy that feeds into GetDeterministicTransactionPrivateKey.
func CalculateTransactionPrivateKeySeed(main, side []byte) types.Hash {
	return crypto.PooledKeccak256(
		[]byte("tx_key_seed"),
		main,
		side,
	)
}

// GetDeterministicTransactionPrivateKey derives k = H("tx_secret_key" | seed | previousMoneroId)
// as a valid scalar. Keying off the previous main-chain block id means every
// candidate template gets a fresh coinbase key without needing a persisted
// keystore.
func GetDeterministicTransactionPrivateKey(seed types.Hash, previousMoneroId types.Hash) crypto.PrivateKey {
	h := crypto.PooledKeccak256([]byte("tx_secret_key"), seed[:], previousMoneroId[:])
	return crypto.PrivateKeyFromScalar(crypto.HashToScalar(h))
}

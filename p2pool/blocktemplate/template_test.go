package blocktemplate

import (
	"encoding/binary"
	"testing"

	"github.com/Cm157cc/p2pool/monero/address"
	"github.com/Cm157cc/p2pool/monero/block"
	"github.com/Cm157cc/p2pool/monero/transaction"
	"github.com/Cm157cc/p2pool/p2pool/mempool"
	"github.com/Cm157cc/p2pool/types"
	"github.com/stretchr/testify/require"
)

const testWallet = "42HEEF3NM9cHkJoPpDhNyJHuZ6DFhdtymCohF9CwP5KPM1Mp3eH2RVXCPRrxe4iWRogT7299R8PP7drGvThE8bHmRDq1qWp"

func testMinerData() MinerData {
	return MinerData{
		Height:                3_000_000,
		PrevId:                types.Hash{9, 9, 9},
		MedianWeight:          300_000,
		AlreadyGeneratedCoins: 18_000_000_000_000_000_000,
		MedianTimestamp:       1_700_000_000,
	}
}

func TestUpdateProducesDecodableOffsets(t *testing.T) {
	b := NewBuilder(address.NewDerivationCache())

	handle, err := b.Update(testMinerData(), mempool.Mempool{}, testWallet)
	require.NoError(t, err)
	require.NotZero(t, handle.TemplateId)

	got, ok := b.Get(handle.TemplateId)
	require.True(t, ok)
	require.Equal(t, handle, got)

	var blk block.Block
	require.NoError(t, blk.UnmarshalBinary(handle.Blob))

	require.Less(t, handle.NonceOffset+4, len(handle.Blob))
	require.Less(t, handle.ExtraNonceOffset+4, len(handle.Blob))

	nonceFromBlob := binary.LittleEndian.Uint32(handle.Blob[handle.NonceOffset:])
	require.Equal(t, blk.Nonce, nonceFromBlob, "NonceOffset must point at the same field UnmarshalBinary decodes")

	nonceTag := blk.Coinbase.Extra[1]
	require.Equal(t, uint8(transaction.TxExtraTagNonce), nonceTag.Tag)
	extraFromBlob := handle.Blob[handle.ExtraNonceOffset : handle.ExtraNonceOffset+transaction.TxExtraTemplateNonceSize]
	require.Equal(t, []byte(nonceTag.Data), extraFromBlob, "ExtraNonceOffset must point at the nonce tag's data bytes")
}

func TestUpdateAdvancesExtraNonceSeedBetweenTemplates(t *testing.T) {
	b := NewBuilder(address.NewDerivationCache())

	h1, err := b.Update(testMinerData(), mempool.Mempool{}, testWallet)
	require.NoError(t, err)
	h2, err := b.Update(testMinerData(), mempool.Mempool{}, testWallet)
	require.NoError(t, err)

	blob1 := h1.Blob[h1.ExtraNonceOffset : h1.ExtraNonceOffset+4]
	blob2 := h2.Blob[h2.ExtraNonceOffset : h2.ExtraNonceOffset+4]
	require.NotEqual(t, blob1, blob2, "consecutive templates must not reuse the same extra_nonce seed")
}

func TestUpdateRejectsInvalidWallet(t *testing.T) {
	b := NewBuilder(address.NewDerivationCache())
	_, err := b.Update(testMinerData(), mempool.Mempool{}, "not-a-wallet")
	require.Error(t, err)
}

func TestGetUnknownTemplateIdMisses(t *testing.T) {
	b := NewBuilder(address.NewDerivationCache())
	_, ok := b.Get(999)
	require.False(t, ok)
}

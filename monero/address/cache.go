package address

import (
	"encoding/binary"
	"sync"

	"filippo.io/edwards25519"
	"github.com/Cm157cc/p2pool/types"
	"github.com/Cm157cc/p2pool/utils"
)

type derivationCacheKey [types.HashSize * 2]byte
type sharedDataCacheKey [types.HashSize + 8]byte

type keyPair struct {
	private *edwards25519.Scalar
	public  *edwards25519.Point
}

// DerivationCache is shared between the loop-thread block-template builder
// and the ZMQ/bootstrap goroutines that call Clear on a found block; lock
// guards the four cache pointers themselves (swapped wholesale by Clear),
// not the caches' own internals, which are already safe for concurrent use.
type DerivationCache struct {
	lock sync.RWMutex

	deterministicKeyCache   *utils.LRUCache[derivationCacheKey, *keyPair]
	derivationCache         *utils.LRUCache[derivationCacheKey, *edwards25519.Point]
	sharedDataCache         *utils.LRUCache[sharedDataCacheKey, *edwards25519.Scalar]
	ephemeralPublicKeyCache *utils.LRUCache[derivationCacheKey, types.Hash]
}

func NewDerivationCache() *DerivationCache {
	d := &DerivationCache{}
	d.Clear()
	return d
}

// Clear reassigns all four caches to fresh, empty instances. Safe to call
// from any goroutine; each cache lookup sees either the instance from
// before or the one from after the swap. A Get* call that consults several
// caches takes the lock once per cache, so it may use some caches from
// before a concurrent swap and some from after it.
func (d *DerivationCache) Clear() {
	//keep a few recent blocks from the past few for uncles, and reused window miners
	//~10s per share, keys change every monero block (2m). around 2160 max shares per 6h (window), plus uncles. 6 shares per minute.
	//each share can have up to 2160 outputs, plus uncles. each miner has its own private key per monero block
	d.lock.Lock()
	defer d.lock.Unlock()
	d.deterministicKeyCache = utils.NewLRUCache[derivationCacheKey, *keyPair](4096)
	d.derivationCache = utils.NewLRUCache[derivationCacheKey, *edwards25519.Point](4096)
	d.sharedDataCache = utils.NewLRUCache[sharedDataCacheKey, *edwards25519.Scalar](4096 * 2160)
	d.ephemeralPublicKeyCache = utils.NewLRUCache[derivationCacheKey, types.Hash](4096 * 2160)
}

func (d *DerivationCache) GetEphemeralPublicKey(address *Address, txKey types.Hash, outputIndex uint64) types.Hash {
	sharedData := d.GetSharedData(address, txKey, outputIndex)

	var key derivationCacheKey
	copy(key[:], address.SpendPub.Bytes())
	copy(key[types.HashSize:], sharedData.Bytes())

	d.lock.RLock()
	cache := d.ephemeralPublicKeyCache
	d.lock.RUnlock()

	if ephemeralPubKey, ok := cache.Get(key); !ok {
		copy(ephemeralPubKey[:], address.GetPublicKeyForSharedData(sharedData).Bytes())
		cache.Set(key, ephemeralPubKey)
		return ephemeralPubKey
	} else {
		return ephemeralPubKey
	}
}

func (d *DerivationCache) GetSharedData(address *Address, txKey types.Hash, outputIndex uint64) *edwards25519.Scalar {
	derivation := d.GetDerivation(address, txKey)

	var key sharedDataCacheKey
	copy(key[:], derivation.Bytes())
	binary.LittleEndian.PutUint64(key[types.HashSize:], outputIndex)

	d.lock.RLock()
	cache := d.sharedDataCache
	d.lock.RUnlock()

	if sharedData, ok := cache.Get(key); !ok {
		sharedData = GetDerivationSharedDataForOutputIndex(derivation, outputIndex)
		cache.Set(key, sharedData)
		return sharedData
	} else {
		return sharedData
	}
}

func (d *DerivationCache) GetDeterministicTransactionKey(address *Address, prevId types.Hash) (private *edwards25519.Scalar, public *edwards25519.Point) {
	var key derivationCacheKey
	copy(key[:], address.SpendPub.Bytes())
	copy(key[types.HashSize:], prevId[:])

	d.lock.RLock()
	cache := d.deterministicKeyCache
	d.lock.RUnlock()

	if kp, ok := cache.Get(key); !ok {
		kp = &keyPair{
			private: address.GetDeterministicTransactionPrivateKey(prevId),
		}
		kp.public = edwards25519.NewIdentityPoint().ScalarBaseMult(kp.private)
		cache.Set(key, kp)
		return kp.private, kp.public
	} else {
		return kp.private, kp.public
	}
}

func (d *DerivationCache) GetDerivation(address *Address, txKey types.Hash) *edwards25519.Point {
	var key derivationCacheKey
	copy(key[:], address.ViewPub.Bytes())
	copy(key[types.HashSize:], txKey[:])

	d.lock.RLock()
	cache := d.derivationCache
	d.lock.RUnlock()

	if derivation, ok := cache.Get(key); !ok {
		pK, _ := edwards25519.NewScalar().SetCanonicalBytes(txKey[:])
		derivation = address.GetDerivationForPrivateKey(pK)
		cache.Set(key, derivation)
		return derivation
	} else {
		return derivation
	}
}

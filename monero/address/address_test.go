package address

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testAddress = FromBase58("42HEEF3NM9cHkJoPpDhNyJHuZ6DFhdtymCohF9CwP5KPM1Mp3eH2RVXCPRrxe4iWRogT7299R8PP7drGvThE8bHmRDq1qWp")

func TestFromBase58RoundTrips(t *testing.T) {
	require.NotNil(t, testAddress)
	require.Equal(t, "42HEEF3NM9cHkJoPpDhNyJHuZ6DFhdtymCohF9CwP5KPM1Mp3eH2RVXCPRrxe4iWRogT7299R8PP7drGvThE8bHmRDq1qWp", testAddress.ToBase58())
}

func TestFromBase58RejectsBadChecksum(t *testing.T) {
	corrupted := "42HEEF3NM9cHkJoPpDhNyJHuZ6DFhdtymCohF9CwP5KPM1Mp3eH2RVXCPRrxe4iWRogT7299R8PP7drGvThE8bHmRDq1qWq"
	require.Nil(t, FromBase58(corrupted))
}

func TestGetDeterministicTransactionPrivateKeyIsStable(t *testing.T) {
	var prevId [32]byte
	prevId[0] = 7

	k1 := testAddress.GetDeterministicTransactionPrivateKey(prevId)
	k2 := testAddress.GetDeterministicTransactionPrivateKey(prevId)
	require.Equal(t, k1.Bytes(), k2.Bytes())
}

func TestGetEphemeralPublicKeyIsDeterministicPerOutputIndex(t *testing.T) {
	var txKey [32]byte
	txKey[0] = 3

	k1 := testAddress.GetEphemeralPublicKey(txKey, 0)
	k2 := testAddress.GetEphemeralPublicKey(txKey, 0)
	require.Equal(t, k1, k2)

	k3 := testAddress.GetEphemeralPublicKey(txKey, 1)
	require.NotEqual(t, k1, k3, "distinct output indices must derive distinct ephemeral keys")
}

func TestVerifyRejectsMalformedSignature(t *testing.T) {
	require.Equal(t, ResultFail, testAddress.Verify([]byte("msg"), "not-a-signature"))
	require.Equal(t, ResultFail, testAddress.Verify([]byte("msg"), "SigV2notvalidbase58"))
}

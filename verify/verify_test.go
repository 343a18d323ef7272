// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package verify_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuxedo-labs/tuxedo/codec"
	"github.com/tuxedo-labs/tuxedo/cryptoutil"
	"github.com/tuxedo-labs/tuxedo/verify"
)

func mustKey(t *testing.T) *cryptoutil.PrivateKey {
	t.Helper()
	key, err := cryptoutil.NewPrivateKey()
	require.NoError(t, err)
	return key
}

func TestUpForGrabsAlwaysAccepts(t *testing.T) {
	v := verify.UpForGrabs()
	ok, err := v.Verify([]byte("anything"), nil, nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSigCheckAcceptsOwnerSignatureOnly(t *testing.T) {
	owner := mustKey(t)
	impostor := mustKey(t)
	v := verify.SigCheck(owner.PublicKey().Bytes())
	preimage := verify.Preimage("simplified tx bytes")

	sig, err := owner.SignHash(cryptoutil.HashMessage(preimage))
	require.NoError(t, err)
	ok, err := v.Verify(preimage, sig, nil)
	require.NoError(t, err)
	require.True(t, ok)

	badSig, err := impostor.SignHash(cryptoutil.HashMessage(preimage))
	require.NoError(t, err)
	ok, err = v.Verify(preimage, badSig, nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSigCheckRejectsWrongPreimage(t *testing.T) {
	owner := mustKey(t)
	v := verify.SigCheck(owner.PublicKey().Bytes())
	sig, err := owner.SignHash(cryptoutil.HashMessage([]byte("tx A")))
	require.NoError(t, err)

	ok, err := v.Verify([]byte("tx B"), sig, nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestThresholdMultiSignatureRequiresK(t *testing.T) {
	k1, k2, k3 := mustKey(t), mustKey(t), mustKey(t)
	signatories := [][]byte{k1.PublicKey().Bytes(), k2.PublicKey().Bytes(), k3.PublicKey().Bytes()}
	v, err := verify.ThresholdMultiSignature(2, signatories)
	require.NoError(t, err)

	preimage := verify.Preimage("threshold preimage")
	hash := cryptoutil.HashMessage(preimage)
	sig1, err := k1.SignHash(hash)
	require.NoError(t, err)
	sig3, err := k3.SignHash(hash)
	require.NoError(t, err)

	redeemer := verify.EncodeIndexedSignatures([]verify.IndexedSignature{
		{Index: 0, Sig: sig1},
	})
	ok, err := v.Verify(preimage, redeemer, nil)
	require.NoError(t, err)
	require.False(t, ok, "one of two required signatures must not pass")

	redeemer = verify.EncodeIndexedSignatures([]verify.IndexedSignature{
		{Index: 0, Sig: sig1},
		{Index: 2, Sig: sig3},
	})
	ok, err = v.Verify(preimage, redeemer, nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestThresholdMultiSignatureRejectsDuplicateSignatory(t *testing.T) {
	k1, k2 := mustKey(t), mustKey(t)
	v, err := verify.ThresholdMultiSignature(2, [][]byte{k1.PublicKey().Bytes(), k2.PublicKey().Bytes()})
	require.NoError(t, err)

	preimage := verify.Preimage("dup preimage")
	sig1, err := k1.SignHash(cryptoutil.HashMessage(preimage))
	require.NoError(t, err)

	// The same valid signature counted twice under the same index must not
	// satisfy a threshold of 2.
	redeemer := verify.EncodeIndexedSignatures([]verify.IndexedSignature{
		{Index: 0, Sig: sig1},
		{Index: 0, Sig: sig1},
	})
	ok, err := v.Verify(preimage, redeemer, nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBadThreshold(t *testing.T) {
	_, err := verify.ThresholdMultiSignature(0, nil)
	require.ErrorIs(t, err, verify.ErrBadThreshold)
}

func TestTux0TransferRequiresMatchingCommitment(t *testing.T) {
	var spenderPub, spenderSecret, commitOwnerPub [cryptoutil.BoxKeyLen]byte
	spenderPub[0], spenderSecret[0], commitOwnerPub[0] = 1, 2, 1

	ciphertext, err := cryptoutil.EncryptDeterministic(&commitOwnerPub, &spenderSecret)
	require.NoError(t, err)

	v := verify.Tux0Transfer(0)
	txHash := [32]byte{9}
	ctx := &verify.Context{
		InputRefs: []struct {
			TxHash [32]byte
			Index  uint32
		}{{TxHash: txHash, Index: 0}},
		PeekPayload: func(h [32]byte, idx uint32) ([]byte, bool) {
			if h == txHash && idx == 0 {
				return ciphertext, true
			}
			return nil, false
		},
	}
	redeemer := verify.EncodeTux0SpendData(verify.Tux0SpendData{
		PubKey: commitOwnerPub,
		Secret: spenderSecret,
		TxHash: txHash,
		Index:  0,
	})
	ok, err := v.Verify(nil, redeemer, ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// Wrong secret must fail.
	wrongRedeemer := verify.EncodeTux0SpendData(verify.Tux0SpendData{
		PubKey: commitOwnerPub,
		Secret: [cryptoutil.BoxKeyLen]byte{99},
		TxHash: txHash,
		Index:  0,
	})
	ok, err = v.Verify(nil, wrongRedeemer, ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTux0TransferRequiresContext(t *testing.T) {
	v := verify.Tux0Transfer(0)
	_, err := v.Verify(nil, nil, nil)
	require.Error(t, err)
}

func TestVerifierCodecRoundTrip(t *testing.T) {
	cases := []verify.Verifier{
		verify.UpForGrabs(),
		verify.SigCheck([]byte{1, 2, 3}),
		verify.Tux0Transfer(5),
	}
	th, err := verify.ThresholdMultiSignature(2, [][]byte{{1}, {2}, {3}})
	require.NoError(t, err)
	cases = append(cases, th)

	for _, v := range cases {
		w := new(codec.Writer)
		require.NoError(t, v.MarshalCodec(w))
		var got verify.Verifier
		require.NoError(t, got.UnmarshalCodec(codec.NewReader(w.Bytes())))
		require.Equal(t, v, got)
	}
}

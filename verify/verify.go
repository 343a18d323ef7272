// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package verify implements the Verifier tagged union: the per-output
// spending predicate checked by the executive before a transaction's
// inputs may be consumed.
//
// The verifier set is closed and enumerable: rather than
// trait-object/interface dispatch, Kind discriminates a fixed set of
// variants so the wire encoding stays stable and validation total. This
// mirrors vms/avm/tx.go's SignSECP256K1Fx/secp256k1fx.Credential pairing,
// generalized to a k-of-n threshold variant and to a DAP-aware
// Tux0Transfer variant that binds spendability to a hidden commitment.
package verify

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tuxedo-labs/tuxedo/codec"
	"github.com/tuxedo-labs/tuxedo/cryptoutil"
)

// Kind discriminates the closed set of Verifier variants.
type Kind byte

const (
	// KindUpForGrabs accepts any spend unconditionally.
	KindUpForGrabs Kind = iota
	// KindSigCheck requires a valid signature from a single owner pubkey.
	KindSigCheck
	// KindThresholdMultiSignature requires k-of-n valid signatures.
	KindThresholdMultiSignature
	// KindTux0Transfer binds spendability to knowledge of a (pubkey,
	// secret) pair whose ciphertext equals a peeked commitment.
	KindTux0Transfer
)

// Preimage is the canonical per-transaction byte string verifiers check
// redeemers against: the transaction's canonical encoding with every
// redeemer field zeroed (the "simplified_tx").
type Preimage []byte

// Verifier is the closed tagged union every output's spending condition
// is expressed as.
type Verifier struct {
	Kind Kind

	// KindSigCheck
	OwnerPubKey []byte

	// KindThresholdMultiSignature
	Threshold   uint8
	Signatories [][]byte

	// KindTux0Transfer
	Tux0ID byte
}

var (
	// ErrBadThreshold is returned when a ThresholdMultiSignature verifier
	// is constructed with threshold < 1. UnmarshalCodec does not check the
	// threshold; a decoded verifier with threshold 0 never authorizes.
	ErrBadThreshold = errors.New("verify: threshold must be >= 1")
)

// UpForGrabs builds the unconditionally-accepting verifier.
func UpForGrabs() Verifier { return Verifier{Kind: KindUpForGrabs} }

// SigCheck builds a single-owner signature verifier.
func SigCheck(ownerPubKey []byte) Verifier {
	return Verifier{Kind: KindSigCheck, OwnerPubKey: append([]byte(nil), ownerPubKey...)}
}

// ThresholdMultiSignature builds a k-of-n verifier.
func ThresholdMultiSignature(threshold uint8, signatories [][]byte) (Verifier, error) {
	if threshold < 1 {
		return Verifier{}, ErrBadThreshold
	}
	cp := make([][]byte, len(signatories))
	for i, s := range signatories {
		cp[i] = append([]byte(nil), s...)
	}
	return Verifier{Kind: KindThresholdMultiSignature, Threshold: threshold, Signatories: cp}, nil
}

// Tux0Transfer builds the DAP transfer verifier for the given coin ID.
func Tux0Transfer(id byte) Verifier {
	return Verifier{Kind: KindTux0Transfer, Tux0ID: id}
}

// IndexedSignature is one entry of a ThresholdMultiSignature redeemer: the
// signatory's index into Verifier.Signatories plus their signature.
type IndexedSignature struct {
	Index uint8
	Sig   []byte
}

// Tux0SpendData is the redeemer shape decoded for a Tux0Transfer verifier:
// the spender's pubkey, the secret that was encrypted into the peeked
// commitment, and the output being spent under this verifier.
type Tux0SpendData struct {
	PubKey [cryptoutil.BoxKeyLen]byte
	Secret [cryptoutil.BoxKeyLen]byte
	TxHash [32]byte
	Index  uint32
}

// Verify evaluates the verifier against a canonicalized preimage and a
// redeemer. ctx carries the collaborators needed by the DAP-aware variant;
// it is nil for all other variants.
func (v Verifier) Verify(preimage Preimage, redeemer []byte, ctx *Context) (bool, error) {
	switch v.Kind {
	case KindUpForGrabs:
		return true, nil
	case KindSigCheck:
		return v.verifySigCheck(preimage, redeemer)
	case KindThresholdMultiSignature:
		return v.verifyThreshold(preimage, redeemer)
	case KindTux0Transfer:
		return v.verifyTux0Transfer(preimage, redeemer, ctx)
	default:
		return false, fmt.Errorf("verify: unknown verifier kind %d", v.Kind)
	}
}

// Context supplies the executive-side collaborators a Verifier may need.
// Only Tux0Transfer uses it today.
type Context struct {
	// InputRefs lists the (txHash, index) pairs the simplified_tx spends,
	// so Tux0Transfer can check that its target input is really among
	// them.
	InputRefs []struct {
		TxHash [32]byte
		Index  uint32
	}
	// PeekPayload returns the stored payload bytes for (txHash, index),
	// or ok=false if not found.
	PeekPayload func(txHash [32]byte, index uint32) (data []byte, ok bool)
}

func (v Verifier) verifySigCheck(preimage Preimage, redeemer []byte) (bool, error) {
	pub, err := cryptoutil.PublicKeyFromBytes(v.OwnerPubKey)
	if err != nil {
		return false, nil //nolint:nilerr // malformed stored key never authorizes
	}
	hash := cryptoutil.HashMessage(preimage)
	return pub.VerifyHash(hash, redeemer), nil
}

func (v Verifier) verifyThreshold(preimage Preimage, redeemer []byte) (bool, error) {
	sigs, err := decodeIndexedSignatures(redeemer)
	if err != nil {
		return false, nil //nolint:nilerr // malformed redeemer never authorizes
	}
	hash := cryptoutil.HashMessage(preimage)
	seen := map[uint8]bool{}
	valid := 0
	for _, is := range sigs {
		if int(is.Index) >= len(v.Signatories) || seen[is.Index] {
			continue
		}
		pub, err := cryptoutil.PublicKeyFromBytes(v.Signatories[is.Index])
		if err != nil {
			continue
		}
		if pub.VerifyHash(hash, is.Sig) {
			seen[is.Index] = true
			valid++
		}
	}
	return v.Threshold >= 1 && valid >= int(v.Threshold), nil
}

func (v Verifier) verifyTux0Transfer(preimage Preimage, redeemer []byte, ctx *Context) (bool, error) {
	if ctx == nil {
		return false, errors.New("verify: Tux0Transfer requires a Context")
	}
	sd, err := DecodeTux0SpendData(redeemer)
	if err != nil {
		return false, nil //nolint:nilerr // malformed redeemer never authorizes
	}
	found := false
	for _, in := range ctx.InputRefs {
		if in.TxHash == sd.TxHash && in.Index == sd.Index {
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}
	commitment, ok := ctx.PeekPayload(sd.TxHash, sd.Index)
	if !ok {
		return false, nil
	}
	ciphertext, err := cryptoutil.EncryptDeterministic(&sd.PubKey, &sd.Secret)
	if err != nil {
		return false, nil //nolint:nilerr
	}
	return bytesEqual(ciphertext, commitment), nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- redeemer codecs -------------------------------------------------

// EncodeIndexedSignatures canonically encodes a ThresholdMultiSignature
// redeemer.
func EncodeIndexedSignatures(sigs []IndexedSignature) []byte {
	sorted := append([]IndexedSignature(nil), sigs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })
	w := new(codec.Writer)
	w.PutUint32(uint32(len(sorted)))
	for _, s := range sorted {
		w.PutByte(s.Index)
		w.PutBytes(s.Sig)
	}
	return w.Bytes()
}

func decodeIndexedSignatures(b []byte) ([]IndexedSignature, error) {
	r := codec.NewReader(b)
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	out := make([]IndexedSignature, 0, n)
	for i := uint32(0); i < n; i++ {
		idx, err := r.Byte()
		if err != nil {
			return nil, err
		}
		sig, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		out = append(out, IndexedSignature{Index: idx, Sig: sig})
	}
	return out, nil
}

// EncodeTux0SpendData canonically encodes a Tux0Transfer redeemer.
func EncodeTux0SpendData(sd Tux0SpendData) []byte {
	w := new(codec.Writer)
	w.PutFixedBytes(sd.PubKey[:])
	w.PutFixedBytes(sd.Secret[:])
	w.PutFixedBytes(sd.TxHash[:])
	w.PutUint32(sd.Index)
	return w.Bytes()
}

// DecodeTux0SpendData decodes a Tux0Transfer redeemer.
func DecodeTux0SpendData(b []byte) (Tux0SpendData, error) {
	var sd Tux0SpendData
	r := codec.NewReader(b)
	pk, err := r.FixedBytes(cryptoutil.BoxKeyLen)
	if err != nil {
		return sd, err
	}
	copy(sd.PubKey[:], pk)
	sec, err := r.FixedBytes(cryptoutil.BoxKeyLen)
	if err != nil {
		return sd, err
	}
	copy(sd.Secret[:], sec)
	th, err := r.FixedBytes(32)
	if err != nil {
		return sd, err
	}
	copy(sd.TxHash[:], th)
	idx, err := r.Uint32()
	if err != nil {
		return sd, err
	}
	sd.Index = idx
	return sd, nil
}

// --- canonical encoding of the Verifier itself ------------------------

// MarshalCodec writes the tagged-union encoding of v.
func (v Verifier) MarshalCodec(w *codec.Writer) error {
	w.PutByte(byte(v.Kind))
	switch v.Kind {
	case KindUpForGrabs:
	case KindSigCheck:
		w.PutBytes(v.OwnerPubKey)
	case KindThresholdMultiSignature:
		w.PutByte(v.Threshold)
		w.PutUint32(uint32(len(v.Signatories)))
		for _, s := range v.Signatories {
			w.PutBytes(s)
		}
	case KindTux0Transfer:
		w.PutByte(v.Tux0ID)
	default:
		return fmt.Errorf("verify: unknown verifier kind %d", v.Kind)
	}
	return nil
}

// UnmarshalCodec reads the tagged-union encoding into v.
func (v *Verifier) UnmarshalCodec(r *codec.Reader) error {
	k, err := r.Byte()
	if err != nil {
		return err
	}
	v.Kind = Kind(k)
	switch v.Kind {
	case KindUpForGrabs:
	case KindSigCheck:
		b, err := r.Bytes()
		if err != nil {
			return err
		}
		v.OwnerPubKey = b
	case KindThresholdMultiSignature:
		th, err := r.Byte()
		if err != nil {
			return err
		}
		v.Threshold = th
		n, err := r.Uint32()
		if err != nil {
			return err
		}
		v.Signatories = make([][]byte, n)
		for i := range v.Signatories {
			s, err := r.Bytes()
			if err != nil {
				return err
			}
			v.Signatories[i] = s
		}
	case KindTux0Transfer:
		id, err := r.Byte()
		if err != nil {
			return err
		}
		v.Tux0ID = id
	default:
		return fmt.Errorf("verify: unknown verifier kind %d", v.Kind)
	}
	return nil
}

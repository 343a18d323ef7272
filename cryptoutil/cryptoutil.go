// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package cryptoutil wraps the ECDSA/secp256k1 primitives used by the
// Verifier variants, and the deterministic-nonce box-seal helper used by
// the Tux0Transfer verifier to bind a DAP coin's spendability to knowledge
// of a (pubkey, secret) pair.
package cryptoutil

import (
	"crypto/sha256"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"
)

// SigLen is the length of a compact (r || s) secp256k1 ECDSA signature.
// SignHash emits DER-encoded signatures, whose length varies and is not
// SigLen.
const SigLen = 64

// PubKeyLen is the length of a serialized compressed secp256k1 public key.
const PubKeyLen = 33

// ErrInvalidSignature is returned by Verify when the signature is
// malformed (as opposed to simply not matching).
var ErrInvalidSignature = errors.New("cryptoutil: malformed signature")

// PrivateKey wraps a secp256k1 signing key.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// PublicKey wraps a secp256k1 compressed public key.
type PublicKey struct {
	key *secp256k1.PublicKey
}

// NewPrivateKey generates a fresh signing key.
func NewPrivateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes parses a 32-byte scalar.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, errors.New("cryptoutil: private key must be 32 bytes")
	}
	key := secp256k1.PrivKeyFromBytes(b)
	return &PrivateKey{key: key}, nil
}

// Bytes returns the raw 32-byte scalar.
func (k *PrivateKey) Bytes() []byte { return k.key.Serialize() }

// PublicKey derives the corresponding public key.
func (k *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: k.key.PubKey()}
}

// SignHash produces a deterministic (RFC6979) ECDSA signature over a
// 32-byte message hash, matching the "redeemer is a signature over
// simplified_tx" contract of the SigCheck verifier.
func (k *PrivateKey) SignHash(hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, errors.New("cryptoutil: hash must be 32 bytes")
	}
	sig := ecdsa.Sign(k.key, hash)
	return sig.Serialize(), nil
}

// Bytes returns the 33-byte compressed public key.
func (k *PublicKey) Bytes() []byte { return k.key.SerializeCompressed() }

// PublicKeyFromBytes parses a 33-byte compressed public key.
func PublicKeyFromBytes(b []byte) (*PublicKey, error) {
	key, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, err
	}
	return &PublicKey{key: key}, nil
}

// VerifyHash checks a signature produced by SignHash against a 32-byte
// message hash.
func (k *PublicKey) VerifyHash(hash, sig []byte) bool {
	parsed, err := parseDERorCompact(sig)
	if err != nil {
		return false
	}
	return parsed.Verify(hash, k.key)
}

func parseDERorCompact(sig []byte) (*ecdsa.Signature, error) {
	// dcrd's ecdsa.Sign emits DER by default.
	return ecdsa.ParseDERSignature(sig)
}

// HashMessage hashes an arbitrary message with SHA-256 before signing or
// verifying, used by callers that sign raw bytes rather than a
// pre-computed blake2b transaction hash.
func HashMessage(msg []byte) []byte {
	h := sha256.Sum256(msg)
	return h[:]
}

// BoxKeyLen is the length of a Curve25519 key used by the deterministic
// encryption helper below.
const BoxKeyLen = 32

// zeroNonce is the all-zero nonce fed to box.Seal, mirroring the reference
// implementation's all-zeros RNG. This makes the ciphertext fully
// deterministic (and, as the reference implementation acknowledges, weak);
// it is preserved bit-for-bit for wire compatibility — see DESIGN.md.
var zeroNonce [24]byte

// EncryptDeterministic encrypts secret for the recipient identified by
// pubKey using a fixed all-zero nonce and the sender's corresponding fixed
// all-zero-derived ephemeral key, so that repeated calls with the same
// (pubKey, secret) always produce the same ciphertext. This is the
// Tux0Transfer verifier's binding mechanism: a stored commitment equals
// EncryptDeterministic(pubkey, secret) iff the spender knows secret.
func EncryptDeterministic(pubKey, secret *[BoxKeyLen]byte) ([]byte, error) {
	// The "ephemeral" key is itself fixed (derived from the all-zero
	// scalar), matching the reference implementation's MockRng which
	// always yields zero bytes for every call, including key generation.
	var ephemeralPriv [BoxKeyLen]byte
	var ephemeralPub [BoxKeyLen]byte
	curve25519.ScalarBaseMult(&ephemeralPub, &ephemeralPriv)
	_ = ephemeralPub // the public half is not transmitted; the recipient's ciphertext-matching check only needs the shared secret

	out := box.SealAfterPrecomputation(nil, secret[:], &zeroNonce, sharedKey(pubKey, &ephemeralPriv))
	return out, nil
}

func sharedKey(pubKey, priv *[BoxKeyLen]byte) *[BoxKeyLen]byte {
	var shared [BoxKeyLen]byte
	box.Precompute(&shared, pubKey, priv)
	return &shared
}

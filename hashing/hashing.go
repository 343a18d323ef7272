// Package hashing computes the canonical 32-byte digest used throughout the
// engine to content-address transactions and blocks.
package hashing

import (
	"golang.org/x/crypto/blake2b"
)

// HashLen is the length in bytes of every digest this package produces.
const HashLen = 32

// Hash256 returns the blake2b-256 digest of buf.
func Hash256(buf []byte) [HashLen]byte {
	return blake2b.Sum256(buf)
}

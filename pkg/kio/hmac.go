package kio

import (
	"crypto/hmac"
	"hash"
)

// newMacFunc builds the crypto/hmac collaborator for Hmac. Kept in its
// own file since it is the one place this package reaches for a
// cryptographic primitive, and only as a consumer of the hash.Hash
// collaborator interface.
func newMacFunc(newHash func() hash.Hash, key []byte) hash.Hash {
	return hmac.New(newHash, key)
}

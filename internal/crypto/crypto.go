// Package crypto seals clipboard history at rest with NaCl secretbox.
//
// A 32-byte symmetric key is derived from the configured passphrase using
// HKDF-SHA256. Every sealed blob carries a random 24-byte nonce in front of
// the ciphertext:
//
//	[ 24-byte nonce ][ ciphertext ]
//
// An empty passphrase means history is stored in the clear and this package
// is not used.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

var hkdfInfo = []byte("clipshelf-history-v1")

// ErrDecrypt is returned when a blob cannot be opened with the given key.
var ErrDecrypt = errors.New("decryption failed (wrong passphrase?)")

// Key is a derived secretbox key.
type Key = [keySize]byte

// DeriveKey derives the history key from passphrase.
func DeriveKey(passphrase string) (*Key, error) {
	if passphrase == "" {
		return nil, errors.New("empty passphrase")
	}
	h := hkdf.New(sha256.New, []byte(passphrase), nil, hkdfInfo)
	var key Key
	if _, err := io.ReadFull(h, key[:]); err != nil {
		return nil, fmt.Errorf("key derivation: %w", err)
	}
	return &key, nil
}

// Seal encrypts plaintext with key, prepending a random nonce.
func Seal(plaintext []byte, key *Key) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("nonce generation: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, key), nil
}

// Open decrypts a blob produced by Seal.
func Open(sealed []byte, key *Key) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("sealed data too short: %w", ErrDecrypt)
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, key)
	if !ok {
		return nil, ErrDecrypt
	}
	return plain, nil
}

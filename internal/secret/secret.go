// Package secret protects access tokens at rest. Sealing is scoped to the
// current user and machine: the AES-GCM key is derived with argon2id from
// the local user and host names, so a blob sealed here cannot be opened
// elsewhere. This is the portable stand-in for an OS DPAPI primitive and
// carries a weaker threat model: an attacker who can both read the user's
// files and run code as that user can re-derive the key.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"os/user"

	"golang.org/x/crypto/argon2"
)

// SealedBlobSize is the fixed size of every sealed token buffer.
const SealedBlobSize = 128

const (
	blobVersion    = 1
	nonceSize      = 12
	gcmTagSize     = 16
	headerSize     = 1 + nonceSize + 2 // version, nonce, ciphertext length
	maxPlaintext   = SealedBlobSize - headerSize - gcmTagSize
	scopeSaltLabel = "catime-monitor/seal/v1"
)

var (
	// ErrDecryptFailed means the blob was not sealed in this protection
	// scope or has been tampered with. Callers treat it as "no usable
	// token" and proceed unauthenticated.
	ErrDecryptFailed = errors.New("secret: unseal failed")
	// ErrTooLong means the plaintext does not fit a fixed-size blob.
	ErrTooLong = errors.New("secret: plaintext too long for sealed blob")
)

// Store seals and unseals tokens within one protection scope.
type Store struct {
	aead cipher.AEAD
}

// NewStore derives the sealing key from the given scope material. Anything
// sealed by a Store is only recoverable by a Store built from identical
// material.
func NewStore(scope []byte) (*Store, error) {
	key := argon2.IDKey(scope, []byte(scopeSaltLabel), 1, 64*1024, 4, 32)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	Wipe(key)
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &Store{aead: aead}, nil
}

// OpenUserStore builds the Store for the current user on this machine.
func OpenUserStore() (*Store, error) {
	u, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("resolve current user: %w", err)
	}
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("resolve hostname: %w", err)
	}
	return NewStore([]byte(u.Uid + "@" + host))
}

// Seal encrypts plaintext into a fixed SealedBlobSize buffer. The caller
// should Wipe the plaintext once the blob is in hand.
func (s *Store) Seal(plaintext []byte) ([]byte, error) {
	if len(plaintext) > maxPlaintext {
		return nil, ErrTooLong
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	ct := s.aead.Seal(nil, nonce, plaintext, nil)

	blob := make([]byte, SealedBlobSize)
	blob[0] = blobVersion
	copy(blob[1:], nonce)
	binary.BigEndian.PutUint16(blob[1+nonceSize:], uint16(len(ct)))
	copy(blob[headerSize:], ct)
	return blob, nil
}

// Unseal recovers the plaintext from a sealed blob. Any structural or
// cryptographic mismatch comes back as ErrDecryptFailed.
func (s *Store) Unseal(blob []byte) ([]byte, error) {
	if len(blob) != SealedBlobSize || blob[0] != blobVersion {
		return nil, ErrDecryptFailed
	}
	nonce := blob[1 : 1+nonceSize]
	ctLen := int(binary.BigEndian.Uint16(blob[1+nonceSize:]))
	if ctLen < gcmTagSize || headerSize+ctLen > SealedBlobSize {
		return nil, ErrDecryptFailed
	}
	plaintext, err := s.aead.Open(nil, nonce, blob[headerSize:headerSize+ctLen], nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plaintext, nil
}

// Wipe overwrites a plaintext buffer. Best effort: it limits the lifetime
// of secrets in memory, it is not a hard guarantee against copies made by
// the runtime.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

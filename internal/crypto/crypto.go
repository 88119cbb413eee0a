// Package crypto wraps the authenticated cipher used to exercise a
// derived key. The protocol core treats it as opaque.
package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeyBytes is the key length the cipher expects.
const KeyBytes = chacha20poly1305.KeySize

// ErrDecryption reports an authentication or framing failure while
// opening a ciphertext.
var ErrDecryption = errors.New("decryption failed")

// Encrypt seals plaintext under key with a fresh random nonce. The
// nonce is prepended to the returned ciphertext.
func Encrypt(key, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("building cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a ciphertext produced by Encrypt.
func Decrypt(key, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("building cipher: %w", err)
	}
	if len(ciphertext) < aead.NonceSize() {
		return nil, ErrDecryption
	}
	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}

// Zero overwrites b in place. Key material is discarded through Zero
// once it is no longer needed.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

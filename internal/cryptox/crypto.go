// Package cryptox seals small JSON records at rest with AES-GCM under a key
// derived from a device secret with argon2id.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/dmitrijs2005/gophloyalty/internal/common"
)

const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32
)

// ErrMalformed is returned when a sealed blob is too short to be valid.
var ErrMalformed = errors.New("malformed sealed data")

// DeriveKey stretches secret with argon2id into a 256-bit AES key.
func DeriveKey(secret []byte, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, keySize)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptEntry serializes entry to JSON and encrypts it with key.
// A fresh 12-byte nonce is returned alongside the ciphertext.
func EncryptEntry(entry any, key []byte) (ciphertext, nonce []byte, err error) {
	plaintext, err := json.Marshal(entry)
	if err != nil {
		return nil, nil, err
	}
	defer common.WipeByteArray(plaintext)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = common.GenerateRandByteArray(nonceSize)
	return aesgcm.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// DecryptEntry reverses EncryptEntry into v.
func DecryptEntry(ciphertext, nonce, key []byte, v any) error {
	aesgcm, err := newGCM(key)
	if err != nil {
		return err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(plaintext)

	return json.Unmarshal(plaintext, v)
}

// Seal encrypts v under a key derived from secret with a random salt.
// The result is salt || nonce || ciphertext.
func Seal(v any, secret []byte) ([]byte, error) {
	salt := common.GenerateRandByteArray(saltSize)
	key := DeriveKey(secret, salt)
	defer common.WipeByteArray(key)

	ciphertext, nonce, err := EncryptEntry(v, key)
	if err != nil {
		return nil, fmt.Errorf("seal: %w", err)
	}

	out := make([]byte, 0, saltSize+nonceSize+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	return append(out, ciphertext...), nil
}

// Open decrypts a blob produced by Seal into v.
func Open(blob []byte, secret []byte, v any) error {
	if len(blob) < saltSize+nonceSize {
		return ErrMalformed
	}
	salt, nonce, ciphertext := blob[:saltSize], blob[saltSize:saltSize+nonceSize], blob[saltSize+nonceSize:]

	key := DeriveKey(secret, salt)
	defer common.WipeByteArray(key)

	if err := DecryptEntry(ciphertext, nonce, key, v); err != nil {
		return fmt.Errorf("open: %w", err)
	}
	return nil
}

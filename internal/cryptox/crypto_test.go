package cryptox

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

func TestDeriveKey_Deterministic(t *testing.T) {
	secret := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveKey(secret, salt)
	key2 := DeriveKey(secret, salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}

	// argon2id, t=1, m=64 MiB, p=4; cross-checked against the RFC 9106 algorithm
	expectedHex := "9290403300158e19f27e48e7087f7383b03065bf5b25ef23ebc40229616cd8b3"
	if hex.EncodeToString(key1) != expectedHex {
		t.Errorf("expected %s, got %s", expectedHex, hex.EncodeToString(key1))
	}
}

func TestDeriveKey_DifferentSalts(t *testing.T) {
	secret := []byte("secret-password")

	if bytes.Equal(DeriveKey(secret, []byte("salt-1")), DeriveKey(secret, []byte("salt-2"))) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestEncryptDecryptEntry(t *testing.T) {
	key := DeriveKey([]byte("k"), []byte("salt-salt-salt"))
	in := record{Token: "abc", UserID: "u1"}

	ct, nonce, err := EncryptEntry(in, key)
	require.NoError(t, err)
	require.Len(t, nonce, 12)

	var out record
	require.NoError(t, DecryptEntry(ct, nonce, key, &out))
	assert.Equal(t, in, out)

	ct[0] ^= 0xFF
	require.Error(t, DecryptEntry(ct, nonce, key, &out), "tampering must be detected")
}

func TestEncryptEntry_BadKey(t *testing.T) {
	_, _, err := EncryptEntry(record{}, []byte("short"))
	require.Error(t, err)
}

func TestSealOpen(t *testing.T) {
	secret := []byte("device-secret")
	in := record{Token: "access", UserID: "user-1"}

	blob, err := Seal(in, secret)
	require.NoError(t, err)

	other, err := Seal(in, secret)
	require.NoError(t, err)
	assert.NotEqual(t, blob, other, "salt and nonce are random")

	var out record
	require.NoError(t, Open(blob, secret, &out))
	assert.Equal(t, in, out)

	require.Error(t, Open(blob, []byte("wrong-secret"), &out))
}

func TestOpen_Malformed(t *testing.T) {
	var out record
	require.ErrorIs(t, Open([]byte("short"), []byte("s"), &out), ErrMalformed)
}

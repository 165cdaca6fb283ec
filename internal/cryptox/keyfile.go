package cryptox

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/dmitrijs2005/gophloyalty/internal/common"
)

const deviceSecretSize = 32

// LoadOrCreateSecret returns the hex-encoded device secret stored at path,
// generating and writing a random one (mode 0600) on first use.
func LoadOrCreateSecret(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		secret, decErr := hex.DecodeString(strings.TrimSpace(string(raw)))
		if decErr != nil || len(secret) < deviceSecretSize {
			return nil, fmt.Errorf("device secret %s is corrupt", path)
		}
		return secret, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read device secret: %w", err)
	}

	secret := common.GenerateRandByteArray(deviceSecretSize)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create device secret: %w", err)
	}
	if _, err := f.WriteString(hex.EncodeToString(secret) + "\n"); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write device secret: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("write device secret: %w", err)
	}
	return secret, nil
}

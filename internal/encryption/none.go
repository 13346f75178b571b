package encryption

import (
	"fmt"
	"io"

	"pathdb-go/internal/pathdb"
)

// NoneEncryptor passes data through unchanged. For unencrypted deployments
// and tests; the snapshot format itself is identical either way.
type NoneEncryptor struct{}

var _ pathdb.Encryptor = (*NoneEncryptor)(nil)

// NewNoneEncryptor creates a passthrough encryptor.
func NewNoneEncryptor() *NoneEncryptor {
	return &NoneEncryptor{}
}

// Setup is a no-op: there is no key material to generate.
func (e *NoneEncryptor) Setup(passphrase string) error {
	return nil
}

func (e *NoneEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

// Unlock accepts any passphrase; there is no key to unlock.
func (e *NoneEncryptor) Unlock(passphrase string) (pathdb.DecryptionContext, error) {
	return &NoneDecryptionContext{}, nil
}

func (e *NoneEncryptor) IsConfigured() bool {
	return true
}

// NoneDecryptionContext passes ciphertext through unchanged.
type NoneDecryptionContext struct{}

var _ pathdb.DecryptionContext = (*NoneDecryptionContext)(nil)

func (c *NoneDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

package testutil

import (
	"pathdb-go/internal/encryption"
	"pathdb-go/internal/pathdb"
)

// NewTestEncryptor creates a passthrough encryptor for testing.
func NewTestEncryptor() pathdb.Encryptor {
	return encryption.NewNoneEncryptor()
}

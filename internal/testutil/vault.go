package testutil

import (
	"pathdb-go/internal/pathdb"
	"pathdb-go/internal/vault"
)

// NewTestVault creates a new in-memory vault for testing.
func NewTestVault() pathdb.Vault {
	return vault.NewMemoryVault("test-vault")
}

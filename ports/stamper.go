package ports

import (
	"context"

	"github.com/phantom/wallet-sdk-sub001/core"
)

// Stamper is the key custodian: it generates, stores, and uses the private
// key whose public half is registered as the wallet authenticator. The core
// treats the key as an opaque, rotatable credential handle.
type Stamper interface {
	// Init prepares the custodian, loading or creating key material.
	Init(ctx context.Context) error

	// ResetKeyPair discards the current key pair and generates a new one.
	ResetKeyPair(ctx context.Context) (core.StamperInfo, error)

	// GetKeyInfo returns the current key handle, or nil if none exists.
	GetKeyInfo(ctx context.Context) (*core.StamperInfo, error)
}

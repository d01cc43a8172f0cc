package ports

import (
	"context"

	"github.com/phantom/wallet-sdk-sub001/core"
)

// CreateOrganizationRequest provisions a remote organization scoped to a
// device key.
type CreateOrganizationRequest struct {
	Name      string
	PublicKey string
}

// CreateWalletRequest provisions a wallet under the client's organization.
type CreateWalletRequest struct {
	Name string
}

// SignMessageRequest signs an arbitrary UTF-8 message.
type SignMessageRequest struct {
	WalletID        string
	Message         string
	AddressType     core.AddressType
	Address         string
	DerivationIndex int
}

// SignTransactionRequest signs (and optionally submits) a serialized
// transaction.
type SignTransactionRequest struct {
	WalletID        string
	Transaction     string
	AddressType     core.AddressType
	Address         string
	DerivationIndex int
}

// CreateAuthenticatorRequest registers a new public key as an authenticator
// for the organization, replacing the named predecessor.
type CreateAuthenticatorRequest struct {
	OrganizationID string
	Name           string
	PublicKey      string
	ReplacesKeyID  string
}

// WalletClient is the remote wallet-management API. Implementations carry
// the organization scope and the stamper credentials; the core only decides
// when to call.
type WalletClient interface {
	CreateOrganization(ctx context.Context, req CreateOrganizationRequest) (organizationID string, err error)
	CreateWallet(ctx context.Context, req CreateWalletRequest) (walletID string, err error)
	GetWalletAddresses(ctx context.Context, walletID string, cursor *string, derivationIndex int) ([]core.WalletAddress, error)
	SignMessage(ctx context.Context, req SignMessageRequest) (signature string, err error)
	SignTransaction(ctx context.Context, req SignTransactionRequest) (signedTransaction string, err error)
	SignAndSendTransaction(ctx context.Context, req SignTransactionRequest) (transactionHash string, err error)
	CreateAuthenticator(ctx context.Context, req CreateAuthenticatorRequest) error
}

// ClientFactory builds a WalletClient bound to an organization. An empty
// organization ID yields an unscoped client usable only for bootstrap calls
// such as CreateOrganization.
type ClientFactory interface {
	NewClient(organizationID string) WalletClient
}

package core

import "time"

// WalletType selects how a connection is authenticated.
type WalletType string

const (
	// WalletTypeApp is a wallet owned by the application itself, scoped to
	// the device key. No user-facing authentication is involved.
	WalletTypeApp WalletType = "app-wallet"

	// WalletTypeUser is a wallet owned by an end user, authenticated via a
	// first-party app or a third-party OAuth/JWT provider.
	WalletTypeUser WalletType = "user-wallet"
)

// AuthProvider identifies which authentication path produced a session.
type AuthProvider string

const (
	ProviderAppWallet AuthProvider = "app-wallet"
	ProviderPhantom   AuthProvider = "phantom"
	ProviderGoogle    AuthProvider = "google"
	ProviderApple     AuthProvider = "apple"
	ProviderJWT       AuthProvider = "jwt"
)

// SessionStatus is the lifecycle state of the persisted session record.
type SessionStatus string

const (
	// SessionStatusPending marks a session awaiting external completion,
	// typically a redirect to a third-party provider and back.
	SessionStatusPending SessionStatus = "pending"

	// SessionStatusCompleted marks a session usable for signing.
	SessionStatusCompleted SessionStatus = "completed"

	// SessionStatusFailed marks a session whose authentication flow failed.
	SessionStatusFailed SessionStatus = "failed"
)

// AddressType identifies the chain namespace an address belongs to.
type AddressType string

const (
	AddressTypeEthereum AddressType = "ethereum"
	AddressTypeSolana   AddressType = "solana"
)

// PlaceholderID fills walletID/organizationID on a pending session until the
// redirect resolves.
const PlaceholderID = "pending"

// StamperInfo identifies the local asymmetric key used to authenticate
// requests to the remote wallet API. The key material itself stays inside
// the stamper; the core only ever sees this handle.
type StamperInfo struct {
	KeyID     string `json:"keyId"`
	PublicKey string `json:"publicKey"`
}

// Session is the unit of persisted connection state. Exactly one session is
// persisted at a time; it is created by the auth flow router, mutated by the
// orchestrator and the authenticator lifecycle manager, and cleared on
// disconnect or detected staleness.
type Session struct {
	SessionID              string        `json:"sessionId"`
	WalletID               string        `json:"walletId"`
	OrganizationID         string        `json:"organizationId"`
	AppID                  string        `json:"appId"`
	Stamper                StamperInfo   `json:"stamperInfo"`
	AuthProvider           AuthProvider  `json:"authProvider"`
	Status                 SessionStatus `json:"status"`
	CreatedAt              time.Time     `json:"createdAt"`
	LastUsed               time.Time     `json:"lastUsed"`
	AuthenticatorCreatedAt time.Time     `json:"authenticatorCreatedAt"`
	AuthenticatorExpiresAt time.Time     `json:"authenticatorExpiresAt"`
	LastRenewalAttempt     *time.Time    `json:"lastRenewalAttempt,omitempty"`
	AccountDerivationIndex int           `json:"accountDerivationIndex,omitempty"`
	AuthUserID             string        `json:"authUserId,omitempty"`
}

// Completed reports whether the session is usable for signing, i.e. it is in
// the completed state and carries the fields a completed session must have.
func (s *Session) Completed() bool {
	return s.Status == SessionStatusCompleted &&
		s.WalletID != "" &&
		s.OrganizationID != "" &&
		s.Stamper.KeyID != "" &&
		!s.AuthenticatorExpiresAt.IsZero()
}

// AuthenticatorExpired reports whether the session's authenticator is past
// its expiry at the given instant. An expired authenticator invalidates the
// whole session.
func (s *Session) AuthenticatorExpired(now time.Time) bool {
	return !s.AuthenticatorExpiresAt.After(now)
}

// HasAuthenticatorTiming reports whether both authenticator timestamps are
// set. A completed session missing either is corrupt.
func (s *Session) HasAuthenticatorTiming() bool {
	return !s.AuthenticatorCreatedAt.IsZero() && !s.AuthenticatorExpiresAt.IsZero()
}

// Fold merges an authentication result into the session and marks it
// completed. The stamper handle and timestamps are left untouched; callers
// refresh LastUsed separately.
func (s *Session) Fold(res *AuthResult) {
	s.WalletID = res.WalletID
	s.OrganizationID = res.OrganizationID
	if res.Provider != "" {
		s.AuthProvider = res.Provider
	}
	s.AccountDerivationIndex = res.AccountDerivationIndex
	if res.AuthUserID != "" {
		s.AuthUserID = res.AuthUserID
	}
	s.Status = SessionStatusCompleted
}

// AuthResult is the transient value returned by a provider-specific
// authentication step. It is never persisted as-is; it is folded into a
// Session.
type AuthResult struct {
	WalletID               string
	OrganizationID         string
	Provider               AuthProvider
	AccountDerivationIndex int
	ExpiresIn              time.Duration
	AuthUserID             string
}

// WalletAddress pairs an address with its chain namespace.
type WalletAddress struct {
	AddressType AddressType `json:"addressType"`
	Address     string      `json:"address"`
}

// ConnectResult is the public return value of a connection attempt. For a
// redirect flow still awaiting completion, Status is pending and Addresses
// is empty.
type ConnectResult struct {
	WalletID     string          `json:"walletId"`
	Addresses    []WalletAddress `json:"addresses"`
	Status       SessionStatus   `json:"status"`
	AuthUserID   string          `json:"authUserId,omitempty"`
	AuthProvider AuthProvider    `json:"authProvider,omitempty"`
}

// FilterAddresses returns the addresses whose type is in the allowed set,
// preserving order. An empty allowed set returns all addresses.
func FilterAddresses(addrs []WalletAddress, allowed []AddressType) []WalletAddress {
	if len(allowed) == 0 {
		return addrs
	}
	out := make([]WalletAddress, 0, len(addrs))
	for _, a := range addrs {
		for _, t := range allowed {
			if a.AddressType == t {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

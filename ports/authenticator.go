package ports

import (
	"context"

	"github.com/phantom/wallet-sdk-sub001/core"
)

// AuthenticateOptions carries everything a provider-specific authentication
// step needs.
type AuthenticateOptions struct {
	Provider AuthProviderOption
	// SessionID identifies the pending session so the completion leg of a
	// redirect can be matched back to it.
	SessionID string
	// Stamper is the key handle whose public half the provider registers.
	Stamper core.StamperInfo
	// ForceFreshSession instructs the provider to discard any remembered
	// third-party session instead of silently refreshing it.
	ForceFreshSession bool
}

// AuthProviderOption is the caller-requested provider plus its inputs.
type AuthProviderOption struct {
	Provider core.AuthProvider
	// RedirectURL is where a redirect-capable provider should send the user
	// back to.
	RedirectURL string
	// JWT is the caller-supplied token for the custom-auth path.
	JWT string
}

// RedirectAuthenticator drives OAuth/JWT authentication that may leave the
// current execution context entirely. Authenticate returning (nil, nil)
// means a navigation has been initiated and the flow will resume in a later
// invocation via ResumeFromRedirect.
type RedirectAuthenticator interface {
	Authenticate(ctx context.Context, opts AuthenticateOptions) (*core.AuthResult, error)

	// ResumeFromRedirect recovers the in-flight authentication after the
	// external leg completes. It returns (nil, nil) when no redirect
	// context is present, and core.ErrNoSessionToComplete when redirect
	// parameters exist but the local session they belong to is gone.
	ResumeFromRedirect(ctx context.Context, provider core.AuthProvider) (*core.AuthResult, error)
}

// AppAuthenticator is the first-party app path: a synchronous round-trip
// with no navigation.
type AppAuthenticator interface {
	IsAvailable(ctx context.Context) bool
	Authenticate(ctx context.Context, opts AuthenticateOptions) (*core.AuthResult, error)
}

// URLParams reads parameters from the current navigation context. The core
// uses it solely for the session-identifying parameter on the redirect
// return leg.
type URLParams interface {
	// GetParam returns the value for key, or "" if absent.
	GetParam(key string) string
}

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/phantom/wallet-sdk-sub001/core"
	"github.com/phantom/wallet-sdk-sub001/ports"
)

// TokenExchanger trades a verified third-party JWT for wallet credentials
// at the remote wallet service, registering the stamper key in the process.
type TokenExchanger interface {
	ExchangeToken(ctx context.Context, token string, stamper core.StamperInfo) (*core.AuthResult, error)
}

// JWTAuthenticator is the custom-auth path: the host application brings its
// own identity token and no navigation is involved. The token is checked
// locally before the exchange round-trip so obviously dead tokens fail fast;
// authoritative verification happens at the remote service.
type JWTAuthenticator struct {
	exchanger TokenExchanger

	// keyFunc, when set, enables full local signature verification.
	keyFunc jwt.Keyfunc
}

// NewJWTAuthenticator creates the custom-auth authenticator. keyFunc may be
// nil when the issuer's keys are not distributed to clients.
func NewJWTAuthenticator(exchanger TokenExchanger, keyFunc jwt.Keyfunc) *JWTAuthenticator {
	return &JWTAuthenticator{exchanger: exchanger, keyFunc: keyFunc}
}

var _ ports.RedirectAuthenticator = (*JWTAuthenticator)(nil)

// Authenticate validates the supplied JWT and exchanges it for wallet
// credentials. It always returns a result or an error, never the
// navigation-initiated signal.
func (a *JWTAuthenticator) Authenticate(ctx context.Context, opts ports.AuthenticateOptions) (*core.AuthResult, error) {
	tokenStr := opts.Provider.JWT
	if tokenStr == "" {
		return nil, fmt.Errorf("missing jwt for custom auth")
	}

	claims, err := a.parseClaims(tokenStr)
	if err != nil {
		return nil, err
	}

	res, err := a.exchanger.ExchangeToken(ctx, tokenStr, opts.Stamper)
	if err != nil {
		return nil, fmt.Errorf("exchange token: %w", err)
	}

	if res.Provider == "" {
		res.Provider = core.ProviderJWT
	}
	if res.AuthUserID == "" {
		res.AuthUserID, _ = claims.GetSubject()
	}
	return res, nil
}

// ResumeFromRedirect is a no-op for the custom-auth path: the flow never
// leaves the process.
func (a *JWTAuthenticator) ResumeFromRedirect(ctx context.Context, provider core.AuthProvider) (*core.AuthResult, error) {
	return nil, nil
}

func (a *JWTAuthenticator) parseClaims(tokenStr string) (jwt.Claims, error) {
	if a.keyFunc != nil {
		token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, a.keyFunc)
		if err != nil {
			return nil, fmt.Errorf("invalid jwt: %w", err)
		}
		return token.Claims, nil
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return nil, fmt.Errorf("malformed jwt: %w", err)
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("jwt expired at %s", claims.ExpiresAt.Time.Format(time.RFC3339))
	}
	return &claims, nil
}

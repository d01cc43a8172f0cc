package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phantom/wallet-sdk-sub001/core"
	"github.com/phantom/wallet-sdk-sub001/ports"
)

// authFlow routes a connect call to exactly one authentication path:
// direct app-wallet creation, first-party app authentication, or
// redirect-capable OAuth/JWT authentication.
type authFlow struct {
	store    ports.SessionStore
	clients  ports.ClientFactory
	redirect ports.RedirectAuthenticator
	app      ports.AppAuthenticator
	appID    string
	now      func() time.Time
}

// route executes the selected path and returns the resulting session. A nil
// session with a nil error means a navigation was initiated and the flow
// will complete externally.
func (f *authFlow) route(ctx context.Context, walletType core.WalletType, stamper core.StamperInfo, opts ports.AuthProviderOption, expiresIn time.Duration) (*core.Session, error) {
	if walletType == core.WalletTypeApp {
		return f.createAppWallet(ctx, stamper, expiresIn)
	}
	if opts.Provider == core.ProviderPhantom {
		return f.authenticateWithApp(ctx, stamper, opts, expiresIn)
	}
	return f.authenticateWithRedirect(ctx, stamper, opts, expiresIn)
}

// newSession builds the base session record for a flow. WalletID and
// OrganizationID carry placeholders until authentication resolves them.
func (f *authFlow) newSession(provider core.AuthProvider, stamper core.StamperInfo, expiresIn time.Duration) *core.Session {
	now := f.now()
	return &core.Session{
		SessionID:              uuid.New().String(),
		WalletID:               core.PlaceholderID,
		OrganizationID:         core.PlaceholderID,
		AppID:                  f.appID,
		Stamper:                stamper,
		AuthProvider:           provider,
		Status:                 core.SessionStatusPending,
		CreatedAt:              now,
		LastUsed:               now,
		AuthenticatorCreatedAt: now,
		AuthenticatorExpiresAt: now.Add(expiresIn),
	}
}

// createAppWallet provisions a remote organization scoped to the device key
// and a wallet under it. No user-facing authentication is involved, so the
// session is persisted completed immediately. Any remote failure is fatal
// for this call.
func (f *authFlow) createAppWallet(ctx context.Context, stamper core.StamperInfo, expiresIn time.Duration) (*core.Session, error) {
	bootstrap := f.clients.NewClient("")

	orgID, err := bootstrap.CreateOrganization(ctx, ports.CreateOrganizationRequest{
		Name:      fmt.Sprintf("%s-%s", f.appID, stamper.KeyID),
		PublicKey: stamper.PublicKey,
	})
	if err != nil {
		return nil, fmt.Errorf("wallet: create organization: %w", err)
	}

	walletID, err := f.clients.NewClient(orgID).CreateWallet(ctx, ports.CreateWalletRequest{
		Name: fmt.Sprintf("%s-wallet", f.appID),
	})
	if err != nil {
		return nil, fmt.Errorf("wallet: create wallet: %w", err)
	}

	sess := f.newSession(core.ProviderAppWallet, stamper, expiresIn)
	sess.WalletID = walletID
	sess.OrganizationID = orgID
	sess.Status = core.SessionStatusCompleted

	if err := f.store.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("%w: save session: %v", core.ErrStorageUnavailable, err)
	}
	return sess, nil
}

// authenticateWithApp runs the first-party app path: a synchronous
// round-trip with no navigation. The app must report itself available; there
// is no silent fallback to another path.
func (f *authFlow) authenticateWithApp(ctx context.Context, stamper core.StamperInfo, opts ports.AuthProviderOption, expiresIn time.Duration) (*core.Session, error) {
	if f.app == nil || !f.app.IsAvailable(ctx) {
		return nil, fmt.Errorf("%w: install or open the Phantom app to continue", core.ErrProviderUnavailable)
	}

	res, err := f.app.Authenticate(ctx, ports.AuthenticateOptions{
		Provider: opts,
		Stamper:  stamper,
	})
	if err != nil {
		return nil, fmt.Errorf("auth: phantom app authentication: %w", err)
	}

	if res.ExpiresIn > 0 {
		expiresIn = res.ExpiresIn
	}
	sess := f.newSession(core.ProviderPhantom, stamper, expiresIn)
	sess.Fold(res)

	if err := f.store.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("%w: save session: %v", core.ErrStorageUnavailable, err)
	}
	return sess, nil
}

// authenticateWithRedirect runs the OAuth/JWT path. The pending session is
// persisted, with LastUsed refreshed, before the authenticator is invoked:
// a redirect-capable authenticator may navigate away at any point after the
// call, and the write must land first.
func (f *authFlow) authenticateWithRedirect(ctx context.Context, stamper core.StamperInfo, opts ports.AuthProviderOption, expiresIn time.Duration) (*core.Session, error) {
	forceFresh, err := f.store.ShouldClearPreviousSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read clear-session flag: %v", core.ErrStorageUnavailable, err)
	}

	sess := f.newSession(opts.Provider, stamper, expiresIn)
	sess.LastUsed = f.now()
	if err := f.store.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("%w: save pending session: %v", core.ErrStorageUnavailable, err)
	}

	res, err := f.redirect.Authenticate(ctx, ports.AuthenticateOptions{
		Provider:          opts,
		SessionID:         sess.SessionID,
		Stamper:           stamper,
		ForceFreshSession: forceFresh,
	})
	if err != nil {
		return nil, fmt.Errorf("auth: %s authentication: %w", opts.Provider, err)
	}
	if res == nil {
		// Navigation initiated; the flow resumes on a later invocation.
		return nil, nil
	}

	sess.Fold(res)
	if res.ExpiresIn > 0 {
		sess.AuthenticatorExpiresAt = f.now().Add(res.ExpiresIn)
	}
	sess.LastUsed = f.now()

	if err := f.store.SetShouldClearPreviousSession(ctx, false); err != nil {
		return nil, fmt.Errorf("%w: reset clear-session flag: %v", core.ErrStorageUnavailable, err)
	}
	if err := f.store.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("%w: save session: %v", core.ErrStorageUnavailable, err)
	}
	return sess, nil
}

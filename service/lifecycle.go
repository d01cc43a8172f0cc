package service

import (
	"context"
	"fmt"
	"time"

	"github.com/phantom/wallet-sdk-sub001/core"
	"github.com/phantom/wallet-sdk-sub001/ports"
)

// authState classifies the authenticator backing a session.
type authState int

const (
	authValid authState = iota
	authRenew
	authExpired
)

// authenticatorState is the single renewal decision point. renewBefore of
// zero disables the renew branch entirely, leaving the two-outcome
// valid/expired behavior downstream callers assume.
func authenticatorState(sess *core.Session, now time.Time, renewBefore time.Duration) authState {
	if sess.AuthenticatorExpired(now) {
		return authExpired
	}
	if renewBefore > 0 && !now.Add(renewBefore).Before(sess.AuthenticatorExpiresAt) {
		return authRenew
	}
	return authValid
}

// lifecycleManager owns the authenticator expiry/renewal decision. It runs
// on every successful connection and before every signing call.
type lifecycleManager struct {
	store       ports.SessionStore
	stamper     ports.Stamper
	renewBefore time.Duration
	authExpiry  time.Duration
	now         func() time.Time

	// client returns the connected wallet client, or nil.
	client func() ports.WalletClient

	// teardown disconnects without re-arming the force-fresh-OAuth flag.
	// The source names the call that triggered the teardown, for the
	// disconnect event.
	teardown func(ctx context.Context, source ConnectSource) error
}

// EnsureValid fails with a terminal error when the session's authenticator
// is absent, corrupt, or expired. The expired and corrupt cases force a
// disconnect first; the caller must re-authenticate from scratch.
func (m *lifecycleManager) EnsureValid(ctx context.Context, source ConnectSource) error {
	sess, err := m.store.GetSession(ctx)
	if err != nil {
		return fmt.Errorf("%w: read session: %v", core.ErrStorageUnavailable, err)
	}
	if sess == nil {
		return core.ErrNoActiveSession
	}

	if !sess.HasAuthenticatorTiming() {
		_ = m.teardown(ctx, source)
		return core.ErrSessionCorrupt
	}

	switch authenticatorState(sess, m.now(), m.renewBefore) {
	case authExpired:
		_ = m.teardown(ctx, source)
		return core.ErrAuthenticatorExpired
	case authRenew:
		return m.renew(ctx, sess, source)
	default:
		return nil
	}
}

// renew rotates to a new local key while the old one is still valid. A new
// key pair is generated, registered with the remote service as the
// replacement authenticator, and folded into the session.
//
// Failure before the local key is rotated keeps the session usable; only
// the attempt is recorded. Failure after rotation is terminal, since the
// registered key no longer exists locally.
func (m *lifecycleManager) renew(ctx context.Context, sess *core.Session, source ConnectSource) error {
	now := m.now()
	sess.LastRenewalAttempt = &now

	client := m.client()
	if client == nil {
		return core.ErrNotConnected
	}

	oldKeyID := sess.Stamper.KeyID

	info, err := m.stamper.ResetKeyPair(ctx)
	if err != nil {
		// Old key untouched; record the attempt and retry on a later check.
		if serr := m.store.SaveSession(ctx, sess); serr != nil {
			return fmt.Errorf("%w: save session: %v", core.ErrStorageUnavailable, serr)
		}
		return nil
	}

	err = client.CreateAuthenticator(ctx, ports.CreateAuthenticatorRequest{
		OrganizationID: sess.OrganizationID,
		Name:           fmt.Sprintf("%s-authenticator", sess.AppID),
		PublicKey:      info.PublicKey,
		ReplacesKeyID:  oldKeyID,
	})
	if err != nil {
		_ = m.teardown(ctx, source)
		return fmt.Errorf("auth: register renewed authenticator: %w", err)
	}

	sess.Stamper = info
	sess.AuthenticatorCreatedAt = now
	sess.AuthenticatorExpiresAt = now.Add(m.authExpiry)
	if err := m.store.SaveSession(ctx, sess); err != nil {
		return fmt.Errorf("%w: save session: %v", core.ErrStorageUnavailable, err)
	}
	return nil
}

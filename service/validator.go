package service

import (
	"context"
	"fmt"
	"time"

	"github.com/phantom/wallet-sdk-sub001/core"
	"github.com/phantom/wallet-sdk-sub001/ports"
)

// sessionParamKey is the navigation parameter carrying the session ID on the
// return leg of a redirect flow.
const sessionParamKey = "session_id"

// validateSession inspects a persisted session against the current
// navigation context and decides whether it is usable. An unusable session
// is cleared from the store before nil is returned, so callers never observe
// a half-discarded session.
//
// A non-completed session survives only while a matching session parameter
// is present in the navigation context; otherwise it is a stale artifact of
// an abandoned redirect. A completed session additionally requires an
// unexpired authenticator.
func validateSession(ctx context.Context, store ports.SessionStore, params ports.URLParams, sess *core.Session, now time.Time) (*core.Session, error) {
	if sess == nil {
		return nil, nil
	}

	if sess.Status != core.SessionStatusCompleted {
		urlID := params.GetParam(sessionParamKey)
		if urlID == "" || urlID != sess.SessionID {
			return nil, discard(ctx, store)
		}
		return sess, nil
	}

	if sess.AuthenticatorExpired(now) {
		return nil, discard(ctx, store)
	}

	return sess, nil
}

func discard(ctx context.Context, store ports.SessionStore) error {
	if err := store.ClearSession(ctx); err != nil {
		return fmt.Errorf("%w: clear session: %v", core.ErrStorageUnavailable, err)
	}
	return nil
}

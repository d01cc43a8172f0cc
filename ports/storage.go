package ports

import (
	"context"

	"github.com/phantom/wallet-sdk-sub001/core"
)

// SessionStore persists the single session slot plus one boolean flag
// instructing the next OAuth flow to force a fresh third-party session.
// GetSession returns (nil, nil) when no session is persisted.
type SessionStore interface {
	GetSession(ctx context.Context) (*core.Session, error)
	SaveSession(ctx context.Context, session *core.Session) error
	ClearSession(ctx context.Context) error

	ShouldClearPreviousSession(ctx context.Context) (bool, error)
	SetShouldClearPreviousSession(ctx context.Context, v bool) error
}

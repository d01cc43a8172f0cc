package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotConnected         = errors.New("wallet: provider is not connected")
	ErrNoActiveSession      = errors.New("auth: no active session")
	ErrAuthenticatorExpired = errors.New("auth: authenticator expired")
	ErrSessionCorrupt       = errors.New("auth: session is missing authenticator timing")
	ErrNoSessionToComplete  = errors.New("auth: no local session to complete")
	ErrUnsupportedProvider  = errors.New("auth: unsupported auth provider")
	ErrProviderUnavailable  = errors.New("auth: first-party app not available")
	ErrStorageUnavailable   = errors.New("storage: unavailable")
	ErrNoAddressForNetwork  = errors.New("wallet: no address for requested network")
)

// SpendingLimitError is returned when the remote wallet API rejects a
// transaction for exceeding a configured spending limit. It is a
// distinguished, non-fatal category: the call still fails, but the host
// application is notified via a dedicated event so it can react (e.g.
// prompt for a limit increase).
type SpendingLimitError struct {
	Limit     decimal.Decimal
	Attempted decimal.Decimal
	Currency  string
}

func (e *SpendingLimitError) Error() string {
	return fmt.Sprintf("wallet: spending limit reached: attempted %s %s, limit %s %s",
		e.Attempted, e.Currency, e.Limit, e.Currency)
}

// IsSpendingLimit reports whether err is (or wraps) a spending-limit
// rejection.
func IsSpendingLimit(err error) bool {
	var sle *SpendingLimitError
	return errors.As(err, &sle)
}

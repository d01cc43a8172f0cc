package core

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession() *Session {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &Session{
		SessionID:              "s1",
		WalletID:               "w1",
		OrganizationID:         "o1",
		AppID:                  "app",
		Stamper:                StamperInfo{KeyID: "k1", PublicKey: "pk1"},
		AuthProvider:           ProviderGoogle,
		Status:                 SessionStatusCompleted,
		CreatedAt:              now,
		LastUsed:               now,
		AuthenticatorCreatedAt: now,
		AuthenticatorExpiresAt: now.Add(time.Hour),
	}
}

func TestSessionCompleted(t *testing.T) {
	s := testSession()
	assert.True(t, s.Completed())

	tests := []struct {
		name   string
		mutate func(*Session)
	}{
		{"pending status", func(s *Session) { s.Status = SessionStatusPending }},
		{"missing wallet id", func(s *Session) { s.WalletID = "" }},
		{"missing organization id", func(s *Session) { s.OrganizationID = "" }},
		{"missing stamper", func(s *Session) { s.Stamper = StamperInfo{} }},
		{"missing expiry", func(s *Session) { s.AuthenticatorExpiresAt = time.Time{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSession()
			tt.mutate(s)
			assert.False(t, s.Completed())
		})
	}
}

func TestAuthenticatorExpired(t *testing.T) {
	s := testSession()

	assert.False(t, s.AuthenticatorExpired(s.AuthenticatorExpiresAt.Add(-time.Second)))
	assert.True(t, s.AuthenticatorExpired(s.AuthenticatorExpiresAt))
	assert.True(t, s.AuthenticatorExpired(s.AuthenticatorExpiresAt.Add(time.Second)))
}

func TestFoldMergesAuthResult(t *testing.T) {
	s := testSession()
	s.Status = SessionStatusPending
	s.WalletID = PlaceholderID
	s.OrganizationID = PlaceholderID

	s.Fold(&AuthResult{
		WalletID:               "w2",
		OrganizationID:         "o2",
		Provider:               ProviderJWT,
		AccountDerivationIndex: 4,
		AuthUserID:             "u1",
	})

	assert.Equal(t, SessionStatusCompleted, s.Status)
	assert.Equal(t, "w2", s.WalletID)
	assert.Equal(t, "o2", s.OrganizationID)
	assert.Equal(t, ProviderJWT, s.AuthProvider)
	assert.Equal(t, 4, s.AccountDerivationIndex)
	assert.Equal(t, "u1", s.AuthUserID)
}

func TestFoldKeepsProviderWhenResultOmitsIt(t *testing.T) {
	s := testSession()
	s.Fold(&AuthResult{WalletID: "w2", OrganizationID: "o2"})
	assert.Equal(t, ProviderGoogle, s.AuthProvider)
}

func TestFilterAddresses(t *testing.T) {
	addrs := []WalletAddress{
		{AddressType: AddressTypeSolana, Address: "sol"},
		{AddressType: AddressTypeEthereum, Address: "eth"},
	}

	assert.Equal(t, addrs, FilterAddresses(addrs, nil))

	got := FilterAddresses(addrs, []AddressType{AddressTypeEthereum})
	require.Len(t, got, 1)
	assert.Equal(t, "eth", got[0].Address)

	assert.Empty(t, FilterAddresses(nil, []AddressType{AddressTypeEthereum}))
}

func TestIsSpendingLimit(t *testing.T) {
	sle := &SpendingLimitError{
		Limit:     decimal.NewFromInt(100),
		Attempted: decimal.NewFromInt(250),
		Currency:  "USD",
	}

	assert.True(t, IsSpendingLimit(sle))
	assert.True(t, IsSpendingLimit(fmt.Errorf("wallet: send: %w", sle)))
	assert.False(t, IsSpendingLimit(errors.New("other")))

	assert.Contains(t, sle.Error(), "250")
	assert.Contains(t, sle.Error(), "100")
}

package walletclient

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phantom/wallet-sdk-sub001/core"
	"github.com/phantom/wallet-sdk-sub001/ports"
)

type staticSigner struct {
	payloads [][]byte
}

func (s *staticSigner) Sign(payload []byte) ([]byte, error) {
	s.payloads = append(s.payloads, payload)
	return []byte("stamp-bytes"), nil
}

func TestClientStampsRequests(t *testing.T) {
	var gotStamp string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStamp = r.Header.Get("X-Phantom-Stamp")
		w.Write([]byte(`{"organizationId":"org-1"}`))
	}))
	defer srv.Close()

	signer := &staticSigner{}
	f := NewFactory(srv.URL, signer, nil)
	client := f.NewClient("")

	orgID, err := client.CreateOrganization(context.Background(), ports.CreateOrganizationRequest{
		Name:      "acme-key-1",
		PublicKey: "pub-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "org-1", orgID)

	assert.Equal(t, base64.RawURLEncoding.EncodeToString([]byte("stamp-bytes")), gotStamp)

	// The stamp covers method, path and body.
	require.Len(t, signer.payloads, 1)
	payload := string(signer.payloads[0])
	assert.Contains(t, payload, "POST\n/v1/organizations\n")
	assert.Contains(t, payload, `"name":"acme-key-1"`)
}

func TestGetWalletAddressesQueryParams(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"addresses":[{"addressType":"ethereum","address":"0xabc"}]}`))
	}))
	defer srv.Close()

	client := NewFactory(srv.URL, nil, nil).NewClient("org-1")

	cursor := "next-page"
	addrs, err := client.GetWalletAddresses(context.Background(), "w1", &cursor, 3)
	require.NoError(t, err)

	assert.Equal(t, "/v1/wallets/w1/addresses", gotPath)
	assert.Contains(t, gotQuery, "derivationIndex=3")
	assert.Contains(t, gotQuery, "cursor=next-page")

	require.Len(t, addrs, 1)
	assert.Equal(t, core.AddressTypeEthereum, addrs[0].AddressType)
	assert.Equal(t, "0xabc", addrs[0].Address)
}

func TestDecodeSpendingLimitError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"code":"SPENDING_LIMIT_EXCEEDED","message":"limit exceeded","limit":"100.50","attempted":"250","currency":"USD"}`))
	}))
	defer srv.Close()

	client := NewFactory(srv.URL, nil, nil).NewClient("org-1")

	_, err := client.SignAndSendTransaction(context.Background(), ports.SignTransactionRequest{
		WalletID:    "w1",
		Transaction: "0xdeadbeef",
		AddressType: core.AddressTypeEthereum,
	})
	require.Error(t, err)

	var sle *core.SpendingLimitError
	require.ErrorAs(t, err, &sle)
	assert.True(t, sle.Limit.Equal(decimal.RequireFromString("100.50")))
	assert.True(t, sle.Attempted.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, "USD", sle.Currency)
}

func TestDecodeGenericAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"INVALID_REQUEST","message":"bad payload"}`))
	}))
	defer srv.Close()

	client := NewFactory(srv.URL, nil, nil).NewClient("org-1")

	_, err := client.CreateWallet(context.Background(), ports.CreateWalletRequest{Name: "w"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_REQUEST")
	assert.Contains(t, err.Error(), "bad payload")
	assert.False(t, core.IsSpendingLimit(err))
}

func TestDecodeErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewFactory(srv.URL, nil, nil).NewClient("org-1")

	_, err := client.SignMessage(context.Background(), ports.SignMessageRequest{WalletID: "w1", Message: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestExchangeToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/auth/jwt", r.URL.Path)
		w.Write([]byte(`{"walletId":"w1","organizationId":"org-1","accountDerivationIndex":2,"expiresInMs":3600000,"userId":"user-1"}`))
	}))
	defer srv.Close()

	client := NewFactory(srv.URL, nil, nil).BootstrapClient()

	res, err := client.ExchangeToken(context.Background(), "tok", core.StamperInfo{KeyID: "k", PublicKey: "p"})
	require.NoError(t, err)

	assert.Equal(t, "w1", res.WalletID)
	assert.Equal(t, "org-1", res.OrganizationID)
	assert.Equal(t, core.ProviderJWT, res.Provider)
	assert.Equal(t, 2, res.AccountDerivationIndex)
	assert.Equal(t, int64(3600000), res.ExpiresIn.Milliseconds())
	assert.Equal(t, "user-1", res.AuthUserID)
}

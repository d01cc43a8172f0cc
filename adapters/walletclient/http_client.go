package walletclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/phantom/wallet-sdk-sub001/core"
	"github.com/phantom/wallet-sdk-sub001/ports"
)

// stampHeader carries the request signature proving possession of the
// authenticator key.
const stampHeader = "X-Phantom-Stamp"

// spendingLimitCode is the remote error code for spending-limit rejections.
const spendingLimitCode = "SPENDING_LIMIT_EXCEEDED"

// Signer stamps outgoing requests. The key custodian's signing primitive
// satisfies it.
type Signer interface {
	Sign(payload []byte) ([]byte, error)
}

// Factory builds organization-scoped HTTP clients for the remote wallet
// API.
type Factory struct {
	baseURL string
	signer  Signer
	http    *http.Client
}

// NewFactory creates a client factory. httpClient may be nil, in which case
// a client with a 30s timeout is used; the remote API's latency bounds are
// enforced here, not by the orchestrator core.
func NewFactory(baseURL string, signer Signer, httpClient *http.Client) *Factory {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Factory{baseURL: baseURL, signer: signer, http: httpClient}
}

var _ ports.ClientFactory = (*Factory)(nil)

// NewClient returns a client scoped to the organization. An empty ID yields
// a bootstrap client for CreateOrganization and token exchange.
func (f *Factory) NewClient(organizationID string) ports.WalletClient {
	return &Client{
		baseURL:        f.baseURL,
		organizationID: organizationID,
		signer:         f.signer,
		http:           f.http,
	}
}

// BootstrapClient returns the concrete unscoped client, which additionally
// exposes ExchangeToken for the custom-auth path.
func (f *Factory) BootstrapClient() *Client {
	return f.NewClient("").(*Client)
}

// Client is the HTTP implementation of the remote wallet API. Every request
// body is stamped with the authenticator key.
type Client struct {
	baseURL        string
	organizationID string
	signer         Signer
	http           *http.Client
}

var _ ports.WalletClient = (*Client)(nil)

type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Limit     string `json:"limit,omitempty"`
	Attempted string `json:"attempted,omitempty"`
	Currency  string `json:"currency,omitempty"`
}

// CreateOrganization provisions an organization scoped to the given device
// public key.
func (c *Client) CreateOrganization(ctx context.Context, req ports.CreateOrganizationRequest) (string, error) {
	var resp struct {
		OrganizationID string `json:"organizationId"`
	}
	body := map[string]string{"name": req.Name, "publicKey": req.PublicKey}
	if err := c.do(ctx, http.MethodPost, "/v1/organizations", body, &resp); err != nil {
		return "", err
	}
	return resp.OrganizationID, nil
}

// CreateWallet provisions a wallet under the client's organization.
func (c *Client) CreateWallet(ctx context.Context, req ports.CreateWalletRequest) (string, error) {
	var resp struct {
		WalletID string `json:"walletId"`
	}
	path := fmt.Sprintf("/v1/organizations/%s/wallets", url.PathEscape(c.organizationID))
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"name": req.Name}, &resp); err != nil {
		return "", err
	}
	return resp.WalletID, nil
}

// GetWalletAddresses lists the wallet's addresses at the given derivation
// index, following the cursor when one is supplied.
func (c *Client) GetWalletAddresses(ctx context.Context, walletID string, cursor *string, derivationIndex int) ([]core.WalletAddress, error) {
	q := url.Values{}
	q.Set("derivationIndex", strconv.Itoa(derivationIndex))
	if cursor != nil {
		q.Set("cursor", *cursor)
	}

	var resp struct {
		Addresses []core.WalletAddress `json:"addresses"`
	}
	path := fmt.Sprintf("/v1/wallets/%s/addresses?%s", url.PathEscape(walletID), q.Encode())
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Addresses, nil
}

// SignMessage signs a UTF-8 message.
func (c *Client) SignMessage(ctx context.Context, req ports.SignMessageRequest) (string, error) {
	var resp struct {
		Signature string `json:"signature"`
	}
	path := fmt.Sprintf("/v1/wallets/%s/sign-message", url.PathEscape(req.WalletID))
	body := map[string]any{
		"message":         req.Message,
		"addressType":     req.AddressType,
		"address":         req.Address,
		"derivationIndex": req.DerivationIndex,
	}
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return "", err
	}
	return resp.Signature, nil
}

// SignTransaction signs a serialized transaction without submitting it.
func (c *Client) SignTransaction(ctx context.Context, req ports.SignTransactionRequest) (string, error) {
	var resp struct {
		SignedTransaction string `json:"signedTransaction"`
	}
	path := fmt.Sprintf("/v1/wallets/%s/sign-transaction", url.PathEscape(req.WalletID))
	if err := c.do(ctx, http.MethodPost, path, txBody(req), &resp); err != nil {
		return "", err
	}
	return resp.SignedTransaction, nil
}

// SignAndSendTransaction signs a serialized transaction and submits it.
func (c *Client) SignAndSendTransaction(ctx context.Context, req ports.SignTransactionRequest) (string, error) {
	var resp struct {
		Hash string `json:"hash"`
	}
	path := fmt.Sprintf("/v1/wallets/%s/send-transaction", url.PathEscape(req.WalletID))
	if err := c.do(ctx, http.MethodPost, path, txBody(req), &resp); err != nil {
		return "", err
	}
	return resp.Hash, nil
}

// CreateAuthenticator registers a new public key as an authenticator,
// naming the key it replaces.
func (c *Client) CreateAuthenticator(ctx context.Context, req ports.CreateAuthenticatorRequest) error {
	path := fmt.Sprintf("/v1/organizations/%s/authenticators", url.PathEscape(req.OrganizationID))
	body := map[string]string{
		"name":          req.Name,
		"publicKey":     req.PublicKey,
		"replacesKeyId": req.ReplacesKeyID,
	}
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// ExchangeToken trades a third-party JWT for wallet credentials,
// registering the stamper key as the session authenticator.
func (c *Client) ExchangeToken(ctx context.Context, token string, stamper core.StamperInfo) (*core.AuthResult, error) {
	var resp struct {
		WalletID               string `json:"walletId"`
		OrganizationID         string `json:"organizationId"`
		AccountDerivationIndex int    `json:"accountDerivationIndex"`
		ExpiresInMs            int64  `json:"expiresInMs"`
		UserID                 string `json:"userId"`
	}
	body := map[string]string{
		"token":     token,
		"publicKey": stamper.PublicKey,
		"keyId":     stamper.KeyID,
	}
	if err := c.do(ctx, http.MethodPost, "/v1/auth/jwt", body, &resp); err != nil {
		return nil, err
	}
	return &core.AuthResult{
		WalletID:               resp.WalletID,
		OrganizationID:         resp.OrganizationID,
		Provider:               core.ProviderJWT,
		AccountDerivationIndex: resp.AccountDerivationIndex,
		ExpiresIn:              time.Duration(resp.ExpiresInMs) * time.Millisecond,
		AuthUserID:             resp.UserID,
	}, nil
}

func txBody(req ports.SignTransactionRequest) map[string]any {
	return map[string]any{
		"transaction":     req.Transaction,
		"addressType":     req.AddressType,
		"address":         req.Address,
		"derivationIndex": req.DerivationIndex,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.signer != nil {
		stamp, err := c.signer.Sign(stampPayload(method, path, payload))
		if err != nil {
			return fmt.Errorf("stamp request: %w", err)
		}
		req.Header.Set(stampHeader, base64.RawURLEncoding.EncodeToString(stamp))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// stampPayload is the canonical byte string the stamp signs.
func stampPayload(method, path string, body []byte) []byte {
	buf := make([]byte, 0, len(method)+len(path)+len(body)+2)
	buf = append(buf, method...)
	buf = append(buf, '\n')
	buf = append(buf, path...)
	buf = append(buf, '\n')
	buf = append(buf, body...)
	return buf
}

func decodeError(status int, raw []byte) error {
	var apiErr apiError
	if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Message == "" && apiErr.Code == "" {
		return fmt.Errorf("remote API returned status %d", status)
	}

	if apiErr.Code == spendingLimitCode {
		limit, lerr := decimal.NewFromString(apiErr.Limit)
		attempted, aerr := decimal.NewFromString(apiErr.Attempted)
		if lerr == nil && aerr == nil {
			return &core.SpendingLimitError{
				Limit:     limit,
				Attempted: attempted,
				Currency:  apiErr.Currency,
			}
		}
	}

	return fmt.Errorf("remote API error %s (status %d): %s", apiErr.Code, status, apiErr.Message)
}

package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/phantom/wallet-sdk-sub001/core"
	"github.com/phantom/wallet-sdk-sub001/ports"
)

// fakeStore is a single-slot session store with error injection and a call
// log.
type fakeStore struct {
	mu      sync.Mutex
	session *core.Session
	flag    bool

	getErr   error
	saveErr  error
	clearErr error

	saves  []core.Session
	clears int
}

func (s *fakeStore) GetSession(ctx context.Context) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.session == nil {
		return nil, nil
	}
	cp := *s.session
	return &cp, nil
}

func (s *fakeStore) SaveSession(ctx context.Context, sess *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	cp := *sess
	s.session = &cp
	s.saves = append(s.saves, cp)
	return nil
}

func (s *fakeStore) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clearErr != nil {
		return s.clearErr
	}
	s.session = nil
	s.clears++
	return nil
}

func (s *fakeStore) ShouldClearPreviousSession(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flag, nil
}

func (s *fakeStore) SetShouldClearPreviousSession(ctx context.Context, v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flag = v
	return nil
}

func (s *fakeStore) current() *core.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	cp := *s.session
	return &cp
}

// fakeStamper hands out a fixed key, counting resets.
type fakeStamper struct {
	info     core.StamperInfo
	resets   int
	resetErr error
}

func (s *fakeStamper) Init(ctx context.Context) error { return nil }

func (s *fakeStamper) ResetKeyPair(ctx context.Context) (core.StamperInfo, error) {
	s.resets++
	if s.resetErr != nil {
		return core.StamperInfo{}, s.resetErr
	}
	s.info = core.StamperInfo{KeyID: "key-reset", PublicKey: "pub-reset"}
	return s.info, nil
}

func (s *fakeStamper) GetKeyInfo(ctx context.Context) (*core.StamperInfo, error) {
	if s.info.KeyID == "" {
		return nil, nil
	}
	cp := s.info
	return &cp, nil
}

// fakeParams is a fixed navigation context.
type fakeParams map[string]string

func (p fakeParams) GetParam(key string) string { return p[key] }

// fakeRedirectAuth scripts the redirect authenticator.
type fakeRedirectAuth struct {
	authResult *core.AuthResult
	authErr    error
	authCalls  []ports.AuthenticateOptions
	onAuth     func()

	resumeResult *core.AuthResult
	resumeErr    error
	resumeCalls  []core.AuthProvider
}

func (a *fakeRedirectAuth) Authenticate(ctx context.Context, opts ports.AuthenticateOptions) (*core.AuthResult, error) {
	a.authCalls = append(a.authCalls, opts)
	if a.onAuth != nil {
		a.onAuth()
	}
	return a.authResult, a.authErr
}

func (a *fakeRedirectAuth) ResumeFromRedirect(ctx context.Context, provider core.AuthProvider) (*core.AuthResult, error) {
	a.resumeCalls = append(a.resumeCalls, provider)
	return a.resumeResult, a.resumeErr
}

// fakeAppAuth scripts the first-party app authenticator.
type fakeAppAuth struct {
	available bool
	result    *core.AuthResult
	err       error
	calls     int
}

func (a *fakeAppAuth) IsAvailable(ctx context.Context) bool { return a.available }

func (a *fakeAppAuth) Authenticate(ctx context.Context, opts ports.AuthenticateOptions) (*core.AuthResult, error) {
	a.calls++
	return a.result, a.err
}

// addressCall records one GetWalletAddresses invocation.
type addressCall struct {
	walletID        string
	cursor          *string
	derivationIndex int
}

// fakeClient scripts the remote wallet API.
type fakeClient struct {
	mu sync.Mutex

	organizationID string

	addresses    []core.WalletAddress
	addressErr   error
	addressCalls []addressCall

	createdOrgID    string
	createOrgErr    error
	createOrgCalls  int
	createdWalletID string
	createWalletErr error
	walletCalls     int

	signature    string
	signErr      error
	signCalls    int
	signRequests []ports.SignMessageRequest
	txRequests   []ports.SignTransactionRequest

	authenticatorErr   error
	authenticatorCalls []ports.CreateAuthenticatorRequest
}

func (c *fakeClient) CreateOrganization(ctx context.Context, req ports.CreateOrganizationRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createOrgCalls++
	if c.createOrgErr != nil {
		return "", c.createOrgErr
	}
	return c.createdOrgID, nil
}

func (c *fakeClient) CreateWallet(ctx context.Context, req ports.CreateWalletRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.walletCalls++
	if c.createWalletErr != nil {
		return "", c.createWalletErr
	}
	return c.createdWalletID, nil
}

func (c *fakeClient) GetWalletAddresses(ctx context.Context, walletID string, cursor *string, derivationIndex int) ([]core.WalletAddress, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addressCalls = append(c.addressCalls, addressCall{walletID: walletID, cursor: cursor, derivationIndex: derivationIndex})
	if c.addressErr != nil {
		return nil, c.addressErr
	}
	return c.addresses, nil
}

func (c *fakeClient) SignMessage(ctx context.Context, req ports.SignMessageRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signCalls++
	c.signRequests = append(c.signRequests, req)
	if c.signErr != nil {
		return "", c.signErr
	}
	return c.signature, nil
}

func (c *fakeClient) SignTransaction(ctx context.Context, req ports.SignTransactionRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signCalls++
	c.txRequests = append(c.txRequests, req)
	if c.signErr != nil {
		return "", c.signErr
	}
	return c.signature, nil
}

func (c *fakeClient) SignAndSendTransaction(ctx context.Context, req ports.SignTransactionRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signCalls++
	c.txRequests = append(c.txRequests, req)
	if c.signErr != nil {
		return "", c.signErr
	}
	return c.signature, nil
}

func (c *fakeClient) CreateAuthenticator(ctx context.Context, req ports.CreateAuthenticatorRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authenticatorCalls = append(c.authenticatorCalls, req)
	return c.authenticatorErr
}

// fakeFactory returns the same scripted client for every organization.
type fakeFactory struct {
	client *fakeClient
	orgIDs []string
}

func (f *fakeFactory) NewClient(organizationID string) ports.WalletClient {
	f.orgIDs = append(f.orgIDs, organizationID)
	return f.client
}

var errRemote = errors.New("remote unavailable")

// fixedNow is a deterministic clock.
func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func nowFunc() func() time.Time {
	t := fixedNow()
	return func() time.Time { return t }
}

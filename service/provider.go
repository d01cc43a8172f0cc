package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/phantom/wallet-sdk-sub001/core"
	"github.com/phantom/wallet-sdk-sub001/ports"
)

// DefaultAuthExpiry is the authenticator lifetime applied when neither the
// configuration nor the provider response supplies one.
const DefaultAuthExpiry = 7 * 24 * time.Hour

// errNoValidSession is the neutral auto-connect failure: no exception, just
// a connect_error event with this message.
var errNoValidSession = errors.New("auth: no valid session to restore")

// supportedProviders is the set accepted for user-wallet connections.
var supportedProviders = map[core.AuthProvider]bool{
	core.ProviderGoogle:  true,
	core.ProviderApple:   true,
	core.ProviderJWT:     true,
	core.ProviderPhantom: true,
}

// Config tunes a Provider. Zero values fall back to sensible defaults in
// NewProvider.
type Config struct {
	// AppID names the application at the remote wallet service.
	AppID string

	// WalletType selects app-wallet or user-wallet behavior.
	WalletType core.WalletType

	// AddressTypes filters which chain namespaces connect results expose.
	// Empty means all.
	AddressTypes []core.AddressType

	// AuthExpiry is the lifetime of a freshly created authenticator.
	AuthExpiry time.Duration

	// RenewBefore activates authenticator renewal this long before expiry.
	// Zero leaves renewal inert: the lifecycle check only classifies valid
	// vs. expired, and no key rotation happens mid-session.
	RenewBefore time.Duration

	// RetryAttempts and RetryBaseDelay tune the address-fetch retry policy.
	// Defaults: 3 attempts, 1s base delay (so 1s, 2s, 4s).
	RetryAttempts  int
	RetryBaseDelay time.Duration

	// Bridge, when set, receives every emitted lifecycle event for
	// out-of-process observers. Publish failures are ignored.
	Bridge ports.EventPublisher

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Provider is the connection orchestrator: the top-level state machine that
// decides, on every connect, auto-connect, and disconnect call, which
// authentication path to take, how to validate and repair the persisted
// session, and how to keep the authenticator alive.
//
// Connection state is derived, not stored: disconnected (no client),
// connecting (inside a call), connected (client and wallet ID set). The
// in-memory client/walletID/addresses triple is the single source of truth
// for IsConnected.
//
// Concurrent Connect calls are not serialized. Each reads, validates, and
// writes the single persisted session slot independently and the last
// writer wins; callers issuing concurrent connects accept eventual rather
// than linearizable consistency of the persisted session. The in-memory
// triple is mutex-guarded so IsConnected and Addresses are safe from any
// goroutine.
type Provider struct {
	store     ports.SessionStore
	stamper   ports.Stamper
	params    ports.URLParams
	clients   ports.ClientFactory
	flow      *authFlow
	lifecycle *lifecycleManager
	events    *emitter
	cfg       Config
	now       func() time.Time

	mu        sync.Mutex
	client    ports.WalletClient
	walletID  string
	addresses []core.WalletAddress
}

// NewProvider wires the orchestrator with its collaborators. The app
// authenticator may be nil when the first-party path is not available on
// the platform.
func NewProvider(
	store ports.SessionStore,
	stamper ports.Stamper,
	params ports.URLParams,
	redirect ports.RedirectAuthenticator,
	app ports.AppAuthenticator,
	clients ports.ClientFactory,
	cfg Config,
) *Provider {
	if cfg.AuthExpiry <= 0 {
		cfg.AuthExpiry = DefaultAuthExpiry
	}
	if cfg.WalletType == "" {
		cfg.WalletType = core.WalletTypeUser
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = defaultRetryAttempts
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = defaultRetryBaseDelay
	}

	p := &Provider{
		store:   store,
		stamper: stamper,
		params:  params,
		clients: clients,
		events:  newEmitter(),
		cfg:     cfg,
		now:     cfg.Now,
	}
	p.flow = &authFlow{
		store:    store,
		clients:  clients,
		redirect: redirect,
		app:      app,
		appID:    cfg.AppID,
		now:      cfg.Now,
	}
	p.lifecycle = &lifecycleManager{
		store:       store,
		stamper:     stamper,
		renewBefore: cfg.RenewBefore,
		authExpiry:  cfg.AuthExpiry,
		now:         cfg.Now,
		client: func() ports.WalletClient {
			p.mu.Lock()
			defer p.mu.Unlock()
			return p.client
		},
		teardown: func(ctx context.Context, source ConnectSource) error {
			return p.disconnect(ctx, false, source)
		},
	}
	return p
}

// Subscribe registers fn for lifecycle events of type t and returns an
// unsubscribe function.
func (p *Provider) Subscribe(t EventType, fn func(Event)) func() {
	return p.events.subscribe(t, fn)
}

// IsConnected reports whether the provider holds a live connection.
func (p *Provider) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.client != nil && p.walletID != ""
}

// Addresses returns the connected wallet's addresses, filtered to the
// configured chain types. Empty when disconnected.
func (p *Provider) Addresses() []core.WalletAddress {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.WalletAddress, len(p.addresses))
	copy(out, p.addresses)
	return out
}

// Connect establishes a connection. Existing valid state always wins: if a
// persisted session (or a completed redirect) yields a result, no new
// authentication is performed regardless of opts. Otherwise a fresh flow is
// routed; a pending result with no addresses means a redirect is in flight
// and the flow will complete on a later call.
func (p *Provider) Connect(ctx context.Context, opts ports.AuthProviderOption) (*core.ConnectResult, error) {
	p.emit(ctx, Event{Type: EventConnectStart, Source: SourceManualConnect})

	res, err := p.tryExistingConnection(ctx, false)
	if err != nil {
		p.emit(ctx, Event{Type: EventConnectError, Source: SourceManualConnect, Err: err})
		return nil, err
	}
	if res != nil {
		return res, nil
	}

	res, err = p.freshConnection(ctx, opts)
	if err != nil {
		p.emit(ctx, Event{Type: EventConnectError, Source: SourceManualConnect, Err: err})
		return nil, err
	}
	return res, nil
}

// AutoConnect restores a connection passively at application start. It
// never routes a new authentication flow and never returns an error:
// failure is reported only through a connect_error event, and the result is
// nil.
func (p *Provider) AutoConnect(ctx context.Context) *core.ConnectResult {
	p.emit(ctx, Event{Type: EventConnectStart, Source: SourceAutoConnect})

	res, err := p.tryExistingConnection(ctx, true)
	if err == nil && res == nil {
		err = errNoValidSession
	}
	if err != nil {
		p.emit(ctx, Event{Type: EventConnectError, Source: SourceAutoConnect, Err: err})
		return nil
	}
	return res
}

// freshConnection validates the requested provider and routes a new
// authentication flow.
func (p *Provider) freshConnection(ctx context.Context, opts ports.AuthProviderOption) (*core.ConnectResult, error) {
	if p.cfg.WalletType == core.WalletTypeUser && !supportedProviders[opts.Provider] {
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedProvider, opts.Provider)
	}

	info, err := p.deviceKey(ctx)
	if err != nil {
		return nil, err
	}

	sess, err := p.flow.route(ctx, p.cfg.WalletType, info, opts, p.cfg.AuthExpiry)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		// Redirect in flight. Not an error: the caller treats this as
		// awaiting external completion.
		return &core.ConnectResult{
			Status:       core.SessionStatusPending,
			Addresses:    []core.WalletAddress{},
			AuthProvider: opts.Provider,
		}, nil
	}

	result, err := p.completeConnection(ctx, sess)
	if err != nil {
		return nil, err
	}
	p.emitConnect(ctx, result, SourceManualConnect)
	return result, nil
}

// deviceKey initializes the stamper and returns the current key handle,
// creating one if none exists.
func (p *Provider) deviceKey(ctx context.Context) (core.StamperInfo, error) {
	if err := p.stamper.Init(ctx); err != nil {
		return core.StamperInfo{}, fmt.Errorf("auth: init key custodian: %w", err)
	}
	info, err := p.stamper.GetKeyInfo(ctx)
	if err != nil {
		return core.StamperInfo{}, fmt.Errorf("auth: read key info: %w", err)
	}
	if info != nil {
		return *info, nil
	}
	fresh, err := p.stamper.ResetKeyPair(ctx)
	if err != nil {
		return core.StamperInfo{}, fmt.Errorf("auth: create key pair: %w", err)
	}
	return fresh, nil
}

// tryExistingConnection attempts to satisfy a connect call from persisted
// state. The completed-session path runs before any redirect-resume check,
// so an already-valid session always takes precedence over stale redirect
// context. Returns (nil, nil) when the caller should fall through to a
// fresh flow.
func (p *Provider) tryExistingConnection(ctx context.Context, isAutoConnect bool) (*core.ConnectResult, error) {
	sess, err := p.store.GetSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read session: %v", core.ErrStorageUnavailable, err)
	}

	sess, err = validateSession(ctx, p.store, p.params, sess, p.now())
	if err != nil {
		return nil, err
	}

	if sess != nil && sess.Status == core.SessionStatusCompleted {
		source := SourceExistingSession
		if isAutoConnect {
			source = SourceAutoConnect
		}

		result, err := p.completeConnection(ctx, sess)
		if err != nil {
			return nil, err
		}

		sess.LastUsed = p.now()
		if err := p.store.SaveSession(ctx, sess); err != nil {
			return nil, fmt.Errorf("%w: save session: %v", core.ErrStorageUnavailable, err)
		}

		if err := p.lifecycle.EnsureValid(ctx, source); err != nil {
			return nil, err
		}

		p.emitConnect(ctx, result, source)
		return result, nil
	}

	return p.resumeFromRedirect(ctx, sess, isAutoConnect)
}

// resumeFromRedirect recovers authentication state after the external leg
// of a redirect flow. When the authenticator reports that redirect
// parameters exist but the local session is gone, a manual connect clears
// storage and falls through to a fresh flow; auto-connect re-raises the
// error to its silent-failure path.
func (p *Provider) resumeFromRedirect(ctx context.Context, sess *core.Session, isAutoConnect bool) (*core.ConnectResult, error) {
	var provider core.AuthProvider
	if sess != nil {
		provider = sess.AuthProvider
	} else if p.params.GetParam(sessionParamKey) == "" {
		// No pending session and no redirect context.
		return nil, nil
	}

	res, err := p.flow.redirect.ResumeFromRedirect(ctx, provider)
	if err == nil && res != nil && sess == nil {
		err = core.ErrNoSessionToComplete
	}
	if err != nil {
		if errors.Is(err, core.ErrNoSessionToComplete) && !isAutoConnect {
			_ = p.store.ClearSession(ctx)
			return nil, nil
		}
		return nil, fmt.Errorf("auth: resume from redirect: %w", err)
	}
	if res == nil {
		return nil, nil
	}

	sess.Fold(res)
	if res.ExpiresIn > 0 {
		sess.AuthenticatorExpiresAt = p.now().Add(res.ExpiresIn)
	}
	sess.LastUsed = p.now()

	if err := p.store.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("%w: save session: %v", core.ErrStorageUnavailable, err)
	}
	if err := p.store.SetShouldClearPreviousSession(ctx, false); err != nil {
		return nil, fmt.Errorf("%w: reset clear-session flag: %v", core.ErrStorageUnavailable, err)
	}

	result, err := p.completeConnection(ctx, sess)
	if err != nil {
		return nil, err
	}

	source := SourceManualConnect
	if isAutoConnect {
		source = SourceAutoConnect
	}
	p.emitConnect(ctx, result, source)
	return result, nil
}

// completeConnection initializes the wallet client and fetches addresses
// for a completed session. Address fetch is the one retried remote call; on
// exhaustion the session and the in-memory state are cleared before the
// error propagates, so a partially connected client is never observable.
func (p *Provider) completeConnection(ctx context.Context, sess *core.Session) (*core.ConnectResult, error) {
	client := p.clients.NewClient(sess.OrganizationID)

	addrs, err := withRetry(ctx, "fetch wallet addresses", p.cfg.RetryAttempts, p.cfg.RetryBaseDelay,
		func(ctx context.Context) ([]core.WalletAddress, error) {
			return client.GetWalletAddresses(ctx, sess.WalletID, nil, sess.AccountDerivationIndex)
		})
	if err != nil {
		_ = p.store.ClearSession(ctx)
		p.setConnection(nil, "", nil)
		return nil, err
	}

	addrs = core.FilterAddresses(addrs, p.cfg.AddressTypes)
	p.setConnection(client, sess.WalletID, addrs)

	return &core.ConnectResult{
		WalletID:     sess.WalletID,
		Addresses:    addrs,
		Status:       core.SessionStatusCompleted,
		AuthUserID:   sess.AuthUserID,
		AuthProvider: sess.AuthProvider,
	}, nil
}

// Disconnect clears the persisted session and the in-memory connection
// state, and instructs the next OAuth flow to force a fresh third-party
// session.
func (p *Provider) Disconnect(ctx context.Context) error {
	return p.disconnect(ctx, true, SourceManualConnect)
}

func (p *Provider) disconnect(ctx context.Context, clearPreviousSession bool, source ConnectSource) error {
	var firstErr error
	if err := p.store.ClearSession(ctx); err != nil {
		firstErr = fmt.Errorf("%w: clear session: %v", core.ErrStorageUnavailable, err)
	}
	if clearPreviousSession {
		if err := p.store.SetShouldClearPreviousSession(ctx, true); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: arm clear-session flag: %v", core.ErrStorageUnavailable, err)
		}
	}

	p.mu.Lock()
	hadClient := p.client != nil
	p.client = nil
	p.walletID = ""
	p.addresses = nil
	p.mu.Unlock()

	if hadClient {
		p.emit(ctx, Event{Type: EventDisconnect, Source: source})
	}
	return firstErr
}

// SignMessage signs a UTF-8 message with the account selected by the
// session's derivation index, using the address for the requested network.
func (p *Provider) SignMessage(ctx context.Context, addressType core.AddressType, message string) (string, error) {
	client, walletID, sess, addr, err := p.signingContext(ctx, addressType)
	if err != nil {
		return "", err
	}

	sig, err := client.SignMessage(ctx, ports.SignMessageRequest{
		WalletID:        walletID,
		Message:         message,
		AddressType:     addressType,
		Address:         addr,
		DerivationIndex: sess.AccountDerivationIndex,
	})
	if err != nil {
		return "", p.walletError(ctx, "sign message", err)
	}
	return sig, nil
}

// SignTransaction signs a serialized transaction without submitting it.
func (p *Provider) SignTransaction(ctx context.Context, addressType core.AddressType, transaction string) (string, error) {
	client, walletID, sess, addr, err := p.signingContext(ctx, addressType)
	if err != nil {
		return "", err
	}

	signed, err := client.SignTransaction(ctx, ports.SignTransactionRequest{
		WalletID:        walletID,
		Transaction:     transaction,
		AddressType:     addressType,
		Address:         addr,
		DerivationIndex: sess.AccountDerivationIndex,
	})
	if err != nil {
		return "", p.walletError(ctx, "sign transaction", err)
	}
	return signed, nil
}

// SignAndSendTransaction signs a serialized transaction and submits it,
// returning the transaction hash.
func (p *Provider) SignAndSendTransaction(ctx context.Context, addressType core.AddressType, transaction string) (string, error) {
	client, walletID, sess, addr, err := p.signingContext(ctx, addressType)
	if err != nil {
		return "", err
	}

	hash, err := client.SignAndSendTransaction(ctx, ports.SignTransactionRequest{
		WalletID:        walletID,
		Transaction:     transaction,
		AddressType:     addressType,
		Address:         addr,
		DerivationIndex: sess.AccountDerivationIndex,
	})
	if err != nil {
		return "", p.walletError(ctx, "sign and send transaction", err)
	}
	return hash, nil
}

// signingContext gates every signing call: the provider must be connected
// and the authenticator lifecycle check must pass before anything is sent
// to the remote client.
func (p *Provider) signingContext(ctx context.Context, addressType core.AddressType) (ports.WalletClient, string, *core.Session, string, error) {
	p.mu.Lock()
	client, walletID := p.client, p.walletID
	p.mu.Unlock()
	if client == nil || walletID == "" {
		return nil, "", nil, "", core.ErrNotConnected
	}

	if err := p.lifecycle.EnsureValid(ctx, SourceManualConnect); err != nil {
		return nil, "", nil, "", err
	}

	sess, err := p.store.GetSession(ctx)
	if err != nil {
		return nil, "", nil, "", fmt.Errorf("%w: read session: %v", core.ErrStorageUnavailable, err)
	}
	if sess == nil {
		return nil, "", nil, "", core.ErrNoActiveSession
	}

	addr, err := p.addressFor(addressType)
	if err != nil {
		return nil, "", nil, "", err
	}
	return client, walletID, sess, addr, nil
}

func (p *Provider) addressFor(addressType core.AddressType) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, a := range p.addresses {
		if a.AddressType == addressType {
			return a.Address, nil
		}
	}
	return "", fmt.Errorf("%w: %q", core.ErrNoAddressForNetwork, addressType)
}

// walletError wraps a remote signing failure. A spending-limit rejection
// additionally raises its dedicated event; the call still fails.
func (p *Provider) walletError(ctx context.Context, op string, err error) error {
	if core.IsSpendingLimit(err) {
		p.emit(ctx, Event{Type: EventSpendingLimitReached, Err: err})
	}
	return fmt.Errorf("wallet: %s: %w", op, err)
}

func (p *Provider) setConnection(client ports.WalletClient, walletID string, addrs []core.WalletAddress) {
	p.mu.Lock()
	p.client = client
	p.walletID = walletID
	p.addresses = addrs
	p.mu.Unlock()
}

func (p *Provider) emitConnect(ctx context.Context, res *core.ConnectResult, source ConnectSource) {
	p.emit(ctx, Event{
		Type:         EventConnect,
		Source:       source,
		WalletID:     res.WalletID,
		Addresses:    res.Addresses,
		Status:       res.Status,
		AuthProvider: res.AuthProvider,
		AuthUserID:   res.AuthUserID,
	})
}

func (p *Provider) emit(ctx context.Context, ev Event) {
	p.events.emit(ev)
	if p.cfg.Bridge != nil {
		if ev.Err != nil && ev.Error == "" {
			ev.Error = ev.Err.Error()
		}
		_ = p.cfg.Bridge.Publish(ctx, string(ev.Type), ev)
	}
}

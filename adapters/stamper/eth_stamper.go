package stamper

import (
	"context"
	"crypto/ecdsa"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/phantom/wallet-sdk-sub001/core"
	"github.com/phantom/wallet-sdk-sub001/ports"
)

// KeyStamper is an in-process key custodian holding a secp256k1 key pair.
// The private key never leaves the custodian; callers get the StamperInfo
// handle and a Sign primitive for request stamping.
type KeyStamper struct {
	mu   sync.Mutex
	key  *ecdsa.PrivateKey
	info core.StamperInfo
}

// NewKeyStamper creates an empty custodian. Init or ResetKeyPair must run
// before the key is usable.
func NewKeyStamper() *KeyStamper {
	return &KeyStamper{}
}

var _ ports.Stamper = (*KeyStamper)(nil)

// Init creates a key pair if none exists yet.
func (s *KeyStamper) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		return nil
	}
	return s.generate()
}

// ResetKeyPair discards the current key pair and generates a new one.
func (s *KeyStamper) ResetKeyPair(ctx context.Context) (core.StamperInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.generate(); err != nil {
		return core.StamperInfo{}, err
	}
	return s.info, nil
}

// GetKeyInfo returns the current key handle, or nil before Init.
func (s *KeyStamper) GetKeyInfo(ctx context.Context) (*core.StamperInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key == nil {
		return nil, nil
	}
	cp := s.info
	return &cp, nil
}

// Sign produces a recoverable secp256k1 signature over the keccak256 hash
// of payload, for stamping requests to the remote wallet API.
func (s *KeyStamper) Sign(payload []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key == nil {
		return nil, core.ErrNoActiveSession
	}
	return crypto.Sign(crypto.Keccak256(payload), s.key)
}

func (s *KeyStamper) generate() error {
	key, err := crypto.GenerateKey()
	if err != nil {
		return err
	}
	s.key = key
	s.info = core.StamperInfo{
		KeyID:     uuid.New().String(),
		PublicKey: hexutil.Encode(crypto.CompressPubkey(&key.PublicKey)),
	}
	return nil
}

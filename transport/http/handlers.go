package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phantom/wallet-sdk-sub001/core"
	"github.com/phantom/wallet-sdk-sub001/ports"
	"github.com/phantom/wallet-sdk-sub001/service"
)

// WalletHandlers exposes the embedded provider as a headless signer
// service.
type WalletHandlers struct {
	provider *service.Provider
}

// NewWalletHandlers creates handlers around the provider.
func NewWalletHandlers(provider *service.Provider) *WalletHandlers {
	return &WalletHandlers{provider: provider}
}

// Connect handles the connect request. A pending response means a
// third-party flow is awaiting external completion.
func (h *WalletHandlers) Connect(c *gin.Context) {
	var req struct {
		Provider    string `json:"provider" binding:"required"`
		RedirectURL string `json:"redirect_url"`
		JWT         string `json:"jwt"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.provider.Connect(c.Request.Context(), ports.AuthProviderOption{
		Provider:    core.AuthProvider(req.Provider),
		RedirectURL: req.RedirectURL,
		JWT:         req.JWT,
	})
	if err != nil {
		writeError(c, err, "Connection failed")
		return
	}

	c.JSON(http.StatusOK, result)
}

// AutoConnect handles passive reconnection. It never fails; a disconnected
// provider yields connected=false.
func (h *WalletHandlers) AutoConnect(c *gin.Context) {
	result := h.provider.AutoConnect(c.Request.Context())
	if result == nil {
		c.JSON(http.StatusOK, gin.H{"connected": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": true, "result": result})
}

// Disconnect handles the disconnect request.
func (h *WalletHandlers) Disconnect(c *gin.Context) {
	if err := h.provider.Disconnect(c.Request.Context()); err != nil {
		writeError(c, err, "Disconnect failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Disconnected"})
}

// Status reports the current connection state.
func (h *WalletHandlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected": h.provider.IsConnected(),
		"addresses": h.provider.Addresses(),
	})
}

type signRequest struct {
	AddressType string `json:"address_type" binding:"required"`
	Payload     string `json:"payload" binding:"required"`
}

func (r *signRequest) addressType(c *gin.Context) (core.AddressType, bool) {
	switch t := core.AddressType(r.AddressType); t {
	case core.AddressTypeEthereum, core.AddressTypeSolana:
		return t, true
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown address type"})
		return "", false
	}
}

// SignMessage signs a UTF-8 message.
func (h *WalletHandlers) SignMessage(c *gin.Context) {
	var req signRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	addressType, ok := req.addressType(c)
	if !ok {
		return
	}

	sig, err := h.provider.SignMessage(c.Request.Context(), addressType, req.Payload)
	if err != nil {
		writeError(c, err, "Signing failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"signature": sig})
}

// SignTransaction signs a serialized transaction without submitting it.
func (h *WalletHandlers) SignTransaction(c *gin.Context) {
	var req signRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	addressType, ok := req.addressType(c)
	if !ok {
		return
	}

	signed, err := h.provider.SignTransaction(c.Request.Context(), addressType, req.Payload)
	if err != nil {
		writeError(c, err, "Signing failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"signed_transaction": signed})
}

// SignAndSendTransaction signs a serialized transaction and submits it.
func (h *WalletHandlers) SignAndSendTransaction(c *gin.Context) {
	var req signRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	addressType, ok := req.addressType(c)
	if !ok {
		return
	}

	hash, err := h.provider.SignAndSendTransaction(c.Request.Context(), addressType, req.Payload)
	if err != nil {
		writeError(c, err, "Submission failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"hash": hash})
}

// writeError maps domain errors to HTTP status codes.
func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, core.ErrNotConnected), errors.Is(err, core.ErrNoActiveSession):
		c.JSON(http.StatusConflict, gin.H{"error": "Not connected"})
	case errors.Is(err, core.ErrAuthenticatorExpired), errors.Is(err, core.ErrSessionCorrupt):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired, reconnect required"})
	case errors.Is(err, core.ErrUnsupportedProvider):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported auth provider"})
	case errors.Is(err, core.ErrProviderUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Auth provider unavailable"})
	case errors.Is(err, core.ErrNoAddressForNetwork):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No address for requested network"})
	case core.IsSpendingLimit(err):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

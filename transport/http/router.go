package http

import (
	"github.com/gin-gonic/gin"

	"github.com/phantom/wallet-sdk-sub001/service"
)

// SetupRouter sets up the gin router for the headless signer service.
func SetupRouter(provider *service.Provider, apiKey string) *gin.Engine {
	router := gin.Default()
	router.Use(APIKeyMiddleware(apiKey))

	handlers := NewWalletHandlers(provider)

	wallet := router.Group("/wallet")
	{
		wallet.POST("/connect", handlers.Connect)
		wallet.POST("/auto-connect", handlers.AutoConnect)
		wallet.POST("/disconnect", handlers.Disconnect)
		wallet.GET("/status", handlers.Status)
	}

	sign := router.Group("/sign")
	{
		sign.POST("/message", handlers.SignMessage)
		sign.POST("/transaction", handlers.SignTransaction)
		sign.POST("/send", handlers.SignAndSendTransaction)
	}

	return router
}

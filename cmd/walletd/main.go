package main

import (
	"log"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"

	"github.com/phantom/wallet-sdk-sub001/adapters/auth"
	"github.com/phantom/wallet-sdk-sub001/adapters/events"
	"github.com/phantom/wallet-sdk-sub001/adapters/stamper"
	"github.com/phantom/wallet-sdk-sub001/adapters/store"
	"github.com/phantom/wallet-sdk-sub001/adapters/walletclient"
	"github.com/phantom/wallet-sdk-sub001/core"
	"github.com/phantom/wallet-sdk-sub001/ports"
	"github.com/phantom/wallet-sdk-sub001/service"
	transport "github.com/phantom/wallet-sdk-sub001/transport/http"
)

func main() {
	apiURL := envOr("WALLET_API_URL", "https://api.phantom.app")
	appID := envOr("WALLET_APP_ID", "walletd")
	apiKey := os.Getenv("WALLETD_API_KEY")
	addr := envOr("WALLETD_LISTEN", ":9000")

	keys := stamper.NewKeyStamper()
	clients := walletclient.NewFactory(apiURL, keys, nil)

	var (
		sessions ports.SessionStore = store.NewMemoryStore()
		bridge   ports.EventPublisher
	)

	// Redis is optional: with it the session slot survives restarts and
	// lifecycle events are bridged to a stream.
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opts)
		sessions = store.NewRedisStore(redisClient, appID)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			log.Fatalf("Failed to create Redis publisher: %v", err)
		}
		bridge = events.NewWatermillPublisher(publisher, "wallet.lifecycle")
	}

	authenticator := auth.NewJWTAuthenticator(clients.BootstrapClient(), nil)

	provider := service.NewProvider(
		sessions,
		keys,
		auth.StaticParams{},
		authenticator,
		nil, // no first-party app in a headless deployment
		clients,
		service.Config{
			AppID:      appID,
			WalletType: core.WalletTypeUser,
			Bridge:     bridge,
		},
	)

	router := transport.SetupRouter(provider, apiKey)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

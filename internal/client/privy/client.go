package privy

import (
	"github.com/tokenforge/tokenforge-api/internal/client/http"
)

const (
	PrivyAPIBaseURL = "https://auth.privy.io/api/v1"
)

// Wallet client types reported by the provider
const (
	WalletClientEmbedded = "embedded"
	WalletClientMetaMask = "metamask"
	WalletClientCoinbase = "coinbase_wallet"
	WalletClientRainbow  = "rainbow"
)

// PrivyClient talks to the wallet-abstraction provider's server API.
// All requests are authenticated with the app ID / app secret pair.
type PrivyClient struct {
	appID      string
	appSecret  string
	httpClient *http.HTTPClient
}

// NewPrivyClient creates a client for the provider API using the given app credentials.
func NewPrivyClient(appID, appSecret string) *PrivyClient {
	httpClient := http.NewHTTPClient(
		http.WithBaseURL(PrivyAPIBaseURL),
		http.WithDefaultHeader("privy-app-id", appID),
	)
	return &PrivyClient{
		appID:      appID,
		appSecret:  appSecret,
		httpClient: httpClient,
	}
}

// NewPrivyClientWithBaseURL is like NewPrivyClient but overrides the API base URL.
// Used for self-hosted deployments and tests.
func NewPrivyClientWithBaseURL(appID, appSecret, baseURL string) *PrivyClient {
	httpClient := http.NewHTTPClient(
		http.WithBaseURL(baseURL),
		http.WithDefaultHeader("privy-app-id", appID),
	)
	return &PrivyClient{
		appID:      appID,
		appSecret:  appSecret,
		httpClient: httpClient,
	}
}

package privy

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	httpClient "github.com/tokenforge/tokenforge-api/internal/client/http"
)

// Wallet represents a wallet linked to a provider user
type Wallet struct {
	Address          string    `json:"address"`
	ChainType        string    `json:"chain_type"`
	ChainID          string    `json:"chain_id"`
	WalletClientType string    `json:"wallet_client_type"`
	ConnectorType    string    `json:"connector_type"`
	Recovery         string    `json:"recovery_method"`
	VerifiedAt       time.Time `json:"verified_at"`
}

// IsEmbedded reports whether this wallet is a provider-managed embedded wallet
// as opposed to a user-supplied external one.
func (w Wallet) IsEmbedded() bool {
	return w.WalletClientType == WalletClientEmbedded
}

// User represents a provider user with their linked wallets
type User struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	IsGuest        bool      `json:"is_guest"`
	LinkedAccounts []struct {
		Type             string    `json:"type"`
		Address          string    `json:"address"`
		ChainType        string    `json:"chain_type"`
		WalletClientType string    `json:"wallet_client_type"`
		ConnectorType    string    `json:"connector_type"`
		VerifiedAt       time.Time `json:"verified_at"`
	} `json:"linked_accounts"`
}

// UserResponse represents the response from getting a user
type UserResponse struct {
	Data struct {
		User User `json:"user"`
	} `json:"data"`
}

// SessionResponse represents the provider's view of a user session
type SessionResponse struct {
	Data struct {
		Authenticated bool     `json:"authenticated"`
		Ready         bool     `json:"ready"`
		UserID        string   `json:"user_id"`
		Wallets       []Wallet `json:"wallets"`
	} `json:"data"`
}

// GetUser retrieves a provider user by ID, including linked accounts.
func (c *PrivyClient) GetUser(ctx context.Context, userID string) (*UserResponse, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}

	resp, err := c.httpClient.Get(
		ctx,
		fmt.Sprintf("users/%s", userID),
		httpClient.WithBasicAuth(c.appID, c.appSecret),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}

	var response UserResponse
	if err := c.httpClient.ProcessJSONResponse(resp, &response); err != nil {
		return nil, errors.Wrap(err, "failed to process user response")
	}

	return &response, nil
}

// GetSession retrieves the current auth/wallet state for a user.
// The wallets list includes both embedded and externally linked wallets.
func (c *PrivyClient) GetSession(ctx context.Context, userID string) (*SessionResponse, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}

	resp, err := c.httpClient.Get(
		ctx,
		fmt.Sprintf("users/%s/session", userID),
		httpClient.WithBasicAuth(c.appID, c.appSecret),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get session")
	}
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}

	var response SessionResponse
	if err := c.httpClient.ProcessJSONResponse(resp, &response); err != nil {
		return nil, errors.Wrap(err, "failed to process session response")
	}

	return &response, nil
}

// ListWallets retrieves the wallets linked to a user, optionally filtered by client type.
func (c *PrivyClient) ListWallets(ctx context.Context, userID string, clientType string) ([]Wallet, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}

	options := []httpClient.RequestOption{
		httpClient.WithBasicAuth(c.appID, c.appSecret),
	}
	if clientType != "" {
		options = append(options, httpClient.WithQueryParam("wallet_client_type", clientType))
	}

	resp, err := c.httpClient.Get(
		ctx,
		fmt.Sprintf("users/%s/wallets", userID),
		options...,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list wallets")
	}
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}

	var response struct {
		Data struct {
			Wallets []Wallet `json:"wallets"`
		} `json:"data"`
	}
	if err := c.httpClient.ProcessJSONResponse(resp, &response); err != nil {
		return nil, errors.Wrap(err, "failed to process wallet list response")
	}

	return response.Data.Wallets, nil
}

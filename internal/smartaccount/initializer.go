package smartaccount

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/tokenforge/tokenforge-api/internal/client/bundler"
	"github.com/tokenforge/tokenforge-api/internal/userop"
)

// Network preference values. The preference is an externally-set flag;
// everything network-specific hangs off the resolved NetworkConfig.
const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

// NetworkConfig holds the chain-specific addresses and endpoints for one network.
type NetworkConfig struct {
	Name           string
	ChainID        *big.Int
	NodeURL        string
	AccountFactory common.Address
	TokenFactory   common.Address
}

// Handle is the cached result of a successful initialization: the account
// client plus the smart-account address it operates.
type Handle struct {
	Client  *AccountClient
	Address common.Address
}

// AccountClient bundles the node connection and bundler access for one
// smart account. It is the "client" half of a Handle.
type AccountClient struct {
	Node    *ethclient.Client
	Bundler *bundler.BundlerClient
	Owner   common.Address
	Account common.Address
	ChainID *big.Int
}

// Initializer constructs smart accounts for embedded-wallet owners.
// The account address is counterfactual: derived from the factory before
// any on-chain deployment happens.
type Initializer struct {
	networks   map[string]NetworkConfig
	preference string
	bundler    *bundler.BundlerClient
	logger     *zap.Logger

	// dial is swappable in tests
	dial func(ctx context.Context, url string) (*ethclient.Client, error)
}

// NewInitializer creates an initializer resolving networks by the given preference flag.
func NewInitializer(networks map[string]NetworkConfig, preference string, bundlerClient *bundler.BundlerClient, logger *zap.Logger) (*Initializer, error) {
	if preference != NetworkMainnet && preference != NetworkTestnet {
		return nil, fmt.Errorf("invalid network preference: %s", preference)
	}
	if _, ok := networks[preference]; !ok {
		return nil, fmt.Errorf("no network configured for preference: %s", preference)
	}
	if bundlerClient == nil {
		return nil, fmt.Errorf("bundler client is required")
	}

	return &Initializer{
		networks:   networks,
		preference: preference,
		bundler:    bundlerClient,
		logger:     logger,
		dial: func(ctx context.Context, url string) (*ethclient.Client, error) {
			return ethclient.DialContext(ctx, url)
		},
	}, nil
}

// Network returns the config selected by the current preference flag.
func (i *Initializer) Network() NetworkConfig {
	return i.networks[i.preference]
}

// Initialize builds the smart-account handle for the given owner wallet.
// The owner is expected to be the user's embedded wallet address. Failures
// are returned verbatim; the caller owns retry policy.
func (i *Initializer) Initialize(ctx context.Context, ownerAddress string) (*Handle, error) {
	if !common.IsHexAddress(ownerAddress) {
		return nil, fmt.Errorf("invalid owner wallet address: %s", ownerAddress)
	}
	owner := common.HexToAddress(ownerAddress)
	network := i.Network()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	node, err := i.dial(ctx, network.NodeURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s node: %w", network.Name, err)
	}

	accountAddress, err := i.counterfactualAddress(ctx, node, network, owner)
	if err != nil {
		node.Close()
		return nil, err
	}

	i.logger.Info("Smart account initialized",
		zap.String("owner", owner.Hex()),
		zap.String("account", accountAddress.Hex()),
		zap.String("network", network.Name),
	)

	client := &AccountClient{
		Node:    node,
		Bundler: i.bundler,
		Owner:   owner,
		Account: accountAddress,
		ChainID: network.ChainID,
	}

	return &Handle{
		Client:  client,
		Address: accountAddress,
	}, nil
}

// counterfactualAddress asks the factory for the CREATE2 address of the
// owner's account with salt zero.
func (i *Initializer) counterfactualAddress(ctx context.Context, node *ethclient.Client, network NetworkConfig, owner common.Address) (common.Address, error) {
	callData, err := userop.GetAddressCallData(owner, big.NewInt(0))
	if err != nil {
		return common.Address{}, err
	}

	result, err := node.CallContract(ctx, ethereum.CallMsg{
		To:   &network.AccountFactory,
		Data: callData,
	}, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("factory getAddress call failed: %w", err)
	}

	accountAddress, err := userop.UnpackAddressResult(result)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode factory getAddress result: %w", err)
	}
	if accountAddress == (common.Address{}) {
		return common.Address{}, fmt.Errorf("factory returned zero account address for owner %s", owner.Hex())
	}

	return accountAddress, nil
}

// InitCode returns the initCode deploying the owner's account, for inclusion
// in the first user operation sent from a not-yet-deployed account.
func (i *Initializer) InitCode(owner common.Address) ([]byte, error) {
	network := i.Network()
	return userop.AccountInitCode(network.AccountFactory, owner, big.NewInt(0))
}

// IsDeployed reports whether the account contract already has code on chain.
func (c *AccountClient) IsDeployed(ctx context.Context) (bool, error) {
	code, err := c.Node.CodeAt(ctx, c.Account, nil)
	if err != nil {
		return false, fmt.Errorf("failed to read account code: %w", err)
	}
	return len(code) > 0, nil
}

// Close releases the node connection held by the client.
func (c *AccountClient) Close() {
	if c.Node != nil {
		c.Node.Close()
	}
}

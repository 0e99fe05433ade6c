package server

import (
	"context"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/tokenforge/tokenforge-api/docs" // swagger docs registration
	"github.com/tokenforge/tokenforge-api/internal/auth"
	"github.com/tokenforge/tokenforge-api/internal/client/aws"
	"github.com/tokenforge/tokenforge-api/internal/client/bundler"
	"github.com/tokenforge/tokenforge-api/internal/client/privy"
	"github.com/tokenforge/tokenforge-api/internal/coordinator"
	"github.com/tokenforge/tokenforge-api/internal/db"
	"github.com/tokenforge/tokenforge-api/internal/events"
	"github.com/tokenforge/tokenforge-api/internal/handlers"
	"github.com/tokenforge/tokenforge-api/internal/logger"
	"github.com/tokenforge/tokenforge-api/internal/middleware"
	"github.com/tokenforge/tokenforge-api/internal/smartaccount"
)

// Handler Definitions
var (
	sessionHandler *handlers.SessionHandler
	tokenHandler   *handlers.TokenHandler
	accountHandler *handlers.AccountHandler
	healthHandler  *handlers.HealthHandler

	bundlerClient       *bundler.BundlerClient
	deploymentProcessor *handlers.DeploymentProcessor

	// Database
	dbQueries *db.Queries
)

func InitializeHandlers() {
	ctx := context.Background()

	// Get database connection string from environment
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}

	// Create a connection pool using pgxpool
	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		logger.Fatal("Unable to parse database connection string", zap.Error(err))
	}

	// Configure the connection pool
	poolConfig.MaxConns = 20
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	// Create the connection pool
	connPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal("Unable to create connection pool", zap.Error(err))
	}

	// Create queries instance with the connection pool
	dbQueries = db.New(connPool)

	// Initialize the auth provider client. The app secret can come from
	// Secrets Manager or fall back to the environment.
	privyAppID := os.Getenv("PRIVY_APP_ID")
	if privyAppID == "" {
		logger.Fatal("PRIVY_APP_ID environment variable is required")
	}
	privyAppSecret := resolveSecret(ctx, "PRIVY_APP_SECRET_ARN", "PRIVY_APP_SECRET")
	if privyAppSecret == "" {
		logger.Fatal("PRIVY_APP_SECRET environment variable is required")
	}
	privyClient := privy.NewPrivyClient(privyAppID, privyAppSecret)

	// Initialize the bundler client
	bundlerURL := os.Getenv("BUNDLER_URL")
	if bundlerURL == "" {
		logger.Fatal("BUNDLER_URL environment variable is required")
	}
	entrypointAddr := os.Getenv("ENTRYPOINT_ADDRESS")
	if !common.IsHexAddress(entrypointAddr) {
		logger.Fatal("ENTRYPOINT_ADDRESS is not a valid address")
	}
	bundlerClient, err = bundler.NewBundlerClient(bundler.BundlerClientConfig{
		BundlerURL: bundlerURL,
		Entrypoint: common.HexToAddress(entrypointAddr),
	})
	if err != nil {
		logger.Fatal("Unable to create bundler client", zap.Error(err))
	}

	// Initialize the smart-account initializer for the configured networks
	preference := os.Getenv("NETWORK_PREFERENCE")
	if preference == "" {
		preference = smartaccount.NetworkTestnet
	}
	initializer, err := smartaccount.NewInitializer(loadNetworks(), preference, bundlerClient, logger.Log)
	if err != nil {
		logger.Fatal("Unable to create smart account initializer", zap.Error(err))
	}

	// Per-user readiness coordinators
	coordinators := coordinator.NewManager(initializer, logger.Log)

	// Deployment events go to SQS when a queue is configured
	var publisher events.Publisher
	if queueURL := os.Getenv("DEPLOYMENT_EVENTS_QUEUE_URL"); queueURL != "" {
		publisher, err = events.NewSQSPublisher(ctx, queueURL)
		if err != nil {
			logger.Fatal("Unable to create SQS publisher", zap.Error(err))
		}
	} else {
		logger.Info("DEPLOYMENT_EVENTS_QUEUE_URL not set, deployment events disabled")
		publisher = events.NoopPublisher{}
	}

	// Session signing key for user operations
	signerHex := resolveSecret(ctx, "SIGNER_PRIVATE_KEY_ARN", "SIGNER_PRIVATE_KEY")
	if signerHex == "" {
		logger.Fatal("SIGNER_PRIVATE_KEY environment variable is required")
	}
	signer, err := crypto.HexToECDSA(strings.TrimPrefix(signerHex, "0x"))
	if err != nil {
		logger.Fatal("SIGNER_PRIVATE_KEY is not a valid private key", zap.Error(err))
	}

	commonServices := handlers.NewCommonServices(
		dbQueries,
		privyClient,
		coordinators,
		initializer,
	)

	// Initialize and start the deployment processor with 3 workers and a buffer size of 100
	deploymentProcessor = handlers.NewDeploymentProcessor(
		dbQueries,
		coordinators,
		initializer,
		bundlerClient,
		publisher,
		signer,
		3,
		100,
	)
	deploymentProcessor.Start()

	// API Handler initialization
	sessionHandler = handlers.NewSessionHandler(commonServices)
	tokenHandler = handlers.NewTokenHandler(commonServices, deploymentProcessor)
	accountHandler = handlers.NewAccountHandler(commonServices)
	healthHandler = handlers.NewHealthHandler(bundlerClient)
}

// Shutdown stops background workers. Called from main on graceful shutdown.
func Shutdown() {
	if deploymentProcessor != nil {
		deploymentProcessor.Stop()
	}
}

func InitializeRoutes(router *gin.Engine) {
	// Configure and apply CORS middleware
	router.Use(configureCORS())

	// Add Swagger endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.DefaultRateLimiter.Middleware())
	{
		// Protected routes (authentication required)
		protected := v1.Group("/")
		protected.Use(auth.EnsureValidToken())
		{
			// Session readiness
			session := protected.Group("/session")
			{
				session.POST("/ensure-ready", sessionHandler.EnsureReady)
				session.POST("/retry", sessionHandler.Retry)
				session.GET("/status", sessionHandler.GetStatus)
			}
			protected.POST("/auth/refresh", sessionHandler.RefreshAuth)

			// Smart accounts
			protected.GET("/accounts/me", accountHandler.GetMe)

			// Token deployments
			tokens := protected.Group("/tokens")
			{
				tokens.POST("/deploy", middleware.StrictRateLimiter.Middleware(), tokenHandler.DeployToken)
				tokens.GET("/deployments", tokenHandler.ListDeployments)
				tokens.GET("/deployments/:deployment_id", tokenHandler.GetDeployment)
			}
		}
	}
}

// resolveSecret reads a secret through Secrets Manager when an ARN variable is
// set, falling back to the plain environment variable otherwise.
func resolveSecret(ctx context.Context, arnEnvVar, fallbackEnvVar string) string {
	if os.Getenv(arnEnvVar) == "" {
		return os.Getenv(fallbackEnvVar)
	}

	smClient, err := aws.NewSecretsManagerClient(ctx)
	if err != nil {
		logger.Error("Unable to create Secrets Manager client, falling back to environment",
			zap.Error(err),
			zap.String("arn_var", arnEnvVar),
		)
		return os.Getenv(fallbackEnvVar)
	}

	secret, err := smClient.GetSecretString(ctx, arnEnvVar, fallbackEnvVar)
	if err != nil {
		logger.Error("Unable to read secret, falling back to environment",
			zap.Error(err),
			zap.String("arn_var", arnEnvVar),
		)
		return os.Getenv(fallbackEnvVar)
	}
	return secret
}

// loadNetworks builds the network configs present in the environment. A
// network is configured when its node URL is set.
func loadNetworks() map[string]smartaccount.NetworkConfig {
	networks := make(map[string]smartaccount.NetworkConfig)

	for _, name := range []string{smartaccount.NetworkMainnet, smartaccount.NetworkTestnet} {
		prefix := strings.ToUpper(name)

		nodeURL := os.Getenv(prefix + "_NODE_URL")
		if nodeURL == "" {
			continue
		}

		chainID, ok := new(big.Int).SetString(os.Getenv(prefix+"_CHAIN_ID"), 10)
		if !ok {
			logger.Fatal(prefix + "_CHAIN_ID must be a decimal chain ID")
		}

		accountFactory := os.Getenv(prefix + "_ACCOUNT_FACTORY")
		if !common.IsHexAddress(accountFactory) {
			logger.Fatal(prefix + "_ACCOUNT_FACTORY is not a valid address")
		}
		tokenFactory := os.Getenv(prefix + "_TOKEN_FACTORY")
		if !common.IsHexAddress(tokenFactory) {
			logger.Fatal(prefix + "_TOKEN_FACTORY is not a valid address")
		}

		networks[name] = smartaccount.NetworkConfig{
			Name:           name,
			ChainID:        chainID,
			NodeURL:        nodeURL,
			AccountFactory: common.HexToAddress(accountFactory),
			TokenFactory:   common.HexToAddress(tokenFactory),
		}
	}

	if len(networks) == 0 {
		logger.Fatal("No networks configured, set MAINNET_NODE_URL or TESTNET_NODE_URL")
	}
	return networks
}

// configureCORS returns a configured CORS middleware
func configureCORS() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()

	// Get allowed origins from environment variable
	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	if originsEnv == "" {
		// Default to localhost if not set
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	} else {
		// Split and trim the origins
		origins := strings.Split(originsEnv, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		corsConfig.AllowOrigins = origins
	}

	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.AllowCredentials = os.Getenv("CORS_ALLOW_CREDENTIALS") == "true"

	return cors.New(corsConfig)
}

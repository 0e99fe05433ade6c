package handlers

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/tokenforge/tokenforge-api/internal/client/bundler"
	"github.com/tokenforge/tokenforge-api/internal/coordinator"
	"github.com/tokenforge/tokenforge-api/internal/db"
	"github.com/tokenforge/tokenforge-api/internal/events"
	"github.com/tokenforge/tokenforge-api/internal/logger"
	"github.com/tokenforge/tokenforge-api/internal/smartaccount"
	"github.com/tokenforge/tokenforge-api/internal/userop"
)

// DeploymentTask represents a task to be processed by the deployment processor
type DeploymentTask struct {
	DeploymentID uuid.UUID
	UserID       string
}

// DeploymentProcessor executes queued token deployments as sponsored user
// operations sent through the bundler.
type DeploymentProcessor struct {
	tasks         chan DeploymentTask
	dbQueries     db.Querier
	coordinators  *coordinator.Manager
	initializer   *smartaccount.Initializer
	bundlerClient *bundler.BundlerClient
	publisher     events.Publisher
	signer        *ecdsa.PrivateKey
	workerCount   int
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc

	// Circuit breaker pattern to handle bundler downtime
	mu                  sync.Mutex
	circuitOpen         bool
	consecutiveFailures int
	failureThreshold    int
	resetTimeout        time.Duration
	lastFailureTime     time.Time
	pendingTasks        []DeploymentTask
}

// NewDeploymentProcessor creates a new deployment processor with the given
// number of workers and queue buffer size
func NewDeploymentProcessor(
	dbQueries db.Querier,
	coordinators *coordinator.Manager,
	initializer *smartaccount.Initializer,
	bundlerClient *bundler.BundlerClient,
	publisher events.Publisher,
	signer *ecdsa.PrivateKey,
	workerCount int,
	bufferSize int,
) *DeploymentProcessor {
	ctx, cancel := context.WithCancel(context.Background())

	dp := &DeploymentProcessor{
		tasks:            make(chan DeploymentTask, bufferSize),
		dbQueries:        dbQueries,
		coordinators:     coordinators,
		initializer:      initializer,
		bundlerClient:    bundlerClient,
		publisher:        publisher,
		signer:           signer,
		workerCount:      workerCount,
		ctx:              ctx,
		cancel:           cancel,
		failureThreshold: 3,
		resetTimeout:     5 * time.Minute,
		pendingTasks:     make([]DeploymentTask, 0),
	}

	return dp
}

// Start starts the deployment processor
func (dp *DeploymentProcessor) Start() {
	logger.Info("Starting deployment processor with workers", zap.Int("worker_count", dp.workerCount))

	// Start a separate goroutine to monitor the bundler health
	go dp.monitorBundlerHealth()

	// Requeue deployments left pending by a previous run
	go dp.recoverPendingDeployments()

	// Start worker goroutines
	for i := 0; i < dp.workerCount; i++ {
		workerID := i
		dp.wg.Add(1)

		go func() {
			defer dp.wg.Done()
			logger.Debug("Deployment worker started", zap.Int("worker_id", workerID))

			for {
				select {
				case <-dp.ctx.Done():
					logger.Debug("Deployment worker stopped", zap.Int("worker_id", workerID))
					return
				case task := <-dp.tasks:
					err := dp.processDeployment(task)
					if err != nil {
						logger.Error("Failed to process deployment",
							zap.Error(err),
							zap.String("deployment_id", task.DeploymentID.String()),
						)
					}
				}
			}
		}()
	}
}

// Stop stops the deployment processor
func (dp *DeploymentProcessor) Stop() {
	logger.Info("Stopping deployment processor")
	dp.cancel()
	dp.wg.Wait()
	logger.Info("Deployment processor stopped")
}

// QueueDeployment adds a deployment task to the queue
func (dp *DeploymentProcessor) QueueDeployment(task DeploymentTask) error {
	// Check if circuit breaker is open
	dp.mu.Lock()
	defer dp.mu.Unlock()

	if dp.circuitOpen {
		// Store task for later processing when the circuit breaker resets
		logger.Info("Circuit breaker open, storing task for later",
			zap.String("deployment_id", task.DeploymentID.String()),
		)
		dp.pendingTasks = append(dp.pendingTasks, task)
		return nil
	}

	// Try to add the task to the queue, with a timeout to avoid blocking
	select {
	case dp.tasks <- task:
		logger.Debug("Deployment task queued",
			zap.String("deployment_id", task.DeploymentID.String()),
		)
		return nil
	case <-time.After(5 * time.Second):
		return errors.New("deployment queue is full, try again later")
	}
}

// recoverPendingDeployments requeues deployments that were still pending when
// the previous process stopped, so a restart does not strand them.
func (dp *DeploymentProcessor) recoverPendingDeployments() {
	ctx, cancel := context.WithTimeout(dp.ctx, 30*time.Second)
	defer cancel()

	pending, err := dp.dbQueries.ListTokenDeploymentsByStatus(ctx, db.DeploymentStatusPending)
	if err != nil {
		logger.Error("Failed to load pending deployments for recovery", zap.Error(err))
		return
	}

	for _, d := range pending {
		logger.Info("Requeuing deployment pending from a previous run",
			zap.String("deployment_id", d.ID.String()),
		)
		if err := dp.QueueDeployment(DeploymentTask{DeploymentID: d.ID, UserID: d.UserID}); err != nil {
			logger.Error("Failed to requeue pending deployment",
				zap.Error(err),
				zap.String("deployment_id", d.ID.String()),
			)
		}
	}
}

// Helper function to convert string to nullable text
func stringToNullableText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// numericToBigInt converts a stored supply to the integer token amount.
// Fractional supplies are rejected; decimals scaling happens in the contract.
func numericToBigInt(n pgtype.Numeric) (*big.Int, error) {
	if !n.Valid || n.Int == nil {
		return nil, errors.New("supply is not set")
	}
	if n.Exp < 0 {
		return nil, errors.New("supply must be a whole number")
	}

	supply := new(big.Int).Set(n.Int)
	if n.Exp > 0 {
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n.Exp)), nil)
		supply.Mul(supply, scale)
	}
	return supply, nil
}

// failDeployment records a terminal failure and publishes the event.
func (dp *DeploymentProcessor) failDeployment(ctx context.Context, deployment db.TokenDeployment, cause error) {
	logger.Error("Token deployment failed",
		zap.Error(cause),
		zap.String("deployment_id", deployment.ID.String()),
	)

	updated, dbErr := dp.dbQueries.UpdateTokenDeploymentFailed(ctx, db.UpdateTokenDeploymentFailedParams{
		ID:           deployment.ID,
		ErrorMessage: stringToNullableText(cause.Error()),
	})
	if dbErr != nil {
		logger.Error("Failed to record deployment failure",
			zap.Error(dbErr),
			zap.String("deployment_id", deployment.ID.String()),
		)
		return
	}

	if err := dp.publisher.PublishDeploymentEvent(ctx, events.DeploymentEvent{
		DeploymentID: updated.ID.String(),
		UserID:       updated.UserID,
		Network:      updated.Network,
		Status:       string(updated.Status),
		ErrorMessage: cause.Error(),
		OccurredAt:   time.Now().UTC(),
	}); err != nil {
		logger.Error("Failed to publish deployment failure event",
			zap.Error(err),
			zap.String("deployment_id", updated.ID.String()),
		)
	}
}

// processDeployment executes one queued deployment end to end: build the
// user operation, get it sponsored, sign, submit, and wait for the receipt.
func (dp *DeploymentProcessor) processDeployment(task DeploymentTask) error {
	ctx, cancel := context.WithTimeout(dp.ctx, 3*time.Minute)
	defer cancel()

	// Check if the bundler is available before attempting the deployment
	err := dp.bundlerClient.HealthCheck(ctx)
	if err != nil {
		logger.Warn("Bundler unavailable, incrementing failure counter",
			zap.Error(err),
			zap.String("deployment_id", task.DeploymentID.String()),
		)

		// Increment consecutive failures and consider opening circuit breaker
		dp.mu.Lock()
		dp.consecutiveFailures++
		dp.lastFailureTime = time.Now()

		if dp.consecutiveFailures >= dp.failureThreshold && !dp.circuitOpen {
			logger.Warn("Opening circuit breaker due to consecutive failures",
				zap.Int("failure_count", dp.consecutiveFailures),
				zap.Int("threshold", dp.failureThreshold),
			)
			dp.circuitOpen = true
		}

		// Store task for later processing; the deployment stays pending.
		dp.pendingTasks = append(dp.pendingTasks, task)
		dp.mu.Unlock()

		return fmt.Errorf("bundler unavailable: %w", err)
	}

	// Reset consecutive failures counter since the bundler is available
	dp.mu.Lock()
	if dp.consecutiveFailures > 0 {
		dp.consecutiveFailures = 0
		logger.Info("Reset consecutive failures counter, bundler is available")
	}
	dp.mu.Unlock()

	deployment, err := dp.dbQueries.GetTokenDeployment(ctx, task.DeploymentID)
	if err != nil {
		return fmt.Errorf("failed to load deployment: %w", err)
	}
	if deployment.Status != db.DeploymentStatusPending {
		logger.Debug("Skipping deployment not in pending state",
			zap.String("deployment_id", deployment.ID.String()),
			zap.String("status", string(deployment.Status)),
		)
		return nil
	}

	handle := dp.coordinators.ForUser(task.UserID).Handle()
	if handle == nil {
		dp.failDeployment(ctx, deployment, errors.New("smart account is no longer ready"))
		return nil
	}

	op, predictedToken, err := dp.buildDeploymentOp(ctx, deployment, handle)
	if err != nil {
		dp.failDeployment(ctx, deployment, err)
		return nil
	}

	// Paymaster sponsorship, then sign over the final operation hash.
	sponsorship, err := dp.bundlerClient.SponsorUserOperation(ctx, op)
	if err != nil {
		dp.failDeployment(ctx, deployment, fmt.Errorf("sponsorship failed: %w", err))
		return nil
	}
	if err := applySponsorship(op, sponsorship); err != nil {
		dp.failDeployment(ctx, deployment, err)
		return nil
	}

	if err := dp.signOperation(op, handle); err != nil {
		dp.failDeployment(ctx, deployment, fmt.Errorf("failed to sign operation: %w", err))
		return nil
	}

	userOpHash, err := dp.bundlerClient.SendUserOperation(ctx, op)
	if err != nil {
		dp.failDeployment(ctx, deployment, fmt.Errorf("submission failed: %w", err))
		return nil
	}

	logger.Info("User operation submitted",
		zap.String("deployment_id", deployment.ID.String()),
		zap.String("user_op_hash", userOpHash.Hex()),
	)

	deployment, err = dp.dbQueries.UpdateTokenDeploymentSubmitted(ctx, db.UpdateTokenDeploymentSubmittedParams{
		ID:         deployment.ID,
		UserOpHash: stringToNullableText(userOpHash.Hex()),
	})
	if err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}

	return dp.awaitReceipt(ctx, deployment, handle, userOpHash, predictedToken)
}

// buildDeploymentOp assembles the unsigned, unsponsored user operation for the
// deployment, plus the token address predicted by simulating the factory call.
func (dp *DeploymentProcessor) buildDeploymentOp(
	ctx context.Context,
	deployment db.TokenDeployment,
	handle *smartaccount.Handle,
) (*userop.UserOperation, common.Address, error) {
	network := dp.initializer.Network()

	supply, err := numericToBigInt(deployment.InitialSupply)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("invalid initial supply: %w", err)
	}

	innerCall, err := userop.DeployTokenCallData(
		deployment.TokenName,
		deployment.TokenSymbol,
		uint8(deployment.Decimals),
		supply,
		handle.Address,
	)
	if err != nil {
		return nil, common.Address{}, err
	}

	// Simulate the factory call to learn the address the token will get.
	result, err := handle.Client.Node.CallContract(ctx, ethereum.CallMsg{
		From: handle.Address,
		To:   &network.TokenFactory,
		Data: innerCall,
	}, nil)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("factory simulation failed: %w", err)
	}
	predictedToken, err := userop.UnpackAddressResult(result)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("failed to decode simulated token address: %w", err)
	}

	callData, err := userop.ExecuteCallData(network.TokenFactory, nil, innerCall)
	if err != nil {
		return nil, common.Address{}, err
	}

	nonce, err := dp.accountNonce(ctx, handle)
	if err != nil {
		return nil, common.Address{}, err
	}

	var initCode []byte
	deployed, err := handle.Client.IsDeployed(ctx)
	if err != nil {
		return nil, common.Address{}, err
	}
	if !deployed {
		initCode, err = dp.initializer.InitCode(handle.Client.Owner)
		if err != nil {
			return nil, common.Address{}, err
		}
	}

	gasPrice, err := handle.Client.Node.SuggestGasPrice(ctx)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("failed to get gas price: %w", err)
	}
	gasTip, err := handle.Client.Node.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("failed to get gas tip: %w", err)
	}

	return &userop.UserOperation{
		Sender:               handle.Address,
		Nonce:                nonce,
		InitCode:             initCode,
		CallData:             callData,
		MaxFeePerGas:         gasPrice,
		MaxPriorityFeePerGas: gasTip,
	}, predictedToken, nil
}

// accountNonce reads the account's sequential nonce from the entrypoint.
func (dp *DeploymentProcessor) accountNonce(ctx context.Context, handle *smartaccount.Handle) (*big.Int, error) {
	callData, err := userop.GetNonceCallData(handle.Address, nil)
	if err != nil {
		return nil, err
	}

	entrypoint := dp.bundlerClient.Entrypoint()
	result, err := handle.Client.Node.CallContract(ctx, ethereum.CallMsg{
		To:   &entrypoint,
		Data: callData,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("entrypoint getNonce call failed: %w", err)
	}
	return userop.UnpackBigResult(result)
}

// applySponsorship merges the paymaster's gas values and data into the operation.
func applySponsorship(op *userop.UserOperation, s *bundler.SponsorshipResult) error {
	paymasterAndData, err := hexutil.Decode(s.PaymasterAndData)
	if err != nil {
		return fmt.Errorf("invalid paymasterAndData: %w", err)
	}
	op.PaymasterAndData = paymasterAndData

	if op.PreVerificationGas, err = hexutil.DecodeBig(s.PreVerificationGas); err != nil {
		return fmt.Errorf("invalid preVerificationGas: %w", err)
	}
	if op.VerificationGasLimit, err = hexutil.DecodeBig(s.VerificationGasLimit); err != nil {
		return fmt.Errorf("invalid verificationGasLimit: %w", err)
	}
	if op.CallGasLimit, err = hexutil.DecodeBig(s.CallGasLimit); err != nil {
		return fmt.Errorf("invalid callGasLimit: %w", err)
	}
	return nil
}

// signOperation signs the operation hash with the service session key. The
// account contract validates an eth_sign style signature over the userOp hash.
func (dp *DeploymentProcessor) signOperation(op *userop.UserOperation, handle *smartaccount.Handle) error {
	if dp.signer == nil {
		return errors.New("no session signing key configured")
	}

	opHash, err := op.Hash(dp.bundlerClient.Entrypoint(), handle.Client.ChainID)
	if err != nil {
		return err
	}

	sig, err := crypto.Sign(accounts.TextHash(opHash.Bytes()), dp.signer)
	if err != nil {
		return err
	}
	sig[64] += 27
	op.Signature = sig
	return nil
}

// awaitReceipt polls the bundler until the operation is mined or the task
// context expires, then records the terminal state.
func (dp *DeploymentProcessor) awaitReceipt(
	ctx context.Context,
	deployment db.TokenDeployment,
	handle *smartaccount.Handle,
	userOpHash common.Hash,
	predictedToken common.Address,
) error {
	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Leave the deployment in submitted; a later sweep can reconcile it.
			logger.Warn("Gave up waiting for user operation receipt",
				zap.String("deployment_id", deployment.ID.String()),
				zap.String("user_op_hash", userOpHash.Hex()),
			)
			return ctx.Err()
		case <-ticker.C:
		}

		receipt, err := dp.bundlerClient.GetUserOperationReceipt(ctx, userOpHash)
		if err != nil {
			logger.Debug("Receipt poll failed, will retry",
				zap.Error(err),
				zap.String("user_op_hash", userOpHash.Hex()),
			)
			continue
		}
		if receipt == nil {
			continue
		}

		if !receipt.Success {
			dp.failDeployment(ctx, deployment, fmt.Errorf("user operation reverted: %s", receipt.Reason))
			return nil
		}

		confirmed, err := dp.dbQueries.UpdateTokenDeploymentConfirmed(ctx, db.UpdateTokenDeploymentConfirmedParams{
			ID:           deployment.ID,
			TxHash:       stringToNullableText(receipt.Receipt.TransactionHash),
			TokenAddress: stringToNullableText(predictedToken.Hex()),
		})
		if err != nil {
			return fmt.Errorf("failed to record confirmation: %w", err)
		}

		dp.markAccountDeployed(ctx, confirmed.UserID)

		logger.Info("Token deployment confirmed",
			zap.String("deployment_id", confirmed.ID.String()),
			zap.String("token_address", predictedToken.Hex()),
			zap.String("tx_hash", receipt.Receipt.TransactionHash),
		)

		if err := dp.publisher.PublishDeploymentEvent(ctx, events.DeploymentEvent{
			DeploymentID: confirmed.ID.String(),
			UserID:       confirmed.UserID,
			Network:      confirmed.Network,
			Status:       string(confirmed.Status),
			TokenAddress: predictedToken.Hex(),
			TxHash:       receipt.Receipt.TransactionHash,
			OccurredAt:   time.Now().UTC(),
		}); err != nil {
			logger.Error("Failed to publish deployment confirmation event",
				zap.Error(err),
				zap.String("deployment_id", confirmed.ID.String()),
			)
		}

		return nil
	}
}

// markAccountDeployed flips the deployed flag once the first operation from
// the account lands, since that operation carried the initCode.
func (dp *DeploymentProcessor) markAccountDeployed(ctx context.Context, userID string) {
	account, err := dp.dbQueries.GetSmartAccountByUser(ctx, db.GetSmartAccountByUserParams{
		UserID:  userID,
		Network: dp.initializer.Network().Name,
	})
	if err != nil || account.Deployed {
		return
	}

	if _, err := dp.dbQueries.MarkSmartAccountDeployed(ctx, account.ID); err != nil {
		logger.Error("Failed to mark smart account deployed",
			zap.Error(err),
			zap.String("user_id", userID),
		)
	}
}

// monitorBundlerHealth periodically checks if the bundler is available
// and resets the circuit breaker if it becomes available again
func (dp *DeploymentProcessor) monitorBundlerHealth() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-dp.ctx.Done():
			return
		case <-ticker.C:
			// Only check health if circuit breaker is open
			dp.mu.Lock()
			if !dp.circuitOpen {
				dp.mu.Unlock()
				continue
			}

			// Check if we need to attempt reset based on timeout
			if time.Since(dp.lastFailureTime) < dp.resetTimeout {
				dp.mu.Unlock()
				continue
			}

			dp.mu.Unlock()

			// Check if the bundler is available
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := dp.bundlerClient.HealthCheck(ctx)
			cancel()

			if err == nil {
				// Bundler is available, reset circuit breaker
				dp.mu.Lock()
				if dp.circuitOpen {
					logger.Info("Bundler is available, resetting circuit breaker")
					dp.circuitOpen = false
					dp.consecutiveFailures = 0

					// Process any pending tasks
					pendingTasks := dp.pendingTasks
					dp.pendingTasks = make([]DeploymentTask, 0)
					dp.mu.Unlock()

					// Queue pending tasks
					for _, task := range pendingTasks {
						logger.Info("Requeuing pending task after circuit breaker reset",
							zap.String("deployment_id", task.DeploymentID.String()),
						)
						_ = dp.QueueDeployment(task)
					}
				} else {
					dp.mu.Unlock()
				}
			}
		}
	}
}

package db

import (
	"context"

	"github.com/google/uuid"
)

// Querier is the query interface implemented by Queries and mocked in tests.
type Querier interface {
	CreateSmartAccount(ctx context.Context, arg CreateSmartAccountParams) (SmartAccount, error)
	GetSmartAccountByUser(ctx context.Context, arg GetSmartAccountByUserParams) (SmartAccount, error)
	MarkSmartAccountDeployed(ctx context.Context, id uuid.UUID) (SmartAccount, error)

	CreateTokenDeployment(ctx context.Context, arg CreateTokenDeploymentParams) (TokenDeployment, error)
	GetTokenDeployment(ctx context.Context, id uuid.UUID) (TokenDeployment, error)
	ListTokenDeploymentsByUser(ctx context.Context, userID string) ([]TokenDeployment, error)
	ListTokenDeploymentsByStatus(ctx context.Context, status DeploymentStatus) ([]TokenDeployment, error)
	UpdateTokenDeploymentSubmitted(ctx context.Context, arg UpdateTokenDeploymentSubmittedParams) (TokenDeployment, error)
	UpdateTokenDeploymentConfirmed(ctx context.Context, arg UpdateTokenDeploymentConfirmedParams) (TokenDeployment, error)
	UpdateTokenDeploymentFailed(ctx context.Context, arg UpdateTokenDeploymentFailedParams) (TokenDeployment, error)
}

var _ Querier = (*Queries)(nil)

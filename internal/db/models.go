package db

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// DeploymentStatus is the lifecycle of a token deployment.
type DeploymentStatus string

const (
	DeploymentStatusPending   DeploymentStatus = "pending"
	DeploymentStatusSubmitted DeploymentStatus = "submitted"
	DeploymentStatusConfirmed DeploymentStatus = "confirmed"
	DeploymentStatusFailed    DeploymentStatus = "failed"
)

// SmartAccount is a row in smart_accounts: the cached counterfactual account
// for one provider user on one network.
type SmartAccount struct {
	ID             uuid.UUID          `json:"id"`
	UserID         string             `json:"user_id"`
	OwnerAddress   string             `json:"owner_address"`
	AccountAddress string             `json:"account_address"`
	Network        string             `json:"network"`
	Deployed       bool               `json:"deployed"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

// TokenDeployment is a row in token_deployments: one gasless ERC-20
// deployment request and its progress through the bundler.
type TokenDeployment struct {
	ID             uuid.UUID          `json:"id"`
	UserID         string             `json:"user_id"`
	AccountAddress string             `json:"account_address"`
	TokenName      string             `json:"token_name"`
	TokenSymbol    string             `json:"token_symbol"`
	Decimals       int16              `json:"decimals"`
	InitialSupply  pgtype.Numeric     `json:"initial_supply"`
	Network        string             `json:"network"`
	Status         DeploymentStatus   `json:"status"`
	UserOpHash     pgtype.Text        `json:"user_op_hash"`
	TxHash         pgtype.Text        `json:"tx_hash"`
	TokenAddress   pgtype.Text        `json:"token_address"`
	ErrorMessage   pgtype.Text        `json:"error_message"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

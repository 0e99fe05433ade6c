package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createTokenDeployment = `-- name: CreateTokenDeployment :one
INSERT INTO token_deployments (user_id, account_address, token_name, token_symbol, decimals, initial_supply, network, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending')
RETURNING id, user_id, account_address, token_name, token_symbol, decimals, initial_supply, network, status, user_op_hash, tx_hash, token_address, error_message, created_at, updated_at
`

type CreateTokenDeploymentParams struct {
	UserID         string         `json:"user_id"`
	AccountAddress string         `json:"account_address"`
	TokenName      string         `json:"token_name"`
	TokenSymbol    string         `json:"token_symbol"`
	Decimals       int16          `json:"decimals"`
	InitialSupply  pgtype.Numeric `json:"initial_supply"`
	Network        string         `json:"network"`
}

func (q *Queries) CreateTokenDeployment(ctx context.Context, arg CreateTokenDeploymentParams) (TokenDeployment, error) {
	row := q.db.QueryRow(ctx, createTokenDeployment,
		arg.UserID,
		arg.AccountAddress,
		arg.TokenName,
		arg.TokenSymbol,
		arg.Decimals,
		arg.InitialSupply,
		arg.Network,
	)
	return scanTokenDeployment(row)
}

const getTokenDeployment = `-- name: GetTokenDeployment :one
SELECT id, user_id, account_address, token_name, token_symbol, decimals, initial_supply, network, status, user_op_hash, tx_hash, token_address, error_message, created_at, updated_at
FROM token_deployments
WHERE id = $1
`

func (q *Queries) GetTokenDeployment(ctx context.Context, id uuid.UUID) (TokenDeployment, error) {
	row := q.db.QueryRow(ctx, getTokenDeployment, id)
	return scanTokenDeployment(row)
}

const listTokenDeploymentsByUser = `-- name: ListTokenDeploymentsByUser :many
SELECT id, user_id, account_address, token_name, token_symbol, decimals, initial_supply, network, status, user_op_hash, tx_hash, token_address, error_message, created_at, updated_at
FROM token_deployments
WHERE user_id = $1
ORDER BY created_at DESC
`

func (q *Queries) ListTokenDeploymentsByUser(ctx context.Context, userID string) ([]TokenDeployment, error) {
	rows, err := q.db.Query(ctx, listTokenDeploymentsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TokenDeployment
	for rows.Next() {
		i, err := scanTokenDeployment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listTokenDeploymentsByStatus = `-- name: ListTokenDeploymentsByStatus :many
SELECT id, user_id, account_address, token_name, token_symbol, decimals, initial_supply, network, status, user_op_hash, tx_hash, token_address, error_message, created_at, updated_at
FROM token_deployments
WHERE status = $1
ORDER BY created_at ASC
`

func (q *Queries) ListTokenDeploymentsByStatus(ctx context.Context, status DeploymentStatus) ([]TokenDeployment, error) {
	rows, err := q.db.Query(ctx, listTokenDeploymentsByStatus, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TokenDeployment
	for rows.Next() {
		i, err := scanTokenDeployment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateTokenDeploymentSubmitted = `-- name: UpdateTokenDeploymentSubmitted :one
UPDATE token_deployments
SET status = 'submitted', user_op_hash = $2, updated_at = now()
WHERE id = $1
RETURNING id, user_id, account_address, token_name, token_symbol, decimals, initial_supply, network, status, user_op_hash, tx_hash, token_address, error_message, created_at, updated_at
`

type UpdateTokenDeploymentSubmittedParams struct {
	ID         uuid.UUID   `json:"id"`
	UserOpHash pgtype.Text `json:"user_op_hash"`
}

func (q *Queries) UpdateTokenDeploymentSubmitted(ctx context.Context, arg UpdateTokenDeploymentSubmittedParams) (TokenDeployment, error) {
	row := q.db.QueryRow(ctx, updateTokenDeploymentSubmitted, arg.ID, arg.UserOpHash)
	return scanTokenDeployment(row)
}

const updateTokenDeploymentConfirmed = `-- name: UpdateTokenDeploymentConfirmed :one
UPDATE token_deployments
SET status = 'confirmed', tx_hash = $2, token_address = $3, updated_at = now()
WHERE id = $1
RETURNING id, user_id, account_address, token_name, token_symbol, decimals, initial_supply, network, status, user_op_hash, tx_hash, token_address, error_message, created_at, updated_at
`

type UpdateTokenDeploymentConfirmedParams struct {
	ID           uuid.UUID   `json:"id"`
	TxHash       pgtype.Text `json:"tx_hash"`
	TokenAddress pgtype.Text `json:"token_address"`
}

func (q *Queries) UpdateTokenDeploymentConfirmed(ctx context.Context, arg UpdateTokenDeploymentConfirmedParams) (TokenDeployment, error) {
	row := q.db.QueryRow(ctx, updateTokenDeploymentConfirmed, arg.ID, arg.TxHash, arg.TokenAddress)
	return scanTokenDeployment(row)
}

const updateTokenDeploymentFailed = `-- name: UpdateTokenDeploymentFailed :one
UPDATE token_deployments
SET status = 'failed', error_message = $2, updated_at = now()
WHERE id = $1
RETURNING id, user_id, account_address, token_name, token_symbol, decimals, initial_supply, network, status, user_op_hash, tx_hash, token_address, error_message, created_at, updated_at
`

type UpdateTokenDeploymentFailedParams struct {
	ID           uuid.UUID   `json:"id"`
	ErrorMessage pgtype.Text `json:"error_message"`
}

func (q *Queries) UpdateTokenDeploymentFailed(ctx context.Context, arg UpdateTokenDeploymentFailedParams) (TokenDeployment, error) {
	row := q.db.QueryRow(ctx, updateTokenDeploymentFailed, arg.ID, arg.ErrorMessage)
	return scanTokenDeployment(row)
}

// scanTokenDeployment scans the full column list shared by all deployment queries.
func scanTokenDeployment(row interface{ Scan(...interface{}) error }) (TokenDeployment, error) {
	var i TokenDeployment
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.AccountAddress,
		&i.TokenName,
		&i.TokenSymbol,
		&i.Decimals,
		&i.InitialSupply,
		&i.Network,
		&i.Status,
		&i.UserOpHash,
		&i.TxHash,
		&i.TokenAddress,
		&i.ErrorMessage,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

package db

import (
	"context"

	"github.com/google/uuid"
)

const createSmartAccount = `-- name: CreateSmartAccount :one
INSERT INTO smart_accounts (user_id, owner_address, account_address, network, deployed)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, network) DO UPDATE
SET owner_address = EXCLUDED.owner_address,
    account_address = EXCLUDED.account_address,
    updated_at = now()
RETURNING id, user_id, owner_address, account_address, network, deployed, created_at, updated_at
`

type CreateSmartAccountParams struct {
	UserID         string `json:"user_id"`
	OwnerAddress   string `json:"owner_address"`
	AccountAddress string `json:"account_address"`
	Network        string `json:"network"`
	Deployed       bool   `json:"deployed"`
}

func (q *Queries) CreateSmartAccount(ctx context.Context, arg CreateSmartAccountParams) (SmartAccount, error) {
	row := q.db.QueryRow(ctx, createSmartAccount,
		arg.UserID,
		arg.OwnerAddress,
		arg.AccountAddress,
		arg.Network,
		arg.Deployed,
	)
	var i SmartAccount
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.OwnerAddress,
		&i.AccountAddress,
		&i.Network,
		&i.Deployed,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getSmartAccountByUser = `-- name: GetSmartAccountByUser :one
SELECT id, user_id, owner_address, account_address, network, deployed, created_at, updated_at
FROM smart_accounts
WHERE user_id = $1 AND network = $2
`

type GetSmartAccountByUserParams struct {
	UserID  string `json:"user_id"`
	Network string `json:"network"`
}

func (q *Queries) GetSmartAccountByUser(ctx context.Context, arg GetSmartAccountByUserParams) (SmartAccount, error) {
	row := q.db.QueryRow(ctx, getSmartAccountByUser, arg.UserID, arg.Network)
	var i SmartAccount
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.OwnerAddress,
		&i.AccountAddress,
		&i.Network,
		&i.Deployed,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const markSmartAccountDeployed = `-- name: MarkSmartAccountDeployed :one
UPDATE smart_accounts
SET deployed = TRUE, updated_at = now()
WHERE id = $1
RETURNING id, user_id, owner_address, account_address, network, deployed, created_at, updated_at
`

func (q *Queries) MarkSmartAccountDeployed(ctx context.Context, id uuid.UUID) (SmartAccount, error) {
	row := q.db.QueryRow(ctx, markSmartAccountDeployed, id)
	var i SmartAccount
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.OwnerAddress,
		&i.AccountAddress,
		&i.Network,
		&i.Deployed,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

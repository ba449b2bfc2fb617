package ports

import (
	"context"

	"github.com/mintmarket/marketd/internal/core/domain"
)

// AssetRegistry is the external registry of record for asset ownership.
// Transfers are authoritative: once the registry confirms a transfer the
// marketplace treats it as final.
type AssetRegistry interface {
	OwnerOf(ctx context.Context, asset domain.AssetRef) (string, error)
	Transfer(ctx context.Context, asset domain.AssetRef, from, to string) error
	TokenURI(ctx context.Context, asset domain.AssetRef) (string, error)
}

// Minter is implemented by registries that support creating and destroying
// assets. Burn exists to roll back a mint whose follow-up listing failed.
type Minter interface {
	Mint(ctx context.Context, params domain.MintParams, owner string) (domain.AssetRef, error)
	Burn(ctx context.Context, asset domain.AssetRef) error
}

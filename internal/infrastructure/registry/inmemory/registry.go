package inmemoryregistry

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mintmarket/marketd/internal/core/domain"
	"github.com/mintmarket/marketd/internal/core/ports"
)

type assetRecord struct {
	owner    string
	tokenURI string
}

// Registry is an in-process asset registry for development and tests. It
// implements both the registry and minter collaborators.
type Registry struct {
	lock   sync.RWMutex
	assets map[string]*assetRecord
}

func NewRegistry() *Registry {
	return &Registry{assets: make(map[string]*assetRecord)}
}

var _ ports.AssetRegistry = (*Registry)(nil)
var _ ports.Minter = (*Registry)(nil)

// Register seeds an asset with its owner, used to arrange fixtures.
func (r *Registry) Register(asset domain.AssetRef, owner, tokenURI string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.assets[asset.String()] = &assetRecord{owner: owner, tokenURI: tokenURI}
}

func (r *Registry) OwnerOf(ctx context.Context, asset domain.AssetRef) (string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	record, ok := r.assets[asset.String()]
	if !ok {
		return "", fmt.Errorf("asset %s does not exist", asset)
	}
	return record.owner, nil
}

func (r *Registry) Transfer(
	ctx context.Context, asset domain.AssetRef, from, to string,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	record, ok := r.assets[asset.String()]
	if !ok {
		return fmt.Errorf("asset %s does not exist", asset)
	}
	if record.owner != from {
		return fmt.Errorf("asset %s is not owned by %s", asset, from)
	}
	record.owner = to
	return nil
}

func (r *Registry) TokenURI(ctx context.Context, asset domain.AssetRef) (string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	record, ok := r.assets[asset.String()]
	if !ok {
		return "", fmt.Errorf("asset %s does not exist", asset)
	}
	return record.tokenURI, nil
}

func (r *Registry) Mint(
	ctx context.Context, params domain.MintParams, owner string,
) (domain.AssetRef, error) {
	if params.Collection == "" {
		return domain.AssetRef{}, fmt.Errorf("missing collection")
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	asset := domain.AssetRef{Collection: params.Collection, TokenID: uuid.New().String()}
	r.assets[asset.String()] = &assetRecord{owner: owner, tokenURI: params.MetadataURI}
	return asset, nil
}

func (r *Registry) Burn(ctx context.Context, asset domain.AssetRef) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.assets[asset.String()]; !ok {
		return fmt.Errorf("asset %s does not exist", asset)
	}
	delete(r.assets, asset.String())
	return nil
}

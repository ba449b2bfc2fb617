package application_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mintmarket/marketd/internal/core/application"
	"github.com/mintmarket/marketd/internal/core/domain"
	"github.com/mintmarket/marketd/internal/core/ports"
	"github.com/mintmarket/marketd/internal/infrastructure/db"
	inmemorylivestore "github.com/mintmarket/marketd/internal/infrastructure/live-store/inmemory"
	inmemorypayments "github.com/mintmarket/marketd/internal/infrastructure/payments/inmemory"
	inmemoryregistry "github.com/mintmarket/marketd/internal/infrastructure/registry/inmemory"
)

const (
	seller      = "alice"
	buyer       = "bob"
	investor    = "dave"
	admin       = "admin"
	coordinator = "coordinator"
	feeRateBps  = 250
)

var ctx = context.Background()

type fakeClock struct {
	lock sync.Mutex
	now  int64
}

func newFakeClock(now int64) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return time.Unix(c.now, 0)
}

func (c *fakeClock) advance(seconds int64) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now += seconds
}

// flakyPayments wraps the in-memory ledger and lets tests inject payment
// failures to exercise the compensation paths.
type flakyPayments struct {
	*inmemorypayments.Ledger
	failPay     bool
	failCollect bool
}

func (p *flakyPayments) Pay(ctx context.Context, account, to string, amount uint64) error {
	if p.failPay {
		return fmt.Errorf("payment rail unavailable")
	}
	return p.Ledger.Pay(ctx, account, to, amount)
}

func (p *flakyPayments) Collect(
	ctx context.Context, account, from string, amount uint64,
) error {
	if p.failCollect {
		return fmt.Errorf("payment rail unavailable")
	}
	return p.Ledger.Collect(ctx, account, from, amount)
}

// flakyRegistry wraps the in-memory registry and lets tests inject transfer
// failures.
type flakyRegistry struct {
	*inmemoryregistry.Registry
	failTransfer bool
}

func (r *flakyRegistry) Transfer(
	ctx context.Context, asset domain.AssetRef, from, to string,
) error {
	if r.failTransfer {
		return fmt.Errorf("registry unavailable")
	}
	return r.Registry.Transfer(ctx, asset, from, to)
}

type testEnv struct {
	market   application.Service
	escrow   application.EscrowService
	admin    application.AdminService
	repo     ports.RepoManager
	registry *flakyRegistry
	ledger   *flakyPayments
	clock    *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	env := newUninitializedEnv(t)
	err := env.admin.Initialize(ctx, feeRateBps, admin, coordinator)
	require.NoError(t, err)
	return env
}

func newUninitializedEnv(t *testing.T) *testEnv {
	repo, err := db.NewService(db.ServiceConfig{
		EventStoreType:   "badger",
		DataStoreType:    "badger",
		EventStoreConfig: []interface{}{"", nil},
		DataStoreConfig:  []interface{}{"", nil},
	})
	require.NoError(t, err)
	t.Cleanup(repo.Close)

	registry := &flakyRegistry{Registry: inmemoryregistry.NewRegistry()}
	ledger := &flakyPayments{Ledger: inmemorypayments.NewLedger()}
	liveStore := inmemorylivestore.NewLiveStore()
	clock := newFakeClock(1_000_000)

	market, err := application.NewMarketService(
		repo, registry, registry.Registry, ledger, liveStore, clock,
	)
	require.NoError(t, err)

	return &testEnv{
		market:   market,
		escrow:   application.NewEscrowService(repo, ledger, liveStore, clock),
		admin:    application.NewAdminService(repo, clock),
		repo:     repo,
		registry: registry,
		ledger:   ledger,
		clock:    clock,
	}
}

// listedAsset registers an asset to the seller and lists it at the given
// price.
func (env *testEnv) listedAsset(t *testing.T, tokenID string, price uint64) domain.AssetRef {
	asset := domain.AssetRef{Collection: "punks", TokenID: tokenID}
	env.registry.Register(asset, seller, "ipfs://meta/"+tokenID)
	err := env.market.ListAsset(ctx, seller, asset, price)
	require.NoError(t, err)
	return asset
}

func (env *testEnv) balance(t *testing.T, holder string) uint64 {
	balance, err := env.ledger.BalanceOf(ctx, holder)
	require.NoError(t, err)
	return balance
}

func (env *testEnv) owner(t *testing.T, asset domain.AssetRef) string {
	owner, err := env.registry.OwnerOf(ctx, asset)
	require.NoError(t, err)
	return owner
}

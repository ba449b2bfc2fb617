package db_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mintmarket/marketd/internal/core/domain"
	"github.com/mintmarket/marketd/internal/core/ports"
	"github.com/mintmarket/marketd/internal/infrastructure/db"
)

var ctx = context.Background()

func TestService(t *testing.T) {
	tests := []struct {
		name   string
		config func(t *testing.T) db.ServiceConfig
	}{
		{
			name: "repo_manager_with_badger_stores",
			config: func(t *testing.T) db.ServiceConfig {
				return db.ServiceConfig{
					EventStoreType:   "badger",
					DataStoreType:    "badger",
					EventStoreConfig: []interface{}{"", nil},
					DataStoreConfig:  []interface{}{"", nil},
				}
			},
		},
		{
			name: "repo_manager_with_sqlite_stores",
			config: func(t *testing.T) db.ServiceConfig {
				return db.ServiceConfig{
					EventStoreType:   "badger",
					DataStoreType:    "sqlite",
					EventStoreConfig: []interface{}{"", nil},
					DataStoreConfig:  []interface{}{t.TempDir()},
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := db.NewService(tt.config(t))
			require.NoError(t, err)
			require.NotNil(t, svc)

			testEventRepository(t, svc)
			testListingRepository(t, svc)
			testOfferRepository(t, svc)
			testEscrowRepository(t, svc)
			testInvestmentRepository(t, svc)
			testSettingsRepository(t, svc)

			svc.Close()
		})
	}
}

func testEventRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_event_repository", func(t *testing.T) {
		asset := domain.AssetRef{Collection: "punks", TokenID: "evt"}
		now := time.Now().Unix()

		wg := sync.WaitGroup{}
		wg.Add(1)

		var received []domain.Event
		svc.Events().RegisterEventsHandler(domain.MarketTopic, func(events []domain.Event) {
			received = events
			wg.Done()
		})

		events := []domain.Event{
			domain.NewAssetListed(asset, "alice", 9000, "ipfs://meta", false, now),
			domain.NewAssetDelisted(asset, "alice", now),
		}
		err := svc.Events().Append(ctx, events...)
		require.NoError(t, err)

		wg.Wait()
		require.Len(t, received, 2)
		require.Equal(t, domain.EventTypeAssetListed, received[0].GetType())
		require.Equal(t, domain.EventTypeAssetDelisted, received[1].GetType())
		require.Equal(t, asset, received[0].GetAsset())
	})
}

func testListingRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_listing_repository", func(t *testing.T) {
		asset := domain.AssetRef{Collection: "punks", TokenID: "1"}

		listing, err := svc.Listings().Get(ctx, asset)
		require.NoError(t, err)
		require.Nil(t, listing)

		fixture := domain.NewListing(asset, "alice", 9000, "ipfs://meta/1", 100)
		err = svc.Listings().Upsert(ctx, fixture)
		require.NoError(t, err)

		listing, err = svc.Listings().Get(ctx, asset)
		require.NoError(t, err)
		require.NotNil(t, listing)
		require.Equal(t, fixture.Seller, listing.Seller)
		require.Equal(t, fixture.Price, listing.Price)
		require.Equal(t, fixture.TokenURI, listing.TokenURI)
		require.True(t, listing.Active)

		active, err := svc.Listings().GetAll(ctx, true)
		require.NoError(t, err)
		require.Len(t, active, 1)

		require.NoError(t, listing.Close(200))
		err = svc.Listings().Upsert(ctx, *listing)
		require.NoError(t, err)

		active, err = svc.Listings().GetAll(ctx, true)
		require.NoError(t, err)
		require.Empty(t, active)

		all, err := svc.Listings().GetAll(ctx, false)
		require.NoError(t, err)
		require.Len(t, all, 1)
		require.False(t, all[0].Active)
		require.Equal(t, int64(200), all[0].ClosedAt)

		err = svc.Listings().Delete(ctx, asset)
		require.NoError(t, err)

		listing, err = svc.Listings().Get(ctx, asset)
		require.NoError(t, err)
		require.Nil(t, listing)

		// deleting a missing listing is a no-op
		err = svc.Listings().Delete(ctx, asset)
		require.NoError(t, err)
	})
}

func testOfferRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_offer_repository", func(t *testing.T) {
		asset := domain.AssetRef{Collection: "punks", TokenID: "2"}

		offer, err := svc.Offers().Get(ctx, asset, 0)
		require.NoError(t, err)
		require.Nil(t, offer)

		first := domain.NewOffer(asset, "bob", 8000, 1000, false, 100)
		index, err := svc.Offers().Append(ctx, first)
		require.NoError(t, err)
		require.Equal(t, 0, index)

		second := domain.NewOffer(asset, "carol", 9000, 2000, true, 110)
		index, err = svc.Offers().Append(ctx, second)
		require.NoError(t, err)
		require.Equal(t, 1, index)

		offer, err = svc.Offers().Get(ctx, asset, 1)
		require.NoError(t, err)
		require.NotNil(t, offer)
		require.Equal(t, "carol", offer.Buyer)
		require.True(t, offer.Escrowed)

		offer.EscrowID = 7
		err = svc.Offers().Update(ctx, *offer)
		require.NoError(t, err)

		offer, err = svc.Offers().Get(ctx, asset, 1)
		require.NoError(t, err)
		require.Equal(t, uint64(7), offer.EscrowID)

		offers, err := svc.Offers().GetByAsset(ctx, asset)
		require.NoError(t, err)
		require.Len(t, offers, 2)
		require.Equal(t, "bob", offers[0].Buyer)
		require.Equal(t, "carol", offers[1].Buyer)

		active, err := svc.Offers().GetAllActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 2)

		offer, err = svc.Offers().Get(ctx, asset, 0)
		require.NoError(t, err)
		require.NoError(t, offer.Reject(300))
		err = svc.Offers().Update(ctx, *offer)
		require.NoError(t, err)

		active, err = svc.Offers().GetAllActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		require.Equal(t, "carol", active[0].Buyer)

		// only the tail of the sequence can be removed
		err = svc.Offers().Remove(ctx, asset, 0)
		require.Error(t, err)

		err = svc.Offers().Remove(ctx, asset, 1)
		require.NoError(t, err)

		offers, err = svc.Offers().GetByAsset(ctx, asset)
		require.NoError(t, err)
		require.Len(t, offers, 1)
	})
}

func testEscrowRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_escrow_repository", func(t *testing.T) {
		asset := domain.AssetRef{Collection: "punks", TokenID: "3"}

		record, err := svc.Escrows().Get(ctx, 99)
		require.NoError(t, err)
		require.Nil(t, record)

		first := domain.NewEscrowRecord(asset, "alice", "bob", 9000, 100)
		id, err := svc.Escrows().Add(ctx, first)
		require.NoError(t, err)
		require.Equal(t, uint64(1), id)

		second := domain.NewEscrowRecord(asset, "alice", "carol", 8000, 110)
		id, err = svc.Escrows().Add(ctx, second)
		require.NoError(t, err)
		require.Equal(t, uint64(2), id)

		record, err = svc.Escrows().Get(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, record)
		require.Equal(t, "bob", record.Buyer)
		require.False(t, record.Completed)

		require.NoError(t, record.Complete(200))
		err = svc.Escrows().Update(ctx, *record)
		require.NoError(t, err)

		record, err = svc.Escrows().Get(ctx, 1)
		require.NoError(t, err)
		require.True(t, record.Completed)
		require.Equal(t, domain.EscrowOutcomeReleased, record.Outcome)

		records, err := svc.Escrows().GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)

		err = svc.Escrows().Remove(ctx, 2)
		require.NoError(t, err)

		record, err = svc.Escrows().Get(ctx, 2)
		require.NoError(t, err)
		require.Nil(t, record)

		// fee balance bookkeeping
		balance, err := svc.Escrows().FeeBalance(ctx)
		require.NoError(t, err)
		require.Zero(t, balance)

		err = svc.Escrows().CreditFees(ctx, 225)
		require.NoError(t, err)
		err = svc.Escrows().CreditFees(ctx, 75)
		require.NoError(t, err)

		balance, err = svc.Escrows().FeeBalance(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(300), balance)

		amount, err := svc.Escrows().DebitFees(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(300), amount)

		amount, err = svc.Escrows().DebitFees(ctx)
		require.NoError(t, err)
		require.Zero(t, amount)

		balance, err = svc.Escrows().FeeBalance(ctx)
		require.NoError(t, err)
		require.Zero(t, balance)
	})
}

func testInvestmentRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_investment_repository", func(t *testing.T) {
		asset := domain.AssetRef{Collection: "punks", TokenID: "4"}

		investments, err := svc.Investments().GetByAsset(ctx, asset)
		require.NoError(t, err)
		require.Empty(t, investments)

		index, err := svc.Investments().Append(ctx, domain.Investment{
			Asset: asset, Investor: "dave", Amount: 500, SharePct: 5, CreatedAt: 100,
		})
		require.NoError(t, err)
		require.Equal(t, 0, index)

		index, err = svc.Investments().Append(ctx, domain.Investment{
			Asset: asset, Investor: "erin", Amount: 1000, SharePct: 10, CreatedAt: 110,
		})
		require.NoError(t, err)
		require.Equal(t, 1, index)

		investments, err = svc.Investments().GetByAsset(ctx, asset)
		require.NoError(t, err)
		require.Len(t, investments, 2)
		require.Equal(t, "dave", investments[0].Investor)
		require.Equal(t, uint64(10), investments[1].SharePct)

		err = svc.Investments().Remove(ctx, asset, 1)
		require.NoError(t, err)

		investments, err = svc.Investments().GetByAsset(ctx, asset)
		require.NoError(t, err)
		require.Len(t, investments, 1)
	})
}

func testSettingsRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_settings_repository", func(t *testing.T) {
		settings, err := svc.Settings().Get(ctx)
		require.NoError(t, err)
		require.Nil(t, settings)

		fixture := domain.NewSettings(250, "admin", "coordinator", 100)
		err = svc.Settings().Upsert(ctx, *fixture)
		require.NoError(t, err)

		settings, err = svc.Settings().Get(ctx)
		require.NoError(t, err)
		require.NotNil(t, settings)
		require.Equal(t, uint64(250), settings.FeeRateBps)
		require.Equal(t, "admin", settings.Admin)
		require.Equal(t, "coordinator", settings.SettlementCoordinator)
		require.True(t, settings.Initialized)

		settings.FeeRateBps = 500
		err = svc.Settings().Upsert(ctx, *settings)
		require.NoError(t, err)

		settings, err = svc.Settings().Get(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(500), settings.FeeRateBps)

		err = svc.Settings().Clear(ctx)
		require.NoError(t, err)

		settings, err = svc.Settings().Get(ctx)
		require.NoError(t, err)
		require.Nil(t, settings)
	})
}

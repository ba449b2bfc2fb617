package application_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mintmarket/marketd/internal/core/application"
	"github.com/mintmarket/marketd/internal/core/domain"
	"github.com/mintmarket/marketd/pkg/errors"
)

func TestListAsset(t *testing.T) {
	env := newTestEnv(t)
	asset := domain.AssetRef{Collection: "punks", TokenID: "1"}
	env.registry.Register(asset, seller, "ipfs://meta/1")

	err := env.market.ListAsset(ctx, buyer, asset, 9000)
	require.True(t, errors.HasCode(err, errors.UNAUTHORIZED))

	err = env.market.ListAsset(ctx, seller, asset, 0)
	require.True(t, errors.HasCode(err, errors.INVALID_INPUT))

	unknown := domain.AssetRef{Collection: "punks", TokenID: "missing"}
	err = env.market.ListAsset(ctx, seller, unknown, 9000)
	require.True(t, errors.HasCode(err, errors.NOT_FOUND))

	err = env.market.ListAsset(ctx, seller, asset, 9000)
	require.NoError(t, err)
	require.Equal(t, application.AccountMarketplace, env.owner(t, asset))

	listing, err := env.admin.GetListing(ctx, asset)
	require.NoError(t, err)
	require.True(t, listing.Active)
	require.Equal(t, seller, listing.Seller)
	require.Equal(t, uint64(9000), listing.Price)
	require.Equal(t, "ipfs://meta/1", listing.TokenURI)

	err = env.market.ListAsset(ctx, seller, asset, 9000)
	require.True(t, errors.HasCode(err, errors.INVALID_STATE))
}

func TestListAssetNotInitialized(t *testing.T) {
	env := newUninitializedEnv(t)
	asset := domain.AssetRef{Collection: "punks", TokenID: "1"}
	env.registry.Register(asset, seller, "")

	err := env.market.ListAsset(ctx, seller, asset, 9000)
	require.True(t, errors.HasCode(err, errors.INVALID_STATE))
}

func TestListAssetTransferRollback(t *testing.T) {
	env := newTestEnv(t)
	asset := domain.AssetRef{Collection: "punks", TokenID: "1"}
	env.registry.Register(asset, seller, "")
	env.registry.failTransfer = true

	err := env.market.ListAsset(ctx, seller, asset, 9000)
	require.True(t, errors.HasCode(err, errors.TRANSFER_FAILED))

	// the provisional listing is rolled back
	_, err = env.admin.GetListing(ctx, asset)
	require.True(t, errors.HasCode(err, errors.NOT_FOUND))
	require.Equal(t, seller, env.owner(t, asset))
}

func TestMintAndList(t *testing.T) {
	env := newTestEnv(t)

	asset, err := env.market.MintAndList(ctx, seller, domain.MintParams{
		Collection:  "punks",
		MetadataURI: "ipfs://meta/minted",
	}, 5000)
	require.NoError(t, err)
	require.False(t, asset.IsZero())
	require.Equal(t, "punks", asset.Collection)
	require.Equal(t, application.AccountMarketplace, env.owner(t, asset))

	listing, err := env.admin.GetListing(ctx, asset)
	require.NoError(t, err)
	require.True(t, listing.Active)
	require.Equal(t, seller, listing.Seller)
	require.Equal(t, "ipfs://meta/minted", listing.TokenURI)

	_, err = env.market.MintAndList(ctx, seller, domain.MintParams{}, 5000)
	require.True(t, errors.HasCode(err, errors.INVALID_INPUT))
}

func TestDelistAsset(t *testing.T) {
	env := newTestEnv(t)
	asset := env.listedAsset(t, "1", 9000)

	err := env.market.DelistAsset(ctx, buyer, asset)
	require.True(t, errors.HasCode(err, errors.UNAUTHORIZED))

	err = env.market.DelistAsset(ctx, seller, asset)
	require.NoError(t, err)
	require.Equal(t, seller, env.owner(t, asset))

	listing, err := env.admin.GetListing(ctx, asset)
	require.NoError(t, err)
	require.False(t, listing.Active)

	err = env.market.DelistAsset(ctx, seller, asset)
	require.True(t, errors.HasCode(err, errors.INVALID_STATE))

	unknown := domain.AssetRef{Collection: "punks", TokenID: "missing"}
	err = env.market.DelistAsset(ctx, seller, unknown)
	require.True(t, errors.HasCode(err, errors.NOT_FOUND))
}

func TestDirectSale(t *testing.T) {
	env := newTestEnv(t)
	asset := env.listedAsset(t, "1", 9000)
	env.ledger.Fund(buyer, 10000)

	expiresAt := env.clock.Now().Unix() + 3600
	index, err := env.market.MakeOffer(ctx, buyer, asset, 9000, expiresAt, false)
	require.NoError(t, err)
	require.Equal(t, 0, index)

	// the committed amount is held in marketplace custody until resolution
	require.Equal(t, uint64(1000), env.balance(t, buyer))
	require.Equal(t, uint64(9000), env.balance(t, application.AccountMarketplace))

	err = env.market.AcceptOffer(ctx, buyer, asset, index)
	require.True(t, errors.HasCode(err, errors.UNAUTHORIZED))

	err = env.market.AcceptOffer(ctx, seller, asset, index)
	require.NoError(t, err)

	// 250 bps of 9000 = 225 fee, 8775 to the seller out of the held amount
	require.Equal(t, uint64(1000), env.balance(t, buyer))
	require.Equal(t, uint64(8775), env.balance(t, seller))
	require.Equal(t, uint64(225), env.balance(t, application.AccountMarketplace))
	require.Equal(t, buyer, env.owner(t, asset))

	balance, err := env.escrow.FeeBalance(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(225), balance)

	listing, err := env.admin.GetListing(ctx, asset)
	require.NoError(t, err)
	require.False(t, listing.Active)

	offers, err := env.admin.ListOffers(ctx, asset)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	require.Equal(t, domain.OfferStatusAccepted, offers[0].Status)

	// a resolved offer cannot be accepted twice; the listing is closed first
	err = env.market.AcceptOffer(ctx, seller, asset, index)
	require.True(t, errors.HasCode(err, errors.INVALID_STATE))
}

func TestDirectOfferInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	asset := env.listedAsset(t, "1", 9000)
	env.ledger.Fund(buyer, 500)

	expiresAt := env.clock.Now().Unix() + 3600
	_, err := env.market.MakeOffer(ctx, buyer, asset, 9000, expiresAt, false)
	require.True(t, errors.HasCode(err, errors.TRANSFER_FAILED))

	// the provisional offer is rolled back and nothing was collected
	offers, err := env.admin.ListOffers(ctx, asset)
	require.NoError(t, err)
	require.Empty(t, offers)
	require.Equal(t, uint64(500), env.balance(t, buyer))
	require.Zero(t, env.balance(t, application.AccountMarketplace))
}

func TestDirectSalePayoutRollback(t *testing.T) {
	env := newTestEnv(t)
	asset := env.listedAsset(t, "1", 9000)
	env.ledger.Fund(buyer, 9000)

	expiresAt := env.clock.Now().Unix() + 3600
	index, err := env.market.MakeOffer(ctx, buyer, asset, 9000, expiresAt, false)
	require.NoError(t, err)

	env.ledger.failPay = true
	err = env.market.AcceptOffer(ctx, seller, asset, index)
	require.True(t, errors.HasCode(err, errors.TRANSFER_FAILED))

	// listing and offer are restored, the held amount stays in custody
	listing, err := env.admin.GetListing(ctx, asset)
	require.NoError(t, err)
	require.True(t, listing.Active)

	offers, err := env.admin.ListOffers(ctx, asset)
	require.NoError(t, err)
	require.True(t, offers[index].IsActive())
	require.Equal(t, uint64(9000), env.balance(t, application.AccountMarketplace))
	require.Zero(t, env.balance(t, buyer))

	// once the rail recovers the buyer can still withdraw for a refund
	env.ledger.failPay = false
	err = env.market.WithdrawOffer(ctx, buyer, asset, index)
	require.NoError(t, err)
	require.Equal(t, uint64(9000), env.balance(t, buyer))
}

func TestEscrowedSale(t *testing.T) {
	env := newTestEnv(t)
	asset := env.listedAsset(t, "1", 9000)
	env.ledger.Fund(buyer, 10000)

	expiresAt := env.clock.Now().Unix() + 3600
	index, err := env.market.MakeOffer(ctx, buyer, asset, 9000, expiresAt, true)
	require.NoError(t, err)

	// the deposit is taken upfront and held in escrow
	require.Equal(t, uint64(1000), env.balance(t, buyer))
	require.Equal(t, uint64(9000), env.balance(t, application.AccountEscrow))

	offers, err := env.admin.ListOffers(ctx, asset)
	require.NoError(t, err)
	require.True(t, offers[index].Escrowed)
	escrowID := offers[index].EscrowID
	require.NotZero(t, escrowID)

	record, err := env.escrow.GetEscrow(ctx, escrowID)
	require.NoError(t, err)
	require.Equal(t, buyer, record.Buyer)
	require.Equal(t, seller, record.Seller)
	require.False(t, record.Completed)

	err = env.market.AcceptOffer(ctx, seller, asset, index)
	require.NoError(t, err)

	require.Equal(t, uint64(8775), env.balance(t, seller))
	require.Equal(t, uint64(225), env.balance(t, application.AccountMarketplace))
	require.Zero(t, env.balance(t, application.AccountEscrow))
	require.Equal(t, buyer, env.owner(t, asset))

	record, err = env.escrow.GetEscrow(ctx, escrowID)
	require.NoError(t, err)
	require.True(t, record.Completed)
	require.Equal(t, domain.EscrowOutcomeReleased, record.Outcome)
}

func TestEscrowedOfferInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	asset := env.listedAsset(t, "1", 9000)
	env.ledger.Fund(buyer, 500)

	expiresAt := env.clock.Now().Unix() + 3600
	_, err := env.market.MakeOffer(ctx, buyer, asset, 9000, expiresAt, true)
	require.True(t, errors.HasCode(err, errors.TRANSFER_FAILED))

	// the provisional offer and escrow record are rolled back
	offers, err := env.admin.ListOffers(ctx, asset)
	require.NoError(t, err)
	require.Empty(t, offers)

	records, err := env.repo.Escrows().GetAll(ctx)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestMakeOfferValidation(t *testing.T) {
	env := newTestEnv(t)
	asset := env.listedAsset(t, "1", 9000)
	now := env.clock.Now().Unix()

	_, err := env.market.MakeOffer(ctx, buyer, asset, 9000, now-10, false)
	require.True(t, errors.HasCode(err, errors.INVALID_INPUT))

	_, err = env.market.MakeOffer(ctx, buyer, asset, 0, now+3600, false)
	require.True(t, errors.HasCode(err, errors.INVALID_INPUT))

	unlisted := domain.AssetRef{Collection: "punks", TokenID: "2"}
	_, err = env.market.MakeOffer(ctx, buyer, unlisted, 9000, now+3600, false)
	require.True(t, errors.HasCode(err, errors.INVALID_STATE))
}

func TestAcceptExpiredOffer(t *testing.T) {
	env := newTestEnv(t)
	asset := env.listedAsset(t, "1", 9000)
	env.ledger.Fund(buyer, 10000)

	expiresAt := env.clock.Now().Unix() + 10
	index, err := env.market.MakeOffer(ctx, buyer, asset, 9000, expiresAt, false)
	require.NoError(t, err)

	env.clock.advance(20)

	err = env.market.AcceptOffer(ctx, seller, asset, index)
	require.True(t, errors.HasCode(err, errors.EXPIRED))

	// the offer stays active, only acceptance is blocked
	offers, err := env.admin.ListOffers(ctx, asset)
	require.NoError(t, err)
	require.True(t, offers[index].IsActive())

	// expired offers can still be withdrawn to release the held amount
	err = env.market.WithdrawOffer(ctx, buyer, asset, index)
	require.NoError(t, err)
	require.Equal(t, uint64(10000), env.balance(t, buyer))
}

func TestRejectExpiredOffer(t *testing.T) {
	env := newTestEnv(t)
	asset := env.listedAsset(t, "1", 9000)
	env.ledger.Fund(buyer, 9000)

	expiresAt := env.clock.Now().Unix() + 10
	index, err := env.market.MakeOffer(ctx, buyer, asset, 9000, expiresAt, true)
	require.NoError(t, err)

	env.clock.advance(20)

	err = env.market.RejectOffer(ctx, seller, asset, index)
	require.True(t, errors.HasCode(err, errors.EXPIRED))

	// the offer stays active and the deposit stays in escrow
	offers, err := env.admin.ListOffers(ctx, asset)
	require.NoError(t, err)
	require.True(t, offers[index].IsActive())
	require.Equal(t, uint64(9000), env.balance(t, application.AccountEscrow))

	// withdrawal remains the recovery path for the deposit
	err = env.market.WithdrawOffer(ctx, buyer, asset, index)
	require.NoError(t, err)
	require.Equal(t, uint64(9000), env.balance(t, buyer))
}

func TestRejectOffer(t *testing.T) {
	env := newTestEnv(t)
	asset := env.listedAsset(t, "1", 9000)
	env.ledger.Fund(buyer, 9000)

	expiresAt := env.clock.Now().Unix() + 3600
	index, err := env.market.MakeOffer(ctx, buyer, asset, 9000, expiresAt, true)
	require.NoError(t, err)
	require.Zero(t, env.balance(t, buyer))

	err = env.market.RejectOffer(ctx, buyer, asset, index)
	require.True(t, errors.HasCode(err, errors.UNAUTHORIZED))

	err = env.market.RejectOffer(ctx, seller, asset, index)
	require.NoError(t, err)

	// the escrowed deposit is refunded in full, no fee on rejection
	require.Equal(t, uint64(9000), env.balance(t, buyer))
	require.Zero(t, env.balance(t, application.AccountEscrow))

	offers, err := env.admin.ListOffers(ctx, asset)
	require.NoError(t, err)
	require.Equal(t, domain.OfferStatusRejected, offers[index].Status)

	record, err := env.escrow.GetEscrow(ctx, offers[index].EscrowID)
	require.NoError(t, err)
	require.Equal(t, domain.EscrowOutcomeRefunded, record.Outcome)

	// the listing stays active for other offers
	listing, err := env.admin.GetListing(ctx, asset)
	require.NoError(t, err)
	require.True(t, listing.Active)
}

func TestRejectDirectOffer(t *testing.T) {
	env := newTestEnv(t)
	asset := env.listedAsset(t, "1", 9000)
	env.ledger.Fund(buyer, 9000)

	expiresAt := env.clock.Now().Unix() + 3600
	index, err := env.market.MakeOffer(ctx, buyer, asset, 9000, expiresAt, false)
	require.NoError(t, err)
	require.Zero(t, env.balance(t, buyer))

	err = env.market.RejectOffer(ctx, seller, asset, index)
	require.NoError(t, err)

	// the held amount is refunded in full
	require.Equal(t, uint64(9000), env.balance(t, buyer))
	require.Zero(t, env.balance(t, application.AccountMarketplace))

	offers, err := env.admin.ListOffers(ctx, asset)
	require.NoError(t, err)
	require.Equal(t, domain.OfferStatusRejected, offers[index].Status)
}

func TestCompetingOffers(t *testing.T) {
	env := newTestEnv(t)
	asset := env.listedAsset(t, "1", 8000)
	env.ledger.Fund(buyer, 8000)
	env.ledger.Fund(investor, 9000)

	expiresAt := env.clock.Now().Unix() + 3600
	direct, err := env.market.MakeOffer(ctx, buyer, asset, 8000, expiresAt, false)
	require.NoError(t, err)
	require.Equal(t, 0, direct)

	escrowed, err := env.market.MakeOffer(ctx, investor, asset, 9000, expiresAt, true)
	require.NoError(t, err)
	require.Equal(t, 1, escrowed)

	// both commitments are in custody
	require.Zero(t, env.balance(t, buyer))
	require.Zero(t, env.balance(t, investor))
	require.Equal(t, uint64(8000), env.balance(t, application.AccountMarketplace))
	require.Equal(t, uint64(9000), env.balance(t, application.AccountEscrow))

	err = env.market.AcceptOffer(ctx, seller, asset, escrowed)
	require.NoError(t, err)

	// 250 bps of 9000 = 225 fee, 8775 to the seller
	require.Equal(t, uint64(8775), env.balance(t, seller))
	require.Equal(t, investor, env.owner(t, asset))

	// the losing offer stays active but cannot be accepted once the
	// listing is closed
	offers, err := env.admin.ListOffers(ctx, asset)
	require.NoError(t, err)
	require.True(t, offers[direct].IsActive())
	err = env.market.AcceptOffer(ctx, seller, asset, direct)
	require.True(t, errors.HasCode(err, errors.INVALID_STATE))

	// withdrawal returns exactly the committed amount
	err = env.market.WithdrawOffer(ctx, buyer, asset, direct)
	require.NoError(t, err)
	require.Equal(t, uint64(8000), env.balance(t, buyer))
	require.Equal(t, uint64(225), env.balance(t, application.AccountMarketplace))
}

func TestWithdrawOffer(t *testing.T) {
	env := newTestEnv(t)
	asset := env.listedAsset(t, "1", 9000)
	env.ledger.Fund(buyer, 9000)

	expiresAt := env.clock.Now().Unix() + 3600
	index, err := env.market.MakeOffer(ctx, buyer, asset, 9000, expiresAt, true)
	require.NoError(t, err)

	err = env.market.WithdrawOffer(ctx, seller, asset, index)
	require.True(t, errors.HasCode(err, errors.UNAUTHORIZED))

	err = env.market.WithdrawOffer(ctx, buyer, asset, index)
	require.NoError(t, err)
	require.Equal(t, uint64(9000), env.balance(t, buyer))

	offers, err := env.admin.ListOffers(ctx, asset)
	require.NoError(t, err)
	require.Equal(t, domain.OfferStatusWithdrawn, offers[index].Status)

	err = env.market.WithdrawOffer(ctx, buyer, asset, index)
	require.True(t, errors.HasCode(err, errors.INVALID_STATE))
}

func TestInvest(t *testing.T) {
	env := newTestEnv(t)
	asset := env.listedAsset(t, "1", 9000)
	env.ledger.Fund(investor, 2000)

	err := env.market.Invest(ctx, investor, asset, 500, 0)
	require.True(t, errors.HasCode(err, errors.INVALID_INPUT))

	err = env.market.Invest(ctx, investor, asset, 500, 101)
	require.True(t, errors.HasCode(err, errors.INVALID_INPUT))

	err = env.market.Invest(ctx, investor, asset, 0, 5)
	require.True(t, errors.HasCode(err, errors.INVALID_INPUT))

	unlisted := domain.AssetRef{Collection: "punks", TokenID: "2"}
	err = env.market.Invest(ctx, investor, unlisted, 500, 5)
	require.True(t, errors.HasCode(err, errors.INVALID_STATE))

	err = env.market.Invest(ctx, investor, asset, 500, 60)
	require.NoError(t, err)
	require.Equal(t, uint64(1500), env.balance(t, investor))
	require.Equal(t, uint64(500), env.balance(t, seller))

	// the ledger does not cap the cumulative share across entries
	err = env.market.Invest(ctx, investor, asset, 500, 60)
	require.NoError(t, err)

	investments, err := env.admin.ListInvestments(ctx, asset)
	require.NoError(t, err)
	require.Len(t, investments, 2)
	require.Equal(t, uint64(60), investments[0].SharePct)

	// insufficient funds roll the entry back
	err = env.market.Invest(ctx, investor, asset, 5000, 10)
	require.True(t, errors.HasCode(err, errors.TRANSFER_FAILED))

	investments, err = env.admin.ListInvestments(ctx, asset)
	require.NoError(t, err)
	require.Len(t, investments, 2)
}

func TestEventsChannel(t *testing.T) {
	env := newTestEnv(t)
	eventsCh := env.market.GetEventsChannel(ctx)

	asset := env.listedAsset(t, "1", 9000)

	event := <-eventsCh
	require.Equal(t, domain.EventTypeAssetListed, event.GetType())
	require.Equal(t, asset, event.GetAsset())

	env.ledger.Fund(buyer, 9000)
	expiresAt := env.clock.Now().Unix() + 3600
	_, err := env.market.MakeOffer(ctx, buyer, asset, 9000, expiresAt, false)
	require.NoError(t, err)

	event = <-eventsCh
	require.Equal(t, domain.EventTypeOfferMade, event.GetType())
}

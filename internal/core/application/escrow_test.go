package application_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mintmarket/marketd/internal/core/application"
	"github.com/mintmarket/marketd/internal/core/domain"
	"github.com/mintmarket/marketd/pkg/errors"
)

func TestCreateEscrow(t *testing.T) {
	env := newTestEnv(t)
	asset := domain.AssetRef{Collection: "punks", TokenID: "1"}
	env.ledger.Fund(coordinator, 9000)

	_, err := env.escrow.CreateEscrow(ctx, buyer, asset, seller, 9000)
	require.True(t, errors.HasCode(err, errors.UNAUTHORIZED))

	_, err = env.escrow.CreateEscrow(ctx, coordinator, domain.AssetRef{}, seller, 9000)
	require.True(t, errors.HasCode(err, errors.INVALID_INPUT))

	_, err = env.escrow.CreateEscrow(ctx, coordinator, asset, "", 9000)
	require.True(t, errors.HasCode(err, errors.INVALID_INPUT))

	_, err = env.escrow.CreateEscrow(ctx, coordinator, asset, seller, 0)
	require.True(t, errors.HasCode(err, errors.INVALID_INPUT))

	id, err := env.escrow.CreateEscrow(ctx, coordinator, asset, seller, 9000)
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	// the deposit is pulled from the requester, who is recorded as the
	// refund claimant
	require.Zero(t, env.balance(t, coordinator))
	require.Equal(t, uint64(9000), env.balance(t, application.AccountEscrow))

	record, err := env.escrow.GetEscrow(ctx, id)
	require.NoError(t, err)
	require.Equal(t, coordinator, record.Buyer)
	require.Equal(t, seller, record.Seller)
	require.False(t, record.Completed)
}

func TestCreateEscrowInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	asset := domain.AssetRef{Collection: "punks", TokenID: "1"}

	_, err := env.escrow.CreateEscrow(ctx, coordinator, asset, seller, 9000)
	require.True(t, errors.HasCode(err, errors.TRANSFER_FAILED))

	records, err := env.repo.Escrows().GetAll(ctx)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestCompleteEscrow(t *testing.T) {
	env := newTestEnv(t)
	asset := domain.AssetRef{Collection: "punks", TokenID: "1"}
	env.ledger.Fund(coordinator, 9000)

	id, err := env.escrow.CreateEscrow(ctx, coordinator, asset, seller, 9000)
	require.NoError(t, err)

	err = env.escrow.CompleteEscrow(ctx, buyer, id)
	require.True(t, errors.HasCode(err, errors.UNAUTHORIZED))

	err = env.escrow.CompleteEscrow(ctx, coordinator, 99)
	require.True(t, errors.HasCode(err, errors.NOT_FOUND))

	err = env.escrow.CompleteEscrow(ctx, coordinator, id)
	require.NoError(t, err)

	require.Equal(t, uint64(8775), env.balance(t, seller))
	require.Equal(t, uint64(225), env.balance(t, application.AccountMarketplace))
	require.Zero(t, env.balance(t, application.AccountEscrow))

	balance, err := env.escrow.FeeBalance(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(225), balance)

	record, err := env.escrow.GetEscrow(ctx, id)
	require.NoError(t, err)
	require.True(t, record.Completed)
	require.Equal(t, domain.EscrowOutcomeReleased, record.Outcome)

	// terminal on both paths
	err = env.escrow.CompleteEscrow(ctx, coordinator, id)
	require.True(t, errors.HasCode(err, errors.INVALID_STATE))
	err = env.escrow.CancelEscrow(ctx, coordinator, id)
	require.True(t, errors.HasCode(err, errors.INVALID_STATE))
}

func TestCancelEscrow(t *testing.T) {
	env := newTestEnv(t)
	asset := domain.AssetRef{Collection: "punks", TokenID: "1"}
	env.ledger.Fund(coordinator, 9000)

	id, err := env.escrow.CreateEscrow(ctx, coordinator, asset, seller, 9000)
	require.NoError(t, err)

	err = env.escrow.CancelEscrow(ctx, buyer, id)
	require.True(t, errors.HasCode(err, errors.UNAUTHORIZED))

	err = env.escrow.CancelEscrow(ctx, coordinator, id)
	require.NoError(t, err)

	// refunded in full to the recorded buyer, no fee on the refund path
	require.Equal(t, uint64(9000), env.balance(t, coordinator))
	require.Zero(t, env.balance(t, application.AccountEscrow))
	require.Zero(t, env.balance(t, seller))

	record, err := env.escrow.GetEscrow(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.EscrowOutcomeRefunded, record.Outcome)

	err = env.escrow.CompleteEscrow(ctx, coordinator, id)
	require.True(t, errors.HasCode(err, errors.INVALID_STATE))
}

func TestClaimFee(t *testing.T) {
	env := newTestEnv(t)

	// nothing accrued yet, claiming is a no-op
	amount, err := env.escrow.ClaimFee(ctx, admin)
	require.NoError(t, err)
	require.Zero(t, amount)

	// settle a sale to accrue fees
	asset := env.listedAsset(t, "1", 9000)
	env.ledger.Fund(buyer, 9000)
	index, err := env.market.MakeOffer(
		ctx, buyer, asset, 9000, env.clock.Now().Unix()+3600, false,
	)
	require.NoError(t, err)
	err = env.market.AcceptOffer(ctx, seller, asset, index)
	require.NoError(t, err)

	_, err = env.escrow.ClaimFee(ctx, buyer)
	require.True(t, errors.HasCode(err, errors.UNAUTHORIZED))

	amount, err = env.escrow.ClaimFee(ctx, admin)
	require.NoError(t, err)
	require.Equal(t, uint64(225), amount)
	require.Equal(t, uint64(225), env.balance(t, admin))
	require.Zero(t, env.balance(t, application.AccountMarketplace))

	balance, err := env.escrow.FeeBalance(ctx)
	require.NoError(t, err)
	require.Zero(t, balance)

	// nothing left to claim
	amount, err = env.escrow.ClaimFee(ctx, admin)
	require.NoError(t, err)
	require.Zero(t, amount)
}

func TestClaimFeeFailedPayment(t *testing.T) {
	env := newTestEnv(t)

	asset := env.listedAsset(t, "1", 9000)
	env.ledger.Fund(buyer, 9000)
	index, err := env.market.MakeOffer(
		ctx, buyer, asset, 9000, env.clock.Now().Unix()+3600, false,
	)
	require.NoError(t, err)
	err = env.market.AcceptOffer(ctx, seller, asset, index)
	require.NoError(t, err)

	env.ledger.failPay = true
	_, err = env.escrow.ClaimFee(ctx, admin)
	require.True(t, errors.HasCode(err, errors.TRANSFER_FAILED))

	// the debited balance is credited back
	balance, err := env.escrow.FeeBalance(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(225), balance)
}

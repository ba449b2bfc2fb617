package application

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/mintmarket/marketd/internal/core/domain"
	"github.com/mintmarket/marketd/internal/core/ports"
	"github.com/mintmarket/marketd/pkg/errors"
)

type escrowService struct {
	repoManager ports.RepoManager
	payments    ports.PaymentService
	liveStore   ports.LiveStore
	clock       ports.Clock
}

func NewEscrowService(
	repoManager ports.RepoManager,
	payments ports.PaymentService,
	liveStore ports.LiveStore,
	clock ports.Clock,
) EscrowService {
	return &escrowService{
		repoManager: repoManager,
		payments:    payments,
		liveStore:   liveStore,
		clock:       clock,
	}
}

// CreateEscrow deposits the requester's funds against a future settlement.
// The requester is recorded as the escrow buyer, whoever originates the
// request holds the refund claim.
func (s *escrowService) CreateEscrow(
	ctx context.Context, requester string, asset domain.AssetRef,
	seller string, price uint64,
) (uint64, error) {
	if asset.IsZero() {
		return 0, errors.INVALID_INPUT.New("invalid asset reference %s", asset)
	}
	if seller == "" {
		return 0, errors.INVALID_INPUT.New("missing seller")
	}
	if price == 0 {
		return 0, errors.INVALID_INPUT.New("price must be positive")
	}
	if _, err := s.requireCoordinator(ctx, requester); err != nil {
		return 0, err
	}

	release, err := s.liveStore.Acquire(ctx, asset.String())
	if err != nil {
		return 0, errors.INTERNAL_ERROR.Wrap(err)
	}
	defer release()

	now := s.clock.Now().Unix()

	record := domain.NewEscrowRecord(asset, seller, requester, price, now)
	id, err := s.repoManager.Escrows().Add(ctx, record)
	if err != nil {
		return 0, errors.INTERNAL_ERROR.Wrap(err)
	}
	record.ID = id

	if err := s.payments.Collect(ctx, AccountEscrow, requester, price); err != nil {
		if rerr := s.repoManager.Escrows().Remove(ctx, id); rerr != nil {
			log.WithError(rerr).Errorf("failed to remove escrow %d", id)
		}
		return 0, errors.TRANSFER_FAILED.Wrap(err)
	}

	s.publishEvent(ctx, domain.NewEscrowEvent(domain.EventTypeEscrowCreated, record, 0, now))
	log.Debugf("created escrow %d on %s at %d for seller %s", id, asset, price, seller)
	return id, nil
}

func (s *escrowService) CompleteEscrow(ctx context.Context, requester string, id uint64) error {
	settings, err := s.requireCoordinator(ctx, requester)
	if err != nil {
		return err
	}

	record, err := s.repoManager.Escrows().Get(ctx, id)
	if err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}
	if record == nil {
		return errors.NOT_FOUND.New("escrow %d not found", id)
	}

	release, lockErr := s.liveStore.Acquire(ctx, record.Asset.String())
	if lockErr != nil {
		return errors.INTERNAL_ERROR.Wrap(lockErr)
	}
	defer release()

	now := s.clock.Now().Unix()

	fee := settings.Fee(record.Price)
	payout := record.Price - fee

	prev := *record
	if err := record.Complete(now); err != nil {
		return errors.INVALID_STATE.Wrap(err)
	}
	if err := s.repoManager.Escrows().Update(ctx, *record); err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}

	if err := s.payments.Pay(ctx, AccountEscrow, record.Seller, payout); err != nil {
		if uerr := s.repoManager.Escrows().Update(ctx, prev); uerr != nil {
			log.WithError(uerr).Errorf("failed to restore escrow %d", id)
		}
		return errors.TRANSFER_FAILED.Wrap(err)
	}

	if fee > 0 {
		if err := s.payments.Pay(ctx, AccountEscrow, AccountMarketplace, fee); err != nil {
			log.WithError(err).Errorf(
				"failed to sweep %d fee for escrow %d into the marketplace account", fee, id,
			)
		}
		if err := s.repoManager.Escrows().CreditFees(ctx, fee); err != nil {
			log.WithError(err).Errorf("failed to credit %d accrued fees", fee)
		}
	}

	s.publishEvent(ctx, domain.NewEscrowEvent(domain.EventTypeEscrowCompleted, *record, fee, now))
	log.Infof(
		"completed escrow %d: %d to seller %s, %d fee", id, payout, record.Seller, fee,
	)
	return nil
}

func (s *escrowService) CancelEscrow(ctx context.Context, requester string, id uint64) error {
	if _, err := s.requireCoordinator(ctx, requester); err != nil {
		return err
	}

	record, err := s.repoManager.Escrows().Get(ctx, id)
	if err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}
	if record == nil {
		return errors.NOT_FOUND.New("escrow %d not found", id)
	}

	release, lockErr := s.liveStore.Acquire(ctx, record.Asset.String())
	if lockErr != nil {
		return errors.INTERNAL_ERROR.Wrap(lockErr)
	}
	defer release()

	now := s.clock.Now().Unix()

	prev := *record
	if err := record.Cancel(now); err != nil {
		return errors.INVALID_STATE.Wrap(err)
	}
	if err := s.repoManager.Escrows().Update(ctx, *record); err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}

	if err := s.payments.Pay(ctx, AccountEscrow, record.Buyer, record.Price); err != nil {
		if uerr := s.repoManager.Escrows().Update(ctx, prev); uerr != nil {
			log.WithError(uerr).Errorf("failed to restore escrow %d", id)
		}
		return errors.TRANSFER_FAILED.Wrap(err)
	}

	s.publishEvent(ctx, domain.NewEscrowEvent(domain.EventTypeEscrowCanceled, *record, 0, now))
	log.Infof("canceled escrow %d: %d refunded to %s", id, record.Price, record.Buyer)
	return nil
}

// ClaimFee pays the whole accrued fee balance to the administrator. The
// balance is zeroed before the payment so concurrent claims cannot double
// pay, a failed payment credits it back. Claiming a zero balance is a no-op.
func (s *escrowService) ClaimFee(ctx context.Context, requester string) (uint64, error) {
	settings, err := s.repoManager.Settings().Get(ctx)
	if err != nil {
		return 0, errors.INTERNAL_ERROR.Wrap(err)
	}
	if settings == nil || !settings.Initialized {
		return 0, errors.INVALID_STATE.New("marketplace is not initialized")
	}
	if requester != settings.Admin {
		return 0, errors.UNAUTHORIZED.New("requester %s is not the administrator", requester)
	}

	amount, err := s.repoManager.Escrows().DebitFees(ctx)
	if err != nil {
		return 0, errors.INTERNAL_ERROR.Wrap(err)
	}
	if amount == 0 {
		return 0, nil
	}

	if err := s.payments.Pay(ctx, AccountMarketplace, settings.Admin, amount); err != nil {
		if cerr := s.repoManager.Escrows().CreditFees(ctx, amount); cerr != nil {
			log.WithError(cerr).Errorf(
				"failed to re-credit %d fees after failed claim", amount,
			)
		}
		return 0, errors.TRANSFER_FAILED.Wrap(err)
	}

	now := s.clock.Now().Unix()
	s.publishEvent(ctx, domain.NewFeeClaimed(settings.Admin, amount, now))
	log.Infof("claimed %d accrued fees to administrator %s", amount, settings.Admin)
	return amount, nil
}

func (s *escrowService) GetEscrow(ctx context.Context, id uint64) (*domain.EscrowRecord, error) {
	record, err := s.repoManager.Escrows().Get(ctx, id)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	if record == nil {
		return nil, errors.NOT_FOUND.New("escrow %d not found", id)
	}
	return record, nil
}

func (s *escrowService) FeeBalance(ctx context.Context) (uint64, error) {
	balance, err := s.repoManager.Escrows().FeeBalance(ctx)
	if err != nil {
		return 0, errors.INTERNAL_ERROR.Wrap(err)
	}
	return balance, nil
}

func (s *escrowService) requireCoordinator(
	ctx context.Context, requester string,
) (*domain.Settings, error) {
	settings, err := s.repoManager.Settings().Get(ctx)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	if settings == nil || !settings.Initialized {
		return nil, errors.INVALID_STATE.New("marketplace is not initialized")
	}
	if requester != settings.SettlementCoordinator {
		return nil, errors.UNAUTHORIZED.New(
			"requester %s is not the settlement coordinator", requester,
		)
	}
	return settings, nil
}

func (s *escrowService) publishEvent(ctx context.Context, event domain.Event) {
	if err := s.repoManager.Events().Append(ctx, event); err != nil {
		log.WithError(err).Warnf("failed to append %s event", event.GetType())
	}
}

package application

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/mintmarket/marketd/internal/core/domain"
	"github.com/mintmarket/marketd/internal/core/ports"
	"github.com/mintmarket/marketd/pkg/errors"
)

const maxFeeRateBps = 10000

type adminService struct {
	repoManager ports.RepoManager
	clock       ports.Clock
}

func NewAdminService(repoManager ports.RepoManager, clock ports.Clock) AdminService {
	return &adminService{repoManager: repoManager, clock: clock}
}

// Initialize bootstraps the marketplace settings exactly once.
func (s *adminService) Initialize(
	ctx context.Context, feeRateBps uint64, admin, coordinator string,
) error {
	if admin == "" {
		return errors.INVALID_INPUT.New("missing administrator")
	}
	if coordinator == "" {
		return errors.INVALID_INPUT.New("missing settlement coordinator")
	}
	if feeRateBps > maxFeeRateBps {
		return errors.INVALID_INPUT.New(
			"fee rate %d exceeds %d basis points", feeRateBps, maxFeeRateBps,
		)
	}

	existing, err := s.repoManager.Settings().Get(ctx)
	if err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}
	if existing != nil && existing.Initialized {
		return errors.INVALID_STATE.New("marketplace is already initialized")
	}

	now := s.clock.Now().Unix()
	settings := domain.NewSettings(feeRateBps, admin, coordinator, now)
	if err := s.repoManager.Settings().Upsert(ctx, *settings); err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}

	log.Infof(
		"marketplace initialized: fee rate %d bps, administrator %s, coordinator %s",
		feeRateBps, admin, coordinator,
	)
	return nil
}

func (s *adminService) UpdateFeeRate(
	ctx context.Context, requester string, feeRateBps uint64,
) error {
	if feeRateBps > maxFeeRateBps {
		return errors.INVALID_INPUT.New(
			"fee rate %d exceeds %d basis points", feeRateBps, maxFeeRateBps,
		)
	}

	settings, err := s.requireAdmin(ctx, requester)
	if err != nil {
		return err
	}

	now := s.clock.Now().Unix()
	oldBps := settings.FeeRateBps
	settings.FeeRateBps = feeRateBps
	settings.UpdatedAt = now
	if err := s.repoManager.Settings().Upsert(ctx, *settings); err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}

	s.publishEvent(ctx, domain.NewFeeRateUpdated(oldBps, feeRateBps, now))
	log.Infof("fee rate updated from %d to %d bps", oldBps, feeRateBps)
	return nil
}

func (s *adminService) SetSettlementCoordinator(
	ctx context.Context, requester, coordinator string,
) error {
	if coordinator == "" {
		return errors.INVALID_INPUT.New("missing settlement coordinator")
	}

	settings, err := s.requireAdmin(ctx, requester)
	if err != nil {
		return err
	}

	now := s.clock.Now().Unix()
	old := settings.SettlementCoordinator
	settings.SettlementCoordinator = coordinator
	settings.UpdatedAt = now
	if err := s.repoManager.Settings().Upsert(ctx, *settings); err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}

	s.publishEvent(ctx, domain.NewCoordinatorChanged(old, coordinator, now))
	log.Infof("settlement coordinator changed from %s to %s", old, coordinator)
	return nil
}

func (s *adminService) GetInfo(ctx context.Context) (*MarketInfo, error) {
	settings, err := s.repoManager.Settings().Get(ctx)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	if settings == nil || !settings.Initialized {
		return nil, errors.INVALID_STATE.New("marketplace is not initialized")
	}

	feeBalance, err := s.repoManager.Escrows().FeeBalance(ctx)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}

	listings, err := s.repoManager.Listings().GetAll(ctx, true)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	offers, err := s.repoManager.Offers().GetAllActive(ctx)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	escrows, err := s.repoManager.Escrows().GetAll(ctx)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	pending := 0
	for _, record := range escrows {
		if !record.Completed {
			pending++
		}
	}

	return &MarketInfo{
		FeeRateBps:            settings.FeeRateBps,
		Admin:                 settings.Admin,
		SettlementCoordinator: settings.SettlementCoordinator,
		FeeBalance:            feeBalance,
		ActiveListings:        len(listings),
		ActiveOffers:          len(offers),
		PendingEscrows:        pending,
	}, nil
}

func (s *adminService) GetListing(
	ctx context.Context, asset domain.AssetRef,
) (*domain.Listing, error) {
	listing, err := s.repoManager.Listings().Get(ctx, asset)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	if listing == nil {
		return nil, errors.NOT_FOUND.New("asset %s is not listed", asset)
	}
	return listing, nil
}

func (s *adminService) ListListings(
	ctx context.Context, activeOnly bool,
) ([]domain.Listing, error) {
	listings, err := s.repoManager.Listings().GetAll(ctx, activeOnly)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	return listings, nil
}

func (s *adminService) ListOffers(
	ctx context.Context, asset domain.AssetRef,
) ([]domain.Offer, error) {
	offers, err := s.repoManager.Offers().GetByAsset(ctx, asset)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	return offers, nil
}

func (s *adminService) ListInvestments(
	ctx context.Context, asset domain.AssetRef,
) ([]domain.Investment, error) {
	investments, err := s.repoManager.Investments().GetByAsset(ctx, asset)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	return investments, nil
}

// ReportExpiredOffers lists the active offers whose expiration has passed.
// Expiry is enforced at acceptance time, the report exists for operators.
func (s *adminService) ReportExpiredOffers(ctx context.Context) ([]domain.Offer, error) {
	offers, err := s.repoManager.Offers().GetAllActive(ctx)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}

	now := s.clock.Now().Unix()
	expired := make([]domain.Offer, 0, len(offers))
	for _, offer := range offers {
		if offer.IsExpired(now) {
			expired = append(expired, offer)
		}
	}
	if len(expired) > 0 {
		log.Infof("%d active offers past expiration", len(expired))
	}
	return expired, nil
}

func (s *adminService) requireAdmin(
	ctx context.Context, requester string,
) (*domain.Settings, error) {
	settings, err := s.repoManager.Settings().Get(ctx)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	if settings == nil || !settings.Initialized {
		return nil, errors.INVALID_STATE.New("marketplace is not initialized")
	}
	if requester != settings.Admin {
		return nil, errors.UNAUTHORIZED.New(
			"requester %s is not the administrator", requester,
		)
	}
	return settings, nil
}

func (s *adminService) publishEvent(ctx context.Context, event domain.Event) {
	if err := s.repoManager.Events().Append(ctx, event); err != nil {
		log.WithError(err).Warnf("failed to append %s event", event.GetType())
	}
}

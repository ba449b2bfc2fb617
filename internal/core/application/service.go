package application

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/mintmarket/marketd/internal/core/domain"
	"github.com/mintmarket/marketd/internal/core/ports"
	"github.com/mintmarket/marketd/pkg/errors"
)

type marketService struct {
	repoManager ports.RepoManager
	registry    ports.AssetRegistry
	minter      ports.Minter
	payments    ports.PaymentService
	liveStore   ports.LiveStore
	clock       ports.Clock

	eventsCh chan domain.Event
	stopCh   chan struct{}
}

func NewMarketService(
	repoManager ports.RepoManager,
	registry ports.AssetRegistry,
	minter ports.Minter,
	payments ports.PaymentService,
	liveStore ports.LiveStore,
	clock ports.Clock,
) (Service, error) {
	svc := &marketService{
		repoManager: repoManager,
		registry:    registry,
		minter:      minter,
		payments:    payments,
		liveStore:   liveStore,
		clock:       clock,
		eventsCh:    make(chan domain.Event, 128),
		stopCh:      make(chan struct{}),
	}
	repoManager.Events().RegisterEventsHandler(domain.MarketTopic, svc.propagateEvents)
	return svc, nil
}

func (s *marketService) Start() error {
	log.Debug("market service started")
	return nil
}

func (s *marketService) Stop() {
	close(s.stopCh)
	log.Debug("market service stopped")
}

func (s *marketService) GetEventsChannel(_ context.Context) <-chan domain.Event {
	return s.eventsCh
}

func (s *marketService) ListAsset(
	ctx context.Context, seller string, asset domain.AssetRef, price uint64,
) error {
	if seller == "" {
		return errors.INVALID_INPUT.New("missing seller")
	}
	if asset.IsZero() {
		return errors.INVALID_INPUT.New("invalid asset reference %s", asset)
	}
	if price == 0 {
		return errors.INVALID_INPUT.New("price must be positive")
	}
	if _, err := s.settings(ctx); err != nil {
		return err
	}

	release, err := s.liveStore.Acquire(ctx, asset.String())
	if err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}
	defer release()

	now := s.clock.Now().Unix()

	prev, err := s.repoManager.Listings().Get(ctx, asset)
	if err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}
	if prev != nil && prev.Active {
		return errors.INVALID_STATE.New("asset %s is already listed", asset)
	}

	owner, err := s.registry.OwnerOf(ctx, asset)
	if err != nil {
		return errors.NOT_FOUND.New("asset %s not found in registry: %s", asset, err)
	}
	if owner != seller {
		return errors.UNAUTHORIZED.New("seller %s does not own asset %s", seller, asset)
	}

	tokenURI, err := s.registry.TokenURI(ctx, asset)
	if err != nil {
		log.WithError(err).Warnf("failed to fetch token uri for %s", asset)
		tokenURI = ""
	}

	listing := domain.NewListing(asset, seller, price, tokenURI, now)
	if err := s.repoManager.Listings().Upsert(ctx, listing); err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}

	if err := s.registry.Transfer(ctx, asset, seller, AccountMarketplace); err != nil {
		s.restoreListing(ctx, asset, prev)
		return errors.TRANSFER_FAILED.Wrap(err)
	}

	s.publishEvent(ctx, domain.NewAssetListed(asset, seller, price, tokenURI, false, now))
	log.Debugf("listed asset %s at %d for seller %s", asset, price, seller)
	return nil
}

func (s *marketService) MintAndList(
	ctx context.Context, seller string, params domain.MintParams, price uint64,
) (domain.AssetRef, error) {
	if seller == "" {
		return domain.AssetRef{}, errors.INVALID_INPUT.New("missing seller")
	}
	if params.Collection == "" {
		return domain.AssetRef{}, errors.INVALID_INPUT.New("missing collection")
	}
	if price == 0 {
		return domain.AssetRef{}, errors.INVALID_INPUT.New("price must be positive")
	}
	if _, err := s.settings(ctx); err != nil {
		return domain.AssetRef{}, err
	}

	asset, err := s.minter.Mint(ctx, params, seller)
	if err != nil {
		return domain.AssetRef{}, errors.TRANSFER_FAILED.Wrap(err)
	}

	release, lockErr := s.liveStore.Acquire(ctx, asset.String())
	if lockErr != nil {
		return domain.AssetRef{}, errors.INTERNAL_ERROR.Wrap(lockErr)
	}
	defer release()

	now := s.clock.Now().Unix()

	tokenURI, err := s.registry.TokenURI(ctx, asset)
	if err != nil {
		tokenURI = params.MetadataURI
	}

	listing := domain.NewListing(asset, seller, price, tokenURI, now)
	if err := s.repoManager.Listings().Upsert(ctx, listing); err != nil {
		s.burn(ctx, asset)
		return domain.AssetRef{}, errors.INTERNAL_ERROR.Wrap(err)
	}

	if err := s.registry.Transfer(ctx, asset, seller, AccountMarketplace); err != nil {
		s.restoreListing(ctx, asset, nil)
		s.burn(ctx, asset)
		return domain.AssetRef{}, errors.TRANSFER_FAILED.Wrap(err)
	}

	s.publishEvent(ctx, domain.NewAssetListed(asset, seller, price, tokenURI, true, now))
	log.Debugf("minted and listed asset %s at %d for seller %s", asset, price, seller)
	return asset, nil
}

func (s *marketService) DelistAsset(
	ctx context.Context, requester string, asset domain.AssetRef,
) error {
	if requester == "" {
		return errors.INVALID_INPUT.New("missing requester")
	}
	if _, err := s.settings(ctx); err != nil {
		return err
	}

	release, err := s.liveStore.Acquire(ctx, asset.String())
	if err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}
	defer release()

	now := s.clock.Now().Unix()

	listing, err := s.repoManager.Listings().Get(ctx, asset)
	if err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}
	if listing == nil {
		return errors.NOT_FOUND.New("asset %s is not listed", asset)
	}
	if !listing.Active {
		return errors.INVALID_STATE.New("listing for %s is not active", asset)
	}
	if requester != listing.Seller {
		return errors.UNAUTHORIZED.New(
			"requester %s is not the seller of %s", requester, asset,
		)
	}

	prev := *listing
	if err := listing.Close(now); err != nil {
		return errors.INVALID_STATE.Wrap(err)
	}
	if err := s.repoManager.Listings().Upsert(ctx, *listing); err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}

	if err := s.registry.Transfer(ctx, asset, AccountMarketplace, listing.Seller); err != nil {
		s.restoreListing(ctx, asset, &prev)
		return errors.TRANSFER_FAILED.Wrap(err)
	}

	s.publishEvent(ctx, domain.NewAssetDelisted(asset, listing.Seller, now))
	log.Debugf("delisted asset %s for seller %s", asset, listing.Seller)
	return nil
}

func (s *marketService) MakeOffer(
	ctx context.Context, buyer string, asset domain.AssetRef,
	price uint64, expiresAt int64, escrowed bool,
) (int, error) {
	if buyer == "" {
		return 0, errors.INVALID_INPUT.New("missing buyer")
	}
	if price == 0 {
		return 0, errors.INVALID_INPUT.New("price must be positive")
	}
	if _, err := s.settings(ctx); err != nil {
		return 0, err
	}

	release, err := s.liveStore.Acquire(ctx, asset.String())
	if err != nil {
		return 0, errors.INTERNAL_ERROR.Wrap(err)
	}
	defer release()

	now := s.clock.Now().Unix()
	if expiresAt <= now {
		return 0, errors.INVALID_INPUT.New("expiration %d is not in the future", expiresAt)
	}

	listing, err := s.repoManager.Listings().Get(ctx, asset)
	if err != nil {
		return 0, errors.INTERNAL_ERROR.Wrap(err)
	}
	if listing == nil || !listing.Active {
		return 0, errors.INVALID_STATE.New("asset %s is not listed", asset)
	}

	offer := domain.NewOffer(asset, buyer, price, expiresAt, escrowed, now)
	index, err := s.repoManager.Offers().Append(ctx, offer)
	if err != nil {
		return 0, errors.INTERNAL_ERROR.Wrap(err)
	}
	offer.Index = index

	if escrowed {
		record := domain.NewEscrowRecord(asset, listing.Seller, buyer, price, now)
		escrowID, err := s.repoManager.Escrows().Add(ctx, record)
		if err != nil {
			s.removeOffer(ctx, asset, index)
			return 0, errors.INTERNAL_ERROR.Wrap(err)
		}
		record.ID = escrowID

		offer.EscrowID = escrowID
		if err := s.repoManager.Offers().Update(ctx, offer); err != nil {
			s.removeEscrow(ctx, escrowID)
			s.removeOffer(ctx, asset, index)
			return 0, errors.INTERNAL_ERROR.Wrap(err)
		}

		if err := s.payments.Collect(ctx, AccountEscrow, buyer, price); err != nil {
			s.removeEscrow(ctx, escrowID)
			s.removeOffer(ctx, asset, index)
			return 0, errors.TRANSFER_FAILED.Wrap(err)
		}

		s.publishEvent(ctx, domain.NewEscrowEvent(domain.EventTypeEscrowCreated, record, 0, now))
	} else {
		// direct offers commit their amount into marketplace custody until
		// the offer is resolved
		if err := s.payments.Collect(ctx, AccountMarketplace, buyer, price); err != nil {
			s.removeOffer(ctx, asset, index)
			return 0, errors.TRANSFER_FAILED.Wrap(err)
		}
	}

	s.publishEvent(ctx, domain.NewOfferMade(offer, now))
	log.Debugf(
		"offer %d on %s at %d by %s (escrowed: %t)", index, asset, price, buyer, escrowed,
	)
	return index, nil
}

func (s *marketService) AcceptOffer(
	ctx context.Context, requester string, asset domain.AssetRef, index int,
) error {
	if requester == "" {
		return errors.INVALID_INPUT.New("missing requester")
	}
	settings, err := s.settings(ctx)
	if err != nil {
		return err
	}

	release, lockErr := s.liveStore.Acquire(ctx, asset.String())
	if lockErr != nil {
		return errors.INTERNAL_ERROR.Wrap(lockErr)
	}
	defer release()

	now := s.clock.Now().Unix()

	listing, offer, err := s.listingAndOffer(ctx, requester, asset, index)
	if err != nil {
		return err
	}
	if offer.IsExpired(now) {
		return errors.EXPIRED.New(
			"offer %d on %s expired at %d", index, asset, offer.ExpiresAt,
		)
	}

	fee := settings.Fee(offer.Price)
	payout := offer.Price - fee

	prevListing := *listing
	prevOffer := *offer
	if err := listing.Close(now); err != nil {
		return errors.INVALID_STATE.Wrap(err)
	}
	if err := offer.Accept(now); err != nil {
		return errors.INVALID_STATE.Wrap(err)
	}
	if err := s.repoManager.Listings().Upsert(ctx, *listing); err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}
	if err := s.repoManager.Offers().Update(ctx, *offer); err != nil {
		s.restoreListing(ctx, asset, &prevListing)
		return errors.INTERNAL_ERROR.Wrap(err)
	}

	restore := func() {
		if err := s.repoManager.Offers().Update(ctx, prevOffer); err != nil {
			log.WithError(err).Errorf("failed to restore offer %d on %s", index, asset)
		}
		s.restoreListing(ctx, asset, &prevListing)
	}

	if offer.Escrowed {
		if err := s.settleEscrowedSale(ctx, listing, offer, fee, payout, restore, now); err != nil {
			return err
		}
	} else {
		if err := s.settleDirectSale(ctx, listing, offer, payout, restore); err != nil {
			return err
		}
	}

	s.creditFees(ctx, fee)
	s.publishEvent(ctx, domain.NewOfferResolved(
		domain.EventTypeOfferAccepted, *offer, listing.Seller, fee, now,
	))
	log.Infof(
		"accepted offer %d on %s: %d to seller %s, %d fee", index, asset, payout,
		listing.Seller, fee,
	)
	return nil
}

// settleEscrowedSale hands the asset to the buyer, then releases the escrowed
// deposit to the seller and sweeps the fee into the marketplace account. The
// asset moves first so a failed payout can return it to custody.
func (s *marketService) settleEscrowedSale(
	ctx context.Context, listing *domain.Listing, offer *domain.Offer,
	fee, payout uint64, restore func(), now int64,
) error {
	record, err := s.repoManager.Escrows().Get(ctx, offer.EscrowID)
	if err != nil || record == nil {
		restore()
		return errors.INTERNAL_ERROR.New(
			"escrow %d for offer %d on %s not found", offer.EscrowID, offer.Index, offer.Asset,
		)
	}

	prevRecord := *record
	if err := record.Complete(now); err != nil {
		restore()
		return errors.INVALID_STATE.Wrap(err)
	}
	if err := s.repoManager.Escrows().Update(ctx, *record); err != nil {
		restore()
		return errors.INTERNAL_ERROR.Wrap(err)
	}

	if err := s.registry.Transfer(ctx, offer.Asset, AccountMarketplace, offer.Buyer); err != nil {
		s.restoreEscrow(ctx, prevRecord)
		restore()
		return errors.TRANSFER_FAILED.Wrap(err)
	}

	if err := s.payments.Pay(ctx, AccountEscrow, listing.Seller, payout); err != nil {
		if terr := s.registry.Transfer(
			ctx, offer.Asset, offer.Buyer, AccountMarketplace,
		); terr != nil {
			log.WithError(terr).Errorf(
				"failed to return asset %s to custody after failed payout", offer.Asset,
			)
		}
		s.restoreEscrow(ctx, prevRecord)
		restore()
		return errors.TRANSFER_FAILED.Wrap(err)
	}

	if fee > 0 {
		if err := s.payments.Pay(ctx, AccountEscrow, AccountMarketplace, fee); err != nil {
			log.WithError(err).Errorf(
				"failed to sweep %d fee for escrow %d into the marketplace account",
				fee, record.ID,
			)
		}
	}

	s.publishEvent(ctx, domain.NewEscrowEvent(
		domain.EventTypeEscrowCompleted, *record, fee, now,
	))
	return nil
}

// settleDirectSale pays the seller out of the amount held since the offer was
// made and hands over the asset. The fee share stays in the marketplace
// account. Any failure leaves the held amount in custody.
func (s *marketService) settleDirectSale(
	ctx context.Context, listing *domain.Listing, offer *domain.Offer,
	payout uint64, restore func(),
) error {
	if err := s.payments.Pay(ctx, AccountMarketplace, listing.Seller, payout); err != nil {
		restore()
		return errors.TRANSFER_FAILED.Wrap(err)
	}

	if err := s.registry.Transfer(ctx, offer.Asset, AccountMarketplace, offer.Buyer); err != nil {
		if cerr := s.payments.Collect(
			ctx, AccountMarketplace, listing.Seller, payout,
		); cerr != nil {
			log.WithError(cerr).Errorf(
				"failed to claw back %d payout from seller %s", payout, listing.Seller,
			)
		}
		restore()
		return errors.TRANSFER_FAILED.Wrap(err)
	}
	return nil
}

func (s *marketService) RejectOffer(
	ctx context.Context, requester string, asset domain.AssetRef, index int,
) error {
	if requester == "" {
		return errors.INVALID_INPUT.New("missing requester")
	}
	if _, err := s.settings(ctx); err != nil {
		return err
	}

	release, err := s.liveStore.Acquire(ctx, asset.String())
	if err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}
	defer release()

	now := s.clock.Now().Unix()

	_, offer, rErr := s.listingAndOffer(ctx, requester, asset, index)
	if rErr != nil {
		return rErr
	}
	if offer.IsExpired(now) {
		return errors.EXPIRED.New(
			"offer %d on %s expired at %d", index, asset, offer.ExpiresAt,
		)
	}

	prevOffer := *offer
	if err := offer.Reject(now); err != nil {
		return errors.INVALID_STATE.Wrap(err)
	}
	if err := s.repoManager.Offers().Update(ctx, *offer); err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}

	if offer.Escrowed {
		if err := s.refundEscrowedOffer(ctx, *offer, now); err != nil {
			if uerr := s.repoManager.Offers().Update(ctx, prevOffer); uerr != nil {
				log.WithError(uerr).Errorf("failed to restore offer %d on %s", index, asset)
			}
			return err
		}
	} else {
		if err := s.payments.Pay(ctx, AccountMarketplace, offer.Buyer, offer.Price); err != nil {
			if uerr := s.repoManager.Offers().Update(ctx, prevOffer); uerr != nil {
				log.WithError(uerr).Errorf("failed to restore offer %d on %s", index, asset)
			}
			return errors.TRANSFER_FAILED.Wrap(err)
		}
	}

	s.publishEvent(ctx, domain.NewOfferResolved(
		domain.EventTypeOfferRejected, *offer, requester, 0, now,
	))
	log.Debugf("rejected offer %d on %s", index, asset)
	return nil
}

func (s *marketService) WithdrawOffer(
	ctx context.Context, requester string, asset domain.AssetRef, index int,
) error {
	if requester == "" {
		return errors.INVALID_INPUT.New("missing requester")
	}
	if _, err := s.settings(ctx); err != nil {
		return err
	}

	release, err := s.liveStore.Acquire(ctx, asset.String())
	if err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}
	defer release()

	now := s.clock.Now().Unix()

	offer, err := s.repoManager.Offers().Get(ctx, asset, index)
	if err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}
	if offer == nil {
		return errors.NOT_FOUND.New("offer %d on %s not found", index, asset)
	}
	if requester != offer.Buyer {
		return errors.UNAUTHORIZED.New(
			"requester %s is not the buyer of offer %d on %s", requester, index, asset,
		)
	}
	if !offer.IsActive() {
		return errors.INVALID_STATE.New(
			"offer %d on %s already resolved as %s", index, asset, offer.Status,
		)
	}

	prevOffer := *offer
	if err := offer.Withdraw(now); err != nil {
		return errors.INVALID_STATE.Wrap(err)
	}
	if err := s.repoManager.Offers().Update(ctx, *offer); err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}

	if offer.Escrowed {
		if err := s.refundEscrowedOffer(ctx, *offer, now); err != nil {
			if uerr := s.repoManager.Offers().Update(ctx, prevOffer); uerr != nil {
				log.WithError(uerr).Errorf("failed to restore offer %d on %s", index, asset)
			}
			return err
		}
	} else {
		if err := s.payments.Pay(ctx, AccountMarketplace, offer.Buyer, offer.Price); err != nil {
			if uerr := s.repoManager.Offers().Update(ctx, prevOffer); uerr != nil {
				log.WithError(uerr).Errorf("failed to restore offer %d on %s", index, asset)
			}
			return errors.TRANSFER_FAILED.Wrap(err)
		}
	}

	s.publishEvent(ctx, domain.NewOfferResolved(
		domain.EventTypeOfferWithdrawn, *offer, "", 0, now,
	))
	log.Debugf("withdrew offer %d on %s", index, asset)
	return nil
}

func (s *marketService) Invest(
	ctx context.Context, investor string, asset domain.AssetRef, amount, sharePct uint64,
) error {
	if investor == "" {
		return errors.INVALID_INPUT.New("missing investor")
	}
	if amount == 0 {
		return errors.INVALID_INPUT.New("amount must be positive")
	}
	if sharePct == 0 || sharePct > 100 {
		return errors.INVALID_INPUT.New("share must be between 1 and 100, got %d", sharePct)
	}
	if _, err := s.settings(ctx); err != nil {
		return err
	}

	release, err := s.liveStore.Acquire(ctx, asset.String())
	if err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}
	defer release()

	now := s.clock.Now().Unix()

	listing, err := s.repoManager.Listings().Get(ctx, asset)
	if err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}
	if listing == nil || !listing.Active {
		return errors.INVALID_STATE.New("asset %s is not listed", asset)
	}

	investment := domain.Investment{
		Asset:     asset,
		Investor:  investor,
		Amount:    amount,
		SharePct:  sharePct,
		CreatedAt: now,
	}
	index, err := s.repoManager.Investments().Append(ctx, investment)
	if err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}

	if err := s.payments.Collect(ctx, AccountMarketplace, investor, amount); err != nil {
		s.removeInvestment(ctx, asset, index)
		return errors.TRANSFER_FAILED.Wrap(err)
	}
	if err := s.payments.Pay(ctx, AccountMarketplace, listing.Seller, amount); err != nil {
		s.refund(ctx, AccountMarketplace, investor, amount)
		s.removeInvestment(ctx, asset, index)
		return errors.TRANSFER_FAILED.Wrap(err)
	}

	s.publishEvent(ctx, domain.NewInvestmentRecorded(investment, now))
	log.Debugf(
		"investment of %d (%d%%) in %s by %s", amount, sharePct, asset, investor,
	)
	return nil
}

// listingAndOffer loads an active listing owned by the requester and the
// addressed active offer. Shared by accept and reject.
func (s *marketService) listingAndOffer(
	ctx context.Context, requester string, asset domain.AssetRef, index int,
) (*domain.Listing, *domain.Offer, error) {
	listing, err := s.repoManager.Listings().Get(ctx, asset)
	if err != nil {
		return nil, nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	if listing == nil || !listing.Active {
		return nil, nil, errors.INVALID_STATE.New("asset %s is not listed", asset)
	}
	if requester != listing.Seller {
		return nil, nil, errors.UNAUTHORIZED.New(
			"requester %s is not the seller of %s", requester, asset,
		)
	}

	offer, err := s.repoManager.Offers().Get(ctx, asset, index)
	if err != nil {
		return nil, nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	if offer == nil {
		return nil, nil, errors.NOT_FOUND.New("offer %d on %s not found", index, asset)
	}
	if !offer.IsActive() {
		return nil, nil, errors.INVALID_STATE.New(
			"offer %d on %s already resolved as %s", index, asset, offer.Status,
		)
	}
	return listing, offer, nil
}

// refundEscrowedOffer cancels the offer's escrow and returns the deposit to
// the recorded buyer.
func (s *marketService) refundEscrowedOffer(
	ctx context.Context, offer domain.Offer, now int64,
) error {
	record, err := s.repoManager.Escrows().Get(ctx, offer.EscrowID)
	if err != nil || record == nil {
		return errors.INTERNAL_ERROR.New(
			"escrow %d for offer %d on %s not found", offer.EscrowID, offer.Index, offer.Asset,
		)
	}

	prev := *record
	if err := record.Cancel(now); err != nil {
		return errors.INVALID_STATE.Wrap(err)
	}
	if err := s.repoManager.Escrows().Update(ctx, *record); err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}

	if err := s.payments.Pay(ctx, AccountEscrow, record.Buyer, record.Price); err != nil {
		s.restoreEscrow(ctx, prev)
		return errors.TRANSFER_FAILED.Wrap(err)
	}

	s.publishEvent(ctx, domain.NewEscrowEvent(domain.EventTypeEscrowCanceled, *record, 0, now))
	return nil
}

func (s *marketService) settings(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.repoManager.Settings().Get(ctx)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	if settings == nil || !settings.Initialized {
		return nil, errors.INVALID_STATE.New("marketplace is not initialized")
	}
	return settings, nil
}

func (s *marketService) creditFees(ctx context.Context, fee uint64) {
	if fee == 0 {
		return
	}
	if err := s.repoManager.Escrows().CreditFees(ctx, fee); err != nil {
		log.WithError(err).Errorf("failed to credit %d accrued fees", fee)
	}
}

func (s *marketService) refund(ctx context.Context, account, to string, amount uint64) {
	if err := s.payments.Pay(ctx, account, to, amount); err != nil {
		log.WithError(err).Errorf("failed to refund %d to %s", amount, to)
	}
}

func (s *marketService) restoreListing(
	ctx context.Context, asset domain.AssetRef, prev *domain.Listing,
) {
	var err error
	if prev != nil {
		err = s.repoManager.Listings().Upsert(ctx, *prev)
	} else {
		err = s.repoManager.Listings().Delete(ctx, asset)
	}
	if err != nil {
		log.WithError(err).Errorf("failed to restore listing state for %s", asset)
	}
}

func (s *marketService) restoreEscrow(ctx context.Context, prev domain.EscrowRecord) {
	if err := s.repoManager.Escrows().Update(ctx, prev); err != nil {
		log.WithError(err).Errorf("failed to restore escrow %d", prev.ID)
	}
}

func (s *marketService) removeOffer(ctx context.Context, asset domain.AssetRef, index int) {
	if err := s.repoManager.Offers().Remove(ctx, asset, index); err != nil {
		log.WithError(err).Errorf("failed to remove offer %d on %s", index, asset)
	}
}

func (s *marketService) removeEscrow(ctx context.Context, id uint64) {
	if err := s.repoManager.Escrows().Remove(ctx, id); err != nil {
		log.WithError(err).Errorf("failed to remove escrow %d", id)
	}
}

func (s *marketService) removeInvestment(
	ctx context.Context, asset domain.AssetRef, index int,
) {
	if err := s.repoManager.Investments().Remove(ctx, asset, index); err != nil {
		log.WithError(err).Errorf("failed to remove investment %d on %s", index, asset)
	}
}

func (s *marketService) burn(ctx context.Context, asset domain.AssetRef) {
	if err := s.minter.Burn(ctx, asset); err != nil {
		log.WithError(err).Errorf("failed to burn asset %s", asset)
	}
}

func (s *marketService) publishEvent(ctx context.Context, event domain.Event) {
	if err := s.repoManager.Events().Append(ctx, event); err != nil {
		log.WithError(err).Warnf("failed to append %s event", event.GetType())
	}
}

func (s *marketService) propagateEvents(events []domain.Event) {
	for _, event := range events {
		select {
		case <-s.stopCh:
			return
		case s.eventsCh <- event:
		default:
			log.Warnf("events channel full, dropping %s event", event.GetType())
		}
	}
}

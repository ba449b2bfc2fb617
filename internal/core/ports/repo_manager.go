package ports

import (
	"github.com/mintmarket/marketd/internal/core/domain"
)

type RepoManager interface {
	Listings() domain.ListingRepository
	Offers() domain.OfferRepository
	Escrows() domain.EscrowRepository
	Investments() domain.InvestmentRepository
	Settings() domain.SettingsRepository
	Events() domain.EventRepository
	Close()
}

package domain

// Settings holds the marketplace's mutable configuration: the fee rate in
// basis points, the administrator identity and the settlement coordinator
// identity. Initialized guards the one-shot bootstrap.
type Settings struct {
	FeeRateBps            uint64
	Admin                 string
	SettlementCoordinator string
	Initialized           bool
	UpdatedAt             int64
}

func NewSettings(feeRateBps uint64, admin, coordinator string, now int64) *Settings {
	return &Settings{
		FeeRateBps:            feeRateBps,
		Admin:                 admin,
		SettlementCoordinator: coordinator,
		Initialized:           true,
		UpdatedAt:             now,
	}
}

// Fee computes the marketplace fee for the given amount with integer
// truncation on the fee side, so seller payout + fee always equals amount.
// Computed in two parts, amount * rate would overflow for large amounts.
func (s Settings) Fee(amount uint64) uint64 {
	return amount/10000*s.FeeRateBps + amount%10000*s.FeeRateBps/10000
}

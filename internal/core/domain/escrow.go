package domain

import "fmt"

type EscrowOutcome uint8

const (
	EscrowOutcomePending EscrowOutcome = iota
	EscrowOutcomeReleased
	EscrowOutcomeRefunded
)

func (o EscrowOutcome) String() string {
	return []string{"Pending", "Released", "Refunded"}[o]
}

// EscrowRecord holds custody of an escrowed offer's funds until the settlement
// coordinator releases or refunds them. The completion flag is monotonic:
// once set, the record is terminal on either path.
//
// Buyer is recorded from the originator of the top-level request, which can
// diverge from the logical offer buyer if the settlement engine is ever
// invoked through another intermediary.
type EscrowRecord struct {
	ID         uint64
	Asset      AssetRef
	Seller     string
	Buyer      string
	Price      uint64
	Completed  bool
	Outcome    EscrowOutcome
	CreatedAt  int64
	ResolvedAt int64
}

func NewEscrowRecord(asset AssetRef, seller, buyer string, price uint64, now int64) EscrowRecord {
	return EscrowRecord{
		Asset:     asset,
		Seller:    seller,
		Buyer:     buyer,
		Price:     price,
		Outcome:   EscrowOutcomePending,
		CreatedAt: now,
	}
}

// Complete marks the escrow released to the seller. Terminal.
func (e *EscrowRecord) Complete(now int64) error {
	return e.close(EscrowOutcomeReleased, now)
}

// Cancel marks the escrow refunded to the buyer. Terminal: a canceled escrow
// sets the same completion flag, so it can be neither completed nor canceled
// again.
func (e *EscrowRecord) Cancel(now int64) error {
	return e.close(EscrowOutcomeRefunded, now)
}

func (e *EscrowRecord) close(outcome EscrowOutcome, now int64) error {
	if e.Completed {
		return fmt.Errorf("escrow %d already completed as %s", e.ID, e.Outcome)
	}
	e.Completed = true
	e.Outcome = outcome
	e.ResolvedAt = now
	return nil
}

package domain

// Investment is a non-binding fractional-investment record against a listed
// asset. Entries are append-only and carry no settlement semantics. The
// ledger does not cap the cumulative share claimed across investors, each
// entry is independent bookkeeping.
type Investment struct {
	Asset     AssetRef
	Investor  string
	Amount    uint64
	SharePct  uint64
	CreatedAt int64
}

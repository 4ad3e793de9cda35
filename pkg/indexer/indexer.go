package indexer

import "context"

// Indexer runs indexing cycles against the chain.
// A cycle reads the watermark, fetches one page of transactions, applies every
// transaction above the watermark and then advances the watermark.
type Indexer interface {
	// RunCycle performs a single indexing cycle.
	// On error the watermark is left at the last fully applied version.
	RunCycle(ctx context.Context) (CycleResult, error)
}

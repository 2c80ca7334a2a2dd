package full_node

import (
	"context"
	"time"

	"github.com/Luismorlan/utxo_ledger/model"
)

// Watch polls the node every interval and calls fn, in order, for each block appended since the
// previous poll. Blocks already in the chain when Watch starts are not reported. The node lock is
// only held while taking a snapshot, never while waiting or while fn runs.
// Watch returns the context error once ctx is done.
func (f *FullNode) Watch(ctx context.Context, interval time.Duration, fn func(height int, b model.Block)) error {
	seen := f.GetHeight()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			blocks := f.GetBlocksSnapshot(seen + 1)
			for i, b := range blocks {
				fn(seen+1+i, b)
			}
			seen += len(blocks)
		}
	}
}

package mmaparray

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RangeWrite pairs a block with the pre-computed row it lands at.
type RangeWrite struct {
	Start int64
	Block Block
}

// WriteRanges copies jobs into the store concurrently. The store must be
// pre-sized: every job has to fit inside the current extent, because growth
// during a concurrent fill would remap the region under the workers. Callers
// are responsible for handing out disjoint ranges; overlapping jobs produce
// last-writer-wins bytes in the overlap.
//
// The append cursor is not touched.
func (w *Writer) WriteRanges(ctx context.Context, jobs []RangeWrite, workers int) error {
	if w.closed {
		return ErrClosed
	}
	if workers <= 0 {
		workers = len(jobs)
	}
	for _, j := range jobs {
		if !j.Block.trailingMatches(w.shape) {
			return fmt.Errorf("%w: block shape %v against array shape %v",
				ErrNoMatchingBlocks, j.Block.Shape, w.shape)
		}
		if !j.Block.sized(w.dtype) {
			return fmt.Errorf("%w: shape %v, %d bytes", ErrBlockSize, j.Block.Shape, len(j.Block.Data))
		}
		if j.Start < 0 || j.Start+j.Block.Rows() > w.shape[0] {
			return fmt.Errorf("%w: range [%d, %d) of %d rows (pre-size the store before a concurrent fill)",
				ErrOutOfRange, j.Start, j.Start+j.Block.Rows(), w.shape[0])
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			copy(w.data[j.Start*w.rowBytes:], j.Block.Data)
			return nil
		})
	}
	return g.Wait()
}

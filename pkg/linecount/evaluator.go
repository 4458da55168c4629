// Package linecount measures the lines of text present in commit snapshots and
// collects them into a series across a commit's ancestry.
package linecount

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/linetrend/pkg/gitlib"
	"github.com/Sumatoshi-tech/linetrend/pkg/objcache"
	"github.com/Sumatoshi-tech/linetrend/pkg/treewalk"
)

// Evaluator computes the total line count of one commit's tree.
type Evaluator struct {
	blobs  gitlib.BlobSource
	walker *treewalk.Walker
}

// NewEvaluator creates an Evaluator reading trees and blobs from store.
func NewEvaluator(store gitlib.ObjectStore) *Evaluator {
	return &Evaluator{
		blobs:  store,
		walker: treewalk.New(store),
	}
}

// Evaluate sums the line counts of every text blob reachable from the
// commit's root tree. Blob metrics come from cache and are computed on first
// sight only, so evaluating a commit against a warm cache reads no blob
// content. Sub-tree and submodule entries contribute nothing.
func (e *Evaluator) Evaluate(ctx context.Context, commit gitlib.Commit, cache *objcache.Cache) (int, error) {
	total := 0

	err := e.walker.Walk(ctx, commit.Tree).ForEach(func(entry treewalk.Entry) error {
		if !entry.Kind.IsBlob() {
			return nil
		}

		metric, err := cache.LookupOrCompute(ctx, entry.Hash, entry.Kind, e.blobs.ReadBlob)
		if err != nil {
			return err
		}

		total += metric.Lines()

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("evaluate commit %s: %w", commit.Hash.Short(), err)
	}

	return total, nil
}

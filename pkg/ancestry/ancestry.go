// Package ancestry produces the commits reachable from a starting commit,
// each exactly once, in topological or committer-time order.
package ancestry

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/emirpasic/gods/queues/priorityqueue"
	"github.com/hashicorp/go-set/v2"

	"github.com/Sumatoshi-tech/linetrend/pkg/gitlib"
)

// Options configures an ancestry traversal.
type Options struct {
	Ordering Ordering
	// FirstParent follows only the first parent of merge commits.
	FirstParent bool
	// Limit caps the number of commits produced. Zero means no limit.
	Limit int
}

// Iterator yields ancestors of a start commit. The reachable set is resolved
// on the first call to Next or Len, so a missing parent fails the traversal
// before any commit is produced.
type Iterator struct {
	ctx    context.Context
	source gitlib.CommitSource
	start  gitlib.Commit
	opts   Options

	resolved bool
	order    []gitlib.Commit
	pos      int
	err      error
}

// New creates an Iterator starting at start.
func New(ctx context.Context, source gitlib.CommitSource, start gitlib.Commit, opts Options) *Iterator {
	return &Iterator{
		ctx:    ctx,
		source: source,
		start:  start,
		opts:   opts,
	}
}

// Next returns the next commit, or io.EOF once the ancestry is exhausted.
func (it *Iterator) Next() (gitlib.Commit, error) {
	err := it.resolve()
	if err != nil {
		return gitlib.Commit{}, err
	}

	if it.pos >= len(it.order) {
		return gitlib.Commit{}, io.EOF
	}

	commit := it.order[it.pos]
	it.pos++

	return commit, nil
}

// Len returns the total number of commits the iterator produces.
func (it *Iterator) Len() (int, error) {
	err := it.resolve()
	if err != nil {
		return 0, err
	}

	return len(it.order), nil
}

func (it *Iterator) resolve() error {
	if it.resolved {
		return it.err
	}

	it.resolved = true

	graph, err := discover(it.ctx, it.source, it.start, it.opts.FirstParent)
	if err != nil {
		it.err = err

		return err
	}

	switch it.opts.Ordering {
	case TimeDescending:
		it.order = graph.byTime()
	default:
		it.order = graph.topological()
	}

	if it.opts.Limit > 0 && len(it.order) > it.opts.Limit {
		it.order = it.order[:it.opts.Limit]
	}

	return nil
}

// dag is the reachable sub-graph, parents restricted to followed edges.
type dag struct {
	start   gitlib.Commit
	commits map[gitlib.Hash]gitlib.Commit
	parents map[gitlib.Hash][]gitlib.Hash
}

func discover(ctx context.Context, source gitlib.CommitSource, start gitlib.Commit, firstParent bool) (*dag, error) {
	graph := &dag{
		start:   start,
		commits: map[gitlib.Hash]gitlib.Commit{start.Hash: start},
		parents: make(map[gitlib.Hash][]gitlib.Hash),
	}

	visited := set.New[gitlib.Hash](64)
	visited.Insert(start.Hash)

	stack := []gitlib.Commit{start}

	for len(stack) > 0 {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return nil, ctxErr
		}

		commit := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		parents := followedParents(commit, firstParent)
		graph.parents[commit.Hash] = parents

		for _, parentHash := range parents {
			if !visited.Insert(parentHash) {
				continue
			}

			parent, err := source.LookupCommit(ctx, parentHash)
			if err != nil {
				return nil, fmt.Errorf("resolve parent %s of %s: %w", parentHash.Short(), commit.Hash.Short(), err)
			}

			graph.commits[parentHash] = parent
			stack = append(stack, parent)
		}
	}

	return graph, nil
}

func followedParents(commit gitlib.Commit, firstParent bool) []gitlib.Hash {
	if len(commit.Parents) == 0 {
		return nil
	}

	if firstParent {
		return commit.Parents[:1]
	}

	parents := make([]gitlib.Hash, 0, len(commit.Parents))
	for _, p := range commit.Parents {
		if !slices.Contains(parents, p) {
			parents = append(parents, p)
		}
	}

	return parents
}

// newerFirst orders by committer time descending, then by hash ascending.
func newerFirst(a, b gitlib.Commit) int {
	switch {
	case a.When.After(b.When):
		return -1
	case a.When.Before(b.When):
		return 1
	default:
		return a.Hash.Compare(b.Hash)
	}
}

// byTime pins the start commit first and orders the rest newest first.
func (g *dag) byTime() []gitlib.Commit {
	rest := make([]gitlib.Commit, 0, len(g.commits)-1)

	for hash, commit := range g.commits {
		if hash != g.start.Hash {
			rest = append(rest, commit)
		}
	}

	slices.SortFunc(rest, newerFirst)

	return append([]gitlib.Commit{g.start}, rest...)
}

// topological runs Kahn's algorithm over child -> parent edges. Among commits
// whose children have all been produced, the newest goes first.
func (g *dag) topological() []gitlib.Commit {
	pendingChildren := make(map[gitlib.Hash]int, len(g.commits))

	for _, parents := range g.parents {
		for _, p := range parents {
			pendingChildren[p]++
		}
	}

	ready := priorityqueue.NewWith(func(a, b any) int {
		ca, _ := a.(gitlib.Commit)
		cb, _ := b.(gitlib.Commit)

		return newerFirst(ca, cb)
	})
	ready.Enqueue(g.start)

	order := make([]gitlib.Commit, 0, len(g.commits))

	for !ready.Empty() {
		value, _ := ready.Dequeue()
		commit, _ := value.(gitlib.Commit)

		order = append(order, commit)

		for _, p := range g.parents[commit.Hash] {
			pendingChildren[p]--
			if pendingChildren[p] == 0 {
				ready.Enqueue(g.commits[p])
			}
		}
	}

	return order
}

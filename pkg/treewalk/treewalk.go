// Package treewalk flattens a git tree into its reachable entries, breadth first.
package treewalk

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"

	"github.com/oleiade/lane/v2"

	"github.com/Sumatoshi-tech/linetrend/pkg/gitlib"
)

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("tree walk closed")

// Entry is one entry reachable from a root tree.
type Entry struct {
	Path []string
	Kind gitlib.EntryKind
	Hash gitlib.Hash
}

// PathString returns the slash-separated path.
func (e Entry) PathString() string {
	return strings.Join(e.Path, "/")
}

// Name returns the last path component.
func (e Entry) Name() string {
	if len(e.Path) == 0 {
		return ""
	}

	return e.Path[len(e.Path)-1]
}

// Walker produces the entries reachable from root trees.
type Walker struct {
	trees gitlib.TreeSource
}

// New creates a Walker reading trees from trees.
func New(trees gitlib.TreeSource) *Walker {
	return &Walker{trees: trees}
}

// Walk starts a fresh breadth-first walk of root. Nothing is read until the
// first call to Next.
func (w *Walker) Walk(ctx context.Context, root gitlib.Hash) *EntryIter {
	return &EntryIter{
		ctx:     ctx,
		trees:   w.trees,
		pending: lane.NewQueue(pendingTree{hash: root}),
	}
}

type pendingTree struct {
	path []string
	hash gitlib.Hash
}

// EntryIter yields tree entries level by level. All entries of a tree are
// yielded before any of its sub-trees is read. Sub-trees are descended into;
// blobs, symlinks and submodule pointers are not. An EntryIter is not restartable.
type EntryIter struct {
	ctx     context.Context
	trees   gitlib.TreeSource
	pending *lane.Queue[pendingTree]
	current []Entry
	idx     int
	err     error
}

// Next returns the next entry, io.EOF when the walk is complete, or the
// error that stopped it.
func (it *EntryIter) Next() (Entry, error) {
	for it.idx >= len(it.current) {
		if it.err != nil {
			return Entry{}, it.err
		}

		next, ok := it.pending.Dequeue()
		if !ok {
			return Entry{}, io.EOF
		}

		err := it.load(next)
		if err != nil {
			it.err = err

			return Entry{}, err
		}
	}

	entry := it.current[it.idx]
	it.idx++

	return entry, nil
}

// ForEach calls cb for each remaining entry and stops at the first error.
func (it *EntryIter) ForEach(cb func(Entry) error) error {
	for {
		entry, err := it.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		cbErr := cb(entry)
		if cbErr != nil {
			return cbErr
		}
	}
}

// Close stops the walk; subsequent Next calls return ErrClosed.
func (it *EntryIter) Close() {
	it.current = nil
	it.idx = 0
	it.err = ErrClosed
}

func (it *EntryIter) load(tree pendingTree) error {
	ctxErr := it.ctx.Err()
	if ctxErr != nil {
		return ctxErr
	}

	entries, err := it.trees.LookupTree(it.ctx, tree.hash)
	if err != nil {
		return err
	}

	prefix := slices.Clip(tree.path)
	current := make([]Entry, 0, len(entries))

	for _, e := range entries {
		path := append(prefix, e.Name)

		current = append(current, Entry{Path: path, Kind: e.Kind, Hash: e.Hash})

		if e.Kind.IsTree() {
			it.pending.Enqueue(pendingTree{path: path, hash: e.Hash})
		}
	}

	it.current = current
	it.idx = 0

	return nil
}

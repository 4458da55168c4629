package gitlib_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/linetrend/pkg/gitlib"
)

func TestMemStoreContentIdentity(t *testing.T) {
	t.Parallel()

	store := gitlib.NewMemStore()

	first := store.AddBlob([]byte("a\nb\n"))
	second := store.AddBlob([]byte("a\nb\n"))
	other := store.AddBlob([]byte("c\n"))

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)

	// Git's identity for the blob "a\nb\n".
	assert.Equal(t, "422c2b7ab3b3c668038da977e4e93a5fc623169c", first.String())
}

func TestMemStoreCountsBlobReads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := gitlib.NewMemStore()
	hash := store.AddBlob([]byte("x"))

	for range 3 {
		data, err := store.ReadBlob(ctx, hash)
		require.NoError(t, err)
		assert.Equal(t, []byte("x"), data)
	}

	assert.Equal(t, 3, store.BlobReads(hash))
	assert.Equal(t, 3, store.TotalBlobReads())
}

func TestMemStoreCommitsAreDistinct(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := gitlib.NewMemStore()
	tree := store.AddTree()
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))

	first := store.AddCommit(tree, when)
	second := store.AddCommit(tree, when, first)

	assert.NotEqual(t, first, second)

	commit, err := store.LookupCommit(ctx, second)
	require.NoError(t, err)

	assert.Equal(t, tree, commit.Tree)
	assert.Equal(t, []gitlib.Hash{first}, commit.Parents)
	assert.True(t, when.Equal(commit.When))
	assert.False(t, commit.IsMerge())
}

func TestMemStoreRemoveYieldsObjectAccessError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := gitlib.NewMemStore()
	blob := store.AddBlob([]byte("gone"))
	tree := store.AddTree(gitlib.File("f", blob))

	store.Remove(blob)
	store.Remove(tree)

	_, err := store.ReadBlob(ctx, blob)
	require.ErrorIs(t, err, gitlib.ErrObjectAccess)

	var accessErr *gitlib.ObjectAccessError

	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, gitlib.ObjectBlob, accessErr.Kind)
	assert.Equal(t, blob, accessErr.Hash)
	assert.ErrorIs(t, err, gitlib.ErrObjectNotFound)

	_, err = store.LookupTree(ctx, tree)
	assert.ErrorIs(t, err, gitlib.ErrObjectAccess)
}

func TestEntryKind(t *testing.T) {
	t.Parallel()

	assert.True(t, gitlib.KindBlob.IsBlob())
	assert.True(t, gitlib.KindBlobExecutable.IsBlob())
	assert.True(t, gitlib.KindSymlink.IsBlob())
	assert.False(t, gitlib.KindTree.IsBlob())
	assert.False(t, gitlib.KindSubmodule.IsBlob())
	assert.True(t, gitlib.KindTree.IsTree())
	assert.Equal(t, "submodule", gitlib.KindSubmodule.String())
	assert.Equal(t, "unknown", gitlib.EntryKind(42).String())
}

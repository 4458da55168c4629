// Package gittest builds real libgit2 repositories for integration tests.
package gittest

import (
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/linetrend/pkg/gitlib"
)

// Repo is a non-bare repository in a temporary directory.
type Repo struct {
	t      testing.TB
	Path   string
	native *git2go.Repository
}

// NewRepo initializes an empty repository that is freed when the test ends.
func NewRepo(t testing.TB) *Repo {
	t.Helper()

	dir := t.TempDir()

	native, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	t.Cleanup(native.Free)

	return &Repo{t: t, Path: dir, native: native}
}

// Blob writes content as a blob object.
func (r *Repo) Blob(content string) gitlib.Hash {
	r.t.Helper()

	oid, err := r.native.CreateBlobFromBuffer([]byte(content))
	require.NoError(r.t, err)

	return gitlib.HashFromOid(oid)
}

// Tree writes a tree object with the given entries.
func (r *Repo) Tree(entries ...gitlib.TreeEntry) gitlib.Hash {
	r.t.Helper()

	builder, err := r.native.TreeBuilder()
	require.NoError(r.t, err)

	defer builder.Free()

	for _, e := range entries {
		err = builder.Insert(e.Name, e.Hash.ToOid(), filemode(e.Kind))
		require.NoError(r.t, err)
	}

	oid, err := builder.Write()
	require.NoError(r.t, err)

	return gitlib.HashFromOid(oid)
}

// Commit writes a commit for tree and moves a detached HEAD to it.
func (r *Repo) Commit(tree gitlib.Hash, when time.Time, parents ...gitlib.Hash) gitlib.Hash {
	r.t.Helper()

	nativeTree, err := r.native.LookupTree(tree.ToOid())
	require.NoError(r.t, err)

	defer nativeTree.Free()

	nativeParents := make([]*git2go.Commit, 0, len(parents))

	for _, p := range parents {
		parent, lookupErr := r.native.LookupCommit(p.ToOid())
		require.NoError(r.t, lookupErr)

		nativeParents = append(nativeParents, parent)
	}

	defer func() {
		for _, p := range nativeParents {
			p.Free()
		}
	}()

	sig := &git2go.Signature{
		Name:  "Test User",
		Email: "test@example.com",
		When:  when,
	}

	oid, err := r.native.CreateCommit("", sig, sig, "commit at "+when.Format(time.RFC3339), nativeTree, nativeParents...)
	require.NoError(r.t, err)

	err = r.native.SetHeadDetached(oid)
	require.NoError(r.t, err)

	return gitlib.HashFromOid(oid)
}

// Open opens the repository through gitlib and frees it when the test ends.
func (r *Repo) Open() *gitlib.Repository {
	r.t.Helper()

	repo, err := gitlib.OpenRepository(r.Path)
	require.NoError(r.t, err)

	r.t.Cleanup(repo.Free)

	return repo
}

func filemode(kind gitlib.EntryKind) git2go.Filemode {
	switch kind {
	case gitlib.KindTree:
		return git2go.FilemodeTree
	case gitlib.KindBlobExecutable:
		return git2go.FilemodeBlobExecutable
	case gitlib.KindSymlink:
		return git2go.FilemodeLink
	case gitlib.KindSubmodule:
		return git2go.FilemodeCommit
	default:
		return git2go.FilemodeBlob
	}
}

package gitlib

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	git2go "github.com/libgit2/git2go/v34"
)

var scpLikeURI = regexp.MustCompile(`^[A-Za-z]\w*@[A-Za-z0-9][\w.]*:`)

var errTreeEntryMissing = errors.New("tree entry missing")

// Repository wraps a libgit2 repository.
// Lookups free their native objects before returning, so results are plain values.
type Repository struct {
	repo *git2go.Repository
	path string
}

// Discover finds the repository containing path, searching parent directories.
func Discover(path string) (*Repository, error) {
	if strings.Contains(path, "://") || scpLikeURI.MatchString(path) {
		return nil, fmt.Errorf("%w: %s", ErrRemoteNotSupported, path)
	}

	if path == "" {
		path = "."
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	_, statErr := os.Stat(abs)
	if statErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotARepository, path, statErr)
	}

	root, err := git2go.Discover(abs, false, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, path)
	}

	return OpenRepository(root)
}

// OpenRepository opens a git repository at the given path without searching parents.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrNotARepository, path, err)
	}

	return &Repository{repo: repo, path: path}, nil
}

// Path returns the repository path.
func (r *Repository) Path() string {
	return r.path
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// Head returns the commit hash HEAD points at.
func (r *Repository) Head() (Hash, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return Hash{}, fmt.Errorf("%w: %w", ErrNoHead, err)
	}
	defer ref.Free()

	target := ref.Target()
	if target == nil {
		return Hash{}, ErrNoHead
	}

	return HashFromOid(target), nil
}

// HeadCommit resolves HEAD to a commit.
func (r *Repository) HeadCommit(ctx context.Context) (Commit, error) {
	head, err := r.Head()
	if err != nil {
		return Commit{}, err
	}

	return r.LookupCommit(ctx, head)
}

// ResolveRevision resolves a revision expression (branch, tag, "HEAD~3", hash prefix)
// to the commit it names.
func (r *Repository) ResolveRevision(rev string) (Hash, error) {
	obj, err := r.repo.RevparseSingle(rev)
	if err != nil {
		return Hash{}, fmt.Errorf("resolve revision %q: %w", rev, err)
	}
	defer obj.Free()

	peeled, err := obj.Peel(git2go.ObjectCommit)
	if err != nil {
		return Hash{}, fmt.Errorf("revision %q is not a commit: %w", rev, err)
	}
	defer peeled.Free()

	return HashFromOid(peeled.Id()), nil
}

// LookupCommit returns the commit with the given hash.
func (r *Repository) LookupCommit(_ context.Context, hash Hash) (Commit, error) {
	commit, err := r.repo.LookupCommit(hash.ToOid())
	if err != nil {
		return Commit{}, NewObjectAccessError(ObjectCommit, hash, err)
	}
	defer commit.Free()

	count := commit.ParentCount()
	parents := make([]Hash, 0, count)

	for i := range count {
		parents = append(parents, HashFromOid(commit.ParentId(i)))
	}

	return Commit{
		Hash:    hash,
		Tree:    HashFromOid(commit.TreeId()),
		Parents: parents,
		When:    commit.Committer().When,
	}, nil
}

// LookupTree returns the direct entries of the tree with the given hash.
func (r *Repository) LookupTree(_ context.Context, hash Hash) ([]TreeEntry, error) {
	tree, err := r.repo.LookupTree(hash.ToOid())
	if err != nil {
		return nil, NewObjectAccessError(ObjectTree, hash, err)
	}
	defer tree.Free()

	count := tree.EntryCount()
	entries := make([]TreeEntry, 0, count)

	for i := range count {
		entry := tree.EntryByIndex(i)
		if entry == nil {
			return nil, NewObjectAccessError(ObjectTree, hash, fmt.Errorf("%w: index %d", errTreeEntryMissing, i))
		}

		entries = append(entries, TreeEntry{
			Name: entry.Name,
			Hash: HashFromOid(entry.Id),
			Kind: kindFromFilemode(entry.Filemode),
		})
	}

	return entries, nil
}

// ReadBlob returns a copy of the blob's raw contents.
func (r *Repository) ReadBlob(_ context.Context, hash Hash) ([]byte, error) {
	blob, err := r.repo.LookupBlob(hash.ToOid())
	if err != nil {
		return nil, NewObjectAccessError(ObjectBlob, hash, err)
	}
	defer blob.Free()

	return blob.Contents(), nil
}

// SetObjectCacheLimit bounds libgit2's process-wide decompressed object cache.
// It is a performance hint only; a non-positive limit leaves the default in place.
func SetObjectCacheLimit(maxBytes int64) error {
	if maxBytes <= 0 {
		return nil
	}

	err := git2go.SetCacheMaxSize(int(maxBytes))
	if err != nil {
		return fmt.Errorf("set object cache size: %w", err)
	}

	return nil
}

var _ ObjectStore = (*Repository)(nil)

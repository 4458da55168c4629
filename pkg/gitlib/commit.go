package gitlib

import (
	"context"
	"time"
)

// Commit is a read-only snapshot of a commit object.
type Commit struct {
	// Hash is the commit's own content identity.
	Hash Hash
	// Tree is the identity of the commit's root tree.
	Tree Hash
	// Parents lists parent commit identities in recorded order.
	Parents []Hash
	// When is the committer timestamp including its UTC offset.
	When time.Time
}

// IsMerge returns true if the commit has more than one parent.
func (c Commit) IsMerge() bool {
	return len(c.Parents) > 1
}

// CommitSource resolves commit identities to commits.
type CommitSource interface {
	LookupCommit(ctx context.Context, hash Hash) (Commit, error)
}

// TreeSource reads the direct entries of a tree object.
type TreeSource interface {
	LookupTree(ctx context.Context, hash Hash) ([]TreeEntry, error)
}

// BlobSource reads the raw bytes of a blob object.
type BlobSource interface {
	ReadBlob(ctx context.Context, hash Hash) ([]byte, error)
}

// ObjectStore is the full read-only object access surface.
type ObjectStore interface {
	CommitSource
	TreeSource
	BlobSource
}

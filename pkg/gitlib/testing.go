package gitlib

import (
	"context"
	"crypto/sha1" //nolint:gosec // git object identities are SHA-1.
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrObjectNotFound is returned by MemStore for identities it does not hold.
var ErrObjectNotFound = errors.New("object not found")

// MemStore is an in-memory ObjectStore for tests.
// Identities are SHA-1 digests of a git-like serialization, so equal content
// always yields an equal Hash. Every read is counted per identity.
type MemStore struct {
	mu        sync.Mutex
	commits   map[Hash]Commit
	trees     map[Hash][]TreeEntry
	blobs     map[Hash][]byte
	blobReads map[Hash]int
	treeReads map[Hash]int
	seq       uint64
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		commits:   make(map[Hash]Commit),
		trees:     make(map[Hash][]TreeEntry),
		blobs:     make(map[Hash][]byte),
		blobReads: make(map[Hash]int),
		treeReads: make(map[Hash]int),
	}
}

// AddBlob stores content and returns its identity.
func (s *MemStore) AddBlob(content []byte) Hash {
	hash := objectHash("blob", content)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[hash] = append([]byte(nil), content...)

	return hash
}

// AddTree stores a tree with the given entries and returns its identity.
func (s *MemStore) AddTree(entries ...TreeEntry) Hash {
	var payload []byte

	for _, e := range entries {
		payload = fmt.Appendf(payload, "%d %s\x00", e.Kind, e.Name)
		payload = append(payload, e.Hash[:]...)
	}

	hash := objectHash("tree", payload)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.trees[hash] = append([]TreeEntry(nil), entries...)

	return hash
}

// AddCommit stores a commit pointing at tree and returns its identity.
func (s *MemStore) AddCommit(tree Hash, when time.Time, parents ...Hash) Hash {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++

	payload := fmt.Appendf(nil, "tree %s\n", tree)
	for _, p := range parents {
		payload = fmt.Appendf(payload, "parent %s\n", p)
	}

	payload = fmt.Appendf(payload, "committer %s\n", when.Format(time.RFC3339Nano))
	payload = binary.BigEndian.AppendUint64(payload, s.seq)

	hash := objectHash("commit", payload)

	s.commits[hash] = Commit{
		Hash:    hash,
		Tree:    tree,
		Parents: append([]Hash(nil), parents...),
		When:    when,
	}

	return hash
}

// Remove deletes any object with the given identity, simulating a corrupt store.
func (s *MemStore) Remove(hash Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.commits, hash)
	delete(s.trees, hash)
	delete(s.blobs, hash)
}

// BlobReads returns how many times the blob was read.
func (s *MemStore) BlobReads(hash Hash) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.blobReads[hash]
}

// TotalBlobReads returns the number of blob reads across all identities.
func (s *MemStore) TotalBlobReads() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, n := range s.blobReads {
		total += n
	}

	return total
}

// TreeReads returns how many times the tree was read.
func (s *MemStore) TreeReads(hash Hash) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.treeReads[hash]
}

// LookupCommit returns the stored commit.
func (s *MemStore) LookupCommit(_ context.Context, hash Hash) (Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	commit, ok := s.commits[hash]
	if !ok {
		return Commit{}, NewObjectAccessError(ObjectCommit, hash, ErrObjectNotFound)
	}

	return commit, nil
}

// LookupTree returns the stored tree entries.
func (s *MemStore) LookupTree(_ context.Context, hash Hash) ([]TreeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.trees[hash]
	if !ok {
		return nil, NewObjectAccessError(ObjectTree, hash, ErrObjectNotFound)
	}

	s.treeReads[hash]++

	return append([]TreeEntry(nil), entries...), nil
}

// ReadBlob returns a copy of the stored blob.
func (s *MemStore) ReadBlob(_ context.Context, hash Hash) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.blobs[hash]
	if !ok {
		return nil, NewObjectAccessError(ObjectBlob, hash, ErrObjectNotFound)
	}

	s.blobReads[hash]++

	return append([]byte(nil), data...), nil
}

// File returns a plain blob tree entry.
func File(name string, hash Hash) TreeEntry {
	return TreeEntry{Name: name, Hash: hash, Kind: KindBlob}
}

// Dir returns a sub-tree entry.
func Dir(name string, hash Hash) TreeEntry {
	return TreeEntry{Name: name, Hash: hash, Kind: KindTree}
}

func objectHash(kind string, payload []byte) Hash {
	h := sha1.New() //nolint:gosec // git object identities are SHA-1.
	fmt.Fprintf(h, "%s %d\x00", kind, len(payload))
	h.Write(payload)

	var out Hash
	copy(out[:], h.Sum(nil))

	return out
}

var _ ObjectStore = (*MemStore)(nil)

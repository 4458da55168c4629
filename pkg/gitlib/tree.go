package gitlib

import (
	git2go "github.com/libgit2/git2go/v34"
)

// EntryKind is the type of a tree entry, derived from its file mode.
type EntryKind uint8

// Tree entry kinds.
const (
	KindTree EntryKind = iota
	KindBlob
	KindBlobExecutable
	KindSymlink
	KindSubmodule
)

var entryKindNames = [...]string{
	KindTree:           "tree",
	KindBlob:           "blob",
	KindBlobExecutable: "blob-executable",
	KindSymlink:        "symlink",
	KindSubmodule:      "submodule",
}

// String returns the lowercase kind name.
func (k EntryKind) String() string {
	if int(k) < len(entryKindNames) {
		return entryKindNames[k]
	}

	return "unknown"
}

// IsBlob returns true for plain, executable and symlink blobs.
func (k EntryKind) IsBlob() bool {
	return k == KindBlob || k == KindBlobExecutable || k == KindSymlink
}

// IsTree returns true for sub-tree entries.
func (k EntryKind) IsTree() bool {
	return k == KindTree
}

// TreeEntry is a single named entry of a tree object.
type TreeEntry struct {
	Name string
	Hash Hash
	Kind EntryKind
}

// kindFromFilemode maps a libgit2 file mode to an EntryKind.
func kindFromFilemode(mode git2go.Filemode) EntryKind {
	switch mode {
	case git2go.FilemodeTree:
		return KindTree
	case git2go.FilemodeBlobExecutable:
		return KindBlobExecutable
	case git2go.FilemodeLink:
		return KindSymlink
	case git2go.FilemodeCommit:
		return KindSubmodule
	default:
		return KindBlob
	}
}

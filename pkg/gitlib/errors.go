package gitlib

import (
	"errors"
	"fmt"
)

// Sentinel errors raised by repository access.
var (
	// ErrNotARepository is returned when no repository exists at or above a path.
	ErrNotARepository = errors.New("not a git repository")
	// ErrNoHead is returned when the repository has no current commit.
	ErrNoHead = errors.New("repository has no HEAD commit")
	// ErrObjectAccess matches every ObjectAccessError via errors.Is.
	ErrObjectAccess = errors.New("object access failed")
	// ErrRemoteNotSupported is returned when a remote repository URI is provided.
	ErrRemoteNotSupported = errors.New("remote repositories not supported")
)

// ObjectKind names the type of object that could not be read.
type ObjectKind string

// Object kinds reported by ObjectAccessError.
const (
	ObjectCommit ObjectKind = "commit"
	ObjectTree   ObjectKind = "tree"
	ObjectBlob   ObjectKind = "blob"
)

// ObjectAccessError reports a commit, tree or blob that is missing or corrupt.
type ObjectAccessError struct {
	Kind ObjectKind
	Hash Hash
	Err  error
}

// NewObjectAccessError wraps err for the object identified by kind and hash.
func NewObjectAccessError(kind ObjectKind, hash Hash, err error) *ObjectAccessError {
	return &ObjectAccessError{Kind: kind, Hash: hash, Err: err}
}

func (e *ObjectAccessError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("read %s %s: %v", e.Kind, e.Hash, ErrObjectAccess)
	}

	return fmt.Sprintf("read %s %s: %v", e.Kind, e.Hash, e.Err)
}

// Unwrap returns the underlying storage error.
func (e *ObjectAccessError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrObjectAccess.
func (e *ObjectAccessError) Is(target error) bool {
	return target == ErrObjectAccess
}

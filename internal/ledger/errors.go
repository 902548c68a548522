package ledger

import (
	"errors"
	"fmt"
)

// Entity kinds used in not-found errors.
const (
	KindCheckpoint  = "checkpoint"
	KindTransaction = "transaction"
	KindObject      = "object"
	KindEpoch       = "epoch"
	KindFunction    = "function"
)

// NotFoundError reports that a single key has no corresponding entity.
// It is a per-item condition, distinct from an upstream transport fault:
// one absent key never fails the batch or page it was requested in.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// NotFound builds a NotFoundError for the given entity kind and key.
func NotFound(kind, key string) error {
	return &NotFoundError{Kind: kind, Key: key}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

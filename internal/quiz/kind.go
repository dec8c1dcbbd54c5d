package quiz

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind is returned for a question kind outside the closed set below
	ErrUnknownKind = errors.New("quiz: unknown question kind")
	// ErrInvalidDescriptor is returned when a descriptor or item payload is malformed
	ErrInvalidDescriptor = errors.New("quiz: invalid descriptor")
)

// Kind tags a set descriptor and every question built from it
type Kind string

const (
	KindDefault      Kind = "default"
	KindNumericRange Kind = "numeric_range"
	KindVocab        Kind = "vocab"
	KindUnion        Kind = "union"
)

// ParseKind validates a kind name as found in descriptor files and the store
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindDefault, KindNumericRange, KindVocab, KindUnion:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Leaf reports whether sets of this kind own items directly
func (k Kind) Leaf() bool {
	return k != KindUnion
}

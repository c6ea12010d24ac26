package metadata

import (
	"context"
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNoItems     = errors.New("no data found")
	ErrInvalidISBN = errors.New("invalid ISBN")
)

// Kind classifies a catalog lookup failure
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindStatus
	KindDecode
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// FetchError is returned for a failed lookup of a single ISBN
type FetchError struct {
	Kind       Kind
	ISBN       string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("lookup isbn %s: %s: status %d", e.ISBN, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("lookup isbn %s: %s: %v", e.ISBN, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or 0 if err is not a FetchError
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

// Provider defines the interface for catalog lookup services
type Provider interface {
	// Name returns the provider identifier (e.g., "googlebooks")
	Name() string

	// LookupByISBN runs one catalog query for an ISBN (10 or 13)
	LookupByISBN(ctx context.Context, isbn string) (*CatalogResponse, error)
}

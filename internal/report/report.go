// Package report prints the cached book document and a summary of its first
// record.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/justyntemme/bookcache/internal/records"
	"github.com/justyntemme/bookcache/internal/storage"
)

// Kind classifies a retrieval failure
type Kind int

const (
	KindMissingKey Kind = iota + 1
	KindMalformed
	KindEmpty
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindMissingKey:
		return "missing-key"
	case KindMalformed:
		return "malformed"
	case KindEmpty:
		return "empty"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// ReportError is returned when the stored document cannot be reported
type ReportError struct {
	Kind Kind
	Key  string
	Err  error
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("retrieve %s: %s: %v", e.Key, e.Kind, e.Err)
}

func (e *ReportError) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or 0 if err is not a ReportError
func KindOf(err error) Kind {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}

var errNoItems = errors.New("document has no items")

// summaryColumns must all be present on the first record
var summaryColumns = []string{"title", "authors", "averageRating", "ratingsCount"}

// Summary is the printed view of the first stored record
type Summary struct {
	Title         string
	Authors       []string
	AverageRating any
	RatingsCount  any
}

// Reporter prints stored documents
type Reporter struct {
	out    io.Writer
	logger *zap.Logger
}

// NewReporter creates a reporter writing to out
func NewReporter(out io.Writer, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{out: out, logger: logger}
}

// Report fetches the document at key, prints it whole and then prints the
// title, authors and ratings of its first item
func (r *Reporter) Report(ctx context.Context, store storage.DocumentStore, key string) (*Summary, error) {
	data, err := store.GetDocument(ctx, key)
	if err != nil {
		kind := KindStore
		if storage.KindOf(err) == storage.KindNotFound {
			kind = KindMissingKey
		}
		return nil, r.fail(&ReportError{Kind: kind, Key: key, Err: err})
	}

	doc, err := records.Decode(data)
	if err != nil {
		return nil, r.fail(&ReportError{Kind: KindMalformed, Key: key, Err: err})
	}

	pretty, err := doc.Encode()
	if err != nil {
		return nil, r.fail(&ReportError{Kind: KindMalformed, Key: key, Err: err})
	}
	fmt.Fprintln(r.out, string(pretty))

	if len(doc.Items) == 0 {
		return nil, r.fail(&ReportError{Kind: KindEmpty, Key: key, Err: errNoItems})
	}

	first := doc.Items[0]
	for _, col := range summaryColumns {
		if !first.Has(col) {
			return nil, r.fail(&ReportError{Kind: KindMalformed, Key: key, Err: fmt.Errorf("first item has no %q column", col)})
		}
	}

	// Blank-filled ratings print as ""
	summary := &Summary{
		Title:         first.Title(),
		Authors:       first.Authors(),
		AverageRating: "",
		RatingsCount:  "",
	}
	if rating, ok := first.AverageRating(); ok {
		summary.AverageRating = rating
	}
	if count, ok := first.RatingsCount(); ok {
		summary.RatingsCount = count
	}

	fmt.Fprintf(r.out, "Title: %s\n", summary.Title)
	fmt.Fprintf(r.out, "Authors: %s\n", strings.Join(summary.Authors, ", "))
	fmt.Fprintf(r.out, "Average Rating: %v\n", summary.AverageRating)
	fmt.Fprintf(r.out, "Ratings Count: %v\n", summary.RatingsCount)

	return summary, nil
}

func (r *Reporter) fail(err *ReportError) error {
	r.logger.Error("Error in retrieving data",
		zap.String("key", err.Key),
		zap.Stringer("kind", err.Kind),
		zap.Error(err.Err))
	return err
}

package metadata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Retention decides which successful responses survive a fetch cycle
type Retention string

const (
	// RetainLast keeps only the most recent successful response
	RetainLast Retention = "last"
	// RetainAll keeps every successful response in input order
	RetainAll Retention = "accumulate"
)

// ParseRetention validates a retention policy name
func ParseRetention(s string) (Retention, error) {
	switch Retention(s) {
	case "":
		return RetainLast, nil
	case RetainLast, RetainAll:
		return Retention(s), nil
	default:
		return "", fmt.Errorf("unknown retention policy %q", s)
	}
}

// FetchResult is the outcome of one fetch cycle over a batch of ISBNs
type FetchResult struct {
	Responses []*CatalogResponse
	Failures  []*FetchError
	Empty     []string
}

// Service runs catalog lookups for a batch of ISBNs
type Service struct {
	provider  Provider
	retention Retention
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// NewService creates a metadata service. rps <= 0 disables rate limiting.
func NewService(provider Provider, retention Retention, rps float64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retention == "" {
		retention = RetainLast
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Every(time.Duration(float64(time.Second) / rps))
	}
	return &Service{
		provider:  provider,
		retention: retention,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
	}
}

// FetchAll looks up every ISBN in order. A failed lookup is logged and
// recorded, and the loop moves on to the next ISBN.
func (s *Service) FetchAll(ctx context.Context, isbns []string) *FetchResult {
	result := &FetchResult{}

	for _, isbn := range isbns {
		if err := s.limiter.Wait(ctx); err != nil {
			result.Failures = append(result.Failures, &FetchError{Kind: KindNetwork, ISBN: isbn, Err: err})
			s.logger.Error("Failed to fetch data from the API", zap.String("isbn", isbn), zap.Error(err))
			break
		}

		resp, err := s.provider.LookupByISBN(ctx, isbn)
		if err != nil {
			var fe *FetchError
			if !errors.As(err, &fe) {
				fe = &FetchError{Kind: KindNetwork, ISBN: isbn, Err: err}
			}
			result.Failures = append(result.Failures, fe)
			s.logger.Error("Failed to fetch data from the API",
				zap.String("isbn", isbn),
				zap.Stringer("kind", fe.Kind),
				zap.Error(err))
			continue
		}
		if resp == nil {
			resp = &CatalogResponse{}
		}
		resp.ISBN = isbn

		s.logger.Debug("Fetched catalog response",
			zap.String("isbn", isbn),
			zap.String("provider", s.provider.Name()),
			zap.Int("items", len(resp.Items)))

		switch s.retention {
		case RetainAll:
			result.Responses = append(result.Responses, resp)
		default:
			result.Responses = []*CatalogResponse{resp}
		}
	}

	for _, resp := range result.Responses {
		if !resp.HasItems() {
			result.Empty = append(result.Empty, resp.ISBN)
			s.logger.Warn("No data found for ISBN", zap.String("isbn", resp.ISBN))
		}
	}

	return result
}

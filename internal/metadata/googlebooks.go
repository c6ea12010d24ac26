package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the Google Books API host
const DefaultBaseURL = "https://www.googleapis.com"

// GoogleBooksProvider implements the Provider interface for the Google Books API
type GoogleBooksProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewGoogleBooksProvider creates a new Google Books provider.
// An empty baseURL selects DefaultBaseURL.
func NewGoogleBooksProvider(apiKey, baseURL string, timeout time.Duration) *GoogleBooksProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleBooksProvider{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// Name returns the provider identifier
func (p *GoogleBooksProvider) Name() string {
	return "googlebooks"
}

// LookupByISBN queries the volumes endpoint with q=isbn:<isbn>
func (p *GoogleBooksProvider) LookupByISBN(ctx context.Context, isbn string) (*CatalogResponse, error) {
	normalized := normalizeISBN(isbn)
	if normalized == "" {
		return nil, &FetchError{Kind: KindInvalid, ISBN: isbn, Err: ErrInvalidISBN}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.volumesURL(normalized), nil)
	if err != nil {
		return nil, &FetchError{Kind: KindInvalid, ISBN: isbn, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, ISBN: isbn, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			Kind:       KindStatus,
			ISBN:       isbn,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %d", resp.StatusCode),
		}
	}

	var data CatalogResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, &FetchError{Kind: KindDecode, ISBN: isbn, Err: err}
	}
	data.ISBN = isbn

	return &data, nil
}

// volumesURL builds the search URL for a normalized ISBN
func (p *GoogleBooksProvider) volumesURL(isbn string) string {
	params := url.Values{}
	params.Set("q", "isbn:"+isbn)
	if p.apiKey != "" {
		params.Set("key", p.apiKey)
	}
	return fmt.Sprintf("%s/books/v1/volumes?%s", p.baseURL, params.Encode())
}

// normalizeISBN removes hyphens and spaces from ISBN
func normalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	// Handle URN format
	isbn = strings.TrimPrefix(strings.ToLower(isbn), "urn:isbn:")
	// A lowercase x check digit is upper-cased
	return strings.ToUpper(strings.TrimSpace(isbn))
}

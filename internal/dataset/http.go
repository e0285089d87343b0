package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rewired-gh/polysoccer/internal/models"
)

// HTTPSource fetches the dataset from static HTTP resources.
// Each load is a single attempt bounded by the client timeout.
type HTTPSource struct {
	eventsURL       string
	priceHistoryURL string
	httpClient      *http.Client
}

// NewHTTPSource creates a source for the two resource URLs.
func NewHTTPSource(eventsURL, priceHistoryURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		eventsURL:       eventsURL,
		priceHistoryURL: priceHistoryURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// LoadEvents fetches the full catalog.
func (s *HTTPSource) LoadEvents(ctx context.Context) ([]models.Event, error) {
	body, err := s.doRequest(ctx, s.eventsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	defer body.Close()
	return DecodeEvents(body)
}

// LoadPriceHistory fetches the bulk price-history lookup.
func (s *HTTPSource) LoadPriceHistory(ctx context.Context) (models.PriceLookup, error) {
	body, err := s.doRequest(ctx, s.priceHistoryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price history: %w", err)
	}
	defer body.Close()
	return DecodePriceHistory(body)
}

// Close releases idle connections.
func (s *HTTPSource) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

func (s *HTTPSource) doRequest(ctx context.Context, urlStr string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

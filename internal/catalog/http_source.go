package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/abgdnv/catalogsearch/pkg/config"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPSourceConfig configures an HTTPSource.
type HTTPSourceConfig struct {
	URL string
	// Timeout bounds a single fetch. Zero means no timeout.
	Timeout        time.Duration
	CircuitBreaker config.CircuitBreakerConfig
}

// HTTPSource fetches the record set with one GET request to a fixed URL.
// It never retries and never caches.
type HTTPSource struct {
	url     string
	timeout time.Duration
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]Record]
	logger  *slog.Logger
}

var _ Source = (*HTTPSource)(nil)

// NewHTTPSource creates an HTTPSource. A nil client uses a client with an otelhttp transport.
func NewHTTPSource(cfg HTTPSourceConfig, client *http.Client, logger *slog.Logger) *HTTPSource {
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	logger = logger.With("component", "catalog_source")
	return &HTTPSource{
		url:     cfg.URL,
		timeout: cfg.Timeout,
		client:  client,
		breaker: newBreaker(cfg.CircuitBreaker, logger),
		logger:  logger,
	}
}

// Fetch performs one round trip to the catalog endpoint.
// Non-2xx responses and transport failures are returned as *FetchError.
func (s *HTTPSource) Fetch(ctx context.Context) ([]Record, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	records, err := s.breaker.Execute(func() ([]Record, error) {
		return s.fetch(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		s.logger.WarnContext(ctx, "Catalog fetch rejected by circuit breaker", "error", err)
		return nil, &FetchError{Message: "catalog source is unavailable", Err: err}
	}
	return records, err
}

func (s *HTTPSource) fetch(ctx context.Context) ([]Record, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, newTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.WarnContext(ctx, "Catalog endpoint returned non-success status", "status", resp.StatusCode)
		return nil, newStatusError(resp.StatusCode)
	}

	var records []Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	if records == nil {
		records = []Record{}
	}
	s.logger.DebugContext(ctx, "Catalog fetched",
		"count", len(records),
		"duration_ms", float64(time.Since(start).Nanoseconds())/1e6)
	return records, nil
}

func newBreaker(cfg config.CircuitBreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[[]Record] {
	st := gobreaker.Settings{
		Name:        "catalog-source-cb",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if cfg.ConsecutiveFailures == 0 {
				return false
			}
			total := counts.TotalSuccesses + counts.TotalFailures
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures ||
				(total > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(total)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return gobreaker.NewCircuitBreaker[[]Record](st)
}

// isSuccessful decides which errors count against the breaker. Cancellation means the
// fetch was superseded and client errors say nothing about endpoint health.
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var fe *FetchError
	if errors.As(err, &fe) && fe.StatusCode >= 400 && fe.StatusCode < 500 {
		return true
	}
	return false
}

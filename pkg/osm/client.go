package osm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/osmtools/nearway/pkg/core"
	"github.com/osmtools/nearway/pkg/geo"
	"github.com/osmtools/nearway/pkg/tracing"
)

const (
	// DefaultUserAgent is the default User-Agent string
	DefaultUserAgent = UserAgent

	// defaultDocumentTTL controls how long a parsed document is reused
	// before a bounding box is fetched again.
	defaultDocumentTTL = 15 * time.Minute
)

var (
	// Global HTTP client with connection pooling
	httpClient *http.Client

	// Rate limiter for the OSM API
	apiLimiter *rate.Limiter

	// User agent string
	userAgent     string
	userAgentLock sync.RWMutex
)

func init() {
	httpClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: 30 * time.Second,
	}

	// The OSM API asks clients to stay around 1 request per second.
	apiLimiter = rate.NewLimiter(rate.Limit(1), 1)

	SetUserAgent(DefaultUserAgent)
}

// UpdateAPIRateLimits updates the OSM API rate limiter.
func UpdateAPIRateLimits(rps float64, burst int) {
	apiLimiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// SetUserAgent sets the User-Agent string
func SetUserAgent(ua string) {
	userAgentLock.Lock()
	defer userAgentLock.Unlock()
	userAgent = ua
}

// GetUserAgent returns the current User-Agent string
func GetUserAgent() string {
	userAgentLock.RLock()
	defer userAgentLock.RUnlock()
	return userAgent
}

// waitForRateLimit blocks until the OSM API rate limiter admits a request.
func waitForRateLimit(ctx context.Context) error {
	if apiLimiter.Allow() {
		return nil
	}

	startWait := time.Now()
	tracing.AddEvent(ctx, "rate_limit_wait",
		trace.WithAttributes(
			attribute.String(tracing.AttrRateLimitService, "osm-api"),
		),
	)

	err := apiLimiter.Wait(ctx)

	waitDuration := time.Since(startWait)
	tracing.SetAttributes(ctx,
		attribute.String(tracing.AttrRateLimitService, "osm-api"),
		attribute.Int64(tracing.AttrRateLimitWaitMs, waitDuration.Milliseconds()),
	)
	notifyRateLimit(waitDuration)

	return err
}

// Client fetches map documents from the OSM API and caches the parsed
// results per bounding box.
type Client struct {
	baseURL string
	logger  *slog.Logger
	cache   *TTLCache[string, *Document]
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the OSM API base URL, mainly for tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithDocumentTTL overrides how long parsed documents are cached.
func WithDocumentTTL(ttl time.Duration) ClientOption {
	return func(c *Client) { c.cache = NewTTLCache[string, *Document](ttl) }
}

// WithLogger sets the logger for the client.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a new OSM API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: APIBaseURL,
		logger:  slog.Default(),
		cache:   NewTTLCache[string, *Document](defaultDocumentTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CachedDocuments returns the number of parsed documents currently cached.
func (c *Client) CachedDocuments() int {
	return c.cache.Len()
}

// FetchMap returns the document for the given bounding box, fetching and
// decoding it if no cached copy exists. The returned document is shared
// between callers and must be treated as read-only.
func (c *Client) FetchMap(ctx context.Context, bbox *geo.BoundingBox) (*Document, error) {
	key := bbox.QueryString()

	if doc, ok := c.cache.Get(key); ok {
		notifyCache(true)
		c.logger.Debug("document cache hit", "bbox", key)
		return doc, nil
	}
	notifyCache(false)

	ctx, span := tracing.StartSpan(ctx, "osm.fetch_map",
		trace.WithAttributes(
			attribute.String(tracing.AttrBBox, key),
		),
	)
	defer span.End()

	if err := waitForRateLimit(ctx); err != nil {
		return nil, fmt.Errorf("waiting for OSM API rate limit: %w", err)
	}

	reqURL := fmt.Sprintf("%s/map?bbox=%s", c.baseURL, url.QueryEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating map request: %w", err)
	}
	req.Header.Set("User-Agent", GetUserAgent())

	start := time.Now()
	resp, err := core.WithRetry(ctx, req, httpClient, core.DefaultRetryOptions)
	if err != nil {
		notifyFetch(time.Since(start), false)
		return nil, fmt.Errorf("fetching OSM map: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		notifyFetch(time.Since(start), false)
		return nil, fmt.Errorf("OSM API returned status %d", resp.StatusCode)
	}

	doc, err := DecodeDocument(resp.Body)
	if err != nil {
		notifyFetch(time.Since(start), false)
		return nil, err
	}
	notifyFetch(time.Since(start), true)

	tracing.SetAttributes(ctx,
		attribute.Int(tracing.AttrNodeCount, len(doc.Nodes)),
		attribute.Int(tracing.AttrWayCount, len(doc.Ways)),
	)
	c.logger.Info("fetched OSM map",
		"bbox", key,
		"nodes", len(doc.Nodes),
		"ways", len(doc.Ways),
		"duration", time.Since(start))

	c.cache.Set(key, doc)
	return doc, nil
}

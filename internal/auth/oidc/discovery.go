package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/devilmonastery/multioauth/internal/pkg/metrics"
	"github.com/devilmonastery/multioauth/internal/pkg/urlutil"
)

// ErrBadDomain is returned for a domain that is not a bare host[:port]
var ErrBadDomain = errors.New("domain must be a bare host name")

// Endpoints are the three metadata URLs a strategy needs
type Endpoints struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
}

// cachedDiscovery holds discovered endpoints with their expiration time
type cachedDiscovery struct {
	endpoints *Endpoints
	expiresAt time.Time
}

// Discoverer fetches and caches OpenID provider metadata by domain
type Discoverer struct {
	cache  map[string]*cachedDiscovery
	mu     sync.RWMutex
	ttl    time.Duration
	client *http.Client
	scheme string
	now    func() time.Time
}

// DiscovererOption customizes a Discoverer
type DiscovererOption func(*Discoverer)

// WithHTTPClient replaces the client used for metadata requests
func WithHTTPClient(c *http.Client) DiscovererOption {
	return func(d *Discoverer) { d.client = c }
}

// WithScheme replaces the https scheme, for test servers
func WithScheme(scheme string) DiscovererOption {
	return func(d *Discoverer) { d.scheme = scheme }
}

// NewDiscoverer creates a discoverer whose successful lookups are cached for ttl
func NewDiscoverer(ttl, timeout time.Duration, opts ...DiscovererOption) *Discoverer {
	d := &Discoverer{
		cache:  make(map[string]*cachedDiscovery),
		ttl:    ttl,
		client: &http.Client{Timeout: timeout},
		scheme: "https",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discover returns the endpoints published at https://{domain}/.well-known/openid-configuration.
// Failures are not cached.
func (d *Discoverer) Discover(ctx context.Context, domain string) (*Endpoints, error) {
	if !urlutil.ValidDomain(domain) {
		return nil, ErrBadDomain
	}

	d.mu.RLock()
	cached, exists := d.cache[domain]
	d.mu.RUnlock()

	if exists && d.now().Before(cached.expiresAt) {
		metrics.DiscoveryCache.WithLabelValues("hit").Inc()
		return cached.endpoints, nil
	}
	metrics.DiscoveryCache.WithLabelValues("miss").Inc()

	// The fetch runs unlocked so a slow provider does not stall lookups of other domains
	endpoints, err := d.fetch(ctx, domain)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.cache[domain] = &cachedDiscovery{
		endpoints: endpoints,
		expiresAt: d.now().Add(d.ttl),
	}
	d.mu.Unlock()

	return endpoints, nil
}

func (d *Discoverer) fetch(ctx context.Context, domain string) (*Endpoints, error) {
	discoveryURL := urlutil.DomainDiscoveryURL(d.scheme, domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discovery document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var doc Endpoints
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode discovery document: %w", err)
	}

	if doc.AuthorizationEndpoint == "" || doc.TokenEndpoint == "" {
		return nil, fmt.Errorf("incomplete discovery document from %s", domain)
	}

	return &doc, nil
}

// Package geo resolves the country of a visitor IP through ipinfo.io.
package geo

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/zaplinker/backend/internal/cache"
	"github.com/zaplinker/backend/internal/logger"
	"github.com/zaplinker/backend/internal/metrics"
	"github.com/zaplinker/backend/internal/telemetry"
	"go.uber.org/zap"
)

const (
	// CountryLocal is reported for loopback and private addresses.
	CountryLocal = "Local"
	// CountryUnknown is reported when the lookup fails or has no answer.
	CountryUnknown = "Unknown"

	cacheTTL      = 24 * time.Hour
	maxLocalCache = 10000
)

// Resolver maps an IP address to a country code.
type Resolver interface {
	Country(ctx context.Context, ip string) string
}

// IPInfoResolver queries ipinfo.io and memoizes answers in Redis, or in process without Redis.
type IPInfoResolver struct {
	client *resty.Client
	token  string
	redis  *cache.RedisClient

	mu    sync.RWMutex
	local map[string]string
}

type ipInfoResponse struct {
	Country string `json:"country"`
}

// NewIPInfoResolver creates a resolver against baseURL. rc may be nil.
func NewIPInfoResolver(baseURL, token string, rc *cache.RedisClient) *IPInfoResolver {
	client := resty.New()
	client.SetTransport(telemetry.NewHTTPTransport(nil))
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(3 * time.Second)
	client.SetHeader("Accept", "application/json")
	client.SetHeader("User-Agent", "Zaplinker/1.0")

	return &IPInfoResolver{
		client: client,
		token:  token,
		redis:  rc,
		local:  make(map[string]string),
	}
}

// Country never fails: errors degrade to CountryUnknown.
func (r *IPInfoResolver) Country(ctx context.Context, ip string) string {
	m := metrics.Get()

	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		m.GeoLookupsTotal.WithLabelValues("invalid").Inc()
		return CountryUnknown
	}
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified() {
		m.GeoLookupsTotal.WithLabelValues("local").Inc()
		return CountryLocal
	}
	key := addr.String()

	if country, ok := r.cached(ctx, key); ok {
		m.GeoLookupsTotal.WithLabelValues("cache").Inc()
		return country
	}

	country, err := r.fetch(ctx, key)
	if err != nil {
		m.GeoLookupsTotal.WithLabelValues("error").Inc()
		logger.Log.Debug("Country lookup failed", logger.WithIP(key), zap.Error(err))
		return CountryUnknown
	}
	m.GeoLookupsTotal.WithLabelValues("api").Inc()
	r.remember(ctx, key, country)
	return country
}

func (r *IPInfoResolver) fetch(ctx context.Context, ip string) (string, error) {
	var body ipInfoResponse
	req := r.client.R().SetContext(ctx).SetResult(&body)
	if r.token != "" {
		req.SetQueryParam("token", r.token)
	}

	resp, err := req.Get("/" + ip + "/json")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("ipinfo returned status %d", resp.StatusCode())
	}
	if body.Country == "" {
		return CountryUnknown, nil
	}
	return body.Country, nil
}

func geoKey(ip string) string {
	return "zl:geo:" + ip
}

func (r *IPInfoResolver) cached(ctx context.Context, ip string) (string, bool) {
	if r.redis != nil {
		country, err := r.redis.Get(ctx, geoKey(ip))
		if err == nil {
			return country, true
		}
		if !cache.IsMiss(err) {
			logger.Log.Debug("Geo cache read failed", zap.Error(err))
		}
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	country, ok := r.local[ip]
	return country, ok
}

func (r *IPInfoResolver) remember(ctx context.Context, ip, country string) {
	if r.redis != nil {
		if err := r.redis.SetEx(ctx, geoKey(ip), country, cacheTTL); err != nil {
			logger.Log.Debug("Geo cache write failed", zap.Error(err))
		}
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.local) >= maxLocalCache {
		r.local = make(map[string]string)
	}
	r.local[ip] = country
}

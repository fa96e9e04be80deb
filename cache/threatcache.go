package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// AnalysisRecord is the minimal shape the threat cache needs to decide a
// TTL; composite.Result satisfies it.
type AnalysisRecord interface {
	GetThreatScore() int
	GetRiskLevel() string
}

// ThreatCache specializes Cache for URL-analysis and threat-intel records,
// applying a verdict-dependent TTL policy and a fixed key schema.
type ThreatCache struct {
	cache       *Cache
	ttlPositive time.Duration
	ttlNegative time.Duration
}

// NewThreatCache wraps a Cache with the TTL policy. ttlPositive/ttlNegative
// come from config.CacheConfig.
func NewThreatCache(c *Cache, ttlPositive, ttlNegative time.Duration) *ThreatCache {
	return &ThreatCache{cache: c, ttlPositive: ttlPositive, ttlNegative: ttlNegative}
}

// GetURLAnalysis retrieves a cached analysis result for url, if present.
func (t *ThreatCache) GetURLAnalysis(ctx context.Context, url string, dest interface{}) bool {
	return t.cache.Get(ctx, urlAnalysisKey(url), dest)
}

// SetURLAnalysis caches result under a TTL chosen by verdict severity:
//   - risk_level == "critical" or threat_score >= 90: no expiry
//   - threat_score >= 60: ttlPositive (7 days)
//   - otherwise: ttlNegative (24 hours)
func (t *ThreatCache) SetURLAnalysis(ctx context.Context, url string, result AnalysisRecord) {
	score := result.GetThreatScore()
	risk := result.GetRiskLevel()

	var ttl time.Duration
	switch {
	case risk == "critical" || score >= 90:
		ttl = 0 // permanent, until manual review
	case score >= 60:
		ttl = t.ttlPositive
	default:
		ttl = t.ttlNegative
	}

	t.cache.Set(ctx, urlAnalysisKey(url), result, ttl)
}

// GetThreatIntel retrieves a cached per-source threat-intel sub-record.
func (t *ThreatCache) GetThreatIntel(ctx context.Context, source, identifier string, dest interface{}) bool {
	return t.cache.Get(ctx, threatIntelKey(source, identifier), dest)
}

// SetThreatIntel caches a per-source threat-intel sub-record. A zero ttl
// defaults to ttlNegative, matching the reference cache's behavior.
func (t *ThreatCache) SetThreatIntel(ctx context.Context, source, identifier string, value interface{}, ttl time.Duration) {
	if ttl == 0 {
		ttl = t.ttlNegative
	}
	t.cache.Set(ctx, threatIntelKey(source, identifier), value, ttl)
}

func urlAnalysisKey(url string) string {
	return "url_analysis:" + hashKey(strings.ToLower(strings.TrimSpace(url)))
}

func threatIntelKey(source, identifier string) string {
	return "threatintel:" + source + ":" + hashKey(identifier)
}

func hashKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}

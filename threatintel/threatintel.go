// Package threatintel aggregates three independent external sources (a
// multi-vendor URL reputation service, a host reputation service, and a
// confirmed-phishing URL feed) into a single 0-100 score, plus a
// locally-tracked domain reputation ledger queryable on its own.
package threatintel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/enterprise-email/phishguard/cache"
	"github.com/enterprise-email/phishguard/config"
	"github.com/enterprise-email/phishguard/ratelimit"
)

// URLRepResult is Source A's per-URL sub-record.
type URLRepResult struct {
	Success      bool   `json:"success"`
	Detections   int    `json:"detections,omitempty"`
	Suspicious   int    `json:"suspicious,omitempty"`
	Harmless     int    `json:"harmless,omitempty"`
	TotalVendors int    `json:"total_vendors,omitempty"`
	Error        string `json:"error,omitempty"`
	WaitTime     float64 `json:"wait_time,omitempty"`
}

// HostRepResult is Source B's per-host sub-record.
type HostRepResult struct {
	Success        bool    `json:"success"`
	AbuseScore     int     `json:"abuse_confidence_score,omitempty"`
	TotalReports   int     `json:"total_reports,omitempty"`
	IsWhitelisted  bool    `json:"is_whitelisted,omitempty"`
	Error          string  `json:"error,omitempty"`
	WaitTime       float64 `json:"wait_time,omitempty"`
}

// FeedResult is Source C's feed-membership sub-record.
type FeedResult struct {
	Success     bool   `json:"success"`
	IsPhishing  bool   `json:"is_phishing"`
	FeedSize    int    `json:"feed_size"`
	LastUpdated string `json:"last_updated,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Result is the Threat Intel Aggregator's contract.
type Result struct {
	ThreatIntelScore int           `json:"threat_intel_score"`
	URLReputation    URLRepResult  `json:"url_reputation"`
	HostReputation   HostRepResult `json:"host_reputation"`
	PhishingFeed     FeedResult    `json:"phishing_feed"`
	Hits             int           `json:"hits"`
	Reasons          []string      `json:"reasons"`
}

// GetThreatScore/GetRiskLevel make Result satisfy cache.AnalysisRecord.
// Per-source caching stores the URLRepResult/HostRepResult sub-records,
// and the pipeline caches composite.Result, not this aggregate.
func (r Result) GetThreatScore() int    { return r.ThreatIntelScore }
func (r Result) GetRiskLevel() string   { return "" }

// httpDoer lets tests substitute a fake transport without a real network
// call.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Aggregator queries all three sources and fuses their verdicts.
type Aggregator struct {
	cfg    config.ThreatIntelConfig
	client httpDoer
	logger zerolog.Logger

	urlRepLimiter  *ratelimit.Limiter
	hostRepLimiter *ratelimit.Limiter

	// urlRepPacer/hostRepPacer smooth outbound call spacing within the
	// bespoke sliding-window budget above: the window limiter only bounds
	// the *count* per window, so a client could still legally burst all
	// of a window's calls in its first millisecond. The pacer bounds the
	// steady-state rate itself.
	urlRepPacer  *rate.Limiter
	hostRepPacer *rate.Limiter

	threatCache *cache.ThreatCache

	feed *phishingFeed

	ledger *reputationLedger
}

// New constructs an Aggregator. threatCache may be nil, in which case
// per-source responses are never cached.
func New(cfg config.ThreatIntelConfig, rateCfg config.RateLimitConfig, threatCache *cache.ThreatCache, logger zerolog.Logger) *Aggregator {
	logger = logger.With().Str("component", "threatintel").Logger()

	return &Aggregator{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		logger: logger,

		urlRepLimiter:  ratelimit.NewLimiter("url_reputation", rateCfg.URLRepMaxCalls, rateCfg.URLRepWindow, logger),
		hostRepLimiter: ratelimit.NewLimiter("host_reputation", rateCfg.HostRepMaxCalls, rateCfg.HostRepWindow, logger),

		urlRepPacer:  rate.NewLimiter(paceOf(rateCfg.URLRepMaxCalls, rateCfg.URLRepWindow), 1),
		hostRepPacer: rate.NewLimiter(paceOf(rateCfg.HostRepMaxCalls, rateCfg.HostRepWindow), 1),

		threatCache: threatCache,

		feed: newPhishingFeed(cfg.FeedURL, cfg.FeedRefreshInterval, cfg.FeedFetchTimeout, logger),

		ledger: newReputationLedger(),
	}
}

// CheckAll queries every source for rawURL and returns the fused result.
// No single source's failure fails the call: each degrades to a
// success:false sub-record.
func (a *Aggregator) CheckAll(ctx context.Context, rawURL string) Result {
	result := Result{Reasons: []string{}}

	feedResult := a.checkPhishingFeed(ctx, rawURL)
	result.PhishingFeed = feedResult
	if feedResult.IsPhishing {
		result.Hits++
		result.ThreatIntelScore += 40
		result.Reasons = append(result.Reasons, "Listed in phishing feed (confirmed phishing)")
	}

	if a.cfg.URLRepAPIKey != "" {
		urlRep := a.checkURLReputation(ctx, rawURL)
		result.URLReputation = urlRep
		if urlRep.Success {
			switch {
			case urlRep.Detections >= 5:
				result.Hits++
				result.ThreatIntelScore += 35
				result.Reasons = append(result.Reasons, fmt.Sprintf("URL reputation: %d vendors flagged as malicious", urlRep.Detections))
			case urlRep.Detections >= 2:
				result.ThreatIntelScore += 20
				result.Reasons = append(result.Reasons, fmt.Sprintf("URL reputation: %d vendors flagged (suspicious)", urlRep.Detections))
			}
		}
	}

	if a.cfg.HostRepAPIKey != "" {
		hostRep := a.checkHostReputation(ctx, rawURL)
		result.HostReputation = hostRep
		if hostRep.Success {
			switch {
			case hostRep.AbuseScore >= 75:
				result.Hits++
				result.ThreatIntelScore += 25
				result.Reasons = append(result.Reasons, fmt.Sprintf("Host reputation: %d%% abuse confidence", hostRep.AbuseScore))
			case hostRep.AbuseScore >= 50:
				result.ThreatIntelScore += 15
				result.Reasons = append(result.Reasons, fmt.Sprintf("Host reputation: moderate risk (%d%%)", hostRep.AbuseScore))
			}
		}
	}

	if result.ThreatIntelScore > 100 {
		result.ThreatIntelScore = 100
	}

	if host := hostOf(rawURL); host != "" {
		a.ledger.record(host, result.Hits > 0)
	}

	return result
}

// checkURLReputation queries Source A, respecting its rate limiter and
// the threat cache.
func (a *Aggregator) checkURLReputation(ctx context.Context, rawURL string) URLRepResult {
	if a.threatCache != nil {
		var cached URLRepResult
		if a.threatCache.GetThreatIntel(ctx, "url_reputation", rawURL, &cached) {
			return cached
		}
	}

	if !a.urlRepLimiter.CanCall() {
		wait := a.urlRepLimiter.WaitTime()
		a.logger.Warn().Dur("wait", wait).Msg("url reputation rate limit hit")
		return URLRepResult{Error: "rate_limited", WaitTime: wait.Seconds()}
	}
	if reservation := a.urlRepPacer.Reserve(); !reservation.OK() {
		return URLRepResult{Error: "rate_limited"}
	} else if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		a.logger.Warn().Dur("wait", delay).Msg("url reputation call paced out")
		return URLRepResult{Error: "rate_limited", WaitTime: delay.Seconds()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.URLRepBaseURL+"/urls", strings.NewReader(url.Values{"url": {rawURL}}.Encode()))
	if err != nil {
		return URLRepResult{Error: err.Error()}
	}
	req.Header.Set("x-apikey", a.cfg.URLRepAPIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	a.urlRepLimiter.AddCall()

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Error().Err(err).Msg("url reputation request failed")
		return URLRepResult{Error: "timeout"}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return URLRepResult{Error: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	stats, err := parseVendorStats(resp.Body)
	if err != nil {
		return URLRepResult{Error: err.Error()}
	}

	result := URLRepResult{
		Success:      true,
		Detections:   stats.malicious,
		Suspicious:   stats.suspicious,
		Harmless:     stats.harmless,
		TotalVendors: stats.malicious + stats.suspicious + stats.harmless + stats.undetected,
	}

	if a.threatCache != nil {
		a.threatCache.SetThreatIntel(ctx, "url_reputation", rawURL, result, 0)
	}

	return result
}

// checkHostReputation queries Source B, respecting its rate limiter and
// the threat cache.
func (a *Aggregator) checkHostReputation(ctx context.Context, rawURL string) HostRepResult {
	host := hostOf(rawURL)
	if host == "" {
		return HostRepResult{Error: "could not extract host"}
	}

	if a.threatCache != nil {
		var cached HostRepResult
		if a.threatCache.GetThreatIntel(ctx, "host_reputation", host, &cached) {
			return cached
		}
	}

	if !a.hostRepLimiter.CanCall() {
		wait := a.hostRepLimiter.WaitTime()
		a.logger.Warn().Dur("wait", wait).Msg("host reputation rate limit hit")
		return HostRepResult{Error: "rate_limited", WaitTime: wait.Seconds()}
	}
	if reservation := a.hostRepPacer.Reserve(); !reservation.OK() {
		return HostRepResult{Error: "rate_limited"}
	} else if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		a.logger.Warn().Dur("wait", delay).Msg("host reputation call paced out")
		return HostRepResult{Error: "rate_limited", WaitTime: delay.Seconds()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.HostRepBaseURL+"/check?ipAddress="+url.QueryEscape(host)+"&maxAgeInDays=90", nil)
	if err != nil {
		return HostRepResult{Error: err.Error()}
	}
	req.Header.Set("Key", a.cfg.HostRepAPIKey)
	req.Header.Set("Accept", "application/json")

	a.hostRepLimiter.AddCall()

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Error().Err(err).Msg("host reputation request failed")
		return HostRepResult{Error: "timeout"}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return HostRepResult{Error: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	abuseScore, totalReports, whitelisted, err := parseAbuseData(resp.Body)
	if err != nil {
		return HostRepResult{Error: err.Error()}
	}

	result := HostRepResult{
		Success:       true,
		AbuseScore:    abuseScore,
		TotalReports:  totalReports,
		IsWhitelisted: whitelisted,
	}

	if a.threatCache != nil {
		a.threatCache.SetThreatIntel(ctx, "host_reputation", host, result, 0)
	}

	return result
}

// checkPhishingFeed checks rawURL against the locally-cached feed, lazily
// refreshing it on a fixed interval.
func (a *Aggregator) checkPhishingFeed(ctx context.Context, rawURL string) FeedResult {
	return a.feed.check(ctx, rawURL)
}

// paceOf converts a "max calls per window" budget into a steady-state
// events-per-second rate for the smoothing pacer.
func paceOf(maxCalls int, window time.Duration) rate.Limit {
	if maxCalls <= 0 || window <= 0 {
		return rate.Inf
	}
	return rate.Every(window / time.Duration(maxCalls))
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		host := rawURL
		if idx := strings.Index(host, "://"); idx >= 0 {
			host = host[idx+3:]
		}
		if idx := strings.IndexAny(host, "/?#"); idx >= 0 {
			host = host[:idx]
		}
		return host
	}
	return u.Hostname()
}

// phishingFeed holds the locally-cached confirmed-phishing URL set. A
// lookup refetches it once the interval has elapsed since the last
// successful refresh (or on every lookup while none has succeeded);
// concurrent stale lookups share one singleflight-deduped fetch.
type phishingFeed struct {
	url      string
	interval time.Duration
	timeout  time.Duration
	client   httpDoer
	logger   zerolog.Logger

	group singleflight.Group

	mu          sync.RWMutex
	entries     map[string]bool
	lastUpdated time.Time
}

func newPhishingFeed(feedURL string, interval, timeout time.Duration, logger zerolog.Logger) *phishingFeed {
	return &phishingFeed{
		url:      feedURL,
		interval: interval,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("source", "phishing_feed").Logger(),
		entries:  make(map[string]bool),
	}
}

func (p *phishingFeed) check(ctx context.Context, rawURL string) FeedResult {
	p.refreshIfStale(ctx)

	p.mu.RLock()
	defer p.mu.RUnlock()

	normalized := strings.ToLower(strings.TrimSpace(rawURL))
	result := FeedResult{
		Success:    true,
		IsPhishing: p.entries[normalized],
		FeedSize:   len(p.entries),
	}
	if !p.lastUpdated.IsZero() {
		result.LastUpdated = p.lastUpdated.Format(time.RFC3339)
	}
	return result
}

func (p *phishingFeed) refreshIfStale(ctx context.Context) {
	p.mu.RLock()
	stale := p.lastUpdated.IsZero() || time.Since(p.lastUpdated) >= p.interval
	p.mu.RUnlock()
	if !stale {
		return
	}

	// Deduplicate concurrent refreshes across goroutines that all observed
	// a stale feed at once.
	_, _, _ = p.group.Do("refresh", func() (interface{}, error) {
		reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, p.url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := p.client.Do(req)
		if err != nil {
			p.logger.Warn().Err(err).Msg("phishing feed refresh failed")
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			p.logger.Warn().Int("status", resp.StatusCode).Msg("phishing feed refresh failed")
			return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		entries := make(map[string]bool)
		for _, line := range strings.Split(string(body), "\n") {
			line = strings.ToLower(strings.TrimSpace(line))
			if line != "" {
				entries[line] = true
			}
		}

		p.mu.Lock()
		p.entries = entries
		p.lastUpdated = time.Now()
		p.mu.Unlock()

		p.logger.Info().Int("count", len(entries)).Msg("phishing feed refreshed")
		return nil, nil
	})
}

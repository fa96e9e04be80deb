package threatintel

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/enterprise-email/phishguard/config"
)

// fakeDoer is a hand-written http.Client substitute: it never touches the
// network, matching the reference service's mockable requests.Session.
type fakeDoer struct {
	responses map[string]*http.Response
	calls     int
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.calls++
	for prefix, resp := range f.responses {
		if strings.HasPrefix(req.URL.Host, prefix) || strings.Contains(req.URL.Path, prefix) {
			return resp, nil
		}
	}
	return &http.Response{StatusCode: 404, Body: io.NopCloser(strings.NewReader(""))}, nil
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func testConfig() config.ThreatIntelConfig {
	return config.ThreatIntelConfig{
		FeedURL:             "https://feed.example/list.txt",
		FeedRefreshInterval: time.Hour,
		FeedFetchTimeout:    time.Second,
		RequestTimeout:      time.Second,
	}
}

func testRateCfg() config.RateLimitConfig {
	return config.RateLimitConfig{
		URLRepMaxCalls:  4,
		URLRepWindow:    time.Minute,
		HostRepMaxCalls: 1000,
		HostRepWindow:   24 * time.Hour,
	}
}

func TestCheckAll_PhishingFeedHit(t *testing.T) {
	a := New(testConfig(), testRateCfg(), nil, zerolog.Nop())
	a.feed.client = &fakeDoer{responses: map[string]*http.Response{
		"feed.example": jsonResponse(200, "https://evil.example/login\nhttps://another-bad.example\n"),
	}}

	result := a.CheckAll(context.Background(), "https://evil.example/login")

	if !result.PhishingFeed.IsPhishing {
		t.Fatal("expected feed hit for listed URL")
	}
	if result.ThreatIntelScore < 40 {
		t.Errorf("expected at least +40 from feed hit, got %d", result.ThreatIntelScore)
	}
	if result.Hits != 1 {
		t.Errorf("expected 1 hit, got %d", result.Hits)
	}
}

func TestCheckAll_URLReputationHighDetections(t *testing.T) {
	cfg := testConfig()
	cfg.URLRepAPIKey = "test-key"
	cfg.URLRepBaseURL = "https://urlrep.example"

	a := New(cfg, testRateCfg(), nil, zerolog.Nop())
	a.feed.client = &fakeDoer{responses: map[string]*http.Response{
		"feed.example": jsonResponse(200, ""),
	}}
	a.client = &fakeDoer{responses: map[string]*http.Response{
		"urlrep.example": jsonResponse(200, `{"data":{"attributes":{"stats":{"malicious":7,"suspicious":1,"harmless":60,"undetected":2}}}}`),
	}}

	result := a.CheckAll(context.Background(), "https://suspicious.example/pay")

	if !result.URLReputation.Success {
		t.Fatal("expected successful url reputation check")
	}
	if result.URLReputation.Detections != 7 {
		t.Errorf("expected 7 detections, got %d", result.URLReputation.Detections)
	}
	if result.ThreatIntelScore < 35 {
		t.Errorf("expected at least +35 score for high detections, got %d", result.ThreatIntelScore)
	}
}

func TestCheckAll_RateLimitedSourceDegradesGracefully(t *testing.T) {
	cfg := testConfig()
	cfg.URLRepAPIKey = "test-key"
	cfg.URLRepBaseURL = "https://urlrep.example"
	rateCfg := testRateCfg()
	rateCfg.URLRepMaxCalls = 0 // never allow a call through

	a := New(cfg, rateCfg, nil, zerolog.Nop())
	a.feed.client = &fakeDoer{responses: map[string]*http.Response{"feed.example": jsonResponse(200, "")}}

	result := a.CheckAll(context.Background(), "https://anything.example")

	if result.URLReputation.Success {
		t.Fatal("expected rate-limited url reputation check to fail gracefully")
	}
	if result.URLReputation.Error != "rate_limited" {
		t.Errorf("expected rate_limited error, got %q", result.URLReputation.Error)
	}
}

func TestAggregator_ScoreClampedAt100(t *testing.T) {
	cfg := testConfig()
	cfg.URLRepAPIKey = "vt"
	cfg.URLRepBaseURL = "https://urlrep.example"
	cfg.HostRepAPIKey = "abuse"
	cfg.HostRepBaseURL = "https://hostrep.example"

	a := New(cfg, testRateCfg(), nil, zerolog.Nop())
	a.feed.client = &fakeDoer{responses: map[string]*http.Response{
		"feed.example": jsonResponse(200, "https://evil.example/login\n"),
	}}
	a.client = &fakeDoer{responses: map[string]*http.Response{
		"urlrep.example":  jsonResponse(200, `{"data":{"attributes":{"stats":{"malicious":10,"suspicious":0,"harmless":0,"undetected":0}}}}`),
		"hostrep.example": jsonResponse(200, `{"data":{"abuseConfidenceScore":99,"totalReports":40,"isWhitelisted":false}}`),
	}}

	result := a.CheckAll(context.Background(), "https://evil.example/login")

	if result.ThreatIntelScore != 100 {
		t.Errorf("expected score clamped to 100, got %d", result.ThreatIntelScore)
	}
}

func TestReputationLedger_TracksHitRate(t *testing.T) {
	a := New(testConfig(), testRateCfg(), nil, zerolog.Nop())
	a.feed.client = &fakeDoer{responses: map[string]*http.Response{
		"feed.example": jsonResponse(200, "https://evil.example/login\n"),
	}}

	a.CheckAll(context.Background(), "https://evil.example/login")
	a.CheckAll(context.Background(), "https://evil.example/other")

	rep, ok := a.Lookup("evil.example")
	if !ok {
		t.Fatal("expected a tracked reputation entry for evil.example")
	}
	if rep.TotalChecks != 2 {
		t.Errorf("expected 2 total checks, got %d", rep.TotalChecks)
	}
	if rep.RiskLevel != RiskCritical {
		t.Errorf("expected critical risk after 2/2 hits, got %s", rep.RiskLevel)
	}
}

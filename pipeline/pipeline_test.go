package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/enterprise-email/phishguard/brandimpersonation"
	"github.com/enterprise-email/phishguard/composite"
	"github.com/enterprise-email/phishguard/config"
	"github.com/enterprise-email/phishguard/extractor"
	"github.com/enterprise-email/phishguard/heuristics"
	"github.com/enterprise-email/phishguard/lookalike"
	"github.com/enterprise-email/phishguard/mlscorer"
	"github.com/enterprise-email/phishguard/threatintel"
)

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	logger := zerolog.Nop()

	ext := extractor.New(extractor.ProbeConfig{TLSTimeout: 50 * time.Millisecond, WHOISTimeout: 50 * time.Millisecond}, logger)
	heur := heuristics.New(logger)
	look := lookalike.New(logger)
	brand := brandimpersonation.New(logger)
	intel := threatintel.New(config.ThreatIntelConfig{
		FeedURL:             "https://phishing-feed.invalid/list.txt",
		FeedRefreshInterval: time.Hour,
		FeedFetchTimeout:    50 * time.Millisecond,
		RequestTimeout:      50 * time.Millisecond,
	}, config.RateLimitConfig{URLRepMaxCalls: 4, URLRepWindow: time.Minute, HostRepMaxCalls: 1000, HostRepWindow: 24 * time.Hour}, nil, logger)
	ml := mlscorer.New(config.MLConfig{Enabled: false}, logger)
	comp := composite.New(config.ScoringConfig{
		WeightML: 0.40, WeightHeuristic: 0.25, WeightThreatIntel: 0.30, WeightLookalike: 0.05,
		ThresholdSafe: 30, ThresholdSuspicious: 60, ThresholdDangerous: 85,
	})

	return New(nil, ext, heur, look, brand, intel, ml, comp, logger)
}

func TestAnalyze_SuspiciousURLProducesVerdict(t *testing.T) {
	p := testPipeline(t)

	result, ok := p.Analyze(context.Background(), Request{URL: "https://microsoft-account-verify-update.tk/reset"})
	if !ok {
		t.Fatal("expected analysis to succeed")
	}
	if result.ThreatScore <= 0 {
		t.Errorf("expected a non-zero threat score for a suspicious URL, got %d", result.ThreatScore)
	}
	if result.Analysis.LookalikeBrand == "" {
		t.Error("expected a matched lookalike brand for a microsoft-impersonating domain")
	}
}

func TestAnalyze_BrandImpersonationRunsWithPageContext(t *testing.T) {
	p := testPipeline(t)

	result, ok := p.Analyze(context.Background(), Request{
		URL:       "https://secure-login-verify.invalid/account",
		PageTitle: "PayPal - Log in to your account",
		PageText:  "Please log in to your paypal account",
		CSSColors: []string{"#003087", "#009CDE"},
	})
	if !ok {
		t.Fatal("expected analysis to succeed")
	}
	if !result.Analysis.BrandImpersonation {
		t.Error("expected brand impersonation to be detected when page context is supplied")
	}
}

func TestAnalyze_InvalidURLFails(t *testing.T) {
	p := testPipeline(t)

	_, ok := p.Analyze(context.Background(), Request{URL: "://not-a-valid-url"})
	if ok {
		t.Error("expected analysis of an unparseable URL to report failure")
	}
}

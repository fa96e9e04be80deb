package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
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
	"github.com/enterprise-email/phishguard/pipeline"
	"github.com/enterprise-email/phishguard/threatintel"
)

func testHandler(t *testing.T) *Handler {
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
	p := pipeline.New(nil, ext, heur, look, brand, intel, ml, comp, logger)

	return NewHandler(p, intel, logger)
}

func TestHealthCheck(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("expected healthy status in body, got %s", w.Body.String())
	}
}

func TestAnalyzeURL_MissingURLReturnsBadRequest(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze/url", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAnalyzeURL_ValidRequestReturnsVerdict(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze/url", strings.NewReader(`{"url": "https://microsoft-account-verify-update.tk/reset"}`))
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "threat_score") {
		t.Errorf("expected a threat_score field in response, got %s", w.Body.String())
	}
}

func TestDomainReputation_ReturnsSources(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/threat-intel/domain/example.com", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "\"domain\":\"example.com\"") {
		t.Errorf("expected domain field in response, got %s", w.Body.String())
	}
}

package extractor

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestExtractor() *Extractor {
	return New(ProbeConfig{TLSTimeout: 50 * time.Millisecond, WHOISTimeout: 50 * time.Millisecond}, zerolog.Nop())
}

func TestExtract_BasicFeatures(t *testing.T) {
	e := newTestExtractor()

	f, err := e.Extract("https://www.google.com/search?q=test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.Domain != "www.google.com" {
		t.Errorf("expected domain www.google.com, got %s", f.Domain)
	}
	if !f.IsHTTPS {
		t.Error("expected is_https true")
	}
	if f.QueryParamCount != 1 {
		t.Errorf("expected 1 query param, got %d", f.QueryParamCount)
	}
	if f.HasIPAddress {
		t.Error("did not expect ip address flag")
	}
}

func TestExtract_IPAddressURL(t *testing.T) {
	e := newTestExtractor()

	f, err := e.Extract("http://192.168.14.22:8081/login?user=admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !f.HasIPAddress {
		t.Error("expected has_ip_address true")
	}
	if !f.UsesNonStandardPort {
		t.Error("expected uses_non_standard_port true")
	}
	if f.IsHTTPS {
		t.Error("expected is_https false")
	}
}

func TestExtract_SuspiciousTLD(t *testing.T) {
	e := newTestExtractor()

	f, err := e.Extract("https://microsoft-account-verify-update.tk/reset")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !f.HasSuspiciousTLD {
		t.Error("expected has_suspicious_tld true for .tk")
	}
	if f.SuspiciousKeywordCount < 2 {
		t.Errorf("expected multiple suspicious keywords, got %d", f.SuspiciousKeywordCount)
	}
	if f.HyphenCount < 2 {
		t.Errorf("expected multiple hyphens, got %d", f.HyphenCount)
	}
}

func TestExtract_SentinelsOnUnreachableProbes(t *testing.T) {
	e := newTestExtractor()

	// Not a real resolvable TLS host within the short test timeout; probes
	// must degrade to sentinel values rather than fail the extraction.
	f, err := e.Extract("https://definitely-not-a-real-domain-for-testing.invalid/path")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.DomainAgeDays != -1 {
		t.Errorf("expected sentinel domain age -1, got %d", f.DomainAgeDays)
	}
	if f.SSLCertificateAgeDays != -1 {
		t.Errorf("expected sentinel ssl age -1, got %d", f.SSLCertificateAgeDays)
	}
}

func TestShannonEntropy(t *testing.T) {
	if e := shannonEntropy(""); e != 0 {
		t.Errorf("expected 0 entropy for empty string, got %f", e)
	}
	if e := shannonEntropy("aaaa"); e != 0 {
		t.Errorf("expected 0 entropy for uniform string, got %f", e)
	}
	if e := shannonEntropy("ab"); e <= 0 {
		t.Errorf("expected positive entropy for mixed string, got %f", e)
	}
}

func TestSubdomainCount(t *testing.T) {
	if n := subdomainCount("www.example.com", "example.com"); n != 1 {
		t.Errorf("expected 1 subdomain, got %d", n)
	}
	if n := subdomainCount("a.b.c.example.com", "example.com"); n != 3 {
		t.Errorf("expected 3 subdomains, got %d", n)
	}
	if n := subdomainCount("example.com", "example.com"); n != 0 {
		t.Errorf("expected 0 subdomains for bare registrable domain, got %d", n)
	}
}

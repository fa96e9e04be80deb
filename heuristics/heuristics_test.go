package heuristics

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/enterprise-email/phishguard/extractor"
)

func TestScore_IPAddressURL(t *testing.T) {
	s := New(zerolog.Nop())

	f := &extractor.Features{
		HasIPAddress:        true,
		UsesNonStandardPort: true,
		IsHTTPS:             false,
		DomainAgeDays:       -1,
		SSLCertificateAgeDays: -1,
	}

	result := s.Score(f)
	if result.Score < 30 {
		t.Errorf("expected score >= 30 for IP-based URL, got %d", result.Score)
	}

	found := false
	for _, m := range result.MatchedRules {
		if m.Name == "IP address instead of domain" {
			found = true
		}
	}
	if !found {
		t.Error("expected IP address rule to match")
	}
}

func TestScore_ClampsAt100(t *testing.T) {
	s := New(zerolog.Nop())

	f := &extractor.Features{
		URLLength:              200,
		DomainLength:            50,
		SubdomainCount:          5,
		PathDepth:               10,
		QueryParamCount:         20,
		DigitRatio:              0.5,
		SpecialRatio:            0.5,
		HyphenCount:             5,
		URLEntropy:              5.0,
		DomainEntropy:           5.0,
		HasIPAddress:            true,
		HasSuspiciousTLD:        true,
		SuspiciousKeywordCount:  5,
		AtSymbol:                true,
		HasDoubleSlashRedirect:  true,
		PrefixSuffixInDomain:    true,
		UsesNonStandardPort:     true,
		IsHTTPS:                 true,
		HasValidSSL:             false,
		SSLCertificateAgeDays:   5,
		DomainRegisteredRecently: true,
		DomainAgeDays:           5,
	}

	result := s.Score(f)
	if result.Score != 100 {
		t.Errorf("expected score clamped to 100, got %d", result.Score)
	}
}

func TestScore_DynamicExplanation(t *testing.T) {
	s := New(zerolog.Nop())

	f := &extractor.Features{SuspiciousKeywordCount: 3, DomainAgeDays: -1, SSLCertificateAgeDays: -1}
	result := s.Score(f)

	for _, m := range result.MatchedRules {
		if m.Name == "Multiple suspicious keywords" {
			if m.Explanation != "Contains 3 phishing-related keywords" {
				t.Errorf("unexpected explanation: %s", m.Explanation)
			}
			return
		}
	}
	t.Error("expected suspicious keyword rule to match")
}

func TestScore_SafeURLMatchesNothing(t *testing.T) {
	s := New(zerolog.Nop())

	f := &extractor.Features{
		URLLength:     20,
		DomainLength:  10,
		IsHTTPS:       true,
		HasValidSSL:   true,
		DomainAgeDays: 3650,
		SSLCertificateAgeDays: 400,
	}

	result := s.Score(f)
	if result.Score != 0 {
		t.Errorf("expected score 0 for safe url, got %d", result.Score)
	}
}

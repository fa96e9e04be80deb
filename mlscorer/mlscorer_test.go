package mlscorer

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/enterprise-email/phishguard/config"
	"github.com/enterprise-email/phishguard/extractor"
)

func TestPredict_DisabledUsesFallback(t *testing.T) {
	s := New(config.MLConfig{Enabled: false}, zerolog.Nop())

	f := &extractor.Features{HasIPAddress: true, HasSuspiciousTLD: true, AtSymbol: true}
	result := s.Predict(context.Background(), f)

	if result.ModelUsed != modelFallback {
		t.Errorf("expected fallback model when disabled, got %s", result.ModelUsed)
	}
	if result.MLPrediction <= 0.5 {
		t.Errorf("expected a high phishing probability for an IP/suspicious-TLD URL, got %f", result.MLPrediction)
	}
}

func TestPredict_SafeFeaturesYieldLowProbability(t *testing.T) {
	s := New(config.MLConfig{Enabled: false}, zerolog.Nop())

	f := &extractor.Features{IsHTTPS: true, HasValidSSL: true, DomainRegisteredRecently: false}
	result := s.Predict(context.Background(), f)

	if result.MLPrediction > 0.5 {
		t.Errorf("expected a low phishing probability for a clean HTTPS URL, got %f", result.MLPrediction)
	}
}

func TestConfidenceOf(t *testing.T) {
	tests := []struct {
		prob float64
		want float64
	}{
		{0.5, 0},
		{1.0, 1.0},
		{0.0, 1.0},
		{0.75, 0.5},
	}
	for _, tt := range tests {
		if got := confidenceOf(tt.prob); got != tt.want {
			t.Errorf("confidenceOf(%f) = %f, want %f", tt.prob, got, tt.want)
		}
	}
}

func TestFallbackModel_FeatureImportanceCappedAtTen(t *testing.T) {
	m := newFallbackModel()
	result := m.predict(featureVector{
		HasIPAddress: true, HasSuspiciousTLD: true, AtSymbol: true,
		HasDoubleSlashRedirect: true, UsesNonStandardPort: true,
		DomainRegisteredRecently: true, IsHTTPS: false, HasValidSSL: false,
		SuspiciousKeywordCount: 5, DigitRatio: 0.3, URLEntropy: 4.2, SubdomainCount: 3,
	})

	if len(result.FeatureImportance) > 10 {
		t.Errorf("expected at most 10 feature importances, got %d", len(result.FeatureImportance))
	}
	if result.ModelUsed != modelFallback {
		t.Errorf("expected fallback model marker, got %s", result.ModelUsed)
	}
}

func TestParseVerdict_StripsCodeFence(t *testing.T) {
	v, err := parseVerdict("```json\n{\"phishing_probability\": 0.8, \"top_factors\": [{\"name\": \"x\", \"weight\": 0.5}]}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.PhishingProbability != 0.8 {
		t.Errorf("expected 0.8, got %f", v.PhishingProbability)
	}
}

package composite

import (
	"testing"

	"github.com/enterprise-email/phishguard/brandimpersonation"
	"github.com/enterprise-email/phishguard/config"
	"github.com/enterprise-email/phishguard/heuristics"
	"github.com/enterprise-email/phishguard/lookalike"
	"github.com/enterprise-email/phishguard/mlscorer"
	"github.com/enterprise-email/phishguard/threatintel"
)

func testCfg() config.ScoringConfig {
	return config.ScoringConfig{
		WeightML:            0.40,
		WeightHeuristic:     0.25,
		WeightThreatIntel:   0.30,
		WeightLookalike:     0.05,
		ThresholdSafe:       30,
		ThresholdSuspicious: 60,
		ThresholdDangerous:  85,
	}
}

func TestScore_SafeURL(t *testing.T) {
	s := New(testCfg())
	result := s.Score(Inputs{
		ML:          mlscorer.Result{MLPrediction: 0.05, Confidence: 0.9, ModelUsed: "weighted_fallback"},
		Heuristic:   heuristics.Result{Score: 0},
		ThreatIntel: threatintel.Result{ThreatIntelScore: 0, Reasons: []string{}},
		Lookalike:   lookalike.Result{LevenshteinDistance: 999},
	})

	if result.RiskLevel != "safe" {
		t.Errorf("expected safe risk level, got %s", result.RiskLevel)
	}
	if result.IsPhishing {
		t.Error("expected not phishing for a clean URL")
	}
	if result.Recommendation != "allow" {
		t.Errorf("expected allow recommendation, got %s", result.Recommendation)
	}
}

func TestScore_CriticalThreatIntelHit(t *testing.T) {
	s := New(testCfg())
	result := s.Score(Inputs{
		ML:        mlscorer.Result{MLPrediction: 0.9, Confidence: 0.85, ModelUsed: "weighted_fallback"},
		Heuristic: heuristics.Result{Score: 70},
		ThreatIntel: threatintel.Result{
			ThreatIntelScore: 100,
			Hits:             2,
			Reasons:          []string{"Listed in phishing feed (confirmed phishing)"},
		},
		Lookalike: lookalike.Result{LevenshteinDistance: 999},
	})

	// 0.9*100*0.40 + 70*0.25 + 100*0.30 = 83.5, rounded to 84: dangerous (<= 85).
	if result.RiskLevel != "dangerous" {
		t.Errorf("expected dangerous risk level, got %s", result.RiskLevel)
	}
	if !result.IsPhishing {
		t.Error("expected phishing verdict")
	}
	if result.Recommendation != "block" {
		t.Errorf("expected block recommendation, got %s", result.Recommendation)
	}
}

func TestScore_HighConfidenceLookalikeOverride(t *testing.T) {
	s := New(testCfg())
	result := s.Score(Inputs{
		ML:        mlscorer.Result{MLPrediction: 0.3, Confidence: 0.4, ModelUsed: "weighted_fallback"},
		Heuristic: heuristics.Result{Score: 65},
		ThreatIntel: threatintel.Result{ThreatIntelScore: 0, Reasons: []string{}},
		Lookalike: lookalike.Result{
			IsLookalike:    true,
			LookalikeScore: 95,
			MatchedBrand:   "paypal.com",
		},
	})

	if !result.IsPhishing {
		t.Fatal("expected the high-confidence lookalike override to force a phishing verdict")
	}
	if result.ThreatScore < 70 {
		t.Errorf("expected score boosted to at least threshold_suspicious+10, got %d", result.ThreatScore)
	}
}

func TestScore_BrandImpersonationReasonIsTopRanked(t *testing.T) {
	s := New(testCfg())
	result := s.Score(Inputs{
		ML:        mlscorer.Result{MLPrediction: 0.6, Confidence: 0.5, ModelUsed: "weighted_fallback"},
		Heuristic: heuristics.Result{Score: 40},
		ThreatIntel: threatintel.Result{ThreatIntelScore: 20, Reasons: []string{}},
		Lookalike: lookalike.Result{LevenshteinDistance: 999},
		BrandImpersonation: &brandimpersonation.Result{
			IsImpersonating:    true,
			SuspectedBrand:     "paypal",
			ImpersonationScore: 85,
		},
	})

	if len(result.Analysis.Reasons) == 0 {
		t.Fatal("expected at least one reason")
	}
	if result.Analysis.Reasons[0].Source != "brand_impersonation" {
		t.Errorf("expected brand_impersonation reason to rank first, got %s", result.Analysis.Reasons[0].Source)
	}
}

func TestScore_ReasonsCappedAtTen(t *testing.T) {
	s := New(testCfg())
	result := s.Score(Inputs{
		ML:        mlscorer.Result{MLPrediction: 0.8, Confidence: 0.9, ModelUsed: "weighted_fallback"},
		Heuristic: heuristics.Result{Score: 80, MatchedRules: []heuristics.MatchedRule{
			{Name: "a", Score: 20, Severity: heuristics.SeverityHigh, Explanation: "a"},
			{Name: "b", Score: 20, Severity: heuristics.SeverityHigh, Explanation: "b"},
			{Name: "c", Score: 20, Severity: heuristics.SeverityHigh, Explanation: "c"},
			{Name: "d", Score: 20, Severity: heuristics.SeverityHigh, Explanation: "d"},
		}},
		ThreatIntel: threatintel.Result{
			ThreatIntelScore: 90,
			Hits:             2,
			Reasons:          []string{"reason1", "reason2", "reason3", "reason4"},
		},
		Lookalike: lookalike.Result{IsLookalike: true, LookalikeScore: 92, MatchedBrand: "chase.com"},
	})

	if len(result.Analysis.Reasons) > 10 {
		t.Errorf("expected at most 10 reasons, got %d", len(result.Analysis.Reasons))
	}
}

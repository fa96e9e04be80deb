// Package composite implements a weighted fusion of the ML, heuristic,
// threat-intel, and lookalike signals into a single verdict, with
// adaptive reweighting, override rules, confidence estimation, and a
// ranked, explained reason list.
package composite

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/enterprise-email/phishguard/brandimpersonation"
	"github.com/enterprise-email/phishguard/config"
	"github.com/enterprise-email/phishguard/heuristics"
	"github.com/enterprise-email/phishguard/lookalike"
	"github.com/enterprise-email/phishguard/mlscorer"
	"github.com/enterprise-email/phishguard/threatintel"
)

// Reason is one ranked, explained contributor to the final verdict.
type Reason struct {
	Factor   string `json:"factor"`
	Severity string `json:"severity"`
	Weight   int    `json:"weight"`
	Source   string `json:"source"`
}

// Analysis is the detailed per-component breakdown of the final score.
type Analysis struct {
	MLPrediction             float64  `json:"ml_prediction"`
	MLContribution           float64  `json:"ml_contribution"`
	HeuristicScore           int      `json:"heuristic_score"`
	HeuristicContribution    float64  `json:"heuristic_contribution"`
	ThreatIntelScore         int      `json:"threat_intel_score"`
	ThreatIntelContribution  float64  `json:"threat_intel_contribution"`
	ThreatIntelHits          int      `json:"threat_intel_hits"`
	LookalikeDetected        bool     `json:"lookalike_detected"`
	LookalikeScore           int      `json:"lookalike_score"`
	LookalikeContribution    float64  `json:"lookalike_contribution"`
	LookalikeBrand           string   `json:"lookalike_brand,omitempty"`
	BrandImpersonation       bool     `json:"brand_impersonation"`
	ImpersonatedBrand        string   `json:"impersonated_brand,omitempty"`
	Reasons                  []Reason `json:"reasons"`
	ModelUsed                string   `json:"model_used"`
	InferenceTimeMs          float64  `json:"inference_time_ms"`
}

// Result is the Composite Scorer's contract, the final verdict returned
// by the URL-submission operation.
type Result struct {
	ThreatScore    int      `json:"threat_score"`
	RiskLevel      string   `json:"risk_level"`
	IsPhishing     bool     `json:"is_phishing"`
	Confidence     float64  `json:"confidence"`
	Recommendation string   `json:"recommendation"`
	Analysis       Analysis `json:"analysis"`
}

// GetThreatScore/GetRiskLevel satisfy cache.AnalysisRecord, the contract
// the tiered cache uses to choose a TTL.
func (r Result) GetThreatScore() int  { return r.ThreatScore }
func (r Result) GetRiskLevel() string { return r.RiskLevel }

// Inputs bundles every upstream component's output for one URL.
type Inputs struct {
	ML                 mlscorer.Result
	Heuristic          heuristics.Result
	ThreatIntel        threatintel.Result
	Lookalike          lookalike.Result
	BrandImpersonation *brandimpersonation.Result // nil when no page context was supplied
}

// Scorer fuses component outputs per the configured weights and
// thresholds.
type Scorer struct {
	cfg config.ScoringConfig
}

// New constructs a Scorer over the given weight/threshold configuration.
func New(cfg config.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score fuses in into a final verdict.
func (s *Scorer) Score(in Inputs) Result {
	mlNormalized := in.ML.MLPrediction * 100

	weightML := s.cfg.WeightML
	weightHeuristic := s.cfg.WeightHeuristic
	weightThreatIntel := s.cfg.WeightThreatIntel
	weightLookalike := s.cfg.WeightLookalike

	// Adaptive weighting: a high-confidence lookalike match is strong
	// enough evidence on its own to outweigh a middling ML/threat-intel
	// read, so redistribute weight toward it.
	if in.Lookalike.IsLookalike && in.Lookalike.LookalikeScore >= 90 {
		weightLookalike = 0.35
		weightML = 0.20
		weightHeuristic = 0.25
		weightThreatIntel = 0.20
	}

	score := (mlNormalized * weightML) +
		(float64(in.Heuristic.Score) * weightHeuristic) +
		(float64(in.ThreatIntel.ThreatIntelScore) * weightThreatIntel) +
		(float64(in.Lookalike.LookalikeScore) * weightLookalike)

	threatScore := clamp100(int(math.Round(score)))

	riskLevel := s.riskLevel(threatScore)
	isPhishing := threatScore >= s.cfg.ThresholdSuspicious

	// Override: strong, specific lookalike evidence is treated as
	// phishing regardless of where the blended score landed.
	if in.Lookalike.IsLookalike && (
		(in.Lookalike.LookalikeScore >= 90 && in.Heuristic.Score >= 60) ||
			(in.Lookalike.LookalikeScore >= 80 && in.Heuristic.Score >= 50) ||
			(in.Lookalike.LookalikeScore >= 75 && in.Lookalike.HomoglyphDetected)) {
		isPhishing = true
		if boosted := s.cfg.ThresholdSuspicious + 10; threatScore < boosted {
			threatScore = boosted
		}
		riskLevel = s.riskLevel(threatScore)
	}

	confidence := s.confidence(in.ML.Confidence, in.ThreatIntel.Hits, in.Lookalike.IsLookalike)

	reasons := s.reasons(threatScore, in, weightML, weightHeuristic, weightThreatIntel, weightLookalike)

	result := Result{
		ThreatScore:    threatScore,
		RiskLevel:      riskLevel,
		IsPhishing:     isPhishing,
		Confidence:     roundTo2(confidence),
		Recommendation: recommendationFor(riskLevel),
		Analysis: Analysis{
			MLPrediction:            roundTo4(in.ML.MLPrediction),
			MLContribution:          roundTo2(mlNormalized * weightML),
			HeuristicScore:          in.Heuristic.Score,
			HeuristicContribution:   roundTo2(float64(in.Heuristic.Score) * weightHeuristic),
			ThreatIntelScore:        in.ThreatIntel.ThreatIntelScore,
			ThreatIntelContribution: roundTo2(float64(in.ThreatIntel.ThreatIntelScore) * weightThreatIntel),
			ThreatIntelHits:         in.ThreatIntel.Hits,
			LookalikeDetected:       in.Lookalike.IsLookalike,
			LookalikeScore:          in.Lookalike.LookalikeScore,
			LookalikeContribution:   roundTo2(float64(in.Lookalike.LookalikeScore) * weightLookalike),
			LookalikeBrand:          in.Lookalike.MatchedBrand,
			Reasons:                 reasons,
			ModelUsed:               in.ML.ModelUsed,
			InferenceTimeMs:         in.ML.InferenceTimeMs,
		},
	}

	if in.BrandImpersonation != nil {
		result.Analysis.BrandImpersonation = in.BrandImpersonation.IsImpersonating
		result.Analysis.ImpersonatedBrand = in.BrandImpersonation.SuspectedBrand
	}

	return result
}

func (s *Scorer) riskLevel(score int) string {
	switch {
	case score <= s.cfg.ThresholdSafe:
		return "safe"
	case score <= s.cfg.ThresholdSuspicious:
		return "suspicious"
	case score <= s.cfg.ThresholdDangerous:
		return "dangerous"
	default:
		return "critical"
	}
}

func (s *Scorer) confidence(mlConfidence float64, threatIntelHits int, lookalikeDetected bool) float64 {
	confidence := mlConfidence * 0.6

	if threatIntelHits > 0 {
		boost := float64(threatIntelHits) * 0.15
		if boost > 0.3 {
			boost = 0.3
		}
		confidence += boost
	}

	if lookalikeDetected {
		confidence += 0.1
	}

	if confidence > 0.99 {
		confidence = 0.99
	}
	return confidence
}

type contribution struct {
	source string
	value  float64
}

func (s *Scorer) reasons(compositeScore int, in Inputs, weightML, weightHeuristic, weightThreatIntel, weightLookalike float64) []Reason {
	mlContribution := (in.ML.MLPrediction * 100) * weightML
	heuristicContribution := float64(in.Heuristic.Score) * weightHeuristic
	threatIntelContribution := float64(in.ThreatIntel.ThreatIntelScore) * weightThreatIntel
	lookalikeContribution := float64(in.Lookalike.LookalikeScore) * weightLookalike

	contributions := []contribution{
		{"ml", mlContribution},
		{"heuristic", heuristicContribution},
		{"threat_intel", threatIntelContribution},
		{"lookalike", lookalikeContribution},
	}
	sort.Slice(contributions, func(i, j int) bool { return contributions[i].value > contributions[j].value })

	var reasons []Reason

	for _, c := range contributions {
		if c.value < 5 {
			continue
		}

		weightPercent := 0
		if compositeScore > 0 {
			weightPercent = int((c.value / float64(compositeScore)) * 100)
		}
		severity := severityFromWeight(weightPercent)

		switch c.source {
		case "threat_intel":
			for i, reasonText := range in.ThreatIntel.Reasons {
				if i >= 3 {
					break
				}
				sev := "high"
				if strings.Contains(reasonText, "phishing feed") {
					sev = "critical"
				}
				reasons = append(reasons, Reason{Factor: reasonText, Severity: sev, Weight: weightPercent, Source: "threat_intelligence"})
			}

		case "lookalike":
			if in.Lookalike.IsLookalike {
				brand := in.Lookalike.MatchedBrand
				if brand == "" {
					brand = "unknown brand"
				}
				reasonText := "Lookalike domain detected: similar to " + brand
				if in.Lookalike.HomoglyphDetails != "" {
					reasonText = "Lookalike domain: " + in.Lookalike.HomoglyphDetails + " (impersonating " + brand + ")"
				}
				reasons = append(reasons, Reason{Factor: reasonText, Severity: "critical", Weight: weightPercent, Source: "lookalike_detection"})
			}

		case "heuristic":
			for i, rule := range in.Heuristic.MatchedRules {
				if i >= 3 {
					break
				}
				ruleWeight := 0
				if in.Heuristic.Score > 0 {
					ruleWeight = int((float64(rule.Score) / float64(in.Heuristic.Score)) * float64(weightPercent))
				}
				reasons = append(reasons, Reason{Factor: rule.Explanation, Severity: string(rule.Severity), Weight: ruleWeight, Source: "heuristic_analysis"})
			}

		case "ml":
			confidencePct := int(in.ML.MLPrediction * 100)
			reasons = append(reasons, Reason{
				Factor:   formatMLReason(confidencePct),
				Severity: severity,
				Weight:   weightPercent,
				Source:   "machine_learning",
			})
		}
	}

	if in.BrandImpersonation != nil && in.BrandImpersonation.IsImpersonating {
		brand := in.BrandImpersonation.SuspectedBrand
		if brand == "" {
			brand = "unknown brand"
		}
		reasons = append([]Reason{{
			Factor:   "Page is impersonating " + capitalize(brand),
			Severity: "critical",
			Weight:   in.BrandImpersonation.ImpersonationScore,
			Source:   "brand_impersonation",
		}}, reasons...)
	}

	sort.SliceStable(reasons, func(i, j int) bool { return reasons[i].Weight > reasons[j].Weight })
	if len(reasons) > 10 {
		reasons = reasons[:10]
	}
	return reasons
}

func formatMLReason(confidencePct int) string {
	return "ML model predicts " + strconv.Itoa(confidencePct) + "% probability of phishing"
}

func severityFromWeight(weightPercent int) string {
	switch {
	case weightPercent >= 30:
		return "critical"
	case weightPercent >= 20:
		return "high"
	case weightPercent >= 10:
		return "medium"
	default:
		return "low"
	}
}

func recommendationFor(riskLevel string) string {
	switch riskLevel {
	case "safe":
		return "allow"
	case "suspicious":
		return "warn"
	case "dangerous", "critical":
		return "block"
	default:
		return "warn"
	}
}

func clamp100(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundTo4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}


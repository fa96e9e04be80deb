package mlscorer

import "math"

// fallbackModel is a fixed-weight logistic model over a handful of
// extractor.Features: no network call, sub-millisecond, always available.
// Weights are hand-tuned to roughly match which signals correlate with
// phishing, not trained — there is no training data in this package's
// scope.
type fallbackModel struct {
	weights map[string]float64
	bias    float64
}

func newFallbackModel() *fallbackModel {
	return &fallbackModel{
		bias: -2.2,
		weights: map[string]float64{
			"has_ip_address":            2.1,
			"has_suspicious_tld":        1.4,
			"at_symbol":                 1.1,
			"has_double_slash_redirect": 0.9,
			"uses_non_standard_port":    0.8,
			"domain_registered_recently": 1.6,
			"is_https_negated":         0.7, // weight applied when !IsHTTPS
			"ssl_invalid":               0.9, // weight applied when IsHTTPS && !HasValidSSL
			"suspicious_keyword_count":  0.35,
			"digit_ratio":               1.8,
			"url_entropy":               0.12,
			"subdomain_count":           0.25,
		},
	}
}

func (m *fallbackModel) predict(fv featureVector) Result {
	z := m.bias
	contributions := make(map[string]float64, len(m.weights))

	add := func(name string, value float64) {
		w := m.weights[name]
		contribution := w * value
		z += contribution
		contributions[name] = math.Abs(contribution)
	}

	add("has_ip_address", boolTo01(fv.HasIPAddress))
	add("has_suspicious_tld", boolTo01(fv.HasSuspiciousTLD))
	add("at_symbol", boolTo01(fv.AtSymbol))
	add("has_double_slash_redirect", boolTo01(fv.HasDoubleSlashRedirect))
	add("uses_non_standard_port", boolTo01(fv.UsesNonStandardPort))
	add("domain_registered_recently", boolTo01(fv.DomainRegisteredRecently))
	add("is_https_negated", boolTo01(!fv.IsHTTPS))
	add("ssl_invalid", boolTo01(fv.IsHTTPS && !fv.HasValidSSL))
	add("suspicious_keyword_count", float64(fv.SuspiciousKeywordCount))
	add("digit_ratio", fv.DigitRatio)
	add("url_entropy", fv.URLEntropy)
	add("subdomain_count", float64(fv.SubdomainCount))

	prob := sigmoid(z)

	importance := make([]FeatureImportance, 0, len(contributions))
	for name, c := range contributions {
		if c == 0 {
			continue
		}
		importance = append(importance, FeatureImportance{Name: name, Importance: roundTo4(c)})
	}
	sortImportance(importance)
	if len(importance) > 10 {
		importance = importance[:10]
	}

	return Result{
		MLPrediction:      roundTo4(prob),
		Confidence:        roundTo4(confidenceOf(prob)),
		ModelUsed:         modelFallback,
		FeatureImportance: importance,
	}
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func boolTo01(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// featureVector is the subset of extractor.Features the fallback model
// reads. Declared narrowly so the fallback model doesn't depend on the
// full extractor package's type.
type featureVector struct {
	HasIPAddress             bool
	HasSuspiciousTLD         bool
	AtSymbol                 bool
	HasDoubleSlashRedirect   bool
	UsesNonStandardPort      bool
	DomainRegisteredRecently bool
	IsHTTPS                  bool
	HasValidSSL              bool
	SuspiciousKeywordCount   int
	DigitRatio               float64
	URLEntropy               float64
	SubdomainCount           int
}

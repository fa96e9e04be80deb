// Package mlscorer implements a dual-model architecture where a primary
// model (here, an LLM-backed classifier) handles predictions and a
// lightweight fallback model — always available, never dependent on the
// network — takes over automatically when the primary errors, times out,
// or isn't configured. This package never returns an error: any primary
// failure degrades silently to the fallback.
package mlscorer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog"

	"github.com/enterprise-email/phishguard/config"
	"github.com/enterprise-email/phishguard/extractor"
)

const (
	modelPrimary  = "llm_primary"
	modelFallback = "weighted_fallback"
)

// FeatureImportance is one entry of the top-contributing-features list.
type FeatureImportance struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
}

// Result is the ML Scorer's contract.
type Result struct {
	MLPrediction     float64             `json:"ml_prediction"`
	Confidence       float64             `json:"confidence"`
	ModelUsed        string              `json:"model_used"`
	FeatureImportance []FeatureImportance `json:"feature_importance"`
	InferenceTimeMs  float64             `json:"inference_time_ms"`
}

// Scorer predicts phishing probability from extracted URL features.
type Scorer struct {
	client   *openai.Client
	model    string
	enabled  bool
	timeout  time.Duration
	deadline time.Duration // inference latency target; breaches are logged, not fatal
	fallback *fallbackModel
	logger   zerolog.Logger
}

// New constructs a Scorer. When cfg.Enabled is false or no API key is
// configured, Predict always uses the fallback model.
func New(cfg config.MLConfig, logger zerolog.Logger) *Scorer {
	logger = logger.With().Str("component", "mlscorer").Logger()

	s := &Scorer{
		enabled:  cfg.Enabled && cfg.OpenAIAPIKey != "",
		model:    cfg.OpenAIModel,
		timeout:  cfg.RequestTimeout,
		deadline: cfg.InferenceDeadline,
		fallback: newFallbackModel(),
		logger:   logger,
	}

	if s.enabled {
		oaiCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.OpenAIBaseURL != "" {
			oaiCfg.BaseURL = cfg.OpenAIBaseURL
		}
		s.client = openai.NewClientWithConfig(oaiCfg)
	}

	return s
}

// Predict scores f, preferring the primary model and falling back
// automatically on any failure.
func (s *Scorer) Predict(ctx context.Context, f *extractor.Features) Result {
	start := time.Now()

	if s.enabled {
		if result, ok := s.predictPrimary(ctx, f); ok {
			result.InferenceTimeMs = elapsedMs(start)
			if s.deadline > 0 && time.Duration(result.InferenceTimeMs*float64(time.Millisecond)) > s.deadline {
				s.logger.Warn().Float64("elapsed_ms", result.InferenceTimeMs).Dur("deadline", s.deadline).Msg("ml inference exceeded performance target")
			}
			return result
		}
		s.logger.Warn().Msg("primary model unavailable, falling back")
	}

	result := s.fallback.predict(toFeatureVector(f))
	result.InferenceTimeMs = elapsedMs(start)
	return result
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

// predictPrimary asks the configured LLM to classify f as a structured
// JSON verdict. Any error, malformed response, or exceeded timeout
// returns ok=false so the caller falls back.
func (s *Scorer) predictPrimary(ctx context.Context, f *extractor.Features) (Result, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := buildPrompt(f)

	resp, err := s.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a phishing URL classifier. Respond with only a JSON object: {\"phishing_probability\": <0.0-1.0>, \"top_factors\": [{\"name\": string, \"weight\": <0.0-1.0>}, ...]}.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0,
		MaxTokens:   300,
	})
	if err != nil {
		s.logger.Debug().Err(err).Msg("primary model request failed")
		return Result{}, false
	}
	if len(resp.Choices) == 0 {
		return Result{}, false
	}

	verdict, err := parseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		s.logger.Debug().Err(err).Msg("primary model returned unparseable verdict")
		return Result{}, false
	}

	prob := clamp01(verdict.PhishingProbability)
	importance := make([]FeatureImportance, 0, len(verdict.TopFactors))
	for _, tf := range verdict.TopFactors {
		importance = append(importance, FeatureImportance{Name: tf.Name, Importance: roundTo4(clamp01(tf.Weight))})
	}
	sortImportance(importance)
	if len(importance) > 10 {
		importance = importance[:10]
	}

	return Result{
		MLPrediction:     roundTo4(prob),
		Confidence:       roundTo4(confidenceOf(prob)),
		ModelUsed:        modelPrimary,
		FeatureImportance: importance,
	}, true
}

type llmVerdict struct {
	PhishingProbability float64 `json:"phishing_probability"`
	TopFactors          []struct {
		Name   string  `json:"name"`
		Weight float64 `json:"weight"`
	} `json:"top_factors"`
}

func parseVerdict(content string) (llmVerdict, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var v llmVerdict
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return llmVerdict{}, fmt.Errorf("parse llm verdict: %w", err)
	}
	return v, nil
}

func buildPrompt(f *extractor.Features) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Classify this URL's phishing probability from its extracted features:\n")
	fmt.Fprintf(&b, "url_length=%d domain_length=%d subdomain_count=%d path_depth=%d\n", f.URLLength, f.DomainLength, f.SubdomainCount, f.PathDepth)
	fmt.Fprintf(&b, "has_ip_address=%t has_suspicious_tld=%t suspicious_keyword_count=%d at_symbol=%t\n", f.HasIPAddress, f.HasSuspiciousTLD, f.SuspiciousKeywordCount, f.AtSymbol)
	fmt.Fprintf(&b, "is_https=%t has_valid_ssl=%t ssl_certificate_age_days=%d\n", f.IsHTTPS, f.HasValidSSL, f.SSLCertificateAgeDays)
	fmt.Fprintf(&b, "domain_age_days=%d domain_registered_recently=%t url_entropy=%.2f domain_entropy=%.2f\n", f.DomainAgeDays, f.DomainRegisteredRecently, f.URLEntropy, f.DomainEntropy)
	return b.String()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func confidenceOf(prob float64) float64 {
	diff := prob - 0.5
	if diff < 0 {
		diff = -diff
	}
	return diff * 2
}

func roundTo4(v float64) float64 {
	return float64(int(v*10000+0.5)) / 10000
}

func sortImportance(fi []FeatureImportance) {
	sort.Slice(fi, func(i, j int) bool { return fi[i].Importance > fi[j].Importance })
}

func toFeatureVector(f *extractor.Features) featureVector {
	return featureVector{
		HasIPAddress:             f.HasIPAddress,
		HasSuspiciousTLD:         f.HasSuspiciousTLD,
		AtSymbol:                 f.AtSymbol,
		HasDoubleSlashRedirect:   f.HasDoubleSlashRedirect,
		UsesNonStandardPort:      f.UsesNonStandardPort,
		DomainRegisteredRecently: f.DomainRegisteredRecently,
		IsHTTPS:                  f.IsHTTPS,
		HasValidSSL:              f.HasValidSSL,
		SuspiciousKeywordCount:   f.SuspiciousKeywordCount,
		DigitRatio:               f.DigitRatio,
		URLEntropy:               f.URLEntropy,
		SubdomainCount:           f.SubdomainCount,
	}
}

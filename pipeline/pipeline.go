// Package pipeline implements the orchestrator that runs a submitted URL
// through every detector, fuses their verdicts, and caches the result.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/enterprise-email/phishguard/brandimpersonation"
	"github.com/enterprise-email/phishguard/cache"
	"github.com/enterprise-email/phishguard/composite"
	"github.com/enterprise-email/phishguard/extractor"
	"github.com/enterprise-email/phishguard/heuristics"
	"github.com/enterprise-email/phishguard/lookalike"
	"github.com/enterprise-email/phishguard/mlscorer"
	"github.com/enterprise-email/phishguard/threatintel"
)

// Request is the URL-submission input: a URL plus optional page context
// that, when present, triggers the brand impersonation detector.
type Request struct {
	URL       string
	PageTitle string
	PageText  string
	CSSColors []string
}

// Pipeline wires together every detector and the cache, implementing the
// seven-step flow: cache probe, feature extraction, concurrent dispatch
// to the independent detectors, conditional brand-impersonation check,
// fusion, cache write, and return.
type Pipeline struct {
	cache       *cache.ThreatCache
	extractor   *extractor.Extractor
	heuristics  *heuristics.Scorer
	lookalike   *lookalike.Detector
	brandImpersonation *brandimpersonation.Detector
	threatIntel *threatintel.Aggregator
	ml          *mlscorer.Scorer
	composite   *composite.Scorer
	logger      zerolog.Logger
}

// New constructs a Pipeline from its already-constructed collaborators.
func New(
	threatCache *cache.ThreatCache,
	ext *extractor.Extractor,
	heur *heuristics.Scorer,
	look *lookalike.Detector,
	brand *brandimpersonation.Detector,
	intel *threatintel.Aggregator,
	ml *mlscorer.Scorer,
	comp *composite.Scorer,
	logger zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		cache:              threatCache,
		extractor:          ext,
		heuristics:         heur,
		lookalike:          look,
		brandImpersonation: brand,
		threatIntel:        intel,
		ml:                 ml,
		composite:          comp,
		logger:             logger.With().Str("component", "pipeline").Logger(),
	}
}

// Analyze runs req through the full pipeline and returns the fused
// verdict. Partial failures inside individual detectors never fail the
// request: a detector that cannot complete contributes its zero-value/
// default result rather than aborting the analysis.
func (p *Pipeline) Analyze(ctx context.Context, req Request) (composite.Result, bool) {
	start := time.Now()

	var cached composite.Result
	if p.cache != nil && p.cache.GetURLAnalysis(ctx, req.URL, &cached) {
		p.logger.Info().Str("url", req.URL).Msg("cache hit")
		return cached, true
	}

	features, err := p.extractor.Extract(req.URL)
	if err != nil {
		p.logger.Error().Err(err).Str("url", req.URL).Msg("feature extraction failed")
		return composite.Result{}, false
	}

	var (
		wg          sync.WaitGroup
		heuristic   heuristics.Result
		lookalikeR  lookalike.Result
		threatIntel threatintel.Result
		ml          mlscorer.Result
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		heuristic = p.heuristics.Score(features)
	}()
	go func() {
		defer wg.Done()
		lookalikeR = p.lookalike.Detect(req.URL)
	}()
	go func() {
		defer wg.Done()
		threatIntel = p.threatIntel.CheckAll(ctx, req.URL)
	}()
	go func() {
		defer wg.Done()
		ml = p.ml.Predict(ctx, features)
	}()
	wg.Wait()

	var brandResult *brandimpersonation.Result
	in := brandimpersonation.Input{URL: req.URL, PageTitle: req.PageTitle, PageText: req.PageText, CSSColors: req.CSSColors}
	if in.HasPageContext() {
		r := p.brandImpersonation.Detect(in)
		brandResult = &r
	}

	result := p.composite.Score(composite.Inputs{
		ML:                 ml,
		Heuristic:          heuristic,
		ThreatIntel:        threatIntel,
		Lookalike:          lookalikeR,
		BrandImpersonation: brandResult,
	})

	if p.cache != nil {
		p.cache.SetURLAnalysis(ctx, req.URL, result)
	}

	p.logger.Info().
		Str("url", req.URL).
		Int("score", result.ThreatScore).
		Str("risk", result.RiskLevel).
		Dur("elapsed", time.Since(start)).
		Msg("analysis complete")

	return result, true
}

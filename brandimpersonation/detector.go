// Package brandimpersonation implements an optional detector that runs
// only when page context (title, text, or CSS colors) is supplied,
// comparing that content against a table of brand visual/textual
// signatures.
package brandimpersonation

import (
	"math"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

const impersonationThreshold = 40

// Result is the Brand Impersonation Detector's contract.
type Result struct {
	IsImpersonating    bool     `json:"is_impersonating"`
	ImpersonationScore int      `json:"impersonation_score"`
	SuspectedBrand     string   `json:"suspected_brand,omitempty"`
	Confidence         float64  `json:"confidence"`
	Indicators         []string `json:"indicators"`
	BrandInTitle       bool     `json:"brand_in_title"`
}

func defaultResult() Result {
	return Result{Indicators: []string{}}
}

// Detector analyzes page context against the brand signature table.
type Detector struct {
	logger zerolog.Logger
}

// New constructs a Detector.
func New(logger zerolog.Logger) *Detector {
	return &Detector{logger: logger.With().Str("component", "brandimpersonation").Logger()}
}

// Input bundles the optional page-context fields from a URL-submission
// request. The detector only runs when at least one is present.
type Input struct {
	URL       string
	PageTitle string
	PageText  string
	CSSColors []string
}

// HasPageContext reports whether in carries any page-context fields, the
// precondition for running the detector at all.
func (in Input) HasPageContext() bool {
	return in.PageTitle != "" || in.PageText != "" || len(in.CSSColors) > 0
}

// Detect scores in against every brand signature, keeping the best-scoring
// brand whose name does not already appear in the URL's own domain (a
// brand impersonating itself is not impersonation). Any parse failure
// degrades to the default result rather than propagating an error.
func (d *Detector) Detect(in Input) Result {
	domain, fullDomain := d.domainOf(in.URL)

	combinedText := strings.ToLower(strings.Join([]string{in.PageTitle, in.PageText, in.URL}, " "))
	normalizedColors := make([]string, len(in.CSSColors))
	for i, c := range in.CSSColors {
		normalizedColors[i] = strings.ToUpper(c)
	}

	var (
		suspectedBrand string
		bestScore      int
		bestIndicators []string
	)

	for _, sig := range signatures {
		if strings.Contains(domain, sig.brand) {
			// The brand's own domain — this is (likely) the legitimate site.
			continue
		}

		score := 0
		var indicators []string

		keywordMatches := 0
		for _, kw := range sig.keywords {
			if strings.Contains(combinedText, kw) {
				keywordMatches++
				indicators = append(indicators, "Contains '"+kw+"' keyword")
			}
		}
		if keywordMatches >= 2 {
			score += 30
		}

		patternMatches := 0
		for _, p := range sig.patterns {
			if p.MatchString(combinedText) {
				patternMatches++
				indicators = append(indicators, "Matches "+sig.brand+" pattern")
			}
		}
		if patternMatches >= 1 {
			score += 25
		}

		if len(normalizedColors) > 0 {
			colorMatches := 0
			for _, brandColor := range sig.colors {
				for _, c := range normalizedColors {
					if strings.ToUpper(brandColor) == c {
						colorMatches++
					}
				}
			}
			if colorMatches >= 2 {
				score += 20
				indicators = append(indicators, "Uses "+sig.brand+"'s color scheme")
			}
		}

		if in.PageTitle != "" {
			titleLower := strings.ToLower(in.PageTitle)
			top3 := sig.keywords
			if len(top3) > 3 {
				top3 = top3[:3]
			}
			for _, kw := range top3 {
				if strings.Contains(titleLower, kw) {
					score += 15
					indicators = append(indicators, "Page title references "+sig.brand)
					break
				}
			}
		}

		domainDistance := levenshteinDistance(domain, sig.brand)
		if domainDistance > 3 {
			score += 10
		}

		if score > bestScore && score >= impersonationThreshold {
			bestScore = score
			suspectedBrand = sig.brand
			bestIndicators = indicators
		}
	}

	if bestScore == 0 {
		return defaultResult()
	}

	if len(bestIndicators) > 5 {
		bestIndicators = bestIndicators[:5]
	}

	confidence := float64(bestScore) / 100
	if confidence > 0.95 {
		confidence = 0.95
	}

	isImpersonating := suspectedBrand != "" && bestScore >= impersonationThreshold && !strings.Contains(fullDomain, suspectedBrand)

	brandInTitle := suspectedBrand != "" && in.PageTitle != "" && strings.Contains(strings.ToLower(in.PageTitle), suspectedBrand)

	return Result{
		IsImpersonating:    isImpersonating,
		ImpersonationScore: bestScore,
		SuspectedBrand:     suspectedBrand,
		Confidence:         roundTo2(confidence),
		Indicators:         bestIndicators,
		BrandInTitle:       brandInTitle,
	}
}

func (d *Detector) domainOf(rawURL string) (domain, fullDomain string) {
	host := rawURL
	if idx := strings.Index(rawURL, "://"); idx >= 0 {
		host = rawURL[idx+3:]
	}
	if idx := strings.IndexAny(host, "/?#"); idx >= 0 {
		host = host[:idx]
	}
	host = strings.ToLower(host)

	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		d.logger.Debug().Err(err).Str("url", rawURL).Msg("could not split domain")
		return host, host
	}

	fullDomain = strings.ToLower(registrable)
	if idx := strings.Index(fullDomain, "."); idx >= 0 {
		domain = fullDomain[:idx]
	} else {
		domain = fullDomain
	}
	return domain, fullDomain
}

func levenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			m := curr[j-1] + 1
			if prev[j]+1 < m {
				m = prev[j] + 1
			}
			if prev[j-1]+cost < m {
				m = prev[j-1] + cost
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Package lookalike compares a candidate domain against a brand whitelist
// using Levenshtein similarity and a homoglyph substitution check,
// distinct from mixed-script detection.
package lookalike

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

const similarityThreshold = 0.85

// Result is the Lookalike Detector's contract.
type Result struct {
	IsLookalike         bool    `json:"is_lookalike"`
	LookalikeScore      int     `json:"lookalike_score"`
	MatchedBrand        string  `json:"matched_brand,omitempty"`
	BrandCategory       string  `json:"brand_category,omitempty"`
	SimilarityScore     float64 `json:"similarity_score"`
	LevenshteinDistance int     `json:"levenshtein_distance"`
	HomoglyphDetected   bool    `json:"homoglyph_detected"`
	HomoglyphDetails    string  `json:"homoglyph_details,omitempty"`
}

func defaultResult() Result {
	return Result{LevenshteinDistance: 999}
}

// Detector compares a candidate domain against the canonical brand index.
type Detector struct {
	brands []Brand
	logger zerolog.Logger
}

// New constructs a Detector over the canonical brand index.
func New(logger zerolog.Logger) *Detector {
	return &Detector{brands: Brands(), logger: logger.With().Str("component", "lookalike").Logger()}
}

// Detect analyzes rawURL's registrable domain against every brand in the
// index, tracking the closest match by similarity, then layers on a
// homoglyph check and a mixed-script check as independent signals. Any
// failure to parse the URL degrades to the default (non-lookalike) result
// rather than propagating an error.
func (d *Detector) Detect(rawURL string) Result {
	domain, err := registrableLabel(rawURL)
	if err != nil || domain == "" {
		d.logger.Debug().Err(err).Str("url", rawURL).Msg("could not extract domain, returning default result")
		return defaultResult()
	}

	var (
		bestMatch      string
		bestCategory   string
		bestSimilarity float64
		bestDistance   = 999
	)

	for _, brand := range d.brands {
		brandLabel := firstLabel(brand.Domain)

		var similarity float64
		var distance int

		if brandLabel != domain && strings.Contains(domain, brandLabel) {
			// Brand name embedded in a longer domain, e.g. "paypal" inside
			// "paypal-secure-verify" — treat as strongly suspicious.
			similarity = 0.95
			distance = len(domain) - len(brandLabel)
		} else {
			distance = levenshteinDistance(domain, brandLabel)
			similarity = levenshteinRatio(domain, brandLabel)
		}

		if similarity > bestSimilarity {
			bestSimilarity = similarity
			bestDistance = distance
			bestMatch = brand.Domain
			bestCategory = brand.Category
		}
	}

	homoglyphDetected, homoglyphDetails := checkHomoglyphs(domain, bestMatch)
	mixedScript, mixedScriptDetails := checkMixedScript(domain)
	if mixedScript && !homoglyphDetected {
		homoglyphDetected = true
		homoglyphDetails = mixedScriptDetails
	}

	isLookalike := (bestSimilarity >= similarityThreshold && bestMatch != "" && domain != firstLabel(bestMatch)) || homoglyphDetected

	score := 0
	if isLookalike {
		score = int(bestSimilarity * 100)
		if homoglyphDetected {
			score = clamp100(score + 15)
		}
		if bestSimilarity > 0.95 {
			score = clamp100(score + 10)
		}
	}

	result := Result{
		IsLookalike:         isLookalike,
		LookalikeScore:      score,
		SimilarityScore:     roundTo4(bestSimilarity),
		LevenshteinDistance: bestDistance,
		HomoglyphDetected:   homoglyphDetected,
		HomoglyphDetails:    homoglyphDetails,
	}
	if isLookalike {
		result.MatchedBrand = bestMatch
		result.BrandCategory = bestCategory
	}
	return result
}

// IsBrandLabel reports whether label (case-insensitive) equals exactly one
// of the canonical brand labels — used by callers that must never flag a
// brand's own domain as its own lookalike.
func IsBrandLabel(label string) bool {
	label = strings.ToLower(label)
	for _, b := range Brands() {
		if firstLabel(b.Domain) == label {
			return true
		}
	}
	return false
}

func registrableLabel(rawURL string) (string, error) {
	host := rawURL
	if idx := strings.Index(rawURL, "://"); idx >= 0 {
		host = rawURL[idx+3:]
	}
	if idx := strings.IndexAny(host, "/?#"); idx >= 0 {
		host = host[:idx]
	}
	if idx := strings.LastIndex(host, "@"); idx >= 0 {
		host = host[idx+1:]
	}
	if idx := strings.LastIndex(host, ":"); idx >= 0 {
		host = host[:idx]
	}
	host = strings.ToLower(host)

	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return firstLabel(host), nil
	}
	return firstLabel(registrable), nil
}

func firstLabel(domain string) string {
	domain = strings.ToLower(domain)
	if idx := strings.Index(domain, "."); idx >= 0 {
		return domain[:idx]
	}
	return domain
}

// checkHomoglyphs compares domain against the matched brand's label
// position by position.
func checkHomoglyphs(domain, matchedBrand string) (bool, string) {
	if matchedBrand == "" {
		return false, ""
	}
	brandLabel := firstLabel(matchedBrand)

	domainRunes := []rune(domain)
	brandRunes := []rune(brandLabel)
	n := len(domainRunes)
	if len(brandRunes) < n {
		n = len(brandRunes)
	}

	for i := 0; i < n; i++ {
		if domainRunes[i] == brandRunes[i] {
			continue
		}
		if isHomoglyphOf(domainRunes[i], brandRunes[i]) {
			return true, fmt.Sprintf("Uses '%c' instead of '%c' at position %d", domainRunes[i], brandRunes[i], i+1)
		}
	}
	return false, ""
}

// checkMixedScript flags domains whose characters span more than one
// script bucket, a separate signal from homoglyph substitution.
func checkMixedScript(domain string) (bool, string) {
	scripts := make(map[string]bool)
	for _, r := range domain {
		if s, ok := scriptOf(r); ok {
			scripts[s] = true
		}
	}
	if len(scripts) <= 1 {
		return false, ""
	}

	names := make([]string, 0, len(scripts))
	for s := range scripts {
		names = append(names, s)
	}
	return true, fmt.Sprintf("Mixed scripts detected: %s", strings.Join(names, ", "))
}

func clamp100(v int) int {
	if v > 100 {
		return 100
	}
	return v
}

func roundTo4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// levenshteinDistance computes the edit distance between a and b.
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
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

// levenshteinRatio converts distance into a 0-1 similarity ratio.
func levenshteinRatio(a, b string) float64 {
	maxLen := len([]rune(a))
	if bl := len([]rune(b)); bl > maxLen {
		maxLen = bl
	}
	if maxLen == 0 {
		return 1.0
	}
	distance := levenshteinDistance(a, b)
	return float64(maxLen-distance) / float64(maxLen)
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Package heuristics scores extracted URL features against a fixed rule
// table. Rules are flat data (field name, comparison, threshold)
// interpreted by one evaluator rather than a list of per-rule closures, so
// the table can be audited or extended without touching scoring logic.
package heuristics

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/enterprise-email/phishguard/extractor"
)

// Comparator names the relation a rule's threshold is checked with.
type Comparator string

const (
	GreaterThan        Comparator = "gt"
	GreaterThanOrEqual Comparator = "gte"
	LessThan           Comparator = "lt"
	EqualTo            Comparator = "eq"
	InRange            Comparator = "range" // [threshold, upper)
)

// Severity is the closed set of rule severities.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rule is one row of the flat rule table: a named condition over a single
// numeric feature, a score contribution, a severity, and an explanation
// template. dynamicExplanation rules (there is exactly one, for the
// suspicious-keyword count) interpolate the matched feature value.
type Rule struct {
	Name                string
	Field               string
	Op                  Comparator
	Threshold           float64
	Upper               float64 // only used when Op == InRange
	Score               int
	Severity            Severity
	Explanation         string
	DynamicExplanation  bool
}

// MatchedRule is a Rule that fired, with its resolved explanation text.
type MatchedRule struct {
	Name        string   `json:"name"`
	Score       int      `json:"score"`
	Severity    Severity `json:"severity"`
	Explanation string   `json:"explanation"`
}

// Result is the Heuristic Scorer's contract.
type Result struct {
	Score        int           `json:"score"`
	MatchedRules []MatchedRule `json:"matched_rules"`
	RuleCount    int           `json:"rule_count"`
}

// maxPossibleScore is the ceiling a combined rule score is clamped to.
const maxPossibleScore = 100

// Table is the canonical 22-rule table.
var Table = []Rule{
	{Name: "Extremely long URL", Field: "url_length", Op: GreaterThan, Threshold: 75, Score: 15, Severity: SeverityMedium, Explanation: "URL length exceeds 75 characters (common in phishing)"},
	{Name: "Very long domain", Field: "domain_length", Op: GreaterThan, Threshold: 30, Score: 10, Severity: SeverityLow, Explanation: "Domain name is unusually long"},
	{Name: "Multiple subdomains", Field: "subdomain_count", Op: GreaterThanOrEqual, Threshold: 3, Score: 20, Severity: SeverityHigh, Explanation: "Contains 3+ subdomains (obfuscation technique)"},
	{Name: "Deep path structure", Field: "path_depth", Op: GreaterThan, Threshold: 5, Score: 12, Severity: SeverityMedium, Explanation: "Path depth exceeds 5 levels (suspicious structure)"},
	{Name: "Many query parameters", Field: "query_param_count", Op: GreaterThan, Threshold: 10, Score: 8, Severity: SeverityLow, Explanation: "Contains excessive query parameters"},
	{Name: "High digit ratio", Field: "digit_ratio", Op: GreaterThan, Threshold: 0.2, Score: 15, Severity: SeverityMedium, Explanation: "Unusually high number of digits in URL"},
	{Name: "High special character ratio", Field: "special_char_ratio", Op: GreaterThan, Threshold: 0.3, Score: 12, Severity: SeverityMedium, Explanation: "Excessive special characters detected"},
	{Name: "Multiple hyphens in domain", Field: "hyphen_count", Op: GreaterThan, Threshold: 3, Score: 15, Severity: SeverityMedium, Explanation: "Domain contains multiple hyphens (typosquatting indicator)"},
	{Name: "High URL entropy", Field: "url_entropy", Op: GreaterThan, Threshold: 4.5, Score: 18, Severity: SeverityHigh, Explanation: "High entropy suggests randomly generated or obfuscated URL"},
	{Name: "High domain entropy", Field: "domain_entropy", Op: GreaterThan, Threshold: 4.0, Score: 15, Severity: SeverityMedium, Explanation: "Domain has high entropy (possibly DGA-generated)"},
	{Name: "IP address instead of domain", Field: "has_ip_address", Op: EqualTo, Threshold: 1, Score: 30, Severity: SeverityCritical, Explanation: "Uses IP address instead of domain name"},
	{Name: "Suspicious TLD", Field: "has_suspicious_tld", Op: EqualTo, Threshold: 1, Score: 20, Severity: SeverityHigh, Explanation: "Uses commonly abused TLD (.tk, .ml, .xyz, etc.)"},
	{Name: "Multiple suspicious keywords", Field: "suspicious_keyword_count", Op: GreaterThanOrEqual, Threshold: 2, Score: 25, Severity: SeverityHigh, Explanation: "Contains %d phishing-related keywords", DynamicExplanation: true},
	{Name: "At symbol in URL", Field: "at_symbol", Op: EqualTo, Threshold: 1, Score: 20, Severity: SeverityHigh, Explanation: "@ symbol used for URL manipulation"},
	{Name: "Double slash redirecting", Field: "has_double_slash_redirecting", Op: EqualTo, Threshold: 1, Score: 18, Severity: SeverityMedium, Explanation: "Multiple // detected (redirect obfuscation)"},
	{Name: "Prefix/suffix in domain", Field: "prefix_suffix_in_domain", Op: EqualTo, Threshold: 1, Score: 15, Severity: SeverityMedium, Explanation: "Domain contains hyphens (brand imitation technique)"},
	{Name: "Non-standard port", Field: "uses_non_standard_port", Op: EqualTo, Threshold: 1, Score: 12, Severity: SeverityMedium, Explanation: "Uses non-standard port number"},
	{Name: "No HTTPS", Field: "is_https", Op: EqualTo, Threshold: 0, Score: 10, Severity: SeverityLow, Explanation: "Not using secure HTTPS protocol"},
	{Name: "Invalid or missing SSL", Field: "ssl_invalid_while_https", Op: EqualTo, Threshold: 1, Score: 25, Severity: SeverityHigh, Explanation: "HTTPS but invalid/missing SSL certificate"},
	{Name: "Very new SSL certificate", Field: "ssl_certificate_age_days", Op: InRange, Threshold: 0, Upper: 30, Score: 15, Severity: SeverityMedium, Explanation: "SSL certificate issued less than 30 days ago"},
	{Name: "Recently registered domain", Field: "domain_registered_recently", Op: EqualTo, Threshold: 1, Score: 20, Severity: SeverityHigh, Explanation: "Domain registered less than 6 months ago"},
	{Name: "Very new domain", Field: "domain_age_days", Op: InRange, Threshold: 0, Upper: 30, Score: 30, Severity: SeverityCritical, Explanation: "Domain registered less than 30 days ago"},
}

// fieldValues projects Features into the flat field->value map the
// evaluator reads from. Booleans are represented as 0/1, matching the
// reference feature dict's convention.
func fieldValues(f *extractor.Features) map[string]float64 {
	boolToFloat := func(b bool) float64 {
		if b {
			return 1
		}
		return 0
	}

	return map[string]float64{
		"url_length":                   float64(f.URLLength),
		"domain_length":                float64(f.DomainLength),
		"subdomain_count":              float64(f.SubdomainCount),
		"path_depth":                   float64(f.PathDepth),
		"query_param_count":            float64(f.QueryParamCount),
		"digit_ratio":                  f.DigitRatio,
		"special_char_ratio":           f.SpecialRatio,
		"hyphen_count":                 float64(f.HyphenCount),
		"url_entropy":                  f.URLEntropy,
		"domain_entropy":               f.DomainEntropy,
		"has_ip_address":               boolToFloat(f.HasIPAddress),
		"has_suspicious_tld":           boolToFloat(f.HasSuspiciousTLD),
		"suspicious_keyword_count":     float64(f.SuspiciousKeywordCount),
		"at_symbol":                    boolToFloat(f.AtSymbol),
		"has_double_slash_redirecting": boolToFloat(f.HasDoubleSlashRedirect),
		"prefix_suffix_in_domain":      boolToFloat(f.PrefixSuffixInDomain),
		"uses_non_standard_port":       boolToFloat(f.UsesNonStandardPort),
		"is_https":                     boolToFloat(f.IsHTTPS),
		"ssl_invalid_while_https":      boolToFloat(f.IsHTTPS && !f.HasValidSSL),
		"ssl_certificate_age_days":     float64(f.SSLCertificateAgeDays),
		"domain_registered_recently":   boolToFloat(f.DomainRegisteredRecently),
		"domain_age_days":              float64(f.DomainAgeDays),
	}
}

func (r Rule) matches(values map[string]float64) bool {
	v, ok := values[r.Field]
	if !ok {
		return false
	}
	switch r.Op {
	case GreaterThan:
		return v > r.Threshold
	case GreaterThanOrEqual:
		return v >= r.Threshold
	case LessThan:
		return v < r.Threshold
	case EqualTo:
		return v == r.Threshold
	case InRange:
		return v >= r.Threshold && v < r.Upper
	default:
		return false
	}
}

// Scorer evaluates the rule table against extracted features.
type Scorer struct {
	rules  []Rule
	logger zerolog.Logger
}

// New constructs a Scorer over the canonical rule table.
func New(logger zerolog.Logger) *Scorer {
	return &Scorer{rules: Table, logger: logger.With().Str("component", "heuristics").Logger()}
}

// Score evaluates every rule against f. A panicking or malformed rule is
// caught and skipped — it cannot contribute to or block the score.
func (s *Scorer) Score(f *extractor.Features) (result Result) {
	values := fieldValues(f)
	var matched []MatchedRule
	total := 0

	for _, rule := range s.rules {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error().Interface("panic", r).Str("rule", rule.Name).Msg("rule evaluation panicked, skipping")
				}
			}()

			if !rule.matches(values) {
				return
			}

			explanation := rule.Explanation
			if rule.DynamicExplanation {
				explanation = fmt.Sprintf(rule.Explanation, int(values[rule.Field]))
			}

			matched = append(matched, MatchedRule{
				Name:        rule.Name,
				Score:       rule.Score,
				Severity:    rule.Severity,
				Explanation: explanation,
			})
			total += rule.Score
		}()
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Score > matched[j].Score })

	if total > maxPossibleScore {
		total = maxPossibleScore
	}

	return Result{Score: total, MatchedRules: matched, RuleCount: len(matched)}
}

// TopReasons returns the top n contributing matched rules.
func TopReasons(matched []MatchedRule, n int) []MatchedRule {
	if n > len(matched) {
		n = len(matched)
	}
	return matched[:n]
}

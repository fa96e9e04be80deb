// Package extractor computes lexical, structural, and entropic features
// parsed directly from a URL, plus best-effort TLS and WHOIS probes that
// degrade to sentinel values rather than fail the request.
package extractor

import (
	"crypto/tls"
	"math"
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

// Features is the fixed field set every downstream scorer reads. Field
// order is stable so serialization is deterministic.
type Features struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`

	URLLength    int `json:"url_length"`
	DomainLength int `json:"domain_length"`
	PathDepth    int `json:"path_depth"`
	SubdomainCount int `json:"subdomain_count"`
	QueryParamCount int `json:"query_param_count"`

	DigitCount   int `json:"digit_count"`
	SpecialCount int `json:"special_char_count"`
	HyphenCount  int `json:"hyphen_count"`

	DigitRatio   float64 `json:"digit_ratio"`
	SpecialRatio float64 `json:"special_char_ratio"`

	URLEntropy    float64 `json:"url_entropy"`
	DomainEntropy float64 `json:"domain_entropy"`

	HasIPAddress           bool `json:"has_ip_address"`
	HasSuspiciousTLD       bool `json:"has_suspicious_tld"`
	SuspiciousKeywordCount int  `json:"suspicious_keyword_count"`
	AtSymbol               bool `json:"at_symbol"`
	HasDoubleSlashRedirect  bool `json:"has_double_slash_redirecting"`
	PrefixSuffixInDomain    bool `json:"prefix_suffix_in_domain"`
	UsesNonStandardPort     bool `json:"uses_non_standard_port"`

	IsHTTPS bool `json:"is_https"`

	HasValidSSL          bool `json:"has_valid_ssl"`
	SSLCertificateAgeDays int  `json:"ssl_certificate_age_days"` // -1 unknown
	SSLIssuerTrusted      bool `json:"ssl_issuer_trusted"`

	DomainAgeDays            int  `json:"domain_age_days"` // -1 unknown
	DomainRegisteredRecently bool `json:"domain_registered_recently"`
}

// suspiciousTLDs is the closed set of TLDs treated as a phishing signal.
var suspiciousTLDs = map[string]bool{
	"tk": true, "ml": true, "ga": true, "cf": true, "gq": true,
	"xyz": true, "top": true, "work": true, "click": true, "link": true,
	"stream": true, "download": true, "loan": true, "win": true,
}

// suspiciousKeywords are terms common in credential-harvesting URLs.
var suspiciousKeywords = []string{
	"verify", "account", "update", "secure", "banking", "confirm", "login",
	"signin", "password", "urgent", "suspended", "locked", "validate",
	"restore", "limited", "unusual", "activity",
}

var ipv4Pattern = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})$`)

// ProbeConfig controls the TLS/WHOIS probe timeouts.
type ProbeConfig struct {
	TLSTimeout   time.Duration
	WHOISTimeout time.Duration
}

// Extractor extracts Features from a raw URL string.
type Extractor struct {
	probes ProbeConfig
	logger zerolog.Logger
}

// New constructs an Extractor.
func New(probes ProbeConfig, logger zerolog.Logger) *Extractor {
	return &Extractor{probes: probes, logger: logger.With().Str("component", "extractor").Logger()}
}

// Extract computes the full feature set for rawURL. Per spec's invariant
// that probes never block beyond their timeout, TLS and WHOIS failures
// degrade to sentinel values (-1 age, false flags) instead of returning an
// error; Extract itself only fails on an unparseable URL.
func (e *Extractor) Extract(rawURL string) (*Features, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	host := parsed.Hostname()
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		registrable = host
	}

	f := &Features{
		URL:    rawURL,
		Domain: host,

		URLLength:    len(rawURL),
		DomainLength: len(sldLabel(registrable)),
		PathDepth:    pathDepth(parsed.Path),
		SubdomainCount: subdomainCount(host, registrable),
		QueryParamCount: len(parsed.Query()),

		AtSymbol:              strings.Contains(rawURL, "@"),
		HasDoubleSlashRedirect: hasDoubleSlashRedirect(rawURL),
		HyphenCount:           strings.Count(host, "-"),
		IsHTTPS:               parsed.Scheme == "https",
		UsesNonStandardPort:   usesNonStandardPort(parsed),
		HasIPAddress:          isIPv4(host),

		SSLCertificateAgeDays: -1,
		DomainAgeDays:         -1,
	}

	f.PrefixSuffixInDomain = f.HyphenCount > 0

	f.DigitCount, f.SpecialCount = countDigitsAndSpecials(rawURL)
	if f.URLLength > 0 {
		f.DigitRatio = roundTo(float64(f.DigitCount)/float64(f.URLLength), 4)
		f.SpecialRatio = roundTo(float64(f.SpecialCount)/float64(f.URLLength), 4)
	}

	f.URLEntropy = shannonEntropy(rawURL)
	f.DomainEntropy = shannonEntropy(registrable)

	tld := lastLabel(registrable)
	f.HasSuspiciousTLD = suspiciousTLDs[tld]
	f.SuspiciousKeywordCount = countSuspiciousKeywords(strings.ToLower(rawURL))

	if f.IsHTTPS && !f.HasIPAddress {
		e.probeSSL(host, f)
	}
	e.probeWHOIS(registrable, f)

	return f, nil
}

func pathDepth(path string) int {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return 0
	}
	return len(strings.Split(trimmed, "/"))
}

func subdomainCount(host, registrable string) int {
	if host == registrable || registrable == "" {
		return 0
	}
	prefix := strings.TrimSuffix(host, "."+registrable)
	if prefix == host || prefix == "" {
		return 0
	}
	return len(strings.Split(prefix, "."))
}

func hasDoubleSlashRedirect(rawURL string) bool {
	idx := strings.Index(rawURL, "://")
	if idx < 0 {
		return strings.Contains(rawURL, "//")
	}
	rest := rawURL[idx+3:]
	return strings.Contains(rest, "//")
}

func usesNonStandardPort(u *url.URL) bool {
	port := u.Port()
	if port == "" {
		return false
	}
	if u.Scheme == "https" && port == "443" {
		return false
	}
	if u.Scheme == "http" && port == "80" {
		return false
	}
	return true
}

func isIPv4(host string) bool {
	if !ipv4Pattern.MatchString(host) {
		return false
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.To4() != nil
}

func countDigitsAndSpecials(s string) (digits, specials int) {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			// letters don't count toward either bucket
		case r == '.' || r == '/' || r == ':':
			// URL structural characters aren't "special" for this ratio
		default:
			specials++
		}
	}
	return
}

func countSuspiciousKeywords(lowerURL string) int {
	count := 0
	for _, kw := range suspiciousKeywords {
		if strings.Contains(lowerURL, kw) {
			count++
		}
	}
	return count
}

func lastLabel(registrable string) string {
	parts := strings.Split(registrable, ".")
	return parts[len(parts)-1]
}

// sldLabel returns the second-level-domain label of a registrable domain
// (e.g. "example" for "example.com" or "example.co.uk"), excluding the
// public suffix. domain_length is measured over this label, not the full
// hostname — a long subdomain chain shouldn't trip the same rule as a
// long registrable name.
func sldLabel(registrable string) string {
	parts := strings.SplitN(registrable, ".", 2)
	return parts[0]
}

func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	freq := make(map[rune]int)
	for _, r := range s {
		freq[r]++
	}
	n := float64(len(s))
	var entropy float64
	for _, c := range freq {
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return roundTo(entropy, 4)
}

func roundTo(v float64, decimals int) float64 {
	mult := math.Pow(10, float64(decimals))
	return math.Round(v*mult) / mult
}

// probeSSL dials hostname:443 with the configured timeout and inspects the
// peer certificate's NotBefore date. Any failure leaves f's SSL fields at
// their sentinel/zero values.
func (e *Extractor) probeSSL(hostname string, f *Features) {
	timeout := e.probes.TLSTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", net.JoinHostPort(hostname, "443"), &tls.Config{
		ServerName: hostname,
	})
	if err != nil {
		e.logger.Debug().Err(err).Str("host", hostname).Msg("ssl probe failed")
		return
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return
	}

	f.HasValidSSL = true
	ageDays := int(time.Since(certs[0].NotBefore).Hours() / 24)
	f.SSLCertificateAgeDays = ageDays
	f.SSLIssuerTrusted = ageDays > 30
}

// probeWHOIS queries the registrable domain's creation date with a
// best-effort timeout. Any failure leaves f's domain-age fields at their
// sentinel values.
func (e *Extractor) probeWHOIS(registrable string, f *Features) {
	if registrable == "" {
		return
	}

	result := make(chan *whoisparser.WhoisInfo, 1)
	go func() {
		raw, err := whois.Whois(registrable)
		if err != nil {
			result <- nil
			return
		}
		parsed, err := whoisparser.Parse(raw)
		if err != nil {
			result <- nil
			return
		}
		result <- &parsed
	}()

	timeout := e.probes.WHOISTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	select {
	case info := <-result:
		if info == nil || info.Domain == nil || info.Domain.CreatedDate == "" {
			return
		}
		created, err := parseWHOISDate(info.Domain.CreatedDate)
		if err != nil {
			return
		}
		ageDays := int(time.Since(created).Hours() / 24)
		f.DomainAgeDays = ageDays
		f.DomainRegisteredRecently = ageDays >= 0 && ageDays < 180
	case <-time.After(timeout):
		e.logger.Debug().Str("domain", registrable).Msg("whois probe timed out")
	}
}

var whoisDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseWHOISDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range whoisDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}

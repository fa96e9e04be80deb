package threatintel

import (
	"encoding/json"
	"io"
)

type vendorStats struct {
	malicious  int
	suspicious int
	harmless   int
	undetected int
}

// parseVendorStats extracts the malicious/suspicious/harmless/undetected
// vendor counts from a URL-reputation analysis response.
func parseVendorStats(body io.Reader) (vendorStats, error) {
	var payload struct {
		Data struct {
			Attributes struct {
				Stats struct {
					Malicious  int `json:"malicious"`
					Suspicious int `json:"suspicious"`
					Harmless   int `json:"harmless"`
					Undetected int `json:"undetected"`
				} `json:"stats"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return vendorStats{}, err
	}
	stats := payload.Data.Attributes.Stats
	return vendorStats{
		malicious:  stats.Malicious,
		suspicious: stats.Suspicious,
		harmless:   stats.Harmless,
		undetected: stats.Undetected,
	}, nil
}

// parseAbuseData extracts the abuse confidence score, report count, and
// whitelist flag from a host-reputation check response.
func parseAbuseData(body io.Reader) (abuseScore, totalReports int, whitelisted bool, err error) {
	var payload struct {
		Data struct {
			AbuseConfidenceScore int  `json:"abuseConfidenceScore"`
			TotalReports         int  `json:"totalReports"`
			IsWhitelisted        bool `json:"isWhitelisted"`
		} `json:"data"`
	}
	if err = json.NewDecoder(body).Decode(&payload); err != nil {
		return 0, 0, false, err
	}
	return payload.Data.AbuseConfidenceScore, payload.Data.TotalReports, payload.Data.IsWhitelisted, nil
}

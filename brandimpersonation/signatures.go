package brandimpersonation

import "regexp"

// signature holds one brand's visual/textual fingerprint: the CSS palette
// it's known for, keywords that appear on its real login pages, and regex
// patterns matching its account-related phrasing. Deliberately a smaller,
// curated subset of lookalike.Brands(): not every whitelisted brand has a
// maintained visual signature worth matching against.
type signature struct {
	brand    string
	colors   []string
	keywords []string
	patterns []*regexp.Regexp
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile("(?i)"+p))
	}
	return out
}

var signatures = []signature{
	{
		brand:    "google",
		colors:   []string{"#4285F4", "#EA4335", "#FBBC04", "#34A853"},
		keywords: []string{"google", "gmail", "sign in", "account"},
		patterns: compile(`google\s+account`, `gmail\s+sign`, `@gmail\.com`),
	},
	{
		brand:    "microsoft",
		colors:   []string{"#00A4EF", "#7FBA00", "#FFB900", "#F25022"},
		keywords: []string{"microsoft", "office", "outlook", "onedrive", "microsoft 365"},
		patterns: compile(`microsoft\s+account`, `office\s+365`, `outlook\s+sign`),
	},
	{
		brand:    "apple",
		colors:   []string{"#000000", "#FFFFFF", "#555555"},
		keywords: []string{"apple", "icloud", "apple id", "app store"},
		patterns: compile(`apple\s+id`, `icloud\s+sign`, `@icloud\.com`),
	},
	{
		brand:    "amazon",
		colors:   []string{"#FF9900", "#146EB4", "#232F3E"},
		keywords: []string{"amazon", "prime", "aws", "sign in"},
		patterns: compile(`amazon\s+account`, `amazon\s+prime`, `aws\s+console`),
	},
	{
		brand:    "facebook",
		colors:   []string{"#1877F2", "#4267B2", "#385898"},
		keywords: []string{"facebook", "meta", "log in", "sign up"},
		patterns: compile(`facebook\s+log`, `@facebook\.com`, `meta\s+account`),
	},
	{
		brand:    "meta",
		colors:   []string{"#0081FB", "#0668E1"},
		keywords: []string{"meta", "facebook", "instagram", "whatsapp"},
		patterns: compile(`meta\s+account`, `meta\s+quest`),
	},
	{
		brand:    "paypal",
		colors:   []string{"#003087", "#009CDE", "#012169"},
		keywords: []string{"paypal", "payment", "send money", "log in"},
		patterns: compile(`paypal\s+account`, `paypal\s+log`, `@paypal\.com`),
	},
	{
		brand:    "chase",
		colors:   []string{"#117ACA", "#005CB9"},
		keywords: []string{"chase", "jpmorgan", "bank", "sign in"},
		patterns: compile(`chase\s+bank`, `chase\s+online`, `jpmorgan\s+chase`),
	},
	{
		brand:    "bankofamerica",
		colors:   []string{"#012169", "#E31837"},
		keywords: []string{"bank of america", "bofa", "online banking"},
		patterns: compile(`bank\s+of\s+america`, `bofa\s+online`),
	},
	{
		brand:    "wellsfargo",
		colors:   []string{"#D71E28", "#FFCD41"},
		keywords: []string{"wells fargo", "banking", "sign on"},
		patterns: compile(`wells\s+fargo`, `wellsfargo\s+online`),
	},
	{
		brand:    "outlook",
		colors:   []string{"#0078D4", "#106EBE"},
		keywords: []string{"outlook", "hotmail", "live", "sign in"},
		patterns: compile(`outlook\s+sign`, `@outlook\.com`, `@hotmail\.com`),
	},
	{
		brand:    "yahoo",
		colors:   []string{"#5F01D1", "#720E9E"},
		keywords: []string{"yahoo", "mail", "sign in"},
		patterns: compile(`yahoo\s+mail`, `@yahoo\.com`, `yahoo\s+account`),
	},
	{
		brand:    "linkedin",
		colors:   []string{"#0A66C2", "#0077B5"},
		keywords: []string{"linkedin", "professional network", "sign in"},
		patterns: compile(`linkedin\s+sign`, `@linkedin\.com`),
	},
	{
		brand:    "twitter",
		colors:   []string{"#1DA1F2", "#14171A"},
		keywords: []string{"twitter", "tweet", "log in"},
		patterns: compile(`twitter\s+log`, `@twitter\.com`),
	},
	{
		brand:    "instagram",
		colors:   []string{"#E4405F", "#833AB4", "#FD1D1D", "#F77737"},
		keywords: []string{"instagram", "insta", "log in"},
		patterns: compile(`instagram\s+log`, `@instagram\.com`),
	},
	{
		brand:    "ebay",
		colors:   []string{"#E53238", "#F5AF02", "#86B817", "#0064D2"},
		keywords: []string{"ebay", "buy", "sell", "sign in"},
		patterns: compile(`ebay\s+sign`, `@ebay\.com`),
	},
	{
		brand:    "walmart",
		colors:   []string{"#0071CE", "#FFC220"},
		keywords: []string{"walmart", "shop", "sign in"},
		patterns: compile(`walmart\s+account`, `walmart\s+online`),
	},
	{
		brand:    "coinbase",
		colors:   []string{"#0052FF", "#1652F0"},
		keywords: []string{"coinbase", "crypto", "bitcoin", "sign in"},
		patterns: compile(`coinbase\s+sign`, `coinbase\s+wallet`),
	},
	{
		brand:    "binance",
		colors:   []string{"#F3BA2F", "#FCD535"},
		keywords: []string{"binance", "crypto", "trading", "log in"},
		patterns: compile(`binance\s+log`, `binance\s+account`),
	},
}

package lookalike

// Brand is one entry in the canonical brand index. Domain is the full
// registrable domain; category groups brands for reporting across twelve
// categories.
type Brand struct {
	Domain   string
	Category string
}

// brandWhitelist is the canonical brand index across twelve categories:
// 369 entries, 347 distinct domains (some domains are listed in more than
// one category).
var brandWhitelist = map[string][]string{
	"financial": {
		"paypal.com", "chase.com", "bankofamerica.com", "wellsfargo.com",
		"capitalone.com", "citi.com", "usbank.com", "barclays.com",
		"hsbc.com", "americanexpress.com", "discover.com", "ally.com",
		"goldmansachs.com", "morganstanley.com", "schwab.com", "fidelity.com",
		"vanguard.com", "etrade.com", "tdameritrade.com", "robinhood.com",
		"coinbase.com", "binance.com", "kraken.com", "gemini.com",
		"stripe.com", "square.com", "venmo.com", "cashapp.com",
		"transferwise.com", "revolut.com", "monzo.com", "n26.com",
		"santander.com", "bbva.com", "bnpparibas.com", "dbs.com",
		"standardchartered.com", "rbs.com", "lloydsbank.com", "nationwide.com",
		"pnc.com", "truist.com", "regions.com", "suntrust.com",
		"navyfederal.com", "usaa.com", "keybank.com", "bbt.com",
		"fifth-third.com", "citizensbank.com",
	},
	"tech": {
		"google.com", "microsoft.com", "apple.com", "amazon.com",
		"facebook.com", "meta.com", "instagram.com", "whatsapp.com",
		"twitter.com", "x.com", "linkedin.com", "youtube.com",
		"netflix.com", "spotify.com", "adobe.com", "salesforce.com",
		"oracle.com", "ibm.com", "sap.com", "cisco.com",
		"intel.com", "nvidia.com", "amd.com", "dell.com",
		"hp.com", "lenovo.com", "asus.com", "samsung.com",
		"sony.com", "lg.com", "panasonic.com", "toshiba.com",
		"alibaba.com", "tencent.com", "baidu.com", "jd.com",
		"zoom.com", "slack.com", "dropbox.com", "box.com",
		"github.com", "gitlab.com", "bitbucket.com", "atlassian.com",
		"asana.com", "trello.com", "notion.com", "monday.com",
		"shopify.com", "squarespace.com", "wix.com", "wordpress.com",
	},
	"email": {
		"gmail.com", "outlook.com", "yahoo.com", "protonmail.com",
		"icloud.com", "aol.com", "hotmail.com", "live.com",
		"mail.com", "zoho.com", "yandex.com", "gmx.com",
		"tutanota.com", "fastmail.com", "hushmail.com", "runbox.com",
		"mailbox.org", "posteo.de", "mailfence.com", "startmail.com",
		"telegram.com", "signal.org", "discord.com", "skype.com",
		"viber.com", "line.me", "wechat.com", "kakao.com",
		"messenger.com", "snapchat.com",
	},
	"ecommerce": {
		"amazon.com", "ebay.com", "walmart.com", "target.com",
		"bestbuy.com", "homedepot.com", "lowes.com", "costco.com",
		"macys.com", "nordstrom.com", "kohls.com", "jcpenney.com",
		"alibaba.com", "aliexpress.com", "etsy.com", "wayfair.com",
		"overstock.com", "newegg.com", "zappos.com", "chewy.com",
		"instacart.com", "doordash.com", "ubereats.com", "grubhub.com",
		"postmates.com", "seamless.com", "deliveroo.com", "just-eat.com",
		"booking.com", "expedia.com", "airbnb.com", "hotels.com",
		"trivago.com", "kayak.com", "priceline.com", "orbitz.com",
		"travelocity.com", "hotwire.com", "tripadvisor.com", "vrbo.com",
	},
	"social": {
		"facebook.com", "instagram.com", "twitter.com", "linkedin.com",
		"tiktok.com", "snapchat.com", "pinterest.com", "reddit.com",
		"tumblr.com", "flickr.com", "medium.com", "quora.com",
		"stackoverflow.com", "behance.net", "dribbble.com", "vimeo.com",
		"twitch.tv", "dailymotion.com", "soundcloud.com", "mixcloud.com",
		"mastodon.social", "threads.net", "bluesky.social", "truthsocial.com",
		"parler.com",
	},
	"enterprise": {
		"salesforce.com", "microsoft.com", "office365.com", "office.com",
		"google.com", "aws.amazon.com", "azure.com", "cloud.google.com",
		"ibm.com", "oracle.com", "sap.com", "servicenow.com",
		"workday.com", "adp.com", "paychex.com", "zendesk.com",
		"freshworks.com", "hubspot.com", "mailchimp.com", "constantcontact.com",
		"sendgrid.com", "twilio.com", "vonage.com", "ringcentral.com",
		"goto.com", "webex.com", "docusign.com", "adobesign.com",
		"hellosign.com", "pandadoc.com", "basecamp.com", "smartsheet.com",
		"airtable.com", "clickup.com",
	},
	"government": {
		"usa.gov", "irs.gov", "usps.com", "ssa.gov",
		"fbi.gov", "dhs.gov", "state.gov", "nasa.gov",
		"cdc.gov", "nih.gov", "fda.gov", "epa.gov",
		"sec.gov", "ftc.gov", "dol.gov", "va.gov",
		"medicare.gov", "dmv.org", "gov.uk", "nhs.uk",
		"europa.eu", "un.org", "who.int", "worldbank.org",
		"imf.org", "nato.int",
	},
	"education": {
		"harvard.edu", "mit.edu", "stanford.edu", "berkeley.edu",
		"yale.edu", "princeton.edu", "columbia.edu", "upenn.edu",
		"cornell.edu", "caltech.edu", "northwestern.edu", "duke.edu",
		"brown.edu", "dartmouth.edu", "vanderbilt.edu", "rice.edu",
		"notredame.edu", "georgetown.edu", "cmu.edu", "usc.edu",
		"ucla.edu", "ucsd.edu", "ox.ac.uk", "cam.ac.uk",
		"coursera.org", "udemy.com", "khanacademy.org", "edx.org",
	},
	"streaming": {
		"netflix.com", "hulu.com", "disneyplus.com", "hbomax.com",
		"primevideo.com", "youtube.com", "twitch.tv", "vimeo.com",
		"spotify.com", "pandora.com", "soundcloud.com", "tidal.com",
		"deezer.com", "peacocktv.com", "paramountplus.com", "showtime.com",
		"starz.com", "espn.com", "nfl.com", "nba.com",
		"mlb.com", "sling.com",
	},
	"gaming": {
		"steam.com", "epicgames.com", "origin.com", "ubisoft.com",
		"ea.com", "activision.com", "blizzard.com", "riotgames.com",
		"playstation.com", "xbox.com", "nintendo.com", "roblox.com",
		"minecraft.net", "fortnite.com", "leagueoflegends.com", "valorant.com",
		"overwatch.com", "callofduty.com", "battlefield.com", "gog.com",
		"humblebundle.com", "itch.io",
	},
	"storage": {
		"dropbox.com", "onedrive.com", "icloud.com", "box.com",
		"mega.nz", "sync.com", "pcloud.com", "icedrive.net",
		"tresorit.com", "nextcloud.com", "owncloud.com", "backblaze.com",
		"carbonite.com", "idrive.com", "crashplan.com", "digitalocean.com",
	},
	"security": {
		"nordvpn.com", "expressvpn.com", "surfshark.com", "cyberghost.com",
		"privatevpn.com", "purevpn.com", "ipvanish.com", "tunnelbear.com",
		"protonvpn.com", "mullvad.net", "windscribe.com", "lastpass.com",
		"1password.com", "dashlane.com", "bitwarden.com", "keeper.com",
		"roboform.com", "nortonlifelock.com", "mcafee.com", "avg.com",
		"avast.com", "kaspersky.com", "bitdefender.com", "malwarebytes.com",
	},
}

// categoryOrder fixes brandWhitelist's iteration order so that "first
// encountered" tie-breaking in Detect is deterministic across runs — Go
// map iteration order is randomized, and two brands tying on similarity
// must still resolve to a stable winner.
var categoryOrder = []string{
	"financial", "tech", "email", "ecommerce", "social", "enterprise",
	"government", "education", "streaming", "gaming", "storage", "security",
}

// Brands flattens brandWhitelist into the canonical brand index in a fixed,
// deterministic order.
func Brands() []Brand {
	var out []Brand
	for _, category := range categoryOrder {
		for _, d := range brandWhitelist[category] {
			out = append(out, Brand{Domain: d, Category: category})
		}
	}
	return out
}

// Count returns the total number of brand index entries; a domain listed
// in several categories is counted once per category.
func Count() int {
	total := 0
	for _, domains := range brandWhitelist {
		total += len(domains)
	}
	return total
}

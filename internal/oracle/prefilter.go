package oracle

import "strings"

// Static keyword lists for ISP names whose disposition is obvious. Matching
// here saves a model round trip; anything ambiguous falls through to the
// LLM. Keywords are matched case-insensitively as substrings of the ISP
// name.
var (
	unsafeKeywords = []string{
		"amazon", "aws",
		"microsoft", "azure",
		"google cloud", "google llc",
		"digitalocean", "digital ocean",
		"hetzner", "ovh", "linode", "vultr", "contabo", "scaleway",
		"alibaba cloud", "tencent cloud", "oracle cloud",
		"brightdata", "bright data", "oxylabs", "luminati", "smartproxy",
		"zscaler", "fortinet", "proofpoint", "palo alto",
		"datacamp", "m247", "leaseweb", "choopa", "colocrossing",
	}

	safeKeywords = []string{
		"comcast", "xfinity", "charter", "spectrum", "cox communications",
		"verizon", "at&t", "t-mobile", "sprint",
		"vodafone", "orange", "telefonica", "deutsche telekom",
		"rogers", "bell canada", "telus", "shaw",
		"virgin media", "bt group", "sky broadband",
		"airtel", "mtn", "jio", "safaricom",
		"centurylink", "frontier communications", "windstream",
	}
)

// prefilter answers obvious ISP names from the static lists. The deny list
// is checked first so a name matching both partitions stays unsafe.
func prefilter(isp string) (Result, bool) {
	lower := strings.ToLower(isp)
	for _, kw := range unsafeKeywords {
		if strings.Contains(lower, kw) {
			return Result{
				Category:  CategoryUnsafe,
				Rationale: "matched known cloud/proxy/scraper provider keyword: " + kw,
			}, true
		}
	}
	for _, kw := range safeKeywords {
		if strings.Contains(lower, kw) {
			return Result{
				Category:  CategorySafe,
				Rationale: "matched known residential/mobile carrier keyword: " + kw,
			}, true
		}
	}
	return Result{}, false
}

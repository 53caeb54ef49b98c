package analysis

import "strings"

// Allowed categorical tags. The taxonomy is sourced from the model and
// expected to drift, so this is a boundary allow-list over string values,
// not a compile-time enum. Unknown tags are dropped, not rejected.
var allowedTags = map[string]struct{}{}

func init() {
	for _, tag := range []string{
		// business type
		"b2b", "b2c", "b2b2c", "marketplace", "saas", "service", "product",
		"agency", "community", "content", "api",
		// revenue model
		"subscription", "one-time", "usage-based", "freemium", "commission",
		"advertising", "licensing",
		// platform
		"web", "mobile", "desktop", "browser-extension", "slack-app",
		"chrome-extension", "no-code", "embedded",
		// audience
		"founders", "freelancers", "smb", "enterprise", "developers",
		"creators", "consumers", "agencies", "ecommerce", "local-business",
		// motion
		"self-serve", "sales-led", "plg", "niche", "horizontal", "vertical",
		// build characteristics
		"ai-powered", "automation", "integration", "analytics", "workflow",
		"compliance", "fintech", "healthtech", "edtech", "proptech",
		"legaltech", "hrtech", "martech", "devtools",
	} {
		allowedTags[tag] = struct{}{}
	}
}

// Validation tiers the market-validation sub-record may use
var allowedTiers = map[string]struct{}{
	"none": {}, "low": {}, "medium": {}, "high": {}, "very_high": {},
}

// FilterTags lowercases, trims and allow-lists the model's tags, dropping
// anything outside the taxonomy and de-duplicating the rest.
func FilterTags(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	filtered := make([]string, 0, len(raw))
	for _, tag := range raw {
		normalized := strings.ToLower(strings.TrimSpace(tag))
		if normalized == "" {
			continue
		}
		if _, ok := allowedTags[normalized]; !ok {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		filtered = append(filtered, normalized)
	}
	return filtered
}

// NormalizeTier maps a model-reported tier onto the fixed tier set, falling
// back to "none" for anything it does not recognize.
func NormalizeTier(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	if _, ok := allowedTiers[normalized]; ok {
		return normalized
	}
	return "none"
}

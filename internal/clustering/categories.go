package clustering

import "strings"

// GenericCategory is the bucket for phrases nothing else claims
const GenericCategory = "general"

// Keyword lookup for coarse categories. Order matters: the first category
// with a matching keyword wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"marketing", []string{"marketing", "seo", "ads", "advertising", "leads", "outreach", "social media", "newsletter", "content"}},
	{"finance", []string{"invoice", "invoicing", "bookkeeping", "accounting", "taxes", "payroll", "payments", "expense", "budget"}},
	{"sales", []string{"crm", "sales", "cold email", "prospect", "pipeline", "quote", "proposal"}},
	{"hiring", []string{"hiring", "recruit", "candidate", "interview", "onboarding", "freelancer", "contractor"}},
	{"productivity", []string{"schedule", "scheduling", "calendar", "notes", "tasks", "todo", "project management", "workflow", "automate", "automation"}},
	{"devtools", []string{"api", "deploy", "hosting", "database", "code", "testing", "monitoring", "ci", "debugging"}},
	{"ecommerce", []string{"shopify", "store", "inventory", "shipping", "fulfillment", "dropship", "listing", "product photos"}},
	{"support", []string{"support", "helpdesk", "tickets", "chatbot", "faq", "customer service"}},
	{"legal", []string{"contract", "legal", "compliance", "privacy", "terms", "trademark", "incorporat"}},
	{"analytics", []string{"analytics", "dashboard", "report", "metrics", "tracking", "data"}},
}

// Channel-default categories for phrases the keyword table misses
var channelDefaults = map[string]string{
	"entrepreneur":  "productivity",
	"smallbusiness": "finance",
	"SaaS":          "devtools",
	"startups":      "productivity",
	"freelance":     "sales",
}

// CategoryFor assigns the coarse category for a phrase: keyword lookup
// first, then the channel default, then the generic bucket. Scoping
// similarity search by this category is what keeps the comparison set small.
func CategoryFor(phrase, channel string) string {
	lowered := strings.ToLower(phrase)
	for _, entry := range categoryKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lowered, keyword) {
				return entry.category
			}
		}
	}
	if fallback, ok := channelDefaults[channel]; ok {
		return fallback
	}
	return GenericCategory
}

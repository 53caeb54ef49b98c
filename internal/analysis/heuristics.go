package analysis

// Channel-specific heuristics blocks bias the model toward the pattern of
// demand each community actually expresses. Input shaping only; the lookup
// falls back to a generic block for unknown channels.
var channelHeuristics = map[string]string{
	"entrepreneur": `Posts here often describe operational pain while building a business.
Watch for: repeated manual workflows, tool-stitching complaints, hiring friction,
and "I pay for X but it still can't do Y" framings.`,

	"smallbusiness": `Posters are owner-operators with little tolerance for complex tooling.
Watch for: bookkeeping and compliance pain, local-marketing struggles, and
workflows still done on paper or spreadsheets. Price sensitivity is high.`,

	"SaaS": `Posters are builders and buyers of software products.
Watch for: churn-driving gaps in existing tools, painful integrations,
pricing-model complaints, and requests for niche verticalized versions of
horizontal products.`,

	"startups": `Posts mix idea validation with execution pain.
Watch for: problems posters have personally paid to work around, repeated
founder workflows without tooling, and distribution bottlenecks.`,

	"freelance": `Posters sell their own time and feel friction immediately.
Watch for: client acquisition pain, invoicing and chasing payments, scope
management, and admin overhead that eats billable hours.`,
}

const genericHeuristics = `Look for concrete, recurring problems the poster or commenters have
tried and failed to solve, especially where money is already being spent on a
bad workaround. Ignore hypothetical ideas with no underlying pain.`

// HeuristicsFor returns the heuristics block for a channel, falling back to
// the generic block.
func HeuristicsFor(channel string) string {
	if block, ok := channelHeuristics[channel]; ok {
		return block
	}
	return genericHeuristics
}

package analysis

import (
	"fmt"
	"strings"

	"demand-scout/internal/models"
)

const systemPrompt = `You are an analyst that reads forum posts and decides whether they
describe a viable business opportunity. You respond with JSON only, matching
the schema you were given. Score each rubric dimension from 0 to 10 based on
how much better a purpose-built solution could be than the status quo the
poster describes. Be conservative: most posts are not opportunities.`

const maxBodyChars = 6000

// buildPrompt renders the structured prompt for one item: the post text plus
// the channel heuristics block.
func buildPrompt(item *models.SourceItem) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Channel: %s\n", item.Channel)
	fmt.Fprintf(&b, "Heuristics for this channel:\n%s\n\n", HeuristicsFor(item.Channel))
	fmt.Fprintf(&b, "Post title: %s\n", item.Title)
	fmt.Fprintf(&b, "Engagement: score=%d comments=%d\n\n", item.Score, item.CommentCount)

	body := item.Body
	if len(body) > maxBodyChars {
		body = body[:maxBodyChars]
	}
	if body == "" {
		b.WriteString("Post body: (link post, no body text)\n")
	} else {
		fmt.Fprintf(&b, "Post body:\n%s\n", body)
	}

	b.WriteString("\nReturn a single JSON object for this post.\n")
	return b.String()
}

// buildBatchPrompt renders one prompt covering several items. The model is
// expected to answer with a results array in the same order.
func buildBatchPrompt(items []*models.SourceItem) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze the following %d forum posts independently.\n", len(items))
	b.WriteString("Return a JSON object {\"results\": [...]} with exactly one entry per post, in the same order.\n\n")

	for i, item := range items {
		fmt.Fprintf(&b, "--- Post %d ---\n", i+1)
		fmt.Fprintf(&b, "Channel: %s\n", item.Channel)
		fmt.Fprintf(&b, "Heuristics: %s\n", HeuristicsFor(item.Channel))
		fmt.Fprintf(&b, "Title: %s\n", item.Title)

		body := item.Body
		if len(body) > maxBodyChars {
			body = body[:maxBodyChars]
		}
		if body != "" {
			fmt.Fprintf(&b, "Body:\n%s\n", body)
		}
		b.WriteString("\n")
	}

	return b.String()
}

package ingest

import (
	"strings"

	"demand-scout/internal/forum"
)

// Engagement floors. Posts below both are structural noise, not signal.
const (
	minScore        = 2
	minCommentCount = 1
)

// Recurring-thread markers. These are cheap pre-dedup rejections: they never
// reach storage and are not counted as duplicates.
var noisePatterns = []string{
	"daily thread",
	"weekly thread",
	"monthly thread",
	"megathread",
	"open thread",
	"who's hiring",
	"hiring thread",
	"feedback friday",
	"promo saturday",
	"self promotion",
	"share your",
	"rate my",
	"[mod post]",
}

// Rejection pairs a filtered-out post with the inspectable reasons, the
// feedback loop for tuning these filters.
type Rejection struct {
	Post    forum.Post
	Reasons []string
}

// Filter applies the quality heuristics to a fetched page and splits it into
// surviving posts and rejections.
func Filter(posts []forum.Post) ([]forum.Post, []Rejection) {
	kept := make([]forum.Post, 0, len(posts))
	var rejected []Rejection

	for _, post := range posts {
		if reasons := rejectionReasons(post); len(reasons) > 0 {
			rejected = append(rejected, Rejection{Post: post, Reasons: reasons})
			continue
		}
		kept = append(kept, post)
	}

	return kept, rejected
}

func rejectionReasons(post forum.Post) []string {
	var reasons []string

	if post.Pinned {
		reasons = append(reasons, "pinned")
	}
	if post.Locked {
		reasons = append(reasons, "locked")
	}
	if post.Flagged {
		reasons = append(reasons, "flagged/removed")
	}
	if strings.TrimSpace(post.Title) == "" && strings.TrimSpace(post.Body) == "" {
		reasons = append(reasons, "no title or body")
	}
	if post.Score < minScore && post.CommentCount < minCommentCount {
		reasons = append(reasons, "below engagement floor")
	}
	if pattern := matchNoisePattern(post.Title); pattern != "" {
		reasons = append(reasons, "noise pattern: "+pattern)
	}

	return reasons
}

func matchNoisePattern(title string) string {
	lowered := strings.ToLower(title)
	for _, pattern := range noisePatterns {
		if strings.Contains(lowered, pattern) {
			return pattern
		}
	}
	return ""
}

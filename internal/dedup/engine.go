// Package dedup decides whether a candidate source item or derived
// opportunity is novel, a near-duplicate, or an exact match of something
// recently stored. The comparison functions are pure: callers inject the
// bounded recent-history window, which keeps the engine testable without a
// live store.
package dedup

import (
	"strings"

	"demand-scout/internal/similarity"

	"github.com/google/uuid"
)

// Match reasons
const (
	ReasonExactID           = "exact id"
	ReasonTitleAuthor       = "title+author match"
	ReasonContentSimilarity = "content similarity"
	ReasonExactTitle        = "exact title match"
)

// Tunable bounds for the recent-history windows. The bounded sample is a
// deliberate recall/cost tradeoff: a true duplicate older than the lookback
// or past the cap is not caught.
const (
	ItemLookbackDays = 30
	ItemSampleCap    = 100

	OpportunityLookbackDays = 60
	OpportunitySampleCap    = 200
)

// Similarity thresholds and field weights
const (
	itemFuzzyThreshold        = 0.9
	itemContentWeight         = 0.8
	opportunityFuzzyThreshold = 0.85
	opportunityDescWeight     = 0.8
	opportunitySolutionWeight = 0.9
)

// ConfidenceOverwriteBar is the minimum confidence a re-analysis must carry
// before it may overwrite an existing opportunity's stored score and
// viability. Below it, a merge only increments the source count.
const ConfidenceOverwriteBar = 0.95

// Result reports the dedup decision for one candidate
type Result struct {
	IsDuplicate bool
	MatchedID   uuid.UUID
	Similarity  float64
	Reason      string
}

// ItemCandidate is the slice of a fetched post the engine compares
type ItemCandidate struct {
	ExternalID string
	Title      string
	Body       string
	Author     string
}

// ItemHistory is one stored source item from the recent window
type ItemHistory struct {
	ID         uuid.UUID
	ExternalID string
	Title      string
	Body       string
	Author     string
}

// CheckItem applies source-item dedup in priority order: exact external id,
// case-insensitive title+author, then fuzzy text similarity against the
// injected window. "No match" is a normal result, never an error.
func CheckItem(candidate ItemCandidate, recent []ItemHistory) Result {
	for _, h := range recent {
		if h.ExternalID == candidate.ExternalID {
			return Result{IsDuplicate: true, MatchedID: h.ID, Reason: ReasonExactID}
		}
	}

	for _, h := range recent {
		if candidate.Title != "" && candidate.Author != "" &&
			strings.EqualFold(h.Title, candidate.Title) &&
			strings.EqualFold(h.Author, candidate.Author) {
			return Result{IsDuplicate: true, MatchedID: h.ID, Reason: ReasonTitleAuthor}
		}
	}

	best := Result{}
	for _, h := range recent {
		titleSim := similarity.Jaccard(candidate.Title, h.Title)
		contentSim := similarity.Jaccard(candidate.Body, h.Body)

		score := titleSim
		if weighted := contentSim * itemContentWeight; weighted > score {
			score = weighted
		}
		if score > best.Similarity {
			best = Result{MatchedID: h.ID, Similarity: score}
		}
	}

	if best.Similarity >= itemFuzzyThreshold {
		best.IsDuplicate = true
		best.Reason = ReasonContentSimilarity
		return best
	}

	return Result{}
}

// OpportunityCandidate is the slice of a freshly analyzed opportunity the
// engine compares
type OpportunityCandidate struct {
	Title       string
	Description string
	Solution    string
	Niche       string
}

// OpportunityHistory is one stored opportunity from the recent window
type OpportunityHistory struct {
	ID          uuid.UUID
	Title       string
	Description string
	Solution    string
}

// CheckOpportunity applies opportunity dedup: case-insensitive exact title
// first, then fuzzy similarity over title, description and solution.
func CheckOpportunity(candidate OpportunityCandidate, recent []OpportunityHistory) Result {
	for _, h := range recent {
		if candidate.Title != "" && strings.EqualFold(h.Title, candidate.Title) {
			return Result{IsDuplicate: true, MatchedID: h.ID, Similarity: 1.0, Reason: ReasonExactTitle}
		}
	}

	best := Result{}
	for _, h := range recent {
		score := similarity.Jaccard(candidate.Title, h.Title)
		if weighted := similarity.Jaccard(candidate.Description, h.Description) * opportunityDescWeight; weighted > score {
			score = weighted
		}
		if weighted := similarity.Jaccard(candidate.Solution, h.Solution) * opportunitySolutionWeight; weighted > score {
			score = weighted
		}
		if score > best.Similarity {
			best = Result{MatchedID: h.ID, Similarity: score}
		}
	}

	if best.Similarity >= opportunityFuzzyThreshold {
		best.IsDuplicate = true
		best.Reason = ReasonContentSimilarity
		return best
	}

	return Result{}
}

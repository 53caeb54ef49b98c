// Package forum is the client for the source-content API: bounded pages of
// posts per channel, ranked by a caller-chosen order.
package forum

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// SortOrder is the ranking the source applies to a fetched page
type SortOrder string

const (
	SortHot SortOrder = "hot"
	SortNew SortOrder = "new"
	SortTop SortOrder = "top"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultRequestsPerSec = 1.0
	defaultRetryAfter     = 60 * time.Second
)

// Post is one unit of content as returned by the source
type Post struct {
	ExternalID   string
	Title        string
	Body         string
	Author       string
	Permalink    string
	Score        int
	CommentCount int
	Upvotes      int
	Downvotes    int
	Pinned       bool
	Locked       bool
	Flagged      bool
	CreatedAt    time.Time
}

// Client fetches post pages from the forum API. Requests are rate limited so
// a burst of channel runs cannot get the whole service throttled.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a forum API client
func NewClient(baseURL, userAgent string, requestsPerSec float64, logger zerolog.Logger) *Client {
	if requestsPerSec <= 0 {
		requestsPerSec = defaultRequestsPerSec
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSec), 1),
		logger:  logger,
	}
}

// listing mirrors the forum's wire format for a page of posts
type listing struct {
	Data struct {
		Children []struct {
			Data postPayload `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type postPayload struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	SelfText          string  `json:"selftext"`
	SelfTextHTML      string  `json:"selftext_html"`
	Author            string  `json:"author"`
	Score             int     `json:"score"`
	NumComments       int     `json:"num_comments"`
	Ups               int     `json:"ups"`
	Downs             int     `json:"downs"`
	Permalink         string  `json:"permalink"`
	Stickied          bool    `json:"stickied"`
	Locked            bool    `json:"locked"`
	RemovedByCategory string  `json:"removed_by_category"`
	CreatedUTC        float64 `json:"created_utc"`
}

// FetchPage fetches up to limit posts for a channel, ranked by sortOrder and
// returned sorted descending by creation time. Transport failures carry a
// discriminated kind (blocked, rate-limited, transient).
func (c *Client) FetchPage(ctx context.Context, channel string, sortOrder SortOrder, limit int) ([]Post, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Kind: KindTransient, Message: err.Error()}
	}

	url := fmt.Sprintf("%s/r/%s/%s.json?limit=%d&raw_json=1", c.baseURL, channel, sortOrder, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// timeouts and connection failures are retryable
		return nil, &TransportError{Kind: KindTransient, Message: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return nil, &TransportError{
			Kind:       KindBlocked,
			StatusCode: resp.StatusCode,
			Message:    "source refused the request",
		}
	case resp.StatusCode == http.StatusNotFound:
		// a missing channel will not appear on retry
		return nil, &TransportError{
			Kind:       KindBlocked,
			StatusCode: resp.StatusCode,
			Message:    "channel not found",
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &TransportError{
			Kind:       KindRateLimited,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    "source rate limited the request",
		}
	case resp.StatusCode != http.StatusOK:
		return nil, &TransportError{
			Kind:       KindTransient,
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
		}
	}

	var page listing
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode listing for %s: %w", channel, err)
	}

	posts := make([]Post, 0, len(page.Data.Children))
	for _, child := range page.Data.Children {
		posts = append(posts, fromPayload(child.Data))
	}

	// newest first, so cursor truncation can stop at the first seen item
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})

	c.logger.Debug().
		Str("channel", channel).
		Str("sort", string(sortOrder)).
		Int("fetched", len(posts)).
		Msg("fetched page")

	return posts, nil
}

func fromPayload(p postPayload) Post {
	body := p.SelfText
	if body == "" && p.SelfTextHTML != "" {
		body = ExtractText(p.SelfTextHTML)
	}
	return Post{
		ExternalID:   p.ID,
		Title:        p.Title,
		Body:         body,
		Author:       p.Author,
		Permalink:    p.Permalink,
		Score:        p.Score,
		CommentCount: p.NumComments,
		Upvotes:      p.Ups,
		Downvotes:    p.Downs,
		Pinned:       p.Stickied,
		Locked:       p.Locked,
		Flagged:      p.RemovedByCategory != "",
		CreatedAt:    time.Unix(int64(p.CreatedUTC), 0).UTC(),
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return defaultRetryAfter
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultRetryAfter
}

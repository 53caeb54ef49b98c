package forum

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const listingFixture = `{
	"data": {
		"children": [
			{"data": {
				"id": "aaa111",
				"title": "Struggling with invoicing",
				"selftext": "every month the same chase",
				"author": "alice",
				"score": 12,
				"num_comments": 4,
				"ups": 14,
				"downs": 2,
				"permalink": "/r/smallbusiness/comments/aaa111/",
				"created_utc": 1756600000
			}},
			{"data": {
				"id": "bbb222",
				"title": "Weekly thread",
				"selftext": "",
				"selftext_html": "<div><p>introduce &amp; promote</p></div>",
				"author": "automod",
				"score": 3,
				"num_comments": 40,
				"stickied": true,
				"created_utc": 1756686400
			}}
		]
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "demand-scout-test/1.0", 100, zerolog.Nop()), server
}

func TestFetchPage(t *testing.T) {
	var gotPath, gotAgent string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(listingFixture))
	})

	posts, err := client.FetchPage(context.Background(), "smallbusiness", SortNew, 25)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}

	if gotPath != "/r/smallbusiness/new.json?limit=25&raw_json=1" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotAgent != "demand-scout-test/1.0" {
		t.Errorf("user agent = %q", gotAgent)
	}

	if len(posts) != 2 {
		t.Fatalf("posts = %d, want 2", len(posts))
	}

	// newest first
	if posts[0].ExternalID != "bbb222" {
		t.Errorf("first post = %q, want the newer bbb222", posts[0].ExternalID)
	}
	if !posts[0].CreatedAt.After(posts[1].CreatedAt) {
		t.Error("posts not sorted descending by creation time")
	}

	if posts[0].Body != "introduce & promote" {
		t.Errorf("HTML body not extracted: %q", posts[0].Body)
	}
	if !posts[0].Pinned {
		t.Error("stickied post should map to pinned")
	}

	second := posts[1]
	if second.Title != "Struggling with invoicing" || second.Author != "alice" {
		t.Errorf("post fields mangled: %+v", second)
	}
	if second.Score != 12 || second.CommentCount != 4 || second.Upvotes != 14 || second.Downvotes != 2 {
		t.Errorf("engagement fields mangled: %+v", second)
	}
	if second.CreatedAt != time.Unix(1756600000, 0).UTC() {
		t.Errorf("created at = %v", second.CreatedAt)
	}
}

func TestFetchPageStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		headers    map[string]string
		wantKind   ErrorKind
		retryAfter time.Duration
	}{
		{"forbidden", http.StatusForbidden, nil, KindBlocked, 0},
		{"unauthorized", http.StatusUnauthorized, nil, KindBlocked, 0},
		{"missing channel", http.StatusNotFound, nil, KindBlocked, 0},
		{"rate limited with header", http.StatusTooManyRequests, map[string]string{"Retry-After": "120"}, KindRateLimited, 2 * time.Minute},
		{"server error", http.StatusInternalServerError, nil, KindTransient, 0},
		{"bad gateway", http.StatusBadGateway, nil, KindTransient, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
			})

			_, err := client.FetchPage(context.Background(), "smallbusiness", SortNew, 10)
			if err == nil {
				t.Fatalf("expected error for HTTP %d", tt.status)
			}

			te, ok := err.(*TransportError)
			if !ok {
				t.Fatalf("error type = %T, want *TransportError", err)
			}
			if te.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", te.Kind, tt.wantKind)
			}
			if tt.retryAfter > 0 && te.RetryAfter != tt.retryAfter {
				t.Errorf("retry after = %v, want %v", te.RetryAfter, tt.retryAfter)
			}
		})
	}
}

func TestTransportErrorRetryable(t *testing.T) {
	if (&TransportError{Kind: KindBlocked}).Retryable() {
		t.Error("blocked must not be retryable")
	}
	if !(&TransportError{Kind: KindRateLimited}).Retryable() {
		t.Error("rate limited should be retryable")
	}
	if !(&TransportError{Kind: KindTransient}).Retryable() {
		t.Error("transient should be retryable")
	}
}

func TestSuggestedBackoff(t *testing.T) {
	err := &TransportError{Kind: KindRateLimited, RetryAfter: 45 * time.Second}
	if got := SuggestedBackoff(err, time.Minute); got != 45*time.Second {
		t.Errorf("SuggestedBackoff = %v, want server-suggested 45s", got)
	}
	if got := SuggestedBackoff(&TransportError{Kind: KindRateLimited}, time.Minute); got != time.Minute {
		t.Errorf("SuggestedBackoff without hint = %v, want fallback", got)
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"nested markup", "<div><p>need a <b>simple</b> tool</p></div>", "need a simple tool"},
		{"skips script", "<p>visible</p><script>var x = 1;</script>", "visible"},
		{"collapses whitespace", "<p>a</p>\n\n<p>b</p>", "a b"},
		{"plain text", "already plain", "already plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractText(tt.in); got != tt.want {
				t.Errorf("ExtractText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

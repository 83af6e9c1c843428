package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestClient(baseURL string) *Client {
	return NewClient(Options{
		BaseURL:   baseURL,
		Timeout:   time.Second,
		PageLimit: 50,
		UserAgent: "test",
	}, noopLogger())
}

func TestFetchSinceSuccess(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"start": r.URL.Query().Get("start"),
			"limit": r.URL.Query().Get("limit"),
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"_id": "b", "published_at": 2000},
				{"_id": "a", "published_at": 1500},
			},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	since := int64(1000)

	articles, latest, err := client.FetchSince(context.Background(), &since)
	if err != nil {
		t.Fatalf("fetch should succeed: %v", err)
	}

	if gotQuery["start"] != "1000" {
		t.Fatalf("start param should carry checkpoint, got %q", gotQuery["start"])
	}
	if gotQuery["limit"] != "50" {
		t.Fatalf("limit param should carry page limit, got %q", gotQuery["limit"])
	}

	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	// Ordered oldest to newest regardless of server order.
	if articles[0].ID() != "a" || articles[1].ID() != "b" {
		t.Fatalf("articles not sorted ascending: %v, %v", articles[0].ID(), articles[1].ID())
	}
	if latest != 2000 {
		t.Fatalf("expected checkpoint 2000, got %d", latest)
	}
}

func TestFetchSinceFiltersNotStrictlyNewer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"_id": "old", "published_at": 1000},
			{"_id": "new", "published_at": 1001},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	since := int64(1000)

	articles, latest, err := client.FetchSince(context.Background(), &since)
	if err != nil {
		t.Fatalf("fetch should succeed: %v", err)
	}
	if len(articles) != 1 || articles[0].ID() != "new" {
		t.Fatalf("boundary article should be dropped, got %v", articles)
	}
	if latest != 1001 {
		t.Fatalf("expected checkpoint 1001, got %d", latest)
	}
}

func TestFetchSinceEmptyBatchKeepsCheckpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	since := int64(5000)

	articles, latest, err := client.FetchSince(context.Background(), &since)
	if err != nil {
		t.Fatalf("fetch should succeed: %v", err)
	}
	if len(articles) != 0 {
		t.Fatalf("expected empty batch, got %d", len(articles))
	}
	if latest != 5000 {
		t.Fatalf("empty batch should leave checkpoint unchanged, got %d", latest)
	}
}

func TestFetchSinceBodyShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"data envelope", `{"data": [{"_id": "x", "published_at": 1}]}`, 1},
		{"articles envelope", `{"articles": [{"_id": "x", "published_at": 1}]}`, 1},
		{"bare array", `[{"_id": "x", "published_at": 1}]`, 1},
		{"object without list", `{"status": "ok"}`, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			articles, _, err := newTestClient(srv.URL).FetchSince(context.Background(), nil)
			if err != nil {
				t.Fatalf("fetch should succeed: %v", err)
			}
			if len(articles) != tc.want {
				t.Fatalf("expected %d articles, got %d", tc.want, len(articles))
			}
		})
	}
}

func TestFetchSinceHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "boom"})
	}))
	defer srv.Close()

	if _, _, err := newTestClient(srv.URL).FetchSince(context.Background(), nil); err == nil {
		t.Fatal("HTTP 500 should return an error")
	}
}

func TestFetchSinceMissingBaseURL(t *testing.T) {
	client := NewClient(Options{}, noopLogger())
	if _, _, err := client.FetchSince(context.Background(), nil); err == nil {
		t.Fatal("missing base url should return an error")
	}
}

func TestArticleFallbacks(t *testing.T) {
	a := Article{
		ArticleID:  "legacy-id",
		IngestedAt: 42,
		Content:    Content{Subheadline: "sub"},
	}
	if a.ID() != "legacy-id" {
		t.Fatalf("ID should fall back to article_id, got %q", a.ID())
	}
	if a.Timestamp() != 42 {
		t.Fatalf("Timestamp should fall back to ingested_at, got %d", a.Timestamp())
	}
	if a.Headline() != "sub" {
		t.Fatalf("Headline should fall back to subheadline, got %q", a.Headline())
	}
}

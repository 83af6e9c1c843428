package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"news-alerts/internal/feed"
	"news-alerts/internal/watch"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testArticle() feed.Article {
	return feed.Article{
		MongoID: "art-1",
		Content: feed.Content{
			Headline: "HPG announces record output",
			Summary:  "Steel production hit a new high this quarter.",
		},
		Source:    feed.Source{URL: "https://example.com/hpg"},
		Sentiment: &feed.Sentiment{Overall: 0.5},
	}
}

func TestTelegramNotifierDeliversToAllDestinations(t *testing.T) {
	var payloads []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("path should contain sendMessage, got %s", r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		payloads = append(payloads, payload)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	destinations := []Destination{
		{ChatID: "chat-a"},
		{ChatID: "chat-b", ThreadID: 77},
	}
	notifier := NewTelegramNotifier("token", srv.URL, destinations, time.Second, testLogger())

	match := watch.MatchResult{Symbols: []string{"HPG"}}
	deliveries := notifier.Notify(context.Background(), testArticle(), match)

	if len(deliveries) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(deliveries))
	}
	for _, d := range deliveries {
		if d.Err != nil {
			t.Fatalf("delivery to %s should succeed: %v", d.Destination, d.Err)
		}
	}

	if len(payloads) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(payloads))
	}
	if payloads[0]["chat_id"] != "chat-a" {
		t.Fatalf("first chat_id incorrect: %v", payloads[0])
	}
	if _, hasThread := payloads[0]["message_thread_id"]; hasThread {
		t.Fatal("thread id should be omitted when not configured")
	}
	if got := payloads[1]["message_thread_id"]; got != float64(77) {
		t.Fatalf("second destination should carry thread id, got %v", got)
	}

	text, _ := payloads[0]["text"].(string)
	if !strings.Contains(text, "HPG announces record output") {
		t.Fatalf("message should contain headline, got %q", text)
	}
	if !strings.Contains(text, "HPG") || !strings.Contains(text, "Positive") {
		t.Fatalf("message should contain keyword and sentiment, got %q", text)
	}
	if payloads[0]["parse_mode"] != "HTML" {
		t.Fatalf("parse_mode should be HTML, got %v", payloads[0]["parse_mode"])
	}
}

func TestTelegramNotifierIsolatesFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	destinations := []Destination{{ChatID: "broken"}, {ChatID: "healthy"}}
	notifier := NewTelegramNotifier("token", srv.URL, destinations, time.Second, testLogger())

	deliveries := notifier.Notify(context.Background(), testArticle(), watch.MatchResult{Symbols: []string{"HPG"}})

	if len(deliveries) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(deliveries))
	}
	if deliveries[0].Err == nil {
		t.Fatal("first destination should report an error")
	}
	if deliveries[1].Err != nil {
		t.Fatalf("second destination should still receive the message: %v", deliveries[1].Err)
	}
	if calls != 2 {
		t.Fatalf("both destinations should be attempted, got %d calls", calls)
	}
}

func TestTelegramNotifierOKFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "chat not found"})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", srv.URL, []Destination{{ChatID: "x"}}, time.Second, testLogger())
	deliveries := notifier.Notify(context.Background(), testArticle(), watch.MatchResult{})

	if deliveries[0].Err == nil {
		t.Fatal("ok=false should surface as a delivery error")
	}
	if !strings.Contains(deliveries[0].Err.Error(), "chat not found") {
		t.Fatalf("error should carry description, got %v", deliveries[0].Err)
	}
}

func TestSentimentLabel(t *testing.T) {
	cases := []struct {
		name      string
		sentiment *feed.Sentiment
		want      string
	}{
		{"positive", &feed.Sentiment{Overall: 0.6}, "Positive"},
		{"negative", &feed.Sentiment{Overall: -0.5}, "Negative"},
		{"neutral", &feed.Sentiment{Overall: 0.1}, "Neutral"},
		{"boundary", &feed.Sentiment{Overall: 0.2}, "Neutral"},
		{"absent", nil, "N/A"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			article := feed.Article{Sentiment: tc.sentiment}
			if got := SentimentLabel(article); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestRenderMessageTruncatesSummary(t *testing.T) {
	article := feed.Article{
		Content: feed.Content{
			Headline: "h",
			Summary:  strings.Repeat("x", 400),
		},
	}

	message := renderMessage(article, watch.MatchResult{})
	if strings.Contains(message, strings.Repeat("x", 301)) {
		t.Fatal("summary should be truncated to 300 runes")
	}
	if !strings.Contains(message, "No specific matches") {
		t.Fatalf("empty match should note no specific matches, got %q", message)
	}
}

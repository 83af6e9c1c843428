package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"news-alerts/internal/feed"
	"news-alerts/internal/watch"
)

// Destination is one chat target, with an optional forum thread.
type Destination struct {
	ChatID   string
	ThreadID int64
}

func (d Destination) String() string {
	if d.ThreadID != 0 {
		return fmt.Sprintf("%s/%d", d.ChatID, d.ThreadID)
	}
	return d.ChatID
}

// Delivery is the outcome of one destination's send attempt.
type Delivery struct {
	Destination Destination
	Err         error
}

// Notifier delivers a matched article to every configured destination.
// Failures are per-destination; one failed chat never blocks the others.
type Notifier interface {
	Notify(ctx context.Context, article feed.Article, match watch.MatchResult) []Delivery
}

// TelegramNotifier pushes alerts through the Telegram Bot API.
type TelegramNotifier struct {
	botToken     string
	baseURL      string
	destinations []Destination
	client       *http.Client
	logger       zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram notifier.
func NewTelegramNotifier(botToken, baseURL string, destinations []Destination, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken:     botToken,
		baseURL:      strings.TrimRight(baseURL, "/"),
		destinations: destinations,
		client:       &http.Client{Timeout: timeout},
		logger:       logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify renders the article once and sends it to each destination in turn.
func (n *TelegramNotifier) Notify(ctx context.Context, article feed.Article, match watch.MatchResult) []Delivery {
	message := renderMessage(article, match)

	deliveries := make([]Delivery, 0, len(n.destinations))
	for _, dest := range n.destinations {
		err := n.sendTo(ctx, dest, message)
		if err != nil {
			n.logger.Error().Err(err).
				Str("destination", dest.String()).
				Str("article_id", article.ID()).
				Msg("failed to deliver alert")
		} else {
			n.logger.Info().
				Str("destination", dest.String()).
				Str("article_id", article.ID()).
				Msg("alert delivered")
		}
		deliveries = append(deliveries, Delivery{Destination: dest, Err: err})
	}

	return deliveries
}

func (n *TelegramNotifier) sendTo(ctx context.Context, dest Destination, message string) error {
	payload := map[string]any{
		"chat_id":    dest.ChatID,
		"text":       message,
		"parse_mode": "HTML",
	}
	if dest.ThreadID != 0 {
		payload["message_thread_id"] = dest.ThreadID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram status %d", resp.StatusCode)
	}

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && !result.OK {
		if result.Description != "" {
			return fmt.Errorf("telegram rejected message: %s", result.Description)
		}
		return fmt.Errorf("telegram returned ok=false")
	}

	return nil
}

var _ Notifier = (*TelegramNotifier)(nil)

// LogNotifier writes alerts to the log instead of a chat API. Used when
// Telegram delivery is disabled, so dry runs still show matches.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "alert_log").Logger()}
}

// Notify logs the match and reports a single successful delivery.
func (n *LogNotifier) Notify(_ context.Context, article feed.Article, match watch.MatchResult) []Delivery {
	n.logger.Info().
		Str("article_id", article.ID()).
		Str("headline", article.Headline()).
		Strs("keywords", match.Keywords()).
		Str("sentiment", SentimentLabel(article)).
		Msg("matched article (delivery disabled)")
	return []Delivery{{Destination: Destination{ChatID: "log"}}}
}

var _ Notifier = (*LogNotifier)(nil)

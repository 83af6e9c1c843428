package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const newsPath = "/news"

// Fetcher retrieves articles published after a checkpoint.
type Fetcher interface {
	// FetchSince returns articles with timestamps strictly greater than
	// since (nil means from the beginning), ordered oldest to newest, plus
	// the maximum timestamp observed in the batch. The returned checkpoint
	// is zero when no timestamp was observed.
	FetchSince(ctx context.Context, since *int64) ([]Article, int64, error)
}

// Options parameterise the news API client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	PageLimit int
	UserAgent string
}

// Client fetches articles from the news REST API.
type Client struct {
	opts    Options
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewClient constructs a news API client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if opts.PageLimit <= 0 {
		opts.PageLimit = 100
	}

	return &Client{
		opts:    opts,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "feed_client").Logger(),
	}
}

// FetchSince implements Fetcher against GET {base}/news?start&end&limit.
func (c *Client) FetchSince(ctx context.Context, since *int64) ([]Article, int64, error) {
	if c.baseURL == "" {
		return nil, 0, errors.New("api base url required")
	}

	now := time.Now().UTC().UnixMilli()

	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.opts.PageLimit))
	params.Set("end", strconv.FormatInt(now, 10))
	if since != nil {
		params.Set("start", strconv.FormatInt(*since, 10))
	}

	endpoint := c.baseURL + newsPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch news: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read news response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, 0, parseHTTPError(resp.StatusCode, payload)
	}

	articles, err := decodeArticles(payload)
	if err != nil {
		return nil, 0, err
	}

	// The API's start parameter is inclusive on some deployments; the
	// checkpoint contract requires strictly newer articles only.
	if since != nil {
		kept := articles[:0]
		for _, a := range articles {
			if ts := a.Timestamp(); ts > 0 && ts <= *since {
				continue
			}
			kept = append(kept, a)
		}
		articles = kept
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Timestamp() < articles[j].Timestamp()
	})

	var latest int64
	if since != nil {
		latest = *since
	}
	for _, a := range articles {
		if ts := a.Timestamp(); ts > latest {
			latest = ts
		}
	}

	c.logger.Debug().Int("count", len(articles)).Int64("latest", latest).Msg("fetched articles")
	return articles, latest, nil
}

// decodeArticles tolerates the body shapes the API is known to produce:
// {"data": [...]}, {"articles": [...]}, or a bare array.
func decodeArticles(payload []byte) ([]Article, error) {
	var envelope struct {
		Data     []Article `json:"data"`
		Articles []Article `json:"articles"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil {
		if envelope.Data != nil {
			return envelope.Data, nil
		}
		if envelope.Articles != nil {
			return envelope.Articles, nil
		}
		// An object without a recognised list field is an empty batch.
		if trimmed := bytes.TrimSpace(payload); len(trimmed) > 0 && trimmed[0] == '{' {
			return []Article{}, nil
		}
	}

	var list []Article
	if err := json.Unmarshal(payload, &list); err == nil {
		return list, nil
	}

	return nil, errors.New("unrecognised news response body")
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Message != "" {
			return fmt.Errorf("news api error (%d): %s", status, apiErr.Message)
		}
		if apiErr.Error != "" {
			return fmt.Errorf("news api error (%d): %s", status, apiErr.Error)
		}
		if apiErr.Detail != "" {
			return fmt.Errorf("news api error (%d): %s", status, apiErr.Detail)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("news api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("news api error (%d)", status)
}

var _ Fetcher = (*Client)(nil)

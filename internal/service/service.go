package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"news-alerts/internal/alerting"
	"news-alerts/internal/feed"
	"news-alerts/internal/scheduler"
	"news-alerts/internal/state"
	"news-alerts/internal/storage"
	"news-alerts/internal/watch"
)

// Service orchestrates one poll cycle: fetch, dedup, match, notify, persist.
type Service struct {
	scheduler *scheduler.Scheduler
	fetcher   feed.Fetcher
	matcher   *watch.Matcher
	notifier  alerting.Notifier
	states    state.Store
	archive   storage.AlertStore
	logger    zerolog.Logger
}

// New constructs the polling service. archive may be nil when the alert
// archive is not configured.
func New(sched *scheduler.Scheduler, fetcher feed.Fetcher, matcher *watch.Matcher, notifier alerting.Notifier, states state.Store, archive storage.AlertStore, logger zerolog.Logger) *Service {
	return &Service{
		scheduler: sched,
		fetcher:   fetcher,
		matcher:   matcher,
		notifier:  notifier,
		states:    states,
		archive:   archive,
		logger:    logger.With().Str("component", "service").Logger(),
	}
}

// CycleSummary reports what one poll cycle did.
type CycleSummary struct {
	Fetched          int
	Skipped          int
	Matched          int
	Notified         int
	FailedDeliveries int
	Checkpoint       *int64
}

// Run loads state once and executes poll cycles until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}

	st, err := s.states.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	return s.scheduler.Run(ctx, func(ctx context.Context, _ time.Time) error {
		_, err := s.RunOnce(ctx, st)
		return err
	})
}

// RunOnce executes a single poll cycle against the given state. A fetch
// error leaves the state untouched; per-article failures never abort the
// batch, and the state is persisted even when deliveries failed.
func (s *Service) RunOnce(ctx context.Context, st *state.State) (CycleSummary, error) {
	summary := CycleSummary{Checkpoint: st.LastCheckedAt()}

	since := st.LastCheckedAt()
	articles, latest, err := s.fetcher.FetchSince(ctx, since)
	if err != nil {
		// Transient by contract: keep old state, retry next interval.
		return summary, fmt.Errorf("fetch articles: %w", err)
	}
	summary.Fetched = len(articles)

	// Once a batch is in hand the cycle runs to completion even if shutdown
	// was requested mid-cycle: an interrupted delivery would lose the alert
	// for good because the article is still marked processed below. The
	// notifier's client timeout bounds how long this can take.
	cycleCtx := context.WithoutCancel(ctx)

	for _, article := range articles {
		id := article.ID()
		if id == "" {
			s.logger.Warn().Str("headline", article.Headline()).Msg("article missing id, skipping")
			continue
		}

		if st.IsProcessed(id) {
			summary.Skipped++
			continue
		}

		s.processArticle(cycleCtx, article, &summary)

		// Processed regardless of match or delivery outcome, so a
		// non-matching or undeliverable article is never re-evaluated.
		st.MarkProcessed(id)
	}

	if latest > 0 {
		st.Advance(latest)
	}
	summary.Checkpoint = st.LastCheckedAt()

	// Without persistence already-notified articles alert again on the
	// next start.
	if err := s.states.Save(cycleCtx, st); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist state")
	}

	s.logger.Info().
		Int("fetched", summary.Fetched).
		Int("skipped", summary.Skipped).
		Int("matched", summary.Matched).
		Int("notified", summary.Notified).
		Int("failed_deliveries", summary.FailedDeliveries).
		Msg("poll cycle complete")

	return summary, nil
}

func (s *Service) processArticle(ctx context.Context, article feed.Article, summary *CycleSummary) {
	match := s.matcher.Match(article)
	if !match.Matched() {
		return
	}
	summary.Matched++

	s.logger.Info().
		Str("article_id", article.ID()).
		Str("headline", article.Headline()).
		Strs("keywords", match.Keywords()).
		Msg("match found")

	deliveries := s.notifier.Notify(ctx, article, match)

	var delivered []string
	for _, d := range deliveries {
		if d.Err != nil {
			summary.FailedDeliveries++
			continue
		}
		delivered = append(delivered, d.Destination.String())
	}
	if len(delivered) > 0 {
		summary.Notified++
	}

	if s.archive != nil {
		if err := s.archiveAlert(ctx, article, match, delivered); err != nil {
			s.logger.Error().Err(err).Str("article_id", article.ID()).Msg("failed to archive alert")
		}
	}
}

func (s *Service) archiveAlert(ctx context.Context, article feed.Article, match watch.MatchResult, delivered []string) error {
	record := storage.AlertRecord{
		ArticleID:   article.ID(),
		PublishedAt: time.UnixMilli(article.Timestamp()).UTC(),
		Headline:    article.Headline(),
		SourceURL:   article.Source.URL,
		Symbols:     match.Symbols,
		Topics:      match.Topics,
		EventTypes:  match.EventTypes,
		Delivered:   delivered,
	}
	if article.Sentiment != nil {
		sentiment := decimal.NewFromFloat(article.Sentiment.Overall)
		record.Sentiment = &sentiment
	}

	_, err := s.archive.InsertAlert(ctx, record)
	return err
}

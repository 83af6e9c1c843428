package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"news-alerts/internal/alerting"
	"news-alerts/internal/config"
	"news-alerts/internal/feed"
	"news-alerts/internal/scheduler"
	"news-alerts/internal/service"
	"news-alerts/internal/state"
	"news-alerts/internal/storage"
	"news-alerts/internal/watch"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetcher() feed.Fetcher {
	return feed.NewClient(feed.Options{
		BaseURL:   a.Config.API.BaseURL,
		Timeout:   a.Config.API.Timeout,
		PageLimit: a.Config.API.PageLimit,
		UserAgent: a.Config.API.UserAgent,
	}, a.Logger)
}

func (a *App) newMatcher() *watch.Matcher {
	list := watch.NewList(a.Config.Watch.Symbols, a.Config.Watch.Topics, a.Config.Watch.EventTypes)
	return watch.NewMatcher(list, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Telegram.Enabled {
		return alerting.NewLogNotifier(a.Logger)
	}

	cfg := a.Config.Telegram
	destinations := make([]alerting.Destination, 0, len(cfg.Destinations))
	for _, d := range cfg.Destinations {
		destinations = append(destinations, alerting.Destination{ChatID: d.ChatID, ThreadID: d.ThreadID})
	}

	return alerting.NewTelegramNotifier(cfg.BotToken, cfg.APIBase, destinations, cfg.Timeout, a.Logger)
}

func (a *App) newStateStore() (state.Store, func(), error) {
	cfg := a.Config.State
	switch cfg.Backend {
	case "redis":
		store := state.NewRedisStore(state.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
		}, cfg.Capacity, a.Logger)
		return store, func() { _ = store.Close() }, nil
	default:
		return state.NewFileStore(cfg.Path, cfg.Capacity, a.Logger), nil, nil
	}
}

func (a *App) openArchive(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) buildService(ctx context.Context, withScheduler bool) (*service.Service, state.Store, func(), error) {
	stateStore, closeState, err := a.newStateStore()
	if err != nil {
		return nil, nil, nil, err
	}

	archive, closeArchive, err := a.openArchive(ctx)
	if err != nil {
		if closeState != nil {
			closeState()
		}
		return nil, nil, nil, err
	}
	if archive == nil {
		a.Logger.Debug().Msg("database.dsn not configured; alert archive disabled")
	}

	cleanup := func() {
		if closeArchive != nil {
			closeArchive()
		}
		if closeState != nil {
			closeState()
		}
	}

	var sched *scheduler.Scheduler
	if withScheduler {
		sched = scheduler.New(scheduler.Options{
			Interval:     a.Config.Polling.Interval,
			StartupDelay: a.Config.Polling.StartupDelay,
		}, a.Logger)
	}

	var archiveStore storage.AlertStore
	if archive != nil {
		archiveStore = archive
	}

	svc := service.New(sched, a.newFetcher(), a.newMatcher(), a.newNotifier(), stateStore, archiveStore, a.Logger)
	return svc, stateStore, cleanup, nil
}

// Run executes the long-running polling service until interrupted.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, _, cleanup, err := a.buildService(ctx, true)
	if err != nil {
		return err
	}
	defer cleanup()

	symbols, topics, eventTypes := watch.NewList(a.Config.Watch.Symbols, a.Config.Watch.Topics, a.Config.Watch.EventTypes).Size()
	a.Logger.Info().
		Dur("interval", a.Config.Polling.Interval).
		Int("symbols", symbols).
		Int("topics", topics).
		Int("event_types", eventTypes).
		Msg("starting news alert service")

	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("news alert service stopped")
	return nil
}

// Once executes a single poll cycle and exits.
func (a *App) Once(ctx context.Context) error {
	svc, stateStore, cleanup, err := a.buildService(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := stateStore.Load(ctx)
	if err != nil {
		return err
	}

	summary, err := svc.RunOnce(ctx, st)
	if err != nil {
		return err
	}

	a.Logger.Info().
		Int("fetched", summary.Fetched).
		Int("matched", summary.Matched).
		Int("notified", summary.Notified).
		Msg("single cycle complete")
	return nil
}

// ExportOptions hold parameters for exporting archived alerts.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

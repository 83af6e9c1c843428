package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertAlertSQL = `INSERT INTO alerts (
        article_id,
        published_at,
        headline,
        source_url,
        sentiment,
        symbols,
        topics,
        event_types,
        delivered
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9
    )
    ON CONFLICT (article_id) DO UPDATE
    SET published_at = EXCLUDED.published_at,
        headline     = EXCLUDED.headline,
        source_url   = EXCLUDED.source_url,
        sentiment    = EXCLUDED.sentiment,
        symbols      = EXCLUDED.symbols,
        topics       = EXCLUDED.topics,
        event_types  = EXCLUDED.event_types,
        delivered    = EXCLUDED.delivered
    RETURNING id, article_id, published_at, headline, source_url, sentiment,
        symbols, topics, event_types, delivered, created_at;`

	listRecentAlertsSQL = `SELECT
        id,
        article_id,
        published_at,
        headline,
        source_url,
        sentiment,
        symbols,
        topics,
        event_types,
        delivered,
        created_at
    FROM alerts
    ORDER BY published_at DESC
    LIMIT $1;`

	listAlertsBetweenSQL = `SELECT
        id,
        article_id,
        published_at,
        headline,
        source_url,
        sentiment,
        symbols,
        topics,
        event_types,
        delivered,
        created_at
    FROM alerts
    WHERE published_at >= $1
      AND published_at < $2
    ORDER BY published_at;`

	countAlertsSQL = `SELECT COUNT(*) FROM alerts;`

	deleteAlertsBeforeSQL = `DELETE FROM alerts WHERE created_at < $1;`
)

// AlertStore defines operations for the alert archive.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
	ListAlertsBetween(ctx context.Context, from, to time.Time) ([]AlertRecord, error)
	CountAlerts(ctx context.Context) (int64, error)
	DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error
}

// Store provides Postgres-backed access to the alert archive.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertAlert persists an alert emission, upserting on article id.
func (s *Store) InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertRecord{}, err
	}

	var sentiment interface{}
	if alert.Sentiment != nil {
		sentiment = alert.Sentiment.String()
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		alert.ArticleID,
		alert.PublishedAt,
		alert.Headline,
		alert.SourceURL,
		sentiment,
		alert.Symbols,
		alert.Topics,
		alert.EventTypes,
		alert.Delivered,
	)

	rec, err := scanAlert(row)
	if err != nil {
		return AlertRecord{}, fmt.Errorf("insert alert: %w", err)
	}
	return rec, nil
}

// ListRecentAlerts lists the most recent alerts ordered by descending publish time.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	return collectAlerts(rows, limit)
}

// ListAlertsBetween lists alerts published within a time window.
func (s *Store) ListAlertsBetween(ctx context.Context, from, to time.Time) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listAlertsBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list alerts between: %w", queryErr)
	}
	defer rows.Close()

	return collectAlerts(rows, 0)
}

// CountAlerts counts archived alerts.
func (s *Store) CountAlerts(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countAlertsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count alerts: %w", scanErr)
	}
	return count, nil
}

// DeleteAlertsBefore deletes historical alerts.
func (s *Store) DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteAlertsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete alerts before: %w", execErr)
	}
	return nil
}

func collectAlerts(rows pgx.Rows, sizeHint int) ([]AlertRecord, error) {
	alerts := make([]AlertRecord, 0, sizeHint)
	for rows.Next() {
		rec, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

func scanAlert(row pgx.Row) (AlertRecord, error) {
	var (
		rec       AlertRecord
		sentiment sql.NullString
	)

	if err := row.Scan(
		&rec.ID,
		&rec.ArticleID,
		&rec.PublishedAt,
		&rec.Headline,
		&rec.SourceURL,
		&sentiment,
		&rec.Symbols,
		&rec.Topics,
		&rec.EventTypes,
		&rec.Delivered,
		&rec.CreatedAt,
	); err != nil {
		return AlertRecord{}, err
	}

	if sentiment.Valid {
		value, err := decimal.NewFromString(sentiment.String)
		if err != nil {
			return AlertRecord{}, fmt.Errorf("parse sentiment: %w", err)
		}
		rec.Sentiment = &value
	}

	return rec, nil
}

var _ AlertStore = (*Store)(nil)

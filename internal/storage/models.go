package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertRecord is one emitted alert, archived for auditing and export.
type AlertRecord struct {
	ID          int64
	ArticleID   string
	PublishedAt time.Time
	Headline    string
	SourceURL   string
	Sentiment   *decimal.Decimal
	Symbols     []string
	Topics      []string
	EventTypes  []string
	Delivered   []string
	CreatedAt   time.Time
}

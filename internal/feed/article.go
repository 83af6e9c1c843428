package feed

// Article is a single news item as returned by the upstream API.
// Articles are immutable once fetched.
type Article struct {
	MongoID     string `json:"_id"`
	ArticleID   string `json:"article_id"`
	PublishedAt int64  `json:"published_at"`
	IngestedAt  int64  `json:"ingested_at"`
	SymbolCode  string `json:"symbol_code"`

	Content        Content        `json:"content"`
	Source         Source         `json:"source"`
	Companies      []Company      `json:"companies_mentioned"`
	Classification Classification `json:"classification"`
	Events         []Event        `json:"events_extracted"`
	Sentiment      *Sentiment     `json:"sentiment"`
}

// Content carries the textual body of an article.
type Content struct {
	Headline    string `json:"headline"`
	Subheadline string `json:"subheadline"`
	Summary     string `json:"summary"`
	Body        string `json:"body"`
	Author      string `json:"author"`
}

// Source describes where the article originated.
type Source struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`
	Name   string `json:"name"`
}

// Company is a company mentioned in the article.
type Company struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// Classification holds editorial topic tags.
type Classification struct {
	Topics []string `json:"topics"`
}

// Event is an event extracted from the article text.
type Event struct {
	EventType string `json:"event_type"`
}

// Sentiment carries the overall sentiment score in [-1, 1].
type Sentiment struct {
	Overall float64 `json:"overall_sentiment"`
}

// ID returns the article identifier, preferring the document id over the
// legacy article_id field. Empty when the upstream provided neither.
func (a Article) ID() string {
	if a.MongoID != "" {
		return a.MongoID
	}
	return a.ArticleID
}

// Timestamp returns the publish time in milliseconds since epoch, falling
// back to the ingest time when the publish time is absent.
func (a Article) Timestamp() int64 {
	if a.PublishedAt > 0 {
		return a.PublishedAt
	}
	return a.IngestedAt
}

// Headline returns the headline, falling back to the subheadline.
func (a Article) Headline() string {
	if a.Content.Headline != "" {
		return a.Content.Headline
	}
	return a.Content.Subheadline
}

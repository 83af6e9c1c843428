package watch

import (
	"strings"

	"github.com/rs/zerolog"

	"news-alerts/internal/feed"
)

// List is the configured watch-list. Lookups are case-insensitive.
// A List is read-only after construction.
type List struct {
	symbols    map[string]struct{}
	topics     map[string]struct{}
	eventTypes map[string]struct{}
}

// NewList builds a watch-list from the configured keyword slices.
func NewList(symbols, topics, eventTypes []string) List {
	return List{
		symbols:    toSet(symbols),
		topics:     toSet(topics),
		eventTypes: toSet(eventTypes),
	}
}

// Size returns the keyword counts per category, for startup logging.
func (l List) Size() (symbols, topics, eventTypes int) {
	return len(l.symbols), len(l.topics), len(l.eventTypes)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}

// MatchResult records every watched keyword an article hit, per category.
type MatchResult struct {
	Symbols    []string
	Topics     []string
	EventTypes []string
}

// Matched reports whether any category produced a hit.
func (r MatchResult) Matched() bool {
	return len(r.Symbols) > 0 || len(r.Topics) > 0 || len(r.EventTypes) > 0
}

// Keywords flattens all matched keywords across categories.
func (r MatchResult) Keywords() []string {
	out := make([]string, 0, len(r.Symbols)+len(r.Topics)+len(r.EventTypes))
	out = append(out, r.Symbols...)
	out = append(out, r.Topics...)
	out = append(out, r.EventTypes...)
	return out
}

// Matcher evaluates articles against a watch-list.
type Matcher struct {
	list   List
	logger zerolog.Logger
}

// NewMatcher constructs a Matcher.
func NewMatcher(list List, logger zerolog.Logger) *Matcher {
	return &Matcher{
		list:   list,
		logger: logger.With().Str("component", "matcher").Logger(),
	}
}

// Match evaluates one article. Missing nested blocks count as empty sets.
func (m *Matcher) Match(article feed.Article) MatchResult {
	result := MatchResult{
		Symbols:    m.matchSymbols(article),
		Topics:     m.matchTopics(article),
		EventTypes: m.matchEventTypes(article),
	}

	if result.Matched() {
		m.logger.Debug().
			Strs("symbols", result.Symbols).
			Strs("topics", result.Topics).
			Strs("event_types", result.EventTypes).
			Str("article_id", article.ID()).
			Msg("article matched")
	}

	return result
}

// matchSymbols checks mentioned-company tickers and the top-level symbol_code.
func (m *Matcher) matchSymbols(article feed.Article) []string {
	var matched []string
	for _, company := range article.Companies {
		if company.Ticker == "" {
			continue
		}
		if _, ok := m.list.symbols[strings.ToLower(company.Ticker)]; ok {
			matched = appendUnique(matched, company.Ticker)
		}
	}

	if article.SymbolCode != "" {
		if _, ok := m.list.symbols[strings.ToLower(article.SymbolCode)]; ok {
			matched = appendUnique(matched, article.SymbolCode)
		}
	}

	return matched
}

func (m *Matcher) matchTopics(article feed.Article) []string {
	var matched []string
	for _, topic := range article.Classification.Topics {
		if topic == "" {
			continue
		}
		if _, ok := m.list.topics[strings.ToLower(topic)]; ok {
			matched = appendUnique(matched, topic)
		}
	}
	return matched
}

func (m *Matcher) matchEventTypes(article feed.Article) []string {
	var matched []string
	for _, event := range article.Events {
		if event.EventType == "" {
			continue
		}
		if _, ok := m.list.eventTypes[strings.ToLower(event.EventType)]; ok {
			matched = appendUnique(matched, event.EventType)
		}
	}
	return matched
}

func appendUnique(values []string, v string) []string {
	for _, existing := range values {
		if strings.EqualFold(existing, v) {
			return values
		}
	}
	return append(values, v)
}

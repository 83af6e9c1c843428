package watch

import (
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"news-alerts/internal/feed"
)

func testMatcher(symbols, topics, eventTypes []string) *Matcher {
	return NewMatcher(NewList(symbols, topics, eventTypes), zerolog.Nop())
}

func TestMatchSymbolCaseInsensitive(t *testing.T) {
	m := testMatcher([]string{"vnm"}, nil, nil)

	article := feed.Article{
		Companies: []feed.Company{{Ticker: "VNM", Name: "Vinamilk"}},
	}

	result := m.Match(article)
	if !result.Matched() {
		t.Fatal("VNM should match watch-list entry vnm")
	}
	if !reflect.DeepEqual(result.Symbols, []string{"VNM"}) {
		t.Fatalf("expected matched symbol VNM, got %v", result.Symbols)
	}
}

func TestMatchMissingClassificationBlock(t *testing.T) {
	m := testMatcher(nil, []string{"banking"}, nil)

	// No classification block at all: must not error and must not match.
	result := m.Match(feed.Article{})
	if result.Matched() {
		t.Fatalf("article without classification should not match, got %v", result)
	}
}

func TestMatchCollectsAllCategories(t *testing.T) {
	m := testMatcher([]string{"hpg"}, []string{"steel"}, []string{"earnings"})

	article := feed.Article{
		Companies:      []feed.Company{{Ticker: "HPG"}, {Ticker: "VIC"}},
		Classification: feed.Classification{Topics: []string{"Steel", "macro"}},
		Events:         []feed.Event{{EventType: "Earnings"}, {EventType: "m&a"}},
	}

	result := m.Match(article)
	if !result.Matched() {
		t.Fatal("expected a match")
	}
	if !reflect.DeepEqual(result.Symbols, []string{"HPG"}) {
		t.Fatalf("symbols: got %v", result.Symbols)
	}
	if !reflect.DeepEqual(result.Topics, []string{"Steel"}) {
		t.Fatalf("topics: got %v", result.Topics)
	}
	if !reflect.DeepEqual(result.EventTypes, []string{"Earnings"}) {
		t.Fatalf("event types: got %v", result.EventTypes)
	}
	if got := result.Keywords(); len(got) != 3 {
		t.Fatalf("expected 3 keywords, got %v", got)
	}
}

func TestMatchSymbolCodeDeduplicated(t *testing.T) {
	m := testMatcher([]string{"fpt"}, nil, nil)

	article := feed.Article{
		SymbolCode: "FPT",
		Companies:  []feed.Company{{Ticker: "fpt"}},
	}

	result := m.Match(article)
	if len(result.Symbols) != 1 {
		t.Fatalf("ticker and symbol_code for the same symbol should dedup, got %v", result.Symbols)
	}
}

func TestMatchAnyCategoryCounts(t *testing.T) {
	m := testMatcher([]string{"vcb"}, []string{"banking"}, nil)

	article := feed.Article{
		Classification: feed.Classification{Topics: []string{"BANKING"}},
	}

	result := m.Match(article)
	if !result.Matched() {
		t.Fatal("topic-only hit should count as an overall match")
	}
	if len(result.Symbols) != 0 {
		t.Fatalf("no symbols should match, got %v", result.Symbols)
	}
}

func TestMatchNoWatchListEntries(t *testing.T) {
	m := testMatcher(nil, nil, nil)

	article := feed.Article{
		Companies: []feed.Company{{Ticker: "VNM"}},
	}

	if m.Match(article).Matched() {
		t.Fatal("empty watch-list should never match")
	}
}

package alerting

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"news-alerts/internal/feed"
	"news-alerts/internal/watch"
)

const summaryMaxRunes = 300

var (
	positiveFloor = decimal.NewFromFloat(0.2)
	negativeCeil  = decimal.NewFromFloat(-0.2)
)

// SentimentLabel buckets the article's sentiment score into a display label.
func SentimentLabel(article feed.Article) string {
	if article.Sentiment == nil {
		return "N/A"
	}
	score := decimal.NewFromFloat(article.Sentiment.Overall)
	switch {
	case score.GreaterThan(positiveFloor):
		return "Positive"
	case score.LessThan(negativeCeil):
		return "Negative"
	default:
		return "Neutral"
	}
}

// renderMessage builds the HTML alert body: headline, bounded summary,
// matched keywords, sentiment label, and source link.
func renderMessage(article feed.Article, match watch.MatchResult) string {
	headline := article.Headline()
	if headline == "" {
		headline = "No Headline"
	}

	summary := article.Content.Summary
	if summary == "" {
		summary = article.Content.Body
	}
	summary = truncateRunes(summary, summaryMaxRunes)
	if summary == "" {
		summary = "No summary available"
	}

	var highlights []string
	if len(match.Symbols) > 0 {
		highlights = append(highlights, fmt.Sprintf("<b>Symbols:</b> %s", html.EscapeString(strings.Join(match.Symbols, ", "))))
	}
	if len(match.Topics) > 0 {
		highlights = append(highlights, fmt.Sprintf("<b>Topics:</b> %s", html.EscapeString(strings.Join(match.Topics, ", "))))
	}
	if len(match.EventTypes) > 0 {
		highlights = append(highlights, fmt.Sprintf("<b>Events:</b> %s", html.EscapeString(strings.Join(match.EventTypes, ", "))))
	}
	highlightsText := "No specific matches"
	if len(highlights) > 0 {
		highlightsText = strings.Join(highlights, "\n")
	}

	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("📰 <b>%s</b>\n\n", html.EscapeString(headline)))
	builder.WriteString(html.EscapeString(summary))
	builder.WriteString("\n\n")
	builder.WriteString(highlightsText)
	builder.WriteString("\n\n")
	builder.WriteString(fmt.Sprintf("<b>Sentiment:</b> %s\n", SentimentLabel(article)))
	if article.Source.URL != "" {
		builder.WriteString(fmt.Sprintf("\n🔗 <a href=\"%s\">Read more</a>", html.EscapeString(article.Source.URL)))
	}

	return builder.String()
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

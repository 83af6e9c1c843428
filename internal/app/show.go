package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// Show prints recently archived alerts.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openArchive(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show alerts")
	}
	if closeStore != nil {
		defer closeStore()
	}

	alerts, err := store.ListRecentAlerts(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Published (UTC)\tArticle\tHeadline\tSentiment\tMatched\tDelivered")

	for _, alert := range alerts {
		sentiment := "n/a"
		if alert.Sentiment != nil {
			sentiment = alert.Sentiment.StringFixed(2)
		}
		matched := strings.Join(append(append(append([]string{}, alert.Symbols...), alert.Topics...), alert.EventTypes...), ",")
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\n",
			alert.PublishedAt.UTC().Format(time.RFC3339),
			alert.ArticleID,
			truncateInline(alert.Headline, 48),
			sentiment,
			matched,
			strings.Join(alert.Delivered, ","),
		)
	}

	writer.Flush()
	return nil
}

func truncateInline(v string, max int) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	runes := []rune(cleaned)
	if len(runes) <= max {
		return cleaned
	}
	return string(runes[:max-1]) + "…"
}

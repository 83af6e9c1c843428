package app

import (
	"context"
	"errors"
	"time"
)

// Purge deletes archived alerts created before the retention cutoff.
func (a *App) Purge(ctx context.Context, retention time.Duration) error {
	store, closeStore, err := a.openArchive(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot purge alerts")
	}
	if closeStore != nil {
		defer closeStore()
	}

	before, err := store.CountAlerts(ctx)
	if err != nil {
		return err
	}

	cutoff := time.Now().UTC().Add(-retention)
	if err := store.DeleteAlertsBefore(ctx, cutoff); err != nil {
		return err
	}

	after, err := store.CountAlerts(ctx)
	if err != nil {
		return err
	}

	a.Logger.Info().
		Int64("deleted", before-after).
		Int64("remaining", after).
		Time("cutoff", cutoff).
		Msg("purged archived alerts")
	return nil
}

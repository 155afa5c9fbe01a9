package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"evmap/backend/services/stations-service/internal/models"
)

// Refresh re-runs the vendor pipeline and rewrites the cache for every vendor
// that succeeded; a failed vendor keeps its previous cache entry. Concurrent
// callers share one run. The run outlives a cancelled caller so that a dropped
// HTTP request cannot leave the cache half refreshed.
func (a *Aggregator) Refresh(ctx context.Context, trigger string) (models.RefreshRun, error) {
	ch := a.refreshes.DoChan("refresh", func() (any, error) {
		return a.refresh(context.WithoutCancel(ctx), trigger)
	})

	select {
	case res := <-ch:
		run, _ := res.Val.(models.RefreshRun)
		if res.Shared {
			a.logger.Debug("joined in-flight refresh", zap.String("trigger", trigger))
		}
		return run, res.Err
	case <-ctx.Done():
		return models.RefreshRun{}, ctx.Err()
	}
}

func (a *Aggregator) refresh(ctx context.Context, trigger string) (models.RefreshRun, error) {
	run := models.RefreshRun{
		Trigger:   trigger,
		StartedAt: a.now().UTC(),
		Stats:     map[string]models.VendorStats{},
		Failures:  map[string]string{},
	}
	a.logger.Info("refresh started", zap.String("trigger", trigger))

	// Sample data is never cached: a degraded result carries no pulls.
	res := a.FetchAll(ctx)
	for key, msg := range res.Failures {
		run.Failures[key] = msg
	}
	for _, pull := range res.Pulls {
		key := pull.Vendor.Key()
		if err := a.store.Save(ctx, pull.Vendor, pull.Raw, run.StartedAt); err != nil {
			a.logger.Error("cache write failed", zap.String("vendor", key), zap.Error(err))
			run.Failures[key] = fmt.Sprintf("cache write: %v", err)
			continue
		}
		run.Stats[key] = models.VendorStats{Stations: len(pull.Stations), Skipped: pull.Skipped}
	}

	run.FinishedAt = a.now().UTC()
	run.Success = len(run.Stats) > 0

	if err := a.history.Record(ctx, &run); err != nil {
		a.logger.Warn("failed to record refresh history", zap.Error(err))
	}
	if a.notifier != nil {
		a.notifier.RefreshCompleted(run)
	}

	if !run.Success {
		a.logger.Error("refresh failed", zap.Any("failures", run.Failures))
		return run, ErrRefreshFailed
	}
	a.logger.Info("refresh complete",
		zap.Any("stats", run.Stats),
		zap.Int("failed_vendors", len(run.Failures)),
		zap.Duration("took", run.FinishedAt.Sub(run.StartedAt)),
	)
	return run, nil
}

// History returns the newest recorded runs.
func (a *Aggregator) History(ctx context.Context, limit int) ([]models.RefreshRun, error) {
	return a.history.Recent(ctx, limit)
}

// IsRefreshFailure reports whether err means no vendor could be refreshed.
func IsRefreshFailure(err error) bool {
	return errors.Is(err, ErrRefreshFailed)
}

package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"evmap/backend/services/stations-service/internal/cache"
	"evmap/backend/services/stations-service/internal/models"
)

// Snapshot is the cached view served to clients.
type Snapshot struct {
	ByVendor    map[models.Brand][]models.ChargingStation
	Stations    []models.ChargingStation
	LastUpdated time.Time
	// Degraded is set when no vendor data exists and sample stations are served.
	Degraded bool
}

// Vendor returns the stations of one brand, never nil.
func (s Snapshot) Vendor(b models.Brand) []models.ChargingStation {
	if st := s.ByVendor[b]; st != nil {
		return st
	}
	return []models.ChargingStation{}
}

// Data serves the cached payloads normalized at read time. With an empty cache
// it refreshes once inline; if that fails too, sample stations are served with
// Degraded set.
func (a *Aggregator) Data(ctx context.Context) (Snapshot, error) {
	snap, found, err := a.readCache(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if found {
		return snap, nil
	}

	a.logger.Info("cache is empty, refreshing inline")
	if _, err := a.Refresh(ctx, TriggerColdStart); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Snapshot{}, ctxErr
		}
		a.logger.Warn("cold refresh failed, serving sample data", zap.Error(err))
		return mockSnapshot(a.now()), nil
	}

	snap, found, err = a.readCache(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if !found {
		return mockSnapshot(a.now()), nil
	}
	return snap, nil
}

// readCache loads every vendor entry. A missing or unreadable entry leaves
// that vendor empty; found reports whether any vendor had data.
func (a *Aggregator) readCache(ctx context.Context) (Snapshot, bool, error) {
	snap := Snapshot{ByVendor: map[models.Brand][]models.ChargingStation{}}
	found := false

	for _, src := range a.sources {
		if err := ctx.Err(); err != nil {
			return Snapshot{}, false, err
		}
		brand := src.Brand()
		logger := a.logger.With(zap.String("vendor", brand.Key()))

		entry, err := a.store.Load(ctx, brand)
		if errors.Is(err, cache.ErrNotFound) {
			continue
		}
		if err != nil {
			logger.Warn("cache read failed", zap.Error(err))
			continue
		}

		stations, err := src.Decode(entry.Raw)
		if err != nil {
			logger.Warn("cached payload is unreadable", zap.Error(err))
			continue
		}

		found = true
		snap.ByVendor[brand] = stations
		snap.Stations = append(snap.Stations, stations...)
		if entry.UpdatedAt.After(snap.LastUpdated) {
			snap.LastUpdated = entry.UpdatedAt
		}
	}
	return snap, found, nil
}

func mockSnapshot(now time.Time) Snapshot {
	snap := Snapshot{
		ByVendor:    map[models.Brand][]models.ChargingStation{},
		LastUpdated: now.UTC(),
		Degraded:    true,
	}
	for _, st := range MockStations() {
		snap.ByVendor[st.Brand] = append(snap.ByVendor[st.Brand], st)
		snap.Stations = append(snap.Stations, st)
	}
	return snap
}

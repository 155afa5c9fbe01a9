package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"evmap/backend/services/stations-service/internal/cache"
	"evmap/backend/services/stations-service/internal/models"
	"evmap/backend/services/stations-service/internal/vendors"
)

var fixedNow = time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

type fakeSource struct {
	brand    models.Brand
	stations []models.ChargingStation
	gate     chan struct{}
	calls    atomic.Int32

	mu  sync.Mutex
	err error
}

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeSource) Brand() models.Brand { return f.brand }

func (f *fakeSource) Pull(ctx context.Context) (vendors.Pull, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return vendors.Pull{}, vendors.NetworkError(f.brand, "pull", ctx.Err())
		}
	}
	f.mu.Lock()
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return vendors.Pull{}, err
	}
	raw, _ := json.Marshal(f.stations)
	return vendors.Pull{Vendor: f.brand, Raw: raw, Stations: f.stations, FetchedAt: fixedNow}, nil
}

func (f *fakeSource) Decode(raw []byte) ([]models.ChargingStation, error) {
	var out []models.ChargingStation
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	runs []models.RefreshRun
}

func (n *recordingNotifier) RefreshCompleted(run models.RefreshRun) {
	n.mu.Lock()
	n.runs = append(n.runs, run)
	n.mu.Unlock()
}

func stations(brand models.Brand, n int) []models.ChargingStation {
	out := make([]models.ChargingStation, n)
	for i := range out {
		out[i] = models.ChargingStation{
			ID:        fmt.Sprintf("%s-%d", brand.Short(), i+1),
			Name:      fmt.Sprintf("%s %d", brand.Label(), i+1),
			Brand:     brand,
			Latitude:  40.1 + float64(i)/100,
			Longitude: 44.5,
			Ports: []models.ChargingPort{
				{ID: fmt.Sprintf("p-%d", i+1), Type: models.PortTypeCCS, Power: 50, Status: models.StatusAvailable},
			},
		}
	}
	return out
}

type fixture struct {
	te       *fakeSource
	ec       *fakeSource
	store    *cache.FileStore
	history  *MemoryHistory
	notifier *recordingNotifier
	agg      *Aggregator
}

func newFixture(t *testing.T, teCount, ecCount int, pullTimeout time.Duration) *fixture {
	t.Helper()
	store, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		te:       &fakeSource{brand: models.BrandTeamEnergy, stations: stations(models.BrandTeamEnergy, teCount)},
		ec:       &fakeSource{brand: models.BrandEvanCharge, stations: stations(models.BrandEvanCharge, ecCount)},
		store:    store,
		history:  NewMemoryHistory(10),
		notifier: &recordingNotifier{},
	}
	f.agg = NewAggregator([]Source{f.te, f.ec}, store, Options{
		PullTimeout: pullTimeout,
		History:     f.history,
		Notifier:    f.notifier,
		Now:         func() time.Time { return fixedNow },
	}, zaptest.NewLogger(t))
	return f
}

func TestFetchAllIsolatesVendorFailures(t *testing.T) {
	f := newFixture(t, 3, 2, 0)
	f.te.setErr(vendors.AuthError(models.BrandTeamEnergy, 401, "bad credentials"))

	res := f.agg.FetchAll(context.Background())

	assert.False(t, res.Degraded)
	assert.Len(t, res.Stations, 2)
	assert.Equal(t, map[string]int{"evanCharge": 2}, res.Counts)
	assert.Contains(t, res.Failures, "teamEnergy")
	require.Len(t, res.Pulls, 1)
	assert.Equal(t, models.BrandEvanCharge, res.Pulls[0].Vendor)
	for _, st := range res.Stations {
		assert.Equal(t, models.BrandEvanCharge, st.Brand)
	}
}

func TestFetchAllKeepsSourceOrder(t *testing.T) {
	f := newFixture(t, 2, 2, 0)

	res := f.agg.FetchAll(context.Background())

	require.Len(t, res.Stations, 4)
	assert.Equal(t, models.BrandTeamEnergy, res.Stations[0].Brand)
	assert.Equal(t, models.BrandTeamEnergy, res.Stations[1].Brand)
	assert.Equal(t, models.BrandEvanCharge, res.Stations[2].Brand)
	assert.Empty(t, res.Failures)
}

func TestFetchAllFallsBackToSampleData(t *testing.T) {
	f := newFixture(t, 1, 1, 0)
	f.te.setErr(errors.New("down"))
	f.ec.setErr(errors.New("down"))

	res := f.agg.FetchAll(context.Background())

	assert.True(t, res.Degraded)
	assert.Equal(t, MockStations(), res.Stations)
	assert.Len(t, res.Failures, 2)
	assert.Empty(t, res.Pulls)
}

func TestFetchAllAppliesPullTimeout(t *testing.T) {
	f := newFixture(t, 1, 2, 50*time.Millisecond)
	f.te.gate = make(chan struct{})
	defer close(f.te.gate)

	start := time.Now()
	res := f.agg.FetchAll(context.Background())

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Len(t, res.Stations, 2)
	assert.Contains(t, res.Failures, "teamEnergy")
}

func TestRefreshWritesCacheAndServesData(t *testing.T) {
	f := newFixture(t, 3, 2, 0)
	ctx := context.Background()

	run, err := f.agg.Refresh(ctx, TriggerManual)
	require.NoError(t, err)

	assert.True(t, run.Success)
	assert.Equal(t, TriggerManual, run.Trigger)
	assert.Equal(t, map[string]models.VendorStats{
		"teamEnergy": {Stations: 3},
		"evanCharge": {Stations: 2},
	}, run.Stats)
	assert.Empty(t, run.Failures)

	for _, b := range models.Brands {
		_, err := os.Stat(f.store.Path(b))
		assert.NoError(t, err, b)
	}

	snap, err := f.agg.Data(ctx)
	require.NoError(t, err)
	assert.False(t, snap.Degraded)
	assert.Len(t, snap.Stations, 5)
	assert.Len(t, snap.Vendor(models.BrandTeamEnergy), 3)
	assert.Len(t, snap.Vendor(models.BrandEvanCharge), 2)
	assert.True(t, fixedNow.Equal(snap.LastUpdated), snap.LastUpdated)

	assert.EqualValues(t, 1, f.te.calls.Load(), "data must be served from cache")

	recent, err := f.agg.History(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.EqualValues(t, 1, recent[0].ID)

	require.Len(t, f.notifier.runs, 1)
	assert.True(t, f.notifier.runs[0].Success)
}

func TestRefreshKeepsCacheOfFailedVendor(t *testing.T) {
	f := newFixture(t, 3, 2, 0)
	ctx := context.Background()

	_, err := f.agg.Refresh(ctx, TriggerManual)
	require.NoError(t, err)
	before, err := os.ReadFile(f.store.Path(models.BrandEvanCharge))
	require.NoError(t, err)

	f.ec.setErr(vendors.FetchError(models.BrandEvanCharge, "list stations", 502, "bad gateway"))
	f.te.stations = stations(models.BrandTeamEnergy, 4)

	run, err := f.agg.Refresh(ctx, TriggerScheduled)
	require.NoError(t, err)
	assert.True(t, run.Success)
	assert.Equal(t, map[string]models.VendorStats{"teamEnergy": {Stations: 4}}, run.Stats)
	assert.Contains(t, run.Failures, "evanCharge")

	after, err := os.ReadFile(f.store.Path(models.BrandEvanCharge))
	require.NoError(t, err)
	assert.Equal(t, before, after)

	snap, err := f.agg.Data(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Vendor(models.BrandTeamEnergy), 4)
	assert.Len(t, snap.Vendor(models.BrandEvanCharge), 2)
}

func TestRefreshFailsWhenEveryVendorFails(t *testing.T) {
	f := newFixture(t, 1, 1, 0)
	f.te.setErr(errors.New("down"))
	f.ec.setErr(errors.New("down"))

	run, err := f.agg.Refresh(context.Background(), TriggerManual)

	require.ErrorIs(t, err, ErrRefreshFailed)
	assert.True(t, IsRefreshFailure(err))
	assert.False(t, run.Success)
	assert.Len(t, run.Failures, 2)

	for _, b := range models.Brands {
		_, err := os.Stat(f.store.Path(b))
		assert.True(t, os.IsNotExist(err), b)
	}

	recent, err := f.history.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.False(t, recent[0].Success)
}

func TestRefreshSharesInFlightRun(t *testing.T) {
	f := newFixture(t, 1, 1, 0)
	gate := make(chan struct{})
	f.te.gate = gate

	var wg sync.WaitGroup
	results := make([]models.RefreshRun, 2)
	errs := make([]error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = f.agg.Refresh(context.Background(), TriggerManual)
	}()
	require.Eventually(t, func() bool { return f.te.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = f.agg.Refresh(context.Background(), TriggerScheduled)
	}()
	time.Sleep(100 * time.Millisecond)
	close(gate)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.EqualValues(t, 1, f.te.calls.Load())
	assert.EqualValues(t, 1, f.ec.calls.Load())
	assert.Equal(t, results[0], results[1])
}

func TestRefreshReturnsWhenCallerGivesUp(t *testing.T) {
	f := newFixture(t, 1, 1, 0)
	gate := make(chan struct{})
	f.te.gate = gate

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.agg.Refresh(ctx, TriggerManual)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The detached run still completes and lands in the cache.
	close(gate)
	require.Eventually(t, func() bool {
		_, err := f.store.Load(context.Background(), models.BrandTeamEnergy)
		return err == nil
	}, time.Second, 5*time.Millisecond)
}

func TestDataRefreshesColdCache(t *testing.T) {
	f := newFixture(t, 2, 1, 0)

	snap, err := f.agg.Data(context.Background())
	require.NoError(t, err)

	assert.False(t, snap.Degraded)
	assert.Len(t, snap.Stations, 3)
	recent, _ := f.history.Recent(context.Background(), 1)
	require.Len(t, recent, 1)
	assert.Equal(t, TriggerColdStart, recent[0].Trigger)
}

func TestDataServesSampleWhenColdRefreshFails(t *testing.T) {
	f := newFixture(t, 1, 1, 0)
	f.te.setErr(errors.New("down"))
	f.ec.setErr(errors.New("down"))

	snap, err := f.agg.Data(context.Background())
	require.NoError(t, err)

	assert.True(t, snap.Degraded)
	assert.Len(t, snap.Stations, 4)
	assert.Len(t, snap.Vendor(models.BrandTeamEnergy), 2)
	assert.Len(t, snap.Vendor(models.BrandEvanCharge), 2)
}

func TestDataSkipsUnreadableCacheEntry(t *testing.T) {
	f := newFixture(t, 2, 1, 0)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, models.BrandTeamEnergy, []byte(`{"not":"a list"}`), fixedNow))
	require.NoError(t, f.store.Save(ctx, models.BrandEvanCharge, []byte(`[]`), fixedNow))

	snap, err := f.agg.Data(ctx)
	require.NoError(t, err)

	assert.False(t, snap.Degraded)
	assert.Empty(t, snap.Stations)
	assert.NotNil(t, snap.Vendor(models.BrandTeamEnergy))
	assert.EqualValues(t, 0, f.te.calls.Load())
}

func TestMockStationsReturnsCopies(t *testing.T) {
	a := MockStations()
	a[0].Ports[0].Status = models.StatusOffline

	b := MockStations()
	assert.Equal(t, models.StatusAvailable, b[0].Ports[0].Status)
	assert.Len(t, b, 4)
}

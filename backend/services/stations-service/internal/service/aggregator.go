package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"evmap/backend/services/stations-service/internal/cache"
	"evmap/backend/services/stations-service/internal/models"
	"evmap/backend/services/stations-service/internal/vendors"
)

// Refresh triggers recorded in the history.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerColdStart = "cold-start"
	TriggerCLI       = "cli"
)

// ErrRefreshFailed is returned when no vendor could be refreshed.
var ErrRefreshFailed = errors.New("refresh: every vendor failed")

// Source is one vendor feed.
type Source interface {
	Brand() models.Brand
	Pull(ctx context.Context) (vendors.Pull, error)
	Decode(raw []byte) ([]models.ChargingStation, error)
}

// History records refresh runs.
type History interface {
	Record(ctx context.Context, run *models.RefreshRun) error
	Recent(ctx context.Context, limit int) ([]models.RefreshRun, error)
}

// Notifier is told about every finished refresh.
type Notifier interface {
	RefreshCompleted(run models.RefreshRun)
}

// Options tune the aggregator.
type Options struct {
	// PullTimeout bounds each vendor pull; zero disables the bound.
	PullTimeout time.Duration
	History     History
	Notifier    Notifier
	Now         func() time.Time
}

// Aggregator combines the vendor sources, the cache and the refresh pipeline.
type Aggregator struct {
	sources     []Source
	store       cache.Store
	history     History
	notifier    Notifier
	pullTimeout time.Duration
	now         func() time.Time
	logger      *zap.Logger
	refreshes   singleflight.Group
}

// NewAggregator wires the sources in display order.
func NewAggregator(sources []Source, store cache.Store, opts Options, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.History == nil {
		opts.History = NopHistory{}
	}
	return &Aggregator{
		sources:     sources,
		store:       store,
		history:     opts.History,
		notifier:    opts.Notifier,
		pullTimeout: opts.PullTimeout,
		now:         opts.Now,
		logger:      logger.Named("aggregator"),
	}
}

// Result is a live aggregation over every vendor.
type Result struct {
	Stations []models.ChargingStation
	Counts   map[string]int
	Failures map[string]string
	// Pulls holds the successful vendor pulls in source order.
	Pulls []vendors.Pull
	// Degraded is set when every vendor failed and Stations holds sample data.
	Degraded bool
}

// FetchAll pulls every vendor concurrently and concatenates the normalized
// stations. A failing vendor contributes nothing; if all fail the sample set
// is returned with Degraded set.
func (a *Aggregator) FetchAll(ctx context.Context) Result {
	outcomes := a.pullAll(ctx)

	res := Result{Counts: map[string]int{}, Failures: map[string]string{}}
	for _, o := range outcomes {
		key := o.vendor.Key()
		if o.err != nil {
			res.Failures[key] = o.err.Error()
			continue
		}
		res.Pulls = append(res.Pulls, o.pull)
		res.Counts[key] = len(o.pull.Stations)
		res.Stations = append(res.Stations, o.pull.Stations...)
	}

	if len(res.Pulls) == 0 {
		a.logger.Warn("every vendor failed, falling back to sample data", zap.Int("vendors", len(outcomes)))
		res.Stations = MockStations()
		res.Degraded = true
	}
	return res
}

type pullOutcome struct {
	vendor models.Brand
	pull   vendors.Pull
	err    error
}

// pullAll runs every source in its own goroutine. Each writes only its own
// slot, so results keep source order.
func (a *Aggregator) pullAll(ctx context.Context) []pullOutcome {
	outcomes := make([]pullOutcome, len(a.sources))
	var g errgroup.Group
	for i, src := range a.sources {
		g.Go(func() error {
			outcomes[i] = a.pullOne(ctx, src)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (a *Aggregator) pullOne(ctx context.Context, src Source) (out pullOutcome) {
	out.vendor = src.Brand()
	logger := a.logger.With(zap.String("vendor", out.vendor.Key()))

	if a.pullTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.pullTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("vendor pull panicked", zap.Any("panic", r))
			out.err = vendors.ShapeError(out.vendor, "pull", errors.New("panic while decoding vendor data"))
		}
	}()

	start := a.now()
	pull, err := src.Pull(ctx)
	if err != nil {
		logger.Warn("vendor pull failed",
			zap.String("kind", vendors.KindOf(err)),
			zap.Duration("took", a.now().Sub(start)),
			zap.Error(err),
		)
		out.err = err
		return out
	}
	logger.Info("vendor pull finished",
		zap.Int("stations", len(pull.Stations)),
		zap.Int("skipped", pull.Skipped),
		zap.Duration("took", a.now().Sub(start)),
	)
	pull.Vendor = out.vendor
	out.pull = pull
	return out
}

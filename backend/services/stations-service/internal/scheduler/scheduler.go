package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"
)

// DefaultTimezone is where the refresh windows are evaluated unless configured.
const DefaultTimezone = "Asia/Yerevan"

// Window is a wall clock time of day.
type Window struct {
	Hour   int
	Minute int
}

func (w Window) String() string {
	return fmt.Sprintf("%02d:%02d", w.Hour, w.Minute)
}

// ParseWindows parses "HH:MM" entries, dropping duplicates.
func ParseWindows(times []string) ([]Window, error) {
	seen := make(map[Window]struct{}, len(times))
	out := make([]Window, 0, len(times))
	for _, raw := range times {
		w, err := parseWindow(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	if len(out) == 0 {
		return nil, errors.New("scheduler: no refresh windows")
	}
	return out, nil
}

func parseWindow(raw string) (Window, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return Window{}, fmt.Errorf("scheduler: window %q is not HH:MM", raw)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return Window{}, fmt.Errorf("scheduler: bad hour in %q", raw)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return Window{}, fmt.Errorf("scheduler: bad minute in %q", raw)
	}
	return Window{Hour: h, Minute: m}, nil
}

// Job runs once per window; fireAt is the window instant.
type Job func(ctx context.Context, fireAt time.Time) error

type afterFunc func(d time.Duration) (<-chan time.Time, func() bool)

func realAfter(d time.Duration) (<-chan time.Time, func() bool) {
	t := time.NewTimer(d)
	return t.C, t.Stop
}

// Scheduler fires a job at fixed times of day.
type Scheduler struct {
	windows []Window
	loc     *time.Location
	job     Job
	logger  *zap.Logger
	now     func() time.Time
	after   afterFunc
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock and timer source.
func WithClock(now func() time.Time, after func(time.Duration) (<-chan time.Time, func() bool)) Option {
	return func(s *Scheduler) {
		s.now = now
		s.after = after
	}
}

// New builds a scheduler. A nil location means UTC.
func New(windows []Window, loc *time.Location, job Job, logger *zap.Logger, opts ...Option) (*Scheduler, error) {
	if len(windows) == 0 {
		return nil, errors.New("scheduler: no refresh windows")
	}
	if job == nil {
		return nil, errors.New("scheduler: nil job")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sorted := append([]Window(nil), windows...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Hour != sorted[j].Hour {
			return sorted[i].Hour < sorted[j].Hour
		}
		return sorted[i].Minute < sorted[j].Minute
	})

	s := &Scheduler{
		windows: sorted,
		loc:     loc,
		job:     job,
		logger:  logger.Named("scheduler"),
		now:     time.Now,
		after:   realAfter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Next returns the first window strictly after now.
func (s *Scheduler) Next(now time.Time) time.Time {
	local := now.In(s.loc)
	y, m, d := local.Date()
	for offset := 0; offset <= 1; offset++ {
		for _, w := range s.windows {
			at := time.Date(y, m, d+offset, w.Hour, w.Minute, 0, 0, s.loc)
			if at.After(now) {
				return at
			}
		}
	}
	// Unreachable for valid windows: tomorrow's first window is always after now.
	w := s.windows[0]
	return time.Date(y, m, d+2, w.Hour, w.Minute, 0, 0, s.loc)
}

// Run arms a single timer for the next window, runs the job when it fires and
// re-arms. Job errors are logged. Returns when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	var last time.Time
	for {
		fireAt := s.Next(s.now())
		if !last.IsZero() && !fireAt.After(last) {
			fireAt = s.Next(last)
		}
		wait := fireAt.Sub(s.now())
		if wait < 0 {
			wait = 0
		}

		s.logger.Info("next refresh scheduled",
			zap.Time("at", fireAt),
			zap.Duration("in", wait),
		)
		fired, stop := s.after(wait)

		select {
		case <-ctx.Done():
			stop()
			s.logger.Info("scheduler stopped")
			return nil
		case <-fired:
		}

		last = fireAt
		if err := s.job(ctx, fireAt); err != nil {
			s.logger.Error("scheduled job failed", zap.Time("window", fireAt), zap.Error(err))
		}
	}
}

// LoadLocation resolves a zone name, falling back to DefaultTimezone when empty.
func LoadLocation(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("scheduler: load timezone %q: %w", name, err)
	}
	return loc, nil
}

package service

import (
	"context"
	"sync"

	"evmap/backend/services/stations-service/internal/models"
)

// NopHistory discards runs. Used when no database is configured.
type NopHistory struct{}

func (NopHistory) Record(context.Context, *models.RefreshRun) error { return nil }

func (NopHistory) Recent(context.Context, int) ([]models.RefreshRun, error) {
	return []models.RefreshRun{}, nil
}

// MemoryHistory keeps the last runs in process memory.
type MemoryHistory struct {
	mu       sync.Mutex
	capacity int
	next     int64
	runs     []models.RefreshRun
}

// NewMemoryHistory keeps up to capacity runs (default 50).
func NewMemoryHistory(capacity int) *MemoryHistory {
	if capacity <= 0 {
		capacity = 50
	}
	return &MemoryHistory{capacity: capacity}
}

func (h *MemoryHistory) Record(_ context.Context, run *models.RefreshRun) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	run.ID = h.next
	h.runs = append(h.runs, *run)
	if len(h.runs) > h.capacity {
		h.runs = h.runs[len(h.runs)-h.capacity:]
	}
	return nil
}

// Recent returns newest first.
func (h *MemoryHistory) Recent(_ context.Context, limit int) ([]models.RefreshRun, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if limit <= 0 || limit > len(h.runs) {
		limit = len(h.runs)
	}
	out := make([]models.RefreshRun, 0, limit)
	for i := len(h.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.runs[i])
	}
	return out, nil
}

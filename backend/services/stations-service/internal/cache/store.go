package cache

import (
	"context"
	"errors"
	"time"

	"evmap/backend/services/stations-service/internal/models"
)

// ErrNotFound is returned when nothing is cached for a vendor yet.
var ErrNotFound = errors.New("cache: entry not found")

// Entry is the last successful payload of one vendor, in vendor shape.
type Entry struct {
	Vendor    models.Brand
	Raw       []byte
	UpdatedAt time.Time
}

// Store persists one payload per vendor. Save replaces the previous entry
// wholesale; readers see either the old or the new payload, never a mix.
type Store interface {
	Load(ctx context.Context, vendor models.Brand) (Entry, error)
	Save(ctx context.Context, vendor models.Brand, raw []byte, at time.Time) error
}

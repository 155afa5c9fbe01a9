package teamenergy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"evmap/backend/services/stations-service/internal/models"
	"evmap/backend/services/stations-service/internal/vendors"
)

// Source adapts the client to the aggregator: it owns the vendor session and
// converts between the cached payload and canonical stations.
type Source struct {
	client   *Client
	sessions *vendors.SessionKeeper
	logger   *zap.Logger
}

// NewSource binds a client to its own session keeper.
func NewSource(client *Client, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		client:   client,
		sessions: vendors.NewSessionKeeper(client.now),
		logger:   logger.Named("teamenergy.source"),
	}
}

// Brand identifies the network.
func (s *Source) Brand() models.Brand {
	return models.BrandTeamEnergy
}

// Pull logs in when needed, fetches every site and returns the payload to cache.
func (s *Source) Pull(ctx context.Context) (vendors.Pull, error) {
	session, err := s.sessions.Get(ctx, s.client.Login)
	if err != nil {
		return vendors.Pull{}, err
	}

	result, err := s.client.SearchChargers(ctx, session)
	if err != nil {
		var verr *vendors.Error
		if errors.As(err, &verr) && (verr.Status == http.StatusUnauthorized || verr.Status == http.StatusForbidden) {
			s.logger.Info("session rejected, dropping it")
			s.sessions.Invalidate()
		}
		return vendors.Pull{}, err
	}

	raw, err := json.Marshal(Payload{Chargers: result.Stations})
	if err != nil {
		return vendors.Pull{}, vendors.ShapeError(models.BrandTeamEnergy, "encode", err)
	}
	return vendors.Pull{
		Vendor:    models.BrandTeamEnergy,
		Raw:       raw,
		Stations:  NormalizeAll(result.Stations),
		Skipped:   result.Skipped,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// Decode normalizes a cached payload. Malformed records are skipped.
func (s *Source) Decode(raw []byte) ([]models.ChargingStation, error) {
	stations, skipped, err := decodeStations(raw)
	if err != nil {
		return nil, vendors.ShapeError(models.BrandTeamEnergy, "decode cache", err)
	}
	if skipped > 0 {
		s.logger.Warn("skipped malformed cached stations", zap.Int("skipped", skipped))
	}
	return NormalizeAll(stations), nil
}

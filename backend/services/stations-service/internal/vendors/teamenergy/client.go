package teamenergy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"evmap/backend/libs/logging"
	"evmap/backend/services/stations-service/internal/models"
	"evmap/backend/services/stations-service/internal/vendors"
)

const (
	// DefaultBaseURL is the production API host.
	DefaultBaseURL = "https://api.teamenergy.am"

	loginPath  = "/UserManagement/Login"
	searchPath = "/ChargePoint/search"
)

// Credentials identify the account used to read the network.
type Credentials struct {
	Phone    string
	Password string
}

// Client talks to the Team Energy API.
type Client struct {
	base   *vendors.BaseClient
	creds  Credentials
	logger *zap.Logger
	now    func() time.Time
}

// NewClient returns a client; an empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, creds Credentials, httpClient vendors.HTTPDoer, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:   vendors.NewBaseClient(baseURL, httpClient),
		creds:  creds,
		logger: logger.Named("teamenergy"),
		now:    time.Now,
	}
}

// Login exchanges phone and password for a bearer session.
func (c *Client) Login(ctx context.Context) (vendors.Session, error) {
	resp, err := c.base.Do(ctx, http.MethodPost, loginPath, loginRequest{
		GuestMode:   false,
		Password:    c.creds.Password,
		PhoneNumber: c.creds.Phone,
	}, nil)
	if err != nil {
		return vendors.Session{}, vendors.NetworkError(models.BrandTeamEnergy, "login", err)
	}
	if !resp.OK() {
		return vendors.Session{}, vendors.AuthError(models.BrandTeamEnergy, resp.Status, resp.Snippet())
	}

	var body loginResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return vendors.Session{}, vendors.ShapeError(models.BrandTeamEnergy, "login", err)
	}
	token := body.token()
	if token == "" {
		return vendors.Session{}, vendors.ShapeError(models.BrandTeamEnergy, "login", errors.New("access_token missing"))
	}

	session := vendors.NewSession(models.BrandTeamEnergy, token, c.now())
	c.logger.Info("authenticated",
		zap.String("token", logging.TokenPrefix(token)),
		zap.Time("expires_at", session.ExpiresAt),
	)
	return session, nil
}

// SearchResult is the decoded station list plus the number of records that
// did not match the expected shape.
type SearchResult struct {
	Stations []Station
	Skipped  int
}

// SearchChargers lists every site with live connector states.
func (c *Client) SearchChargers(ctx context.Context, session vendors.Session) (SearchResult, error) {
	resp, err := c.base.Do(ctx, http.MethodPost, searchPath, searchRequest{NoLatest: 1}, map[string]string{
		"Authorization": session.Authorization(),
	})
	if err != nil {
		return SearchResult{}, vendors.NetworkError(models.BrandTeamEnergy, "search", err)
	}
	if !resp.OK() {
		return SearchResult{}, vendors.FetchError(models.BrandTeamEnergy, "search", resp.Status, resp.Snippet())
	}

	stations, skipped, err := decodeStations(resp.Body)
	if err != nil {
		return SearchResult{}, vendors.ShapeError(models.BrandTeamEnergy, "search", err)
	}
	if skipped > 0 {
		c.logger.Warn("skipped malformed stations", zap.Int("skipped", skipped))
	}
	c.logger.Info("chargers fetched", zap.Int("stations", len(stations)))
	return SearchResult{Stations: stations, Skipped: skipped}, nil
}

// decodeStations accepts the {"chargers": [...]} envelope or a bare array.
func decodeStations(body []byte) ([]Station, int, error) {
	body = bytes.TrimSpace(body)
	var items []json.RawMessage
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, 0, err
		}
	} else {
		var envelope struct {
			Chargers *[]json.RawMessage `json:"chargers"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, 0, err
		}
		if envelope.Chargers == nil {
			return nil, 0, errors.New("chargers field missing")
		}
		items = *envelope.Chargers
	}

	stations, skipped := vendors.DecodeRecords(items, func(s Station) bool {
		return s.ChargePointID != ""
	})
	return stations, skipped, nil
}

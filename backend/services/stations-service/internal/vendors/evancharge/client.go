package evancharge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"evmap/backend/libs/logging"
	"evmap/backend/services/stations-service/internal/models"
	"evmap/backend/services/stations-service/internal/vendors"
)

const (
	// DefaultBaseURL is the production API host.
	DefaultBaseURL = "https://evcharge-api-prod.e-evan.com"
	// DefaultPageLimit covers the whole network in one page.
	DefaultPageLimit = 1000

	signinPath   = "/api/users/auth/signin"
	stationsPath = "/api/stations/stations"
)

// Credentials identify the account used to read the network.
type Credentials struct {
	Phone    string
	Password string
}

// Client talks to the Evan Charge API.
type Client struct {
	base      *vendors.BaseClient
	creds     Credentials
	pageLimit int
	logger    *zap.Logger
	now       func() time.Time
}

// NewClient returns a client; empty baseURL and non-positive pageLimit select defaults.
func NewClient(baseURL string, creds Credentials, pageLimit int, httpClient vendors.HTTPDoer, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if pageLimit <= 0 {
		pageLimit = DefaultPageLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:      vendors.NewBaseClient(baseURL, httpClient),
		creds:     creds,
		pageLimit: pageLimit,
		logger:    logger.Named("evancharge"),
		now:       time.Now,
	}
}

// Login signs in with phone and password.
func (c *Client) Login(ctx context.Context) (vendors.Session, error) {
	resp, err := c.base.Do(ctx, http.MethodPost, signinPath, signinRequest{
		Phone:    c.creds.Phone,
		Password: c.creds.Password,
	}, nil)
	if err != nil {
		return vendors.Session{}, vendors.NetworkError(models.BrandEvanCharge, "login", err)
	}
	if !resp.OK() {
		return vendors.Session{}, vendors.AuthError(models.BrandEvanCharge, resp.Status, resp.Snippet())
	}

	var body signinResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return vendors.Session{}, vendors.ShapeError(models.BrandEvanCharge, "login", err)
	}
	if body.Token == nil || body.Token.AccessToken == "" {
		return vendors.Session{}, vendors.ShapeError(models.BrandEvanCharge, "login", errors.New("token.accessToken missing"))
	}

	session := vendors.NewSession(models.BrandEvanCharge, body.Token.AccessToken, c.now())
	c.logger.Info("authenticated",
		zap.String("token", logging.TokenPrefix(session.Token)),
		zap.Time("expires_at", session.ExpiresAt),
	)
	return session, nil
}

// ListResult is the decoded station list plus the number of skipped records.
type ListResult struct {
	Stations []Station
	Skipped  int
}

// ListStations fetches every site including pricing.
func (c *Client) ListStations(ctx context.Context, session vendors.Session) (ListResult, error) {
	resp, err := c.base.Do(ctx, http.MethodGet, c.stationsURL(), nil, map[string]string{
		"Authorization": session.Authorization(),
	})
	if err != nil {
		return ListResult{}, vendors.NetworkError(models.BrandEvanCharge, "list", err)
	}
	if !resp.OK() {
		return ListResult{}, vendors.FetchError(models.BrandEvanCharge, "list", resp.Status, resp.Snippet())
	}

	stations, skipped, err := decodeStations(resp.Body)
	if err != nil {
		return ListResult{}, vendors.ShapeError(models.BrandEvanCharge, "list", err)
	}
	if skipped > 0 {
		c.logger.Warn("skipped malformed stations", zap.Int("skipped", skipped))
	}
	c.logger.Info("stations fetched", zap.Int("stations", len(stations)))
	return ListResult{Stations: stations, Skipped: skipped}, nil
}

func (c *Client) stationsURL() string {
	q := url.Values{}
	q.Set("_limit", fmt.Sprint(c.pageLimit))
	q.Set("_offset", "0")
	q.Set("includePricing", `is_equal:"true"`)
	return stationsPath + "?" + q.Encode()
}

// decodeStations accepts a bare array or a {"data": [...]} envelope.
func decodeStations(body []byte) ([]Station, int, error) {
	body = bytes.TrimSpace(body)
	var items []json.RawMessage
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, 0, err
		}
	} else {
		var envelope struct {
			Data *[]json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, 0, err
		}
		if envelope.Data == nil {
			return nil, 0, errors.New("station array missing")
		}
		items = *envelope.Data
	}

	stations, skipped := vendors.DecodeRecords(items, func(s Station) bool {
		return s.ID != ""
	})
	return stations, skipped, nil
}

package teamenergy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"evmap/backend/services/stations-service/internal/models"
	"evmap/backend/services/stations-service/internal/vendors"
)

const searchBody = `{
  "chargers": [
    {
      "chargePointId": 101,
      "name": "Northern Avenue",
      "latitude": 40.183,
      "longitude": 44.515,
      "address": "1 Northern Ave",
      "phone": "+374 10 000000",
      "chargePointInfos": [
        {
          "chargePointId": "CP-A",
          "connectors": [
            {"connectorId": 1, "connectorType": "Type 2", "power": 22, "status": 1, "statusDescription": "Free", "price": 120},
            {"connectorId": 2, "connectorType": "CCS2", "power": "60", "status": "6", "statusDescription": "Charging"}
          ]
        },
        {
          "chargePointId": "CP-B",
          "connectors": [
            {"connectorId": 1, "connectorType": "CHAdeMO", "power": 50, "status": 0},
            {"connectorId": 2, "connectorType": "Tesla", "power": 120, "status": 9}
          ]
        }
      ]
    },
    {"chargePointId": 102, "name": 42},
    "garbage",
    {"name": "no id"}
  ]
}`

type fakeVendor struct {
	logins      atomic.Int32
	searches    atomic.Int32
	loginStatus int
	searchCode  int
	searchBody  string
}

func (f *fakeVendor) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(loginPath, func(w http.ResponseWriter, r *http.Request) {
		f.logins.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		var req loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "+37400000000", req.PhoneNumber)
		assert.False(t, req.GuestMode)
		if f.loginStatus != 0 {
			w.WriteHeader(f.loginStatus)
			_, _ = w.Write([]byte(`{"error":"bad credentials"}`))
			return
		}
		_, _ = fmt.Fprintf(w, `{"access_token":"token-%d"}`, f.logins.Load())
	})
	mux.HandleFunc(searchPath, func(w http.ResponseWriter, r *http.Request) {
		f.searches.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Authorization"), "Bearer token-")
		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 1, req.NoLatest)
		if f.searchCode != 0 {
			w.WriteHeader(f.searchCode)
			return
		}
		_, _ = w.Write([]byte(f.searchBody))
	})
	return mux
}

func newTestSource(t *testing.T, f *fakeVendor) (*Source, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	logger := zaptest.NewLogger(t)
	client := NewClient(srv.URL, Credentials{Phone: "+37400000000", Password: "secret"}, srv.Client(), logger)
	return NewSource(client, logger), srv
}

func TestPullFlattensChargePoints(t *testing.T) {
	f := &fakeVendor{searchBody: searchBody}
	src, _ := newTestSource(t, f)

	pull, err := src.Pull(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.BrandTeamEnergy, pull.Vendor)
	assert.Equal(t, 3, pull.Skipped)
	require.Len(t, pull.Stations, 1)

	st := pull.Stations[0]
	assert.Equal(t, "101", st.ID)
	assert.Equal(t, "Northern Avenue", st.Name)
	assert.Equal(t, models.BrandTeamEnergy, st.Brand)
	assert.Equal(t, "+374 10 000000", st.Phone)
	require.Len(t, st.Ports, 4)

	want := []struct {
		id     string
		group  string
		typ    models.PortType
		power  float64
		status models.ChargingStatus
	}{
		{"CP-A:1", "CP-A", models.PortType2, 22, models.StatusAvailable},
		{"CP-A:2", "CP-A", models.PortTypeCCS, 60, models.StatusBusy},
		{"CP-B:1", "CP-B", models.PortTypeCHAdeMO, 50, models.StatusOffline},
		{"CP-B:2", "CP-B", models.PortTypeCCS, 120, models.StatusUnknown},
	}
	for i, w := range want {
		p := st.Ports[i]
		assert.Equal(t, w.id, p.ID)
		assert.Equal(t, w.group, p.ChargePointID)
		assert.Equal(t, w.typ, p.Type)
		assert.InDelta(t, w.power, p.Power, 1e-9)
		assert.Equal(t, w.status, p.Status)
	}
	require.NotNil(t, st.Ports[0].Price)
	assert.InDelta(t, 120, *st.Ports[0].Price, 1e-9)
	assert.Equal(t, "Free", st.Ports[0].StatusDescription)
	assert.Nil(t, st.Ports[1].Price)
}

func TestPullReusesSession(t *testing.T) {
	f := &fakeVendor{searchBody: `{"chargers": []}`}
	src, _ := newTestSource(t, f)

	for i := 0; i < 3; i++ {
		_, err := src.Pull(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), f.logins.Load())
	assert.Equal(t, int32(3), f.searches.Load())
}

func TestPullDropsRejectedSession(t *testing.T) {
	f := &fakeVendor{searchCode: http.StatusUnauthorized}
	src, _ := newTestSource(t, f)

	_, err := src.Pull(context.Background())
	assert.ErrorIs(t, err, vendors.ErrFetch)

	f.searchCode = 0
	f.searchBody = `{"chargers": []}`
	_, err = src.Pull(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.logins.Load())
}

func TestPullFailureKinds(t *testing.T) {
	t.Run("login rejected", func(t *testing.T) {
		src, _ := newTestSource(t, &fakeVendor{loginStatus: http.StatusUnauthorized})
		_, err := src.Pull(context.Background())
		assert.ErrorIs(t, err, vendors.ErrAuthentication)
		assert.Contains(t, err.Error(), "bad credentials")
	})
	t.Run("search failed", func(t *testing.T) {
		src, _ := newTestSource(t, &fakeVendor{searchCode: http.StatusBadGateway})
		_, err := src.Pull(context.Background())
		assert.ErrorIs(t, err, vendors.ErrFetch)
	})
	t.Run("chargers missing", func(t *testing.T) {
		src, _ := newTestSource(t, &fakeVendor{searchBody: `{"items": []}`})
		_, err := src.Pull(context.Background())
		assert.ErrorIs(t, err, vendors.ErrShape)
	})
	t.Run("not json", func(t *testing.T) {
		src, _ := newTestSource(t, &fakeVendor{searchBody: `<html>`})
		_, err := src.Pull(context.Background())
		assert.ErrorIs(t, err, vendors.ErrShape)
	})
	t.Run("network", func(t *testing.T) {
		src, srv := newTestSource(t, &fakeVendor{})
		srv.Close()
		_, err := src.Pull(context.Background())
		assert.ErrorIs(t, err, vendors.ErrNetwork)
	})
}

func TestDecodeRoundTripsCachedPayload(t *testing.T) {
	f := &fakeVendor{searchBody: searchBody}
	src, _ := newTestSource(t, f)

	pull, err := src.Pull(context.Background())
	require.NoError(t, err)

	decoded, err := src.Decode(pull.Raw)
	require.NoError(t, err)
	assert.Equal(t, pull.Stations, decoded)

	bare, err := src.Decode([]byte(`[{"chargePointId": "7", "name": "Bare", "chargePointInfos": []}]`))
	require.NoError(t, err)
	require.Len(t, bare, 1)
	assert.Empty(t, bare[0].Ports)

	_, err = src.Decode([]byte(`{"nope": 1}`))
	assert.ErrorIs(t, err, vendors.ErrShape)
}

func TestNormalizeGroupsAreNTimesM(t *testing.T) {
	for n := 0; n <= 3; n++ {
		for m := 0; m <= 3; m++ {
			st := Station{ChargePointID: "S"}
			for g := 0; g < n; g++ {
				info := ChargePointInfo{ChargePointID: vendors.FlexString(fmt.Sprintf("G%d", g))}
				for c := 0; c < m; c++ {
					info.Connectors = append(info.Connectors, Connector{ConnectorID: vendors.FlexString(fmt.Sprint(c))})
				}
				st.ChargePointInfos = append(st.ChargePointInfos, info)
			}

			got := Normalize(st)
			require.Len(t, got.Ports, n*m)
			for i, p := range got.Ports {
				assert.Equal(t, fmt.Sprintf("G%d", i/max(m, 1)), p.ChargePointID)
			}
		}
	}
}

func TestNormalizeDefaultsMissingIDs(t *testing.T) {
	st := Station{
		ChargePointID: "S1",
		ChargePointInfos: []ChargePointInfo{
			{Connectors: []Connector{{ConnectorType: "Type 1", Power: -5}}},
		},
	}
	got := Normalize(st)
	require.Len(t, got.Ports, 1)
	assert.Equal(t, "S1-1", got.Ports[0].ChargePointID)
	assert.Equal(t, "S1-1:1", got.Ports[0].ID)
	assert.Zero(t, got.Ports[0].Power)
	assert.Equal(t, models.PortType1, got.Ports[0].Type)
	assert.Equal(t, models.StatusUnknown, got.Ports[0].Status)
}

func TestPullKeepsBatchWithNonFiniteNumbers(t *testing.T) {
	body := `{"chargers": [
    {"chargePointId": 1, "name": "Good", "latitude": 40.1, "longitude": 44.5,
     "chargePointInfos": [{"chargePointId": "A", "connectors": [{"connectorId": 1, "connectorType": "CCS2", "power": 50, "status": 1}]}]},
    {"chargePointId": 2, "name": "Odd", "latitude": "NaN", "longitude": 44.6,
     "chargePointInfos": [{"chargePointId": "B", "connectors": [{"connectorId": 1, "connectorType": "Type 2", "power": "NaN", "status": 1, "price": "Infinity"}]}]}
  ]}`
	src, _ := newTestSource(t, &fakeVendor{searchBody: body})

	pull, err := src.Pull(context.Background())
	require.NoError(t, err)
	require.Len(t, pull.Stations, 2)
	assert.NotEmpty(t, pull.Raw)

	odd := pull.Stations[1]
	assert.Zero(t, odd.Latitude)
	require.Len(t, odd.Ports, 1)
	assert.Zero(t, odd.Ports[0].Power)
	require.NotNil(t, odd.Ports[0].Price)
	assert.Zero(t, *odd.Ports[0].Price)

	stations, err := src.Decode(pull.Raw)
	require.NoError(t, err)
	assert.Len(t, stations, 2)
}

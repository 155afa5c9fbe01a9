package presentation

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"evmap/backend/services/stations-service/internal/models"
)

// ErrInvalidFilter wraps every query parsing failure.
var ErrInvalidFilter = errors.New("invalid filter")

// Matches reports whether at least one port satisfies every active dimension
// at once. A station without ports never matches.
func Matches(st models.ChargingStation, f models.ChargingStationFilters) bool {
	for _, p := range st.Ports {
		if f.HasPortType(p.Type) && f.InPowerRange(p.Power) && f.HasStatus(p.Status) {
			return true
		}
	}
	return false
}

// Apply returns the matching stations in input order.
func Apply(stations []models.ChargingStation, f models.ChargingStationFilters) []models.ChargingStation {
	out := make([]models.ChargingStation, 0, len(stations))
	for _, st := range stations {
		if Matches(st, f) {
			out = append(out, st)
		}
	}
	return out
}

// ParseFilters reads portType, status, minPower and maxPower from a query.
// portType and status may repeat or hold comma separated values.
func ParseFilters(q url.Values) (models.ChargingStationFilters, error) {
	var f models.ChargingStationFilters

	for _, raw := range listParam(q, "portType") {
		pt, err := models.ParsePortType(raw)
		if err != nil {
			return f, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		f.PortTypes = appendUnique(f.PortTypes, pt)
	}
	for _, raw := range listParam(q, "status") {
		st, err := models.ParseStatus(raw)
		if err != nil {
			return f, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		f.Status = appendUnique(f.Status, st)
	}

	var err error
	if f.MinPower, err = powerParam(q, "minPower"); err != nil {
		return f, err
	}
	if f.MaxPower, err = powerParam(q, "maxPower"); err != nil {
		return f, err
	}
	if f.MaxPower != 0 && f.MaxPower < f.MinPower {
		return f, fmt.Errorf("%w: maxPower %g is below minPower %g", ErrInvalidFilter, f.MaxPower, f.MinPower)
	}
	return f, nil
}

// Query encodes filters back into query parameters.
func Query(f models.ChargingStationFilters) url.Values {
	q := url.Values{}
	for _, pt := range f.PortTypes {
		q.Add("portType", string(pt))
	}
	for _, st := range f.Status {
		q.Add("status", string(st))
	}
	if f.MinPower != 0 {
		q.Set("minPower", strconv.FormatFloat(f.MinPower, 'f', -1, 64))
	}
	if f.MaxPower != 0 {
		q.Set("maxPower", strconv.FormatFloat(f.MaxPower, 'f', -1, 64))
	}
	return q
}

func listParam(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func powerParam(q url.Values, key string) (float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, nil
	}
	kw, err := strconv.ParseFloat(raw, 64)
	if err != nil || kw < 0 || math.IsNaN(kw) || math.IsInf(kw, 0) {
		return 0, fmt.Errorf("%w: %s must be a non-negative number, got %q", ErrInvalidFilter, key, raw)
	}
	return kw, nil
}

func appendUnique[T comparable](list []T, v T) []T {
	for _, have := range list {
		if have == v {
			return list
		}
	}
	return append(list, v)
}

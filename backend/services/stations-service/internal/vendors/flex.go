package vendors

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"evmap/backend/services/stations-service/internal/models"
)

// FlexString decodes from a JSON string, number or bool. Vendors are not
// consistent about quoting ids and status codes.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*f = FlexString(strconv.FormatBool(b))
	return nil
}

func (f FlexString) String() string { return string(f) }

// FlexFloat decodes from a JSON number or a numeric string; anything
// unparsable or non-finite decodes as zero.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			*f = 0
			return nil
		}
		*f = FlexFloat(v)
		return nil
	}
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		*f = 0
		return nil
	}
	if v == nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(*v)
	return nil
}

// NonNegative returns the value clamped to zero. NaN and infinities are zero.
func (f FlexFloat) NonNegative() float64 {
	v := float64(f)
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Pull is the outcome of one successful vendor fetch: the payload in vendor
// shape, ready to be cached, and its normalized stations.
type Pull struct {
	Vendor    models.Brand
	Raw       json.RawMessage
	Stations  []models.ChargingStation
	Skipped   int
	FetchedAt time.Time
}

// DecodeRecords decodes each item independently. Items that fail to decode or
// are rejected by keep are counted as skipped instead of failing the batch.
func DecodeRecords[T any](items []json.RawMessage, keep func(T) bool) ([]T, int) {
	out := make([]T, 0, len(items))
	skipped := 0
	for _, item := range items {
		var rec T
		if err := json.Unmarshal(item, &rec); err != nil {
			skipped++
			continue
		}
		if keep != nil && !keep(rec) {
			skipped++
			continue
		}
		out = append(out, rec)
	}
	return out, skipped
}

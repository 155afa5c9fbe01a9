package normalize

import (
	"math"
	"strconv"
	"strings"

	"evmap/backend/services/stations-service/internal/models"
)

// PortRule maps raw connector type strings containing Match to Type.
type PortRule struct {
	Match string
	Type  models.PortType
}

// PortTable is an ordered rule list; the first rule whose Match is a
// case-insensitive substring of the raw value wins. CCS and TESLA rules come
// first so combo descriptions like "Type 2 CCS" classify as CCS.
type PortTable []PortRule

// StatusTable maps trimmed, upper-cased raw status tokens to canonical states.
type StatusTable map[string]models.ChargingStatus

// Vocabulary is the full translation data for one vendor.
type Vocabulary struct {
	Ports    PortTable
	Statuses StatusTable
}

var wordStatuses = StatusTable{
	"AVAILABLE":    models.StatusAvailable,
	"FREE":         models.StatusAvailable,
	"IDLE":         models.StatusAvailable,
	"BUSY":         models.StatusBusy,
	"CHARGING":     models.StatusBusy,
	"IN_USE":       models.StatusBusy,
	"OCCUPIED":     models.StatusBusy,
	"OFFLINE":      models.StatusOffline,
	"OUT_OF_ORDER": models.StatusOffline,
	"UNAVAILABLE":  models.StatusOffline,
}

// TeamEnergy reports connector status as numeric codes; words are accepted too.
var TeamEnergy = Vocabulary{
	Ports: PortTable{
		{Match: "CCS", Type: models.PortTypeCCS},
		{Match: "TESLA", Type: models.PortTypeCCS},
		{Match: "TYPE1", Type: models.PortType1},
		{Match: "TYPE 1", Type: models.PortType1},
		{Match: "TYPE2", Type: models.PortType2},
		{Match: "TYPE 2", Type: models.PortType2},
		{Match: "CHADEMO", Type: models.PortTypeCHAdeMO},
		{Match: "GB/T", Type: models.PortTypeCCS},
	},
	Statuses: merge(StatusTable{
		"1": models.StatusAvailable,
		"6": models.StatusBusy,
		"0": models.StatusOffline,
	}, wordStatuses),
}

// EvanCharge uses word statuses and socket suffixed type names (TYPE2_SOCKET).
var EvanCharge = Vocabulary{
	Ports: PortTable{
		{Match: "CCS", Type: models.PortTypeCCS},
		{Match: "TESLA", Type: models.PortTypeCCS},
		{Match: "TYPE1", Type: models.PortType1},
		{Match: "TYPE 1", Type: models.PortType1},
		{Match: "TYPE_1", Type: models.PortType1},
		{Match: "TYPE2", Type: models.PortType2},
		{Match: "TYPE 2", Type: models.PortType2},
		{Match: "TYPE_2", Type: models.PortType2},
		{Match: "CHADEMO", Type: models.PortTypeCHAdeMO},
		{Match: "GB/T", Type: models.PortTypeCCS},
	},
	Statuses: merge(StatusTable{}, wordStatuses),
}

// For returns the vocabulary of a vendor; unknown brands get an empty
// vocabulary, which maps everything to the defaults.
func For(brand models.Brand) Vocabulary {
	switch brand {
	case models.BrandTeamEnergy:
		return TeamEnergy
	case models.BrandEvanCharge:
		return EvanCharge
	default:
		return Vocabulary{}
	}
}

// PortType classifies a raw connector type, defaulting to OTHER.
func (v Vocabulary) PortType(raw string) models.PortType {
	return v.Ports.Lookup(raw)
}

// Status classifies a raw status token, defaulting to UNKNOWN.
func (v Vocabulary) Status(raw string) models.ChargingStatus {
	return v.Statuses.Lookup(raw)
}

// Lookup returns the first matching rule's type or OTHER.
func (t PortTable) Lookup(raw string) models.PortType {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	if upper == "" {
		return models.PortTypeOther
	}
	for _, rule := range t {
		if strings.Contains(upper, strings.ToUpper(rule.Match)) {
			return rule.Type
		}
	}
	return models.PortTypeOther
}

// Lookup returns the mapped status or UNKNOWN. Numeric tokens are reduced to
// their integer part first, so "01" and "1.0" find the "1" entry.
func (t StatusTable) Lookup(raw string) models.ChargingStatus {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if s, ok := t[key]; ok {
		return s
	}
	if code, ok := numericCode(key); ok {
		if s, ok := t[code]; ok {
			return s
		}
	}
	return models.StatusUnknown
}

func merge(dst, src StatusTable) StatusTable {
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func numericCode(token string) (string, bool) {
	n, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(n) || math.Abs(n) > math.MaxInt32 {
		return "", false
	}
	return strconv.FormatInt(int64(math.Trunc(n)), 10), true
}

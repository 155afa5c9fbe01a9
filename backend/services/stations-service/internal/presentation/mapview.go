package presentation

import "evmap/backend/services/stations-service/internal/models"

const (
	colorTeamEnergy = "#2563eb"
	colorEvanCharge = "#16a34a"
	colorActive     = "#ea580c"
	colorFallback   = "#6b7280"
)

// Marker is one pin on the map.
type Marker struct {
	Key       string       `json:"key"`
	StationID string       `json:"stationId"`
	Vendor    string       `json:"vendor"`
	Name      string       `json:"name"`
	Brand     models.Brand `json:"brand"`
	Label     string       `json:"label"`
	Color     string       `json:"color"`
	Active    bool         `json:"active"`
	Latitude  float64      `json:"latitude"`
	Longitude float64      `json:"longitude"`
}

// Bounds is the box enclosing the visible markers.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// BrandColor is the idle marker colour of a network.
func BrandColor(b models.Brand) string {
	switch b {
	case models.BrandTeamEnergy:
		return colorTeamEnergy
	case models.BrandEvanCharge:
		return colorEvanCharge
	default:
		return colorFallback
	}
}

// MapView holds the markers for a filtered station list and the single
// selected marker whose popup is open. Stations are addressed by
// ChargingStation.Key since ids repeat across networks.
type MapView struct {
	stations []models.ChargingStation
	index    map[string]int
	selected string
}

// NewMapView keeps the stations that pass filters and can be placed on a map.
func NewMapView(stations []models.ChargingStation, f models.ChargingStationFilters) *MapView {
	v := &MapView{index: make(map[string]int)}
	for _, st := range Apply(stations, f) {
		if !st.HasCoordinates() {
			continue
		}
		key := st.Key()
		if _, dup := v.index[key]; dup {
			continue
		}
		v.index[key] = len(v.stations)
		v.stations = append(v.stations, st)
	}
	return v
}

// Stations returns the stations behind the markers.
func (v *MapView) Stations() []models.ChargingStation {
	return v.stations
}

// Markers renders the current marker set.
func (v *MapView) Markers() []Marker {
	out := make([]Marker, 0, len(v.stations))
	for _, st := range v.stations {
		key := st.Key()
		active := key == v.selected
		color := BrandColor(st.Brand)
		if active {
			color = colorActive
		}
		out = append(out, Marker{
			Key:       key,
			StationID: st.ID,
			Vendor:    st.Brand.Key(),
			Name:      st.Name,
			Brand:     st.Brand,
			Label:     st.Brand.Short(),
			Color:     color,
			Active:    active,
			Latitude:  st.Latitude,
			Longitude: st.Longitude,
		})
	}
	return out
}

// Select opens the popup of the station with key and closes any other.
// Unknown keys leave the selection unchanged.
func (v *MapView) Select(key string) bool {
	if _, ok := v.index[key]; !ok {
		return false
	}
	v.selected = key
	return true
}

// ClearSelection closes the open popup, if any.
func (v *MapView) ClearSelection() {
	v.selected = ""
}

// Selected returns the station with an open popup.
func (v *MapView) Selected() (models.ChargingStation, bool) {
	i, ok := v.index[v.selected]
	if !ok {
		return models.ChargingStation{}, false
	}
	return v.stations[i], true
}

// Bounds encloses every marker; ok is false when there are none.
func (v *MapView) Bounds() (b Bounds, ok bool) {
	for i, st := range v.stations {
		if i == 0 {
			b = Bounds{South: st.Latitude, North: st.Latitude, West: st.Longitude, East: st.Longitude}
			continue
		}
		b.South = min(b.South, st.Latitude)
		b.North = max(b.North, st.Latitude)
		b.West = min(b.West, st.Longitude)
		b.East = max(b.East, st.Longitude)
	}
	return b, len(v.stations) > 0
}

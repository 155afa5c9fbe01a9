package models

// ChargingStationFilters is the transient filter state of the map page.
// Empty sets and a zero MaxPower mean "no constraint".
type ChargingStationFilters struct {
	PortTypes []PortType       `json:"portTypes"`
	MinPower  float64          `json:"minPower"`
	MaxPower  float64          `json:"maxPower"`
	Status    []ChargingStatus `json:"status"`
}

// HasPortType reports whether t passes the port type dimension.
func (f ChargingStationFilters) HasPortType(t PortType) bool {
	if len(f.PortTypes) == 0 {
		return true
	}
	for _, want := range f.PortTypes {
		if want == t {
			return true
		}
	}
	return false
}

// HasStatus reports whether s passes the status dimension.
func (f ChargingStationFilters) HasStatus(s ChargingStatus) bool {
	if len(f.Status) == 0 {
		return true
	}
	for _, want := range f.Status {
		if want == s {
			return true
		}
	}
	return false
}

// InPowerRange reports whether kw passes the power dimension.
func (f ChargingStationFilters) InPowerRange(kw float64) bool {
	if kw < f.MinPower {
		return false
	}
	return f.MaxPower == 0 || kw <= f.MaxPower
}

// IsZero reports whether no dimension is active.
func (f ChargingStationFilters) IsZero() bool {
	return len(f.PortTypes) == 0 && len(f.Status) == 0 && f.MinPower == 0 && f.MaxPower == 0
}

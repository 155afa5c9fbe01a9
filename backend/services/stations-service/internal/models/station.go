package models

import (
	"fmt"
	"strings"
)

// Brand identifies the charging network a station belongs to.
type Brand string

const (
	BrandTeamEnergy Brand = "TEAM_ENERGY"
	BrandEvanCharge Brand = "EVAN_CHARGE"
)

// Brands lists every supported network in display order.
var Brands = []Brand{BrandTeamEnergy, BrandEvanCharge}

// Label returns the human readable network name.
func (b Brand) Label() string {
	switch b {
	case BrandTeamEnergy:
		return "Team Energy"
	case BrandEvanCharge:
		return "Evan Charge"
	default:
		return string(b)
	}
}

// Short returns the two letter marker label.
func (b Brand) Short() string {
	switch b {
	case BrandTeamEnergy:
		return "TE"
	case BrandEvanCharge:
		return "EC"
	default:
		return "?"
	}
}

// Key is the camelCase form used for cache file names and JSON stats.
func (b Brand) Key() string {
	switch b {
	case BrandTeamEnergy:
		return "teamEnergy"
	case BrandEvanCharge:
		return "evanCharge"
	default:
		return strings.ToLower(string(b))
	}
}

// BrandFromKey is the inverse of Key.
func BrandFromKey(key string) (Brand, bool) {
	for _, b := range Brands {
		if b.Key() == key {
			return b, true
		}
	}
	return "", false
}

// PortType is the canonical connector family.
type PortType string

const (
	PortType1       PortType = "TYPE_1"
	PortType2       PortType = "TYPE_2"
	PortTypeCCS     PortType = "CCS"
	PortTypeCHAdeMO PortType = "CHADEMO"
	PortTypeOther   PortType = "OTHER"
)

// PortTypes lists every canonical port type.
var PortTypes = []PortType{PortType1, PortType2, PortTypeCCS, PortTypeCHAdeMO, PortTypeOther}

// Label returns the name shown in filter controls.
func (p PortType) Label() string {
	switch p {
	case PortType1:
		return "Type 1"
	case PortType2:
		return "Type 2"
	case PortTypeCHAdeMO:
		return "CHAdeMO"
	case PortTypeOther:
		return "Other"
	default:
		return string(p)
	}
}

// ParsePortType accepts canonical names in any case.
func ParsePortType(raw string) (PortType, error) {
	candidate := PortType(strings.ToUpper(strings.TrimSpace(raw)))
	for _, p := range PortTypes {
		if p == candidate {
			return p, nil
		}
	}
	return "", fmt.Errorf("models: unknown port type %q", raw)
}

// ChargingStatus is the canonical live connector state.
type ChargingStatus string

const (
	StatusAvailable ChargingStatus = "AVAILABLE"
	StatusBusy      ChargingStatus = "BUSY"
	StatusOffline   ChargingStatus = "OFFLINE"
	StatusUnknown   ChargingStatus = "UNKNOWN"
)

// Statuses lists every canonical status.
var Statuses = []ChargingStatus{StatusAvailable, StatusBusy, StatusOffline, StatusUnknown}

// Label returns the name shown in filter controls.
func (s ChargingStatus) Label() string {
	switch s {
	case StatusAvailable:
		return "Available"
	case StatusBusy:
		return "Busy"
	case StatusOffline:
		return "Offline"
	default:
		return "Unknown"
	}
}

// ParseStatus accepts canonical names in any case.
func ParseStatus(raw string) (ChargingStatus, error) {
	candidate := ChargingStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, s := range Statuses {
		if s == candidate {
			return s, nil
		}
	}
	return "", fmt.Errorf("models: unknown status %q", raw)
}

// ChargingPort is one pluggable socket.
type ChargingPort struct {
	ID                string         `json:"id"`
	Type              PortType       `json:"type"`
	Power             float64        `json:"power"`
	Status            ChargingStatus `json:"status"`
	StatusDescription string         `json:"statusDescription,omitempty"`
	Price             *float64       `json:"price,omitempty"`
	ChargePointID     string         `json:"chargePointId,omitempty"`
}

// ChargingStation is the canonical, vendor independent station snapshot.
type ChargingStation struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Brand     Brand          `json:"brand"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Address   string         `json:"address"`
	Phone     string         `json:"phone,omitempty"`
	Ports     []ChargingPort `json:"ports"`
}

// Key identifies the station across networks. Ids are only unique within
// one network.
func (s ChargingStation) Key() string {
	return s.Brand.Key() + ":" + s.ID
}

// HasCoordinates reports whether the station can be placed on a map.
func (s ChargingStation) HasCoordinates() bool {
	if s.Latitude == 0 || s.Longitude == 0 {
		return false
	}
	return s.Latitude >= -90 && s.Latitude <= 90 && s.Longitude >= -180 && s.Longitude <= 180
}

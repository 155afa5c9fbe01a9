package teamenergy

import "evmap/backend/services/stations-service/internal/vendors"

// Station is one Team Energy site as returned by ChargePoint/search. A site
// groups several physical charge points, each with its own connectors.
type Station struct {
	ChargePointID    vendors.FlexString `json:"chargePointId"`
	Name             string             `json:"name"`
	Latitude         vendors.FlexFloat  `json:"latitude"`
	Longitude        vendors.FlexFloat  `json:"longitude"`
	Address          string             `json:"address"`
	Phone            string             `json:"phone,omitempty"`
	ChargePointInfos []ChargePointInfo  `json:"chargePointInfos"`
}

// ChargePointInfo is one physical charge point of a site.
type ChargePointInfo struct {
	ChargePointID vendors.FlexString `json:"chargePointId"`
	IsSeperated   *bool              `json:"isSeperated,omitempty"`
	StationNumber vendors.FlexString `json:"stationNumber,omitempty"`
	Connectors    []Connector        `json:"connectors"`
}

// Connector is one socket. Status is a numeric code (1 free, 6 busy, 0 offline).
type Connector struct {
	ConnectorID        vendors.FlexString `json:"connectorId"`
	Key                vendors.FlexString `json:"key,omitempty"`
	ConnectorType      vendors.FlexString `json:"connectorType"`
	ConnectorTypeGroup vendors.FlexString `json:"connectorTypeGroup,omitempty"`
	Power              vendors.FlexFloat  `json:"power"`
	StatusDescription  string             `json:"statusDescription,omitempty"`
	Status             vendors.FlexString `json:"status"`
	IsPrepairing       *bool              `json:"isPrepairing,omitempty"`
	Price              *vendors.FlexFloat `json:"price,omitempty"`
	StateOfBattery     *vendors.FlexFloat `json:"stateOfBattery,omitempty"`
}

// Payload is the cached document; it keeps the vendor's envelope.
type Payload struct {
	Chargers []Station `json:"chargers"`
}

type loginRequest struct {
	GuestMode   bool   `json:"guestMode"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
}

type loginResponse struct {
	AccessToken      string `json:"access_token"`
	AccessTokenCamel string `json:"accessToken"`
	Token            string `json:"token"`
}

func (r loginResponse) token() string {
	switch {
	case r.AccessToken != "":
		return r.AccessToken
	case r.AccessTokenCamel != "":
		return r.AccessTokenCamel
	default:
		return r.Token
	}
}

type searchRequest struct {
	NoLatest int `json:"noLatest"`
}

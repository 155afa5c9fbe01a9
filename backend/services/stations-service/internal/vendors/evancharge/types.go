package evancharge

import "evmap/backend/services/stations-service/internal/vendors"

// Station is one Evan Charge site with a flat connector list.
type Station struct {
	ID         vendors.FlexString `json:"id"`
	Title      string             `json:"title"`
	Name       string             `json:"name,omitempty"`
	Latitude   vendors.FlexFloat  `json:"latitude"`
	Longitude  vendors.FlexFloat  `json:"longitude"`
	Address    string             `json:"address"`
	Connectors []Connector        `json:"connectors"`
}

// DisplayName prefers the title the vendor shows in its own app.
func (s Station) DisplayName() string {
	if s.Title != "" {
		return s.Title
	}
	return s.Name
}

// Connector is one socket of a site.
type Connector struct {
	ID            vendors.FlexString `json:"id"`
	ConnectorType vendors.FlexString `json:"connectorType"`
	PowerKw       vendors.FlexFloat  `json:"powerKw"`
	Status        vendors.FlexString `json:"status"`
	Price         *vendors.FlexFloat `json:"price,omitempty"`
}

type signinRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type signinResponse struct {
	Token *struct {
		AccessToken string `json:"accessToken"`
	} `json:"token"`
}

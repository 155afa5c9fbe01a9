package evancharge

import (
	"strconv"
	"strings"

	"evmap/backend/services/stations-service/internal/models"
	"evmap/backend/services/stations-service/internal/normalize"
)

// Normalize maps a site to the canonical model. Evan Charge has no charge point
// level, so every port is grouped under the station id.
func Normalize(st Station) models.ChargingStation {
	vocab := normalize.EvanCharge
	stationID := st.ID.String()

	ports := make([]models.ChargingPort, 0, len(st.Connectors))
	for i, conn := range st.Connectors {
		id := conn.ID.String()
		if id == "" {
			id = stationID + ":" + strconv.Itoa(i+1)
		}
		port := models.ChargingPort{
			ID:            id,
			Type:          vocab.PortType(conn.ConnectorType.String()),
			Power:         conn.PowerKw.NonNegative(),
			Status:        vocab.Status(conn.Status.String()),
			ChargePointID: stationID,
		}
		if conn.Price != nil {
			price := conn.Price.NonNegative()
			port.Price = &price
		}
		ports = append(ports, port)
	}

	return models.ChargingStation{
		ID:        stationID,
		Name:      strings.TrimSpace(st.DisplayName()),
		Brand:     models.BrandEvanCharge,
		Latitude:  float64(st.Latitude),
		Longitude: float64(st.Longitude),
		Address:   strings.TrimSpace(st.Address),
		Ports:     ports,
	}
}

// NormalizeAll normalizes a batch in order.
func NormalizeAll(stations []Station) []models.ChargingStation {
	out := make([]models.ChargingStation, 0, len(stations))
	for _, st := range stations {
		out = append(out, Normalize(st))
	}
	return out
}

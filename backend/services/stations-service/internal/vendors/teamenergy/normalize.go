package teamenergy

import (
	"strconv"
	"strings"

	"evmap/backend/services/stations-service/internal/models"
	"evmap/backend/services/stations-service/internal/normalize"
)

// Normalize flattens a site into the canonical model. Every connector of every
// charge point becomes one port tagged with its charge point id, so a site with
// N charge points of M connectors yields N*M ports.
func Normalize(st Station) models.ChargingStation {
	vocab := normalize.TeamEnergy
	stationID := st.ChargePointID.String()

	ports := make([]models.ChargingPort, 0, countConnectors(st))
	for gi, info := range st.ChargePointInfos {
		group := info.ChargePointID.String()
		if group == "" {
			group = stationID + "-" + strconv.Itoa(gi+1)
		}
		for ci, conn := range info.Connectors {
			connID := conn.ConnectorID.String()
			if connID == "" {
				connID = strconv.Itoa(ci + 1)
			}
			port := models.ChargingPort{
				ID:                group + ":" + connID,
				Type:              vocab.PortType(conn.ConnectorType.String()),
				Power:             conn.Power.NonNegative(),
				Status:            vocab.Status(conn.Status.String()),
				StatusDescription: strings.TrimSpace(conn.StatusDescription),
				ChargePointID:     group,
			}
			if conn.Price != nil {
				price := conn.Price.NonNegative()
				port.Price = &price
			}
			ports = append(ports, port)
		}
	}

	return models.ChargingStation{
		ID:        stationID,
		Name:      strings.TrimSpace(st.Name),
		Brand:     models.BrandTeamEnergy,
		Latitude:  float64(st.Latitude),
		Longitude: float64(st.Longitude),
		Address:   strings.TrimSpace(st.Address),
		Phone:     strings.TrimSpace(st.Phone),
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

func countConnectors(st Station) int {
	n := 0
	for _, info := range st.ChargePointInfos {
		n += len(info.Connectors)
	}
	return n
}

package service

import "evmap/backend/services/stations-service/internal/models"

// MockStations returns the fixed sample set shown when no vendor is reachable.
// Each call returns a fresh copy.
func MockStations() []models.ChargingStation {
	return []models.ChargingStation{
		{
			ID:        "te-001",
			Name:      "Team Energy - Yerevan Central",
			Brand:     models.BrandTeamEnergy,
			Latitude:  40.183,
			Longitude: 44.515,
			Address:   "1 Northern Ave, Yerevan, Armenia",
			Ports: []models.ChargingPort{
				{ID: "port-001", Type: models.PortType2, Power: 22, Status: models.StatusAvailable},
				{ID: "port-002", Type: models.PortTypeCCS, Power: 50, Status: models.StatusBusy},
			},
		},
		{
			ID:        "te-002",
			Name:      "Team Energy - Cascade",
			Brand:     models.BrandTeamEnergy,
			Latitude:  40.188,
			Longitude: 44.518,
			Address:   "10 Tamanyan St, Yerevan, Armenia",
			Ports: []models.ChargingPort{
				{ID: "port-003", Type: models.PortType2, Power: 11, Status: models.StatusOffline},
			},
		},
		{
			ID:        "ec-001",
			Name:      "Evan Charge - Republic Square",
			Brand:     models.BrandEvanCharge,
			Latitude:  40.179,
			Longitude: 44.510,
			Address:   "2 Republic Square, Yerevan, Armenia",
			Ports: []models.ChargingPort{
				{ID: "port-004", Type: models.PortTypeCHAdeMO, Power: 50, Status: models.StatusAvailable},
				{ID: "port-005", Type: models.PortTypeCCS, Power: 150, Status: models.StatusAvailable},
			},
		},
		{
			ID:        "ec-002",
			Name:      "Evan Charge - Dalma Garden",
			Brand:     models.BrandEvanCharge,
			Latitude:  40.177,
			Longitude: 44.485,
			Address:   "Tsitsernakaberd Highway, Yerevan, Armenia",
			Ports: []models.ChargingPort{
				{ID: "port-006", Type: models.PortType1, Power: 7, Status: models.StatusBusy},
				{ID: "port-007", Type: models.PortType2, Power: 22, Status: models.StatusAvailable},
			},
		},
	}
}

package presentation

import (
	"io"
	"time"

	"evmap/backend/services/stations-service/internal/models"
)

// defaultCenter is central Yerevan as lng, lat.
var defaultCenter = [2]float64{44.5152, 40.1872}

// PageData feeds the map page.
type PageData struct {
	Title       string
	MapToken    string
	Degraded    bool
	LastUpdated time.Time
	Stations    int
	Filters     models.ChargingStationFilters
}

type pageView struct {
	PageData
	Center    [2]float64
	PortTypes []models.PortType
	Statuses  []models.ChargingStatus
	Brands    []models.Brand
}

// WriteIndex renders the map page. Without a map token the page still loads
// and shows a configuration notice in place of the map.
func WriteIndex(w io.Writer, data PageData) error {
	if data.Title == "" {
		data.Title = "EV Charging Map"
	}
	return templates.ExecuteTemplate(w, "index.html", pageView{
		PageData:  data,
		Center:    defaultCenter,
		PortTypes: models.PortTypes,
		Statuses:  models.Statuses,
		Brands:    models.Brands,
	})
}

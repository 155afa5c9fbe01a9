package presentation

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"evmap/backend/services/stations-service/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"statusColor": StatusColor,
	"statusIcon":  StatusIcon,
	"kw":          formatPower,
	"brandColor":  BrandColor,
}).ParseFS(templateFS, "templates/*.html"))

// StatusColor is the text colour of a port status.
func StatusColor(s models.ChargingStatus) string {
	switch s {
	case models.StatusAvailable:
		return "#16a34a"
	case models.StatusBusy:
		return "#dc2626"
	case models.StatusOffline:
		return "#4b5563"
	default:
		return "#ca8a04"
	}
}

// StatusIcon is the glyph shown next to a port status.
func StatusIcon(s models.ChargingStatus) string {
	switch s {
	case models.StatusAvailable:
		return "✅"
	case models.StatusBusy:
		return "🔴"
	case models.StatusOffline:
		return "⚫"
	default:
		return "🟡"
	}
}

func formatPower(kw float64) string {
	return strconv.FormatFloat(kw, 'f', -1, 64) + " kW"
}

type portView struct {
	Type       string
	Status     models.ChargingStatus
	StatusText string
	Power      float64
	Price      string
}

type portGroup struct {
	Header string
	Ports  []portView
}

type popupView struct {
	ID         string
	Name       string
	Address    string
	Phone      string
	BrandLabel string
	Groups     []portGroup
}

// PortGroups splits ports by charge point for Team Energy stations, keeping
// first-seen order. Other brands get a single group.
func PortGroups(st models.ChargingStation) [][]models.ChargingPort {
	if st.Brand != models.BrandTeamEnergy {
		return [][]models.ChargingPort{st.Ports}
	}
	var order []string
	groups := map[string][]models.ChargingPort{}
	for _, p := range st.Ports {
		key := p.ChargePointID
		if key == "" {
			key = "default"
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p)
	}
	out := make([][]models.ChargingPort, 0, len(order))
	for _, key := range order {
		out = append(out, groups[key])
	}
	return out
}

func newPopupView(st models.ChargingStation) popupView {
	view := popupView{
		ID:         st.ID,
		Name:       st.Name,
		Address:    st.Address,
		Phone:      st.Phone,
		BrandLabel: st.Brand.Label(),
	}
	groups := PortGroups(st)
	// Headers only help when one Team Energy site has several charge points.
	for i, ports := range groups {
		g := portGroup{}
		if st.Brand == models.BrandTeamEnergy && len(groups) > 1 {
			g.Header = fmt.Sprintf("Charge Point %d", i+1)
		}
		for _, p := range ports {
			pv := portView{
				Type:       p.Type.Label(),
				Status:     p.Status,
				StatusText: p.StatusDescription,
				Power:      p.Power,
			}
			if pv.StatusText == "" {
				pv.StatusText = string(p.Status)
			}
			if p.Price != nil && *p.Price > 0 {
				pv.Price = strconv.FormatFloat(*p.Price, 'f', -1, 64) + " AMD/kWh"
			}
			g.Ports = append(g.Ports, pv)
		}
		view.Groups = append(view.Groups, g)
	}
	return view
}

// WritePopup renders the detail fragment of a station.
func WritePopup(w io.Writer, st models.ChargingStation) error {
	return templates.ExecuteTemplate(w, "popup.html", newPopupView(st))
}

// Popup renders the detail fragment of a station to a string.
func Popup(st models.ChargingStation) (template.HTML, error) {
	var buf bytes.Buffer
	if err := WritePopup(&buf, st); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

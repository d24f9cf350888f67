package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"saferoute/internal/domain"
	"saferoute/internal/middleware"
	"saferoute/internal/models"
	"saferoute/internal/service"

	"github.com/gin-gonic/gin"
)

type ZoneHandler struct {
	zones *service.ZoneService
}

func NewZoneHandler(zones *service.ZoneService) *ZoneHandler {
	return &ZoneHandler{zones: zones}
}

func (h *ZoneHandler) Page(c *gin.Context) {
	form := map[string]string{
		"name":      c.Query("name"),
		"latitude":  c.Query("latitude"),
		"longitude": c.Query("longitude"),
		"radius":    strconv.FormatFloat(domain.ZoneRadiusDefault, 'f', 1, 64),
	}
	render(c, http.StatusOK, "save_zone.html", gin.H{"Form": form, "Zones": h.existing(c)})
}

// existing lists the caller's zones under the form; a failed read only hides
// the list.
func (h *ZoneHandler) existing(c *gin.Context) []models.SavedZone {
	zones, err := h.zones.List(middleware.GetUserID(c))
	if err != nil {
		slog.Error("list zones failed", "component", "zone", "err", err)
		return nil
	}
	return zones
}

// Save rejects out-of-range radii at the form layer, before the service
// sees them.
func (h *ZoneHandler) Save(c *gin.Context) {
	data := gin.H{"Form": formValues(c, "name", "latitude", "longitude", "radius"), "Zones": h.existing(c)}
	var form ZoneForm
	if err := bindForm(c, &form); err != nil {
		renderForm(c, "zone", "save_zone.html", err, data)
		return
	}
	radius := domain.ZoneRadiusDefault
	if strings.TrimSpace(form.Radius) != "" {
		radius = parseCoord(form.Radius)
	}
	_, err := h.zones.Save(middleware.GetUserID(c), service.ZoneInput{
		Name:      form.Name,
		Latitude:  parseCoord(form.Latitude),
		Longitude: parseCoord(form.Longitude),
		Radius:    radius,
	})
	if err != nil {
		renderForm(c, "zone", "save_zone.html", err, data)
		return
	}
	middleware.Flash(c, middleware.LevelSuccess, "Zone saved successfully!")
	c.Redirect(http.StatusFound, "/dashboard/")
}

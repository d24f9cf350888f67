package handler

import (
	"net/http"
	"time"

	"saferoute/internal/domain"
	"saferoute/internal/middleware"
	"saferoute/internal/repository"
	"saferoute/internal/service"

	"github.com/gin-gonic/gin"
)

var incidentFields = []string{"title", "category", "description", "severity", "latitude", "longitude", "location_name", "incident_date", "image_type"}

type ReportHandler struct {
	incidents *service.IncidentService
	feed      *service.FeedService
	auditRepo *repository.AuditLogRepository
	loc       *time.Location
	live      bool
}

// NewReportHandler builds the report pages. loc interprets submitted
// incident dates; live enables the websocket feed on the heatmap.
func NewReportHandler(incidents *service.IncidentService, feed *service.FeedService, auditRepo *repository.AuditLogRepository, loc *time.Location, live bool) *ReportHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportHandler{incidents: incidents, feed: feed, auditRepo: auditRepo, loc: loc, live: live}
}

func (h *ReportHandler) SubmitPage(c *gin.Context) {
	render(c, http.StatusOK, "submit.html", gin.H{"Form": map[string]string{
		"category":   domain.CategoryTheft,
		"severity":   domain.SeverityModerate,
		"image_type": domain.ImageTypeEvidence,
	}})
}

func (h *ReportHandler) Submit(c *gin.Context) {
	data := gin.H{"Form": formValues(c, incidentFields...)}
	var form IncidentForm
	if err := bindForm(c, &form); err != nil {
		renderForm(c, "report", "submit.html", err, data)
		return
	}
	when, err := service.ParseIncidentDate(form.IncidentDate, h.loc)
	if err != nil {
		renderForm(c, "report", "submit.html", domain.FieldError("incident_date", "Enter a valid date/time."), data)
		return
	}
	userID := middleware.GetUserID(c)
	report, err := h.incidents.Submit(c.Request.Context(), userID, service.SubmitInput{
		Title:        form.Title,
		Category:     form.Category,
		Description:  form.Description,
		Severity:     form.Severity,
		Latitude:     parseCoord(form.Latitude),
		Longitude:    parseCoord(form.Longitude),
		LocationName: form.LocationName,
		IncidentDate: when,
		ImageType:    form.ImageType,
		Images:       formFiles(c, "images"),
		Videos:       formFiles(c, "videos"),
		Audio:        formFiles(c, "audio"),
	})
	if err != nil {
		renderForm(c, "report", "submit.html", err, data)
		return
	}
	audit(h.auditRepo, c, userID, "submit_report", service.ResourceReports, report.ID)
	middleware.Flash(c, middleware.LevelSuccess, "Incident report submitted successfully! It will be reviewed before being made public.")
	c.Redirect(http.StatusFound, reportPath(report.ID))
}

func (h *ReportHandler) Detail(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		notFound(c)
		return
	}
	viewer := middleware.CurrentUser(c)
	report, err := h.incidents.Get(id, viewer)
	if isNotFound(err) {
		notFound(c)
		return
	}
	if err != nil {
		serverError(c, "report", err)
		return
	}
	marked := viewer != nil && h.incidents.HasMarkedHelpful(viewer.ID, report.ID)
	render(c, http.StatusOK, "report_detail.html", gin.H{"Report": report, "MarkedHelpful": marked})
}

// MarkHelpful is idempotent: a repeat mark only produces an info message.
func (h *ReportHandler) MarkHelpful(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		notFound(c)
		return
	}
	created, err := h.incidents.MarkHelpful(middleware.CurrentUser(c), id)
	if isNotFound(err) {
		notFound(c)
		return
	}
	if err != nil {
		serverError(c, "report", err)
		return
	}
	if created {
		middleware.Flash(c, middleware.LevelSuccess, "Thank you for marking this report as helpful!")
	} else {
		middleware.Flash(c, middleware.LevelInfo, "You have already marked this report as helpful.")
	}
	c.Redirect(http.StatusFound, reportPath(id))
}

func (h *ReportHandler) Heatmap(c *gin.Context) {
	hm := h.feed.Heatmap(middleware.GetUserID(c), service.HeatmapQuery{
		Category: c.Query("category"),
		Severity: c.Query("severity"),
		Time:     c.Query("time"),
	})
	unfiltered := hm.Query.Category == "all" && hm.Query.Severity == "all" && hm.Query.Time == domain.TimeWindowAll
	render(c, http.StatusOK, "heatmap.html", gin.H{"Heatmap": hm, "Live": h.live && unfiltered})
}

func (h *ReportHandler) Gallery(c *gin.Context) {
	g := h.feed.Gallery(service.GalleryQuery{
		Type:     c.Query("type"),
		Category: c.Query("category"),
		Page:     c.Query("page"),
	})
	render(c, http.StatusOK, "gallery.html", gin.H{"Gallery": g, "Page": g.Page, "Query": c.Request.URL.Query()})
}

// Incidents is the JSON export of verified reports for map clients.
func (h *ReportHandler) Incidents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"incidents": h.feed.Export()})
}

func reportPath(id uint) string {
	return "/reports/" + itoa(id) + "/"
}

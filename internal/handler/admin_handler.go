package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"saferoute/internal/admin"
	"saferoute/internal/middleware"
	"saferoute/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	console    *admin.Console
	moderation *service.ModerationService
	incidents  *service.IncidentService
	authSvc    *service.AuthService
}

func NewAdminHandler(
	console *admin.Console,
	moderation *service.ModerationService,
	incidents *service.IncidentService,
	authSvc *service.AuthService,
) *AdminHandler {
	return &AdminHandler{
		console:    console,
		moderation: moderation,
		incidents:  incidents,
		authSvc:    authSvc,
	}
}

// Dashboard handles GET /admin/ with per-entity counts.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.console.Stats()
	if err != nil {
		serverError(c, "admin", err)
		return
	}
	render(c, http.StatusOK, "admin/index.html", gin.H{"Stats": stats, "Resources": h.console.Resources()})
}

func (h *AdminHandler) resource(c *gin.Context) (admin.Resource, bool) {
	res, ok := h.console.Resource(c.Param("resource"))
	if !ok {
		notFound(c)
	}
	return res, ok
}

// List handles GET /admin/:resource/ with search, filters and paging.
func (h *AdminHandler) List(c *gin.Context) {
	res, ok := h.resource(c)
	if !ok {
		return
	}
	q := admin.ListQuery{
		Search:  strings.TrimSpace(c.Query("q")),
		Filters: make(map[string]string),
		Page:    c.Query("page"),
	}
	for _, f := range res.Filters() {
		q.Filters[f.Param] = c.Query(f.Param)
	}
	listing, err := res.List(q)
	if err != nil {
		serverError(c, "admin", err)
		return
	}
	render(c, http.StatusOK, "admin/list.html", gin.H{
		"Resource":      res,
		"Listing":       listing,
		"Search":        q.Search,
		"ActiveFilters": q.Filters,
		"Page":          listing.Page,
		"Query":         c.Request.URL.Query(),
	})
}

// Action handles POST /admin/:resource/action/ for bulk operations.
func (h *AdminHandler) Action(c *gin.Context) {
	res, ok := h.resource(c)
	if !ok {
		return
	}
	back := "/admin/" + res.Slug() + "/"
	action, ok := res.Action(c.PostForm("action"))
	if !ok {
		middleware.Flash(c, middleware.LevelWarning, "No action selected.")
		c.Redirect(http.StatusFound, back)
		return
	}
	ids := parseIDs(c.PostFormArray("ids"))
	if len(ids) == 0 {
		middleware.Flash(c, middleware.LevelWarning, "Items must be selected in order to perform actions on them. No items have been changed.")
		c.Redirect(http.StatusFound, back)
		return
	}
	n, err := action.Run(c.Request.Context(), actor(c), ids)
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		middleware.Flash(c, middleware.LevelError, firstMessage(verr))
	case err != nil:
		serverError(c, "admin", err)
		return
	default:
		middleware.Flash(c, middleware.LevelSuccess, fmt.Sprintf("%s: %d %s affected.", action.Label, n, strings.ToLower(res.Title())))
	}
	c.Redirect(http.StatusFound, back)
}

// Detail handles GET /admin/:resource/:id/. Reports and users also get an
// edit form.
func (h *AdminHandler) Detail(c *gin.Context) {
	h.renderDetail(c, http.StatusOK, nil, nil)
}

func (h *AdminHandler) renderDetail(c *gin.Context, status int, form, errs map[string]string) {
	res, ok := h.resource(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		notFound(c)
		return
	}
	detail, err := res.Detail(id)
	if isNotFound(err) {
		notFound(c)
		return
	}
	if err != nil {
		serverError(c, "admin", err)
		return
	}
	data := gin.H{"Resource": res, "Detail": detail}
	switch res.Slug() {
	case service.ResourceReports:
		report, err := h.incidents.Get(id, middleware.CurrentUser(c))
		if err != nil {
			serverError(c, "admin", err)
			return
		}
		data["Report"] = report
		if form == nil {
			form = map[string]string{
				"title":         report.Title,
				"category":      report.Category,
				"severity":      report.Severity,
				"description":   report.Description,
				"location_name": report.LocationName,
				"is_verified":   checkbox(report.IsVerified),
			}
		}
	case service.ResourceUsers:
		u, err := h.authSvc.GetUser(id)
		if err != nil {
			serverError(c, "admin", err)
			return
		}
		data["EditUser"] = u
		if form == nil {
			form = map[string]string{"is_verified": checkbox(u.IsVerified), "is_staff": checkbox(u.IsStaff)}
		}
	}
	if form != nil {
		data["Form"] = form
	}
	if errs != nil {
		data["Errors"] = errs
	}
	render(c, status, "admin/detail.html", data)
}

// Update handles POST /admin/:resource/:id/ for the editable resources.
func (h *AdminHandler) Update(c *gin.Context) {
	res, ok := h.resource(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		notFound(c)
		return
	}
	var (
		err    error
		values map[string]string
	)
	switch res.Slug() {
	case service.ResourceReports:
		values = formValues(c, "title", "category", "severity", "description", "location_name", "is_verified")
		var form ReportEditForm
		if err = bindForm(c, &form); err == nil {
			_, err = h.moderation.UpdateReport(actor(c), id, service.ReportEdit{
				Title:        form.Title,
				Category:     form.Category,
				Description:  form.Description,
				Severity:     form.Severity,
				LocationName: form.LocationName,
				IsVerified:   form.IsVerified,
			})
		}
	case service.ResourceUsers:
		values = formValues(c, "is_verified", "is_staff")
		var form UserEditForm
		if err = bindForm(c, &form); err == nil {
			_, err = h.moderation.UpdateUser(actor(c), id, service.UserEdit{IsVerified: form.IsVerified, IsStaff: form.IsStaff})
		}
	default:
		renderError(c, http.StatusMethodNotAllowed, "This record cannot be edited.")
		return
	}
	var verr *service.ValidationError
	switch {
	case isNotFound(err):
		notFound(c)
	case errors.As(err, &verr):
		h.renderDetail(c, http.StatusBadRequest, values, verr.Fields)
	case err != nil:
		serverError(c, "admin", err)
	default:
		middleware.Flash(c, middleware.LevelSuccess, fmt.Sprintf("The %s was changed successfully.", strings.TrimSuffix(strings.ToLower(res.Title()), "s")))
		c.Redirect(http.StatusFound, "/admin/"+res.Slug()+"/"+itoa(id)+"/")
	}
}

func parseIDs(raw []string) []uint {
	ids := make([]uint, 0, len(raw))
	for _, s := range raw {
		if id, err := strconv.ParseUint(s, 10, 64); err == nil && id > 0 {
			ids = append(ids, uint(id))
		}
	}
	return ids
}

func checkbox(b bool) string {
	if b {
		return "1"
	}
	return ""
}

func firstMessage(verr *service.ValidationError) string {
	for _, msg := range verr.Fields {
		return msg
	}
	return "The action could not be completed."
}

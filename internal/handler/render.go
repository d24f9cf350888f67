package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"saferoute/internal/middleware"
	"saferoute/internal/service"

	"github.com/gin-gonic/gin"
)

// render executes a page with the fields every layout needs.
func render(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["User"] = middleware.CurrentUser(c)
	data["Messages"] = middleware.PopMessages(c)
	data["Path"] = c.Request.URL.Path
	if _, ok := data["Form"]; !ok {
		data["Form"] = map[string]string{}
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = map[string]string{}
	}
	c.HTML(status, page, data)
}

func renderError(c *gin.Context, status int, message string) {
	render(c, status, "error.html", gin.H{"Status": status, "Message": message})
}

func notFound(c *gin.Context) {
	renderError(c, http.StatusNotFound, "The page you requested could not be found.")
}

func serverError(c *gin.Context, component string, err error) {
	slog.Error("request failed", "component", component, "path", c.Request.URL.Path, "err", err)
	renderError(c, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}

// renderForm re-renders page with the field errors of err, or fails the
// request when err is not a validation error.
func renderForm(c *gin.Context, component, page string, err error, data gin.H) {
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		serverError(c, component, err)
		return
	}
	if data == nil {
		data = gin.H{}
	}
	data["Errors"] = verr.Fields
	render(c, http.StatusBadRequest, page, data)
}

// idParam parses a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func isNotFound(err error) bool {
	return errors.Is(err, service.ErrNotFound)
}

func actor(c *gin.Context) service.Actor {
	return service.Actor{UserID: middleware.GetUserID(c), IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

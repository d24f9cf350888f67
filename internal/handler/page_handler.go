package handler

import (
	"context"
	"net/http"
	"time"

	"saferoute/internal/middleware"
	"saferoute/internal/service"

	"github.com/gin-gonic/gin"
)

type PageHandler struct {
	feed *service.FeedService
	ping func(ctx context.Context) error
}

// NewPageHandler serves the landing, dashboard and static pages. ping
// backs /healthz and may be nil.
func NewPageHandler(feed *service.FeedService, ping func(ctx context.Context) error) *PageHandler {
	return &PageHandler{feed: feed, ping: ping}
}

func (h *PageHandler) Home(c *gin.Context) {
	render(c, http.StatusOK, "home.html", gin.H{"Feed": h.feed.Home()})
}

func (h *PageHandler) Dashboard(c *gin.Context) {
	render(c, http.StatusOK, "dashboard.html", gin.H{"Dashboard": h.feed.Dashboard(middleware.GetUserID(c))})
}

// Static renders a page that needs no data.
func (h *PageHandler) Static(page string) gin.HandlerFunc {
	return func(c *gin.Context) {
		render(c, http.StatusOK, page, nil)
	}
}

func (h *PageHandler) NotFound(c *gin.Context) {
	notFound(c)
}

func (h *PageHandler) Healthz(c *gin.Context) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

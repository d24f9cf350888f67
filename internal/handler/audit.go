package handler

import (
	"log/slog"
	"strconv"

	"saferoute/internal/models"
	"saferoute/internal/repository"

	"github.com/gin-gonic/gin"
)

// audit records a user action with the request's client details. Failures
// are logged and never fail the request.
func audit(repo *repository.AuditLogRepository, c *gin.Context, userID uint, action, resource string, resourceID uint) {
	if repo == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:    &userID,
		Action:    action,
		Resource:  resource,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if resourceID != 0 {
		entry.ResourceID = strconv.FormatUint(uint64(resourceID), 10)
	}
	if err := repo.Create(entry); err != nil {
		slog.Warn("audit write failed", "component", resource, "action", action, "err", err)
	}
}

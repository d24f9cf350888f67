package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StaffRequired admits staff accounts only. Anonymous visitors go to the
// login page; signed-in non-staff get 403.
func StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			c.Redirect(http.StatusFound, LoginURL(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		if !u.IsStaff {
			c.String(http.StatusForbidden, "staff access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

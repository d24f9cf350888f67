package middleware

import (
	"net/http"
	"net/url"

	"saferoute/config"
	"saferoute/internal/auth"
	"saferoute/internal/models"
	"saferoute/internal/repository"

	"github.com/gin-gonic/gin"
)

const (
	ctxUser   = "user"
	ctxUserID = "user_id"

	// LoginPath is where LoginRequired sends anonymous visitors.
	LoginPath = "/accounts/login/"
)

// Session loads the signed-in user from the session cookie. The user row is
// re-read on every request so revoked staff access takes effect at once.
// An unusable cookie is cleared and the request continues anonymously.
func Session(cfg *config.JWTConfig, users *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cfg.CookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}
		claims, err := auth.ParseSessionToken(cfg, token)
		if err != nil {
			ClearSession(c, cfg)
			c.Next()
			return
		}
		u, err := users.GetByID(claims.UserID)
		if err != nil {
			ClearSession(c, cfg)
			c.Next()
			return
		}
		c.Set(ctxUser, u)
		c.Set(ctxUserID, u.ID)
		c.Next()
	}
}

// StartSession issues a session cookie for u.
func StartSession(c *gin.Context, cfg *config.JWTConfig, u *models.User) error {
	token, err := auth.GenerateSessionToken(cfg, u.ID, u.Username, u.IsStaff)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, token, int(cfg.SessionExpiry.Seconds()), "/", "", cfg.SecureCookie, true)
	c.Set(ctxUser, u)
	c.Set(ctxUserID, u.ID)
	return nil
}

func ClearSession(c *gin.Context, cfg *config.JWTConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.SecureCookie, true)
}

// LoginRequired redirects anonymous visitors to the login page with a next
// parameter pointing back at the requested URL.
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginURL(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

func LoginURL(next string) string {
	if next == "" {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// CurrentUser returns the signed-in user, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// GetUserID returns the signed-in user's ID, or 0.
func GetUserID(c *gin.Context) uint {
	v, _ := c.Get(ctxUserID)
	if v == nil {
		return 0
	}
	return v.(uint)
}

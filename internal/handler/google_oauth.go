package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"saferoute/config"
	"saferoute/internal/middleware"
	"saferoute/internal/repository"
	"saferoute/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	oauthStateCookie = "saferoute_oauth_state"
	oauthNextCookie  = "saferoute_oauth_next"
	oauthCookieTTL   = 600
	googleUserInfo   = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type GoogleOAuthHandler struct {
	cfg         *config.Config
	authSvc     *service.AuthService
	auditRepo   *repository.AuditLogRepository
	endpoint    oauth2.Endpoint
	userInfoURL string
}

func NewGoogleOAuthHandler(cfg *config.Config, authSvc *service.AuthService, auditRepo *repository.AuditLogRepository) *GoogleOAuthHandler {
	return &GoogleOAuthHandler{
		cfg:         cfg,
		authSvc:     authSvc,
		auditRepo:   auditRepo,
		endpoint:    google.Endpoint,
		userInfoURL: googleUserInfo,
	}
}

func (h *GoogleOAuthHandler) Enabled() bool {
	return h.cfg.OAuth.GoogleClientID != ""
}

func (h *GoogleOAuthHandler) OAuth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.cfg.OAuth.GoogleClientID,
		ClientSecret: h.cfg.OAuth.GoogleClientSecret,
		RedirectURL:  h.cfg.OAuth.GoogleRedirectURL,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     h.endpoint,
	}
}

// Redirect sends the visitor to the Google consent screen. The state and
// the post-login path travel in short-lived cookies.
func (h *GoogleOAuthHandler) Redirect(c *gin.Context) {
	if !h.Enabled() {
		renderError(c, http.StatusServiceUnavailable, "Google sign-in is not configured.")
		return
	}
	state := uuid.NewString()
	secure := h.cfg.JWT.SecureCookie
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthCookieTTL, "/accounts/google/", "", secure, true)
	c.SetCookie(oauthNextCookie, safeNext(c.Query("next")), oauthCookieTTL, "/accounts/google/", "", secure, true)
	c.Redirect(http.StatusFound, h.OAuth2Config().AuthCodeURL(state))
}

type googleUserInfoResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// Callback exchanges the code, fetches the profile, then links or creates
// the account and starts a session.
func (h *GoogleOAuthHandler) Callback(c *gin.Context) {
	if !h.Enabled() {
		renderError(c, http.StatusServiceUnavailable, "Google sign-in is not configured.")
		return
	}
	state, _ := c.Cookie(oauthStateCookie)
	next, _ := c.Cookie(oauthNextCookie)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, "", -1, "/accounts/google/", "", h.cfg.JWT.SecureCookie, true)
	c.SetCookie(oauthNextCookie, "", -1, "/accounts/google/", "", h.cfg.JWT.SecureCookie, true)

	code := c.Query("code")
	if code == "" || state == "" || c.Query("state") != state {
		h.fail(c, "Google sign-in was cancelled or expired. Please try again.", nil)
		return
	}
	ctx := c.Request.Context()
	conf := h.OAuth2Config()
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		h.fail(c, "Google sign-in failed. Please try again.", err)
		return
	}
	resp, err := conf.Client(ctx, tok).Get(h.userInfoURL)
	if err != nil {
		h.fail(c, "Google sign-in failed. Please try again.", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		h.fail(c, "Google sign-in failed. Please try again.", fmt.Errorf("userinfo status %d", resp.StatusCode))
		return
	}
	var info googleUserInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		h.fail(c, "Google sign-in failed. Please try again.", err)
		return
	}
	if info.ID == "" || info.Email == "" {
		h.fail(c, "Google did not share an email address for this account.", nil)
		return
	}

	u, created, err := h.authSvc.LoginWithGoogle(service.GoogleProfile{
		ID:         info.ID,
		Email:      info.Email,
		GivenName:  info.GivenName,
		FamilyName: info.FamilyName,
		Picture:    info.Picture,
	})
	if err != nil {
		serverError(c, "oauth", err)
		return
	}
	if err := middleware.StartSession(c, &h.cfg.JWT, u); err != nil {
		serverError(c, "oauth", err)
		return
	}
	action := "google_oauth_login"
	if created {
		action = "google_oauth_register"
	}
	audit(h.auditRepo, c, u.ID, action, "auth", 0)
	middleware.Flash(c, middleware.LevelSuccess, fmt.Sprintf("Welcome back, %s!", u.Username))
	c.Redirect(http.StatusFound, safeNext(next))
}

func (h *GoogleOAuthHandler) fail(c *gin.Context, msg string, err error) {
	if err != nil {
		slog.Warn("google sign-in failed", "component", "oauth", "err", err)
	}
	middleware.Flash(c, middleware.LevelError, msg)
	c.Redirect(http.StatusFound, middleware.LoginPath)
}

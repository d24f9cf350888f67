package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"saferoute/config"
	"saferoute/internal/domain"
	"saferoute/internal/middleware"
	"saferoute/internal/repository"
	"saferoute/internal/service"

	"github.com/gin-gonic/gin"
)

const afterLoginPath = "/dashboard/"

type AuthHandler struct {
	svc           *service.AuthService
	feed          *service.FeedService
	auditRepo     *repository.AuditLogRepository
	jwtCfg        *config.JWTConfig
	googleEnabled bool
}

func NewAuthHandler(svc *service.AuthService, feed *service.FeedService, auditRepo *repository.AuditLogRepository, jwtCfg *config.JWTConfig, googleEnabled bool) *AuthHandler {
	return &AuthHandler{svc: svc, feed: feed, auditRepo: auditRepo, jwtCfg: jwtCfg, googleEnabled: googleEnabled}
}

var registerFields = []string{"username", "email", "first_name", "last_name", "phone"}

func (h *AuthHandler) RegisterPage(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, afterLoginPath)
		return
	}
	render(c, http.StatusOK, "accounts/register.html", nil)
}

func (h *AuthHandler) Register(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, afterLoginPath)
		return
	}
	data := gin.H{"Form": formValues(c, registerFields...)}
	var form RegisterForm
	if err := bindForm(c, &form); err != nil {
		renderForm(c, "auth", "accounts/register.html", err, data)
		return
	}
	doc, err := formFile(c, "id_document")
	if err != nil {
		renderForm(c, "auth", "accounts/register.html", domain.FieldError("id_document", "The uploaded file could not be read."), data)
		return
	}
	u, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		Username:   form.Username,
		Email:      form.Email,
		FirstName:  form.FirstName,
		LastName:   form.LastName,
		Phone:      form.Phone,
		Password1:  form.Password1,
		Password2:  form.Password2,
		IDDocument: doc,
	})
	if err != nil {
		renderForm(c, "auth", "accounts/register.html", err, data)
		return
	}
	h.auditLog(u.ID, "register", c)
	middleware.Flash(c, middleware.LevelSuccess, "Account created successfully! Please login.")
	c.Redirect(http.StatusFound, middleware.LoginPath)
}

func (h *AuthHandler) LoginPage(c *gin.Context) {
	next := c.Query("next")
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, safeNext(next))
		return
	}
	render(c, http.StatusOK, "accounts/login.html", gin.H{"Next": next, "GoogleEnabled": h.googleEnabled})
}

func (h *AuthHandler) Login(c *gin.Context) {
	next := c.PostForm("next")
	data := gin.H{
		"Form":          formValues(c, "username"),
		"Next":          next,
		"GoogleEnabled": h.googleEnabled,
	}
	var form LoginForm
	if err := bindForm(c, &form); err != nil {
		renderForm(c, "auth", "accounts/login.html", err, data)
		return
	}
	u, err := h.svc.Login(form.Username, form.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		renderForm(c, "auth", "accounts/login.html", domain.FieldError("", err.Error()), data)
		return
	}
	if err != nil {
		serverError(c, "auth", err)
		return
	}
	if err := middleware.StartSession(c, h.jwtCfg, u); err != nil {
		serverError(c, "auth", err)
		return
	}
	h.auditLog(u.ID, "login", c)
	middleware.Flash(c, middleware.LevelSuccess, fmt.Sprintf("Welcome back, %s!", u.Username))
	c.Redirect(http.StatusFound, safeNext(form.Next))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if id := middleware.GetUserID(c); id != 0 {
		h.auditLog(id, "logout", c)
	}
	middleware.ClearSession(c, h.jwtCfg)
	middleware.Flash(c, middleware.LevelInfo, "You have been logged out.")
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) Profile(c *gin.Context) {
	h.renderProfile(c, http.StatusOK, nil, nil)
}

func (h *AuthHandler) renderProfile(c *gin.Context, status int, form map[string]string, errs map[string]string) {
	u := middleware.CurrentUser(c)
	if form == nil {
		form = map[string]string{
			"first_name": u.FirstName,
			"last_name":  u.LastName,
			"email":      u.Email,
			"phone":      u.Phone,
		}
	}
	if errs == nil {
		errs = map[string]string{}
	}
	render(c, status, "accounts/profile.html", gin.H{
		"Form":    form,
		"Errors":  errs,
		"Reports": h.feed.UserReports(u.ID, domain.ProfileReportLimit),
	})
}

// UpdateProfile handles both profile forms: the details form carries
// update_profile=1, anything else is a picture upload.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if c.PostForm("update_profile") != "" {
		values := formValues(c, "first_name", "last_name", "email", "phone")
		var form ProfileForm
		err := bindForm(c, &form)
		if err == nil {
			_, err = h.svc.UpdateProfile(userID, service.ProfileInput{
				FirstName: form.FirstName,
				LastName:  form.LastName,
				Email:     form.Email,
				Phone:     form.Phone,
			})
		}
		if err != nil {
			h.profileFailed(c, values, err)
			return
		}
		middleware.Flash(c, middleware.LevelSuccess, "Profile updated successfully!")
		c.Redirect(http.StatusFound, "/accounts/profile/")
		return
	}

	pic, err := formFile(c, "profile_picture")
	if err == nil && pic == nil {
		err = domain.FieldError("profile_picture", "Please choose an image to upload.")
	}
	if err == nil {
		_, err = h.svc.UpdateProfilePicture(c.Request.Context(), userID, *pic)
	}
	if err != nil {
		h.profileFailed(c, nil, err)
		return
	}
	middleware.Flash(c, middleware.LevelSuccess, "Profile picture updated successfully!")
	c.Redirect(http.StatusFound, "/accounts/profile/")
}

func (h *AuthHandler) profileFailed(c *gin.Context, values map[string]string, err error) {
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		serverError(c, "auth", err)
		return
	}
	h.renderProfile(c, http.StatusBadRequest, values, verr.Fields)
}

func (h *AuthHandler) auditLog(userID uint, action string, c *gin.Context) {
	audit(h.auditRepo, c, userID, action, "auth", 0)
}

// safeNext returns next when it is a local absolute path, else the
// dashboard.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return afterLoginPath
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return afterLoginPath
	}
	return next
}

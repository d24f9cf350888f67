package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"saferoute/config"
	"saferoute/internal/auth"
	"saferoute/internal/repository"
	"saferoute/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jwtConfig() *config.JWTConfig {
	return &config.JWTConfig{
		SessionSecret: "test-secret",
		SessionExpiry: time.Hour,
		Issuer:        "saferoute",
		CookieName:    "saferoute_session",
	}
}

func init() { gin.SetMode(gin.TestMode) }

func TestLoginRequired_RedirectsWithNext(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := jwtConfig()
	r := gin.New()
	r.Use(Session(cfg, repository.NewUserRepository(db)))
	r.GET("/dashboard/", LoginRequired(), func(c *gin.Context) {
		c.String(http.StatusOK, "hello %s", CurrentUser(c).Username)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard/?tab=zones", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/accounts/login/?next=%2Fdashboard%2F%3Ftab%3Dzones", w.Header().Get("Location"))

	u := testutil.CreateUser(t, db, "alice", false)
	token, err := auth.GenerateSessionToken(cfg, u.ID, u.Username, false)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/dashboard/", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: token})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello alice", w.Body.String())
}

func TestSession_BadCookieIsCleared(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := jwtConfig()
	r := gin.New()
	r.Use(Session(cfg, repository.NewUserRepository(db)))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "%d", GetUserID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: "garbage"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "0", w.Body.String())
	assert.Contains(t, w.Header().Get("Set-Cookie"), cfg.CookieName+"=;")
}

func TestStaffRequired(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := jwtConfig()
	r := gin.New()
	r.Use(Session(cfg, repository.NewUserRepository(db)))
	r.GET("/admin/", StaffRequired(), func(c *gin.Context) { c.String(http.StatusOK, "console") })

	get := func(username string, staff bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
		if username != "" {
			u := testutil.CreateUser(t, db, username, staff)
			token, err := auth.GenerateSessionToken(cfg, u.ID, u.Username, staff)
			require.NoError(t, err)
			req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: token})
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}
	assert.Equal(t, http.StatusFound, get("", false).Code)
	assert.Equal(t, http.StatusForbidden, get("bob", false).Code)
	assert.Equal(t, http.StatusOK, get("mod", true).Code)
}

func TestFlash_SurvivesRedirect(t *testing.T) {
	cfg := jwtConfig()
	r := gin.New()
	r.Use(Messages(cfg))
	r.POST("/save", func(c *gin.Context) {
		Flash(c, LevelSuccess, "Zone saved successfully!")
		c.Redirect(http.StatusFound, "/next")
	})
	r.GET("/next", func(c *gin.Context) {
		msgs := PopMessages(c)
		require.Len(t, msgs, 1)
		c.String(http.StatusOK, msgs[0].Level+":"+msgs[0].Text)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/save", nil))
	require.Equal(t, http.StatusFound, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/next", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "success:Zone saved successfully!", w.Body.String())
	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, "", cleared[0].Value)
}

func TestMemoryLimiter_PerKeyBurst(t *testing.T) {
	l := NewMemoryLimiter(1, 2)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "1.1.1.1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "1.1.1.1")
	assert.False(t, ok)
	ok, _ = l.Allow(ctx, "2.2.2.2")
	assert.True(t, ok)

	fixed = fixed.Add(time.Second)
	ok, _ = l.Allow(ctx, "1.1.1.1")
	assert.True(t, ok)

	fixed = fixed.Add(10 * time.Minute)
	_, _ = l.Allow(ctx, "3.3.3.3")
	assert.Len(t, l.visitors, 1)
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.GET("/limited", RateLimit(NewMemoryLimiter(0.001, 1), nil), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/open", RateLimit(brokenLimiter{}, nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := []int{}
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("SAFEROUTE_TEST_REDIS")
	if addr == "" {
		t.Skip("SAFEROUTE_TEST_REDIS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	l := NewRedisLimiter(client, 0.001, 2)
	key := "test-" + time.Now().Format(time.RFC3339Nano)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

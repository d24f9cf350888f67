package router

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"saferoute/config"
	"saferoute/internal/models"
	"saferoute/internal/observability"
	"saferoute/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var baseURL, _ = url.Parse("http://saferoute.test")

type app struct {
	t       *testing.T
	db      *gorm.DB
	cfg     *config.Config
	media   *testutil.MemoryStore
	metrics *observability.Metrics
	engine  *gin.Engine
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Env: "test", TimeZone: "UTC"},
		JWT: config.JWTConfig{
			SessionSecret: "test-session-secret",
			SessionExpiry: time.Hour,
			Issuer:        "saferoute",
			CookieName:    "saferoute_session",
		},
		Media:     config.MediaConfig{Backend: "memory", URL: "/media/"},
		Telemetry: config.TelemetryConfig{ServiceName: "saferoute-test", TraceExporter: "none"},
	}
}

func newApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)
	a := &app{
		t:       t,
		db:      testutil.NewDB(t),
		cfg:     testConfig(),
		media:   testutil.NewMemoryStore(),
		metrics: observability.NewMetrics(),
	}
	engine, err := Setup(a.cfg, a.db, a.media, nil, a.metrics)
	require.NoError(t, err)
	a.engine = engine
	return a
}

// client is a browser session against the app: it keeps cookies between
// requests.
type client struct {
	a   *app
	jar *cookiejar.Jar
}

func (a *app) client() *client {
	jar, err := cookiejar.New(nil)
	require.NoError(a.t, err)
	return &client{a: a, jar: jar}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.a.t.Helper()
	target := baseURL.ResolveReference(req.URL)
	for _, ck := range c.jar.Cookies(target) {
		req.AddCookie(ck)
	}
	req.RemoteAddr = "192.0.2.1:1234"
	w := httptest.NewRecorder()
	c.a.engine.ServeHTTP(w, req)
	c.jar.SetCookies(target, w.Result().Cookies())
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

type file struct {
	field, name, contentType string
	body                     []byte
}

func (c *client) postMultipart(path string, form url.Values, files ...file) *httptest.ResponseRecorder {
	c.a.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vals := range form {
		for _, v := range vals {
			require.NoError(c.a.t, mw.WriteField(k, v))
		}
	}
	for _, f := range files {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{`form-data; name="` + f.field + `"; filename="` + f.name + `"`}
		h["Content-Type"] = []string{f.contentType}
		part, err := mw.CreatePart(h)
		require.NoError(c.a.t, err)
		_, err = part.Write(f.body)
		require.NoError(c.a.t, err)
	}
	require.NoError(c.a.t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

// follow GETs the redirect target of w.
func (c *client) follow(w *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	c.a.t.Helper()
	require.Equal(c.a.t, http.StatusFound, w.Code, w.Body.String())
	return c.get(w.Header().Get("Location"))
}

// login signs in as a user created by testutil.CreateUser.
func (c *client) login(username string) {
	c.a.t.Helper()
	w := c.post("/accounts/login/", url.Values{"username": {username}, "password": {testutil.Password}})
	require.Equal(c.a.t, http.StatusFound, w.Code, w.Body.String())
	// Drain the welcome message so it does not leak into later assertions.
	c.follow(w)
}

func (a *app) user(username string, staff bool) *models.User {
	return testutil.CreateUser(a.t, a.db, username, staff)
}

type exported struct {
	Incidents []struct {
		ID           uint    `json:"id"`
		Title        string  `json:"title"`
		Category     string  `json:"category"`
		Severity     string  `json:"severity"`
		Latitude     float64 `json:"latitude"`
		Longitude    float64 `json:"longitude"`
		LocationName string  `json:"location_name"`
		IncidentDate string  `json:"incident_date"`
	} `json:"incidents"`
}

func (c *client) export() exported {
	c.a.t.Helper()
	w := c.get("/api/incidents/")
	require.Equal(c.a.t, http.StatusOK, w.Code)
	var out exported
	require.NoError(c.a.t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

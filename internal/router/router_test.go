package router

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"saferoute/internal/domain"
	"saferoute/internal/models"
	"saferoute/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func incidentForm() url.Values {
	return url.Values{
		"title":         {"Mugging near 5th Ave"},
		"category":      {"assault"},
		"description":   {"Two people grabbed a bag."},
		"severity":      {"high"},
		"latitude":      {"40.73"},
		"longitude":     {"-73.99"},
		"location_name": {"5th Ave"},
		"incident_date": {"2024-01-01T10:00"},
	}
}

func TestSubmitThenVerifyScenario(t *testing.T) {
	a := newApp(t)
	a.user("alice", false)
	a.user("mod", true)

	alice := a.client()
	alice.login("alice")
	w := alice.postMultipart("/submit/", incidentForm(), file{"images[]", "suspect.jpg", "image/jpeg", []byte("jpeg")})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	var report models.IncidentReport
	require.NoError(t, a.db.Preload("Images").First(&report).Error)
	assert.Equal(t, report.URL(), w.Header().Get("Location"))
	page := alice.follow(w)
	assert.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Incident report submitted successfully! It will be reviewed before being made public.")
	assert.Contains(t, page.Body.String(), "Pending review")
	assert.False(t, report.IsVerified)
	require.Len(t, report.Images, 1)
	assert.Equal(t, domain.ImageTypeEvidence, report.Images[0].ImageType)
	assert.True(t, report.Images[0].IsBlurred)
	assert.True(t, a.media.Has(report.Images[0].Image))

	anon := a.client()
	assert.Empty(t, anon.export().Incidents)

	mod := a.client()
	mod.login("mod")
	w = mod.post("/admin/reports/action/", url.Values{"action": {"verify"}, "ids": {fmt.Sprint(report.ID)}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, mod.follow(w).Body.String(), "1 incident reports affected")

	out := anon.export()
	require.Len(t, out.Incidents, 1)
	got := out.Incidents[0]
	assert.Equal(t, report.ID, got.ID)
	assert.Equal(t, "high", got.Severity)
	assert.Equal(t, "assault", got.Category)
	assert.InDelta(t, 40.73, got.Latitude, 1e-9)
	assert.InDelta(t, -73.99, got.Longitude, 1e-9)
	assert.Equal(t, "2024-01-01T10:00:00Z", got.IncidentDate)
}

func TestSubmitValidation(t *testing.T) {
	a := newApp(t)
	a.user("alice", false)
	c := a.client()
	c.login("alice")

	form := incidentForm()
	form.Del("incident_date")
	w := c.postMultipart("/submit/", form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "This field is required.")
	assert.Contains(t, w.Body.String(), `value="Mugging near 5th Ave"`)

	form = incidentForm()
	form.Set("latitude", "123")
	form.Set("incident_date", "yesterday")
	w = c.postMultipart("/submit/", form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Enter a valid latitude between -90 and 90.")

	form = incidentForm()
	form.Set("incident_date", "yesterday")
	w = c.postMultipart("/submit/", form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Enter a valid date/time.")

	form = incidentForm()
	form.Set("category", "arson")
	w = c.postMultipart("/submit/", form)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var n int64
	a.db.Model(&models.IncidentReport{}).Count(&n)
	assert.Zero(t, n)
}

func TestLoginGate(t *testing.T) {
	a := newApp(t)
	c := a.client()
	for _, path := range []string{"/dashboard/", "/submit/", "/save-zone/", "/community/", "/accounts/profile/"} {
		w := c.get(path)
		require.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/accounts/login/?next="+url.QueryEscape(path), w.Header().Get("Location"))
	}
	w := c.post("/reports/1/helpful/", nil)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestLoginAndLogout(t *testing.T) {
	a := newApp(t)
	a.user("alice", false)
	c := a.client()

	w := c.post("/accounts/login/", url.Values{"username": {"alice"}, "password": {"wrong-password"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid username or password.")
	w = c.post("/accounts/login/", url.Values{"username": {"nobody"}, "password": {"wrong-password"}})
	assert.Contains(t, w.Body.String(), "Invalid username or password.")

	w = c.post("/accounts/login/", url.Values{"username": {"alice"}, "password": {testutil.Password}, "next": {"/save-zone/"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/save-zone/", w.Header().Get("Location"))
	assert.Contains(t, c.follow(w).Body.String(), "Welcome back, alice!")

	var logs []models.AuditLog
	require.NoError(t, a.db.Where("action = ?", "login").Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "192.0.2.1", logs[0].IP)

	w = c.post("/accounts/logout/", nil)
	require.Equal(t, http.StatusFound, w.Code)
	w = c.get("/dashboard/")
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestLoginIgnoresForeignNext(t *testing.T) {
	a := newApp(t)
	a.user("alice", false)
	c := a.client()
	w := c.post("/accounts/login/", url.Values{"username": {"alice"}, "password": {testutil.Password}, "next": {"//evil.example/"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard/", w.Header().Get("Location"))
}

func TestRegister(t *testing.T) {
	a := newApp(t)
	c := a.client()
	form := url.Values{
		"username":   {"newbie"},
		"email":      {"newbie@example.com"},
		"first_name": {"New"},
		"last_name":  {"Bie"},
		"phone":      {"+1 555 0100"},
		"password1":  {"correct-horse"},
		"password2":  {"correct-horse"},
	}
	w := c.postMultipart("/accounts/register/", form, file{"id_document", "id.png", "image/png", []byte("png")})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/accounts/login/", w.Header().Get("Location"))
	assert.Contains(t, c.follow(w).Body.String(), "Account created successfully! Please login.")

	var u models.User
	require.NoError(t, a.db.Where("username = ?", "newbie").First(&u).Error)
	assert.False(t, u.IsVerified)
	assert.NotEmpty(t, u.IDDocument)

	w = c.postMultipart("/accounts/register/", form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "A user with that username already exists.")

	form.Set("username", "other")
	form.Set("password2", "different")
	form.Set("email", "not-an-email")
	w = c.postMultipart("/accounts/register/", form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Enter a valid email address.")

	form.Set("username", "badfile")
	form.Set("email", "badfile@example.com")
	form.Set("password2", "correct-horse")
	w = c.postMultipart("/accounts/register/", form, file{"id_document", "payload.exe", "application/x-msdownload", []byte("MZ")})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Upload a valid image.")
	assert.Equal(t, []string{u.IDDocument}, a.media.Refs())
}

func TestRegisterRedirectsSignedInUsers(t *testing.T) {
	a := newApp(t)
	a.user("alice", false)
	c := a.client()
	c.login("alice")

	w := c.get("/accounts/register/")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard/", w.Header().Get("Location"))

	w = c.postMultipart("/accounts/register/", url.Values{"username": {"second"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard/", w.Header().Get("Location"))
	var n int64
	a.db.Model(&models.User{}).Count(&n)
	assert.EqualValues(t, 1, n)
}

func TestProfileUpdates(t *testing.T) {
	a := newApp(t)
	u := a.user("alice", false)
	c := a.client()
	c.login("alice")

	w := c.post("/accounts/profile/", url.Values{"update_profile": {"1"}, "first_name": {"Alice"}, "last_name": {"Liddell"}, "email": {"alice@wonder.land"}, "phone": {"123"}})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Contains(t, c.follow(w).Body.String(), "Profile updated successfully!")

	w = c.postMultipart("/accounts/profile/", nil, file{"profile_picture", "me.jpg", "image/jpeg", []byte("jpeg")})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Contains(t, c.follow(w).Body.String(), "Profile picture updated successfully!")

	var got models.User
	require.NoError(t, a.db.First(&got, u.ID).Error)
	assert.Equal(t, "Alice", got.FirstName)
	assert.Equal(t, "alice@wonder.land", got.Email)
	assert.NotEmpty(t, got.ProfilePicture)
	assert.False(t, got.IsVerified)

	w = c.postMultipart("/accounts/profile/", nil, file{"profile_picture", "notes.txt", "text/plain", []byte("x")})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportDetailVisibility(t *testing.T) {
	a := newApp(t)
	alice := a.user("alice", false)
	a.user("bob", false)
	pending := testutil.CreateReport(t, a.db, alice.ID)
	public := testutil.CreateReport(t, a.db, alice.ID, testutil.Verified)

	anon := a.client()
	assert.Equal(t, http.StatusNotFound, anon.get(fmt.Sprintf("/reports/%d/", pending.ID)).Code)
	assert.Equal(t, http.StatusOK, anon.get(fmt.Sprintf("/reports/%d/", public.ID)).Code)
	assert.Equal(t, http.StatusNotFound, anon.get("/reports/9999/").Code)
	assert.Equal(t, http.StatusNotFound, anon.get("/reports/abc/").Code)

	bob := a.client()
	bob.login("bob")
	assert.Equal(t, http.StatusNotFound, bob.get(fmt.Sprintf("/reports/%d/", pending.ID)).Code)

	owner := a.client()
	owner.login("alice")
	w := owner.get(fmt.Sprintf("/reports/%d/", pending.ID))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Pending review")
}

func TestHelpfulIsIdempotent(t *testing.T) {
	a := newApp(t)
	owner := a.user("alice", false)
	a.user("bob", false)
	r := testutil.CreateReport(t, a.db, owner.ID, testutil.Verified)
	path := fmt.Sprintf("/reports/%d/helpful/", r.ID)

	c := a.client()
	c.login("bob")
	w := c.post(path, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, r.URL(), w.Header().Get("Location"))
	assert.Contains(t, c.follow(w).Body.String(), "Thank you for marking this report as helpful!")

	w = c.post(path, nil)
	require.Equal(t, http.StatusFound, w.Code)
	page := c.follow(w).Body.String()
	assert.Contains(t, page, "You have already marked this report as helpful.")
	assert.Contains(t, page, "1 people found this helpful.")

	var got models.IncidentReport
	require.NoError(t, a.db.First(&got, r.ID).Error)
	assert.Equal(t, 1, got.HelpfulCount)

	assert.Equal(t, http.StatusNotFound, c.post("/reports/9999/helpful/", nil).Code)
}

func TestPublicListingsHideUnverified(t *testing.T) {
	a := newApp(t)
	u := a.user("alice", false)
	hidden := testutil.CreateReport(t, a.db, u.ID, testutil.WithSeverity(domain.SeverityHigh))
	testutil.CreateImage(t, a.db, hidden.ID, domain.ImageTypeSuspect)
	shown := testutil.CreateReport(t, a.db, u.ID, testutil.Verified)

	c := a.client()
	ids := []uint{}
	for _, inc := range c.export().Incidents {
		ids = append(ids, inc.ID)
	}
	assert.Equal(t, []uint{shown.ID}, ids)

	for _, path := range []string{"/", "/heatmap/", "/heatmap/?severity=high", "/gallery/?type=suspect"} {
		w := c.get(path)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.NotContains(t, w.Body.String(), hidden.Title, path)
	}
	assert.Contains(t, c.get("/").Body.String(), shown.Title)
}

func TestHeatmapFilters(t *testing.T) {
	a := newApp(t)
	u := a.user("alice", false)
	fraud := testutil.CreateReport(t, a.db, u.ID, testutil.Verified, testutil.WithCategory(domain.CategoryFraud))
	old := testutil.CreateReport(t, a.db, u.ID, testutil.Verified, testutil.CreatedAt(time.Now().AddDate(0, 0, -60)))

	c := a.client()
	body := c.get("/heatmap/?category=fraud").Body.String()
	assert.Contains(t, body, fraud.Title)
	assert.NotContains(t, body, old.Title)
	assert.Contains(t, body, `data-live="false"`)

	body = c.get("/heatmap/?time=month").Body.String()
	assert.Contains(t, body, fraud.Title)
	assert.NotContains(t, body, old.Title)

	body = c.get("/heatmap/").Body.String()
	assert.Contains(t, body, old.Title)
	assert.Contains(t, body, `data-live="true"`)
}

func TestGalleryPaging(t *testing.T) {
	a := newApp(t)
	u := a.user("alice", false)
	theft := testutil.CreateReport(t, a.db, u.ID, testutil.Verified, testutil.WithCategory(domain.CategoryTheft))
	fraud := testutil.CreateReport(t, a.db, u.ID, testutil.Verified, testutil.WithCategory(domain.CategoryFraud))
	for i := 0; i < 15; i++ {
		testutil.CreateImage(t, a.db, theft.ID, domain.ImageTypeSuspect)
	}
	testutil.CreateImage(t, a.db, theft.ID, domain.ImageTypeLocation)
	testutil.CreateImage(t, a.db, fraud.ID, domain.ImageTypeSuspect)

	c := a.client()
	first := c.get("/gallery/?type=suspect&category=theft").Body.String()
	assert.Equal(t, 12, strings.Count(first, "<figure>"))
	assert.Contains(t, first, "Page 1 of 2")
	assert.Contains(t, first, "page=2")

	second := c.get("/gallery/?type=suspect&category=theft&page=2").Body.String()
	assert.Equal(t, 3, strings.Count(second, "<figure>"))
	assert.NotContains(t, second, fraud.Title)

	stale := c.get("/gallery/?type=suspect&category=theft&page=99").Body.String()
	assert.Contains(t, stale, "Page 2 of 2")
	junk := c.get("/gallery/?type=suspect&category=theft&page=abc").Body.String()
	assert.Contains(t, junk, "Page 1 of 2")
}

func TestSaveZone(t *testing.T) {
	a := newApp(t)
	u := a.user("alice", false)
	testutil.CreateReport(t, a.db, u.ID, testutil.Verified, testutil.At(40.7301, -73.9901))
	c := a.client()
	c.login("alice")

	form := url.Values{"name": {"Home"}, "latitude": {"40.73"}, "longitude": {"-73.99"}, "radius": {"20"}}
	w := c.post("/save-zone/", form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Radius must be between 0.1 and 10 km.")

	form.Set("radius", "0.5")
	w = c.post("/save-zone/", form)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/dashboard/", w.Header().Get("Location"))
	dash := c.follow(w).Body.String()
	assert.Contains(t, dash, "Zone saved successfully!")
	assert.Contains(t, dash, "Home")
	assert.Contains(t, dash, "0.50 km")

	w = c.post("/save-zone/", form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "You already have a zone with this name.")

	heat := c.get("/heatmap/").Body.String()
	assert.Contains(t, heat, `"name":"Home"`)
}

func TestCommunityFlow(t *testing.T) {
	a := newApp(t)
	a.user("alice", false)
	c := a.client()
	c.login("alice")

	w := c.post("/community/new/", url.Values{"title": {""}, "content": {"body"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/community/", w.Header().Get("Location"))
	assert.Contains(t, c.follow(w).Body.String(), "Please fill in all required fields.")

	w = c.post("/community/new/", url.Values{"title": {"Dark alley on Pine St"}, "content": {"Avoid after 10pm"}, "category": {"areas_to_avoid"}})
	require.Equal(t, http.StatusFound, w.Code)
	list := c.follow(w).Body.String()
	assert.Contains(t, list, "Discussion post created successfully!")
	assert.Contains(t, list, "Dark alley on Pine St")

	var d models.CommunityDiscussion
	require.NoError(t, a.db.First(&d).Error)
	assert.Equal(t, domain.DiscussionAreasToAvoid, d.Category)
	detail := fmt.Sprintf("/community/%d/", d.ID)

	w = c.post(detail, url.Values{"reply_content": {""}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.post(detail, url.Values{"reply_content": {"Thanks for the heads up"}})
	require.Equal(t, http.StatusFound, w.Code)
	page := c.follow(w).Body.String()
	assert.Contains(t, page, "Reply posted successfully!")
	assert.Contains(t, page, "Thanks for the heads up")
	assert.Contains(t, page, "1 replies")

	assert.Equal(t, http.StatusNotFound, c.get("/community/9999/").Code)
	assert.Equal(t, http.StatusNotFound, c.post("/community/9999/", url.Values{"reply_content": {"x"}}).Code)

	filtered := c.get("/community/?category=lost_found").Body.String()
	assert.NotContains(t, filtered, "Dark alley on Pine St")
}

func TestAdminAccess(t *testing.T) {
	a := newApp(t)
	a.user("alice", false)
	a.user("mod", true)

	anon := a.client()
	w := anon.get("/admin/")
	assert.Equal(t, http.StatusFound, w.Code)

	user := a.client()
	user.login("alice")
	assert.Equal(t, http.StatusForbidden, user.get("/admin/").Code)
	assert.Equal(t, http.StatusForbidden, user.post("/admin/reports/action/", url.Values{"action": {"verify"}, "ids": {"1"}}).Code)

	mod := a.client()
	mod.login("mod")
	w = mod.get("/admin/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Incident reports")
	assert.Equal(t, http.StatusNotFound, mod.get("/admin/payments/").Code)
}

func TestAdminListSearchAndEdit(t *testing.T) {
	a := newApp(t)
	alice := a.user("alice", false)
	mod := a.user("mod", true)
	r := testutil.CreateReport(t, a.db, alice.ID, testutil.WithCategory(domain.CategoryFraud))
	testutil.CreateReport(t, a.db, alice.ID)

	c := a.client()
	c.login("mod")
	list := c.get("/admin/reports/?q=" + url.QueryEscape(r.Title) + "&category=fraud").Body.String()
	assert.Contains(t, list, r.Title)
	assert.Contains(t, list, "1 Incident reports")

	detailPath := fmt.Sprintf("/admin/reports/%d/", r.ID)
	w := c.get(detailPath)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Edit report")

	w = c.post(detailPath, url.Values{"title": {""}, "category": {"fraud"}, "severity": {"low"}, "description": {"x"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.post(detailPath, url.Values{"title": {"Edited"}, "category": {"fraud"}, "severity": {"low"}, "description": {"Scam call"}, "is_verified": {"1"}})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Contains(t, c.follow(w).Body.String(), "The incident report was changed successfully.")
	var got models.IncidentReport
	require.NoError(t, a.db.First(&got, r.ID).Error)
	assert.True(t, got.IsVerified)
	assert.Equal(t, "Edited", got.Title)

	w = c.post(fmt.Sprintf("/admin/users/%d/", mod.ID), url.Values{"is_verified": {"1"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "You cannot remove your own staff access.")

	w = c.post(fmt.Sprintf("/admin/users/%d/", alice.ID), url.Values{"is_verified": {"1"}})
	require.Equal(t, http.StatusFound, w.Code)
	var u models.User
	require.NoError(t, a.db.First(&u, alice.ID).Error)
	assert.True(t, u.IsVerified)

	var audits int64
	a.db.Model(&models.AuditLog{}).Where("action LIKE ?", "admin_%").Count(&audits)
	assert.EqualValues(t, 2, audits)
}

func TestAdminBulkDelete(t *testing.T) {
	a := newApp(t)
	alice := a.user("alice", false)
	mod := a.user("mod", true)
	r := testutil.CreateReport(t, a.db, alice.ID, testutil.Verified)

	c := a.client()
	c.login("mod")

	w := c.post("/admin/users/action/", url.Values{"action": {"delete"}, "ids": {fmt.Sprint(mod.ID)}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.NotContains(t, c.follow(w).Body.String(), "affected")

	w = c.post("/admin/reports/action/", url.Values{"action": {"delete"}})
	assert.Contains(t, c.follow(w).Body.String(), "Items must be selected")

	w = c.post("/admin/reports/action/", url.Values{"action": {"delete"}, "ids": {fmt.Sprint(r.ID)}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Empty(t, c.export().Incidents)
}

func TestStaticPagesAndOps(t *testing.T) {
	a := newApp(t)
	c := a.client()
	for _, path := range []string{"/", "/heatmap/", "/gallery/", "/safety-tips/", "/privacy-policy/", "/terms/", "/about/", "/accounts/login/", "/accounts/register/", "/static/css/site.css", "/static/js/heatmap.js"} {
		assert.Equal(t, http.StatusOK, c.get(path).Code, path)
	}
	assert.Equal(t, http.StatusNotFound, c.get("/no-such-page/").Code)
	assert.Equal(t, http.StatusServiceUnavailable, c.get("/accounts/google/").Code)

	w := c.get("/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	metrics := c.get("/metrics").Body.String()
	assert.Contains(t, metrics, `saferoute_http_requests_total{method="GET",route="/healthz",status="200"}`)
}

// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"saferoute/config"
	"saferoute/internal/database"
	"saferoute/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewDB returns a migrated SQLite database in a per-test temp dir.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewDB(&config.DatabaseConfig{
		Driver:          "sqlite",
		DSN:             filepath.Join(t.TempDir(), "saferoute.db"),
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Hour,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Password is the plaintext password of every user made by CreateUser.
const Password = "s3cure-pass"

var passwordHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}()

// CreateUser inserts a user with the shared test password.
func CreateUser(t *testing.T, db *gorm.DB, username string, staff bool) *models.User {
	t.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    "Test",
		LastName:     username,
		PasswordHash: passwordHash,
		IsStaff:      staff,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// ReportOption customizes a report made by CreateReport.
type ReportOption func(*models.IncidentReport)

func Verified(r *models.IncidentReport) { r.IsVerified = true }

func WithCategory(c string) ReportOption {
	return func(r *models.IncidentReport) { r.Category = c }
}

func WithSeverity(s string) ReportOption {
	return func(r *models.IncidentReport) { r.Severity = s }
}

func CreatedAt(ts time.Time) ReportOption {
	return func(r *models.IncidentReport) { r.CreatedAt = ts.UTC() }
}

func At(lat, lng float64) ReportOption {
	return func(r *models.IncidentReport) { r.Latitude, r.Longitude = lat, lng }
}

var reportSeq int

// CreateReport inserts an unverified theft report owned by userID.
func CreateReport(t *testing.T, db *gorm.DB, userID uint, opts ...ReportOption) *models.IncidentReport {
	t.Helper()
	reportSeq++
	r := &models.IncidentReport{
		UserID:       userID,
		Title:        fmt.Sprintf("Report %d", reportSeq),
		Category:     "theft",
		Description:  "Phone snatched",
		Severity:     "moderate",
		Latitude:     40.73,
		Longitude:    -73.99,
		LocationName: "5th Ave",
		IncidentDate: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
	for _, o := range opts {
		o(r)
	}
	require.NoError(t, db.Omit("User").Create(r).Error)
	return r
}

// CreateImage attaches an image of imageType to reportID.
func CreateImage(t *testing.T, db *gorm.DB, reportID uint, imageType string) *models.IncidentImage {
	t.Helper()
	img := &models.IncidentImage{
		ReportID:  reportID,
		Image:     fmt.Sprintf("incident_images/%d-%s.jpg", reportID, imageType),
		ImageType: imageType,
		IsBlurred: true,
	}
	require.NoError(t, db.Omit("Report").Create(img).Error)
	return img
}

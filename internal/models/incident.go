package models

import (
	"fmt"
	"time"

	"saferoute/internal/domain"
)

type IncidentReport struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	Category     string    `gorm:"size:20;not null;index" json:"category"`
	Description  string    `gorm:"type:text" json:"description"`
	Severity     string    `gorm:"size:10;not null;index" json:"severity"`
	Latitude     float64   `gorm:"type:decimal(9,6);not null" json:"latitude"`
	Longitude    float64   `gorm:"type:decimal(9,6);not null" json:"longitude"`
	LocationName string    `gorm:"size:200" json:"location_name"`
	IncidentDate time.Time `gorm:"not null" json:"incident_date"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	IsVerified   bool      `gorm:"not null;index" json:"is_verified"`
	HelpfulCount int       `gorm:"not null" json:"helpful_count"`
	AbuseReports int       `gorm:"not null" json:"abuse_reports"`

	User   User            `gorm:"foreignKey:UserID" json:"-"`
	Images []IncidentImage `gorm:"foreignKey:ReportID" json:"images,omitempty"`
	Videos []IncidentVideo `gorm:"foreignKey:ReportID" json:"videos,omitempty"`
	Audio  []IncidentAudio `gorm:"foreignKey:ReportID" json:"audio,omitempty"`
}

func (IncidentReport) TableName() string {
	return "incident_reports"
}

func (r *IncidentReport) CategoryLabel() string { return domain.Label(domain.IncidentCategories, r.Category) }
func (r *IncidentReport) SeverityLabel() string { return domain.Label(domain.Severities, r.Severity) }

func (r *IncidentReport) URL() string { return fmt.Sprintf("/reports/%d/", r.ID) }

// IncidentMarker is the public map projection of a verified report.
type IncidentMarker struct {
	ID           uint    `json:"id"`
	Title        string  `json:"title"`
	Category     string  `json:"category"`
	Severity     string  `json:"severity"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	LocationName string  `json:"location_name"`
	IncidentDate string  `json:"incident_date"`
	URL          string  `json:"url,omitempty"`
}

// Marker projects the report for /api/incidents/ and the live map. Category
// is the raw choice value.
func (r *IncidentReport) Marker() IncidentMarker {
	return IncidentMarker{
		ID:           r.ID,
		Title:        r.Title,
		Category:     r.Category,
		Severity:     r.Severity,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		LocationName: r.LocationName,
		IncidentDate: r.IncidentDate.Format(time.RFC3339),
	}
}

// HeatmapPoint is Marker with the category's display label and a detail link.
func (r *IncidentReport) HeatmapPoint() IncidentMarker {
	m := r.Marker()
	m.Category = r.CategoryLabel()
	m.URL = r.URL()
	return m
}

type IncidentImage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ReportID    uint      `gorm:"not null;index" json:"report_id"`
	Image       string    `gorm:"size:512;not null" json:"image"`
	ImageType   string    `gorm:"size:20;not null;index" json:"image_type"`
	IsBlurred   bool      `gorm:"not null" json:"is_blurred"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`

	Report *IncidentReport `gorm:"foreignKey:ReportID" json:"-"`
}

func (IncidentImage) TableName() string {
	return "incident_images"
}

func (i *IncidentImage) TypeLabel() string { return domain.Label(domain.ImageTypes, i.ImageType) }

type IncidentVideo struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ReportID    uint      `gorm:"not null;index" json:"report_id"`
	Video       string    `gorm:"size:512;not null" json:"video"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`

	Report *IncidentReport `gorm:"foreignKey:ReportID" json:"-"`
}

func (IncidentVideo) TableName() string {
	return "incident_videos"
}

type IncidentAudio struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ReportID    uint      `gorm:"not null;index" json:"report_id"`
	Audio       string    `gorm:"size:512;not null" json:"audio"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`

	Report *IncidentReport `gorm:"foreignKey:ReportID" json:"-"`
}

func (IncidentAudio) TableName() string {
	return "incident_audio"
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"saferoute/internal/domain"
	"saferoute/internal/models"
	"saferoute/internal/observability"
	"saferoute/internal/repository"
	"saferoute/pkg/mediastore"
)

// Accepted incident_date layouts, tried in order. The first three carry no
// zone and are read in the configured location.
var incidentDateLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

// ParseIncidentDate reads a datetime-local style value in loc.
func ParseIncidentDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range incidentDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

type SubmitInput struct {
	Title        string
	Category     string
	Description  string
	Severity     string
	Latitude     float64
	Longitude    float64
	LocationName string
	IncidentDate time.Time
	ImageType    string
	Images       []Upload
	Videos       []Upload
	Audio        []Upload
}

type IncidentService struct {
	incidentRepo *repository.IncidentRepository
	helpfulRepo  *repository.HelpfulRepository
	media        mediastore.Store
	metrics      *observability.Metrics
}

func NewIncidentService(incidentRepo *repository.IncidentRepository, helpfulRepo *repository.HelpfulRepository, media mediastore.Store, metrics *observability.Metrics) *IncidentService {
	return &IncidentService{incidentRepo: incidentRepo, helpfulRepo: helpfulRepo, media: media, metrics: metrics}
}

func validateSubmit(in *SubmitInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.LocationName = strings.TrimSpace(in.LocationName)
	if in.ImageType == "" {
		in.ImageType = domain.ImageTypeEvidence
	}

	verr := domain.NewValidationError()
	switch {
	case in.Title == "":
		verr.Add("title", msgRequired)
	case len([]rune(in.Title)) > 200:
		verr.Add("title", "Ensure this value has at most 200 characters.")
	}
	if !domain.Valid(domain.IncidentCategories, in.Category) {
		verr.Add("category", msgInvalidChoice)
	}
	if in.Description == "" {
		verr.Add("description", msgRequired)
	}
	if !domain.Valid(domain.Severities, in.Severity) {
		verr.Add("severity", msgInvalidChoice)
	}
	if in.Latitude < -90 || in.Latitude > 90 {
		verr.Add("latitude", "Ensure this value is between -90 and 90.")
	}
	if in.Longitude < -180 || in.Longitude > 180 {
		verr.Add("longitude", "Ensure this value is between -180 and 180.")
	}
	if len([]rune(in.LocationName)) > 200 {
		verr.Add("location_name", "Ensure this value has at most 200 characters.")
	}
	if in.IncidentDate.IsZero() {
		verr.Add("incident_date", msgRequired)
	}
	if !domain.Valid(domain.ImageTypes, in.ImageType) {
		verr.Add("image_type", msgInvalidChoice)
	}
	for _, up := range in.Images {
		if !isImage(up) {
			verr.Add("images", msgInvalidImage)
		}
	}
	for _, up := range in.Videos {
		if !isVideo(up) {
			verr.Add("videos", "Upload a valid video file.")
		}
	}
	for _, up := range in.Audio {
		if !isAudio(up) {
			verr.Add("audio", "Upload a valid audio file.")
		}
	}
	return verr.OrNil()
}

// Submit stores a new unverified report with its attachments. Every image
// takes the submitted image type and starts blurred.
func (s *IncidentService) Submit(ctx context.Context, userID uint, in SubmitInput) (*models.IncidentReport, error) {
	if err := validateSubmit(&in); err != nil {
		return nil, err
	}
	report := &models.IncidentReport{
		UserID:       userID,
		Title:        in.Title,
		Category:     in.Category,
		Description:  in.Description,
		Severity:     in.Severity,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		LocationName: in.LocationName,
		IncidentDate: in.IncidentDate.UTC(),
	}

	var saved []string
	fail := func(err error) (*models.IncidentReport, error) {
		purge(ctx, s.media, saved)
		return nil, err
	}
	for _, up := range in.Images {
		ref, err := saveUpload(ctx, s.media, mediastore.FolderIncidentImages, up)
		if err != nil {
			return fail(err)
		}
		saved = append(saved, ref)
		report.Images = append(report.Images, models.IncidentImage{Image: ref, ImageType: in.ImageType, IsBlurred: true})
	}
	for _, up := range in.Videos {
		ref, err := saveUpload(ctx, s.media, mediastore.FolderIncidentVideos, up)
		if err != nil {
			return fail(err)
		}
		saved = append(saved, ref)
		report.Videos = append(report.Videos, models.IncidentVideo{Video: ref})
	}
	for _, up := range in.Audio {
		ref, err := saveUpload(ctx, s.media, mediastore.FolderIncidentAudio, up)
		if err != nil {
			return fail(err)
		}
		saved = append(saved, ref)
		report.Audio = append(report.Audio, models.IncidentAudio{Audio: ref})
	}

	if err := s.incidentRepo.Create(report); err != nil {
		return fail(fmt.Errorf("create report: %w", err))
	}
	s.metrics.ReportSubmitted(report.Category, report.Severity)
	return report, nil
}

// Get loads a report for its detail page. Unverified reports are visible
// only to their author and to staff.
func (s *IncidentService) Get(id uint, viewer *models.User) (*models.IncidentReport, error) {
	report, err := s.incidentRepo.GetByID(id)
	if err != nil {
		return nil, notFound(err)
	}
	if !canView(report, viewer) {
		return nil, ErrNotFound
	}
	return report, nil
}

func canView(r *models.IncidentReport, viewer *models.User) bool {
	if r.IsVerified {
		return true
	}
	return viewer != nil && (viewer.IsStaff || viewer.ID == r.UserID)
}

// MarkHelpful records the user's helpful mark once. created is false when
// the user had already marked the report.
func (s *IncidentService) MarkHelpful(user *models.User, reportID uint) (created bool, err error) {
	if _, err := s.Get(reportID, user); err != nil {
		return false, err
	}
	created, err = s.helpfulRepo.Mark(user.ID, reportID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}
	s.metrics.HelpfulMarked(created)
	return created, nil
}

// HasMarkedHelpful reports whether userID already marked the report.
func (s *IncidentService) HasMarkedHelpful(userID, reportID uint) bool {
	ok, err := s.helpfulRepo.Exists(userID, reportID)
	return err == nil && ok
}


package repository

import (
	"time"

	"saferoute/internal/domain"
	"saferoute/internal/models"
	"saferoute/pkg/location"

	"gorm.io/gorm"
)

// IncidentFilters narrows a report listing. Zero values apply no filter.
type IncidentFilters struct {
	VerifiedOnly bool
	UserID       uint
	Category     string
	Severity     string
	Since        time.Time
	Limit        int
	WithImages   bool
}

// GalleryFilters narrows the image gallery. ImageType "" or "all" matches
// every type.
type GalleryFilters struct {
	ImageType string
	Category  string
}

type IncidentRepository struct {
	db *gorm.DB
}

func NewIncidentRepository(db *gorm.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

// Create inserts the report and its media in one transaction. Media rows get
// their ReportID from the new report.
func (r *IncidentRepository) Create(report *models.IncidentReport) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		images, videos, audio := report.Images, report.Videos, report.Audio
		report.Images, report.Videos, report.Audio = nil, nil, nil
		defer func() { report.Images, report.Videos, report.Audio = images, videos, audio }()

		if err := tx.Omit("User").Create(report).Error; err != nil {
			return err
		}
		for i := range images {
			images[i].ReportID = report.ID
		}
		for i := range videos {
			videos[i].ReportID = report.ID
		}
		for i := range audio {
			audio[i].ReportID = report.ID
		}
		if len(images) > 0 {
			if err := tx.Omit("Report").Create(&images).Error; err != nil {
				return err
			}
		}
		if len(videos) > 0 {
			if err := tx.Omit("Report").Create(&videos).Error; err != nil {
				return err
			}
		}
		if len(audio) > 0 {
			if err := tx.Omit("Report").Create(&audio).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID loads a report with its owner and media.
func (r *IncidentRepository) GetByID(id uint) (*models.IncidentReport, error) {
	var rep models.IncidentReport
	err := r.db.Preload("User").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Videos", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Audio", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&rep, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rep, nil
}

func (r *IncidentRepository) scope(f IncidentFilters) *gorm.DB {
	q := r.db.Model(&models.IncidentReport{})
	if f.VerifiedOnly {
		q = q.Where("is_verified = ?", true)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Severity != "" {
		q = q.Where("severity = ?", f.Severity)
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since.UTC())
	}
	return q
}

// List returns reports matching f, newest first.
func (r *IncidentRepository) List(f IncidentFilters) ([]models.IncidentReport, error) {
	q := r.scope(f).Preload("User").Order("created_at DESC").Order("id DESC")
	if f.WithImages {
		q = q.Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var list []models.IncidentReport
	err := q.Find(&list).Error
	return list, err
}

func (r *IncidentRepository) ListByIDs(ids []uint) ([]models.IncidentReport, error) {
	var list []models.IncidentReport
	err := r.db.Where("id IN ?", ids).Order("id").Find(&list).Error
	return list, err
}

// CountVerifiedBySeverity returns verified report counts keyed by severity.
// Severities with no reports are present with zero.
func (r *IncidentRepository) CountVerifiedBySeverity() (map[string]int64, error) {
	var rows []struct {
		Severity string
		N        int64
	}
	err := r.db.Model(&models.IncidentReport{}).
		Select("severity, COUNT(*) AS n").
		Where("is_verified = ?", true).
		Group("severity").
		Scan(&rows).Error
	out := make(map[string]int64, len(domain.Severities))
	for _, s := range domain.Severities {
		out[s.Value] = 0
	}
	for _, row := range rows {
		out[row.Severity] = row.N
	}
	return out, err
}

// VerifiedPoints returns the coordinates of every verified report.
func (r *IncidentRepository) VerifiedPoints() ([]location.Point, error) {
	var rows []struct {
		Latitude  float64
		Longitude float64
	}
	err := r.db.Model(&models.IncidentReport{}).
		Select("latitude, longitude").
		Where("is_verified = ?", true).
		Scan(&rows).Error
	points := make([]location.Point, len(rows))
	for i, row := range rows {
		points[i] = location.Point{Lat: row.Latitude, Lng: row.Longitude}
	}
	return points, err
}

func (r *IncidentRepository) galleryScope(f GalleryFilters) *gorm.DB {
	q := r.db.Model(&models.IncidentImage{}).
		Joins("JOIN incident_reports ON incident_reports.id = incident_images.report_id").
		Where("incident_reports.is_verified = ?", true)
	// Only suspect and location photos have their own tab; any other type
	// shows everything.
	switch f.ImageType {
	case domain.ImageTypeSuspect, domain.ImageTypeLocation:
		q = q.Where("incident_images.image_type = ?", f.ImageType)
	}
	if f.Category != "" {
		q = q.Where("incident_reports.category = ?", f.Category)
	}
	return q
}

// Gallery returns one page of images whose parent report is verified.
func (r *IncidentRepository) Gallery(f GalleryFilters, pageRaw string, size int) ([]models.IncidentImage, domain.Page, error) {
	var total int64
	if err := r.galleryScope(f).Count(&total).Error; err != nil {
		return nil, domain.NewPage("1", 0, size), err
	}
	page := domain.NewPage(pageRaw, total, size)
	var list []models.IncidentImage
	err := r.galleryScope(f).
		Preload("Report").
		Order("incident_images.created_at DESC").Order("incident_images.id DESC").
		Limit(page.Size).Offset(page.Offset()).
		Find(&list).Error
	return list, page, err
}

// SetVerified flips the verified flag on ids and returns how many rows changed.
func (r *IncidentRepository) SetVerified(ids []uint, verified bool) (int64, error) {
	res := r.db.Model(&models.IncidentReport{}).Where("id IN ?", ids).Update("is_verified", verified)
	return res.RowsAffected, res.Error
}

// UpdateModeration writes the admin-editable columns of a report. Counters
// are never touched.
func (r *IncidentRepository) UpdateModeration(rep *models.IncidentReport) error {
	return r.db.Model(rep).
		Select("title", "category", "description", "severity", "location_name", "is_verified").
		Updates(rep).Error
}

func (r *IncidentRepository) SetBlurred(imageIDs []uint, blurred bool) (int64, error) {
	res := r.db.Model(&models.IncidentImage{}).Where("id IN ?", imageIDs).Update("is_blurred", blurred)
	return res.RowsAffected, res.Error
}

// Delete removes reports with their media and helpful marks, returning the
// stored media references so the caller can purge them from storage.
func (r *IncidentRepository) Delete(ids []uint) (media []string, err error) {
	err = r.db.Transaction(func(tx *gorm.DB) error {
		media, err = deleteReports(tx, ids)
		return err
	})
	return media, err
}

// DeleteImages removes individual images and returns their references.
func (r *IncidentRepository) DeleteImages(ids []uint) ([]string, error) {
	var refs []string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.IncidentImage{}).Where("id IN ?", ids).Pluck("image", &refs).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.IncidentImage{}).Error
	})
	return refs, err
}

func (r *IncidentRepository) DeleteVideos(ids []uint) ([]string, error) {
	var refs []string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.IncidentVideo{}).Where("id IN ?", ids).Pluck("video", &refs).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.IncidentVideo{}).Error
	})
	return refs, err
}

func (r *IncidentRepository) DeleteAudio(ids []uint) ([]string, error) {
	var refs []string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.IncidentAudio{}).Where("id IN ?", ids).Pluck("audio", &refs).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.IncidentAudio{}).Error
	})
	return refs, err
}

func deleteReports(tx *gorm.DB, ids []uint) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var refs, part []string
	if err := tx.Model(&models.IncidentImage{}).Where("report_id IN ?", ids).Pluck("image", &part).Error; err != nil {
		return nil, err
	}
	refs = append(refs, part...)
	part = nil
	if err := tx.Model(&models.IncidentVideo{}).Where("report_id IN ?", ids).Pluck("video", &part).Error; err != nil {
		return nil, err
	}
	refs = append(refs, part...)
	part = nil
	if err := tx.Model(&models.IncidentAudio{}).Where("report_id IN ?", ids).Pluck("audio", &part).Error; err != nil {
		return nil, err
	}
	refs = append(refs, part...)

	for _, child := range []any{&models.IncidentImage{}, &models.IncidentVideo{}, &models.IncidentAudio{}, &models.HelpfulReport{}} {
		if err := tx.Where("report_id IN ?", ids).Delete(child).Error; err != nil {
			return nil, err
		}
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.IncidentReport{}).Error; err != nil {
		return nil, err
	}
	return refs, nil
}

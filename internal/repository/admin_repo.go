package repository

import (
	"saferoute/internal/domain"
	"saferoute/internal/models"

	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalUsers      int64 `json:"total_users"`
	VerifiedUsers   int64 `json:"verified_users"`
	TotalReports    int64 `json:"total_reports"`
	PendingReports  int64 `json:"pending_reports"`
	VerifiedReports int64 `json:"verified_reports"`
	TotalImages     int64 `json:"total_images"`
	TotalVideos     int64 `json:"total_videos"`
	TotalAudio      int64 `json:"total_audio"`
	TotalZones      int64 `json:"total_zones"`
	HelpfulMarks    int64 `json:"helpful_marks"`
	Discussions     int64 `json:"discussions"`
	Replies         int64 `json:"replies"`
}

// Scope narrows an admin query.
type Scope = func(*gorm.DB) *gorm.DB

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetDashboardStats() (*DashboardStats, error) {
	var s DashboardStats
	counts := []struct {
		model any
		dst   *int64
		where []any
	}{
		{&models.User{}, &s.TotalUsers, nil},
		{&models.User{}, &s.VerifiedUsers, []any{"is_verified = ?", true}},
		{&models.IncidentReport{}, &s.TotalReports, nil},
		{&models.IncidentReport{}, &s.PendingReports, []any{"is_verified = ?", false}},
		{&models.IncidentReport{}, &s.VerifiedReports, []any{"is_verified = ?", true}},
		{&models.IncidentImage{}, &s.TotalImages, nil},
		{&models.IncidentVideo{}, &s.TotalVideos, nil},
		{&models.IncidentAudio{}, &s.TotalAudio, nil},
		{&models.SavedZone{}, &s.TotalZones, nil},
		{&models.HelpfulReport{}, &s.HelpfulMarks, nil},
		{&models.CommunityDiscussion{}, &s.Discussions, nil},
		{&models.DiscussionReply{}, &s.Replies, nil},
	}
	for _, c := range counts {
		q := r.db.Model(c.model)
		if len(c.where) > 0 {
			q = q.Where(c.where[0], c.where[1:]...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// ListPage loads one page of model rows into dest (a pointer to a slice),
// newest id first. Preloads are applied to the page query only.
func (r *AdminRepository) ListPage(model, dest any, pageRaw string, size int, preloads []string, scopes ...Scope) (domain.Page, error) {
	var total int64
	if err := r.db.Model(model).Scopes(scopes...).Count(&total).Error; err != nil {
		return domain.NewPage("1", 0, size), err
	}
	page := domain.NewPage(pageRaw, total, size)
	q := r.db.Model(model).Scopes(scopes...)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	err := q.Order("id DESC").
		Limit(page.Size).Offset(page.Offset()).
		Find(dest).Error
	return page, err
}

// Get loads a single row by primary key into dest.
func (r *AdminRepository) Get(dest any, id uint, preloads ...string) error {
	q := r.db
	for _, p := range preloads {
		q = q.Preload(p)
	}
	return translate(q.First(dest, id).Error)
}

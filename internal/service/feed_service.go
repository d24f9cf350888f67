package service

import (
	"log/slog"
	"time"

	"saferoute/internal/domain"
	"saferoute/internal/models"
	"saferoute/internal/repository"
	"saferoute/pkg/location"
)

type HomeFeed struct {
	Recent       []models.IncidentReport
	HighRisk     int64
	ModerateRisk int64
	LowRisk      int64
}

// ZoneSummary pairs a saved zone with the number of verified incidents
// inside its radius.
type ZoneSummary struct {
	Zone          models.SavedZone
	IncidentCount int
}

type Dashboard struct {
	Reports []models.IncidentReport
	Zones   []ZoneSummary
	Feed    []models.IncidentReport
}

// HeatmapQuery holds the raw filter values; "all" or "" disables a filter.
type HeatmapQuery struct {
	Category string
	Severity string
	Time     string
}

type Heatmap struct {
	Query     HeatmapQuery
	Incidents []models.IncidentMarker
	Zones     []models.SavedZone
}

type GalleryQuery struct {
	Type     string
	Category string
	Page     string
}

type GalleryPage struct {
	Query  GalleryQuery
	Images []models.IncidentImage
	Page   domain.Page
}

type CommunityPage struct {
	Category    string
	Discussions []models.CommunityDiscussion
	Page        domain.Page
}

// FeedService builds the read-only listings. Storage errors are logged and
// produce empty results so a page still renders.
type FeedService struct {
	incidentRepo   *repository.IncidentRepository
	zoneRepo       *repository.ZoneRepository
	discussionRepo *repository.DiscussionRepository
	now            func() time.Time
}

// NewFeedService uses time.Now when now is nil.
func NewFeedService(incidentRepo *repository.IncidentRepository, zoneRepo *repository.ZoneRepository, discussionRepo *repository.DiscussionRepository, now func() time.Time) *FeedService {
	if now == nil {
		now = time.Now
	}
	return &FeedService{incidentRepo: incidentRepo, zoneRepo: zoneRepo, discussionRepo: discussionRepo, now: now}
}

func logReadError(what string, err error) {
	slog.Error("listing failed, serving empty result", "component", "feed", "listing", what, "err", err)
}

func (s *FeedService) Home() HomeFeed {
	var feed HomeFeed
	recent, err := s.incidentRepo.List(repository.IncidentFilters{VerifiedOnly: true, Limit: domain.HomeRecentLimit, WithImages: true})
	if err != nil {
		logReadError("home recent", err)
	} else {
		feed.Recent = recent
	}
	counts, err := s.incidentRepo.CountVerifiedBySeverity()
	if err != nil {
		logReadError("home counts", err)
		return feed
	}
	feed.HighRisk = counts[domain.SeverityHigh]
	feed.ModerateRisk = counts[domain.SeverityModerate]
	feed.LowRisk = counts[domain.SeverityLow]
	return feed
}

func (s *FeedService) Dashboard(userID uint) Dashboard {
	var d Dashboard
	reports, err := s.incidentRepo.List(repository.IncidentFilters{UserID: userID, Limit: domain.DashboardReportLimit})
	if err != nil {
		logReadError("dashboard reports", err)
	} else {
		d.Reports = reports
	}
	feed, err := s.incidentRepo.List(repository.IncidentFilters{VerifiedOnly: true, Limit: domain.DashboardFeedLimit})
	if err != nil {
		logReadError("dashboard feed", err)
	} else {
		d.Feed = feed
	}

	zones, err := s.zoneRepo.ListByUser(userID)
	if err != nil {
		logReadError("dashboard zones", err)
		return d
	}
	var points []location.Point
	if len(zones) > 0 {
		if points, err = s.incidentRepo.VerifiedPoints(); err != nil {
			logReadError("dashboard zone counts", err)
		}
	}
	for _, z := range zones {
		center := location.Point{Lat: z.Latitude, Lng: z.Longitude}
		d.Zones = append(d.Zones, ZoneSummary{Zone: z, IncidentCount: location.CountWithin(center, z.Radius, points)})
	}
	return d
}

// UserReports returns the user's latest reports for the profile page.
func (s *FeedService) UserReports(userID uint, limit int) []models.IncidentReport {
	list, err := s.incidentRepo.List(repository.IncidentFilters{UserID: userID, Limit: limit})
	if err != nil {
		logReadError("user reports", err)
		return nil
	}
	return list
}

// Heatmap lists verified markers matching q. Zones are attached for a
// signed-in user (userID != 0) as a display overlay.
func (s *FeedService) Heatmap(userID uint, q HeatmapQuery) Heatmap {
	if q.Category == "" {
		q.Category = "all"
	}
	if q.Severity == "" {
		q.Severity = "all"
	}
	if q.Time == "" {
		q.Time = domain.TimeWindowAll
	}
	out := Heatmap{Query: q, Incidents: []models.IncidentMarker{}, Zones: []models.SavedZone{}}

	f := repository.IncidentFilters{VerifiedOnly: true}
	if q.Category != "all" {
		f.Category = q.Category
	}
	if q.Severity != "all" {
		f.Severity = q.Severity
	}
	if since, ok := domain.TimeWindowStart(q.Time, s.now()); ok {
		f.Since = since
	}
	reports, err := s.incidentRepo.List(f)
	if err != nil {
		logReadError("heatmap", err)
	}
	for i := range reports {
		out.Incidents = append(out.Incidents, reports[i].HeatmapPoint())
	}

	if userID != 0 {
		zones, err := s.zoneRepo.ListByUser(userID)
		if err != nil {
			logReadError("heatmap zones", err)
		} else if len(zones) > 0 {
			out.Zones = zones
		}
	}
	return out
}

func (s *FeedService) Gallery(q GalleryQuery) GalleryPage {
	if q.Type == "" {
		q.Type = "all"
	}
	images, page, err := s.incidentRepo.Gallery(repository.GalleryFilters{ImageType: q.Type, Category: q.Category}, q.Page, domain.GalleryPageSize)
	if err != nil {
		logReadError("gallery", err)
		return GalleryPage{Query: q, Page: domain.NewPage("1", 0, domain.GalleryPageSize)}
	}
	return GalleryPage{Query: q, Images: images, Page: page}
}

func (s *FeedService) Community(category, pageRaw string) CommunityPage {
	if category == "" {
		category = "all"
	}
	list, page, err := s.discussionRepo.List(category, pageRaw, domain.CommunityPageSize)
	if err != nil {
		logReadError("community", err)
		return CommunityPage{Category: category, Page: domain.NewPage("1", 0, domain.CommunityPageSize)}
	}
	return CommunityPage{Category: category, Discussions: list, Page: page}
}

// Export returns every verified report as a map marker.
func (s *FeedService) Export() []models.IncidentMarker {
	out := []models.IncidentMarker{}
	reports, err := s.incidentRepo.List(repository.IncidentFilters{VerifiedOnly: true})
	if err != nil {
		logReadError("export", err)
		return out
	}
	for i := range reports {
		out = append(out, reports[i].Marker())
	}
	return out
}

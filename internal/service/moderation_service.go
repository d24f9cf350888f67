package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"saferoute/internal/domain"
	"saferoute/internal/models"
	"saferoute/internal/observability"
	"saferoute/internal/repository"
	"saferoute/pkg/mediastore"
)

// Admin resource names, shared by the console and the audit log.
const (
	ResourceUsers       = "users"
	ResourceReports     = "reports"
	ResourceImages      = "images"
	ResourceVideos      = "videos"
	ResourceAudio       = "audio"
	ResourceZones       = "zones"
	ResourceHelpful     = "helpful"
	ResourceDiscussions = "discussions"
	ResourceReplies     = "replies"
)

// Actor identifies who performed an admin action.
type Actor struct {
	UserID    uint
	IP        string
	UserAgent string
}

// MarkerPublisher receives visibility changes for the live map.
type MarkerPublisher interface {
	PublishVerified(markers []models.IncidentMarker)
	PublishRemoved(ids []uint)
}

type ReportEdit struct {
	Title        string
	Category     string
	Description  string
	Severity     string
	LocationName string
	IsVerified   bool
}

type UserEdit struct {
	IsVerified bool
	IsStaff    bool
}

type ModerationService struct {
	incidentRepo   *repository.IncidentRepository
	userRepo       *repository.UserRepository
	helpfulRepo    *repository.HelpfulRepository
	discussionRepo *repository.DiscussionRepository
	zoneRepo       *repository.ZoneRepository
	auditRepo      *repository.AuditLogRepository
	media          mediastore.Store
	publisher      MarkerPublisher
	metrics        *observability.Metrics
}

func NewModerationService(
	incidentRepo *repository.IncidentRepository,
	userRepo *repository.UserRepository,
	helpfulRepo *repository.HelpfulRepository,
	discussionRepo *repository.DiscussionRepository,
	zoneRepo *repository.ZoneRepository,
	auditRepo *repository.AuditLogRepository,
	media mediastore.Store,
	publisher MarkerPublisher,
	metrics *observability.Metrics,
) *ModerationService {
	return &ModerationService{
		incidentRepo:   incidentRepo,
		userRepo:       userRepo,
		helpfulRepo:    helpfulRepo,
		discussionRepo: discussionRepo,
		zoneRepo:       zoneRepo,
		auditRepo:      auditRepo,
		media:          media,
		publisher:      publisher,
		metrics:        metrics,
	}
}

// VerifyReports sets the verified flag on reports. Newly public reports are
// pushed to the live map; hidden ones are withdrawn from it.
func (s *ModerationService) VerifyReports(actor Actor, ids []uint, verified bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.incidentRepo.SetVerified(ids, verified)
	if err != nil {
		return 0, fmt.Errorf("set verified: %w", err)
	}
	action := verifyAction(verified)
	s.record(actor, ResourceReports, action, ids)
	s.metrics.Moderated(ResourceReports, action, n)
	if verified {
		s.publishVerified(ids)
	} else if s.publisher != nil {
		s.publisher.PublishRemoved(ids)
	}
	return n, nil
}

func (s *ModerationService) VerifyUsers(actor Actor, ids []uint, verified bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.userRepo.SetVerified(ids, verified)
	if err != nil {
		return 0, fmt.Errorf("set verified: %w", err)
	}
	action := verifyAction(verified)
	s.record(actor, ResourceUsers, action, ids)
	s.metrics.Moderated(ResourceUsers, action, n)
	return n, nil
}

func (s *ModerationService) BlurImages(actor Actor, ids []uint, blurred bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.incidentRepo.SetBlurred(ids, blurred)
	if err != nil {
		return 0, fmt.Errorf("set blurred: %w", err)
	}
	action := "unblur"
	if blurred {
		action = "blur"
	}
	s.record(actor, ResourceImages, action, ids)
	s.metrics.Moderated(ResourceImages, action, n)
	return n, nil
}

// Delete hard-deletes records of resource with their dependents, then
// removes any stored media. Staff cannot delete their own account here.
func (s *ModerationService) Delete(ctx context.Context, actor Actor, resource string, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	var (
		media []string
		err   error
	)
	switch resource {
	case ResourceUsers:
		for _, id := range ids {
			if id == actor.UserID {
				return domain.FieldError("", "You cannot delete your own account.")
			}
		}
		media, err = s.userRepo.Delete(ids)
	case ResourceReports:
		media, err = s.incidentRepo.Delete(ids)
	case ResourceImages:
		media, err = s.incidentRepo.DeleteImages(ids)
	case ResourceVideos:
		media, err = s.incidentRepo.DeleteVideos(ids)
	case ResourceAudio:
		media, err = s.incidentRepo.DeleteAudio(ids)
	case ResourceZones:
		err = s.zoneRepo.Delete(ids)
	case ResourceHelpful:
		err = s.helpfulRepo.Delete(ids)
	case ResourceDiscussions:
		err = s.discussionRepo.Delete(ids)
	case ResourceReplies:
		err = s.discussionRepo.DeleteReplies(ids)
	default:
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", resource, err)
	}
	purge(ctx, s.media, media)
	s.record(actor, resource, "delete", ids)
	s.metrics.Moderated(resource, "delete", int64(len(ids)))
	// Deleting users also deletes their reports; the map hub ignores unknown ids.
	if resource == ResourceReports && s.publisher != nil {
		s.publisher.PublishRemoved(ids)
	}
	return nil
}

// UpdateReport applies an admin edit. Counters are not editable.
func (s *ModerationService) UpdateReport(actor Actor, id uint, in ReportEdit) (*models.IncidentReport, error) {
	report, err := s.incidentRepo.GetByID(id)
	if err != nil {
		return nil, notFound(err)
	}
	in.Title = strings.TrimSpace(in.Title)
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
	if !domain.Valid(domain.Severities, in.Severity) {
		verr.Add("severity", msgInvalidChoice)
	}
	if strings.TrimSpace(in.Description) == "" {
		verr.Add("description", msgRequired)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	wasVerified := report.IsVerified
	report.Title = in.Title
	report.Category = in.Category
	report.Description = strings.TrimSpace(in.Description)
	report.Severity = in.Severity
	report.LocationName = strings.TrimSpace(in.LocationName)
	report.IsVerified = in.IsVerified
	if err := s.incidentRepo.UpdateModeration(report); err != nil {
		return nil, fmt.Errorf("update report: %w", err)
	}
	s.record(actor, ResourceReports, "update", []uint{id})
	s.metrics.Moderated(ResourceReports, "update", 1)
	if s.publisher != nil {
		switch {
		case report.IsVerified:
			s.publisher.PublishVerified([]models.IncidentMarker{report.Marker()})
		case wasVerified:
			s.publisher.PublishRemoved([]uint{id})
		}
	}
	return report, nil
}

// UpdateUser edits the moderation flags of an account.
func (s *ModerationService) UpdateUser(actor Actor, id uint, in UserEdit) (*models.User, error) {
	u, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, notFound(err)
	}
	if id == actor.UserID && !in.IsStaff {
		return nil, domain.FieldError("is_staff", "You cannot remove your own staff access.")
	}
	u.IsVerified = in.IsVerified
	u.IsStaff = in.IsStaff
	if err := s.userRepo.Update(u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.record(actor, ResourceUsers, "update", []uint{id})
	s.metrics.Moderated(ResourceUsers, "update", 1)
	return u, nil
}

func (s *ModerationService) publishVerified(ids []uint) {
	if s.publisher == nil {
		return
	}
	reports, err := s.incidentRepo.ListByIDs(ids)
	if err != nil {
		slog.Warn("load verified reports for live map", "component", "moderation", "err", err)
		return
	}
	markers := make([]models.IncidentMarker, 0, len(reports))
	for i := range reports {
		if reports[i].IsVerified {
			markers = append(markers, reports[i].Marker())
		}
	}
	if len(markers) > 0 {
		s.publisher.PublishVerified(markers)
	}
}

func (s *ModerationService) record(actor Actor, resource, action string, ids []uint) {
	if s.auditRepo == nil {
		return
	}
	meta, _ := json.Marshal(map[string]any{"ids": ids})
	var uid *uint
	if actor.UserID != 0 {
		v := actor.UserID
		uid = &v
	}
	resourceID := ""
	if len(ids) == 1 {
		resourceID = strconv.FormatUint(uint64(ids[0]), 10)
	}
	if err := s.auditRepo.Create(&models.AuditLog{
		UserID:     uid,
		Action:     "admin_" + action,
		Resource:   resource,
		ResourceID: resourceID,
		IP:         actor.IP,
		UserAgent:  actor.UserAgent,
		Metadata:   string(meta),
	}); err != nil {
		slog.Warn("audit write failed", "component", "moderation", "err", err)
	}
}

func verifyAction(verified bool) string {
	if verified {
		return "verify"
	}
	return "unverify"
}

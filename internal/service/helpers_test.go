package service

import (
	"io"
	"strings"
	"testing"

	"saferoute/internal/models"
	"saferoute/internal/repository"
	"saferoute/internal/testutil"

	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	media      *testutil.MemoryStore
	users      *repository.UserRepository
	incidents  *repository.IncidentRepository
	helpful    *repository.HelpfulRepository
	discussion *repository.DiscussionRepository
	zones      *repository.ZoneRepository
	audit      *repository.AuditLogRepository
}

func newFixture(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	return &fixture{
		db:         db,
		media:      testutil.NewMemoryStore(),
		users:      repository.NewUserRepository(db),
		incidents:  repository.NewIncidentRepository(db),
		helpful:    repository.NewHelpfulRepository(db),
		discussion: repository.NewDiscussionRepository(db),
		zones:      repository.NewZoneRepository(db),
		audit:      repository.NewAuditLogRepository(db),
	}
}

func (f *fixture) incidentService() *IncidentService {
	return NewIncidentService(f.incidents, f.helpful, f.media, nil)
}

func (f *fixture) moderation(pub MarkerPublisher) *ModerationService {
	return NewModerationService(f.incidents, f.users, f.helpful, f.discussion, f.zones, f.audit, f.media, pub, nil)
}

func fileUpload(name, contentType, body string) Upload {
	return Upload{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(body)), nil },
	}
}

type recordingPublisher struct {
	verified []models.IncidentMarker
	removed  []uint
}

func (p *recordingPublisher) PublishVerified(m []models.IncidentMarker) {
	p.verified = append(p.verified, m...)
}

func (p *recordingPublisher) PublishRemoved(ids []uint) { p.removed = append(p.removed, ids...) }

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"saferoute/internal/domain"
	"saferoute/internal/models"
	"saferoute/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func muggingInput(t *testing.T) SubmitInput {
	date, err := ParseIncidentDate("2024-01-01T10:00", time.UTC)
	require.NoError(t, err)
	return SubmitInput{
		Title:        "Mugging near 5th Ave",
		Category:     domain.CategoryAssault,
		Description:  "Two men took a phone at knifepoint",
		Severity:     domain.SeverityHigh,
		Latitude:     40.73,
		Longitude:    -73.99,
		IncidentDate: date,
	}
}

func TestParseIncidentDate(t *testing.T) {
	nairobi := time.FixedZone("EAT", 3*60*60)
	for _, raw := range []string{"2024-01-01T10:00", "2024-01-01T10:00:00", "2024-01-01 10:00"} {
		got, err := ParseIncidentDate(raw, nairobi)
		require.NoError(t, err, raw)
		assert.True(t, got.Equal(time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)), raw)
	}
	got, err := ParseIncidentDate("2024-01-01T10:00:00Z", nairobi)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))

	_, err = ParseIncidentDate("yesterday", time.UTC)
	assert.Error(t, err)
}

func TestIncidentService_SubmitIsUnverifiedWithBlurredImages(t *testing.T) {
	f := newFixture(t)
	s := f.incidentService()
	alice := testutil.CreateUser(t, f.db, "alice", false)

	in := muggingInput(t)
	in.ImageType = domain.ImageTypeSuspect
	in.Images = []Upload{fileUpload("a.jpg", "image/jpeg", "a"), fileUpload("b.png", "application/octet-stream", "b")}
	in.Videos = []Upload{fileUpload("clip.mp4", "video/mp4", "v")}
	in.Audio = []Upload{fileUpload("voice.m4a", "audio/mp4", "s")}

	report, err := s.Submit(context.Background(), alice.ID, in)
	require.NoError(t, err)
	assert.False(t, report.IsVerified)
	assert.Zero(t, report.HelpfulCount)

	got, err := f.incidents.GetByID(report.ID)
	require.NoError(t, err)
	require.Len(t, got.Images, 2)
	for _, img := range got.Images {
		assert.Equal(t, domain.ImageTypeSuspect, img.ImageType)
		assert.True(t, img.IsBlurred)
		assert.True(t, f.media.Has(img.Image))
	}
	assert.Len(t, got.Videos, 1)
	assert.Len(t, got.Audio, 1)
}

func TestIncidentService_SubmitDefaultsImageTypeToEvidence(t *testing.T) {
	f := newFixture(t)
	alice := testutil.CreateUser(t, f.db, "alice", false)
	in := muggingInput(t)
	in.Images = []Upload{fileUpload("a.jpg", "image/jpeg", "a")}

	report, err := f.incidentService().Submit(context.Background(), alice.ID, in)
	require.NoError(t, err)
	assert.Equal(t, domain.ImageTypeEvidence, report.Images[0].ImageType)
}

func TestIncidentService_SubmitValidation(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*SubmitInput)
		field string
	}{
		{"missing date", func(in *SubmitInput) { in.IncidentDate = time.Time{} }, "incident_date"},
		{"missing title", func(in *SubmitInput) { in.Title = "  " }, "title"},
		{"bad category", func(in *SubmitInput) { in.Category = "arson" }, "category"},
		{"bad severity", func(in *SubmitInput) { in.Severity = "extreme" }, "severity"},
		{"latitude", func(in *SubmitInput) { in.Latitude = 91 }, "latitude"},
		{"longitude", func(in *SubmitInput) { in.Longitude = -181 }, "longitude"},
		{"image type", func(in *SubmitInput) { in.ImageType = "selfie" }, "image_type"},
		{"not an image", func(in *SubmitInput) { in.Images = []Upload{fileUpload("x.exe", "application/x-msdownload", "x")} }, "images"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			alice := testutil.CreateUser(t, f.db, "alice", false)
			in := muggingInput(t)
			tc.edit(&in)
			_, err := f.incidentService().Submit(context.Background(), alice.ID, in)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Contains(t, verr.Fields, tc.field)

			var n int64
			require.NoError(t, f.db.Model(&models.IncidentReport{}).Count(&n).Error)
			assert.Zero(t, n)
		})
	}
}

func TestIncidentService_SubmitStorageFailureLeavesNothing(t *testing.T) {
	f := newFixture(t)
	f.media.FailSave = true
	alice := testutil.CreateUser(t, f.db, "alice", false)
	in := muggingInput(t)
	in.Images = []Upload{fileUpload("a.jpg", "image/jpeg", "a")}

	_, err := f.incidentService().Submit(context.Background(), alice.ID, in)
	require.Error(t, err)
	var n int64
	require.NoError(t, f.db.Model(&models.IncidentReport{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestIncidentService_GetHidesUnverifiedFromOthers(t *testing.T) {
	f := newFixture(t)
	s := f.incidentService()
	alice := testutil.CreateUser(t, f.db, "alice", false)
	bob := testutil.CreateUser(t, f.db, "bob", false)
	staff := testutil.CreateUser(t, f.db, "mod", true)
	r := testutil.CreateReport(t, f.db, alice.ID)

	_, err := s.Get(r.ID, alice)
	assert.NoError(t, err)
	_, err = s.Get(r.ID, staff)
	assert.NoError(t, err)
	_, err = s.Get(r.ID, bob)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(r.ID, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(9999, staff)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIncidentService_MarkHelpfulScenario(t *testing.T) {
	f := newFixture(t)
	s := f.incidentService()
	owner := testutil.CreateUser(t, f.db, "owner", false)
	a := testutil.CreateUser(t, f.db, "a", false)
	b := testutil.CreateUser(t, f.db, "b", false)
	r := testutil.CreateReport(t, f.db, owner.ID, testutil.Verified)

	count := func() int {
		got, err := f.incidents.GetByID(r.ID)
		require.NoError(t, err)
		return got.HelpfulCount
	}
	require.Equal(t, 0, count())

	created, err := s.MarkHelpful(a, r.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, count())
	assert.True(t, s.HasMarkedHelpful(a.ID, r.ID))

	created, err = s.MarkHelpful(a, r.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, count())

	created, err = s.MarkHelpful(b, r.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, count())

	_, err = s.MarkHelpful(a, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIncidentService_MarkHelpfulConcurrentDuplicates(t *testing.T) {
	f := newFixture(t)
	s := f.incidentService()
	owner := testutil.CreateUser(t, f.db, "owner", false)
	a := testutil.CreateUser(t, f.db, "a", false)
	r := testutil.CreateReport(t, f.db, owner.ID, testutil.Verified)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.MarkHelpful(a, r.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := f.incidents.GetByID(r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.HelpfulCount)
}

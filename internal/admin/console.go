package admin

import (
	"context"
	"fmt"
	"html/template"
	"time"

	"saferoute/internal/domain"
	"saferoute/internal/models"
	"saferoute/internal/repository"
	"saferoute/internal/service"
	"saferoute/pkg/mediastore"
)

// Console is the ordered registry of admin resources.
type Console struct {
	resources []Resource
	bySlug    map[string]Resource
	repo      *repository.AdminRepository
	now       func() time.Time
}

// NewConsole wires every entity. now is used by the date filters and may be
// nil.
func NewConsole(repo *repository.AdminRepository, mod *service.ModerationService, media mediastore.Store, now func() time.Time) *Console {
	if now == nil {
		now = time.Now
	}
	c := &Console{bySlug: make(map[string]Resource), repo: repo, now: now}
	url := func(ref string) string {
		if ref == "" || media == nil {
			return ""
		}
		return media.URL(ref)
	}

	register(c, &ModelResource[models.User]{
		slug:  service.ResourceUsers,
		title: "Users",
		columns: []Column[models.User]{
			{"Username", func(u *models.User) template.HTML { return link(service.ResourceUsers, u.ID, u.Username) }},
			{"Email", func(u *models.User) template.HTML { return text(u.Email) }},
			{"Name", func(u *models.User) template.HTML { return text(u.FullName()) }},
			{"Verified", func(u *models.User) template.HTML { return verifiedBadge(u.IsVerified) }},
			{"Staff", func(u *models.User) template.HTML { return boolIcon(u.IsStaff) }},
			{"Joined", func(u *models.User) template.HTML { return timestamp(u.DateJoined) }},
		},
		fields: []Column[models.User]{
			{"Username", func(u *models.User) template.HTML { return text(u.Username) }},
			{"Email", func(u *models.User) template.HTML { return text(u.Email) }},
			{"First name", func(u *models.User) template.HTML { return text(u.FirstName) }},
			{"Last name", func(u *models.User) template.HTML { return text(u.LastName) }},
			{"Phone", func(u *models.User) template.HTML { return text(u.Phone) }},
			{"Verified", func(u *models.User) template.HTML { return verifiedBadge(u.IsVerified) }},
			{"Staff", func(u *models.User) template.HTML { return boolIcon(u.IsStaff) }},
			{"Superuser", func(u *models.User) template.HTML { return boolIcon(u.IsSuperuser) }},
			{"Profile picture", func(u *models.User) template.HTML { return thumbnail(url(u.ProfilePicture), u.Username) }},
			{"ID document", func(u *models.User) template.HTML { return thumbnail(url(u.IDDocument), "ID document") }},
			{"Date joined", func(u *models.User) template.HTML { return timestamp(u.DateJoined) }},
			{"Last login", func(u *models.User) template.HTML {
				if u.LastLogin == nil {
					return "-"
				}
				return timestamp(*u.LastLogin)
			}},
		},
		search:  []string{"username", "email", "first_name", "last_name"},
		filters: []Filter{boolFilter("is_verified", "Verified"), boolFilter("is_staff", "Staff"), dateFilter("date_joined", "Date joined")},
		actions: []Action{
			{"verify", "Mark selected users as verified", func(_ context.Context, a service.Actor, ids []uint) (int64, error) {
				return mod.VerifyUsers(a, ids, true)
			}},
			{"unverify", "Mark selected users as unverified", func(_ context.Context, a service.Actor, ids []uint) (int64, error) {
				return mod.VerifyUsers(a, ids, false)
			}},
			deleteAction(mod, service.ResourceUsers),
		},
		id:    func(u *models.User) uint { return u.ID },
		label: func(u *models.User) string { return u.Username },
	})

	register(c, &ModelResource[models.IncidentReport]{
		slug:  service.ResourceReports,
		title: "Incident reports",
		columns: []Column[models.IncidentReport]{
			{"Title", func(r *models.IncidentReport) template.HTML { return link(service.ResourceReports, r.ID, r.Title) }},
			{"Category", func(r *models.IncidentReport) template.HTML { return categoryBadge(domain.IncidentCategories, r.Category) }},
			{"Severity", func(r *models.IncidentReport) template.HTML { return severityBadge(r.Severity) }},
			{"User", func(r *models.IncidentReport) template.HTML { return link(service.ResourceUsers, r.UserID, r.User.Username) }},
			{"Location", func(r *models.IncidentReport) template.HTML { return text(r.LocationName) }},
			{"Incident date", func(r *models.IncidentReport) template.HTML { return timestamp(r.IncidentDate) }},
			{"Status", func(r *models.IncidentReport) template.HTML { return verifiedBadge(r.IsVerified) }},
			{"Created", func(r *models.IncidentReport) template.HTML { return timestamp(r.CreatedAt) }},
		},
		fields: []Column[models.IncidentReport]{
			{"Title", func(r *models.IncidentReport) template.HTML { return text(r.Title) }},
			{"Category", func(r *models.IncidentReport) template.HTML { return categoryBadge(domain.IncidentCategories, r.Category) }},
			{"Severity", func(r *models.IncidentReport) template.HTML { return severityBadge(r.Severity) }},
			{"Description", func(r *models.IncidentReport) template.HTML { return text(r.Description) }},
			{"Reported by", func(r *models.IncidentReport) template.HTML { return link(service.ResourceUsers, r.UserID, r.User.Username) }},
			{"Coordinates", func(r *models.IncidentReport) template.HTML { return text(fmt.Sprintf("%.6f, %.6f", r.Latitude, r.Longitude)) }},
			{"Location", func(r *models.IncidentReport) template.HTML { return text(r.LocationName) }},
			{"Incident date", func(r *models.IncidentReport) template.HTML { return timestamp(r.IncidentDate) }},
			{"Status", func(r *models.IncidentReport) template.HTML { return verifiedBadge(r.IsVerified) }},
			{"Helpful count", func(r *models.IncidentReport) template.HTML { return number(r.HelpfulCount) }},
			{"Abuse reports", func(r *models.IncidentReport) template.HTML { return number(r.AbuseReports) }},
			{"Created", func(r *models.IncidentReport) template.HTML { return timestamp(r.CreatedAt) }},
			{"Updated", func(r *models.IncidentReport) template.HTML { return timestamp(r.UpdatedAt) }},
		},
		search: []string{"title", "description", "location_name"},
		filters: []Filter{
			choiceFilter("category", "Category", domain.IncidentCategories),
			choiceFilter("severity", "Severity", domain.Severities),
			boolFilter("is_verified", "Verified"),
			dateFilter("created_at", "Created"),
		},
		actions: []Action{
			{"verify", "Mark selected reports as verified", func(_ context.Context, a service.Actor, ids []uint) (int64, error) {
				return mod.VerifyReports(a, ids, true)
			}},
			{"unverify", "Mark selected reports as unverified", func(_ context.Context, a service.Actor, ids []uint) (int64, error) {
				return mod.VerifyReports(a, ids, false)
			}},
			deleteAction(mod, service.ResourceReports),
		},
		preloads: []string{"User"},
		id:       func(r *models.IncidentReport) uint { return r.ID },
		label:    func(r *models.IncidentReport) string { return r.Title },
	})

	reportTitle := func(r *models.IncidentReport) string {
		if r == nil {
			return ""
		}
		return r.Title
	}
	register(c, &ModelResource[models.IncidentImage]{
		slug:  service.ResourceImages,
		title: "Incident images",
		columns: []Column[models.IncidentImage]{
			{"Preview", func(i *models.IncidentImage) template.HTML { return thumbnail(url(i.Image), i.TypeLabel()) }},
			{"Report", func(i *models.IncidentImage) template.HTML { return link(service.ResourceReports, i.ReportID, reportTitle(i.Report)) }},
			{"Type", func(i *models.IncidentImage) template.HTML { return badge("image-type", i.TypeLabel()) }},
			{"Blurred", func(i *models.IncidentImage) template.HTML { return boolIcon(i.IsBlurred) }},
			{"Created", func(i *models.IncidentImage) template.HTML { return timestamp(i.CreatedAt) }},
		},
		fields: []Column[models.IncidentImage]{
			{"Image", func(i *models.IncidentImage) template.HTML { return thumbnail(url(i.Image), i.TypeLabel()) }},
			{"Report", func(i *models.IncidentImage) template.HTML { return link(service.ResourceReports, i.ReportID, reportTitle(i.Report)) }},
			{"Type", func(i *models.IncidentImage) template.HTML { return text(i.TypeLabel()) }},
			{"Blurred", func(i *models.IncidentImage) template.HTML { return boolIcon(i.IsBlurred) }},
			{"Description", func(i *models.IncidentImage) template.HTML { return text(i.Description) }},
			{"Created", func(i *models.IncidentImage) template.HTML { return timestamp(i.CreatedAt) }},
		},
		search: []string{"description"},
		filters: []Filter{
			choiceFilter("image_type", "Image type", domain.ImageTypes),
			boolFilter("is_blurred", "Blurred"),
			dateFilter("created_at", "Created"),
		},
		actions: []Action{
			{"blur", "Blur selected images", func(_ context.Context, a service.Actor, ids []uint) (int64, error) {
				return mod.BlurImages(a, ids, true)
			}},
			{"unblur", "Unblur selected images", func(_ context.Context, a service.Actor, ids []uint) (int64, error) {
				return mod.BlurImages(a, ids, false)
			}},
			deleteAction(mod, service.ResourceImages),
		},
		preloads: []string{"Report"},
		id:       func(i *models.IncidentImage) uint { return i.ID },
		label:    func(i *models.IncidentImage) string { return fmt.Sprintf("Image #%d", i.ID) },
	})

	register(c, &ModelResource[models.IncidentVideo]{
		slug:  service.ResourceVideos,
		title: "Incident videos",
		columns: []Column[models.IncidentVideo]{
			{"Video", func(v *models.IncidentVideo) template.HTML { return fileLink(url(v.Video), "Open video") }},
			{"Report", func(v *models.IncidentVideo) template.HTML { return link(service.ResourceReports, v.ReportID, reportTitle(v.Report)) }},
			{"Description", func(v *models.IncidentVideo) template.HTML { return excerpt(v.Description, 60) }},
			{"Created", func(v *models.IncidentVideo) template.HTML { return timestamp(v.CreatedAt) }},
		},
		fields: []Column[models.IncidentVideo]{
			{"Video", func(v *models.IncidentVideo) template.HTML { return fileLink(url(v.Video), v.Video) }},
			{"Report", func(v *models.IncidentVideo) template.HTML { return link(service.ResourceReports, v.ReportID, reportTitle(v.Report)) }},
			{"Description", func(v *models.IncidentVideo) template.HTML { return text(v.Description) }},
			{"Created", func(v *models.IncidentVideo) template.HTML { return timestamp(v.CreatedAt) }},
		},
		search:   []string{"description"},
		filters:  []Filter{dateFilter("created_at", "Created")},
		actions:  []Action{deleteAction(mod, service.ResourceVideos)},
		preloads: []string{"Report"},
		id:       func(v *models.IncidentVideo) uint { return v.ID },
		label:    func(v *models.IncidentVideo) string { return fmt.Sprintf("Video #%d", v.ID) },
	})

	register(c, &ModelResource[models.IncidentAudio]{
		slug:  service.ResourceAudio,
		title: "Incident audio",
		columns: []Column[models.IncidentAudio]{
			{"Audio", func(a *models.IncidentAudio) template.HTML { return fileLink(url(a.Audio), "Play audio") }},
			{"Report", func(a *models.IncidentAudio) template.HTML { return link(service.ResourceReports, a.ReportID, reportTitle(a.Report)) }},
			{"Description", func(a *models.IncidentAudio) template.HTML { return excerpt(a.Description, 60) }},
			{"Created", func(a *models.IncidentAudio) template.HTML { return timestamp(a.CreatedAt) }},
		},
		fields: []Column[models.IncidentAudio]{
			{"Audio", func(a *models.IncidentAudio) template.HTML { return fileLink(url(a.Audio), a.Audio) }},
			{"Report", func(a *models.IncidentAudio) template.HTML { return link(service.ResourceReports, a.ReportID, reportTitle(a.Report)) }},
			{"Description", func(a *models.IncidentAudio) template.HTML { return text(a.Description) }},
			{"Created", func(a *models.IncidentAudio) template.HTML { return timestamp(a.CreatedAt) }},
		},
		search:   []string{"description"},
		filters:  []Filter{dateFilter("created_at", "Created")},
		actions:  []Action{deleteAction(mod, service.ResourceAudio)},
		preloads: []string{"Report"},
		id:       func(a *models.IncidentAudio) uint { return a.ID },
		label:    func(a *models.IncidentAudio) string { return fmt.Sprintf("Audio #%d", a.ID) },
	})

	username := func(u *models.User) string {
		if u == nil {
			return ""
		}
		return u.Username
	}
	zoneColumns := []Column[models.SavedZone]{
		{"Name", func(z *models.SavedZone) template.HTML { return link(service.ResourceZones, z.ID, z.Name) }},
		{"User", func(z *models.SavedZone) template.HTML { return link(service.ResourceUsers, z.UserID, username(z.User)) }},
		{"Center", func(z *models.SavedZone) template.HTML { return text(fmt.Sprintf("%.6f, %.6f", z.Latitude, z.Longitude)) }},
		{"Radius (km)", func(z *models.SavedZone) template.HTML { return text(fmt.Sprintf("%.2f", z.Radius)) }},
		{"Created", func(z *models.SavedZone) template.HTML { return timestamp(z.CreatedAt) }},
	}
	register(c, &ModelResource[models.SavedZone]{
		slug:     service.ResourceZones,
		title:    "Saved zones",
		columns:  zoneColumns,
		fields:   zoneColumns,
		search:   []string{"name"},
		filters:  []Filter{dateFilter("created_at", "Created")},
		actions:  []Action{deleteAction(mod, service.ResourceZones)},
		preloads: []string{"User"},
		id:       func(z *models.SavedZone) uint { return z.ID },
		label:    func(z *models.SavedZone) string { return z.Name },
	})

	helpfulColumns := []Column[models.HelpfulReport]{
		{"User", func(h *models.HelpfulReport) template.HTML { return link(service.ResourceUsers, h.UserID, username(h.User)) }},
		{"Report", func(h *models.HelpfulReport) template.HTML { return link(service.ResourceReports, h.ReportID, reportTitle(h.Report)) }},
		{"Created", func(h *models.HelpfulReport) template.HTML { return timestamp(h.CreatedAt) }},
	}
	register(c, &ModelResource[models.HelpfulReport]{
		slug:     service.ResourceHelpful,
		title:    "Helpful marks",
		columns:  helpfulColumns,
		fields:   helpfulColumns,
		filters:  []Filter{dateFilter("created_at", "Created")},
		actions:  []Action{deleteAction(mod, service.ResourceHelpful)},
		preloads: []string{"User", "Report"},
		id:       func(h *models.HelpfulReport) uint { return h.ID },
		label:    func(h *models.HelpfulReport) string { return fmt.Sprintf("Helpful mark #%d", h.ID) },
	})

	register(c, &ModelResource[models.CommunityDiscussion]{
		slug:  service.ResourceDiscussions,
		title: "Community discussions",
		columns: []Column[models.CommunityDiscussion]{
			{"Title", func(d *models.CommunityDiscussion) template.HTML { return link(service.ResourceDiscussions, d.ID, d.Title) }},
			{"Category", func(d *models.CommunityDiscussion) template.HTML { return categoryBadge(domain.DiscussionCategories, d.Category) }},
			{"User", func(d *models.CommunityDiscussion) template.HTML { return link(service.ResourceUsers, d.UserID, d.User.Username) }},
			{"Replies", func(d *models.CommunityDiscussion) template.HTML { return number(d.ReplyCount) }},
			{"Created", func(d *models.CommunityDiscussion) template.HTML { return timestamp(d.CreatedAt) }},
		},
		fields: []Column[models.CommunityDiscussion]{
			{"Title", func(d *models.CommunityDiscussion) template.HTML { return text(d.Title) }},
			{"Category", func(d *models.CommunityDiscussion) template.HTML { return text(d.CategoryLabel()) }},
			{"User", func(d *models.CommunityDiscussion) template.HTML { return link(service.ResourceUsers, d.UserID, d.User.Username) }},
			{"Content", func(d *models.CommunityDiscussion) template.HTML { return text(d.Content) }},
			{"Replies", func(d *models.CommunityDiscussion) template.HTML { return number(d.ReplyCount) }},
			{"Created", func(d *models.CommunityDiscussion) template.HTML { return timestamp(d.CreatedAt) }},
		},
		search: []string{"title", "content"},
		filters: []Filter{
			choiceFilter("category", "Category", domain.DiscussionCategories),
			dateFilter("created_at", "Created"),
		},
		actions:  []Action{deleteAction(mod, service.ResourceDiscussions)},
		preloads: []string{"User"},
		id:       func(d *models.CommunityDiscussion) uint { return d.ID },
		label:    func(d *models.CommunityDiscussion) string { return d.Title },
	})

	discussionTitle := func(d *models.CommunityDiscussion) string {
		if d == nil {
			return ""
		}
		return d.Title
	}
	register(c, &ModelResource[models.DiscussionReply]{
		slug:  service.ResourceReplies,
		title: "Discussion replies",
		columns: []Column[models.DiscussionReply]{
			{"Reply", func(r *models.DiscussionReply) template.HTML { return link(service.ResourceReplies, r.ID, shorten(r.Content, 50)) }},
			{"Discussion", func(r *models.DiscussionReply) template.HTML {
				return link(service.ResourceDiscussions, r.DiscussionID, discussionTitle(r.Discussion))
			}},
			{"User", func(r *models.DiscussionReply) template.HTML { return link(service.ResourceUsers, r.UserID, r.User.Username) }},
			{"Created", func(r *models.DiscussionReply) template.HTML { return timestamp(r.CreatedAt) }},
		},
		fields: []Column[models.DiscussionReply]{
			{"Discussion", func(r *models.DiscussionReply) template.HTML {
				return link(service.ResourceDiscussions, r.DiscussionID, discussionTitle(r.Discussion))
			}},
			{"User", func(r *models.DiscussionReply) template.HTML { return link(service.ResourceUsers, r.UserID, r.User.Username) }},
			{"Content", func(r *models.DiscussionReply) template.HTML { return text(r.Content) }},
			{"Created", func(r *models.DiscussionReply) template.HTML { return timestamp(r.CreatedAt) }},
		},
		search:   []string{"content"},
		filters:  []Filter{dateFilter("created_at", "Created")},
		actions:  []Action{deleteAction(mod, service.ResourceReplies)},
		preloads: []string{"User", "Discussion"},
		id:       func(r *models.DiscussionReply) uint { return r.ID },
		label:    func(r *models.DiscussionReply) string { return fmt.Sprintf("Reply #%d", r.ID) },
	})

	return c
}

func register[T any](c *Console, r *ModelResource[T]) {
	r.repo = c.repo
	r.now = c.now
	c.resources = append(c.resources, r)
	c.bySlug[r.slug] = r
}

// Resources returns every resource in sidebar order.
func (c *Console) Resources() []Resource { return c.resources }

func (c *Console) Resource(slug string) (Resource, bool) {
	r, ok := c.bySlug[slug]
	return r, ok
}

func (c *Console) Stats() (*repository.DashboardStats, error) {
	return c.repo.GetDashboardStats()
}

func deleteAction(mod *service.ModerationService, resource string) Action {
	return Action{
		Name:  "delete",
		Label: "Delete selected",
		Run: func(ctx context.Context, a service.Actor, ids []uint) (int64, error) {
			if err := mod.Delete(ctx, a, resource, ids); err != nil {
				return 0, err
			}
			return int64(len(ids)), nil
		},
	}
}

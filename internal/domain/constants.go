package domain

import "time"

// Choice is one allowed value of an enumerated field plus its display label.
type Choice struct {
	Value string
	Label string
}

const (
	CategoryTheft      = "theft"
	CategoryHarassment = "harassment"
	CategoryAssault    = "assault"
	CategoryRoadDanger = "road_danger"
	CategoryFraud      = "fraud"
	CategoryViolence   = "violence"
	CategoryOther      = "other"
)

var IncidentCategories = []Choice{
	{CategoryTheft, "Theft"},
	{CategoryHarassment, "Harassment"},
	{CategoryAssault, "Assault"},
	{CategoryRoadDanger, "Road Danger"},
	{CategoryFraud, "Fraud/Scam"},
	{CategoryViolence, "Violence"},
	{CategoryOther, "Other"},
}

const (
	SeverityLow      = "low"
	SeverityModerate = "moderate"
	SeverityHigh     = "high"
)

var Severities = []Choice{
	{SeverityLow, "Low"},
	{SeverityModerate, "Moderate"},
	{SeverityHigh, "High"},
}

const (
	ImageTypeSuspect  = "suspect"
	ImageTypeLocation = "location"
	ImageTypeEvidence = "evidence"
)

var ImageTypes = []Choice{
	{ImageTypeSuspect, "Suspect/Offender Photo"},
	{ImageTypeLocation, "Location Photo"},
	{ImageTypeEvidence, "Other Evidence"},
}

const (
	DiscussionAreasToAvoid       = "areas_to_avoid"
	DiscussionSuspiciousActivity = "suspicious_activities"
	DiscussionLostFound          = "lost_found"
	DiscussionGeneral            = "general"
)

var DiscussionCategories = []Choice{
	{DiscussionAreasToAvoid, "Areas to Avoid"},
	{DiscussionSuspiciousActivity, "Suspicious Activities"},
	{DiscussionLostFound, "Lost & Found"},
	{DiscussionGeneral, "General"},
}

// Heatmap time windows, matched against a report's creation time.
const (
	TimeWindowDay   = "24h"
	TimeWindowWeek  = "week"
	TimeWindowMonth = "month"
	TimeWindowAll   = "all"
)

var TimeWindows = []Choice{
	{TimeWindowDay, "Last 24 hours"},
	{TimeWindowWeek, "Last 7 days"},
	{TimeWindowMonth, "Last 30 days"},
	{TimeWindowAll, "All time"},
}

// Listing sizes.
const (
	GalleryPageSize      = 12
	CommunityPageSize    = 10
	AdminPageSize        = 25
	HomeRecentLimit      = 6
	DashboardReportLimit = 5
	DashboardFeedLimit   = 10
	ProfileReportLimit   = 10
)

// Saved zone radius bounds, in km.
const (
	ZoneRadiusMin     = 0.1
	ZoneRadiusMax     = 10.0
	ZoneRadiusDefault = 1.0
)

// ValidRadius reports whether km lies within the saved zone bounds.
func ValidRadius(km float64) bool {
	return km >= ZoneRadiusMin && km <= ZoneRadiusMax
}

// Label returns the display label for value, or value itself when unknown.
func Label(choices []Choice, value string) string {
	for _, c := range choices {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}

// Valid reports whether value is one of choices.
func Valid(choices []Choice, value string) bool {
	for _, c := range choices {
		if c.Value == value {
			return true
		}
	}
	return false
}

// Values returns the raw values of choices, in order.
func Values(choices []Choice) []string {
	out := make([]string, len(choices))
	for i, c := range choices {
		out[i] = c.Value
	}
	return out
}

// TimeWindowStart returns the lower creation-time bound for window relative to now.
// ok is false for "all" and unrecognized windows, which apply no bound.
func TimeWindowStart(window string, now time.Time) (start time.Time, ok bool) {
	switch window {
	case TimeWindowDay:
		return now.Add(-24 * time.Hour), true
	case TimeWindowWeek:
		return now.AddDate(0, 0, -7), true
	case TimeWindowMonth:
		return now.AddDate(0, 0, -30), true
	default:
		return time.Time{}, false
	}
}

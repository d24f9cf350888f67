package admin

import (
	"time"

	"saferoute/internal/domain"

	"gorm.io/gorm"
)

var yesNo = []domain.Choice{{Value: "1", Label: "Yes"}, {Value: "0", Label: "No"}}

// Date filter values.
const (
	DateToday     = "today"
	DatePast7Days = "past_7_days"
	DateThisMonth = "this_month"
	DateThisYear  = "this_year"
)

var dateChoices = []domain.Choice{
	{Value: DateToday, Label: "Today"},
	{Value: DatePast7Days, Label: "Past 7 days"},
	{Value: DateThisMonth, Label: "This month"},
	{Value: DateThisYear, Label: "This year"},
}

func choiceFilter(column, label string, choices []domain.Choice) Filter {
	return Filter{
		Param:   column,
		Label:   label,
		Options: choices,
		Apply: func(db *gorm.DB, value string, _ time.Time) *gorm.DB {
			if !domain.Valid(choices, value) {
				return db
			}
			return db.Where(column+" = ?", value)
		},
	}
}

func boolFilter(column, label string) Filter {
	return Filter{
		Param:   column,
		Label:   label,
		Options: yesNo,
		Apply: func(db *gorm.DB, value string, _ time.Time) *gorm.DB {
			switch value {
			case "1":
				return db.Where(column+" = ?", true)
			case "0":
				return db.Where(column+" = ?", false)
			}
			return db
		},
	}
}

func dateFilter(column, label string) Filter {
	return Filter{
		Param:   column,
		Label:   label,
		Options: dateChoices,
		Apply: func(db *gorm.DB, value string, now time.Time) *gorm.DB {
			since, ok := DateFilterStart(value, now)
			if !ok {
				return db
			}
			return db.Where(column+" >= ?", since.UTC())
		},
	}
}

// DateFilterStart returns the lower bound for a date filter value, in now's
// location.
func DateFilterStart(value string, now time.Time) (time.Time, bool) {
	y, m, d := now.Date()
	loc := now.Location()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	switch value {
	case DateToday:
		return today, true
	case DatePast7Days:
		return today.AddDate(0, 0, -7), true
	case DateThisMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc), true
	case DateThisYear:
		return time.Date(y, 1, 1, 0, 0, 0, 0, loc), true
	}
	return time.Time{}, false
}

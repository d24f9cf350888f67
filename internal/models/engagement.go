package models

import (
	"time"

	"saferoute/internal/domain"
)

type HelpfulReport struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_helpful_user_report" json:"user_id"`
	ReportID  uint      `gorm:"not null;uniqueIndex:idx_helpful_user_report;index" json:"report_id"`
	CreatedAt time.Time `json:"created_at"`

	User   *User           `gorm:"foreignKey:UserID" json:"-"`
	Report *IncidentReport `gorm:"foreignKey:ReportID" json:"-"`
}

func (HelpfulReport) TableName() string {
	return "helpful_reports"
}

type CommunityDiscussion struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Title      string    `gorm:"size:200;not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Category   string    `gorm:"size:30;not null;index" json:"category"`
	ReplyCount int       `gorm:"not null" json:"reply_count"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	User    User              `gorm:"foreignKey:UserID" json:"-"`
	Replies []DiscussionReply `gorm:"foreignKey:DiscussionID" json:"-"`
}

func (CommunityDiscussion) TableName() string {
	return "community_discussions"
}

func (d *CommunityDiscussion) CategoryLabel() string {
	return domain.Label(domain.DiscussionCategories, d.Category)
}

type DiscussionReply struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DiscussionID uint      `gorm:"not null;index" json:"discussion_id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	User       User                 `gorm:"foreignKey:UserID" json:"-"`
	Discussion *CommunityDiscussion `gorm:"foreignKey:DiscussionID" json:"-"`
}

func (DiscussionReply) TableName() string {
	return "discussion_replies"
}

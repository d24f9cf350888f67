package models

import "time"

// SavedZone is a user's circular area of interest. Display-only: zones never
// filter listings.
type SavedZone struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_zone_user_name" json:"-"`
	Name      string    `gorm:"size:200;not null;uniqueIndex:idx_zone_user_name" json:"name"`
	Latitude  float64   `gorm:"type:decimal(9,6);not null" json:"latitude"`
	Longitude float64   `gorm:"type:decimal(9,6);not null" json:"longitude"`
	Radius    float64   `gorm:"type:decimal(5,2);not null" json:"radius"` // km
	CreatedAt time.Time `json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (SavedZone) TableName() string {
	return "saved_zones"
}

package repository

import (
	"saferoute/internal/models"

	"gorm.io/gorm"
)

type ZoneRepository struct {
	db *gorm.DB
}

func NewZoneRepository(db *gorm.DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

// Create returns ErrDuplicate when the user already has a zone of that name.
func (r *ZoneRepository) Create(z *models.SavedZone) error {
	return translate(r.db.Omit("User").Create(z).Error)
}

func (r *ZoneRepository) ListByUser(userID uint) ([]models.SavedZone, error) {
	var list []models.SavedZone
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Order("id ASC").Find(&list).Error
	return list, err
}

func (r *ZoneRepository) Delete(ids []uint) error {
	return r.db.Where("id IN ?", ids).Delete(&models.SavedZone{}).Error
}

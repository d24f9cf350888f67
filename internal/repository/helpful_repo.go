package repository

import (
	"errors"

	"saferoute/internal/models"

	"gorm.io/gorm"
)

type HelpfulRepository struct {
	db *gorm.DB
}

func NewHelpfulRepository(db *gorm.DB) *HelpfulRepository {
	return &HelpfulRepository{db: db}
}

// Mark records that userID found reportID helpful and bumps the report's
// counter in the same transaction. created is false when the pair already
// existed, including when a concurrent request won the unique index.
func (r *HelpfulRepository) Mark(userID, reportID uint) (created bool, err error) {
	err = r.db.Transaction(func(tx *gorm.DB) error {
		mark := &models.HelpfulReport{UserID: userID, ReportID: reportID}
		if err := tx.Omit("User", "Report").Create(mark).Error; err != nil {
			return translate(err)
		}
		return tx.Model(&models.IncidentReport{}).
			Where("id = ?", reportID).
			UpdateColumn("helpful_count", gorm.Expr("helpful_count + ?", 1)).Error
	})
	if errors.Is(err, ErrDuplicate) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *HelpfulRepository) Exists(userID, reportID uint) (bool, error) {
	var n int64
	err := r.db.Model(&models.HelpfulReport{}).
		Where("user_id = ? AND report_id = ?", userID, reportID).
		Count(&n).Error
	return n > 0, err
}

// Delete removes marks and recomputes the affected reports' counters.
func (r *HelpfulRepository) Delete(ids []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var reportIDs []uint
		if err := tx.Model(&models.HelpfulReport{}).Where("id IN ?", ids).Distinct().Pluck("report_id", &reportIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ids).Delete(&models.HelpfulReport{}).Error; err != nil {
			return err
		}
		return recountHelpful(tx, reportIDs)
	})
}

func recountHelpful(tx *gorm.DB, reportIDs []uint) error {
	if len(reportIDs) == 0 {
		return nil
	}
	sub := tx.Model(&models.HelpfulReport{}).
		Select("COUNT(*)").
		Where("helpful_reports.report_id = incident_reports.id")
	return tx.Model(&models.IncidentReport{}).
		Where("id IN ?", reportIDs).
		UpdateColumn("helpful_count", sub).Error
}

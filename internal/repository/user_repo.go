package repository

import (
	"time"

	"saferoute/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	return translate(r.db.Create(u).Error)
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	if err := r.db.Where("email = ?", email).Order("id").First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	var u models.User
	if err := r.db.Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) GetByGoogleID(googleID string) (*models.User, error) {
	var u models.User
	if err := r.db.Where("google_id = ?", googleID).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) UsernameExists(username string) (bool, error) {
	var n int64
	err := r.db.Model(&models.User{}).Where("username = ?", username).Count(&n).Error
	return n > 0, err
}

func (r *UserRepository) SuperuserExists() (bool, error) {
	var n int64
	err := r.db.Model(&models.User{}).Where("is_superuser = ?", true).Count(&n).Error
	return n > 0, err
}

func (r *UserRepository) Update(u *models.User) error {
	return translate(r.db.Save(u).Error)
}

// UpdateProfile writes only the self-service profile columns.
func (r *UserRepository) UpdateProfile(u *models.User) error {
	return translate(r.db.Model(u).Select("first_name", "last_name", "email", "phone", "profile_picture").Updates(u).Error)
}

func (r *UserRepository) TouchLastLogin(id uint, at time.Time) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Update("last_login", at).Error
}

// SetVerified flips the verified flag on ids and returns how many rows changed.
func (r *UserRepository) SetVerified(ids []uint, verified bool) (int64, error) {
	res := r.db.Model(&models.User{}).Where("id IN ?", ids).Update("is_verified", verified)
	return res.RowsAffected, res.Error
}

// Delete removes users and everything they own. Helpful and reply counters
// on other users' records are recomputed afterwards.
func (r *UserRepository) Delete(ids []uint) (media []string, err error) {
	err = r.db.Transaction(func(tx *gorm.DB) error {
		var reportIDs []uint
		if err := tx.Model(&models.IncidentReport{}).Where("user_id IN ?", ids).Pluck("id", &reportIDs).Error; err != nil {
			return err
		}
		refs, err := deleteReports(tx, reportIDs)
		if err != nil {
			return err
		}
		media = refs
		var owned []models.User
		if err := tx.Select("profile_picture", "id_document").Where("id IN ?", ids).Find(&owned).Error; err != nil {
			return err
		}
		for _, u := range owned {
			for _, ref := range []string{u.ProfilePicture, u.IDDocument} {
				if ref != "" {
					media = append(media, ref)
				}
			}
		}

		var markedReports []uint
		if err := tx.Model(&models.HelpfulReport{}).Where("user_id IN ?", ids).Distinct().Pluck("report_id", &markedReports).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id IN ?", ids).Delete(&models.HelpfulReport{}).Error; err != nil {
			return err
		}
		if err := recountHelpful(tx, markedReports); err != nil {
			return err
		}

		var discussionIDs []uint
		if err := tx.Model(&models.CommunityDiscussion{}).Where("user_id IN ?", ids).Pluck("id", &discussionIDs).Error; err != nil {
			return err
		}
		if err := deleteDiscussions(tx, discussionIDs); err != nil {
			return err
		}
		var repliedTo []uint
		if err := tx.Model(&models.DiscussionReply{}).Where("user_id IN ?", ids).Distinct().Pluck("discussion_id", &repliedTo).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id IN ?", ids).Delete(&models.DiscussionReply{}).Error; err != nil {
			return err
		}
		if err := recountReplies(tx, repliedTo); err != nil {
			return err
		}

		if err := tx.Where("user_id IN ?", ids).Delete(&models.SavedZone{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.AuditLog{}).Where("user_id IN ?", ids).Update("user_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.User{}).Error
	})
	return media, err
}

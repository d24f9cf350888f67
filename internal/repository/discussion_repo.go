package repository

import (
	"saferoute/internal/domain"
	"saferoute/internal/models"

	"gorm.io/gorm"
)

type DiscussionRepository struct {
	db *gorm.DB
}

func NewDiscussionRepository(db *gorm.DB) *DiscussionRepository {
	return &DiscussionRepository{db: db}
}

func (r *DiscussionRepository) Create(d *models.CommunityDiscussion) error {
	return r.db.Omit("User").Create(d).Error
}

func (r *DiscussionRepository) GetByID(id uint) (*models.CommunityDiscussion, error) {
	var d models.CommunityDiscussion
	if err := r.db.Preload("User").First(&d, id).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *DiscussionRepository) scope(category string) *gorm.DB {
	q := r.db.Model(&models.CommunityDiscussion{})
	if category != "" && category != "all" {
		q = q.Where("category = ?", category)
	}
	return q
}

// List returns one page of discussions, newest first. category "all" or ""
// matches every category.
func (r *DiscussionRepository) List(category, pageRaw string, size int) ([]models.CommunityDiscussion, domain.Page, error) {
	var total int64
	if err := r.scope(category).Count(&total).Error; err != nil {
		return nil, domain.NewPage("1", 0, size), err
	}
	page := domain.NewPage(pageRaw, total, size)
	var list []models.CommunityDiscussion
	err := r.scope(category).
		Preload("User").
		Order("created_at DESC").Order("id DESC").
		Limit(page.Size).Offset(page.Offset()).
		Find(&list).Error
	return list, page, err
}

// Replies returns a discussion's replies, oldest first.
func (r *DiscussionRepository) Replies(discussionID uint) ([]models.DiscussionReply, error) {
	var list []models.DiscussionReply
	err := r.db.Preload("User").
		Where("discussion_id = ?", discussionID).
		Order("created_at ASC").Order("id ASC").
		Find(&list).Error
	return list, err
}

// AddReply inserts the reply and resets reply_count to the true number of
// replies, inside one transaction.
func (r *DiscussionRepository) AddReply(reply *models.DiscussionReply) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User", "Discussion").Create(reply).Error; err != nil {
			return err
		}
		return recountReplies(tx, []uint{reply.DiscussionID})
	})
}

// Delete removes discussions and their replies.
func (r *DiscussionRepository) Delete(ids []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return deleteDiscussions(tx, ids)
	})
}

// DeleteReplies removes replies and recomputes the parents' reply_count.
func (r *DiscussionRepository) DeleteReplies(ids []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var parents []uint
		if err := tx.Model(&models.DiscussionReply{}).Where("id IN ?", ids).Distinct().Pluck("discussion_id", &parents).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ids).Delete(&models.DiscussionReply{}).Error; err != nil {
			return err
		}
		return recountReplies(tx, parents)
	})
}

func deleteDiscussions(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("discussion_id IN ?", ids).Delete(&models.DiscussionReply{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", ids).Delete(&models.CommunityDiscussion{}).Error
}

func recountReplies(tx *gorm.DB, discussionIDs []uint) error {
	if len(discussionIDs) == 0 {
		return nil
	}
	sub := tx.Model(&models.DiscussionReply{}).
		Select("COUNT(*)").
		Where("discussion_replies.discussion_id = community_discussions.id")
	return tx.Model(&models.CommunityDiscussion{}).
		Where("id IN ?", discussionIDs).
		UpdateColumn("reply_count", sub).Error
}

package service

import (
	"fmt"
	"strings"

	"saferoute/internal/domain"
	"saferoute/internal/models"
	"saferoute/internal/repository"
)

type DiscussionInput struct {
	Title    string
	Content  string
	Category string
}

type DiscussionService struct {
	discussionRepo *repository.DiscussionRepository
}

func NewDiscussionService(discussionRepo *repository.DiscussionRepository) *DiscussionService {
	return &DiscussionService{discussionRepo: discussionRepo}
}

// Create opens a thread. Title and content are required; a missing or
// unknown category falls back to general.
func (s *DiscussionService) Create(userID uint, in DiscussionInput) (*models.CommunityDiscussion, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	verr := domain.NewValidationError()
	switch {
	case in.Title == "":
		verr.Add("title", msgRequired)
	case len([]rune(in.Title)) > 200:
		verr.Add("title", "Ensure this value has at most 200 characters.")
	}
	if in.Content == "" {
		verr.Add("content", msgRequired)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if !domain.Valid(domain.DiscussionCategories, in.Category) {
		in.Category = domain.DiscussionGeneral
	}
	d := &models.CommunityDiscussion{
		UserID:   userID,
		Title:    in.Title,
		Content:  in.Content,
		Category: in.Category,
	}
	if err := s.discussionRepo.Create(d); err != nil {
		return nil, fmt.Errorf("create discussion: %w", err)
	}
	return d, nil
}

// Thread loads a discussion and its replies, oldest reply first.
func (s *DiscussionService) Thread(id uint) (*models.CommunityDiscussion, []models.DiscussionReply, error) {
	d, err := s.discussionRepo.GetByID(id)
	if err != nil {
		return nil, nil, notFound(err)
	}
	replies, err := s.discussionRepo.Replies(id)
	if err != nil {
		return nil, nil, err
	}
	return d, replies, nil
}

// Reply appends to a thread; reply_count is recomputed in the same
// transaction.
func (s *DiscussionService) Reply(discussionID, userID uint, content string) (*models.DiscussionReply, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.FieldError("reply_content", msgRequired)
	}
	if _, err := s.discussionRepo.GetByID(discussionID); err != nil {
		return nil, notFound(err)
	}
	reply := &models.DiscussionReply{DiscussionID: discussionID, UserID: userID, Content: content}
	if err := s.discussionRepo.AddReply(reply); err != nil {
		return nil, fmt.Errorf("add reply: %w", err)
	}
	return reply, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"portal/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateIdeaRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
}

type UpdateIdeaStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=NEW REVIEWING ACCEPTED REJECTED"`
}

type IdeaResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	AuthorID    string `json:"author_id"`
	AuthorName  string `json:"author_name"`
	VoteCount   int    `json:"vote_count"`
	Voted       bool   `json:"voted"`
	CreatedAt   string `json:"created_at"`
}

type VoteResult struct {
	IdeaID    string `json:"idea_id"`
	Voted     bool   `json:"voted"`
	VoteCount int    `json:"vote_count"`
}

// --- Interface ---

type IdeaService interface {
	ListIdeas(ctx context.Context, viewerID, status string) ([]IdeaResponse, error)
	CreateIdea(ctx context.Context, authorID string, req CreateIdeaRequest) (*IdeaResponse, error)
	ToggleVote(ctx context.Context, ideaID, voterID string) (*VoteResult, error)
	UpdateIdeaStatus(ctx context.Context, ideaID, status string) (*IdeaResponse, error)
	DeleteIdea(ctx context.Context, ideaID, requesterID string, isAdmin bool) error
}

type ideaService struct {
	db *gorm.DB
}

func NewIdeaService(db *gorm.DB) IdeaService {
	return &ideaService{db: db}
}

// --- Implementation ---

func (s *ideaService) ListIdeas(ctx context.Context, viewerID, status string) ([]IdeaResponse, error) {
	query := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Votes").
		Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var ideas []model.Idea
	if err := query.Find(&ideas).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch ideas: %w", err)
	}

	res := make([]IdeaResponse, 0, len(ideas))
	for _, idea := range ideas {
		res = append(res, toIdeaResponse(idea, viewerID))
	}
	return res, nil
}

func (s *ideaService) CreateIdea(ctx context.Context, authorID string, req CreateIdeaRequest) (*IdeaResponse, error) {
	author, err := uuid.Parse(authorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author id: %w", err)
	}

	idea := model.Idea{
		AuthorID:    author,
		Title:       req.Title,
		Description: req.Description,
		Status:      model.IdeaNew,
	}
	if err := s.db.WithContext(ctx).Create(&idea).Error; err != nil {
		return nil, fmt.Errorf("failed to create idea: %w", err)
	}
	if err := s.db.WithContext(ctx).Preload("Author").First(&idea, "id = ?", idea.ID).Error; err != nil {
		return nil, err
	}

	resp := toIdeaResponse(idea, authorID)
	return &resp, nil
}

func (s *ideaService) ToggleVote(ctx context.Context, ideaID, voterID string) (*VoteResult, error) {
	id, err := uuid.Parse(ideaID)
	if err != nil {
		return nil, fmt.Errorf("invalid idea id: %w", err)
	}
	voter, err := uuid.Parse(voterID)
	if err != nil {
		return nil, fmt.Errorf("invalid voter id: %w", err)
	}

	var idea model.Idea
	if err := s.db.WithContext(ctx).First(&idea, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("idea not found: %w", err)
	}

	result := VoteResult{IdeaID: ideaID}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var vote model.IdeaVote
		err := tx.Where("idea_id = ? AND user_id = ?", id, voter).First(&vote).Error
		switch {
		case err == nil:
			if err := tx.Delete(&vote).Error; err != nil {
				return fmt.Errorf("failed to remove vote: %w", err)
			}
			result.Voted = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote = model.IdeaVote{IdeaID: id, UserID: voter}
			if err := tx.Create(&vote).Error; err != nil {
				return fmt.Errorf("failed to create vote: %w", err)
			}
			result.Voted = true
		default:
			return err
		}

		var count int64
		if err := tx.Model(&model.IdeaVote{}).Where("idea_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		result.VoteCount = int(count)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *ideaService) UpdateIdeaStatus(ctx context.Context, ideaID, status string) (*IdeaResponse, error) {
	id, err := uuid.Parse(ideaID)
	if err != nil {
		return nil, fmt.Errorf("invalid idea id: %w", err)
	}

	var idea model.Idea
	if err := s.db.WithContext(ctx).Preload("Author").Preload("Votes").First(&idea, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("idea not found: %w", err)
	}

	idea.Status = status
	if err := s.db.WithContext(ctx).Save(&idea).Error; err != nil {
		return nil, fmt.Errorf("failed to update idea: %w", err)
	}

	resp := toIdeaResponse(idea, "")
	return &resp, nil
}

func (s *ideaService) DeleteIdea(ctx context.Context, ideaID, requesterID string, isAdmin bool) error {
	id, err := uuid.Parse(ideaID)
	if err != nil {
		return fmt.Errorf("invalid idea id: %w", err)
	}

	var idea model.Idea
	if err := s.db.WithContext(ctx).First(&idea, "id = ?", id).Error; err != nil {
		return fmt.Errorf("idea not found: %w", err)
	}

	if !isAdmin && idea.AuthorID.String() != requesterID {
		return errors.New("sadece fikir sahibi veya yönetici silebilir")
	}

	return s.db.WithContext(ctx).Delete(&idea).Error
}

// --- Helpers ---

func toIdeaResponse(idea model.Idea, viewerID string) IdeaResponse {
	resp := IdeaResponse{
		ID:          idea.ID.String(),
		Title:       idea.Title,
		Description: idea.Description,
		Status:      idea.Status,
		AuthorID:    idea.AuthorID.String(),
		VoteCount:   len(idea.Votes),
		CreatedAt:   idea.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if idea.Author != nil {
		resp.AuthorName = idea.Author.FirstName + " " + idea.Author.LastName
	}
	for _, v := range idea.Votes {
		if v.UserID.String() == viewerID {
			resp.Voted = true
			break
		}
	}
	return resp
}

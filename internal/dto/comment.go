package dto

import (
	"time"

	"github.com/moritama/project-board-api/internal/models"
)

// CommentAuthorDTO represents the author attached to a comment
type CommentAuthorDTO struct {
	ID          uint64 `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DisplayName string `json:"display_name"`
}

// CommentDTO represents a comment in API responses
type CommentDTO struct {
	ID        uint64            `json:"id"`
	TaskID    string            `json:"task_id"`
	UserID    uint64            `json:"user_id"`
	Content   string            `json:"content"`
	Deleted   bool              `json:"deleted"`
	CreatedAt time.Time         `json:"created_at"`
	User      *CommentAuthorDTO `json:"user,omitempty"`
}

// ToCommentDTO converts a Comment model to CommentDTO
func ToCommentDTO(comment models.Comment) CommentDTO {
	dto := CommentDTO{
		ID:        comment.ID,
		TaskID:    comment.TaskID,
		UserID:    comment.UserID,
		Content:   comment.Content,
		Deleted:   comment.Deleted,
		CreatedAt: comment.CreatedAt,
	}

	if comment.User.ID != 0 {
		dto.User = &CommentAuthorDTO{
			ID:          comment.User.ID,
			FirstName:   comment.User.FirstName,
			LastName:    comment.User.LastName,
			DisplayName: comment.User.DisplayName,
		}
	}

	return dto
}

// ToCommentDTOs converts a slice of comments to DTOs
func ToCommentDTOs(comments []models.Comment) []CommentDTO {
	dtos := make([]CommentDTO, len(comments))
	for i, comment := range comments {
		dtos[i] = ToCommentDTO(comment)
	}
	return dtos
}

package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/moritama/project-board-api/internal/constants"
	"github.com/moritama/project-board-api/internal/models"
	"github.com/moritama/project-board-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrEmptyContent    = errors.New("comment content cannot be empty")
	ErrNotCommentAuthor = errors.New("only the comment author can delete it")
)

// CommentService owns per-task comment threads with soft delete.
type CommentService struct {
	commentRepo repository.CommentRepository
}

// NewCommentService creates a new CommentService.
func NewCommentService(commentRepo repository.CommentRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
	}
}

// CreateComment adds a comment to a task's thread. Blank content is rejected
// before anything is written.
func (s *CommentService) CreateComment(taskID string, authorID uint64, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	comment := &models.Comment{
		TaskID:  taskID,
		UserID:  authorID,
		Content: content,
	}

	if err := s.commentRepo.Create(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return s.commentRepo.FindByIDWithUser(comment.ID)
}

// ListCommentsByTask returns the thread oldest first. Soft-deleted comments
// stay at their original position.
func (s *CommentService) ListCommentsByTask(taskID string) ([]models.Comment, error) {
	comments, err := s.commentRepo.ListByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// SoftDeleteComment marks a comment deleted and replaces its content with the
// fixed placeholder. Only the author may delete; the row is never removed so
// the thread's ordering context survives.
func (s *CommentService) SoftDeleteComment(commentID, requesterID uint64) error {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to find comment: %w", err)
	}

	if comment.UserID != requesterID {
		return ErrNotCommentAuthor
	}

	comment.Deleted = true
	comment.Content = constants.DeletedCommentPlaceholder

	if err := s.commentRepo.Update(comment); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return nil
}

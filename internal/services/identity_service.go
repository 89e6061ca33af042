package services

import (
	"errors"
	"fmt"

	"github.com/moritama/project-board-api/internal/models"
	"github.com/moritama/project-board-api/internal/repository"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

// ExternalProfile is the slice of an identity-provider profile the resolver
// needs. Emails and photos keep the provider's ordering; the first entry of
// each is used when creating a local record.
type ExternalProfile struct {
	ID          string
	DisplayName string
	FirstName   string
	LastName    string
	Emails      []string
	Photos      []string
}

// IdentityService maps external identity-provider profiles to local users.
type IdentityService struct {
	userRepo repository.UserRepository
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(userRepo repository.UserRepository) *IdentityService {
	return &IdentityService{
		userRepo: userRepo,
	}
}

// ResolveUser looks up the local user for an external profile, creating one
// on first login. Idempotent per external ID.
func (s *IdentityService) ResolveUser(profile ExternalProfile) (*models.User, error) {
	user, err := s.userRepo.FindByGoogleID(profile.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user = &models.User{
		GoogleID:    profile.ID,
		DisplayName: profile.DisplayName,
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
	}
	if len(profile.Emails) > 0 {
		user.Email = profile.Emails[0]
	}
	if len(profile.Photos) > 0 {
		user.Image = profile.Photos[0]
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetUser retrieves a user by local ID.
func (s *IdentityService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// SearchUsers finds users whose display name contains the query string.
func (s *IdentityService) SearchUsers(query string) ([]models.User, error) {
	users, err := s.userRepo.SearchByDisplayName(query)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

package repository

import (
	"github.com/moritama/project-board-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByGoogleID finds a user by the external identity-provider ID
func (r *GormUserRepository) FindByGoogleID(googleID string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("google_id = ?", googleID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByDisplayName finds a user by exact display name match
func (r *GormUserRepository) FindByDisplayName(displayName string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("display_name = ?", displayName).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchByDisplayName finds users whose display name contains the query
func (r *GormUserRepository) SearchByDisplayName(query string) ([]models.User, error) {
	var users []models.User
	if err := r.db.Where("display_name LIKE ?", "%"+query+"%").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

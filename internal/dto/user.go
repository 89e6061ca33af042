package dto

import (
	"github.com/moritama/project-board-api/internal/models"
)

// MemberDTO represents a project member in member listings
type MemberDTO struct {
	ID          uint64 `json:"id"`
	DisplayName string `json:"display_name"`
	Image       string `json:"image"`
}

// AssigneeDTO represents an assigned user flattened out of the assignment
// join in task responses
type AssigneeDTO struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Image     string `json:"image"`
}

// ToMemberDTO converts a User model to MemberDTO
func ToMemberDTO(user models.User) MemberDTO {
	return MemberDTO{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Image:       user.Image,
	}
}

// ToMemberDTOs converts a slice of users to member DTOs
func ToMemberDTOs(users []models.User) []MemberDTO {
	members := make([]MemberDTO, len(users))
	for i, user := range users {
		members[i] = ToMemberDTO(user)
	}
	return members
}

// ToAssigneeDTO converts a User model to AssigneeDTO
func ToAssigneeDTO(user models.User) AssigneeDTO {
	return AssigneeDTO{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Image:     user.Image,
	}
}

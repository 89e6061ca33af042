package models

import (
	"time"
)

type User struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	GoogleID    string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"-"`
	DisplayName string    `gorm:"type:varchar(255);not null" json:"display_name"`
	Email       string    `gorm:"type:varchar(255);not null" json:"email"`
	FirstName   string    `gorm:"type:varchar(255)" json:"first_name"`
	LastName    string    `gorm:"type:varchar(255)" json:"last_name"`
	Image       string    `gorm:"type:varchar(512)" json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	OwnedProjects []Project      `gorm:"foreignKey:OwnerID" json:"-"`
	Memberships   []ProjectMember `gorm:"foreignKey:UserID" json:"-"`
	Assignments   []TaskAssignment `gorm:"foreignKey:UserID" json:"-"`
	Comments      []Comment        `gorm:"foreignKey:UserID" json:"-"`
}

package models

import "time"

// ProjectMember grants a non-owner user access to a project. The pair is
// unique; existence of a row is the access grant.
type ProjectMember struct {
	ProjectID string    `gorm:"type:varchar(36);primarykey" json:"project_id"`
	UserID    uint64    `gorm:"primarykey" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ProjectMember) TableName() string {
	return "project_members"
}

package models

import "time"

// TaskAssignment records that a user is assigned to a task. The roster is
// replaced wholesale on every assignment update rather than diffed.
type TaskAssignment struct {
	TaskID    string    `gorm:"type:varchar(36);primarykey" json:"task_id"`
	UserID    uint64    `gorm:"primarykey" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

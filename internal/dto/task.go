package dto

import (
	"time"

	"github.com/moritama/project-board-api/internal/models"
)

// TaskDTO represents a task in API responses. The assignment join is
// flattened into assigned_to rather than exposing the raw rows.
type TaskDTO struct {
	ID          string            `json:"id"`
	ProjectID   string            `json:"project_id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      models.TaskStatus `json:"status"`
	Deadline    *time.Time        `json:"deadline"`
	Attachments []string          `json:"attachments"`
	AssignedTo  []AssigneeDTO     `json:"assigned_to"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TaskListResponse represents a paginated cross-project task list
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		ProjectID:   task.ProjectID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Deadline:    task.Deadline,
		Attachments: task.Attachments,
		AssignedTo:  make([]AssigneeDTO, 0, len(task.Assignments)),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	if dto.Attachments == nil {
		dto.Attachments = []string{}
	}

	for _, assignment := range task.Assignments {
		dto.AssignedTo = append(dto.AssignedTo, ToAssigneeDTO(assignment.User))
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks to DTOs
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	dtos := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		dtos[i] = ToTaskDTO(task)
	}
	return dtos
}

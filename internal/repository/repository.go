package repository

import (
	"github.com/moritama/project-board-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByGoogleID finds a user by the external identity-provider ID
	FindByGoogleID(googleID string) (*models.User, error)

	// FindByDisplayName finds a user by exact display name match
	FindByDisplayName(displayName string) (*models.User, error)

	// SearchByDisplayName finds users whose display name contains the query
	SearchByDisplayName(query string) ([]models.User, error)
}

// ProjectRepository defines the interface for project and membership data access
type ProjectRepository interface {
	// Create creates a new project
	Create(project *models.Project) error

	// FindByID finds a project by ID
	FindByID(id string) (*models.Project, error)

	// ListForUser lists projects owned by or shared with a user,
	// newest-created first, deduplicated by id
	ListForUser(userID uint64) ([]models.Project, error)

	// Update updates a project
	Update(project *models.Project) error

	// Delete deletes a project and all dependent records
	Delete(id string) error

	// AddMember adds a membership row
	AddMember(member *models.ProjectMember) error

	// FindMember finds a specific membership row
	FindMember(projectID string, userID uint64) (*models.ProjectMember, error)

	// ListMembers lists membership rows with users preloaded
	ListMembers(projectID string) ([]models.ProjectMember, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id string, preload ...string) (*models.Task, error)

	// ListByProject lists all tasks of a project with assignees preloaded
	ListByProject(projectID string) ([]models.Task, error)

	// ListByProjects lists tasks across projects ordered by deadline
	// ascending, paginated
	ListByProjects(projectIDs []string, page, pageSize int) ([]models.Task, int64, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete deletes a task together with its assignments and comments
	Delete(id string) error

	// ReplaceAssignments atomically replaces the task's assignment roster
	ReplaceAssignments(taskID string, userIDs []uint64) error

	// CountProjectParticipants counts how many of the given user IDs are the
	// project owner or members of the project
	CountProjectParticipants(projectID string, ownerID uint64, userIDs []uint64) (int64, error)
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create creates a new comment
	Create(comment *models.Comment) error

	// FindByID finds a comment by ID
	FindByID(id uint64) (*models.Comment, error)

	// FindByIDWithUser finds a comment with its author preloaded
	FindByIDWithUser(id uint64) (*models.Comment, error)

	// ListByTask lists a task's comments oldest first with authors preloaded
	ListByTask(taskID string) ([]models.Comment, error)

	// Update updates a comment
	Update(comment *models.Comment) error
}

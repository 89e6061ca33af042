package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/moritama/project-board-api/internal/models"
	"github.com/moritama/project-board-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound     = errors.New("project not found")
	ErrProjectAccessDenied = errors.New("user has no access to this project")
	ErrProjectTitleEmpty   = errors.New("project title cannot be empty")
	ErrDeadlineRequired    = errors.New("project deadline is required")
	ErrMemberNotFound      = errors.New("user not found")
	ErrAlreadyMember       = errors.New("user already added to project")
)

// ProjectService owns project records, the member roster, and the role
// derivation every project- and task-scoped operation is gated on.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, userRepo repository.UserRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
	}
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	Title       string
	Description string
	Deadline    time.Time
	OwnerID     uint64
}

// UpdateProjectInput represents a partial project update. The owner is
// immutable and deliberately absent.
type UpdateProjectInput struct {
	Title       *string
	Description *string
	Deadline    *time.Time
}

// GetRole derives the requester's role on a project: Owner when the project
// was created by the user, Member when a membership row exists, None
// otherwise.
func (s *ProjectService) GetRole(userID uint64, project *models.Project) (models.ProjectRole, error) {
	if project.OwnerID == userID {
		return models.RoleOwner, nil
	}

	if _, err := s.projectRepo.FindMember(project.ID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RoleNone, nil
		}
		return models.RoleNone, fmt.Errorf("failed to check membership: %w", err)
	}

	return models.RoleMember, nil
}

// RequireAccess resolves the project and fails with ErrProjectNotFound when
// it does not exist and ErrProjectAccessDenied when the user holds no role on
// it. This is the single authorization gate of the system.
func (s *ProjectService) RequireAccess(userID uint64, projectID string) (*models.Project, models.ProjectRole, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.RoleNone, ErrProjectNotFound
		}
		return nil, models.RoleNone, fmt.Errorf("failed to find project: %w", err)
	}

	role, err := s.GetRole(userID, project)
	if err != nil {
		return nil, models.RoleNone, err
	}
	if role == models.RoleNone {
		return nil, models.RoleNone, ErrProjectAccessDenied
	}

	return project, role, nil
}

// CreateProject creates a new project owned by the requester.
func (s *ProjectService) CreateProject(input CreateProjectInput) (*models.Project, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrProjectTitleEmpty
	}
	if input.Deadline.IsZero() {
		return nil, ErrDeadlineRequired
	}

	project := &models.Project{
		Title:       input.Title,
		Description: input.Description,
		Deadline:    input.Deadline,
		OwnerID:     input.OwnerID,
	}

	if err := s.projectRepo.Create(project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

// ListProjectsForUser returns owned and shared projects, newest first.
func (s *ProjectService) ListProjectsForUser(userID uint64) ([]models.Project, error) {
	projects, err := s.projectRepo.ListForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject retrieves a project by ID.
func (s *ProjectService) GetProject(projectID string) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// UpdateProject applies a partial update to title, description or deadline.
func (s *ProjectService) UpdateProject(project *models.Project, input UpdateProjectInput) (*models.Project, error) {
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrProjectTitleEmpty
		}
		project.Title = *input.Title
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.Deadline != nil {
		if input.Deadline.IsZero() {
			return nil, ErrDeadlineRequired
		}
		project.Deadline = *input.Deadline
	}

	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return project, nil
}

// DeleteProject removes a project and cascades to its tasks, assignments,
// comments and memberships.
func (s *ProjectService) DeleteProject(projectID string) error {
	if err := s.projectRepo.Delete(projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// AddMember grants a user access to a project, resolving the target by exact
// display name. Adding someone twice is a conflict, not an upsert.
func (s *ProjectService) AddMember(project *models.Project, displayName string) (*models.ProjectMember, error) {
	user, err := s.userRepo.FindByDisplayName(displayName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	if _, err := s.projectRepo.FindMember(project.ID, user.ID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	// The owner already holds full access and is never duplicated into the
	// membership table.
	if user.ID == project.OwnerID {
		return nil, ErrAlreadyMember
	}

	member := &models.ProjectMember{
		ProjectID: project.ID,
		UserID:    user.ID,
	}

	if err := s.projectRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return member, nil
}

// ListMembers returns the owner plus all members, deduplicated by user ID.
func (s *ProjectService) ListMembers(project *models.Project) ([]models.User, error) {
	members, err := s.projectRepo.ListMembers(project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	owner, err := s.userRepo.FindByID(project.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project owner: %w", err)
	}

	users := make([]models.User, 0, len(members)+1)
	seen := make(map[uint64]struct{}, len(members)+1)
	for _, m := range members {
		if _, ok := seen[m.User.ID]; ok {
			continue
		}
		seen[m.User.ID] = struct{}{}
		users = append(users, m.User)
	}
	if _, ok := seen[owner.ID]; !ok {
		users = append(users, *owner)
	}

	return users, nil
}

package services

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/moritama/project-board-api/internal/models"
	"github.com/moritama/project-board-api/internal/repository"
	"github.com/moritama/project-board-api/internal/storage"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrTaskTitleRequired    = errors.New("title is required")
	ErrInvalidStatus        = errors.New("invalid task status")
	ErrDeadlineAfterProject = errors.New("task deadline cannot be after the project deadline")
	ErrNoFiles              = errors.New("no files uploaded")
	ErrAttachmentNotFound   = errors.New("attachment not found on this task")
	ErrInvalidAssignee      = errors.New("one or more users are not members of this project")
)

// TaskService owns the task board: the status lifecycle, attachments metadata
// and the assignment roster. Authorization is performed by the middleware
// before any of these methods run.
type TaskService struct {
	taskRepo repository.TaskRepository
	store    storage.Store
	janitor  *storage.Janitor
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskRepo repository.TaskRepository, store storage.Store, janitor *storage.Janitor) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		store:    store,
		janitor:  janitor,
	}
}

// CreateTaskInput represents input for creating a task.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Deadline    *time.Time
}

// UpdateTaskInput represents a partial task update.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	Deadline      *time.Time
	ClearDeadline bool
}

// AttachmentUpload is a single uploaded file to store.
type AttachmentUpload struct {
	Filename string
	Content  io.Reader
}

// CreateTask creates a task on the project's board. Status defaults to
// "To Do"; the deadline must not postdate the project deadline.
func (s *TaskService) CreateTask(project *models.Project, input CreateTaskInput) (*models.Task, error) {
	if input.Title == "" {
		return nil, ErrTaskTitleRequired
	}

	if input.Status == "" {
		input.Status = models.TaskStatusToDo
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	if err := checkDeadline(project, input.Deadline); err != nil {
		return nil, err
	}

	task := &models.Task{
		ProjectID:   project.ID,
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Deadline:    input.Deadline,
		Attachments: models.AttachmentList{},
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// ListTasksByProject returns the project's tasks with assignees preloaded.
func (s *TaskService) ListTasksByProject(projectID string) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// ListTasksForUser returns tasks across all of the user's accessible
// projects, soonest deadline first.
func (s *TaskService) ListTasksForUser(projects []models.Project, page, pageSize int) ([]models.Task, int64, error) {
	projectIDs := make([]string, len(projects))
	for i, p := range projects {
		projectIDs[i] = p.ID
	}

	tasks, total, err := s.taskRepo.ListByProjects(projectIDs, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with assignees preloaded.
func (s *TaskService) GetTask(taskID string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Assignments", "Assignments.User")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// UpdateTask applies a partial update. Any status is reachable from any
// other; the board allows arbitrary moves in either direction.
func (s *TaskService) UpdateTask(task *models.Task, project *models.Project, input UpdateTaskInput) (*models.Task, error) {
	if input.Title != nil {
		if *input.Title == "" {
			return nil, ErrTaskTitleRequired
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		task.Status = *input.Status
	}
	if input.ClearDeadline {
		task.Deadline = nil
	} else if input.Deadline != nil {
		if err := checkDeadline(project, input.Deadline); err != nil {
			return nil, err
		}
		task.Deadline = input.Deadline
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, "Assignments", "Assignments.User")
}

// DeleteTask removes a task and cascades to its comments and assignments.
func (s *TaskService) DeleteTask(taskID string) error {
	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// AddAttachments stores each uploaded file and appends the resulting paths to
// the task's attachment list. The list is append-only until an explicit
// removal.
func (s *TaskService) AddAttachments(task *models.Task, uploads []AttachmentUpload) ([]string, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}

	paths := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		path, err := s.store.Save(upload.Filename, upload.Content)
		if err != nil {
			// Roll back files stored so far; the task row was never touched.
			for _, p := range paths {
				s.janitor.Schedule(p)
			}
			return nil, fmt.Errorf("failed to store attachment: %w", err)
		}
		paths = append(paths, path)
	}

	task.Attachments = append(task.Attachments, paths...)
	if err := s.taskRepo.Update(task); err != nil {
		for _, p := range paths {
			s.janitor.Schedule(p)
		}
		return nil, fmt.Errorf("failed to update task attachments: %w", err)
	}

	return paths, nil
}

// RemoveAttachment removes exactly one matching entry from the attachment
// list. Metadata is the source of truth: the physical delete runs afterwards
// as a retryable cleanup and its failure never fails this call.
func (s *TaskService) RemoveAttachment(task *models.Task, path string) error {
	index := -1
	for i, p := range task.Attachments {
		if p == path {
			index = i
			break
		}
	}
	if index < 0 {
		return ErrAttachmentNotFound
	}

	task.Attachments = append(task.Attachments[:index], task.Attachments[index+1:]...)
	if err := s.taskRepo.Update(task); err != nil {
		return fmt.Errorf("failed to update task attachments: %w", err)
	}

	s.janitor.Schedule(path)
	return nil
}

// AssignMembers replaces the task's entire assignment roster with the given
// set. Callers pass the full desired set each time, not a delta; concurrent
// calls are last-write-wins.
func (s *TaskService) AssignMembers(task *models.Task, project *models.Project, userIDs []uint64) error {
	userIDs = uniqueUint64(userIDs)

	if len(userIDs) > 0 {
		count, err := s.taskRepo.CountProjectParticipants(project.ID, project.OwnerID, userIDs)
		if err != nil {
			return fmt.Errorf("failed to verify assignees: %w", err)
		}
		if int(count) != len(userIDs) {
			return ErrInvalidAssignee
		}
	}

	if err := s.taskRepo.ReplaceAssignments(task.ID, userIDs); err != nil {
		return fmt.Errorf("failed to assign members: %w", err)
	}

	return nil
}

// checkDeadline rejects task deadlines falling after the project deadline.
func checkDeadline(project *models.Project, deadline *time.Time) error {
	if deadline == nil {
		return nil
	}
	if deadline.After(project.Deadline) {
		return ErrDeadlineAfterProject
	}
	return nil
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}

package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moritama/project-board-api/internal/dto"
	apierrors "github.com/moritama/project-board-api/internal/errors"
	"github.com/moritama/project-board-api/internal/middleware"
	"github.com/moritama/project-board-api/internal/models"
	"github.com/moritama/project-board-api/internal/services"
	"github.com/moritama/project-board-api/internal/utils"
)

// TaskHandler coordinates task board HTTP handlers.
type TaskHandler struct {
	taskService    *services.TaskService
	projectService *services.ProjectService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService, projectService *services.ProjectService) *TaskHandler {
	return &TaskHandler{
		taskService:    taskService,
		projectService: projectService,
	}
}

// CreateTask creates a task on a project board. Project access is checked
// here because the project ID arrives in the body rather than the URL.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		ProjectID   string            `json:"project_id" binding:"required"`
		Title       string            `json:"title" binding:"required"`
		Description string            `json:"description"`
		Status      models.TaskStatus `json:"status"`
		Deadline    *time.Time        `json:"deadline"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, _, err := h.projectService.RequireAccess(userID, req.ProjectID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	task, err := h.taskService.CreateTask(project, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Deadline:    req.Deadline,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// ListTasksByProject returns all tasks of a project with assignees flattened.
func (h *TaskHandler) ListTasksByProject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	projectID := c.Param("projectId")
	if _, _, err := h.projectService.RequireAccess(userID, projectID); err != nil {
		respondProjectError(c, err)
		return
	}

	tasks, err := h.taskService.ListTasksByProject(projectID)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch tasks")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))
}

// ListTasksForUser returns tasks across all accessible projects, soonest
// deadline first.
func (h *TaskHandler) ListTasksForUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	projects, err := h.projectService.ListProjectsForUser(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch projects")
		return
	}

	params := utils.GetPaginationParams(c)
	tasks, total, err := h.taskService.ListTasksForUser(projects, params.Page, params.Limit)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch tasks")
		return
	}

	c.JSON(http.StatusOK, dto.TaskListResponse{
		Tasks:      dto.ToTaskDTOs(tasks),
		Page:       params.Page,
		PageSize:   params.Limit,
		TotalCount: total,
	})
}

// GetTask returns the task loaded by the authorization middleware.
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task))
}

// UpdateTask applies a partial update to title, description, status or
// deadline. A deadline sent as null clears it.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	// Parse raw JSON to distinguish absent fields from explicit nulls.
	var rawReq map[string]any
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var input services.UpdateTaskInput
	if title, ok := rawReq["title"].(string); ok {
		input.Title = &title
	}
	if description, ok := rawReq["description"].(string); ok {
		input.Description = &description
	}
	if rawStatus, ok := rawReq["status"]; ok {
		statusStr, ok := rawStatus.(string)
		if !ok {
			apierrors.BadRequest(c, services.ErrInvalidStatus.Error())
			return
		}
		status := models.TaskStatus(statusStr)
		input.Status = &status
	}
	if rawDeadline, ok := rawReq["deadline"]; ok {
		if rawDeadline == nil {
			input.ClearDeadline = true
		} else if deadlineStr, ok := rawDeadline.(string); ok {
			parsed, err := time.Parse(time.RFC3339, deadlineStr)
			if err != nil {
				apierrors.BadRequest(c, "Invalid deadline format")
				return
			}
			input.Deadline = &parsed
		}
	}

	updated, err := h.taskService.UpdateTask(&task, &project, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// DeleteTask deletes a task and cascades to comments and assignments.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	if err := h.taskService.DeleteTask(task.ID); err != nil {
		apierrors.InternalError(c, "Failed to delete task")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted",
	})
}

// UploadAttachments stores the uploaded files and appends their paths to the
// task's attachment list.
func (h *TaskHandler) UploadAttachments(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		apierrors.BadRequest(c, "Invalid multipart form")
		return
	}

	files := form.File["attachment"]
	uploads := make([]services.AttachmentUpload, 0, len(files))
	opened := make([]io.Closer, 0, len(files))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for _, file := range files {
		src, err := file.Open()
		if err != nil {
			apierrors.InternalError(c, "Failed to read uploaded file")
			return
		}
		opened = append(opened, src)
		uploads = append(uploads, services.AttachmentUpload{
			Filename: file.Filename,
			Content:  src,
		})
	}

	paths, err := h.taskService.AddAttachments(&task, uploads)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Attachments uploaded successfully",
		"attachmentPaths": paths,
	})
}

// DeleteAttachment removes one attachment path from the task. The stored
// object is cleaned up afterwards by the janitor.
func (h *TaskHandler) DeleteAttachment(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	type DeleteAttachmentRequest struct {
		AttachmentPath string `json:"attachment_path" binding:"required"`
	}

	var req DeleteAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.taskService.RemoveAttachment(&task, req.AttachmentPath); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Attachment deleted successfully",
	})
}

// AssignMembers replaces the task's assignment roster with the posted set.
func (h *TaskHandler) AssignMembers(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	type AssignMembersRequest struct {
		AssignedMembers []uint64 `json:"assigned_members"`
	}

	var req AssignMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.taskService.AssignMembers(&task, &project, req.AssignedMembers); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Members assigned to task successfully",
	})
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskTitleRequired),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrDeadlineAfterProject),
		errors.Is(err, services.ErrNoFiles),
		errors.Is(err, services.ErrInvalidAssignee):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrAttachmentNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "")
	}
}

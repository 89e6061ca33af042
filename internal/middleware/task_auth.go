package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/moritama/project-board-api/internal/constants"
	"github.com/moritama/project-board-api/internal/database"
	apierrors "github.com/moritama/project-board-api/internal/errors"
	"github.com/moritama/project-board-api/internal/models"
	"github.com/moritama/project-board-api/internal/repository"
	"github.com/moritama/project-board-api/internal/services"
	"gorm.io/gorm"
)

// RequireTaskAccess gates every task-scoped route. It loads the task from the
// :id parameter and requires a role on the task's parent project: 404 when
// the task or project is missing, 403 when the requester holds no role.
func RequireTaskAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID := c.Param("id")
		if taskID == "" {
			apierrors.BadRequest(c, "Task ID is required")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		db := database.GetDB()

		var task models.Task
		if err := db.
			Preload("Assignments").
			Preload("Assignments.User").
			First(&task, "id = ?", taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.NotFound(c, "Task not found")
			} else {
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		projectService := services.NewProjectService(
			repository.NewProjectRepository(db),
			repository.NewUserRepository(db),
		)

		project, _, err := projectService.RequireAccess(userID, task.ProjectID)
		if err != nil {
			if errors.Is(err, services.ErrProjectNotFound) {
				apierrors.NotFound(c, "Project not found for this task")
			} else {
				respondAccessError(c, err)
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Set(constants.ContextKeyProject, *project)
		c.Next()
	}
}

// GetTask retrieves the task loaded by the authorization middleware.
func GetTask(c *gin.Context) (models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return models.Task{}, false
	}

	task, ok := value.(models.Task)
	return task, ok
}

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
)

// RequireProjectAccess is the mandatory authorization gate for every
// project-scoped route. It resolves the project from the :id parameter,
// derives the requester's role and aborts with 404 when the project is
// missing or 403 when the requester holds no role on it.
func RequireProjectAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID := c.Param("id")
		if projectID == "" {
			apierrors.BadRequest(c, "Project ID is required")
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
		projectService := services.NewProjectService(
			repository.NewProjectRepository(db),
			repository.NewUserRepository(db),
		)

		project, _, err := projectService.RequireAccess(userID, projectID)
		if err != nil {
			respondAccessError(c, err)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyProject, *project)
		c.Next()
	}
}

func respondAccessError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, "Project not found")
	case errors.Is(err, services.ErrProjectAccessDenied):
		apierrors.Forbidden(c, "You do not have access to this project")
	default:
		apierrors.InternalError(c, "")
	}
}

// GetProject retrieves the project loaded by the authorization middleware.
func GetProject(c *gin.Context) (models.Project, bool) {
	value, exists := c.Get(constants.ContextKeyProject)
	if !exists {
		return models.Project{}, false
	}

	project, ok := value.(models.Project)
	return project, ok
}

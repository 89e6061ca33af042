package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/moritama/project-board-api/internal/constants"
	"github.com/moritama/project-board-api/internal/database"
	"github.com/moritama/project-board-api/internal/dto"
	"github.com/moritama/project-board-api/internal/middleware"
	"github.com/moritama/project-board-api/internal/models"
	"github.com/moritama/project-board-api/internal/repository"
	"github.com/moritama/project-board-api/internal/services"
	"github.com/moritama/project-board-api/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// headerAuth replaces the session middleware in tests: the user ID arrives in
// a header and lands in the context under the same key RequireAuth uses.
func headerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Test-User")
		if raw == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(constants.ContextKeyUserID, id)
		c.Next()
	}
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
		&models.TaskAssignment{},
		&models.Comment{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	store, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	janitor := storage.NewJanitor(store)
	janitor.Start()
	t.Cleanup(janitor.Stop)

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	identityService := services.NewIdentityService(userRepo)
	projectService := services.NewProjectService(projectRepo, userRepo)
	taskService := services.NewTaskService(taskRepo, store, janitor)
	commentService := services.NewCommentService(commentRepo)

	projectHandler := NewProjectHandler(projectService, identityService)
	taskHandler := NewTaskHandler(taskService, projectService)
	commentHandler := NewCommentHandler(commentService)

	gin.SetMode(gin.TestMode)
	r := gin.New()

	api := r.Group("/api")
	api.Use(headerAuth())
	{
		projects := api.Group("/projects")
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/:id", middleware.RequireProjectAccess(), projectHandler.GetProject)
			projects.PUT("/:id", middleware.RequireProjectAccess(), projectHandler.UpdateProject)
			projects.DELETE("/:id", middleware.RequireProjectAccess(), projectHandler.DeleteProject)
			projects.POST("/:id/members", middleware.RequireProjectAccess(), projectHandler.AddMember)
			projects.GET("/:id/members", middleware.RequireProjectAccess(), projectHandler.ListMembers)
		}

		tasks := api.Group("/tasks")
		{
			tasks.POST("", taskHandler.CreateTask)
			tasks.DELETE("/comments/:commentId", commentHandler.DeleteComment)
			tasks.GET("/:id", middleware.RequireTaskAccess(), taskHandler.GetTask)
			tasks.PUT("/:id", middleware.RequireTaskAccess(), taskHandler.UpdateTask)
			tasks.PUT("/:id/assign", middleware.RequireTaskAccess(), taskHandler.AssignMembers)
			tasks.POST("/:id/comments", middleware.RequireTaskAccess(), commentHandler.CreateComment)
			tasks.GET("/:id/comments", middleware.RequireTaskAccess(), commentHandler.ListComments)
		}
	}

	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, url string, payload interface{}, userID uint64) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-Test-User", strconv.FormatUint(userID, 10))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createRouterUser(t *testing.T, db *gorm.DB, displayName string) *models.User {
	user := &models.User{
		GoogleID:    "google-" + displayName,
		DisplayName: displayName,
		Email:       displayName + "@example.com",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// TestProjectCollaborationFlow walks the whole collaboration surface: a user
// creates a project, invites a teammate by display name, the teammate works a
// task through the board while an outsider is rejected at every gate.
func TestProjectCollaborationFlow(t *testing.T) {
	r, db := setupRouter(t)

	alice := createRouterUser(t, db, "alice")
	bob := createRouterUser(t, db, "bob")
	mallory := createRouterUser(t, db, "mallory")

	// Alice creates a project.
	w := doJSON(t, r, http.MethodPost, "/api/projects", map[string]interface{}{
		"title":    "Launch Plan",
		"deadline": time.Now().Add(30 * 24 * time.Hour).Format(time.RFC3339),
	}, alice.ID)
	require.Equal(t, http.StatusCreated, w.Code)

	var project dto.ProjectDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &project))

	// Bob cannot see it before being invited.
	w = doJSON(t, r, http.MethodGet, "/api/projects/"+project.ID, nil, bob.ID)
	require.Equal(t, http.StatusForbidden, w.Code)

	// Alice invites Bob by display name.
	w = doJSON(t, r, http.MethodPost, "/api/projects/"+project.ID+"/members", map[string]string{
		"display_name": "bob",
	}, alice.ID)
	require.Equal(t, http.StatusOK, w.Code)

	// Inviting Bob again is a conflict and changes nothing.
	w = doJSON(t, r, http.MethodPost, "/api/projects/"+project.ID+"/members", map[string]string{
		"display_name": "bob",
	}, alice.ID)
	require.Equal(t, http.StatusConflict, w.Code)

	// Bob now opens the project and creates a task on its board.
	w = doJSON(t, r, http.MethodGet, "/api/projects/"+project.ID, nil, bob.ID)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/tasks", map[string]interface{}{
		"project_id": project.ID,
		"title":      "Write announcement",
	}, bob.ID)
	require.Equal(t, http.StatusCreated, w.Code)

	var task dto.TaskDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	require.Equal(t, models.TaskStatusToDo, task.Status)

	// Mallory is shut out of the task entirely.
	w = doJSON(t, r, http.MethodGet, "/api/tasks/"+task.ID, nil, mallory.ID)
	require.Equal(t, http.StatusForbidden, w.Code)

	// Alice assigns the task to Bob with a full-roster replace.
	w = doJSON(t, r, http.MethodPut, "/api/tasks/"+task.ID+"/assign", map[string]interface{}{
		"assigned_members": []uint64{bob.ID},
	}, alice.ID)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/tasks/"+task.ID, nil, alice.ID)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	require.Len(t, task.AssignedTo, 1)
	require.Equal(t, bob.ID, task.AssignedTo[0].ID)

	// Bob moves it across the board.
	w = doJSON(t, r, http.MethodPut, "/api/tasks/"+task.ID, map[string]string{
		"status": "In Progress",
	}, bob.ID)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPut, "/api/tasks/"+task.ID, map[string]string{
		"status": "Completed",
	}, bob.ID)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	require.Equal(t, models.TaskStatusCompleted, task.Status)

	// Bob comments, Alice deletes her own comment but not Bob's.
	w = doJSON(t, r, http.MethodPost, "/api/tasks/"+task.ID+"/comments", map[string]string{
		"content": "Shipped!",
	}, bob.ID)
	require.Equal(t, http.StatusCreated, w.Code)

	var bobComment dto.CommentDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bobComment))

	w = doJSON(t, r, http.MethodDelete, "/api/tasks/comments/"+strconv.FormatUint(bobComment.ID, 10), nil, alice.ID)
	require.Equal(t, http.StatusForbidden, w.Code)

	// An unknown project ID is a 404, not a 403.
	w = doJSON(t, r, http.MethodGet, "/api/projects/no-such-project", nil, alice.ID)
	require.Equal(t, http.StatusNotFound, w.Code)
}

// TestRouter_Unauthenticated verifies the auth gate rejects anonymous calls.
func TestRouter_Unauthenticated(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/projects", nil, 0)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/moritama/project-board-api/internal/constants"
	"github.com/moritama/project-board-api/internal/database"
	"github.com/moritama/project-board-api/internal/dto"
	"github.com/moritama/project-board-api/internal/models"
	"github.com/moritama/project-board-api/internal/repository"
	"github.com/moritama/project-board-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type commentTestEnv struct {
	db             *gorm.DB
	handler        *CommentHandler
	commentService *services.CommentService
}

func setupCommentTestEnv(t *testing.T) commentTestEnv {
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

	commentService := services.NewCommentService(repository.NewCommentRepository(db))
	handler := NewCommentHandler(commentService)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return commentTestEnv{
		db:             db,
		handler:        handler,
		commentService: commentService,
	}
}

func createCommentTestTask(t *testing.T, db *gorm.DB, ownerID uint64) *models.Task {
	project := &models.Project{
		Title:    "Board",
		Deadline: time.Now().Add(30 * 24 * time.Hour),
		OwnerID:  ownerID,
	}
	require.NoError(t, db.Create(project).Error)

	task := &models.Task{Title: "Task", ProjectID: project.ID}
	require.NoError(t, db.Create(task).Error)
	return task
}

func TestCommentHandler_CreateComment(t *testing.T) {
	env := setupCommentTestEnv(t)

	user := createTestProjectUser(t, env.db, "author")
	task := createCommentTestTask(t, env.db, user.ID)

	body, err := json.Marshal(map[string]string{"content": "Looks good"})
	require.NoError(t, err)

	c, w := projectTestContext(http.MethodPost, "/api/tasks/"+task.ID+"/comments", body, user.ID)
	c.Set(constants.ContextKeyTask, *task)

	env.handler.CreateComment(c)

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.CommentDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "Looks good", response.Content)
	require.Equal(t, task.ID, response.TaskID)
	require.NotNil(t, response.User)
	require.Equal(t, "author", response.User.DisplayName)
}

func TestCommentHandler_CreateComment_BlankContent(t *testing.T) {
	env := setupCommentTestEnv(t)

	user := createTestProjectUser(t, env.db, "author")
	task := createCommentTestTask(t, env.db, user.ID)

	body, err := json.Marshal(map[string]string{"content": "   "})
	require.NoError(t, err)

	c, w := projectTestContext(http.MethodPost, "/api/tasks/"+task.ID+"/comments", body, user.ID)
	c.Set(constants.ContextKeyTask, *task)

	env.handler.CreateComment(c)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	env.db.Model(&models.Comment{}).Count(&count)
	require.EqualValues(t, 0, count)
}

func TestCommentHandler_ListComments_OldestFirst(t *testing.T) {
	env := setupCommentTestEnv(t)

	user := createTestProjectUser(t, env.db, "author")
	task := createCommentTestTask(t, env.db, user.ID)

	for _, content := range []string{"first", "second", "third"} {
		_, err := env.commentService.CreateComment(task.ID, user.ID, content)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	c, w := projectTestContext(http.MethodGet, "/api/tasks/"+task.ID+"/comments", nil, user.ID)
	c.Set(constants.ContextKeyTask, *task)

	env.handler.ListComments(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response []dto.CommentDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response, 3)
	require.Equal(t, "first", response[0].Content)
	require.Equal(t, "second", response[1].Content)
	require.Equal(t, "third", response[2].Content)
}

func TestCommentHandler_DeleteComment_SoftDelete(t *testing.T) {
	env := setupCommentTestEnv(t)

	user := createTestProjectUser(t, env.db, "author")
	task := createCommentTestTask(t, env.db, user.ID)

	first, err := env.commentService.CreateComment(task.ID, user.ID, "first")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = env.commentService.CreateComment(task.ID, user.ID, "second")
	require.NoError(t, err)

	c, w := projectTestContext(http.MethodDelete, "/api/tasks/comments/1", nil, user.ID)
	c.Params = append(c.Params, gin.Param{Key: "commentId", Value: strconv.FormatUint(first.ID, 10)})

	env.handler.DeleteComment(c)

	require.Equal(t, http.StatusOK, w.Code)

	// The row survives with placeholder content at its original position.
	comments, err := env.commentService.ListCommentsByTask(task.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.True(t, comments[0].Deleted)
	require.Equal(t, constants.DeletedCommentPlaceholder, comments[0].Content)
	require.Equal(t, "second", comments[1].Content)
}

func TestCommentHandler_DeleteComment_NotAuthor(t *testing.T) {
	env := setupCommentTestEnv(t)

	author := createTestProjectUser(t, env.db, "author")
	other := createTestProjectUser(t, env.db, "other")
	task := createCommentTestTask(t, env.db, author.ID)

	comment, err := env.commentService.CreateComment(task.ID, author.ID, "mine")
	require.NoError(t, err)

	c, w := projectTestContext(http.MethodDelete, "/api/tasks/comments/1", nil, other.ID)
	c.Params = append(c.Params, gin.Param{Key: "commentId", Value: strconv.FormatUint(comment.ID, 10)})

	env.handler.DeleteComment(c)

	require.Equal(t, http.StatusForbidden, w.Code)

	var reloaded models.Comment
	require.NoError(t, env.db.First(&reloaded, comment.ID).Error)
	require.False(t, reloaded.Deleted)
	require.Equal(t, "mine", reloaded.Content)
}

func TestCommentHandler_DeleteComment_NotFound(t *testing.T) {
	env := setupCommentTestEnv(t)

	user := createTestProjectUser(t, env.db, "author")

	c, w := projectTestContext(http.MethodDelete, "/api/tasks/comments/999", nil, user.ID)
	c.Params = append(c.Params, gin.Param{Key: "commentId", Value: "999"})

	env.handler.DeleteComment(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

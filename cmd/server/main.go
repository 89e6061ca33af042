package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/moritama/project-board-api/internal/config"
	"github.com/moritama/project-board-api/internal/constants"
	"github.com/moritama/project-board-api/internal/database"
	"github.com/moritama/project-board-api/internal/handlers"
	"github.com/moritama/project-board-api/internal/logging"
	"github.com/moritama/project-board-api/internal/middleware"
	"github.com/moritama/project-board-api/internal/repository"
	"github.com/moritama/project-board-api/internal/services"
	"github.com/moritama/project-board-api/internal/storage"
)

func main() {
	// Load .env if present, environment variables take precedence
	_ = godotenv.Load()

	cfg := config.Load()

	logging.Init(cfg.LogDir)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.AddIndexes(database.GetDB()); err != nil {
		log.Fatalf("Failed to add indexes: %v", err)
	}

	// Initialize Gin router
	r := gin.Default()

	// CORS for the frontend dev server
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
	}))

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // username (empty for default user)
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	// Configure session options based on environment
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction, // true in production (HTTPS), false in development
		SameSite: 2,            // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Attachment storage with background cleanup
	diskStore, err := storage.NewDiskStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Failed to initialize attachment storage: %v", err)
	}
	janitor := storage.NewJanitor(diskStore)
	janitor.Start()
	defer janitor.Stop()

	// Initialize repositories
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// Initialize services
	identityService := services.NewIdentityService(userRepo)
	projectService := services.NewProjectService(projectRepo, userRepo)
	taskService := services.NewTaskService(taskRepo, diskStore, janitor)
	commentService := services.NewCommentService(commentRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(identityService, cfg)
	projectHandler := handlers.NewProjectHandler(projectService, identityService)
	taskHandler := handlers.NewTaskHandler(taskService, projectService)
	commentHandler := handlers.NewCommentHandler(commentService)
	proxyHandler := handlers.NewProxyHandler()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Project Board API is running",
		})
	})

	// Serve uploaded attachments
	r.Static(constants.AttachmentURLPrefix, cfg.UploadDir)

	// Auth routes (public)
	auth := r.Group("/auth")
	{
		auth.GET("/google", authHandler.GoogleLogin)
		auth.GET("/google/callback", authHandler.GoogleCallback)
		auth.GET("/logout", authHandler.Logout)
		auth.GET("/check", authHandler.Check)
		auth.GET("/current_user", middleware.RequireAuth(), authHandler.GetCurrentUser)
	}

	// API routes
	api := r.Group("/api")
	api.Use(middleware.RequireAuth())
	{
		api.GET("/image-proxy", proxyHandler.ProxyImage)

		// Project routes
		projects := api.Group("/projects")
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/users/search", projectHandler.SearchUsers)
			projects.GET("/:id", middleware.RequireProjectAccess(), projectHandler.GetProject)
			projects.PUT("/:id", middleware.RequireProjectAccess(), projectHandler.UpdateProject)
			projects.DELETE("/:id", middleware.RequireProjectAccess(), projectHandler.DeleteProject)
			projects.POST("/:id/members", middleware.RequireProjectAccess(), projectHandler.AddMember)
			projects.GET("/:id/members", middleware.RequireProjectAccess(), projectHandler.ListMembers)
		}

		// Task routes
		tasks := api.Group("/tasks")
		{
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("", taskHandler.ListTasksForUser)
			tasks.GET("/project/:projectId", taskHandler.ListTasksByProject)
			tasks.DELETE("/comments/:commentId", commentHandler.DeleteComment)
			tasks.GET("/:id", middleware.RequireTaskAccess(), taskHandler.GetTask)
			tasks.PUT("/:id", middleware.RequireTaskAccess(), taskHandler.UpdateTask)
			tasks.DELETE("/:id", middleware.RequireTaskAccess(), taskHandler.DeleteTask)
			tasks.PUT("/:id/assign", middleware.RequireTaskAccess(), taskHandler.AssignMembers)
			tasks.POST("/:id/attachments", middleware.RequireTaskAccess(), taskHandler.UploadAttachments)
			tasks.DELETE("/:id/attachments", middleware.RequireTaskAccess(), taskHandler.DeleteAttachment)
			tasks.POST("/:id/comments", middleware.RequireTaskAccess(), commentHandler.CreateComment)
			tasks.GET("/:id/comments", middleware.RequireTaskAccess(), commentHandler.ListComments)
		}
	}

	// Start server
	log.Println("Server starting on :8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

package handlers

import (
	"time"

	"taskbot/backend/internal/config"
	"taskbot/backend/internal/middleware"
	"taskbot/backend/internal/monitoring"
	"taskbot/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter assembles the full HTTP surface: health and metrics endpoints,
// the authenticated API and the token-guarded admin API.
func NewRouter(cfg *config.Config, svcs *services.Services) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryWithLog())
	router.Use(monitoring.MetricsMiddleware())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", middleware.InitDataHeader, "X-Admin-Token"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.RateLimit.Enabled {
		rps := float64(cfg.RateLimit.RequestsPerMin) / 60.0
		router.Use(middleware.RateLimit(rps, cfg.RateLimit.BurstSize))
	}

	router.GET("/health", monitoring.HealthHandler())
	router.GET("/health/live", monitoring.LivenessHandler())
	router.GET("/metrics", monitoring.MetricsHandler())

	taskHandler := NewTaskHandler(svcs.Tasks)
	listHandler := NewListHandler(svcs.Lists, svcs.Tasks, svcs.Sharing)
	inviteHandler := NewInviteHandler(svcs.Sharing)
	dashboardHandler := NewDashboardHandler(svcs.Dashboard)
	profileHandler := NewProfileHandler(svcs.Users)
	adminHandler := NewAdminHandler(svcs.Users)

	api := router.Group("/api")
	api.Use(middleware.InitDataAuth(cfg.Auth.BotToken, svcs.Users))
	{
		api.POST("/tasks", taskHandler.CreateTask)
		api.GET("/tasks", taskHandler.GetPendingTasks)
		api.GET("/tasks/all", taskHandler.GetAllTasks)
		api.GET("/tasks/search", taskHandler.SearchTasks)
		api.GET("/tasks/:id", taskHandler.GetTaskByID)
		api.PATCH("/tasks/:id", taskHandler.EditTask)
		api.PUT("/tasks/:id/status", taskHandler.UpdateTaskStatus)
		api.DELETE("/tasks/:id", taskHandler.DeleteTask)
		api.DELETE("/tasks", taskHandler.DeleteAllPendingTasks)
		api.GET("/agenda", taskHandler.GetAgenda)

		api.POST("/lists", listHandler.CreateList)
		api.GET("/lists", listHandler.GetLists)
		api.GET("/lists/resolve", listHandler.ResolveList)
		api.PUT("/lists/reorder", listHandler.ReorderLists)
		api.GET("/lists/:id/tasks", listHandler.GetListTasks)
		api.GET("/lists/:id/members", listHandler.GetListMembers)
		api.PATCH("/lists/:id", listHandler.EditList)
		api.PUT("/lists/:id/color", listHandler.EditListColor)
		api.POST("/lists/:id/share", listHandler.ShareList)
		api.POST("/lists/:id/leave", listHandler.LeaveList)
		api.DELETE("/lists/:id", listHandler.DeleteList)
		api.DELETE("/lists", listHandler.DeleteAllLists)

		api.GET("/invites", inviteHandler.GetPendingInvites)
		api.POST("/invites/:list_id/accept", inviteHandler.AcceptInvite)
		api.POST("/invites/:list_id/reject", inviteHandler.RejectInvite)

		api.GET("/dashboard", dashboardHandler.GetDashboard)
		api.PUT("/dashboard/reorder", dashboardHandler.ReorderDashboard)

		api.GET("/me", profileHandler.GetProfile)
		api.PUT("/me/notification-time", profileHandler.UpdateNotificationTime)
		api.PUT("/me/reminder-lead", profileHandler.UpdateReminderLead)
	}

	admin := router.Group("/api/admin")
	admin.Use(middleware.AdminAuth(cfg.Auth.AdminToken))
	{
		admin.GET("/users/pending", adminHandler.GetPendingUsers)
		admin.PUT("/users/:external_id/status", adminHandler.UpdateUserStatus)
		admin.DELETE("/users/:external_id", adminHandler.DeleteUser)
	}

	return router
}

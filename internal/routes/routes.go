package routes

import (
	"time"

	"github.com/campuswatch/ireport-backend/internal/config"
	"github.com/campuswatch/ireport-backend/internal/handlers"
	"github.com/campuswatch/ireport-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	incidentHandler *handlers.IncidentHandler,
	fileHandler *handlers.FileHandler,
	adminHandler *handlers.AdminHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Get("/verify-email", authHandler.VerifyEmail)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/reset-password", authHandler.ResetPassword)

	// Profile (JWT required)
	api.Get("/auth/me", middleware.JWTProtected(cfg), authHandler.Me)
	api.Put("/auth/me", middleware.JWTProtected(cfg), authHandler.UpdateProfile)
	api.Post("/auth/me/profile-image", middleware.JWTProtected(cfg), authHandler.UploadProfileImage)
	api.Post("/auth/change-password", middleware.JWTProtected(cfg), authHandler.ChangePassword)

	// Incidents (JWT required)
	incidents := api.Group("/incidents", middleware.JWTProtected(cfg))
	incidents.Post("/", incidentHandler.Create)
	incidents.Get("/", incidentHandler.List)
	incidents.Get("/search", incidentHandler.Search)
	incidents.Get("/:id", incidentHandler.Get)
	incidents.Put("/:id", incidentHandler.Update)
	incidents.Delete("/:id", incidentHandler.Delete)
	incidents.Get("/:id/comments", incidentHandler.Comments)
	incidents.Post("/:id/comments", incidentHandler.AddComment)
	incidents.Post("/:id/reactions", incidentHandler.ToggleReaction)

	// Files (JWT required)
	files := api.Group("/files", middleware.JWTProtected(cfg))
	files.Post("/upload", fileHandler.Upload)
	files.Get("/info/*", fileHandler.Info)
	files.Get("/download/*", fileHandler.Download)
	files.Delete("/*", fileHandler.Delete)

	// Admin panel (JWT + admin, the latter checked against the database)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(db))

	admin.Get("/dashboard", adminHandler.Dashboard)
	admin.Get("/analytics/categories", adminHandler.CategoryAnalytics)
	admin.Get("/analytics/trends", adminHandler.Trends)
	admin.Get("/analytics/performance", adminHandler.Performance)

	admin.Get("/users", adminHandler.ListUsers)
	admin.Get("/users/:id", adminHandler.UserDetails)
	admin.Put("/users/:id/status", adminHandler.SetUserStatus)
	admin.Put("/users/:id/admin-status", adminHandler.SetAdminStatus)
	admin.Delete("/users/:id", adminHandler.DeleteUser)

	admin.Get("/incidents", adminHandler.IncidentsForModeration)
	admin.Put("/incidents/:id/moderate", adminHandler.ModerateIncident)
	admin.Put("/incidents/bulk-moderate", adminHandler.BulkModerateIncidents)

	admin.Get("/comments", adminHandler.CommentsForModeration)
	admin.Put("/comments/:id/moderate", adminHandler.ModerateComment)

	admin.Get("/logs", adminHandler.AuditLogs)

	admin.Get("/reports/incidents", adminHandler.IncidentsReport)
	admin.Get("/reports/users", adminHandler.UsersReport)
}

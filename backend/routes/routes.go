package routes

import (
	"time"

	"edutwin/backend/config"
	"edutwin/backend/controllers"
	"edutwin/backend/middleware"
	"edutwin/backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	authMiddleware := middleware.AuthMiddleware(cfg)
	teacherOnly := middleware.RoleMiddleware(db, cfg, models.RoleTeacher)

	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)
	app.Post("/api/auth/logout", authMiddleware, authController.Logout)
	app.Get("/api/auth/me", authMiddleware, authController.Me)
	app.Put("/api/auth/password", authMiddleware, authController.ChangePassword)

	// Profile routes
	profileController := controllers.NewProfileController(db, cfg)
	profile := app.Group("/api/profile", authMiddleware)
	profile.Get("/", profileController.GetProfile)
	profile.Put("/", profileController.UpdateProfile)
	profile.Delete("/", profileController.DeleteAccount)
	profile.Put("/email", profileController.UpdateEmail)
	profile.Post("/avatar", profileController.UploadAvatar)
	app.Put("/api/auth/profile", authMiddleware, profileController.UpdateProfile)

	// Class routes (teacher-owned)
	classController := controllers.NewClassController(db, cfg)
	classes := app.Group("/api/classes", authMiddleware)
	classes.Post("/", teacherOnly, classController.CreateClass)
	classes.Get("/teacher/my-classes", teacherOnly, classController.GetMyClasses)
	classes.Get("/:id", teacherOnly, classController.GetClass)
	classes.Put("/:id", teacherOnly, classController.UpdateClass)
	classes.Delete("/:id", teacherOnly, classController.DeleteClass)
	classes.Post("/:id/students", teacherOnly, classController.AddStudent)
	classes.Delete("/:id/students/:studentId", teacherOnly, classController.RemoveStudent)

	// Assignment routes
	assignmentController := controllers.NewAssignmentController(db, cfg)
	assignments := app.Group("/api/assignments", authMiddleware)
	assignments.Post("/", teacherOnly, assignmentController.CreateAssignment)
	assignments.Get("/teacher/my-assignments", teacherOnly, assignmentController.GetMyAssignments)
	assignments.Get("/:id", teacherOnly, assignmentController.GetAssignment)
	assignments.Put("/:id", teacherOnly, assignmentController.UpdateAssignment)
	assignments.Delete("/:id", teacherOnly, assignmentController.DeleteAssignment)
	assignments.Patch("/:id/publish", teacherOnly, assignmentController.TogglePublish)
	assignments.Post("/:id/submissions", assignmentController.SubmitAssignment)
	assignments.Post("/:id/submissions/:studentId/grade", teacherOnly, assignmentController.GradeSubmission)

	// Resource routes; public listings and the view counter stay open
	resourceController := controllers.NewResourceController(db, cfg)
	app.Get("/api/resources/public", resourceController.GetPublicResources)
	app.Get("/api/resources/subject/:subject", resourceController.GetResourcesBySubject)
	app.Get("/api/resources/:id/view", resourceController.IncrementViews)
	resources := app.Group("/api/resources", authMiddleware)
	resources.Post("/", teacherOnly, resourceController.CreateResource)
	resources.Get("/teacher/my-resources", teacherOnly, resourceController.GetMyResources)
	resources.Get("/:id", teacherOnly, resourceController.GetResource)
	resources.Put("/:id", teacherOnly, resourceController.UpdateResource)
	resources.Delete("/:id", teacherOnly, resourceController.DeleteResource)
	resources.Patch("/:id/publish", teacherOnly, resourceController.TogglePublish)
	resources.Patch("/:id/download", resourceController.IncrementDownloads)
	resources.Post("/:id/rate", resourceController.RateResource)

	// Course routes
	courseController := controllers.NewCourseController(db, cfg)
	courses := app.Group("/api/courses", authMiddleware)
	courses.Post("/", teacherOnly, courseController.CreateCourse)
	courses.Get("/", courseController.GetCourses)
	courses.Get("/:id", courseController.GetCourse)
	courses.Post("/:id/lessons", teacherOnly, courseController.AddLesson)

	// Progress routes
	progressController := controllers.NewProgressController(db, cfg)
	progress := app.Group("/api/progress", authMiddleware)
	progress.Get("/:courseId", progressController.GetProgress)
	progress.Put("/:courseId", progressController.UpdateProgress)

	// Notification routes
	notificationController := controllers.NewNotificationController(db, cfg)
	notifications := app.Group("/api/notifications", authMiddleware)
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Patch("/read-all", notificationController.MarkAllRead)
	notifications.Patch("/:id/read", notificationController.MarkRead)

	// Health check
	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
}

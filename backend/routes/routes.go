package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"testplatform/backend/config"
	"testplatform/backend/controllers"
	"testplatform/backend/middleware"
	"testplatform/backend/models"
	"testplatform/backend/services"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, logger *log.Logger) {
	// Services
	authService := services.NewAuthService(db, cfg, logger)
	testService := services.NewTestService(db, logger)
	attemptService := services.NewAttemptService(db, testService, logger)
	analyticsService := services.NewAnalyticsService(db, testService, logger)
	aiService := services.NewAIService(cfg, logger)

	// Controllers
	authController := controllers.NewAuthController(authService, cfg)
	userController := controllers.NewUserController(authService)
	testsController := controllers.NewTestsController(testService, attemptService)
	attemptsController := controllers.NewAttemptsController(attemptService)
	analyticsController := controllers.NewAnalyticsController(analyticsService)
	generateController := controllers.NewGenerateController(aiService)

	// Auth routes
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	teacherOnly := middleware.RequireRole(models.RoleTeacher)
	studentOnly := middleware.RequireRole(models.RoleStudent)

	// User routes
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)

	// Teacher routes
	teacherTests := app.Group("/api/teacher/tests", authMiddleware, teacherOnly)
	teacherTests.Post("/", testsController.CreateTest)
	teacherTests.Get("/", testsController.ListTests)
	teacherTests.Get("/:id", testsController.GetTest)
	teacherTests.Put("/:id", testsController.UpdateTest)
	teacherTests.Delete("/:id", testsController.DeleteTest)
	teacherTests.Post("/:id/questions", testsController.AddQuestion)
	teacherTests.Delete("/:id/questions/:questionId", testsController.DeleteQuestion)
	teacherTests.Post("/:id/publish", testsController.PublishTest)
	teacherTests.Get("/:id/analytics", analyticsController.GetTestAnalytics)
	teacherTests.Get("/:id/export", testsController.ExportResults)

	app.Post("/api/teacher/generate", authMiddleware, teacherOnly, generateController.GenerateQuestions)

	// Student routes
	app.Get("/api/tests/:key", authMiddleware, studentOnly, attemptsController.StartAttempt)
	app.Post("/api/attempts", authMiddleware, studentOnly, attemptsController.SubmitAttempt)
	app.Get("/api/attempts", authMiddleware, studentOnly, attemptsController.ListAttempts)
	app.Get("/api/attempts/:id", authMiddleware, attemptsController.GetResults)
	app.Get("/api/overview", authMiddleware, studentOnly, analyticsController.GetStudentOverview)
	app.Get("/api/improvement", authMiddleware, studentOnly, analyticsController.GetImprovement)
}

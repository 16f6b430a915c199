package controllers

import (
	"github.com/gofiber/fiber/v2"

	"testplatform/backend/middleware"
	"testplatform/backend/services"
	"testplatform/backend/utils"
)

type AnalyticsController struct {
	Analytics *services.AnalyticsService
}

func NewAnalyticsController(analytics *services.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{Analytics: analytics}
}

// GetTestAnalytics returns aggregate score and per-question statistics for a
// test owned by the requesting teacher.
func (ac *AnalyticsController) GetTestAnalytics(c *fiber.Ctx) error {
	testID, err := pathID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid test ID")
	}

	analytics, err := ac.Analytics.TestAnalytics(middleware.UserID(c), testID)
	if err != nil {
		return utils.FromError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, analytics)
}

// GetStudentOverview returns the requesting student's attempt history.
func (ac *AnalyticsController) GetStudentOverview(c *fiber.Ctx) error {
	overview, err := ac.Analytics.StudentOverview(middleware.UserID(c))
	if err != nil {
		return utils.FromError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, overview)
}

// GetImprovement compares the student's pre-test and post-test scores.
func (ac *AnalyticsController) GetImprovement(c *fiber.Ctx) error {
	preID := c.QueryInt("pre_test_id")
	postID := c.QueryInt("post_test_id")
	if preID <= 0 || postID <= 0 {
		return utils.BadRequest(c, "pre_test_id and post_test_id are required")
	}

	improvement, err := ac.Analytics.Improvement(middleware.UserID(c), uint(preID), uint(postID))
	if err != nil {
		return utils.FromError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, improvement)
}

package controllers

import (
	"github.com/gofiber/fiber/v2"

	"testplatform/backend/middleware"
	"testplatform/backend/services"
	"testplatform/backend/utils"
)

type AttemptsController struct {
	Attempts *services.AttemptService
}

func NewAttemptsController(attempts *services.AttemptService) *AttemptsController {
	return &AttemptsController{Attempts: attempts}
}

// StartAttempt resolves an access key entered by a student and returns the
// test questions without correct answers.
func (ac *AttemptsController) StartAttempt(c *fiber.Ctx) error {
	view, err := ac.Attempts.StartAttempt(middleware.UserID(c), c.Params("key"))
	if err != nil {
		return utils.FromError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, view)
}

func (ac *AttemptsController) SubmitAttempt(c *fiber.Ctx) error {
	type SubmitInput struct {
		TestID  uint                   `json:"test_id"`
		Answers []services.AnswerInput `json:"answers"`
	}

	var input SubmitInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	attempt, err := ac.Attempts.SubmitAttempt(middleware.UserID(c), input.TestID, input.Answers)
	if err != nil {
		return utils.FromError(c, err)
	}

	return utils.Created(c, fiber.Map{
		"attempt_id":   attempt.ID,
		"test_id":      attempt.TestID,
		"score":        attempt.Score,
		"completed_at": attempt.CompletedAt,
	})
}

func (ac *AttemptsController) ListAttempts(c *fiber.Ctx) error {
	attempts, err := ac.Attempts.ListStudentAttempts(middleware.UserID(c))
	if err != nil {
		return utils.FromError(c, err)
	}

	result := make([]fiber.Map, 0, len(attempts))
	for _, a := range attempts {
		result = append(result, fiber.Map{
			"attempt_id":   a.ID,
			"test_id":      a.TestID,
			"score":        a.Score,
			"completed_at": a.CompletedAt,
		})
	}
	return utils.Success(c, fiber.StatusOK, result)
}

func (ac *AttemptsController) GetResults(c *fiber.Ctx) error {
	attemptID, err := pathID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid attempt ID")
	}

	result, err := ac.Attempts.AttemptResults(middleware.UserID(c), attemptID)
	if err != nil {
		return utils.FromError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, result)
}

package controllers

import (
	"github.com/gofiber/fiber/v2"

	"testplatform/backend/services"
	"testplatform/backend/utils"
)

type GenerateController struct {
	AI *services.AIService
}

func NewGenerateController(ai *services.AIService) *GenerateController {
	return &GenerateController{AI: ai}
}

// GenerateQuestions returns AI-produced candidate questions for teacher
// review. Nothing is persisted here; approved candidates go through the
// regular add-question endpoint.
func (gc *GenerateController) GenerateQuestions(c *fiber.Ctx) error {
	type GenerateInput struct {
		Topic      string `json:"topic"`
		Syllabus   string `json:"syllabus"`
		Count      int    `json:"count"`
		Difficulty string `json:"difficulty"`
	}

	var input GenerateInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	result, err := gc.AI.GenerateQuestions(c.UserContext(), input.Topic, input.Syllabus, input.Count, input.Difficulty)
	if err != nil {
		return utils.FromError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, result)
}

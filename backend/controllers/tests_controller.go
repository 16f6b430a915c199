package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"testplatform/backend/middleware"
	"testplatform/backend/models"
	"testplatform/backend/services"
	"testplatform/backend/utils"
	"testplatform/backend/validation"
)

type TestsController struct {
	Tests    *services.TestService
	Attempts *services.AttemptService
}

func NewTestsController(tests *services.TestService, attempts *services.AttemptService) *TestsController {
	return &TestsController{Tests: tests, Attempts: attempts}
}

func (tc *TestsController) CreateTest(c *fiber.Ctx) error {
	var input validation.TestInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	test, err := tc.Tests.CreateTest(middleware.UserID(c), input)
	if err != nil {
		return utils.FromError(c, err)
	}
	return utils.Created(c, testSummary(test))
}

func (tc *TestsController) ListTests(c *fiber.Ctx) error {
	tests, err := tc.Tests.ListTeacherTests(middleware.UserID(c))
	if err != nil {
		return utils.FromError(c, err)
	}

	result := make([]fiber.Map, 0, len(tests))
	for i := range tests {
		result = append(result, testSummary(&tests[i]))
	}
	return utils.Success(c, fiber.StatusOK, result)
}

func (tc *TestsController) GetTest(c *fiber.Ctx) error {
	testID, err := pathID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid test ID")
	}

	test, err := tc.Tests.GetTeacherTest(middleware.UserID(c), testID)
	if err != nil {
		return utils.FromError(c, err)
	}

	questions := make([]fiber.Map, 0, len(test.Questions))
	for _, q := range test.Questions {
		options, err := q.OptionList()
		if err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "Could not decode options")
		}
		questions = append(questions, fiber.Map{
			"id":             q.ID,
			"prompt":         q.Prompt,
			"options":        options,
			"correct_answer": q.CorrectAnswer,
			"explanation":    q.Explanation,
			"topic_tag":      q.TopicTag,
			"difficulty":     q.Difficulty,
			"order":          q.SequenceOrder,
		})
	}

	payload := testSummary(test)
	payload["questions"] = questions
	return utils.Success(c, fiber.StatusOK, payload)
}

func (tc *TestsController) UpdateTest(c *fiber.Ctx) error {
	testID, err := pathID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid test ID")
	}

	var input validation.TestInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	test, err := tc.Tests.UpdateTestMetadata(middleware.UserID(c), testID, input)
	if err != nil {
		return utils.FromError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, testSummary(test))
}

func (tc *TestsController) DeleteTest(c *fiber.Ctx) error {
	testID, err := pathID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid test ID")
	}

	if err := tc.Tests.DeleteTest(middleware.UserID(c), testID); err != nil {
		return utils.FromError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (tc *TestsController) AddQuestion(c *fiber.Ctx) error {
	testID, err := pathID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid test ID")
	}

	var input validation.QuestionInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	question, err := tc.Tests.AddQuestion(middleware.UserID(c), testID, input)
	if err != nil {
		return utils.FromError(c, err)
	}

	return utils.Created(c, fiber.Map{
		"id":      question.ID,
		"test_id": question.TestID,
		"order":   question.SequenceOrder,
	})
}

func (tc *TestsController) DeleteQuestion(c *fiber.Ctx) error {
	testID, err := pathID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid test ID")
	}
	questionID, err := pathID(c, "questionId")
	if err != nil {
		return utils.BadRequest(c, "Invalid question ID")
	}

	if err := tc.Tests.DeleteQuestion(middleware.UserID(c), testID, questionID); err != nil {
		return utils.FromError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (tc *TestsController) PublishTest(c *fiber.Ctx) error {
	testID, err := pathID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid test ID")
	}

	test, err := tc.Tests.PublishTest(middleware.UserID(c), testID)
	if err != nil {
		return utils.FromError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, testSummary(test))
}

func (tc *TestsController) ExportResults(c *fiber.Ctx) error {
	testID, err := pathID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid test ID")
	}

	export, err := tc.Attempts.ExportResults(middleware.UserID(c), testID)
	if err != nil {
		return utils.FromError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, export)
}

func testSummary(test *models.Test) fiber.Map {
	summary := fiber.Map{
		"id":          test.ID,
		"title":       test.Title,
		"description": test.Description,
		"test_type":   test.TestType,
		"state":       test.State,
	}
	if test.AccessKey != nil {
		summary["access_key"] = test.AccessKey.Key
	}
	if test.Questions != nil {
		summary["num_questions"] = len(test.Questions)
	}
	return summary
}

func pathID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.Atoi(c.Params(name))
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

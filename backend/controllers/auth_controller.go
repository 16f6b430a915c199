package controllers

import (
	"github.com/gofiber/fiber/v2"

	"testplatform/backend/config"
	"testplatform/backend/services"
	"testplatform/backend/utils"
	"testplatform/backend/validation"
)

type AuthController struct {
	Auth *services.AuthService
	Cfg  *config.Config
}

func NewAuthController(auth *services.AuthService, cfg *config.Config) *AuthController {
	return &AuthController{Auth: auth, Cfg: cfg}
}

// Register godoc
// @Summary Register a new user
// @Description Creates a teacher or student account and returns a JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input validation.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	user, err := ac.Auth.Register(input)
	if err != nil {
		return utils.FromError(c, err)
	}

	token, err := utils.GenerateJWTToken(user.ID, user.Role, ac.Cfg)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Could not generate token")
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
		},
	})
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return a role-scoped JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	type LoginInput struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	var input LoginInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	user, err := ac.Auth.Login(input.Username, input.Password)
	if err != nil {
		return utils.FromError(c, err)
	}

	token, err := utils.GenerateJWTToken(user.ID, user.Role, ac.Cfg)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Could not generate token")
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
		},
	})
}

package controllers

import (
	"github.com/gofiber/fiber/v2"

	"testplatform/backend/middleware"
	"testplatform/backend/services"
	"testplatform/backend/utils"
)

type UserController struct {
	Auth *services.AuthService
}

func NewUserController(auth *services.AuthService) *UserController {
	return &UserController{Auth: auth}
}

func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	user, err := uc.Auth.Profile(middleware.UserID(c))
	if err != nil {
		return utils.FromError(c, err)
	}

	return c.JSON(fiber.Map{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
		"role":     user.Role,
	})
}

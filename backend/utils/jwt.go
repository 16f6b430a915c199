package utils

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"testplatform/backend/config"
)

func GenerateJWTToken(userID uint, role string, cfg *config.Config) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour * 72).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ExtractUserFromToken returns the user id and role carried by the
// Authorization header token.
func ExtractUserFromToken(c *fiber.Ctx, cfg *config.Config) (uint, string, error) {
	tokenString := c.Get("Authorization")
	if tokenString == "" {
		return 0, "", fiber.NewError(fiber.StatusUnauthorized, "Missing authorization token")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})

	if err != nil {
		return 0, "", fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID in token")
	}

	role, ok := claims["role"].(string)
	if !ok {
		return 0, "", fiber.NewError(fiber.StatusUnauthorized, "Invalid role in token")
	}

	return uint(userIDFloat), role, nil
}

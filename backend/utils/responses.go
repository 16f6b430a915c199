package utils

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"testplatform/backend/apperrors"
)

// SuccessResponse is the envelope for successful JSON responses.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the envelope for error responses.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// Success writes a successful JSON response.
func Success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(SuccessResponse{
		Success: true,
		Data:    data,
	})
}

// Created writes a 201 Created response.
func Created(c *fiber.Ctx, data interface{}) error {
	return Success(c, fiber.StatusCreated, data)
}

// Error writes an error response with an explicit status.
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Error:   http.StatusText(status),
		Message: message,
	})
}

// BadRequest writes a 400 Bad Request response.
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// Unauthorized writes a 401 Unauthorized response.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message)
}

// Forbidden writes a 403 Forbidden response.
func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, message)
}

// FromError maps a service error to its HTTP response through the
// apperrors taxonomy; field-level details ride along for validation errors.
func FromError(c *fiber.Ctx, err error) error {
	status := apperrors.HTTPStatus(err)
	resp := ErrorResponse{
		Success: false,
		Error:   http.StatusText(status),
		Message: err.Error(),
	}
	if fields := apperrors.FieldsOf(err); len(fields) > 0 {
		resp.Details = fields
	}
	if status == fiber.StatusInternalServerError {
		// Internal details stay in the log, not the response body.
		resp.Message = "internal server error"
	}
	return c.Status(status).JSON(resp)
}

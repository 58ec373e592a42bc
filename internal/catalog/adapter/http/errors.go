package http

import (
	"plant-shop/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every non-2xx catalog response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError maps an AppError to its HTTP status and machine code. Store
// failures keep the body minimal so clients only ever see the code.
func writeError(c *fiber.Ctx, err error) error {
	status := errors.HTTPStatus(err)
	body := ErrorResponse{Error: errors.Code(err)}
	if errors.IsValidation(err) {
		body.Message = err.Error()
	}
	return c.Status(status).JSON(body)
}

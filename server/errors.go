package server

import (
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Message  string         `json:"message"`
	TextCode string         `json:"text_code,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

var errLogNotFound = goerrors.New("log file not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		code := richErr.Code
		if code == 0 || code >= fiber.StatusInternalServerError {
			s.logger.Error("request failed", "path", c.Path(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Message: "internal server error"})
		}
		return c.Status(code).JSON(ErrorResponse{
			Message:  richErr.Message,
			TextCode: richErr.TextCode,
			Metadata: richErr.Metadata,
		})
	}

	var fiberErr *fiber.Error
	if goerrors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(ErrorResponse{Message: fiberErr.Message})
	}

	s.logger.Error("request failed", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Message: "internal server error"})
}

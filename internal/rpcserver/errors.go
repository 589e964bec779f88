package rpcserver

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	cerrors "github.com/jiisanda/pandapouch/internal/errors"
)

// ProblemDetail follows RFC 7807 for error responses, carrying the
// cluster's error Kind as the problem type.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

var kindStatus = map[cerrors.Kind]int{
	cerrors.KindNotOwner:       fiber.StatusServiceUnavailable,
	cerrors.KindForwardConnect: fiber.StatusBadGateway,
	cerrors.KindForwardRemote:  fiber.StatusBadGateway,
	cerrors.KindBackendError:   fiber.StatusInternalServerError,
	cerrors.KindInvalid:        fiber.StatusBadRequest,
}

// writeError renders err as an RFC 7807 problem-detail body, classifying
// status by the cluster error Kind.
func writeError(c *fiber.Ctx, err error) error {
	kind := cerrors.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = fiber.StatusInternalServerError
	}
	return c.Status(status).JSON(ProblemDetail{
		Type:     string(kind),
		Title:    string(kind),
		Status:   status,
		Detail:   err.Error(),
		Instance: c.Path(),
	})
}

func invalidBody(err error) error {
	return cerrors.Invalid("invalid request body: " + err.Error())
}

func customErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error().
			Err(err).
			Int("status", code).
			Str("path", c.Path()).
			Str("method", c.Method()).
			Msg("unhandled error")

		return c.Status(code).JSON(ProblemDetail{
			Type:     "internal_error",
			Title:    "Internal Server Error",
			Status:   code,
			Detail:   err.Error(),
			Instance: c.Path(),
		})
	}
}

package serverutils

import (
	"errors"

	"prd-builder-be/internal/pkg/apperr"
	"prd-builder-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned further down the chain into the
// JSON error envelope. It must be registered before the routes.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, log, err)
	}
}

// WriteError renders err. Unclassified errors never leak their text.
func WriteError(ctx *fiber.Ctx, log logger.ILogger, err error) error {
	status, body := classify(err)

	if status >= fiber.StatusInternalServerError {
		log.Error("HTTP", "Request failed", map[string]interface{}{
			"method": ctx.Method(),
			"path":   ctx.Path(),
			"code":   body.Code,
			"error":  err.Error(),
		})
	}

	return ctx.Status(status).JSON(ErrorResponse{Error: body})
}

func classify(err error) (int, ErrorBody) {
	if appErr, ok := apperr.As(err); ok {
		return appErr.Kind.Status(), ErrorBody{
			Code:    appErr.Kind.Code(),
			Message: appErr.Message,
			Details: appErr.Details,
		}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		kind := fiberKind(fiberErr.Code)
		status := fiberErr.Code
		message := fiberErr.Message
		if kind == apperr.KindInternal {
			status = fiber.StatusInternalServerError
			message = apperr.Internal(nil).Message
		}
		return status, ErrorBody{Code: kind.Code(), Message: message}
	}

	internal := apperr.Internal(err)
	return internal.Kind.Status(), ErrorBody{Code: internal.Kind.Code(), Message: internal.Message}
}

func fiberKind(status int) apperr.Kind {
	switch {
	case status == fiber.StatusUnauthorized:
		return apperr.KindAuthentication
	case status == fiber.StatusForbidden:
		return apperr.KindAuthorization
	case status == fiber.StatusNotFound, status == fiber.StatusMethodNotAllowed:
		return apperr.KindNotFound
	case status >= 400 && status < 500:
		return apperr.KindValidation
	}
	return apperr.KindInternal
}

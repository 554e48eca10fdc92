package handlers

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/anjiri1684/mixlab_studio/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func statusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation:
		return fiber.StatusBadRequest
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindConflict:
		return fiber.StatusConflict
	case services.KindForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler maps service errors to status codes. Store failure details
// are only exposed in development.
func ErrorHandler(development bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *services.AppError
		if errors.As(err, &appErr) {
			status := statusFor(appErr.Kind)
			message := appErr.Message
			if appErr.Kind == services.KindStore {
				slog.ErrorContext(c.UserContext(), "request failed", "path", c.Path(), "error", err)
				if development {
					message = appErr.Error()
				} else {
					message = "Internal server error"
				}
			}
			code := appErr.Reason
			if code == "" {
				code = string(appErr.Kind)
			}
			return c.Status(status).JSON(fiber.Map{"status": "error", "error": code, "message": message})
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"status": "error", "error": "http", "message": fe.Message})
		}

		slog.ErrorContext(c.UserContext(), "unhandled error", "path", c.Path(), "error", err)
		message := "Internal server error"
		if development {
			message = err.Error()
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "error": "internal", "message": message})
	}
}

// bindJSON parses and validates the request body into req.
func bindJSON(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return services.ValidationError("body", "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return validationFailure(err)
	}
	return nil
}

func validationFailure(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return services.ValidationError("validation", first.Field()+" failed on the '"+first.Tag()+"' rule")
	}
	return services.ValidationError("validation", err.Error())
}

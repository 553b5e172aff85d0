package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-service/internal/api/dto"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

type validatable interface {
	Validate() error
}

func parseAndValidate(c *fiber.Ctx, req validatable) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return dto.AsValidationError(err)
	}
	return nil
}

// respondOutcome renders a boolean command result. A false result without an
// error becomes missing; a notification failure after a committed change keeps
// its 502 but reports the change as applied.
func respondOutcome(c *fiber.Ctx, ok bool, err error, missing error) error {
	if err != nil {
		if ok && errors.Is(err, apperrors.ErrNotification) {
			return withDetails(err, map[string]any{"success": true})
		}
		return err
	}
	if !ok {
		return missing
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"success": true}})
}

func withDetails(err error, details map[string]any) error {
	src := apperrors.ToDomainError(err)
	out := *src
	out.Details = details
	return &out
}

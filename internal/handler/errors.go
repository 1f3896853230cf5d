package handler

import (
	"errors"

	"profitpath-api/internal/ledger"
	"profitpath-api/internal/repository"
	"profitpath-api/internal/service"
	"profitpath-api/pkg/jwt"
	"profitpath-api/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func invalidJSON(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// statusFor maps service and ledger errors onto HTTP statuses.
func statusFor(err error) int {
	var invalid *ledger.InvalidTransactionError
	var unknown *ledger.UnknownEntryTypeError

	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrWrongPassword),
		errors.As(err, &invalid),
		errors.As(err, &unknown):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrTransactionNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrRoleNotFound),
		errors.Is(err, repository.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrFinancialYearClosed),
		errors.Is(err, service.ErrSKUExists),
		errors.Is(err, service.ErrEmailExists):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUserInactive),
		errors.Is(err, service.ErrSessionReplaced),
		errors.Is(err, jwt.ErrInvalidToken),
		errors.Is(err, jwt.ErrMissingToken):
		return fiber.StatusUnauthorized
	}
	return fiber.StatusInternalServerError
}

// respondError writes err as {"error": ...}. Unexpected errors are logged
// and hidden behind a generic message.
func respondError(c *fiber.Ctx, log logrus.FieldLogger, funcName string, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		logger.LogError(log, "handler", funcName, c.Method()+" "+c.Path(), nil, err)
		return c.Status(status).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

package order

import (
	"fmt"

	"github.com/Additional-Code/mesa/internal/entity"
	"github.com/Additional-Code/mesa/pkg/errorbank"
)

func errBadRequest(message string) error {
	return errorbank.BadRequest(message)
}

func errNotFound(message string) error {
	return errorbank.NotFound(message)
}

func errUnauthorized(message string) error {
	return errorbank.Unauthorized(message)
}

func errInternal(message string, cause error) error {
	return errorbank.Internal(message, errorbank.WithCause(cause))
}

func errInvalidTransition(from, to entity.Status) error {
	if from == to {
		return errorbank.InvalidTransition(
			fmt.Sprintf("order in status %s cannot be claimed", from),
			errorbank.WithDetail("status", from.String()),
		)
	}
	return errorbank.InvalidTransition(
		fmt.Sprintf("no transition from %s to %s", from, to),
		errorbank.WithDetail("from", from.String()),
		errorbank.WithDetail("to", to.String()),
	)
}

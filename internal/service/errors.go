package service

import (
	"errors"

	apperrors "athena-be/pkg/errors"
	"athena-be/pkg/validator"
)

// invalidRequest turns a validator failure into a 400. A missing required
// field reports missingMsg when one is given.
func invalidRequest(err error, missingMsg string) error {
	var fe *validator.FieldError
	if errors.As(err, &fe) {
		details := map[string]interface{}{"field": fe.Field}
		if fe.Tag == "required" && missingMsg != "" {
			return apperrors.NewValidationError(missingMsg, details)
		}
		return apperrors.NewValidationError(fe.Message, details)
	}
	return apperrors.NewInternalError("Failed to validate request", err)
}

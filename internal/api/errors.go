package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/lexibox/internal/api/shared"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/service"
	"github.com/phrazzld/lexibox/internal/service/auth"
	"github.com/phrazzld/lexibox/internal/service/card_review"
)

// MapErrorToStatusCode maps an error to an HTTP status code by its domain
// kind.
func MapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// A disabled login endpoint looks absent.
	case errors.Is(err, auth.ErrLoginDisabled):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrAlreadyConsumed),
		errors.Is(err, domain.ErrConflict):
		return http.StatusConflict

	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrTransient):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err. Only
// messages written by this codebase reach clients.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return fmt.Sprintf("Invalid %s: %s", verr.Field, verr.Message)
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, auth.ErrLoginDisabled):
		return "Not found"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, domain.ErrUnauthorized):
		return "Invalid token"

	case errors.Is(err, domain.ErrCardNotFound):
		return "Card not found"
	case errors.Is(err, domain.ErrBoxEntryNotFound):
		return "Card is not scheduled"
	case errors.Is(err, domain.ErrImportSessionNotFound):
		return "Import session not found"
	case errors.Is(err, domain.ErrProposalNotFound):
		return "Proposal not found"
	case errors.Is(err, domain.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, domain.ErrNotFound):
		return "Not found"

	case errors.Is(err, domain.ErrProposalConsumed):
		return "Proposal already accepted or rejected"
	case errors.Is(err, domain.ErrAlreadyConsumed):
		return "Already consumed"

	case errors.Is(err, service.ErrGenerationInProgress):
		return "Generation already in progress"
	case errors.Is(err, domain.ErrConflict):
		return "Concurrent update, please retry"

	case errors.Is(err, domain.ErrInvalidInput):
		return invalidInputMessage(err)

	case errors.Is(err, domain.ErrTransient):
		return "Service temporarily unavailable"

	default:
		return "An unexpected error occurred"
	}
}

// invalidInputMessage exposes the message of a domain sentinel. Sentinels
// read "invalid input: <detail>"; only the detail is shown.
func invalidInputMessage(err error) string {
	for _, sentinel := range knownInputErrors {
		if errors.Is(err, sentinel) {
			msg := sentinel.Error()
			if i := strings.LastIndex(msg, ": "); i >= 0 {
				msg = msg[i+2:]
			}
			return capitalize(msg)
		}
	}
	return "Invalid request"
}

var knownInputErrors = []error{
	service.ErrGenerationUnavailable,
	service.ErrNoProposalIDs,
	card_review.ErrInvalidPage,
	domain.ErrInvalidRating,
	domain.ErrInvalidResponseTime,
	domain.ErrInvalidProficiency,
	domain.ErrInvalidCardStatus,
	domain.ErrCardFrontEmpty,
	domain.ErrCardBackEmpty,
	domain.ErrEmptyContent,
	domain.ErrInvalidID,
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// SanitizeValidationError turns validator errors into a message naming the
// first offending field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}
	var derr *domain.ValidationError
	if errors.As(err, &derr) {
		return fmt.Sprintf("Invalid %s: %s", derr.Field, derr.Message)
	}
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "url", "http_url":
		return "invalid URL"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	case "required_without":
		return "required when the other source is missing"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the error response for err. fallback replaces the
// generic message of unexpected failures.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/Greg-CS/document-parser-sub001/internal/domain/aggregates"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/apierr"
	"github.com/Greg-CS/document-parser-sub001/internal/services"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	respond(c, status, code, nil, err)
}

func respond(c *gin.Context, status int, code string, details any, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
			Details: details,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError renders err with the status its type or aggregate code
// implies.
func RespondServiceError(c *gin.Context, err error) {
	ae := FromError(err)
	if ae.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	respond(c, ae.Status, ae.Code, ae.Details, err)
}

// FromError classifies a service error for the HTTP surface.
func FromError(err error) *apierr.Error {
	if ae, ok := apierr.As(err); ok {
		return ae
	}
	var unknown *services.UnknownCanonicalFieldError
	if errors.As(err, &unknown) {
		return apierr.New(http.StatusUnprocessableEntity, "unknown_canonical_field", err).
			WithDetails(gin.H{"names": unknown.Names})
	}
	var invalid *services.InvalidMappingPayloadError
	if errors.As(err, &invalid) {
		return apierr.New(http.StatusBadRequest, "invalid_mapping_payload", err).
			WithDetails(gin.H{"problems": invalid.Problems})
	}
	switch domainagg.CodeOf(err) {
	case domainagg.CodeValidation:
		return apierr.New(http.StatusBadRequest, "validation_failed", err)
	case domainagg.CodeNotFound:
		return apierr.New(http.StatusNotFound, "not_found", err)
	case domainagg.CodeConflict:
		return apierr.New(http.StatusConflict, "conflict", err)
	case domainagg.CodePreconditionFailed:
		return apierr.New(http.StatusPreconditionFailed, "precondition_failed", err)
	case domainagg.CodeInvariantViolation:
		return apierr.New(http.StatusUnprocessableEntity, "invariant_violation", err)
	case domainagg.CodeRetryable:
		return apierr.New(http.StatusServiceUnavailable, "retryable", err)
	}
	return apierr.New(http.StatusInternalServerError, "internal", err)
}

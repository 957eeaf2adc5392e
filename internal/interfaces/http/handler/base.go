package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/enterprise/backend/internal/domain/channel"
	"github.com/enterprise/backend/internal/domain/enterprise"
	"github.com/enterprise/backend/internal/infrastructure/scheduler"
	"github.com/enterprise/backend/internal/interfaces/http/dto"
	"github.com/enterprise/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// RequestIDKey is the context key for request ID
const RequestIDKey = "X-Request-ID"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	if id := c.GetHeader(RequestIDKey); id != "" {
		return id
	}
	return ""
}

// getUserID extracts the LMS user ID from JWT claims or returns error
func getUserID(c *gin.Context) (int64, error) {
	userIDStr := middleware.GetJWTUserID(c)
	if userIDStr == "" {
		// Fallback to header for development (will be removed in production)
		userIDStr = c.GetHeader("X-User-ID")
	}
	if userIDStr == "" {
		return 0, errors.New("user ID not found in context")
	}
	return strconv.ParseInt(userIDStr, 10, 64)
}

// parseInt64Param parses a numeric path parameter
func parseInt64Param(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	statusCode := dto.GetHTTPStatus(code)
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// Forbidden sends a 403 forbidden response
func (h *BaseHandler) Forbidden(c *gin.Context, message string) {
	h.Error(c, http.StatusForbidden, dto.ErrCodeForbidden, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	h.Error(c, http.StatusConflict, dto.ErrCodeConflict, message)
}

// UnprocessableEntity sends a 422 unprocessable entity response
func (h *BaseHandler) UnprocessableEntity(c *gin.Context, code, message string) {
	h.Error(c, http.StatusUnprocessableEntity, code, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// TooManyRequests sends a 429 too many requests response
func (h *BaseHandler) TooManyRequests(c *gin.Context, message string) {
	h.Error(c, http.StatusTooManyRequests, dto.ErrCodeRateLimited, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	requestID := getRequestID(c)
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		requestID,
		details,
	))
}

// domainErrorCode maps a domain sentinel error to a standardized error code.
// Returns ErrCodeInternal for unrecognized errors.
func domainErrorCode(err error) string {
	switch {
	case errors.Is(err, enterprise.ErrCustomerNotFound),
		errors.Is(err, enterprise.ErrCustomerUserNotFound),
		errors.Is(err, enterprise.ErrCatalogNotFound),
		errors.Is(err, enterprise.ErrEnrollmentNotFound),
		errors.Is(err, channel.ErrConfigNotFound),
		errors.Is(err, channel.ErrChannelNotConfigured),
		errors.Is(err, channel.ErrAuditNotFound):
		return dto.ErrCodeNotFound

	case errors.Is(err, enterprise.ErrCustomerSlugTaken),
		errors.Is(err, enterprise.ErrCustomerAlreadyExists),
		errors.Is(err, enterprise.ErrCustomerUserAlreadyLinked),
		errors.Is(err, enterprise.ErrEnrollmentAlreadyExists),
		errors.Is(err, channel.ErrConfigAlreadyExists):
		return dto.ErrCodeAlreadyExists

	case errors.Is(err, scheduler.ErrSyncAlreadyInProgress):
		return dto.ErrCodeSyncInProgress

	case errors.Is(err, enterprise.ErrEnrollmentNotInCatalog):
		return dto.ErrCodeNotInCatalog

	case errors.Is(err, enterprise.ErrCustomerInactive),
		errors.Is(err, enterprise.ErrCustomerUserNotLinked),
		errors.Is(err, enterprise.ErrEnrollmentModeNotOffered),
		errors.Is(err, enterprise.ErrEnrollmentAuditDisabled),
		errors.Is(err, channel.ErrChannelNotActive):
		return dto.ErrCodeBusinessRule

	case errors.Is(err, enterprise.ErrCustomerInvalidName),
		errors.Is(err, enterprise.ErrCustomerInvalidSlug),
		errors.Is(err, enterprise.ErrCustomerUserInvalidUserID),
		errors.Is(err, enterprise.ErrCatalogInvalidTitle),
		errors.Is(err, enterprise.ErrEnrollmentInvalidCourse),
		errors.Is(err, channel.ErrConfigInvalidCustomerID),
		errors.Is(err, channel.ErrConfigInvalidCode),
		errors.Is(err, channel.ErrChannelUnknownCode),
		errors.Is(err, scheduler.ErrUnknownJobKind):
		return dto.ErrCodeInvalidInput

	case errors.Is(err, channel.ErrChannelUnavailable),
		errors.Is(err, channel.ErrChannelRequestFailed),
		errors.Is(err, channel.ErrChannelAuthFailed):
		return dto.ErrCodeChannelUnavailable

	default:
		return dto.ErrCodeInternal
	}
}

// HandleDomainError converts domain errors to HTTP responses
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	h.HandleError(c, err)
}

// HandleError maps domain sentinel errors to HTTP responses. Errors that do
// not match a known sentinel are returned as internal errors with a generic
// message so internal details never leak to clients.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	requestID := getRequestID(c)

	code := domainErrorCode(err)
	if code == dto.ErrCodeInternal {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInternal,
			"An unexpected error occurred",
			requestID,
		))
		return
	}

	statusCode := dto.GetHTTPStatus(code)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, err.Error(), requestID))
}

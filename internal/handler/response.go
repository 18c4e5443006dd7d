package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cvbatch/internal/domain"
	"cvbatch/internal/logger"
)

// APIResponse is the standard envelope for all JSON API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrSizeExceeded):
		return http.StatusRequestEntityTooLarge, "SIZE_EXCEEDED", "archive exceeds maximum allowed size"
	case errors.Is(err, domain.ErrInvalidArchive):
		return http.StatusBadRequest, "INVALID_ARCHIVE", "upload is not a readable zip archive"
	case errors.Is(err, domain.ErrNoSupportedFiles):
		return http.StatusBadRequest, "NO_SUPPORTED_FILES", "archive contains no pdf or docx files"
	case errors.Is(err, domain.ErrMissingFile):
		return http.StatusBadRequest, "MISSING_FILE", "file field is required"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: zip"
	case errors.Is(err, domain.ErrInvalidReportFormat):
		return http.StatusBadRequest, "INVALID_FORMAT", "unsupported report format; allowed: csv, xlsx"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, "REQUEST_CANCELED", "request was canceled before the batch completed"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		logger.FromContext(c.Request.Context()).WithError(err).Error("internal error")
	}
	RespondError(c, status, code, msg)
}

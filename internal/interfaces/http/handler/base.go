package handler

import (
	"errors"
	"net/http"

	appleasing "github.com/estate/backend/internal/application/leasing"
	"github.com/estate/backend/internal/domain/shared"
	"github.com/estate/backend/internal/infrastructure/logger"
	"github.com/estate/backend/internal/interfaces/http/dto"
	"github.com/estate/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with an explicit status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// BindError reports a failed request binding, listing the rejected fields when there are any
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	if details := middleware.ValidationDetails(err); len(details) > 0 {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
			"Request validation failed",
			middleware.GetRequestID(c),
			details,
		))
		return
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Request body exceeds maximum allowed size")
		return
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, err.Error())
}

// HandleError converts service errors to HTTP responses.
// Provisioning failures are reported by outcome: a failed rollback is a 500
// that asks for manual cleanup, a completed rollback reports the document
// failure, and a failure before anything was committed reports its cause.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	requestID := middleware.GetRequestID(c)

	if pe, ok := appleasing.AsProvisionError(err); ok {
		switch pe.Outcome {
		case appleasing.OutcomeRollbackFailed:
			logger.FromGin(c).Error("provisioning left records behind",
				zap.String("tenant_id", pe.TenantID.String()),
				zap.String("contract_id", pe.ContractID.String()),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeManualCleanupRequired, appleasing.ErrRollbackFailed.Message, requestID))
			return
		case appleasing.OutcomeRolledBack:
			c.JSON(dto.GetHTTPStatus(dto.ErrCodeDocumentAttachFailed), dto.NewErrorResponseWithRequestID(
				dto.ErrCodeDocumentAttachFailed, appleasing.ErrDocumentAttachFailed.Message, requestID))
			return
		}
		err = pe.Cause
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID))
		return
	}

	logger.FromGin(c).Error("request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
	))
}

// pathID parses the :name path parameter as a UUID, writing a 400 when it is not one
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/moderator/internal/app/models/dto"
	"github.com/yigit/moderator/internal/pkg/apperrors"
	"github.com/yigit/moderator/internal/pkg/logger"
)

// ErrorStatus maps an error to its HTTP status and error detail
func ErrorStatus(err error) (int, *dto.ErrorDetail) {
	switch {
	case apperrors.Is(err, apperrors.ErrResourceNotFound, apperrors.ErrEventNotFound, apperrors.ErrQuestionNotFound, apperrors.ErrUserNotFound):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, messageOr(err, "Resource not found"))
	case errors.Is(err, apperrors.ErrEventArchived):
		return http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, "Event is archived")
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, messageOr(err, "Permission denied"))
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")
	case errors.Is(err, apperrors.ErrTokenInvalid):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")
	case apperrors.Is(err, apperrors.ErrUnauthenticated, apperrors.ErrAccountDisabled):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
	case apperrors.Is(err, apperrors.ErrValidationFailed, apperrors.ErrInvalidQuestion, apperrors.ErrUnarchiveForbidden):
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, messageOr(err, "Validation failed"))
		var custom *apperrors.CustomError
		if errors.As(err, &custom) && custom.Details != nil {
			detail.WithDetails(custom.Details)
		}
		return http.StatusBadRequest, detail
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, messageOr(err, "Bad request"))
	case errors.Is(err, apperrors.ErrSlugAlreadyExists):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Event slug already exists")
	case errors.Is(err, apperrors.ErrDuplicateVote):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeConflict, messageOr(err, "Conflict"))
	case errors.Is(err, apperrors.ErrNotificationFailed):
		return http.StatusBadGateway, dto.NewErrorDetail(dto.ErrorCodeExternalServiceError, "Notification could not be delivered")
	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	}
}

// messageOr prefers the message of a CustomError over the fallback
func messageOr(err error, fallback string) string {
	var custom *apperrors.CustomError
	if errors.As(err, &custom) && custom.Message != "" {
		return custom.Message
	}
	for _, sentinel := range []error{
		apperrors.ErrEventNotFound, apperrors.ErrQuestionNotFound, apperrors.ErrUserNotFound,
		apperrors.ErrInvalidQuestion, apperrors.ErrUnarchiveForbidden, apperrors.ErrDuplicateVote,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return fallback
}

// HandleAPIError writes the error envelope for err and aborts the chain
func HandleAPIError(c *gin.Context, err error) {
	status, detail := ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	resp := dto.APIResponse{Error: detail, Timestamp: timeNow()}
	c.AbortWithStatusJSON(status, resp)
}

// HandleBindingError writes a 400 for a request that failed binding or validation
func HandleBindingError(c *gin.Context, err error) {
	resp := dto.APIResponse{Error: dto.HandleValidationError(err), Timestamp: timeNow()}
	c.AbortWithStatusJSON(http.StatusBadRequest, resp)
}

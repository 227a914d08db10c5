package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/moderator/internal/app/models"
	"github.com/yigit/moderator/internal/app/models/dto"
	"github.com/yigit/moderator/internal/pkg/apperrors"
	"github.com/yigit/moderator/internal/pkg/auth"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
	}{
		{"event not found", apperrors.ErrEventNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"wrapped question not found", fmt.Errorf("loading: %w", apperrors.ErrQuestionNotFound), http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"archived", apperrors.ErrEventArchived, http.StatusForbidden, dto.ErrorCodeForbidden},
		{"permission", apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden},
		{"forbidden with message", apperrors.NewForbiddenError("nope"), http.StatusForbidden, dto.ErrorCodeForbidden},
		{"resource not found", apperrors.NewResourceNotFoundError("gone"), http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"bad request", apperrors.NewBadRequestError("Invalid questionId"), http.StatusBadRequest, dto.ErrorCodeInvalidRequest},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
		{"wrapped invalid token", fmt.Errorf("%w: signature is invalid", auth.ErrInvalidToken), http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
		{"unauthenticated", apperrors.ErrUnauthenticated, http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{"disabled", apperrors.ErrAccountDisabled, http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{"validation", apperrors.NewValidationError("bad", map[string]interface{}{"name": "required"}), http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"invalid question", apperrors.ErrInvalidQuestion, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"unarchive", apperrors.ErrUnarchiveForbidden, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"slug taken", apperrors.ErrSlugAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
		{"duplicate vote", apperrors.ErrDuplicateVote, http.StatusConflict, dto.ErrorCodeConflict},
		{"notification", fmt.Errorf("%w: smtp down", apperrors.ErrNotificationFailed), http.StatusBadGateway, dto.ErrorCodeExternalServiceError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, detail := ErrorStatus(tt.err)
			if status != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, status)
			}
			if detail.Code != tt.code {
				t.Fatalf("expected code %s, got %s", tt.code, detail.Code)
			}
		})
	}
}

func TestErrorStatusUsesCustomMessage(t *testing.T) {
	_, detail := ErrorStatus(apperrors.NewForbiddenError("Only superusers can export questions"))
	if detail.Message != "Only superusers can export questions" {
		t.Fatalf("expected custom message, got %q", detail.Message)
	}
	_, detail = ErrorStatus(apperrors.ErrPermissionDenied)
	if detail.Message != "Permission denied" {
		t.Fatalf("expected fallback message, got %q", detail.Message)
	}
}

func TestErrorStatusKeepsValidationDetails(t *testing.T) {
	err := apperrors.NewValidationError("Invalid moderators", map[string]interface{}{"moderatorIds": "unknown user"})
	_, detail := ErrorStatus(err)
	if detail.Message != "Invalid moderators" {
		t.Fatalf("expected custom message, got %q", detail.Message)
	}
	fields, ok := detail.Details.(map[string]interface{})
	if !ok || fields["moderatorIds"] != "unknown user" {
		t.Fatalf("expected field details, got %#v", detail.Details)
	}
}

func TestHandleAPIErrorWritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fixed := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return fixed }
	t.Cleanup(func() { timeNow = time.Now })

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleAPIError(c, apperrors.ErrEventNotFound)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var resp dto.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Error == nil || resp.Error.Message != apperrors.ErrEventNotFound.Error() {
		t.Fatalf("unexpected error detail %+v", resp.Error)
	}
	if !resp.Timestamp.Equal(fixed) {
		t.Fatalf("expected timestamp %v, got %v", fixed, resp.Timestamp)
	}
	if !c.IsAborted() {
		t.Fatalf("expected context to be aborted")
	}
}

func TestSuperuserRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		actor  *models.User
		status int
	}{
		{"no actor", nil, http.StatusUnauthorized},
		{"regular user", &models.User{ID: 1}, http.StatusForbidden},
		{"superuser", &models.User{ID: 2, IsSuperuser: true}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/", func(c *gin.Context) {
				if tt.actor != nil {
					SetActor(c, tt.actor)
				}
				c.Next()
			}, SuperuserRequired(), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestRequestIDReusesIncomingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("requestID")) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Body.String() != "abc-123" || rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("expected request id to be propagated, got body %q header %q", rec.Body.String(), rec.Header().Get(RequestIDHeader))
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Body.Len() == 0 {
		t.Fatalf("expected generated request id")
	}
}

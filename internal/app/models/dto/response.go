package dto

import "time"

// NoticeLevel mirrors the flash levels a front-end renders
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-facing message produced by an operation
type Notice struct {
	Level   NoticeLevel `json:"level" example:"success"`
	Message string      `json:"message" example:"Event successfully created."`
}

// APIResponse is the envelope for every JSON response
type APIResponse struct {
	Data      interface{}  `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	Notices   []Notice     `json:"notices,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewAPIResponse wraps data and notices for a successful call
func NewAPIResponse(data interface{}, notices ...Notice) APIResponse {
	return APIResponse{
		Data:      data,
		Notices:   notices,
		Timestamp: time.Now(),
	}
}

// SuccessResponse represents a standard success response for API endpoints
type SuccessResponse struct {
	Message string `json:"message"`
}

// PaginationInfo describes a page of results
type PaginationInfo struct {
	CurrentPage int   `json:"currentPage" example:"1"`
	TotalPages  int   `json:"totalPages" example:"3"`
	PageSize    int   `json:"pageSize" example:"10"`
	TotalItems  int64 `json:"totalItems" example:"27"`
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"umrahcheck/apperrors"
	"umrahcheck/planner"
)

type errorBody struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
	Details string         `json:"details,omitempty"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Success   bool      `json:"success"`
	LeadToken string    `json:"lead_token,omitempty"`
	Status    string    `json:"status"`
	Error     errorBody `json:"error"`
}

func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeProviderUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.CodeSearchTimeout:
		return http.StatusGatewayTimeout
	case apperrors.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as a structured failure. Internal errors never
// expose their details.
func writeError(c *gin.Context, err error) {
	appErr := apperrors.Normalize(err)
	body := ErrorResponse{
		Success:   false,
		LeadToken: planner.LeadTokenOf(appErr),
		Status:    "failed",
		Error: errorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
		},
	}
	if appErr.Code == apperrors.CodeInvalidInput {
		body.Error.Details = appErr.Details
	}
	c.AbortWithStatusJSON(statusFor(appErr.Code), body)
}

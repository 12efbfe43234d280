package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"speaksea/services"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

// StatusFor maps a pipeline error onto an HTTP status.
func StatusFor(err error) int {
	var decode *services.DecodeError
	var upstream *services.UpstreamError
	var provider *services.ProviderError
	switch {
	case errors.As(err, &decode):
		return http.StatusBadRequest
	case errors.As(err, &upstream), errors.As(err, &provider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorResponse names the failing stage alongside the message.
func NewErrorResponse(err error) ErrorResponse {
	resp := ErrorResponse{Error: err.Error()}
	if stage, ok := services.StageOf(err); ok {
		resp.Stage = string(stage)
	}
	return resp
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	// The caller has gone; there is nobody to answer.
	if c.Request.Context().Err() != nil {
		logger.Info("request abandoned by caller", "path", c.FullPath(), "error", err)
		c.Abort()
		return
	}

	status := StatusFor(err)
	body := NewErrorResponse(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", c.FullPath(), "stage", body.Stage, "error", err)
	}
	c.AbortWithStatusJSON(status, body)
}

// bindError wraps a JSON binding failure so it is reported as bad input.
func bindError(err error) error {
	return &services.DecodeError{Field: "body", Err: err}
}

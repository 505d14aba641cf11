package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"creditdash/internal/db"
	"creditdash/internal/repository"
	"creditdash/internal/service"
	"creditdash/internal/session"
)

// apiResponse always carries data, so an empty result reads as null.
type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data"`
	Meta    map[string]any `json:"meta,omitempty"`
}

type errorResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.AbortWithStatusJSON(status, errorResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// serviceError maps a service or warehouse failure to a response.
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, service.ErrInvalidWatchlist),
		errors.Is(err, service.ErrEmptyQuestion):
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	case errors.Is(err, session.ErrNotFound):
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}

	var qe *db.QueryError
	if errors.As(err, &qe) {
		meta := map[string]any{"kind": string(qe.Kind), "op": qe.Op}
		switch qe.Kind {
		case db.KindConnection:
			Error(c, http.StatusServiceUnavailable, "warehouse unavailable", meta)
		case db.KindPermission:
			Error(c, http.StatusForbidden, "warehouse permission denied", meta)
		case db.KindTimeout:
			Error(c, http.StatusGatewayTimeout, "warehouse query timed out", meta)
		case db.KindMalformed:
			Error(c, http.StatusInternalServerError, "warehouse rejected query", meta)
		default:
			Error(c, http.StatusInternalServerError, "warehouse query failed", meta)
		}
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		Error(c, http.StatusGatewayTimeout, "request timed out", nil)
		return
	}
	Error(c, http.StatusInternalServerError, err.Error(), nil)
}

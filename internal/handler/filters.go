package handler

import (
	"github.com/gin-gonic/gin"

	"creditdash/internal/service"
)

type FilterHandler struct {
	Resolver *service.FilterResolver
	Auth     gin.HandlerFunc
}

func (h *FilterHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/filters", h.Auth, h.options)
}

// @Summary Filter options
// @Tags dashboard
// @Security BearerAuth
// @Success 200 {object} apiResponse
// @Router /api/v1/filters [get]
func (h *FilterHandler) options(c *gin.Context) {
	out, err := h.Resolver.Options(c.Request.Context(), scopeOf(currentSession(c)))
	if err != nil {
		serviceError(c, err)
		return
	}
	Ok(c, out, nil)
}

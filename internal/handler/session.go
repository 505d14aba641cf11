package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"creditdash/internal/session"
)

type SessionHandler struct {
	Tokens   session.Tokens
	Sessions *session.Manager
	Auth     gin.HandlerFunc
	Logger   *zap.Logger
}

func (h *SessionHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/sessions")
	group.POST("", h.create)
	group.DELETE("/current", h.Auth, h.delete)
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// @Summary Start a dashboard session
// @Tags sessions
// @Produce json
// @Success 200 {object} sessionResponse
// @Router /api/v1/sessions [post]
func (h *SessionHandler) create(c *gin.Context) {
	st, err := h.Sessions.Create(c.Request.Context())
	if err != nil {
		Error(c, http.StatusInternalServerError, "session store unavailable", nil)
		return
	}
	tok, exp, err := h.Tokens.Sign(st.ID)
	if err != nil {
		Error(c, http.StatusInternalServerError, "failed to sign token", nil)
		return
	}
	if h.Logger != nil {
		h.Logger.Info("session created", zap.String("session", st.ID))
	}
	Ok(c, sessionResponse{
		SessionID: st.ID,
		Token:     tok,
		ExpiresAt: exp.UTC().Format(time.RFC3339),
	}, nil)
}

// @Summary End the current session
// @Tags sessions
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Router /api/v1/sessions/current [delete]
func (h *SessionHandler) delete(c *gin.Context) {
	st := currentSession(c)
	if st == nil {
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}
	if err := h.Sessions.Delete(c.Request.Context(), st.ID); err != nil {
		Error(c, http.StatusInternalServerError, "session store unavailable", nil)
		return
	}
	Ok(c, gin.H{"session_id": st.ID}, nil)
}

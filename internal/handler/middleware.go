package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"creditdash/internal/session"
)

const sessionKey = "creditdash.session"

// SessionAuth resolves the bearer session token into the stored session
// state. The token may also arrive as ?token= for websocket upgrades, where
// browsers cannot set headers.
type SessionAuth struct {
	Tokens   session.Tokens
	Sessions *session.Manager
}

func (a *SessionAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearerToken(c.GetHeader("Authorization"))
		if tok == "" {
			tok = strings.TrimSpace(c.Query("token"))
		}
		if tok == "" {
			Error(c, http.StatusUnauthorized, "missing bearer token", nil)
			return
		}
		claims, err := a.Tokens.Verify(tok)
		if err != nil {
			Error(c, http.StatusUnauthorized, "invalid session token", nil)
			return
		}
		st, err := a.Sessions.Touch(c.Request.Context(), claims.SessionID())
		if errors.Is(err, session.ErrNotFound) {
			Error(c, http.StatusUnauthorized, "session expired", nil)
			return
		}
		if err != nil {
			Error(c, http.StatusInternalServerError, "session store unavailable", nil)
			return
		}
		c.Set(sessionKey, st)
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.State {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	st, _ := v.(*session.State)
	return st
}

func bearerToken(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	parts := strings.SplitN(v, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if logger == nil {
			return
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		}
		if st := currentSession(c); st != nil {
			fields = append(fields, zap.String("session", st.ID))
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Warn("http request", fields...)
		default:
			logger.Debug("http request", fields...)
		}
	}
}

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

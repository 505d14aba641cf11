package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"creditdash/internal/service"
	"creditdash/internal/session"
)

type ChatHandler struct {
	Chat     *service.ChatService
	Sessions *session.Manager
	Auth     gin.HandlerFunc
	Logger   *zap.Logger
	// OriginPatterns lists extra hosts allowed to open the chat websocket.
	OriginPatterns []string
}

func (h *ChatHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/chat", h.Auth)
	group.GET("", h.history)
	group.GET("/samples", h.samples)
	group.POST("/messages", h.send)
	group.POST("/stream", h.stream)
	group.GET("/ws", h.ws)
	group.POST("/reset", h.reset)
}

type chatRequest struct {
	Content string `json:"content"`
}

type chatHistory struct {
	ThreadID string                `json:"thread_id,omitempty"`
	Messages []session.ChatMessage `json:"messages"`
}

func (h *ChatHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// @Summary Chat transcript
// @Tags chat
// @Security BearerAuth
// @Success 200 {object} apiResponse
// @Router /api/v1/chat [get]
func (h *ChatHandler) history(c *gin.Context) {
	st := currentSession(c)
	if st == nil {
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}
	Ok(c, chatHistory{ThreadID: st.ThreadID, Messages: st.Messages}, map[string]any{"count": len(st.Messages)})
}

// @Summary Sample questions
// @Tags chat
// @Security BearerAuth
// @Success 200 {object} apiResponse
// @Router /api/v1/chat/samples [get]
func (h *ChatHandler) samples(c *gin.Context) {
	Ok(c, h.Chat.SampleQuestions(), nil)
}

func readQuestion(c *gin.Context) (string, bool) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return "", false
	}
	q := strings.TrimSpace(req.Content)
	if q == "" {
		Error(c, http.StatusBadRequest, service.ErrEmptyQuestion.Error(), nil)
		return "", false
	}
	return q, true
}

// ask runs one interaction for the current session and persists the result.
// The save outlives a disconnected client so the transcript stays complete.
func (h *ChatHandler) ask(ctx context.Context, st *session.State, question string, onFragment func(string)) (session.ChatMessage, *session.State, error) {
	next, msg, err := h.Chat.Ask(ctx, st, question, onFragment)
	if err != nil {
		return session.ChatMessage{}, nil, err
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	// The agent call can be long; keep a cache invalidation made meanwhile.
	cur, err := h.Sessions.Get(saveCtx, st.ID)
	if err != nil {
		h.logger().Warn("chat session reload failed", zap.String("session", st.ID), zap.Error(err))
		return msg, next, err
	}
	next.CacheGeneration = cur.CacheGeneration
	if err := h.Sessions.Save(saveCtx, next); err != nil {
		h.logger().Warn("chat session save failed", zap.String("session", st.ID), zap.Error(err))
		return msg, next, err
	}
	return msg, next, nil
}

// @Summary Ask the analyst agent
// @Tags chat
// @Security BearerAuth
// @Accept json
// @Param body body chatRequest true "question"
// @Success 200 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Router /api/v1/chat/messages [post]
func (h *ChatHandler) send(c *gin.Context) {
	st := currentSession(c)
	if st == nil {
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}
	q, ok := readQuestion(c)
	if !ok {
		return
	}
	msg, next, err := h.ask(c.Request.Context(), st, q, nil)
	if err != nil && next == nil {
		serviceError(c, err)
		return
	}
	if errors.Is(err, session.ErrNotFound) {
		serviceError(c, err)
		return
	}
	if err != nil {
		Error(c, http.StatusInternalServerError, "session store unavailable", nil)
		return
	}
	Ok(c, msg, map[string]any{"thread_id": next.ThreadID})
}

// @Summary Ask the analyst agent, streaming the answer
// @Description Server-sent events: zero or more "fragment" events, then one "done" event with the assistant message.
// @Tags chat
// @Security BearerAuth
// @Accept json
// @Produce text/event-stream
// @Param body body chatRequest true "question"
// @Router /api/v1/chat/stream [post]
func (h *ChatHandler) stream(c *gin.Context) {
	st := currentSession(c)
	if st == nil {
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}
	q, ok := readQuestion(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	msg, next, err := h.ask(c.Request.Context(), st, q, func(frag string) {
		c.SSEvent("fragment", gin.H{"text": frag})
		c.Writer.Flush()
	})
	if err != nil && next == nil {
		c.SSEvent("error", gin.H{"message": err.Error()})
		c.Writer.Flush()
		return
	}
	threadID := ""
	if next != nil {
		threadID = next.ThreadID
	}
	c.SSEvent("done", gin.H{"message": msg, "thread_id": threadID})
	c.Writer.Flush()
}

type wsFrame struct {
	Type     string               `json:"type"`
	Text     string               `json:"text,omitempty"`
	Message  *session.ChatMessage `json:"message,omitempty"`
	ThreadID string               `json:"thread_id,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// @Summary Chat over a websocket
// @Description Client frames {"content": "..."}; server frames {"type":"fragment","text"} and {"type":"done","message"}.
// @Tags chat
// @Security BearerAuth
// @Router /api/v1/chat/ws [get]
func (h *ChatHandler) ws(c *gin.Context) {
	st := currentSession(c)
	if st == nil {
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{OriginPatterns: h.OriginPatterns})
	if err != nil {
		h.logger().Debug("chat websocket accept failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	ctx := c.Request.Context()
	sessionID := st.ID
	for {
		var req chatRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				h.logger().Debug("chat websocket read failed", zap.Error(err))
			}
			return
		}
		q := strings.TrimSpace(req.Content)
		if q == "" {
			if err := wsjson.Write(ctx, conn, wsFrame{Type: "error", Error: service.ErrEmptyQuestion.Error()}); err != nil {
				return
			}
			continue
		}
		// Reload so a reset or another tab's message since the upgrade is seen.
		cur, err := h.Sessions.Get(ctx, sessionID)
		if err != nil {
			_ = wsjson.Write(ctx, conn, wsFrame{Type: "error", Error: "session expired"})
			_ = conn.Close(websocket.StatusPolicyViolation, "session expired")
			return
		}
		var writeErr error
		msg, next, err := h.ask(ctx, cur, q, func(frag string) {
			if writeErr == nil {
				writeErr = wsjson.Write(ctx, conn, wsFrame{Type: "fragment", Text: frag})
			}
		})
		if writeErr != nil {
			return
		}
		if err != nil && next == nil {
			if err := wsjson.Write(ctx, conn, wsFrame{Type: "error", Error: err.Error()}); err != nil {
				return
			}
			continue
		}
		done := wsFrame{Type: "done", Message: &msg}
		if next != nil {
			done.ThreadID = next.ThreadID
		}
		if err := wsjson.Write(ctx, conn, done); err != nil {
			return
		}
	}
}

// @Summary Clear the conversation
// @Tags chat
// @Security BearerAuth
// @Success 200 {object} apiResponse
// @Router /api/v1/chat/reset [post]
func (h *ChatHandler) reset(c *gin.Context) {
	st := currentSession(c)
	if st == nil {
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}
	next := h.Chat.Reset(st)
	if err := h.Sessions.Save(c.Request.Context(), next); err != nil {
		Error(c, http.StatusInternalServerError, "session store unavailable", nil)
		return
	}
	Ok(c, chatHistory{ThreadID: next.ThreadID, Messages: next.Messages}, nil)
}

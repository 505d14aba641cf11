package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterDocs(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.String(http.StatusOK, `# creditdash

Backend of the credit portfolio dashboard.

## Sessions

POST /api/v1/sessions returns a session token. Send it as
"Authorization: Bearer <token>" on every other /api route (or as ?token= on
the chat websocket). Cached query results and the chat transcript belong to
the session.

## Routes

- GET /healthz
- GET /readyz
- GET /swagger/index.html
- POST /api/v1/sessions
- DELETE /api/v1/sessions/current
- GET /api/v1/dashboard/freshness
- GET /api/v1/dashboard/summary?as_of=YYYY-MM-DD
- GET /api/v1/dashboard/top-deals?limit=10&as_of=YYYY-MM-DD
- GET /api/v1/dashboard/industries?as_of=YYYY-MM-DD
- GET /api/v1/dashboard/trend?year=2026
- GET /api/v1/dashboard/deals?watchlist=All&originator=All&as_of=YYYY-MM-DD
- POST /api/v1/dashboard/cache/invalidate
- GET /api/v1/filters
- GET /api/v1/chat
- GET /api/v1/chat/samples
- POST /api/v1/chat/messages {"content": "..."}
- POST /api/v1/chat/stream {"content": "..."} (text/event-stream)
- GET /api/v1/chat/ws (websocket)
- POST /api/v1/chat/reset
`)
	})
}

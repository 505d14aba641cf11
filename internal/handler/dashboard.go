package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"creditdash/internal/service"
	"creditdash/internal/session"
)

const dateLayout = "2006-01-02"

type DashboardHandler struct {
	Service  *service.DashboardService
	Sessions *session.Manager
	Auth     gin.HandlerFunc
}

func (h *DashboardHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/dashboard", h.Auth)
	group.GET("/freshness", h.freshness)
	group.GET("/summary", h.summary)
	group.GET("/top-deals", h.topDeals)
	group.GET("/industries", h.industries)
	group.GET("/trend", h.trend)
	group.GET("/deals", h.deals)
	group.POST("/cache/invalidate", h.invalidate)
}

func scopeOf(st *session.State) service.Scope {
	if st == nil {
		return service.Scope{}
	}
	return service.Scope{SessionID: st.ID, Generation: st.CacheGeneration}
}

// asOfQuery resolves ?as_of=YYYY-MM-DD, defaulting to today.
func (h *DashboardHandler) asOfQuery(c *gin.Context) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query("as_of"))
	if raw == "" {
		return h.Service.AsOf(nil), true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		Error(c, http.StatusBadRequest, "as_of must be YYYY-MM-DD", nil)
		return time.Time{}, false
	}
	return h.Service.AsOf(&t), true
}

func asOfMeta(asOf time.Time) map[string]any {
	return map[string]any{"as_of": asOf.Format(dateLayout)}
}

// @Summary Warehouse freshness
// @Tags dashboard
// @Security BearerAuth
// @Success 200 {object} apiResponse
// @Router /api/v1/dashboard/freshness [get]
func (h *DashboardHandler) freshness(c *gin.Context) {
	out, err := h.Service.Freshness(c.Request.Context(), scopeOf(currentSession(c)))
	if err != nil {
		serviceError(c, err)
		return
	}
	Ok(c, out, map[string]any{"empty": out == nil})
}

// @Summary Portfolio summary metrics
// @Tags dashboard
// @Security BearerAuth
// @Param as_of query string false "reporting date (YYYY-MM-DD)"
// @Success 200 {object} apiResponse
// @Router /api/v1/dashboard/summary [get]
func (h *DashboardHandler) summary(c *gin.Context) {
	asOf, ok := h.asOfQuery(c)
	if !ok {
		return
	}
	out, err := h.Service.Summary(c.Request.Context(), scopeOf(currentSession(c)), asOf)
	if err != nil {
		serviceError(c, err)
		return
	}
	meta := asOfMeta(asOf)
	meta["empty"] = out == nil
	Ok(c, out, meta)
}

// @Summary Top deals by exposure
// @Tags dashboard
// @Security BearerAuth
// @Param limit query int false "row limit" default(10)
// @Param as_of query string false "reporting date (YYYY-MM-DD)"
// @Success 200 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Router /api/v1/dashboard/top-deals [get]
func (h *DashboardHandler) topDeals(c *gin.Context) {
	limit := h.Service.DefaultTopDealsLimit()
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			Error(c, http.StatusBadRequest, "limit must be an integer", nil)
			return
		}
		limit = v
	}
	asOf, ok := h.asOfQuery(c)
	if !ok {
		return
	}
	rows, err := h.Service.TopDeals(c.Request.Context(), scopeOf(currentSession(c)), limit, asOf)
	if err != nil {
		serviceError(c, err)
		return
	}
	meta := asOfMeta(asOf)
	meta["limit"] = limit
	Ok(c, rows, meta)
}

// @Summary Exposure by industry
// @Tags dashboard
// @Security BearerAuth
// @Param as_of query string false "reporting date (YYYY-MM-DD)"
// @Success 200 {object} apiResponse
// @Router /api/v1/dashboard/industries [get]
func (h *DashboardHandler) industries(c *gin.Context) {
	asOf, ok := h.asOfQuery(c)
	if !ok {
		return
	}
	rows, err := h.Service.Industries(c.Request.Context(), scopeOf(currentSession(c)), asOf)
	if err != nil {
		serviceError(c, err)
		return
	}
	Ok(c, rows, asOfMeta(asOf))
}

// @Summary Month-end exposure trend
// @Tags dashboard
// @Security BearerAuth
// @Param year query int false "calendar year, defaults to the current year"
// @Success 200 {object} apiResponse
// @Router /api/v1/dashboard/trend [get]
func (h *DashboardHandler) trend(c *gin.Context) {
	year := 0
	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1900 || v > 9999 {
			Error(c, http.StatusBadRequest, "year must be a four digit year", nil)
			return
		}
		year = v
	}
	view, err := h.Service.Trend(c.Request.Context(), scopeOf(currentSession(c)), year)
	if err != nil {
		serviceError(c, err)
		return
	}
	Ok(c, view, nil)
}

// @Summary Filtered deal list
// @Tags dashboard
// @Security BearerAuth
// @Param watchlist query string false "All, None, Watchlist or Intensive Care"
// @Param originator query string false "originator name or All"
// @Param as_of query string false "reporting date (YYYY-MM-DD)"
// @Success 200 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Router /api/v1/dashboard/deals [get]
func (h *DashboardHandler) deals(c *gin.Context) {
	asOf, ok := h.asOfQuery(c)
	if !ok {
		return
	}
	filter := service.DealFilter{
		Watchlist:  c.Query("watchlist"),
		Originator: c.Query("originator"),
	}
	view, err := h.Service.Deals(c.Request.Context(), scopeOf(currentSession(c)), filter, asOf)
	if err != nil {
		serviceError(c, err)
		return
	}
	Ok(c, view, asOfMeta(asOf))
}

// @Summary Drop cached results for this session
// @Tags dashboard
// @Security BearerAuth
// @Success 200 {object} apiResponse
// @Router /api/v1/dashboard/cache/invalidate [post]
func (h *DashboardHandler) invalidate(c *gin.Context) {
	st := currentSession(c)
	if st == nil {
		Error(c, http.StatusUnauthorized, "session expired", nil)
		return
	}
	updated, err := h.Sessions.InvalidateCache(c.Request.Context(), st.ID)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.Set(sessionKey, updated)
	Ok(c, gin.H{"cache_generation": updated.CacheGeneration}, nil)
}

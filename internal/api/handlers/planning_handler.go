package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sellerkit/replan/internal/planning/monthkey"
	"github.com/sellerkit/replan/internal/planning/projection"
	"github.com/sellerkit/replan/internal/planning/robustness"
	"github.com/sellerkit/replan/internal/planning/suggest"
	"github.com/sellerkit/replan/internal/service"
	"github.com/sellerkit/replan/internal/statefile"
)

type PlanningHandler struct {
	service        *service.PlanningService
	defaultHorizon int
	defaultMode    projection.Mode
}

func NewPlanningHandler(service *service.PlanningService, defaultHorizon int, defaultMode string) *PlanningHandler {
	mode := projection.ModeUnits
	if projection.Mode(defaultMode) == projection.ModeDays {
		mode = projection.ModeDays
	}
	if defaultHorizon <= 0 {
		defaultHorizon = 12
	}
	return &PlanningHandler{service: service, defaultHorizon: defaultHorizon, defaultMode: mode}
}

// parseMonths resolves the horizon from the request. Clients either pass an
// explicit comma-separated list (?months=2025-01,2025-02) or a starting month
// plus count (?from=2025-01&horizon=6). Defaults start at the current month.
func (h *PlanningHandler) parseMonths(c *gin.Context) ([]string, bool) {
	if raw := strings.TrimSpace(c.Query("months")); raw != "" {
		var months []string
		for _, part := range strings.Split(raw, ",") {
			key, err := monthkey.Parse(strings.TrimSpace(part))
			if err != nil {
				errorResponse(c, http.StatusBadRequest, "invalid month key: "+part)
				return nil, false
			}
			months = append(months, key)
		}
		return months, true
	}

	from := monthkey.FromTime(time.Now())
	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		parsed, err := monthkey.Parse(raw)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "invalid from month: "+raw)
			return nil, false
		}
		from = parsed
	}

	horizon := h.defaultHorizon
	if raw := strings.TrimSpace(c.Query("horizon")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			errorResponse(c, http.StatusBadRequest, "invalid horizon: "+raw)
			return nil, false
		}
		horizon = n
	}

	return monthkey.Range(from, horizon), true
}

func (h *PlanningHandler) parseMode(c *gin.Context) (projection.Mode, bool) {
	raw := strings.ToLower(strings.TrimSpace(c.Query("mode")))
	switch raw {
	case "":
		return h.defaultMode, true
	case string(projection.ModeUnits):
		return projection.ModeUnits, true
	case string(projection.ModeDays):
		return projection.ModeDays, true
	default:
		errorResponse(c, http.StatusBadRequest, "invalid mode: "+raw)
		return "", false
	}
}

func (h *PlanningHandler) parseAnchor(c *gin.Context) (string, bool) {
	raw := strings.TrimSpace(c.Query("anchor"))
	if raw == "" {
		return "", true
	}
	key, err := monthkey.Parse(raw)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid anchor month: "+raw)
		return "", false
	}
	return key, true
}

func parseSKUs(c *gin.Context) []string {
	raw := strings.TrimSpace(c.Query("skus"))
	if raw == "" {
		return nil
	}
	var skus []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			skus = append(skus, part)
		}
	}
	return skus
}

func (h *PlanningHandler) GetProjection(c *gin.Context) {
	months, ok := h.parseMonths(c)
	if !ok {
		return
	}
	mode, ok := h.parseMode(c)
	if !ok {
		return
	}
	anchor, ok := h.parseAnchor(c)
	if !ok {
		return
	}

	result := h.service.Project(c.Request.Context(), projection.Params{
		Months:      months,
		SKUs:        parseSKUs(c),
		AnchorMonth: anchor,
		Mode:        mode,
	})

	c.JSON(http.StatusOK, result)
}

func (h *PlanningHandler) GetInbound(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Inbound(c.Request.Context()))
}

func (h *PlanningHandler) GetRobustness(c *gin.Context) {
	months, ok := h.parseMonths(c)
	if !ok {
		return
	}
	mode, ok := h.parseMode(c)
	if !ok {
		return
	}
	anchor, ok := h.parseAnchor(c)
	if !ok {
		return
	}

	report := h.service.Robustness(c.Request.Context(), robustness.Params{
		Months:      months,
		Mode:        mode,
		AnchorMonth: anchor,
	})

	c.JSON(http.StatusOK, report)
}

func (h *PlanningHandler) GetSuggestions(c *gin.Context) {
	months, ok := h.parseMonths(c)
	if !ok {
		return
	}
	mode, ok := h.parseMode(c)
	if !ok {
		return
	}
	anchor, ok := h.parseAnchor(c)
	if !ok {
		return
	}

	params := suggest.Params{
		Months:      months,
		Mode:        mode,
		AnchorMonth: anchor,
		Now:         time.Now(),
	}

	if raw := strings.TrimSpace(c.Query("target_month")); raw != "" {
		target, err := monthkey.Parse(raw)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "invalid target_month: "+raw)
			return
		}
		params.TargetMonth = target
	}

	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errorResponse(c, http.StatusBadRequest, "invalid limit: "+raw)
			return
		}
		params.MaxSuggestions = n
	}

	c.JSON(http.StatusOK, h.service.Suggestions(c.Request.Context(), params))
}

func (h *PlanningHandler) GetDashboard(c *gin.Context) {
	months, ok := h.parseMonths(c)
	if !ok {
		return
	}
	mode, ok := h.parseMode(c)
	if !ok {
		return
	}
	anchor, ok := h.parseAnchor(c)
	if !ok {
		return
	}

	dashboard, err := h.service.GetDashboard(c.Request.Context(), service.DashboardParams{
		Months:      months,
		Mode:        mode,
		AnchorMonth: anchor,
		Now:         time.Now(),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build dashboard", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// PutState replaces the in-memory plan state with the uploaded snapshot.
func (h *PlanningHandler) PutState(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "failed to read request body")
		return
	}

	state, err := statefile.Decode(payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state snapshot", "details": err.Error()})
		return
	}

	h.service.ReplaceState(c.Request.Context(), state)

	c.JSON(http.StatusOK, gin.H{
		"revision": state.Revision,
		"products": len(state.Products),
	})
}

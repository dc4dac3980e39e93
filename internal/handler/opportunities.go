package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ColdCrayon/Pickit-sub001/internal/repository"
)

// OpportunityHandler is the read surface over detected tickets.
type OpportunityHandler struct {
	Repo repository.Repository
}

func (h *OpportunityHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/opportunities")
	group.GET("", h.list)
}

func (h *OpportunityHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}

	params := repository.ListOpportunitiesParams{
		Limit:   intQuery(c, "limit", 50),
		Offset:  intQuery(c, "offset", 0),
		OrderBy: strings.TrimSpace(c.Query("sort_by")),
	}
	if eventID := strings.TrimSpace(c.Query("event_id")); eventID != "" {
		params.EventID = &eventID
	}
	if marketID := strings.TrimSpace(c.Query("market")); marketID != "" {
		params.MarketID = &marketID
	}
	if raw := strings.TrimSpace(c.Query("min_margin")); raw != "" {
		if min, err := decimal.NewFromString(raw); err == nil {
			params.MinMargin = &min
		}
	}
	if raw := strings.TrimSpace(strings.ToLower(c.Query("settled"))); raw != "" {
		settled := raw == "true" || raw == "1"
		params.Settled = &settled
	}
	if order := strings.TrimSpace(strings.ToLower(c.Query("order"))); order == "asc" {
		asc := true
		params.Asc = &asc
	}

	items, err := h.Repo.ListOpportunities(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountOpportunities(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}

package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ColdCrayon/Pickit-sub001/internal/models"
	"github.com/ColdCrayon/Pickit-sub001/internal/normalizer"
	"github.com/ColdCrayon/Pickit-sub001/internal/repository"
	"github.com/ColdCrayon/Pickit-sub001/internal/scanner"
)

// IngestHandler is the write surface the odds puller pushes into:
// provider event payloads per sport, and the prop definition catalog.
type IngestHandler struct {
	Normalizer *normalizer.Normalizer
	Repo       repository.Repository
	Logger     *zap.Logger
}

func (h *IngestHandler) Register(r *gin.Engine) {
	r.POST("/api/v1/odds/:sport", h.ingestOdds)
	r.PUT("/api/v1/props", h.upsertProps)
}

func (h *IngestHandler) ingestOdds(c *gin.Context) {
	if h.Normalizer == nil {
		Error(c, http.StatusInternalServerError, "normalizer unavailable", nil)
		return
	}
	sport := strings.TrimSpace(c.Param("sport"))
	if sport == "" {
		Error(c, http.StatusBadRequest, "sport is required", nil)
		return
	}
	var raws []normalizer.RawEvent
	if err := c.ShouldBindJSON(&raws); err != nil {
		Error(c, http.StatusBadRequest, "invalid odds payload: "+err.Error(), nil)
		return
	}

	ingested := 0
	var failed []string
	for _, raw := range raws {
		if err := h.Normalizer.Ingest(c.Request.Context(), sport, raw); err != nil {
			failed = append(failed, raw.ID)
			if h.Logger != nil {
				h.Logger.Warn("event ingest failed",
					zap.String("sport", sport),
					zap.String("event_id", raw.ID),
					zap.Error(err))
			}
			continue
		}
		ingested++
	}
	Ok(c, gin.H{"ingested": ingested, "failed": failed}, nil)
}

type propDefRequest struct {
	Key        string   `json:"key" binding:"required"`
	PlayerID   string   `json:"playerId" binding:"required"`
	PlayerName string   `json:"playerName"`
	PlayerTeam string   `json:"playerTeam"`
	Selections []string `json:"selections" binding:"required"`
}

func (h *IngestHandler) upsertProps(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repository unavailable", nil)
		return
	}
	var reqs []propDefRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		Error(c, http.StatusBadRequest, "invalid props payload: "+err.Error(), nil)
		return
	}

	upserted := 0
	for _, req := range reqs {
		if _, ok := scanner.ShapeOf(req.Selections); !ok {
			Error(c, http.StatusBadRequest, "unrecognized selections for "+req.Key, nil)
			return
		}
		def := models.PropDefinition{
			Key:        req.Key,
			PlayerID:   req.PlayerID,
			PlayerName: req.PlayerName,
			PlayerTeam: req.PlayerTeam,
		}
		if err := def.SetSelections(req.Selections); err != nil {
			Error(c, http.StatusBadRequest, "encode selections: "+err.Error(), nil)
			return
		}
		if err := h.Repo.UpsertPropDefinition(c.Request.Context(), &def); err != nil {
			if h.Logger != nil {
				h.Logger.Error("prop definition upsert failed",
					zap.String("key", req.Key), zap.Error(err))
			}
			Error(c, http.StatusInternalServerError, err.Error(), nil)
			return
		}
		upserted++
	}
	Ok(c, gin.H{"upserted": upserted}, nil)
}

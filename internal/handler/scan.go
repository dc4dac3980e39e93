package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ColdCrayon/Pickit-sub001/internal/queue"
	"github.com/ColdCrayon/Pickit-sub001/internal/scanner"
)

// ScanHandler is the trigger surface: POST /scan runs a detection pass
// synchronously, POST /kick enqueues one for the queue worker.
type ScanHandler struct {
	Orchestrator *scanner.Orchestrator
	Queue        *queue.Publisher
	Logger       *zap.Logger
}

func (h *ScanHandler) Register(r *gin.Engine) {
	r.POST("/scan", h.scan)
	r.POST("/kick", h.kick)
}

func (h *ScanHandler) scan(c *gin.Context) {
	if h.Orchestrator == nil {
		Error(c, http.StatusInternalServerError, "scan orchestrator unavailable", nil)
		return
	}
	market := strings.TrimSpace(c.Query("market"))
	if market == "" {
		Error(c, http.StatusBadRequest, "market is required", nil)
		return
	}

	req := scanner.ScanRequest{
		Sport:       strings.TrimSpace(c.Query("sport")),
		Market:      market,
		WindowHours: intQuery(c, "windowHours", 0),
		Limit:       intQuery(c, "limit", 0),
		Trigger:     "http",
	}
	result, err := h.Orchestrator.Scan(c.Request.Context(), req)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("scan failed", zap.String("market", market), zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"created": result.Created,
		"scanned": result.Scanned,
		"pages":   result.Pages,
		"market":  market,
		"errors":  len(result.Errors),
	})
}

type kickRequest struct {
	Sports      []string `json:"sports"`
	Market      string   `json:"market"`
	WindowHours int      `json:"windowHours"`
	Limit       int      `json:"limit"`
	PauseMs     int      `json:"pauseMs"`
}

func (h *ScanHandler) kick(c *gin.Context) {
	if h.Queue == nil {
		Error(c, http.StatusServiceUnavailable, "kick queue not configured", nil)
		return
	}
	var req kickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid kick body: "+err.Error(), nil)
		return
	}
	if strings.TrimSpace(req.Market) == "" {
		Error(c, http.StatusBadRequest, "market is required", nil)
		return
	}

	taskID, err := h.Queue.Enqueue(c.Request.Context(), queue.KickTask{
		Sports:      req.Sports,
		Market:      req.Market,
		WindowHours: req.WindowHours,
		Limit:       req.Limit,
		PauseMs:     req.PauseMs,
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("kick enqueue failed", zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"enqueued": 1,
		"target":   h.Queue.Stream,
		"task_id":  taskID,
	})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

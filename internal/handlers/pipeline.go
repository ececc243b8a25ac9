package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	statusOK          = "ok"
	statusActivated   = "activated"
	statusDeactivated = "deactivated"

	errActivatePipeline = "failed to activate pipeline"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Respond with a status string plus the current pipeline snapshot.
func (h *Handler) respondWithStatus(c *gin.Context, status string) {
	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"state":  h.services.GetStatus(),
	})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Activate print pipeline
// @Description  Resets the activity log, connects the notification channel if needed and subscribes to order-created events. Idempotent.
// @Tags         pipeline
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, state, activity"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/pipeline/activate [post]
// @Security     BearerAuth
func (h *Handler) activatePipeline(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Activate(ctx); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errActivatePipeline, "pipeline_activate_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   statusActivated,
		"state":    h.services.GetStatus(),
		"activity": h.services.Entries(),
	})
}

// @Summary      Deactivate print pipeline
// @Description  Unsubscribes from order-created events. The shared notification channel stays up; in-flight prints run to completion.
// @Tags         pipeline
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/pipeline/deactivate [post]
// @Security     BearerAuth
func (h *Handler) deactivatePipeline(c *gin.Context) {
	h.services.Deactivate()
	h.respondWithStatus(c, statusDeactivated)
}

// @Summary      Get pipeline status
// @Tags         pipeline
// @Produce      json
// @Success      200  {object}  models.PipelineStatus
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/pipeline/status [get]
// @Security     BearerAuth
func (h *Handler) getPipelineStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.GetStatus())
}

// @Summary      Get current activation's activity log
// @Tags         pipeline
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, entries"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/pipeline/activity [get]
// @Security     BearerAuth
func (h *Handler) getActivity(c *gin.Context) {
	entries := h.services.Entries()
	c.JSON(http.StatusOK, gin.H{
		"count":   len(entries),
		"entries": entries,
	})
}

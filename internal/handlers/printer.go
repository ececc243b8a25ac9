package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const errConnectPrinter = "failed to connect printer"

// @Summary      Connect printer
// @Description  Establishes the peripheral link. Safe to call repeatedly.
// @Tags         printer
// @Produce      json
// @Success      200  {object}  models.ConnectionState
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/printer/connect [post]
// @Security     BearerAuth
func (h *Handler) connectPrinter(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.services.Connect(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errConnectPrinter, "printer_connect_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Disconnect printer
// @Description  Releases the peripheral link. Idempotent.
// @Tags         printer
// @Produce      json
// @Success      200  {object}  models.ConnectionState
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/printer/disconnect [post]
// @Security     BearerAuth
func (h *Handler) disconnectPrinter(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Disconnect(ctx); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to disconnect printer", "printer_disconnect_failed", err)
		return
	}
	c.JSON(http.StatusOK, h.services.State())
}

// @Summary      Get printer status
// @Tags         printer
// @Produce      json
// @Success      200  {object}  models.ConnectionState
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/printer/status [get]
// @Security     BearerAuth
func (h *Handler) getPrinterStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.State())
}

package handler

import (
	"net/http"

	"sigilo/internal/service"

	"github.com/gin-gonic/gin"
)

type WebhookHandler struct {
	svc *service.CheckoutService
}

func NewWebhookHandler(svc *service.CheckoutService) *WebhookHandler {
	return &WebhookHandler{svc: svc}
}

type syncPayWebhook struct {
	ReferenceID string `json:"reference_id" binding:"required"`
	Status      string `json:"status" binding:"required"`
}

// HandleSyncPay applies a push-based settlement report. The same canonical
// status mapping and pending-only transition rules as the polling path
// apply, so webhook retries and duplicates are harmless.
func (h *WebhookHandler) HandleSyncPay(c *gin.Context) {
	var payload syncPayWebhook
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := h.svc.ApplyGatewayStatus(c.Request.Context(), payload.ReferenceID, payload.Status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

package handler

import (
	"net/http"

	"sigilo/internal/repository"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	payments *repository.PaymentRepository
}

func NewStatsHandler(payments *repository.PaymentRepository) *StatsHandler {
	return &StatsHandler{payments: payments}
}

// Stats reports sales totals over the append-only payments trail.
func (h *StatsHandler) Stats(c *gin.Context) {
	stats, err := h.payments.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

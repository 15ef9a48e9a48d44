package handler

import (
	"errors"
	"net/http"

	"sigilo/internal/models"
	"sigilo/internal/service"
	"sigilo/pkg/gateway"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CheckoutHandler struct {
	svc *service.CheckoutService
}

func NewCheckoutHandler(svc *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

type checkoutRequest struct {
	ProductID   string `json:"product_id" binding:"required"`
	CustomerRef string `json:"customer_ref"`
}

type checkoutResponse struct {
	PaymentID    string               `json:"payment_id"`
	ProductID    string               `json:"product_id"`
	ProductTitle string               `json:"product_title"`
	Price        decimal.Decimal      `json:"price"`
	Status       models.PaymentStatus `json:"status"`
	PixCode      string               `json:"pix_code"`
	QRBase64     string               `json:"qr_base64,omitempty"`
	Note         string               `json:"note,omitempty"`
	LifetimeText string               `json:"lifetime_text,omitempty"`
}

// Checkout creates a pending payment for a product. Web checkouts are
// anonymous (customer id 0); the customer polls GET /payments/:payment_id
// for settlement and the secret link.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.svc.CreateCheckout(c.Request.Context(), req.ProductID, 0, req.CustomerRef)
	if err != nil {
		h.writeCheckoutError(c, err)
		return
	}
	p := result.Payment
	c.JSON(http.StatusOK, checkoutResponse{
		PaymentID:    p.PaymentID,
		ProductID:    p.ProductID,
		ProductTitle: p.ProductTitle,
		Price:        p.Price,
		Status:       p.Status,
		PixCode:      p.PixCode,
		QRBase64:     p.QRBase64,
		Note:         result.Note,
		LifetimeText: result.LifetimeText,
	})
}

func (h *CheckoutHandler) writeCheckoutError(c *gin.Context, err error) {
	var confErr *gateway.ConfigurationError
	var gwErr *gateway.Error
	var protoErr *gateway.ProtocolError
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.As(err, &confErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": confErr.Error()})
	case errors.As(err, &gwErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": gwErr.Error()})
	case errors.As(err, &protoErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": protoErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout failed"})
	}
}

// GetPayment returns the payment projection; the secret link appears only
// once the payment is paid.
func (h *CheckoutHandler) GetPayment(c *gin.Context) {
	view, err := h.svc.GetPaymentView(c.Param("payment_id"))
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, view)
}

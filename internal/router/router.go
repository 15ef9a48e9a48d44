package router

import (
	"net/http"
	"time"

	"sigilo/config"
	"sigilo/internal/handler"
	"sigilo/internal/middleware"
	"sigilo/internal/repository"
	"sigilo/internal/service"
	"sigilo/pkg/cloudinary"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, svc *service.CheckoutService, cloud cloudinary.Client) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(&cfg.CORS))
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	productRepo := repository.NewProductRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	authHandler := handler.NewAuthHandler(cfg)
	productHandler := handler.NewProductHandler(productRepo, cloud)
	checkoutHandler := handler.NewCheckoutHandler(svc)
	webhookHandler := handler.NewWebhookHandler(svc)
	statsHandler := handler.NewStatsHandler(paymentRepo)

	adminMw := middleware.AdminRequired(&cfg.JWT)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"api":    "sigilo",
			"endpoints": gin.H{
				"health":         "/health",
				"products":       "/products",
				"checkout":       "/checkout (POST)",
				"payment_status": "/payments/{payment_id}",
			},
		})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
	})

	r.GET("/products", productHandler.List)
	r.POST("/checkout", checkoutHandler.Checkout)
	r.GET("/payments/:payment_id", checkoutHandler.GetPayment)
	r.POST("/webhooks/syncpay", webhookHandler.HandleSyncPay)

	admin := r.Group("/admin")
	{
		admin.POST("/login", authHandler.Login)
		admin.GET("/stats", adminMw, statsHandler.Stats)
	}
	r.POST("/products", adminMw, productHandler.Create)
	r.DELETE("/products/:product_id", adminMw, productHandler.Delete)
	r.POST("/products/media", adminMw, productHandler.UploadMedia)

	return r
}

func corsMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		ExposeHeaders:    []string{"*"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || contains(cfg.AllowedOrigins, "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
		corsCfg.AllowCredentials = true
	}
	return cors.New(corsCfg)
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}

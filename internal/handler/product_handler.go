package handler

import (
	"fmt"
	"net/http"
	"strings"

	"sigilo/internal/models"
	"sigilo/internal/repository"
	"sigilo/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ProductHandler struct {
	products *repository.ProductRepository
	cloud    cloudinary.Client
}

func NewProductHandler(products *repository.ProductRepository, cloud cloudinary.Client) *ProductHandler {
	return &ProductHandler{products: products, cloud: cloud}
}

// List is the public catalog. Secret links are never serialized here.
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.products.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing products failed"})
		return
	}
	c.JSON(http.StatusOK, products)
}

type productPayload struct {
	ProductID    string          `json:"product_id" binding:"required"`
	Title        string          `json:"title" binding:"required"`
	Price        decimal.Decimal `json:"price" binding:"required"`
	Currency     string          `json:"currency"`
	Description  string          `json:"description"`
	SecretLink   string          `json:"secret_link" binding:"required"`
	MediaType    string          `json:"media_type"`
	MediaSrc     string          `json:"media_src"`
	MediaPoster  string          `json:"media_poster"`
	Benefits     []string        `json:"benefits"`
	Note         string          `json:"note"`
	LifetimeText string          `json:"lifetime_text"`
	Category     string          `json:"category"`
}

// Create saves or overwrites a catalog product under its slug.
func (h *ProductHandler) Create(c *gin.Context) {
	var payload productPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !payload.Price.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be positive"})
		return
	}
	if payload.MediaType != "" && payload.MediaType != "image" && payload.MediaType != "video" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "media_type must be image or video"})
		return
	}
	product := &models.Product{
		ProductID:    payload.ProductID,
		Title:        payload.Title,
		Price:        payload.Price,
		Currency:     defaultStr(payload.Currency, "BRL"),
		Description:  payload.Description,
		SecretLink:   payload.SecretLink,
		MediaType:    defaultStr(payload.MediaType, "image"),
		MediaSrc:     payload.MediaSrc,
		MediaPoster:  payload.MediaPoster,
		Benefits:     datatypes.NewJSONSlice(payload.Benefits),
		Note:         defaultStr(payload.Note, "Liberação imediata"),
		LifetimeText: defaultStr(payload.LifetimeText, "Acesso vitalício incluído"),
		Category:     defaultStr(payload.Category, "Premium"),
	}
	if err := h.products.Save(product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "saving product failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// Delete removes a product from the catalog. Already-issued payments keep
// their denormalized snapshot.
func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.products.Delete(c.Param("product_id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "deleting product failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// UploadMedia uploads a product cover image or preview video to Cloudinary
// and returns the delivery URL for use as media_src.
func (h *ProductHandler) UploadMedia(c *gin.Context) {
	if h.cloud == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "media uploads not configured"})
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	defer file.Close()

	productID := c.PostForm("product_id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id required"})
		return
	}
	publicID := fmt.Sprintf("%s-%s", productID, strings.TrimSuffix(header.Filename, fileExt(header.Filename)))

	if c.PostForm("media_type") == "video" {
		url, poster, err := h.cloud.UploadVideo(c.Request.Context(), file, publicID)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"media_src": url, "media_poster": poster, "media_type": "video"})
		return
	}
	url, err := h.cloud.UploadImage(c.Request.Context(), file, publicID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"media_src": url, "media_type": "image"})
}

func defaultStr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func fileExt(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}

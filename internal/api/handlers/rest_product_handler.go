package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/politologod/vibes-marketplace/internal/api/middleware"
	"github.com/politologod/vibes-marketplace/internal/models"
	"github.com/politologod/vibes-marketplace/internal/services"
	"github.com/politologod/vibes-marketplace/internal/utils"
)

// RestProductHandler handles REST requests for product listings.
type RestProductHandler struct {
	productService services.IProductService
}

// NewRestProductHandler creates a new RestProductHandler.
func NewRestProductHandler(productService services.IProductService) *RestProductHandler {
	return &RestProductHandler{productService: productService}
}

// ListProducts handles GET /api/products
func (h *RestProductHandler) ListProducts(c *gin.Context) {
	params := services.ListParams{
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
		Order:  c.Query("order"),
	}

	if pageStr := c.Query("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil {
			params.Page = page
		}
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			params.Limit = limit
		}
	}
	// Values other than true/false mean no availability filter.
	switch c.Query("available") {
	case "true":
		available := true
		params.Available = &available
	case "false":
		available := false
		params.Available = &available
	}

	products, pagination, err := h.productService.ListProducts(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       products,
		"pagination": pagination,
		"filters":    params.Applied(),
	})
}

// GetProduct handles GET /api/products/:id
func (h *RestProductHandler) GetProduct(c *gin.Context) {
	productID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		respondValidation(c, "ID de producto inválido")
		return
	}

	product, err := h.productService.FindProductByID(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, product)
}

// CreateProduct handles POST /api/products. Requires auth; the acting user
// becomes the seller.
func (h *RestProductHandler) CreateProduct(c *gin.Context) {
	vendedorID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "No autenticado"})
		return
	}

	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		respondValidation(c, "Cuerpo de la solicitud inválido")
		return
	}

	created, err := h.productService.CreateProduct(c.Request.Context(), vendedorID, &product)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, created)
}

// UpdateProduct handles PUT /api/products/:id. Requires auth and ownership.
func (h *RestProductHandler) UpdateProduct(c *gin.Context) {
	vendedorID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "No autenticado"})
		return
	}

	productID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		respondValidation(c, "ID de producto inválido")
		return
	}

	var update services.ProductUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondValidation(c, "Cuerpo de la solicitud inválido")
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), productID, vendedorID, update)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/:id. Requires auth and ownership.
func (h *RestProductHandler) DeleteProduct(c *gin.Context) {
	vendedorID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "No autenticado"})
		return
	}

	productID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		respondValidation(c, "ID de producto inválido")
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), productID, vendedorID); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Producto eliminado correctamente")
}

// SearchProducts handles GET /api/products/search
func (h *RestProductHandler) SearchProducts(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		respondValidation(c, "El parámetro q es obligatorio")
		return
	}

	params := services.SearchParams{
		Query:     query,
		Categoria: c.Query("categoria"),
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			params.Limit = limit
		}
	}

	products, err := h.productService.SearchProducts(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"data":         products,
		"totalResults": len(products),
	})
}

// Categories handles GET /api/products/categorias
func (h *RestProductHandler) Categories(c *gin.Context) {
	categories, err := h.productService.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, categories)
}

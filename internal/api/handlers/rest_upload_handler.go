package handlers

import (
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/politologod/vibes-marketplace/internal/api/middleware"
	"github.com/politologod/vibes-marketplace/internal/apperr"
	"github.com/politologod/vibes-marketplace/internal/config"
	"github.com/politologod/vibes-marketplace/internal/services"
	"github.com/politologod/vibes-marketplace/internal/storage"
	"github.com/politologod/vibes-marketplace/internal/tasks"
	"github.com/politologod/vibes-marketplace/internal/utils"
)

// RestUploadHandler handles product image uploads.
type RestUploadHandler struct {
	cfg            *config.Config
	productService services.IProductService
	storageService storage.IS3Storage
	taskClient     *asynq.Client
}

// NewRestUploadHandler creates a new RestUploadHandler. taskClient may be nil
// when no worker is configured; images are then served as uploaded.
func NewRestUploadHandler(cfg *config.Config, productService services.IProductService, storageService storage.IS3Storage, taskClient *asynq.Client) *RestUploadHandler {
	return &RestUploadHandler{
		cfg:            cfg,
		productService: productService,
		storageService: storageService,
		taskClient:     taskClient,
	}
}

// collectFiles gathers the uploads from the `image` and `images` form fields.
func collectFiles(form *multipart.Form) []*multipart.FileHeader {
	files := form.File["images"]
	if single := form.File["image"]; len(single) > 0 {
		files = append(files, single...)
	}
	return files
}

func (h *RestUploadHandler) validateFile(file *multipart.FileHeader) error {
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return apperr.New(apperr.Validation, "Solo se permiten archivos de imagen")
	}
	if file.Size > int64(h.cfg.ImageMaxSizeMB)*1024*1024 {
		return apperr.New(apperr.Validation, "La imagen supera el tamaño máximo permitido")
	}
	return nil
}

// UploadImages handles POST /api/products/:id/images. Requires auth and
// ownership. Uploads go straight to object storage; a background task
// normalizes each one afterwards.
func (h *RestUploadHandler) UploadImages(c *gin.Context) {
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

	product, err := h.productService.FindProductByID(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	if product.VendedorID != vendedorID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "No tienes permiso para modificar este producto"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondValidation(c, "Formulario multipart inválido")
		return
	}
	files := collectFiles(form)
	if len(files) == 0 {
		respondValidation(c, "No se proporcionó ninguna imagen")
		return
	}

	for _, file := range files {
		if err := h.validateFile(file); err != nil {
			respondError(c, err)
			return
		}
	}

	urls := make([]string, 0, len(files))
	for _, file := range files {
		src, err := file.Open()
		if err != nil {
			respondError(c, apperr.Wrap(apperr.Internal, "Error interno del servidor", err))
			return
		}

		key, err := h.storageService.UploadProductImage(c.Request.Context(),
			productID.String(), file.Filename, file.Header.Get("Content-Type"), src)
		src.Close()
		if err != nil {
			respondError(c, apperr.Wrap(apperr.Internal, "Error interno del servidor", err))
			return
		}

		if h.taskClient != nil {
			task, err := tasks.NewImageProcessTask(key, productID)
			if err == nil {
				_, err = h.taskClient.Enqueue(task)
			}
			if err != nil {
				// The raw upload is already live; processing can be re-run later.
				log.Printf("WARN: failed to enqueue image task for %s: %v", key, err)
			}
		}

		urls = append(urls, h.storageService.ObjectURL(key))
	}

	updated, err := h.productService.AddImagesToProduct(c.Request.Context(), productID, urls)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"imagenes": updated.Imagenes,
			"nuevas":   urls,
		},
	})
}

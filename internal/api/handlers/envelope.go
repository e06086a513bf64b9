package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/politologod/vibes-marketplace/internal/apperr"
)

// respondData writes the success envelope with a data payload.
func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// respondMessage writes the success envelope with a message and no data.
func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": true, "message": message})
}

// respondError maps a service error onto the failure envelope. Errors carry
// their status and Spanish message through apperr.Kind; a bare driver miss
// becomes a 404, and anything unclassified is an internal error and gets
// logged.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Recurso no encontrado"})
		return
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		if appErr.Kind == apperr.Internal {
			log.Printf("ERROR: %v", err)
		}
		c.JSON(appErr.Kind.HTTPStatus(), gin.H{"success": false, "error": apperr.MessageOf(err)})
		return
	}
	log.Printf("ERROR: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Error interno del servidor"})
}

// respondValidation writes a 400 failure envelope for malformed request input.
func respondValidation(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": message})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/politologod/vibes-marketplace/internal/api/middleware"
	"github.com/politologod/vibes-marketplace/internal/models"
	"github.com/politologod/vibes-marketplace/internal/services"
)

// RestAuthHandler handles REST requests for registration and sessions.
type RestAuthHandler struct {
	authService services.IAuthService
}

// NewRestAuthHandler creates a new RestAuthHandler.
func NewRestAuthHandler(authService services.IAuthService) *RestAuthHandler {
	return &RestAuthHandler{authService: authService}
}

type registerRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	NombreCompleto string `json:"nombreCompleto"`
	Cedula         string `json:"cedula"`
	NumeroTelefono string `json:"numeroTelefono"`
	Direccion      string `json:"direccion"`
	Edad           int    `json:"edad"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register
func (h *RestAuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Cuerpo de la solicitud inválido")
		return
	}

	session, err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Profile: models.User{
			NombreCompleto: req.NombreCompleto,
			Cedula:         req.Cedula,
			NumeroTelefono: req.NumeroTelefono,
			Direccion:      req.Direccion,
			Edad:           req.Edad,
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"token":   session.Token,
		"user":    session.User,
	})
}

// Login handles POST /api/auth/login
func (h *RestAuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Cuerpo de la solicitud inválido")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondValidation(c, "El correo y la contraseña son obligatorios")
		return
	}

	session, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   session.Token,
		"user":    session.User,
	})
}

// Verify handles GET /api/auth/verify. Runs behind the auth middleware, which
// has already resolved the profile.
func (h *RestAuthHandler) Verify(c *gin.Context) {
	value, exists := c.Get(middleware.ContextKeyUser)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Token inválido o expirado"})
		return
	}
	user := value.(*models.User)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user.AuthView(),
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/politologod/vibes-marketplace/internal/api/middleware"
	"github.com/politologod/vibes-marketplace/internal/models"
	"github.com/politologod/vibes-marketplace/internal/services"
	"github.com/politologod/vibes-marketplace/internal/utils"
)

// RestUserHandler handles REST requests for profiles.
type RestUserHandler struct {
	userService services.IUserService
}

// NewRestUserHandler creates a new RestUserHandler.
func NewRestUserHandler(userService services.IUserService) *RestUserHandler {
	return &RestUserHandler{userService: userService}
}

// requireSelf parses the :id path parameter and checks it against the acting
// user. Writes the failure envelope and returns false when the caller may not
// touch this profile.
func requireSelf(c *gin.Context) (utils.SixID, bool) {
	userID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		respondValidation(c, "ID de usuario inválido")
		return utils.SixID{}, false
	}
	actingID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "No autenticado"})
		return utils.SixID{}, false
	}
	if actingID != userID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "No tienes permiso para modificar este usuario"})
		return utils.SixID{}, false
	}
	return userID, true
}

// ListUsers handles GET /api/users
func (h *RestUserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, users)
}

// GetUser handles GET /api/users/:id
func (h *RestUserHandler) GetUser(c *gin.Context) {
	userID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		respondValidation(c, "ID de usuario inválido")
		return
	}

	user, err := h.userService.FindUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

// GetUserByCedula handles GET /api/users/cedula/:cedula
func (h *RestUserHandler) GetUserByCedula(c *gin.Context) {
	user, err := h.userService.FindUserByCedula(c.Request.Context(), c.Param("cedula"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

// CheckCorreo handles GET /api/users/verificar-correo/:correo
func (h *RestUserHandler) CheckCorreo(c *gin.Context) {
	exists, err := h.userService.CorreoExists(c.Request.Context(), c.Param("correo"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"existe": exists})
}

// CheckCedula handles GET /api/users/verificar-cedula/:cedula
func (h *RestUserHandler) CheckCedula(c *gin.Context) {
	exists, err := h.userService.CedulaExists(c.Request.Context(), c.Param("cedula"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"existe": exists})
}

// CreateUser handles POST /api/users. Creates a bare profile with no
// credential record; registration is the usual path.
func (h *RestUserHandler) CreateUser(c *gin.Context) {
	var user models.User
	if err := c.ShouldBindJSON(&user); err != nil {
		respondValidation(c, "Cuerpo de la solicitud inválido")
		return
	}

	created, err := h.userService.CreateUser(c.Request.Context(), &user)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, created)
}

// UpdateUser handles PUT /api/users/:id. Requires auth and self-ownership.
func (h *RestUserHandler) UpdateUser(c *gin.Context) {
	userID, ok := requireSelf(c)
	if !ok {
		return
	}

	var update services.UserUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondValidation(c, "Cuerpo de la solicitud inválido")
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), userID, update)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/users/:id. Requires auth and self-ownership.
func (h *RestUserHandler) DeleteUser(c *gin.Context) {
	userID, ok := requireSelf(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Usuario eliminado correctamente")
}

// UpdateBankAccounts handles PUT /api/users/:id/cuentas-bancarias.
func (h *RestUserHandler) UpdateBankAccounts(c *gin.Context) {
	userID, ok := requireSelf(c)
	if !ok {
		return
	}

	var req struct {
		CuentasBancarias []models.CuentaBancaria `json:"cuentasBancarias"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Cuerpo de la solicitud inválido")
		return
	}

	user, err := h.userService.UpdateBankAccounts(c.Request.Context(), userID, req.CuentasBancarias)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

// UpdatePagoMovil handles PUT /api/users/:id/pago-movil.
func (h *RestUserHandler) UpdatePagoMovil(c *gin.Context) {
	userID, ok := requireSelf(c)
	if !ok {
		return
	}

	var pagoMovil models.PagoMovil
	if err := c.ShouldBindJSON(&pagoMovil); err != nil {
		respondValidation(c, "Cuerpo de la solicitud inválido")
		return
	}

	user, err := h.userService.UpdatePagoMovil(c.Request.Context(), userID, pagoMovil)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

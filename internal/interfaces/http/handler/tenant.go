package handler

import (
	appleasing "github.com/estate/backend/internal/application/leasing"
	"github.com/gin-gonic/gin"
)

// TenantHandler handles tenant endpoints
type TenantHandler struct {
	BaseHandler
	tenants *appleasing.TenantService
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(tenants *appleasing.TenantService) *TenantHandler {
	return &TenantHandler{tenants: tenants}
}

// Get returns a tenant
//
//	GET /tenants/:id
func (h *TenantHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	tenant, err := h.tenants.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTenantResponse(tenant))
}

// Delete removes a tenant that holds no Active lease
//
//	DELETE /tenants/:id
func (h *TenantHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.tenants.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

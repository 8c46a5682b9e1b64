package handler

import (
	appleasing "github.com/estate/backend/internal/application/leasing"
	"github.com/estate/backend/internal/domain/leasing"
	"github.com/gin-gonic/gin"
)

// PropertyHandler handles property endpoints. Saves that leave a property
// available report the matching run they triggered.
type PropertyHandler struct {
	BaseHandler
	properties *appleasing.PropertyService
}

// NewPropertyHandler creates a new PropertyHandler
func NewPropertyHandler(properties *appleasing.PropertyService) *PropertyHandler {
	return &PropertyHandler{properties: properties}
}

func toPropertySaveResponse(r *appleasing.PropertySaveResult) PropertySaveResponse {
	return PropertySaveResponse{
		Property: toPropertyResponse(r.Property),
		Matches:  toMatchRunResponse(r.Matches),
	}
}

// Create adds a property
//
//	POST /properties
func (h *PropertyHandler) Create(c *gin.Context) {
	var req PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.properties.Create(c.Request.Context(), req.draft())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toPropertySaveResponse(result))
}

// Get returns a property
//
//	GET /properties/:id
func (h *PropertyHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.properties.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPropertyResponse(p))
}

// Update replaces the editable fields of a property
//
//	PUT /properties/:id
func (h *PropertyHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.properties.Update(c.Request.Context(), id, req.draft())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPropertySaveResponse(result))
}

// ChangeStatus sets the occupancy status of a property
//
//	PUT /properties/:id/status
func (h *PropertyHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req PropertyStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.properties.ChangeStatus(c.Request.Context(), id, leasing.PropertyStatus(req.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPropertySaveResponse(result))
}

// Rematch runs matching for a property on demand
//
//	POST /properties/:id/match
func (h *PropertyHandler) Rematch(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.properties.Rematch(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toMatchRunResponse(result))
}

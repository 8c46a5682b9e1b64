package handler

import (
	appleasing "github.com/estate/backend/internal/application/leasing"
	"github.com/gin-gonic/gin"
)

// InquiryHandler handles inquiry endpoints
type InquiryHandler struct {
	BaseHandler
	inquiries *appleasing.InquiryService
}

// NewInquiryHandler creates a new InquiryHandler
func NewInquiryHandler(inquiries *appleasing.InquiryService) *InquiryHandler {
	return &InquiryHandler{inquiries: inquiries}
}

// File records a new inquiry and matches it against available properties
//
//	POST /inquiries
func (h *InquiryHandler) File(c *gin.Context) {
	var req InquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.inquiries.File(c.Request.Context(), req.draft())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, InquiryFileResponse{
		Inquiry: toInquiryResponse(result.Inquiry),
		Matches: toMatchRunResponse(result.Matches),
	})
}

// Get returns an inquiry
//
//	GET /inquiries/:id
func (h *InquiryHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	inq, err := h.inquiries.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInquiryResponse(inq))
}

// MarkContacted records that an agent acted on the inquiry
//
//	POST /inquiries/:id/contacted
func (h *InquiryHandler) MarkContacted(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	inq, err := h.inquiries.MarkContacted(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInquiryResponse(inq))
}

// Close closes the inquiry
//
//	POST /inquiries/:id/close
func (h *InquiryHandler) Close(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	inq, err := h.inquiries.Close(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInquiryResponse(inq))
}

package handler

import (
	"net/http"

	appleasing "github.com/estate/backend/internal/application/leasing"
	"github.com/estate/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// MatchHandler handles match listing and follow-up
type MatchHandler struct {
	BaseHandler
	matches *appleasing.MatchService
}

// NewMatchHandler creates a new MatchHandler
func NewMatchHandler(matches *appleasing.MatchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

// ListByInquiry returns the matches of an inquiry
//
//	GET /inquiries/:id/matches
func (h *MatchHandler) ListByInquiry(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	matches, err := h.matches.ListByInquiry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(toMatchResponses(matches)))
}

// ListByProperty returns the matches of a property
//
//	GET /properties/:id/matches
func (h *MatchHandler) ListByProperty(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	matches, err := h.matches.ListByProperty(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(toMatchResponses(matches)))
}

// MarkContacted records that the requester was contacted about the match
//
//	POST /matches/:id/contacted
func (h *MatchHandler) MarkContacted(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	m, err := h.matches.MarkContacted(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toMatchResponse(m))
}

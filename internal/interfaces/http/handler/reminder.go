package handler

import (
	"net/http"
	"time"

	appleasing "github.com/estate/backend/internal/application/leasing"
	"github.com/estate/backend/internal/domain/leasing"
	"github.com/estate/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ReminderDayQuery selects the day a reminder query is evaluated on; empty means today
type ReminderDayQuery struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// ReminderHandler handles renewal reminder endpoints
type ReminderHandler struct {
	BaseHandler
	reminders *appleasing.ReminderService
}

// NewReminderHandler creates a new ReminderHandler
func NewReminderHandler(reminders *appleasing.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminders: reminders}
}

// day binds the date query, defaulting to the service's today
func (h *ReminderHandler) day(c *gin.Context) (time.Time, bool) {
	var q ReminderDayQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return time.Time{}, false
	}
	if q.Date == "" {
		return h.reminders.Today(), true
	}
	return parseDate(q.Date), true
}

// State returns the reminder settings and computed state of a lease
//
//	GET /leases/:id/reminder
func (h *ReminderHandler) State(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.reminders.State(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// UpdateSettings replaces the reminder settings of a lease
//
//	PUT /leases/:id/reminder
func (h *ReminderHandler) UpdateSettings(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ReminderSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	view, err := h.reminders.UpdateSettings(c.Request.Context(), id, leasing.ReminderSettings{
		Enabled:         *req.Enabled,
		LeadDays:        *req.LeadDays,
		ExpectedNewRent: req.ExpectedNewRent,
		Notes:           req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// MarkContacted records that the tenant was contacted about renewal
//
//	POST /leases/:id/reminder/contacted
func (h *ReminderHandler) MarkContacted(c *gin.Context) {
	h.setContacted(c, true)
}

// MarkNotContacted clears the contacted flag
//
//	DELETE /leases/:id/reminder/contacted
func (h *ReminderHandler) MarkNotContacted(c *gin.Context) {
	h.setContacted(c, false)
}

func (h *ReminderHandler) setContacted(c *gin.Context, contacted bool) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var err error
	if contacted {
		err = h.reminders.MarkContacted(ctx, id)
	} else {
		err = h.reminders.MarkNotContacted(ctx, id)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	view, err := h.reminders.State(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Snooze pushes the reminder date of a lease later
//
//	POST /leases/:id/reminder/snooze
func (h *ReminderHandler) Snooze(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req SnoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	view, err := h.reminders.Snooze(c.Request.Context(), id, req.Days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// ListDue returns the reminders that need attention, soonest lease end first
//
//	GET /reminders/due?date=YYYY-MM-DD
func (h *ReminderHandler) ListDue(c *gin.Context) {
	day, ok := h.day(c)
	if !ok {
		return
	}
	due, err := h.reminders.ListDue(c.Request.Context(), day)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(due))
}

// Summary counts due reminders per urgency
//
//	GET /reminders/summary?date=YYYY-MM-DD
func (h *ReminderHandler) Summary(c *gin.Context) {
	day, ok := h.day(c)
	if !ok {
		return
	}
	counts, err := h.reminders.CountDueByUrgency(c.Request.Context(), day)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, counts)
}

// Sweep runs the daily reminder sweep; it does nothing if the day already ran
//
//	POST /reminders/sweep?date=YYYY-MM-DD
func (h *ReminderHandler) Sweep(c *gin.Context) {
	day, ok := h.day(c)
	if !ok {
		return
	}
	result, err := h.reminders.RunDailySweep(c.Request.Context(), day)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

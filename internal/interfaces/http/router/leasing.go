package router

import (
	"github.com/estate/backend/internal/interfaces/http/handler"
)

// Handlers are the API handlers mounted by LeasingResources
type Handlers struct {
	Tenants    *handler.TenantHandler
	Leases     *handler.LeaseHandler
	Properties *handler.PropertyHandler
	Inquiries  *handler.InquiryHandler
	Matches    *handler.MatchHandler
	Reminders  *handler.ReminderHandler
	System     *handler.SystemHandler
}

// LeasingResources builds the resources of the leasing API
func LeasingResources(h Handlers) []Registrar {
	tenants := NewResource("/tenants").
		GET("/:id", h.Tenants.Get).
		DELETE("/:id", h.Tenants.Delete).
		GET("/:id/leases", h.Leases.ListByTenant)

	leases := NewResource("/leases").
		POST("", h.Leases.Provision).
		GET("/:id", h.Leases.Get).
		POST("/:id/activate", h.Leases.Activate).
		POST("/:id/deactivate", h.Leases.Deactivate).
		PUT("/:id/dates", h.Leases.UpdateDates)
	leases.Nest("/:id/reminder").
		GET("", h.Reminders.State).
		PUT("", h.Reminders.UpdateSettings).
		POST("/contacted", h.Reminders.MarkContacted).
		DELETE("/contacted", h.Reminders.MarkNotContacted).
		POST("/snooze", h.Reminders.Snooze)

	properties := NewResource("/properties").
		POST("", h.Properties.Create).
		GET("/:id", h.Properties.Get).
		PUT("/:id", h.Properties.Update).
		PUT("/:id/status", h.Properties.ChangeStatus).
		POST("/:id/match", h.Properties.Rematch).
		GET("/:id/matches", h.Matches.ListByProperty)

	inquiries := NewResource("/inquiries").
		POST("", h.Inquiries.File).
		GET("/:id", h.Inquiries.Get).
		POST("/:id/contacted", h.Inquiries.MarkContacted).
		POST("/:id/close", h.Inquiries.Close).
		GET("/:id/matches", h.Matches.ListByInquiry)

	matches := NewResource("/matches").
		POST("/:id/contacted", h.Matches.MarkContacted)

	reminders := NewResource("/reminders").
		GET("/due", h.Reminders.ListDue).
		GET("/summary", h.Reminders.Summary).
		POST("/sweep", h.Reminders.Sweep)

	resources := []Registrar{tenants, leases, properties, inquiries, matches, reminders}
	if h.System != nil {
		resources = append(resources, NewResource("/system").GET("/info", h.System.Info))
	}
	return resources
}

package leasing

import "time"

// Urgency classifies how close a lease is to its end date
type Urgency string

const (
	UrgencyExpired  Urgency = "expired"
	UrgencyUrgent   Urgency = "urgent"
	UrgencySoon     Urgency = "soon"
	UrgencyUpcoming Urgency = "upcoming"
)

// Fixed urgency thresholds, independent of a contract's reminder lead time
const (
	UrgentWithinDays = 30
	SoonWithinDays   = 60
)

// ReminderState is the renewal reminder view of a contract, derived on read
type ReminderState struct {
	DaysUntilEnd int       `json:"days_until_end"`
	ReminderDate time.Time `json:"reminder_date"`
	IsOverdue    bool      `json:"is_overdue"`
	Urgency      Urgency   `json:"urgency"`
	Contacted    bool      `json:"contacted"`
}

// NeedsAttention reports whether the reminder is due and nobody has acted on it yet
func (s ReminderState) NeedsAttention() bool {
	return s.IsOverdue && !s.Contacted
}

// ComputeReminderState derives the reminder state of a lease ending on endDate.
// Both dates are reduced to their calendar day so time of day never shifts the result.
// contacted is carried through untouched; it does not influence IsOverdue.
func ComputeReminderState(today, endDate time.Time, leadDays int, contacted bool) ReminderState {
	day := DateOf(today)
	end := DateOf(endDate)
	reminderDate := end.AddDate(0, 0, -leadDays)
	daysUntilEnd := DaysBetween(day, end)

	return ReminderState{
		DaysUntilEnd: daysUntilEnd,
		ReminderDate: reminderDate,
		IsOverdue:    !day.Before(reminderDate),
		Urgency:      ClassifyUrgency(daysUntilEnd),
		Contacted:    contacted,
	}
}

// ClassifyUrgency maps the signed days until lease end onto an urgency bucket
func ClassifyUrgency(daysUntilEnd int) Urgency {
	switch {
	case daysUntilEnd < 0:
		return UrgencyExpired
	case daysUntilEnd <= UrgentWithinDays:
		return UrgencyUrgent
	case daysUntilEnd <= SoonWithinDays:
		return UrgencySoon
	default:
		return UrgencyUpcoming
	}
}

// DateOf returns the start of t's calendar day, in UTC
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of calendar days from a to b
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

package leasing

import (
	"time"

	"github.com/google/uuid"
)

// Match records that a property satisfied every filter of an inquiry.
// At most one exists per (InquiryID, PropertyID).
type Match struct {
	ID               uuid.UUID
	InquiryID        uuid.UUID
	PropertyID       uuid.UUID
	MatchedAt        time.Time
	NotificationSent bool
	Contacted        bool
}

// NewMatch builds an unsaved match for the pair
func NewMatch(inquiryID, propertyID uuid.UUID, at time.Time) *Match {
	return &Match{
		ID:         uuid.New(),
		InquiryID:  inquiryID,
		PropertyID: propertyID,
		MatchedAt:  at,
	}
}

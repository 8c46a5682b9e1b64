package leasing

import (
	"context"

	"github.com/estate/backend/internal/domain/leasing"
	"go.uber.org/zap"
)

// LogNotifier reports new matches to the application log for agents to pick up
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// NotifyMatch implements MatchNotifier
func (n *LogNotifier) NotifyMatch(ctx context.Context, m *leasing.Match, inquiry *leasing.Inquiry, property *leasing.Property) error {
	n.logger.Info("new match for inquiry",
		zap.String("match_id", m.ID.String()),
		zap.String("inquiry_id", inquiry.ID.String()),
		zap.String("requester", inquiry.RequesterName),
		zap.String("phone", inquiry.Phone),
		zap.String("property_id", property.ID.String()),
		zap.String("property_title", property.Title),
		zap.String("listing_type", string(property.ListingType)),
	)
	return nil
}

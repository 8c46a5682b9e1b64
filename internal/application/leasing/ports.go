package leasing

import (
	"context"

	"github.com/estate/backend/internal/domain/leasing"
)

// DocumentStore is path-addressed blob storage for lease documents.
// Implemented by the infrastructure layer (S3, in-memory).
type DocumentStore interface {
	// Put stores data and returns the path it was stored under
	Put(ctx context.Context, data []byte, suggestedName string) (string, error)

	// Remove deletes the blob at path. Removing a missing path is not an error.
	Remove(ctx context.Context, path string) error

	// PublicURL returns a stable public reference for path
	PublicURL(path string) string
}

// MatchNotifier is told about every newly created match
type MatchNotifier interface {
	NotifyMatch(ctx context.Context, m *leasing.Match, inquiry *leasing.Inquiry, property *leasing.Property) error
}

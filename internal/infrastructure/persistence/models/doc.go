// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Domain entities carry no GORM tags. Persistence models hold the table mappings,
// indexes and constraints, and convert to and from the domain with ToDomain and
// the *ModelFromDomain constructors.
//
// The tags mirror the SQL migrations so that AutoMigrate (used for SQLite and
// tests) produces the same constraints: the partial unique index on active
// contracts, the unique (inquiry, property) pair on matches and the date check.
package models

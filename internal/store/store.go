// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"optpricer/internal/models"
)

// QuoteStore defines the interface for quote history persistence.
type QuoteStore interface {
	// SaveQuote stores q and sets its ID. A zero CreatedAt is set to now.
	SaveQuote(ctx context.Context, q *models.Quote) error
	// GetQuotes returns matching quotes, newest first.
	GetQuotes(ctx context.Context, filter QuoteFilter) ([]models.Quote, error)
	// CountQuotes returns the number of stored quotes per method.
	CountQuotes(ctx context.Context) (map[models.PricingMethod]int, error)

	Close() error
}

// QuoteFilter represents filters for querying quotes. Zero fields match
// everything.
type QuoteFilter struct {
	Method    models.PricingMethod
	Kind      models.OptionKind
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}

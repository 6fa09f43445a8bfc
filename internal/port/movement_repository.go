package port

import (
	"context"

	"github.com/jmarq76/beerstock/internal/core/domain"
)

type MovementRepository interface {
	// Append persists a stock movement, or returns ErrUnknownBeer once the beer is gone
	Append(ctx context.Context, movement domain.Movement) error

	// ListByBeer returns movements for a beer, newest first
	ListByBeer(ctx context.Context, beerID int64) ([]domain.Movement, error)
}

type MovementPublisher interface {
	// Publish hands a movement off for asynchronous persistence
	Publish(movement domain.Movement)
}

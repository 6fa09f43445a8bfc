package port

import (
	"context"

	"github.com/jmarq76/beerstock/internal/core/domain"
)

type CountryRepository interface {
	FindAll(ctx context.Context) ([]domain.Country, error)

	// FindByID returns nil, nil when the country does not exist
	FindByID(ctx context.Context, id int64) (*domain.Country, error)
}

package port

import (
	"context"

	"github.com/jmarq76/beerstock/internal/core/domain"
)

type BeerRepository interface {
	// FindByName returns nil, nil when no beer has the name
	FindByName(ctx context.Context, name string) (*domain.Beer, error)

	// FindByID returns nil, nil when no beer has the id
	FindByID(ctx context.Context, id int64) (*domain.Beer, error)

	// FindAll returns every stored beer in storage order
	FindAll(ctx context.Context) ([]domain.Beer, error)

	// Save inserts when beer.ID is zero and assigns the id, otherwise updates with a version check
	Save(ctx context.Context, beer domain.Beer) (domain.Beer, error)

	// DeleteByID removes the beer permanently
	DeleteByID(ctx context.Context, id int64) error
}

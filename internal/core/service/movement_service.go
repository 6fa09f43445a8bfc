package service

import (
	"context"
	"fmt"

	"github.com/jmarq76/beerstock/internal/core/domain"
	"github.com/jmarq76/beerstock/internal/port"
)

type MovementService struct {
	beers     port.BeerRepository
	movements port.MovementRepository
}

func NewMovementService(beers port.BeerRepository, movements port.MovementRepository) *MovementService {
	return &MovementService{beers: beers, movements: movements}
}

func (s *MovementService) ListByBeer(ctx context.Context, beerID int64) ([]domain.Movement, error) {
	beer, err := s.beers.FindByID(ctx, beerID)
	if err != nil {
		return nil, fmt.Errorf("find beer by id: %w", err)
	}
	if beer == nil {
		return nil, fmt.Errorf("%w: beer with id %d", ErrNotFound, beerID)
	}

	movements, err := s.movements.ListByBeer(ctx, beerID)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	if movements == nil {
		movements = []domain.Movement{}
	}
	return movements, nil
}

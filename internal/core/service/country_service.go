package service

import (
	"context"
	"fmt"

	"github.com/jmarq76/beerstock/internal/core/domain"
	"github.com/jmarq76/beerstock/internal/port"
)

type CountryService struct {
	repo port.CountryRepository
}

func NewCountryService(repo port.CountryRepository) *CountryService {
	return &CountryService{repo: repo}
}

func (s *CountryService) List(ctx context.Context) ([]domain.Country, error) {
	countries, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("find all countries: %w", err)
	}
	if countries == nil {
		countries = []domain.Country{}
	}
	return countries, nil
}

func (s *CountryService) FindByID(ctx context.Context, id int64) (domain.Country, error) {
	country, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Country{}, fmt.Errorf("find country by id: %w", err)
	}
	if country == nil {
		return domain.Country{}, fmt.Errorf("%w: country with id %d", ErrCountryNotFound, id)
	}
	return *country, nil
}

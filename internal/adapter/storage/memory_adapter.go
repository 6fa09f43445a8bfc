package storage

import (
	"context"
	"sync"
	"time"

	"github.com/jmarq76/beerstock/internal/core/domain"
	"github.com/jmarq76/beerstock/internal/port"
)

// MemoryBeerAdapter keeps beers and their movements under one lock.
type MemoryBeerAdapter struct {
	mu        sync.RWMutex
	nextID    int64
	beers     map[int64]domain.Beer
	order     []int64
	movements map[int64][]domain.Movement
}

func NewMemoryBeerAdapter() *MemoryBeerAdapter {
	return &MemoryBeerAdapter{
		beers:     make(map[int64]domain.Beer),
		movements: make(map[int64][]domain.Movement),
	}
}

func (m *MemoryBeerAdapter) FindByName(ctx context.Context, name string) (*domain.Beer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		if b := m.beers[id]; b.Name == name {
			return &b, nil
		}
	}
	return nil, nil
}

func (m *MemoryBeerAdapter) FindByID(ctx context.Context, id int64) (*domain.Beer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.beers[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *MemoryBeerAdapter) FindAll(ctx context.Context) ([]domain.Beer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	beers := make([]domain.Beer, 0, len(m.order))
	for _, id := range m.order {
		beers = append(beers, m.beers[id])
	}
	return beers, nil
}

func (m *MemoryBeerAdapter) Save(ctx context.Context, beer domain.Beer) (domain.Beer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()

	if beer.ID == 0 {
		for _, id := range m.order {
			if m.beers[id].Name == beer.Name {
				return domain.Beer{}, port.ErrDuplicateName
			}
		}
		m.nextID++
		beer.ID = m.nextID
		beer.Version = 1
		beer.CreatedAt = now
		beer.UpdatedAt = now
		m.beers[beer.ID] = beer
		m.order = append(m.order, beer.ID)
		return beer, nil
	}

	current, ok := m.beers[beer.ID]
	if !ok || current.Version != beer.Version {
		return domain.Beer{}, port.ErrOptimisticLock
	}
	beer.Name = current.Name
	beer.CreatedAt = current.CreatedAt
	beer.Version++
	beer.UpdatedAt = now
	m.beers[beer.ID] = beer
	return beer, nil
}

func (m *MemoryBeerAdapter) DeleteByID(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.beers[id]; !ok {
		return nil
	}
	delete(m.beers, id)
	delete(m.movements, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryBeerAdapter) Append(ctx context.Context, movement domain.Movement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.beers[movement.BeerID]; !ok {
		return port.ErrUnknownBeer
	}
	m.movements[movement.BeerID] = append(m.movements[movement.BeerID], movement)
	return nil
}

func (m *MemoryBeerAdapter) ListByBeer(ctx context.Context, beerID int64) ([]domain.Movement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.movements[beerID]
	out := make([]domain.Movement, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	return out, nil
}

type MemoryCountryAdapter struct {
	countries []domain.Country
}

func NewMemoryCountryAdapter(countries []domain.Country) *MemoryCountryAdapter {
	return &MemoryCountryAdapter{countries: countries}
}

func (m *MemoryCountryAdapter) FindAll(ctx context.Context) ([]domain.Country, error) {
	out := make([]domain.Country, len(m.countries))
	copy(out, m.countries)
	return out, nil
}

func (m *MemoryCountryAdapter) FindByID(ctx context.Context, id int64) (*domain.Country, error) {
	for _, c := range m.countries {
		if c.ID == id {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

// DefaultCountries seeds the country store when no database table backs it.
var DefaultCountries = []domain.Country{
	{ID: 1, Name: "Brazil", PortugueseName: "Brasil", Code: "BR", BACEN: 1058},
	{ID: 2, Name: "Argentina", PortugueseName: "Argentina", Code: "AR", BACEN: 639},
	{ID: 3, Name: "Germany", PortugueseName: "Alemanha", Code: "DE", BACEN: 230},
	{ID: 4, Name: "Belgium", PortugueseName: "Bélgica", Code: "BE", BACEN: 876},
	{ID: 5, Name: "Czech Republic", PortugueseName: "República Tcheca", Code: "CZ", BACEN: 7919},
}

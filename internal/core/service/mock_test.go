package service

import (
	"context"
	"errors"
	"sync"

	"github.com/jmarq76/beerstock/internal/core/domain"
	"github.com/jmarq76/beerstock/internal/port"
)

// Mock BeerRepository
type mockBeerRepo struct {
	mu     sync.Mutex
	nextID int64
	beers  map[int64]domain.Beer
	order  []int64
	saves  int
	err    error
}

func newMockBeerRepo() *mockBeerRepo {
	return &mockBeerRepo{beers: make(map[int64]domain.Beer)}
}

func (m *mockBeerRepo) FindByName(ctx context.Context, name string) (*domain.Beer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	for _, b := range m.beers {
		if b.Name == name {
			found := b
			return &found, nil
		}
	}
	return nil, nil
}

func (m *mockBeerRepo) FindByID(ctx context.Context, id int64) (*domain.Beer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	b, ok := m.beers[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *mockBeerRepo) FindAll(ctx context.Context) ([]domain.Beer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	var beers []domain.Beer
	for _, id := range m.order {
		if b, ok := m.beers[id]; ok {
			beers = append(beers, b)
		}
	}
	return beers, nil
}

func (m *mockBeerRepo) Save(ctx context.Context, beer domain.Beer) (domain.Beer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return domain.Beer{}, m.err
	}
	m.saves++
	if beer.ID == 0 {
		m.nextID++
		beer.ID = m.nextID
		m.order = append(m.order, beer.ID)
	}
	beer.Version++
	m.beers[beer.ID] = beer
	return beer, nil
}

func (m *mockBeerRepo) DeleteByID(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	delete(m.beers, id)
	return nil
}

func (m *mockBeerRepo) quantity(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.beers[id].Quantity
}

func (m *mockBeerRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.beers)
}

// Mock MovementRepository
type mockMovementRepo struct {
	mu        sync.Mutex
	movements []domain.Movement
	fail      bool
	deleted   map[int64]bool
}

func (m *mockMovementRepo) Append(ctx context.Context, movement domain.Movement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail {
		return errors.New("append failed")
	}
	if m.deleted[movement.BeerID] {
		return port.ErrUnknownBeer
	}
	m.movements = append(m.movements, movement)
	return nil
}

func (m *mockMovementRepo) ListByBeer(ctx context.Context, beerID int64) ([]domain.Movement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Movement
	for i := len(m.movements) - 1; i >= 0; i-- {
		if m.movements[i].BeerID == beerID {
			out = append(out, m.movements[i])
		}
	}
	return out, nil
}

func (m *mockMovementRepo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.movements)
}

// Mock MovementPublisher
type recordingPublisher struct {
	mu        sync.Mutex
	published []domain.Movement
}

func (p *recordingPublisher) Publish(movement domain.Movement) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, movement)
}

func lager() domain.Beer {
	return domain.Beer{
		Name:     "lager",
		Brand:    "Ambev",
		Type:     domain.BeerTypeLager,
		Max:      50,
		Quantity: 10,
	}
}

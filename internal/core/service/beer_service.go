package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jmarq76/beerstock/internal/core/domain"
	"github.com/jmarq76/beerstock/internal/port"
)

const (
	maxNameLength   = 200
	maxBrandLength  = 200
	maxCapacity     = 500
	maxInitialStock = 100
	lockStripes     = 64
)

type Option func(*BeerService)

func WithLogger(logger *zap.Logger) Option {
	return func(s *BeerService) {
		s.logger = logger
	}
}

func WithMovementPublisher(publisher port.MovementPublisher) Option {
	return func(s *BeerService) {
		s.movements = publisher
	}
}

// BeerService owns the beer stock and keeps every quantity within [0, max].
type BeerService struct {
	repo      port.BeerRepository
	movements port.MovementPublisher
	logger    *zap.Logger
	tracer    trace.Tracer

	// adjustments on the same id are serialized by stripe
	locks [lockStripes]sync.Mutex
}

func NewBeerService(repo port.BeerRepository, opts ...Option) *BeerService {
	s := &BeerService{
		repo:   repo,
		logger: zap.NewNop(),
		tracer: otel.Tracer("beerstock/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BeerService) Register(ctx context.Context, beer domain.Beer) (domain.Beer, error) {
	ctx, span := s.tracer.Start(ctx, "beer.register", trace.WithAttributes(attribute.String("beer.name", beer.Name)))
	defer span.End()

	if err := validate(beer); err != nil {
		return domain.Beer{}, err
	}

	existing, err := s.repo.FindByName(ctx, beer.Name)
	if err != nil {
		return domain.Beer{}, fmt.Errorf("find beer by name: %w", err)
	}
	if existing != nil {
		return domain.Beer{}, fmt.Errorf("%w: beer with name %q", ErrAlreadyRegistered, beer.Name)
	}

	beer.ID = 0
	beer.Version = 0
	saved, err := s.repo.Save(ctx, beer)
	if errors.Is(err, port.ErrDuplicateName) {
		return domain.Beer{}, fmt.Errorf("%w: beer with name %q", ErrAlreadyRegistered, beer.Name)
	}
	if err != nil {
		return domain.Beer{}, fmt.Errorf("save beer: %w", err)
	}

	s.logger.Info("beer registered",
		zap.Int64("beer_id", saved.ID),
		zap.String("name", saved.Name),
		zap.Int("quantity", saved.Quantity),
		zap.Int("max", saved.Max),
	)
	return saved, nil
}

func (s *BeerService) FindByName(ctx context.Context, name string) (domain.Beer, error) {
	ctx, span := s.tracer.Start(ctx, "beer.find_by_name", trace.WithAttributes(attribute.String("beer.name", name)))
	defer span.End()

	beer, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return domain.Beer{}, fmt.Errorf("find beer by name: %w", err)
	}
	if beer == nil {
		return domain.Beer{}, fmt.Errorf("%w: beer with name %q", ErrNotFound, name)
	}
	return *beer, nil
}

func (s *BeerService) FindByID(ctx context.Context, id int64) (domain.Beer, error) {
	ctx, span := s.tracer.Start(ctx, "beer.find_by_id", trace.WithAttributes(attribute.Int64("beer.id", id)))
	defer span.End()

	return s.verifyIfExists(ctx, id)
}

func (s *BeerService) ListAll(ctx context.Context) ([]domain.Beer, error) {
	ctx, span := s.tracer.Start(ctx, "beer.list_all")
	defer span.End()

	beers, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("find all beers: %w", err)
	}
	if beers == nil {
		beers = []domain.Beer{}
	}
	return beers, nil
}

func (s *BeerService) DeleteByID(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "beer.delete", trace.WithAttributes(attribute.Int64("beer.id", id)))
	defer span.End()

	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	if _, err := s.verifyIfExists(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete beer: %w", err)
	}

	s.logger.Info("beer deleted", zap.Int64("beer_id", id))
	return nil
}

func (s *BeerService) Increment(ctx context.Context, id int64, amount int) (domain.Beer, error) {
	ctx, span := s.tracer.Start(ctx, "beer.increment",
		trace.WithAttributes(attribute.Int64("beer.id", id), attribute.Int("amount", amount)))
	defer span.End()

	if amount <= 0 {
		return domain.Beer{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, amount)
	}

	return s.adjust(ctx, id, amount, func(beer domain.Beer) error {
		// compared against the headroom so large amounts cannot overflow
		if amount > beer.Max-beer.Quantity {
			return fmt.Errorf("%w: beer %d plus %d exceeds max %d", ErrCapacityExceeded, id, amount, beer.Max)
		}
		return nil
	})
}

func (s *BeerService) Decrement(ctx context.Context, id int64, amount int) (domain.Beer, error) {
	ctx, span := s.tracer.Start(ctx, "beer.decrement",
		trace.WithAttributes(attribute.Int64("beer.id", id), attribute.Int("amount", amount)))
	defer span.End()

	if amount <= 0 {
		return domain.Beer{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, amount)
	}

	return s.adjust(ctx, id, -amount, func(beer domain.Beer) error {
		if amount > beer.Quantity {
			return fmt.Errorf("%w: beer %d minus %d", ErrBelowZero, id, amount)
		}
		return nil
	})
}

func (s *BeerService) adjust(ctx context.Context, id int64, delta int, check func(domain.Beer) error) (domain.Beer, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	beer, err := s.verifyIfExists(ctx, id)
	if err != nil {
		return domain.Beer{}, err
	}

	if err := check(beer); err != nil {
		s.logger.Warn("stock adjustment rejected",
			zap.Int64("beer_id", id),
			zap.Int("quantity", beer.Quantity),
			zap.Int("delta", delta),
			zap.Error(err),
		)
		return domain.Beer{}, err
	}

	beer.Quantity += delta
	saved, err := s.repo.Save(ctx, beer)
	if err != nil {
		return domain.Beer{}, fmt.Errorf("save beer: %w", err)
	}

	if s.movements != nil {
		s.movements.Publish(domain.NewMovement(saved.ID, delta, saved.Quantity))
	}

	s.logger.Info("stock adjusted",
		zap.Int64("beer_id", saved.ID),
		zap.Int("delta", delta),
		zap.Int("quantity", saved.Quantity),
	)
	return saved, nil
}

func (s *BeerService) verifyIfExists(ctx context.Context, id int64) (domain.Beer, error) {
	beer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Beer{}, fmt.Errorf("find beer by id: %w", err)
	}
	if beer == nil {
		return domain.Beer{}, fmt.Errorf("%w: beer with id %d", ErrNotFound, id)
	}
	return *beer, nil
}

func (s *BeerService) lockFor(id int64) *sync.Mutex {
	idx := id % lockStripes
	if idx < 0 {
		idx = -idx
	}
	return &s.locks[idx]
}

func validate(beer domain.Beer) error {
	// lengths count characters, as the VARCHAR columns do
	nameLen, brandLen := utf8.RuneCountInString(beer.Name), utf8.RuneCountInString(beer.Brand)

	switch {
	case nameLen == 0 || nameLen > maxNameLength:
		return fmt.Errorf("%w: name must have 1 to %d characters", ErrInvalidBeer, maxNameLength)
	case brandLen == 0 || brandLen > maxBrandLength:
		return fmt.Errorf("%w: brand must have 1 to %d characters", ErrInvalidBeer, maxBrandLength)
	case !beer.Type.Valid():
		return fmt.Errorf("%w: unknown type %q", ErrInvalidBeer, beer.Type)
	case beer.Max < 1 || beer.Max > maxCapacity:
		return fmt.Errorf("%w: max must be between 1 and %d", ErrInvalidBeer, maxCapacity)
	case beer.Quantity > maxInitialStock:
		return fmt.Errorf("%w: quantity must not exceed %d", ErrInvalidBeer, maxInitialStock)
	case !beer.Fits(beer.Quantity):
		return fmt.Errorf("%w: quantity %d outside [0, %d]", ErrInvalidBeer, beer.Quantity, beer.Max)
	}
	return nil
}

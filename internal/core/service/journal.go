package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jmarq76/beerstock/internal/core/domain"
	"github.com/jmarq76/beerstock/internal/port"
)

const appendTimeout = 5 * time.Second

// Journal persists stock movements in the background.
type Journal struct {
	repo   port.MovementRepository
	queue  chan domain.Movement
	logger *zap.Logger
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewJournal(repo port.MovementRepository, queueSize, workers int, logger *zap.Logger) *Journal {
	if logger == nil {
		logger = zap.NewNop()
	}
	j := &Journal{
		repo:   repo,
		queue:  make(chan domain.Movement, queueSize),
		logger: logger,
	}
	for i := 0; i < workers; i++ {
		j.wg.Add(1)
		go func(id int) {
			defer j.wg.Done()
			j.workerLoop(id)
		}(i)
	}
	return j
}

// Publish never blocks; a full queue drops the movement.
func (j *Journal) Publish(movement domain.Movement) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		j.logger.Warn("journal closed, movement dropped", zap.String("movement_id", movement.ID.String()))
		return
	}

	select {
	case j.queue <- movement:
	default:
		j.logger.Warn("journal queue full, movement dropped",
			zap.String("movement_id", movement.ID.String()),
			zap.Int64("beer_id", movement.BeerID),
		)
	}
}

// Close stops accepting movements and waits for queued ones to be written.
func (j *Journal) Close() {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return
	}
	j.closed = true
	close(j.queue)
	j.mu.Unlock()

	j.wg.Wait()
}

func (j *Journal) workerLoop(id int) {
	for movement := range j.queue {
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)

		err := j.repo.Append(ctx, movement)
		switch {
		case errors.Is(err, port.ErrUnknownBeer):
			// beer deleted while the movement was queued
			j.logger.Debug("movement skipped, beer deleted",
				zap.Int("worker", id),
				zap.String("movement_id", movement.ID.String()),
				zap.Int64("beer_id", movement.BeerID),
			)
		case err != nil:
			j.logger.Error("failed to save movement",
				zap.Int("worker", id),
				zap.String("movement_id", movement.ID.String()),
				zap.Error(err),
			)
		default:
			j.logger.Debug("saved movement",
				zap.Int("worker", id),
				zap.String("movement_id", movement.ID.String()),
			)
		}

		cancel()
	}
}

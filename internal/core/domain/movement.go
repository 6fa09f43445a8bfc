package domain

import (
	"time"

	"github.com/google/uuid"
)

// Movement records one accepted stock adjustment.
type Movement struct {
	ID        uuid.UUID `json:"id"`
	BeerID    int64     `json:"beer_id"`
	Delta     int       `json:"delta"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

func NewMovement(beerID int64, delta, quantity int) Movement {
	return Movement{
		ID:        uuid.New(),
		BeerID:    beerID,
		Delta:     delta,
		Quantity:  quantity,
		CreatedAt: time.Now().UTC(),
	}
}

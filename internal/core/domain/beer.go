package domain

import "time"

type BeerType string

const (
	BeerTypeLager    BeerType = "LAGER"
	BeerTypeMalzbier BeerType = "MALZBIER"
	BeerTypeWitbier  BeerType = "WITBIER"
	BeerTypeWeiss    BeerType = "WEISS"
	BeerTypeAle      BeerType = "ALE"
	BeerTypeIPA      BeerType = "IPA"
	BeerTypeStout    BeerType = "STOUT"
)

var beerTypes = map[BeerType]struct{}{
	BeerTypeLager:    {},
	BeerTypeMalzbier: {},
	BeerTypeWitbier:  {},
	BeerTypeWeiss:    {},
	BeerTypeAle:      {},
	BeerTypeIPA:      {},
	BeerTypeStout:    {},
}

func (t BeerType) Valid() bool {
	_, ok := beerTypes[t]
	return ok
}

type Beer struct {
	ID        int64
	Name      string
	Brand     string
	Type      BeerType
	Max       int
	Quantity  int
	Version   int // optimistic locking
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Fits reports whether quantity lies within [0, Max].
func (b Beer) Fits(quantity int) bool {
	return quantity >= 0 && quantity <= b.Max
}

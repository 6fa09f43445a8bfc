package port

import "errors"

var (
	ErrOptimisticLock = errors.New("optimistic lock conflict")
	ErrDuplicateName  = errors.New("duplicate beer name")
	ErrUnknownBeer    = errors.New("movement for unknown beer")
)

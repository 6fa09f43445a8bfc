package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/jmarq76/beerstock/internal/core/domain"
	"github.com/jmarq76/beerstock/internal/port"
)

func newBeer(name string) domain.Beer {
	return domain.Beer{
		Name:     name,
		Brand:    "Ambev",
		Type:     domain.BeerTypeLager,
		Max:      50,
		Quantity: 10,
	}
}

// runBeerRepositoryContract expects an empty store.
func runBeerRepositoryContract(t *testing.T, repo port.BeerRepository) {
	ctx := context.Background()

	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty store, got %d beers", len(all))
	}

	saved, err := repo.Save(ctx, newBeer("lager"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.ID == 0 {
		t.Fatal("expected id to be assigned")
	}
	if saved.Version != 1 {
		t.Errorf("expected version 1, got %d", saved.Version)
	}

	if _, err := repo.Save(ctx, newBeer("lager")); !errors.Is(err, port.ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got: %v", err)
	}

	second, err := repo.Save(ctx, newBeer("stout"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if second.ID == saved.ID {
		t.Error("expected distinct ids")
	}

	byName, err := repo.FindByName(ctx, "lager")
	if err != nil {
		t.Fatalf("FindByName failed: %v", err)
	}
	if byName == nil || byName.ID != saved.ID || byName.Quantity != 10 || byName.Max != 50 || byName.Type != domain.BeerTypeLager {
		t.Errorf("unexpected beer by name: %+v", byName)
	}

	missing, err := repo.FindByName(ctx, "weiss")
	if err != nil {
		t.Fatalf("FindByName failed: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown name")
	}

	// Update with correct version
	saved.Quantity = 30
	updated, err := repo.Save(ctx, saved)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("expected version 2, got %d", updated.Version)
	}

	byID, err := repo.FindByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if byID == nil || byID.Quantity != 30 || byID.Version != 2 {
		t.Errorf("unexpected beer by id: %+v", byID)
	}

	// Try update with stale version
	saved.Quantity = 40
	if _, err := repo.Save(ctx, saved); !errors.Is(err, port.ErrOptimisticLock) {
		t.Errorf("expected ErrOptimisticLock, got: %v", err)
	}

	all, err = repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 beers, got %d", len(all))
	}
	if all[0].Name != "lager" || all[1].Name != "stout" {
		t.Errorf("expected storage order, got %s, %s", all[0].Name, all[1].Name)
	}

	if err := repo.DeleteByID(ctx, saved.ID); err != nil {
		t.Fatalf("DeleteByID failed: %v", err)
	}
	gone, err := repo.FindByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if gone != nil {
		t.Error("expected beer to be deleted")
	}

	// name is free again
	if _, err := repo.Save(ctx, newBeer("lager")); err != nil {
		t.Errorf("expected name to be reusable after delete, got: %v", err)
	}
}

// stockStore is an adapter serving both beers and their movements.
type stockStore interface {
	port.BeerRepository
	port.MovementRepository
}

// runMovementRepositoryContract expects an empty store.
func runMovementRepositoryContract(t *testing.T, repo stockStore) {
	ctx := context.Background()

	lager, err := repo.Save(ctx, newBeer("lager"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	stout, err := repo.Save(ctx, newBeer("stout"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	empty, err := repo.ListByBeer(ctx, lager.ID)
	if err != nil {
		t.Fatalf("ListByBeer failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no movements, got %d", len(empty))
	}

	first := domain.NewMovement(lager.ID, 5, 15)
	second := domain.NewMovement(lager.ID, -3, 12)
	second.CreatedAt = first.CreatedAt.Add(1e6)
	other := domain.NewMovement(stout.ID, 1, 11)

	for _, mv := range []domain.Movement{first, second, other} {
		if err := repo.Append(ctx, mv); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	list, err := repo.ListByBeer(ctx, lager.ID)
	if err != nil {
		t.Fatalf("ListByBeer failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Error("expected newest movement first")
	}
	if list[0].Delta != -3 || list[0].Quantity != 12 {
		t.Errorf("unexpected movement: %+v", list[0])
	}

	if err := repo.Append(ctx, domain.NewMovement(999999, 1, 1)); !errors.Is(err, port.ErrUnknownBeer) {
		t.Errorf("expected ErrUnknownBeer for a missing beer, got: %v", err)
	}

	if err := repo.DeleteByID(ctx, lager.ID); err != nil {
		t.Fatalf("DeleteByID failed: %v", err)
	}
	if err := repo.Append(ctx, domain.NewMovement(lager.ID, 1, 13)); !errors.Is(err, port.ErrUnknownBeer) {
		t.Errorf("expected ErrUnknownBeer after delete, got: %v", err)
	}

	gone, err := repo.ListByBeer(ctx, lager.ID)
	if err != nil {
		t.Fatalf("ListByBeer failed: %v", err)
	}
	if len(gone) != 0 {
		t.Errorf("expected movements to go with the beer, got %d", len(gone))
	}

	kept, _ := repo.ListByBeer(ctx, stout.ID)
	if len(kept) != 1 {
		t.Errorf("expected other beer's history untouched, got %d", len(kept))
	}
}

package storage

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryBeerAdapter_Contract(t *testing.T) {
	runBeerRepositoryContract(t, NewMemoryBeerAdapter())
}

func TestMemoryBeerAdapter_MovementContract(t *testing.T) {
	runMovementRepositoryContract(t, NewMemoryBeerAdapter())
}

func TestMemoryBeerAdapter_ConcurrentInsert(t *testing.T) {
	repo := NewMemoryBeerAdapter()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Save(ctx, newBeer("same")); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("expected exactly 1 insert, got %d", successes)
	}
}

func TestMemoryBeerAdapter_ReturnsCopies(t *testing.T) {
	repo := NewMemoryBeerAdapter()
	ctx := context.Background()

	saved, _ := repo.Save(ctx, newBeer("lager"))
	found, _ := repo.FindByID(ctx, saved.ID)
	found.Quantity = 99

	again, _ := repo.FindByID(ctx, saved.ID)
	if again.Quantity != 10 {
		t.Errorf("stored beer was mutated through returned pointer: %d", again.Quantity)
	}
}

func TestMemoryCountryAdapter(t *testing.T) {
	repo := NewMemoryCountryAdapter(DefaultCountries)
	ctx := context.Background()

	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}
	if len(all) != len(DefaultCountries) {
		t.Errorf("expected %d countries, got %d", len(DefaultCountries), len(all))
	}

	br, _ := repo.FindByID(ctx, 1)
	if br == nil || br.Code != "BR" {
		t.Errorf("expected Brazil, got %+v", br)
	}

	missing, _ := repo.FindByID(ctx, 999)
	if missing != nil {
		t.Error("expected nil for unknown country")
	}
}

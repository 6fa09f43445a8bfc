package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jmarq76/beerstock/internal/adapter/storage"
	"github.com/jmarq76/beerstock/internal/config"
	"github.com/jmarq76/beerstock/internal/core/domain"
	"github.com/jmarq76/beerstock/internal/core/service"
	"github.com/jmarq76/beerstock/internal/logging"
)

func main() {
	capacity := flag.Int("max", 20, "beer capacity")
	requests := flag.Int("requests", 50, "concurrent increments and decrements, each")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New("warn", cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	backend, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer backend.Close()

	svc := service.NewBeerService(backend.Beers, service.WithLogger(logger))

	beer, err := svc.Register(ctx, domain.Beer{
		Name:     "loadgen-" + uuid.NewString(),
		Brand:    "loadgen",
		Type:     domain.BeerTypeLager,
		Max:      *capacity,
		Quantity: 0,
	})
	if err != nil {
		logger.Fatal("failed to register beer", zap.Error(err))
	}
	defer svc.DeleteByID(ctx, beer.ID)

	incOK, incRejected := run(*requests, func() error {
		_, err := svc.Increment(ctx, beer.ID, 1)
		return expect(err, service.ErrCapacityExceeded)
	})
	decOK, decRejected := run(*requests, func() error {
		_, err := svc.Decrement(ctx, beer.ID, 1)
		return expect(err, service.ErrBelowZero)
	})

	final, err := svc.FindByID(ctx, beer.ID)
	if err != nil {
		logger.Fatal("failed to read beer", zap.Error(err))
	}

	fmt.Println("========== LOAD TEST RESULTS ==========")
	fmt.Printf("Driver:            %s\n", cfg.StorageDriver)
	fmt.Printf("Capacity:          %d\n", *capacity)
	fmt.Printf("Increments:        %d ok / %d rejected\n", incOK, incRejected)
	fmt.Printf("Decrements:        %d ok / %d rejected\n", decOK, decRejected)
	fmt.Printf("Final Quantity:    %d\n", final.Quantity)
	fmt.Println("=======================================")

	wantInc := min(*requests, *capacity)
	if incOK == wantInc && decOK == wantInc && final.Quantity == 0 {
		fmt.Println("PASS: stock stayed within [0, max]")
		return
	}
	fmt.Printf("FAIL: expected %d increments and decrements and final quantity 0\n", wantInc)
	os.Exit(1)
}

// run fires n concurrent calls and counts successes and expected rejections.
func run(n int, call func() error) (ok, rejected int) {
	var okCount, rejectedCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch err := call(); {
			case err == nil:
				okCount.Add(1)
			case errors.Is(err, errRejected):
				rejectedCount.Add(1)
			default:
				fmt.Fprintf(os.Stderr, "unexpected error: %v\n", err)
			}
		}()
	}

	wg.Wait()
	fmt.Printf("batch of %d finished in %v\n", n, time.Since(start))
	return int(okCount.Load()), int(rejectedCount.Load())
}

var errRejected = errors.New("rejected")

func expect(err, rejection error) error {
	if errors.Is(err, rejection) {
		return errRejected
	}
	return err
}

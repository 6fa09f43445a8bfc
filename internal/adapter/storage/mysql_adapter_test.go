package storage

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/beerstock?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	return db
}

func resetMySQL(t *testing.T, db *sql.DB) *MySQLAdapter {
	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	if err := adapter.EnsureSchema(ctx); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	for _, table := range []string{"movements", "beers", "pais"} {
		if _, err := db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			t.Fatalf("cleanup %s failed: %v", table, err)
		}
	}
	return adapter
}

func TestMySQLAdapter_BeerContract(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	runBeerRepositoryContract(t, resetMySQL(t, db))
}

func TestMySQLAdapter_MovementContract(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	runMovementRepositoryContract(t, resetMySQL(t, db))
}

func TestMySQLCountryAdapter(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	resetMySQL(t, db)

	_, err := db.ExecContext(ctx, `INSERT INTO pais (id, nome, nome_pt, sigla, bacen) VALUES (1, 'Brazil', 'Brasil', 'BR', 1058)`)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	repo := NewMySQLCountryAdapter(db)

	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}
	if len(all) != 1 || all[0].PortugueseName != "Brasil" {
		t.Errorf("unexpected countries: %+v", all)
	}

	missing, err := repo.FindByID(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for nonexistent country")
	}
}

func TestMySQLCountryAdapter_SeedIsIdempotent(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	resetMySQL(t, db)
	repo := NewMySQLCountryAdapter(db)

	for i := 0; i < 2; i++ {
		if err := repo.Seed(ctx, DefaultCountries); err != nil {
			t.Fatalf("Seed failed: %v", err)
		}
	}

	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}
	if len(all) != len(DefaultCountries) {
		t.Errorf("expected %d countries, got %d", len(DefaultCountries), len(all))
	}
}

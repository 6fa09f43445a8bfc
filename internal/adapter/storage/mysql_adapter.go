package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/jmarq76/beerstock/internal/core/domain"
	"github.com/jmarq76/beerstock/internal/port"
)

const mysqlDuplicateEntry = 1062

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS beers (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(200) NOT NULL UNIQUE,
		brand VARCHAR(200) NOT NULL,
		type VARCHAR(20) NOT NULL,
		max_quantity INT NOT NULL,
		quantity INT NOT NULL,
		version INT NOT NULL DEFAULT 1,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS movements (
		id CHAR(36) PRIMARY KEY,
		beer_id BIGINT NOT NULL,
		delta INT NOT NULL,
		quantity INT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		INDEX idx_movements_beer (beer_id, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS pais (
		id BIGINT PRIMARY KEY,
		nome VARCHAR(60) NOT NULL,
		nome_pt VARCHAR(60) NOT NULL,
		sigla CHAR(2) NOT NULL,
		bacen INT NOT NULL
	)`,
}

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) EnsureSchema(ctx context.Context) error {
	for _, stmt := range mysqlSchema {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

const beerColumns = `id, name, brand, type, max_quantity, quantity, version, created_at, updated_at`

func scanBeer(row interface{ Scan(...any) error }) (domain.Beer, error) {
	var b domain.Beer
	var beerType string
	err := row.Scan(&b.ID, &b.Name, &b.Brand, &beerType, &b.Max, &b.Quantity, &b.Version, &b.CreatedAt, &b.UpdatedAt)
	b.Type = domain.BeerType(beerType)
	return b, err
}

func (m *MySQLAdapter) FindByName(ctx context.Context, name string) (*domain.Beer, error) {
	return m.findOne(ctx, `SELECT `+beerColumns+` FROM beers WHERE name = ?`, name)
}

func (m *MySQLAdapter) FindByID(ctx context.Context, id int64) (*domain.Beer, error) {
	return m.findOne(ctx, `SELECT `+beerColumns+` FROM beers WHERE id = ?`, id)
}

func (m *MySQLAdapter) findOne(ctx context.Context, query string, arg any) (*domain.Beer, error) {
	b, err := scanBeer(m.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query beer: %w", err)
	}
	return &b, nil
}

func (m *MySQLAdapter) FindAll(ctx context.Context) ([]domain.Beer, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT `+beerColumns+` FROM beers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query beers: %w", err)
	}
	defer rows.Close()

	beers := []domain.Beer{}
	for rows.Next() {
		b, err := scanBeer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan beer: %w", err)
		}
		beers = append(beers, b)
	}
	return beers, rows.Err()
}

func (m *MySQLAdapter) Save(ctx context.Context, beer domain.Beer) (domain.Beer, error) {
	now := time.Now().UTC()

	if beer.ID == 0 {
		result, err := m.db.ExecContext(ctx, `
			INSERT INTO beers (name, brand, type, max_quantity, quantity, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
			beer.Name, beer.Brand, string(beer.Type), beer.Max, beer.Quantity, now, now,
		)
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
			return domain.Beer{}, port.ErrDuplicateName
		}
		if err != nil {
			return domain.Beer{}, fmt.Errorf("insert beer: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return domain.Beer{}, fmt.Errorf("last insert id: %w", err)
		}
		beer.ID = id
		beer.Version = 1
		beer.CreatedAt = now
		beer.UpdatedAt = now
		return beer, nil
	}

	result, err := m.db.ExecContext(ctx, `
		UPDATE beers
		SET brand = ?, type = ?, max_quantity = ?, quantity = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		beer.Brand, string(beer.Type), beer.Max, beer.Quantity, now, beer.ID, beer.Version,
	)
	if err != nil {
		return domain.Beer{}, fmt.Errorf("update beer: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.Beer{}, port.ErrOptimisticLock
	}

	beer.Version++
	beer.UpdatedAt = now
	return beer, nil
}

func (m *MySQLAdapter) DeleteByID(ctx context.Context, id int64) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// beer row first: its lock orders the cascade after any in-flight Append
	if _, err := tx.ExecContext(ctx, `DELETE FROM beers WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete beer: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM movements WHERE beer_id = ?`, id); err != nil {
		return fmt.Errorf("delete movements: %w", err)
	}

	return tx.Commit()
}

func (m *MySQLAdapter) Append(ctx context.Context, movement domain.Movement) error {
	// INSERT ... SELECT share-locks the beer row, so a concurrent delete cannot orphan the movement
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO movements (id, beer_id, delta, quantity, created_at)
		SELECT ?, id, ?, ?, ? FROM beers WHERE id = ?`,
		movement.ID.String(), movement.Delta, movement.Quantity, movement.CreatedAt, movement.BeerID,
	)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrUnknownBeer
	}
	return nil
}

func (m *MySQLAdapter) ListByBeer(ctx context.Context, beerID int64) ([]domain.Movement, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, beer_id, delta, quantity, created_at
		FROM movements WHERE beer_id = ?
		ORDER BY created_at DESC`, beerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query movements: %w", err)
	}
	defer rows.Close()

	movements := []domain.Movement{}
	for rows.Next() {
		var mv domain.Movement
		var id string
		if err := rows.Scan(&id, &mv.BeerID, &mv.Delta, &mv.Quantity, &mv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		if mv.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse movement id: %w", err)
		}
		movements = append(movements, mv)
	}
	return movements, rows.Err()
}

// MySQLCountryAdapter reads the pais table.
type MySQLCountryAdapter struct {
	db *sql.DB
}

func NewMySQLCountryAdapter(db *sql.DB) *MySQLCountryAdapter {
	return &MySQLCountryAdapter{db: db}
}

func (m *MySQLCountryAdapter) FindAll(ctx context.Context) ([]domain.Country, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT id, nome, nome_pt, sigla, bacen FROM pais ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query countries: %w", err)
	}
	defer rows.Close()

	countries := []domain.Country{}
	for rows.Next() {
		var c domain.Country
		if err := rows.Scan(&c.ID, &c.Name, &c.PortugueseName, &c.Code, &c.BACEN); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		countries = append(countries, c)
	}
	return countries, rows.Err()
}

func (m *MySQLCountryAdapter) FindByID(ctx context.Context, id int64) (*domain.Country, error) {
	var c domain.Country
	err := m.db.QueryRowContext(ctx, `SELECT id, nome, nome_pt, sigla, bacen FROM pais WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.PortugueseName, &c.Code, &c.BACEN)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query country: %w", err)
	}
	return &c, nil
}

// Seed inserts the countries that are not stored yet.
func (m *MySQLCountryAdapter) Seed(ctx context.Context, countries []domain.Country) error {
	for _, c := range countries {
		_, err := m.db.ExecContext(ctx,
			`INSERT IGNORE INTO pais (id, nome, nome_pt, sigla, bacen) VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.PortugueseName, c.Code, c.BACEN,
		)
		if err != nil {
			return fmt.Errorf("seed country %s: %w", c.Code, err)
		}
	}
	return nil
}

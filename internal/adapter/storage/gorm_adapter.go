package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jmarq76/beerstock/internal/core/domain"
	"github.com/jmarq76/beerstock/internal/port"
)

type beerModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"type:varchar(200);not null;uniqueIndex"`
	Brand     string    `gorm:"type:varchar(200);not null"`
	Type      string    `gorm:"type:varchar(20);not null"`
	Max       int       `gorm:"column:max_quantity;not null"`
	Quantity  int       `gorm:"not null"`
	Version   int       `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (beerModel) TableName() string {
	return "beers"
}

type movementModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	BeerID    int64     `gorm:"not null;index:idx_movements_beer"`
	Delta     int       `gorm:"not null"`
	Quantity  int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index:idx_movements_beer"`
}

func (movementModel) TableName() string {
	return "movements"
}

type countryModel struct {
	ID             int64  `gorm:"primaryKey"`
	Name           string `gorm:"column:nome;type:varchar(60)"`
	PortugueseName string `gorm:"column:nome_pt;type:varchar(60)"`
	Code           string `gorm:"column:sigla;type:varchar(2)"`
	BACEN          int    `gorm:"column:bacen"`
}

func (countryModel) TableName() string {
	return "pais"
}

func toBeerModel(b domain.Beer) beerModel {
	return beerModel{
		ID:        b.ID,
		Name:      b.Name,
		Brand:     b.Brand,
		Type:      string(b.Type),
		Max:       b.Max,
		Quantity:  b.Quantity,
		Version:   b.Version,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func (m beerModel) toDomain() domain.Beer {
	return domain.Beer{
		ID:        m.ID,
		Name:      m.Name,
		Brand:     m.Brand,
		Type:      domain.BeerType(m.Type),
		Max:       m.Max,
		Quantity:  m.Quantity,
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// GormAdapter stores beers, movements and countries through gorm.
type GormAdapter struct {
	db *gorm.DB
}

func NewGormAdapter(db *gorm.DB) *GormAdapter {
	return &GormAdapter{db: db}
}

func (g *GormAdapter) AutoMigrate(ctx context.Context) error {
	if err := g.db.WithContext(ctx).AutoMigrate(&beerModel{}, &movementModel{}, &countryModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (g *GormAdapter) FindByName(ctx context.Context, name string) (*domain.Beer, error) {
	return g.findOne(ctx, "name = ?", name)
}

func (g *GormAdapter) FindByID(ctx context.Context, id int64) (*domain.Beer, error) {
	return g.findOne(ctx, "id = ?", id)
}

func (g *GormAdapter) findOne(ctx context.Context, query string, arg any) (*domain.Beer, error) {
	var model beerModel
	err := g.db.WithContext(ctx).Where(query, arg).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query beer: %w", err)
	}
	beer := model.toDomain()
	return &beer, nil
}

func (g *GormAdapter) FindAll(ctx context.Context) ([]domain.Beer, error) {
	var models []beerModel
	if err := g.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("query beers: %w", err)
	}

	beers := make([]domain.Beer, 0, len(models))
	for _, m := range models {
		beers = append(beers, m.toDomain())
	}
	return beers, nil
}

func (g *GormAdapter) Save(ctx context.Context, beer domain.Beer) (domain.Beer, error) {
	if beer.ID == 0 {
		model := toBeerModel(beer)
		model.Version = 1
		err := g.db.WithContext(ctx).Create(&model).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.Beer{}, port.ErrDuplicateName
		}
		if err != nil {
			return domain.Beer{}, fmt.Errorf("insert beer: %w", err)
		}
		return model.toDomain(), nil
	}

	now := time.Now().UTC()
	result := g.db.WithContext(ctx).
		Model(&beerModel{}).
		Where("id = ? AND version = ?", beer.ID, beer.Version).
		Updates(map[string]any{
			"brand":        beer.Brand,
			"type":         string(beer.Type),
			"max_quantity": beer.Max,
			"quantity":     beer.Quantity,
			"version":      gorm.Expr("version + 1"),
			"updated_at":   now,
		})
	if result.Error != nil {
		return domain.Beer{}, fmt.Errorf("update beer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.Beer{}, port.ErrOptimisticLock
	}

	beer.Version++
	beer.UpdatedAt = now
	return beer, nil
}

func (g *GormAdapter) DeleteByID(ctx context.Context, id int64) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&beerModel{}, id).Error; err != nil {
			return fmt.Errorf("delete beer: %w", err)
		}
		if err := tx.Where("beer_id = ?", id).Delete(&movementModel{}).Error; err != nil {
			return fmt.Errorf("delete movements: %w", err)
		}
		return nil
	})
}

func (g *GormAdapter) Append(ctx context.Context, movement domain.Movement) error {
	// FOR SHARE waits out a concurrent delete of the beer, which then finds no row
	result := g.db.WithContext(ctx).Exec(`
		INSERT INTO movements (id, beer_id, delta, quantity, created_at)
		SELECT CAST(? AS uuid), id, CAST(? AS integer), CAST(? AS integer), CAST(? AS timestamptz)
		FROM beers WHERE id = ? FOR SHARE`,
		movement.ID.String(), movement.Delta, movement.Quantity, movement.CreatedAt, movement.BeerID,
	)
	if result.Error != nil {
		return fmt.Errorf("insert movement: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return port.ErrUnknownBeer
	}
	return nil
}

func (g *GormAdapter) ListByBeer(ctx context.Context, beerID int64) ([]domain.Movement, error) {
	var models []movementModel
	err := g.db.WithContext(ctx).
		Where("beer_id = ?", beerID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("query movements: %w", err)
	}

	movements := make([]domain.Movement, 0, len(models))
	for _, m := range models {
		movements = append(movements, domain.Movement{
			ID:        m.ID,
			BeerID:    m.BeerID,
			Delta:     m.Delta,
			Quantity:  m.Quantity,
			CreatedAt: m.CreatedAt,
		})
	}
	return movements, nil
}

// Countries exposes the pais table as a port.CountryRepository.
func (g *GormAdapter) Countries() *GormCountryAdapter {
	return &GormCountryAdapter{db: g.db}
}

type GormCountryAdapter struct {
	db *gorm.DB
}

func (g *GormCountryAdapter) FindAll(ctx context.Context) ([]domain.Country, error) {
	var models []countryModel
	if err := g.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("query countries: %w", err)
	}

	countries := make([]domain.Country, 0, len(models))
	for _, m := range models {
		countries = append(countries, domain.Country(m))
	}
	return countries, nil
}

func (g *GormCountryAdapter) FindByID(ctx context.Context, id int64) (*domain.Country, error) {
	var model countryModel
	err := g.db.WithContext(ctx).First(&model, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query country: %w", err)
	}
	country := domain.Country(model)
	return &country, nil
}

// Seed inserts the countries that are not stored yet.
func (g *GormCountryAdapter) Seed(ctx context.Context, countries []domain.Country) error {
	if len(countries) == 0 {
		return nil
	}
	models := make([]countryModel, 0, len(countries))
	for _, c := range countries {
		models = append(models, countryModel(c))
	}
	err := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models).Error
	if err != nil {
		return fmt.Errorf("seed countries: %w", err)
	}
	return nil
}

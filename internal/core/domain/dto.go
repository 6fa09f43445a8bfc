package domain

// BeerDTO is the wire representation of a Beer.
type BeerDTO struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Brand    string   `json:"brand"`
	Max      int      `json:"max"`
	Quantity int      `json:"quantity"`
	Type     BeerType `json:"type"`
}

type QuantityDTO struct {
	Quantity int `json:"quantity"`
}

func ToModel(dto BeerDTO) Beer {
	return Beer{
		ID:       dto.ID,
		Name:     dto.Name,
		Brand:    dto.Brand,
		Type:     dto.Type,
		Max:      dto.Max,
		Quantity: dto.Quantity,
	}
}

func ToDTO(beer Beer) BeerDTO {
	return BeerDTO{
		ID:       beer.ID,
		Name:     beer.Name,
		Brand:    beer.Brand,
		Type:     beer.Type,
		Max:      beer.Max,
		Quantity: beer.Quantity,
	}
}

func ToDTOs(beers []Beer) []BeerDTO {
	dtos := make([]BeerDTO, 0, len(beers))
	for _, b := range beers {
		dtos = append(dtos, ToDTO(b))
	}
	return dtos
}

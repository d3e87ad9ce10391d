package property

import (
	"context"
	"errors"

	"stayrates/internal/domain/shared/money"
)

var ErrNotFound = errors.New("property: not found")

type ID string

// RoomCategory is a bookable room class within a property; BaseRate, when
// set, wins over the property-level base price for that category.
type RoomCategory struct {
	Code     string
	Name     string
	BaseRate money.Money
	Units    int
}

type Property struct {
	ID         ID
	HostID     string
	Name       string
	City       string
	Region     string
	Currency   string
	UnitCount  int
	Categories []RoomCategory
}

// Category looks up a room category by code.
func (p *Property) Category(code string) (RoomCategory, bool) {
	for _, c := range p.Categories {
		if c.Code == code {
			return c, true
		}
	}
	return RoomCategory{}, false
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Property, error)
	Save(ctx context.Context, p *Property) error
}

package model

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"

	"innkeeper/shared/model"
)

const (
	TableName  = "rooms"
	EntityName = "room"

	FieldID              = "id"
	FieldRoomNumber      = "room_number"
	FieldRoomType        = "room_type"
	FieldFloor           = "floor"
	FieldCapacity        = "capacity"
	FieldPricePerNight   = "price_per_night"
	FieldAmenities       = "amenities"
	FieldStatus          = "status"
	FieldDescription     = "description"
	FieldImage           = "image"
	FieldActive          = "active"
	FieldLastCleaned     = "last_cleaned"
	FieldNextMaintenance = "next_maintenance"
)

const (
	StatusAvailable   = "Available"
	StatusOccupied    = "Occupied"
	StatusMaintenance = "Maintenance"
	StatusCleaning    = "Cleaning"
	StatusOutOfOrder  = "Out of Order"
)

const (
	TypeStandard     = "Standard"
	TypeDeluxe       = "Deluxe"
	TypeSuite        = "Suite"
	TypePresidential = "Presidential"
	TypeFamily       = "Family"
)

const (
	MinCapacity = 1
	MaxCapacity = 10
)

var Statuses = []string{
	StatusAvailable,
	StatusOccupied,
	StatusMaintenance,
	StatusCleaning,
	StatusOutOfOrder,
}

var Types = []string{
	TypeStandard,
	TypeDeluxe,
	TypeSuite,
	TypePresidential,
	TypeFamily,
}

// IsValidStatus reports whether status is one of the five operational statuses.
func IsValidStatus(status string) bool {
	return slices.Contains(Statuses, status)
}

// Amenities is stored as a JSONB array of strings.
type Amenities []string

func (a Amenities) Value() (driver.Value, error) {
	if a == nil {
		a = Amenities{}
	}

	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal amenities: %w", err)
	}

	return raw, nil
}

func (a *Amenities) Scan(src any) error {
	if src == nil {
		*a = Amenities{}

		return nil
	}

	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unexpected amenities column type %T", src)
	}

	if err := json.Unmarshal(raw, a); err != nil {
		return fmt.Errorf("failed to unmarshal amenities: %w", err)
	}

	return nil
}

type Room struct {
	ID              string       `db:"id"`
	RoomNumber      string       `db:"room_number"`
	RoomType        string       `db:"room_type"`
	Floor           int          `db:"floor"`
	Capacity        int          `db:"capacity"`
	PricePerNight   float64      `db:"price_per_night"`
	Amenities       Amenities    `db:"amenities"`
	Status          string       `db:"status"`
	Description     string       `db:"description"`
	Image           string       `db:"image"`
	Active          bool         `db:"active"`
	LastCleaned     sql.NullTime `db:"last_cleaned"`
	NextMaintenance sql.NullTime `db:"next_maintenance"`
	model.Metadata
}

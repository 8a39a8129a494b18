package model

import (
	"innkeeper/shared/model"
)

const (
	TableName  = "settings"
	EntityName = "settings"

	FieldID         = "id"
	FieldHotelName  = "hotel_name"
	FieldCurrency   = "currency"
	FieldTaxPercent = "tax_percent"
)

const (
	DefaultHotelName  = "Innkeeper Hotel"
	DefaultCurrency   = "USD"
	DefaultTaxPercent = 10
)

// Settings is a singleton row; Get auto-creates it with defaults.
type Settings struct {
	ID         string  `db:"id"`
	HotelName  string  `db:"hotel_name"`
	Currency   string  `db:"currency"`
	TaxPercent float64 `db:"tax_percent"`
	model.Metadata
}

package dto

import (
	"innkeeper/internal/domains/settings/model"
	gDto "innkeeper/shared/dto"
)

type UpdateSettingsRequest struct {
	HotelName  string  `db:"hotel_name"  json:"hotel_name"  validate:"omitempty,max=100"`
	Currency   string  `db:"currency"    json:"currency"    validate:"omitempty,len=3,uppercase"`
	TaxPercent float64 `db:"tax_percent" json:"tax_percent" validate:"omitempty,gte=0,lte=100"`
}

type SettingsResponse struct {
	ID         string  `json:"id"`
	HotelName  string  `json:"hotel_name"`
	Currency   string  `json:"currency"`
	TaxPercent float64 `json:"tax_percent"`
	gDto.Metadata
}

func (r *SettingsResponse) FromModel(mod model.Settings) {
	r.ID = mod.ID
	r.HotelName = mod.HotelName
	r.Currency = mod.Currency
	r.TaxPercent = mod.TaxPercent
	r.Metadata.FromModel(mod.Metadata)
}

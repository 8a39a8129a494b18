package dto

import (
	"mime/multipart"
	"time"

	"github.com/google/uuid"

	"innkeeper/internal/domains/room/model"
	"innkeeper/shared"
	gDto "innkeeper/shared/dto"
	gModel "innkeeper/shared/model"
	"innkeeper/shared/timezone"
)

type CreateRoomRequest struct {
	RoomNumber    string   `json:"room_number"     validate:"required,max=20"`
	RoomType      string   `json:"room_type"       validate:"required,oneof=Standard Deluxe Suite Presidential Family"`
	Floor         int      `json:"floor"           validate:"gte=0"`
	Capacity      int      `json:"capacity"        validate:"required,gte=1,lte=10"`
	PricePerNight float64  `json:"price_per_night" validate:"gte=0"`
	Amenities     []string `json:"amenities"       validate:"omitempty,dive,max=50"`
	Description   string   `json:"description"     validate:"omitempty"`

	Image     *multipart.FileHeader `json:"-" validate:"omitempty,mimetypes=image/jpeg image/png image/webp,maxfilesize=5"`
	ImageFile multipart.File        `json:"-" validate:"omitempty"`
}

func (c *CreateRoomRequest) ToModel(user, imageURL string) model.Room {
	return model.Room{
		ID:            uuid.NewString(),
		RoomNumber:    c.RoomNumber,
		RoomType:      c.RoomType,
		Floor:         c.Floor,
		Capacity:      c.Capacity,
		PricePerNight: c.PricePerNight,
		Amenities:     model.Amenities(c.Amenities),
		Status:        model.StatusAvailable,
		Description:   c.Description,
		Image:         imageURL,
		Active:        true,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateRoomRequest struct {
	RoomNumber    string   `db:"room_number"     json:"room_number"     validate:"omitempty,max=20"`
	RoomType      string   `db:"room_type"       json:"room_type"       validate:"omitempty,oneof=Standard Deluxe Suite Presidential Family"`
	Floor         int      `db:"floor"           json:"floor"           validate:"omitempty,gte=0"`
	Capacity      int      `db:"capacity"        json:"capacity"        validate:"omitempty,gte=1,lte=10"`
	PricePerNight float64  `db:"price_per_night" json:"price_per_night" validate:"omitempty,gte=0"`
	Amenities     []string `json:"amenities"                            validate:"omitempty,dive,max=50"`
	Description   string   `db:"description"     json:"description"     validate:"omitempty"`
}

type UpdateRoomStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AvailabilityQuery narrows the room listing to rooms that are free for the
// requested date range. Dates use the YYYY-MM-DD wire format.
type AvailabilityQuery struct {
	CheckInDate  string `json:"check_in_date"  validate:"required"`
	CheckOutDate string `json:"check_out_date" validate:"required"`
	RoomType     string `json:"room_type"      validate:"omitempty,oneof=Standard Deluxe Suite Presidential Family"`
	Guests       int    `json:"guests"         validate:"omitempty,gte=1"`
}

func (q *AvailabilityQuery) ParseDates() (checkIn, checkOut time.Time, err error) {
	checkIn, err = timezone.Parse("2006-01-02", q.CheckInDate)
	if err != nil {
		return checkIn, checkOut, err
	}

	checkOut, err = timezone.Parse("2006-01-02", q.CheckOutDate)

	return checkIn, checkOut, err
}

type RoomResponse struct {
	ID              string   `json:"id"`
	RoomNumber      string   `json:"room_number"`
	RoomType        string   `json:"room_type"`
	Floor           int      `json:"floor"`
	Capacity        int      `json:"capacity"`
	PricePerNight   float64  `json:"price_per_night"`
	Amenities       []string `json:"amenities"`
	Status          string   `json:"status"`
	Description     string   `json:"description"`
	Image           string   `json:"image"`
	Active          bool     `json:"active"`
	LastCleaned     string   `json:"last_cleaned,omitempty"`
	NextMaintenance string   `json:"next_maintenance,omitempty"`
	gDto.Metadata
}

func (r *RoomResponse) FromModel(mod model.Room) {
	r.ID = mod.ID
	r.RoomNumber = mod.RoomNumber
	r.RoomType = mod.RoomType
	r.Floor = mod.Floor
	r.Capacity = mod.Capacity
	r.PricePerNight = mod.PricePerNight
	r.Amenities = mod.Amenities
	r.Status = mod.Status
	r.Description = mod.Description
	r.Image = mod.Image
	r.Active = mod.Active

	if mod.LastCleaned.Valid {
		r.LastCleaned = mod.LastCleaned.Time.Format("2006-01-02")
	}

	if mod.NextMaintenance.Valid {
		r.NextMaintenance = mod.NextMaintenance.Time.Format("2006-01-02")
	}

	r.Metadata.FromModel(mod.Metadata)
}

type GetRoomsResponse struct {
	Rooms     []RoomResponse `json:"rooms"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetRoomsResponse) FromModels(models []model.Room, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Rooms = make([]RoomResponse, len(models))
	for i, mod := range models {
		r.Rooms[i].FromModel(mod)
	}
}

type RoomTypeStatistics struct {
	RoomType     string  `db:"room_type"     json:"room_type"`
	Count        int     `db:"count"         json:"count"`
	AveragePrice float64 `db:"average_price" json:"average_price"`
}

type RoomStatistics struct {
	TotalRooms       int `db:"total_rooms"       json:"total_rooms"`
	AvailableRooms   int `db:"available_rooms"   json:"available_rooms"`
	OccupiedRooms    int `db:"occupied_rooms"    json:"occupied_rooms"`
	MaintenanceRooms int `db:"maintenance_rooms" json:"maintenance_rooms"`
	CleaningRooms    int `db:"cleaning_rooms"    json:"cleaning_rooms"`
	OutOfOrderRooms  int `db:"out_of_order_rooms" json:"out_of_order_rooms"`
}

type RoomStatisticsResponse struct {
	Overall RoomStatistics       `json:"overall"`
	ByType  []RoomTypeStatistics `json:"by_type"`
}

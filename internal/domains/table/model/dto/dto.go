package dto

import (
	"quicktable/internal/domains/table/model"
	"quicktable/shared"
	gDto "quicktable/shared/dto"
	gModel "quicktable/shared/model"
	"quicktable/shared/timezone"

	"github.com/google/uuid"
)

type CreateTableRequest struct {
	TableNumber int     `json:"table_number" validate:"required,min=1"`
	Capacity    int     `json:"capacity"     validate:"required,min=1"`
	Location    string  `json:"location"     validate:"required,oneof=WINDOW CENTER PATIO BAR"`
	Shape       string  `json:"shape"        validate:"required,oneof=SQUARE ROUND RECTANGLE"`
	PositionX   float64 `json:"position_x"   validate:"omitempty"`
	PositionY   float64 `json:"position_y"   validate:"omitempty"`
	Description string  `json:"description"  validate:"omitempty,max=255"`
}

func (c *CreateTableRequest) ToModel(user string) model.Table {
	return model.Table{
		ID:          uuid.NewString(),
		TableNumber: c.TableNumber,
		Capacity:    c.Capacity,
		Location:    c.Location,
		Shape:       c.Shape,
		Status:      model.StatusAvailable,
		PositionX:   c.PositionX,
		PositionY:   c.PositionY,
		Description: c.Description,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateTableRequest struct {
	TableNumber *int     `db:"table_number" json:"table_number" validate:"omitempty,min=1"`
	Capacity    *int     `db:"capacity"     json:"capacity"     validate:"omitempty,min=1"`
	Location    string   `db:"location"     json:"location"     validate:"omitempty,oneof=WINDOW CENTER PATIO BAR"`
	Shape       string   `db:"shape"        json:"shape"        validate:"omitempty,oneof=SQUARE ROUND RECTANGLE"`
	PositionX   *float64 `db:"position_x"   json:"position_x"   validate:"omitempty"`
	PositionY   *float64 `db:"position_y"   json:"position_y"   validate:"omitempty"`
	Description string   `db:"description"  json:"description"  validate:"omitempty,max=255"`
}

type UpdateTableStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=AVAILABLE RESERVED OCCUPIED MAINTENANCE"`
}

type AvailableTablesRequest struct {
	Date   string `json:"date"   validate:"required,dateonly"`
	Time   string `json:"time"   validate:"required,clock"`
	Guests int    `json:"guests" validate:"required,min=1"`
}

type TableResponse struct {
	ID          string  `json:"id"`
	TableNumber int     `json:"table_number"`
	Capacity    int     `json:"capacity"`
	Location    string  `json:"location"`
	Shape       string  `json:"shape"`
	Status      string  `json:"status"`
	PositionX   float64 `json:"position_x"`
	PositionY   float64 `json:"position_y"`
	Description string  `json:"description"`
	gDto.Metadata
}

func (r *TableResponse) FromModel(model model.Table) {
	r.ID = model.ID
	r.TableNumber = model.TableNumber
	r.Capacity = model.Capacity
	r.Location = model.Location
	r.Shape = model.Shape
	r.Status = model.Status
	r.PositionX = model.PositionX
	r.PositionY = model.PositionY
	r.Description = model.Description
	r.Metadata.FromModel(model.Metadata)
}

type GetTablesResponse struct {
	Tables    []TableResponse `json:"tables"`
	TotalPage int             `json:"total_page"`
	TotalData int             `json:"total_data"`
}

func (r *GetTablesResponse) FromModels(models []model.Table, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Tables = make([]TableResponse, len(models))
	for i, mod := range models {
		r.Tables[i].FromModel(mod)
	}
}

type AvailableTablesResponse struct {
	Date   string          `json:"date"`
	Time   string          `json:"time"`
	Guests int             `json:"guests"`
	Tables []TableResponse `json:"tables"`
}

func (r *AvailableTablesResponse) FromModels(models []model.Table, date, clock string, guests int) {
	r.Date = date
	r.Time = clock
	r.Guests = guests

	r.Tables = make([]TableResponse, len(models))
	for i, mod := range models {
		r.Tables[i].FromModel(mod)
	}
}

package model

import "quicktable/shared/model"

const (
	TableName  = "tables"
	EntityName = "table"

	FieldID          = "id"
	FieldTableNumber = "table_number"
	FieldCapacity    = "capacity"
	FieldLocation    = "location"
	FieldShape       = "shape"
	FieldStatus      = "status"
)

const (
	StatusAvailable   = "AVAILABLE"
	StatusReserved    = "RESERVED"
	StatusOccupied    = "OCCUPIED"
	StatusMaintenance = "MAINTENANCE"
)

const (
	LocationWindow = "WINDOW"
	LocationCenter = "CENTER"
	LocationPatio  = "PATIO"
	LocationBar    = "BAR"
)

const (
	ShapeSquare    = "SQUARE"
	ShapeRound     = "ROUND"
	ShapeRectangle = "RECTANGLE"
)

type Table struct {
	ID          string  `db:"id"`
	TableNumber int     `db:"table_number"`
	Capacity    int     `db:"capacity"`
	Location    string  `db:"location"`
	Shape       string  `db:"shape"`
	Status      string  `db:"status"`
	PositionX   float64 `db:"position_x"`
	PositionY   float64 `db:"position_y"`
	Description string  `db:"description"`
	model.Metadata
}

// Bookable reports whether the table may receive new reservations. Status is
// a display hint kept eventually consistent; only MAINTENANCE blocks booking.
func (t Table) Bookable() bool {
	return t.Status != StatusMaintenance
}

// Stats summarizes the floor for the staff dashboard.
type Stats struct {
	Total         int     `json:"total"`
	Available     int     `json:"available"`
	Reserved      int     `json:"reserved"`
	Occupied      int     `json:"occupied"`
	Maintenance   int     `json:"maintenance"`
	OccupancyRate float64 `json:"occupancy_rate"`
}

package model

import (
	"time"

	"quicktable/shared/model"
)

const (
	TableName  = "users"
	EntityName = "user"

	FieldID        = "id"
	FieldEmail     = "email"
	FieldPassword  = "password"
	FieldRole      = "role"
	FieldFullName  = "full_name"
	FieldPhone     = "phone"
	FieldPoints    = "loyalty_points"
	FieldTier      = "loyalty_tier"
	FieldLastVisit = "last_visit"
	FieldActive    = "active"
)

const (
	TierBronze   = "BRONZE"
	TierSilver   = "SILVER"
	TierGold     = "GOLD"
	TierPlatinum = "PLATINUM"
)

type User struct {
	ID                    string     `db:"id"`
	Email                 string     `db:"email"`
	Password              string     `db:"password"`
	Role                  string     `db:"role"`
	FullName              string     `db:"full_name"`
	Phone                 string     `db:"phone"`
	Points                int        `db:"loyalty_points"`
	Tier                  string     `db:"loyalty_tier"`
	TotalReservations     int        `db:"total_reservations"`
	CompletedReservations int        `db:"completed_reservations"`
	CancelledReservations int        `db:"cancelled_reservations"`
	LastVisit             *time.Time `db:"last_visit"`
	Active                bool       `db:"active"`
	model.Metadata
}

// TierFor maps a loyalty balance to its tier. The tier is a pure function of
// the balance, so recomputing after any award lands on the same answer no
// matter how the points arrived.
func TierFor(points int) string {
	switch {
	case points >= 1000:
		return TierPlatinum
	case points >= 500:
		return TierGold
	case points >= 200:
		return TierSilver
	default:
		return TierBronze
	}
}

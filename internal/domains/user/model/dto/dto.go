package dto

import (
	"time"

	"quicktable/internal/domains/user/model"
	"quicktable/shared"
	"quicktable/shared/constant"
	gDto "quicktable/shared/dto"
	gModel "quicktable/shared/model"
	"quicktable/shared/timezone"

	"github.com/google/uuid"
)

type CreateUserRequest struct {
	Email    string `json:"email"     validate:"required,email,max=100"`
	Password string `json:"password"  validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"required,max=100"`
	Phone    string `json:"phone"     validate:"omitempty,max=20"`
	Role     string `json:"role"      validate:"omitempty,oneof=ADMIN STAFF USER"`
}

func (c *CreateUserRequest) ToModel(actor, hashedPassword string) model.User {
	role := c.Role
	if role == "" {
		role = constant.RoleUser
	}

	return model.User{
		ID:       uuid.NewString(),
		Email:    c.Email,
		Password: hashedPassword,
		Role:     role,
		FullName: c.FullName,
		Phone:    c.Phone,
		Points:   0,
		Tier:     model.TierBronze,
		Active:   true,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  actor,
			ModifiedBy: actor,
		},
	}
}

type UpdateProfileRequest struct {
	FullName string `db:"full_name" json:"full_name" validate:"omitempty,max=100"`
	Phone    string `db:"phone"     json:"phone"     validate:"omitempty,max=20"`
}

type UserResponse struct {
	ID                    string     `json:"id"`
	Email                 string     `json:"email"`
	Role                  string     `json:"role"`
	FullName              string     `json:"full_name"`
	Phone                 string     `json:"phone"`
	Points                int        `json:"loyalty_points"`
	Tier                  string     `json:"loyalty_tier"`
	TotalReservations     int        `json:"total_reservations"`
	CompletedReservations int        `json:"completed_reservations"`
	CancelledReservations int        `json:"cancelled_reservations"`
	LastVisit             *time.Time `json:"last_visit"`
	Active                bool       `json:"active"`
	gDto.Metadata
}

func (r *UserResponse) FromModel(model model.User) {
	r.ID = model.ID
	r.Email = model.Email
	r.Role = model.Role
	r.FullName = model.FullName
	r.Phone = model.Phone
	r.Points = model.Points
	r.Tier = model.Tier
	r.TotalReservations = model.TotalReservations
	r.CompletedReservations = model.CompletedReservations
	r.CancelledReservations = model.CancelledReservations
	r.LastVisit = model.LastVisit
	r.Active = model.Active
	r.Metadata.FromModel(model.Metadata)
}

type GetUsersResponse struct {
	Users     []UserResponse `json:"users"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetUsersResponse) FromModels(models []model.User, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Users = make([]UserResponse, len(models))
	for i, mod := range models {
		r.Users[i].FromModel(mod)
	}
}

type LoyaltyResponse struct {
	Points                int    `json:"loyalty_points"`
	Tier                  string `json:"loyalty_tier"`
	CompletedReservations int    `json:"completed_reservations"`
	NextTierAt            int    `json:"next_tier_at"`
}

func (r *LoyaltyResponse) FromModel(user model.User) {
	r.Points = user.Points
	r.Tier = user.Tier
	r.CompletedReservations = user.CompletedReservations

	switch {
	case user.Points >= 1000:
		r.NextTierAt = 0
	case user.Points >= 500:
		r.NextTierAt = 1000
	case user.Points >= 200:
		r.NextTierAt = 500
	default:
		r.NextTierAt = 200
	}
}

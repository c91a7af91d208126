package user

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID             uint
	Name           string
	Email          string
	Password       string
	Role           Role
	Address        *string
	Phone          *string
	LoyaltyBalance float64
	CreatedAt      time.Time
}

type UpdateProfileParams struct {
	Name    *string
	Address *string
	Phone   *string
}

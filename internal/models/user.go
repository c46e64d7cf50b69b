package models

import "time"

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleCoach   UserRole = "coach"
	RoleAdmin   UserRole = "admin"
)

// User is the minimal identity projection the service needs. Full identity
// management lives in Casdoor; this mirrors the claims we consume.
type User struct {
	ID          string   `json:"id" gorm:"primaryKey;size:64"`
	Name        string   `json:"name" gorm:"size:100"`
	Email       string   `json:"email" gorm:"size:200;index"`
	DisplayName string   `json:"display_name" gorm:"size:200"`
	Role        UserRole `json:"role" gorm:"default:student" validate:"omitempty,user_role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Username       string    `gorm:"uniqueIndex;not null"`
	Email          string    `gorm:"not null"`
	HashedPassword string    `gorm:"not null"`
	Role           string    `gorm:"not null;default:user"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending         = "Pending"
	StatusInProgress      = "In Progress"
	StatusCompleted       = "Completed"
	StatusDeadlineReached = "Deadline Reached"
)

// ValidStatus reports whether s is one of the recognized task statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusDeadlineReached:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title       string    `gorm:"not null"`
	Description string
	AssignedTo  uuid.UUID `gorm:"type:uuid;not null;index"`
	Deadline    time.Time `gorm:"type:date;not null"`
	Status      string    `gorm:"not null;default:Pending"`

	// FormPath and CompletedAssignmentPath reference at most one stored
	// file each; replacing a file supersedes the previous one.
	FormPath                string
	CompletedAssignmentPath string

	CreatedAt time.Time `gorm:"autoCreateTime"`

	Assignee User `gorm:"foreignKey:AssignedTo"`
}
